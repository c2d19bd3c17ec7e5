package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"whisperbatch/internal/config"
	"whisperbatch/internal/fileutil"
	"whisperbatch/internal/logging"
)

// OutputSuffix is appended to the input stem for every exported file.
const OutputSuffix = "_transcricao"

// AudioFile is one discovered input.
type AudioFile struct {
	Path string
	Size int64
	// Format is the container detected from the file header, falling back to
	// the extension when the header is not recognized.
	Format string
}

// Name returns the base name of the file.
func (f AudioFile) Name() string {
	return filepath.Base(f.Path)
}

// SizeMB returns the size in mebibytes.
func (f AudioFile) SizeMB() float64 {
	return float64(f.Size) / (1024 * 1024)
}

// Handler discovers inputs and resolves output paths.
type Handler struct {
	inputDir   string
	outputDir  string
	extensions map[string]struct{}
	logger     *slog.Logger
}

// NewHandler creates both directories if needed and normalizes extensions.
func NewHandler(inputDir, outputDir string, extensions []string, logger *slog.Logger) (*Handler, error) {
	for _, dir := range []string{inputDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	exts := make(map[string]struct{})
	for _, ext := range config.NormalizeExtensions(extensions) {
		exts[ext] = struct{}{}
	}
	return &Handler{
		inputDir:   inputDir,
		outputDir:  outputDir,
		extensions: exts,
		logger:     logging.NewComponentLogger(logger, "files"),
	}, nil
}

func (h *Handler) InputDir() string  { return h.inputDir }
func (h *Handler) OutputDir() string { return h.outputDir }

// FindAudioFiles lists regular files (or symlinks to them) directly inside
// the input directory whose extension is allowed, sorted by path.
func (h *Handler) FindAudioFiles() ([]AudioFile, error) {
	entries, err := os.ReadDir(h.inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory %q: %w", h.inputDir, err)
	}

	found := make([]AudioFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := h.extensions[ext]; !ok {
			continue
		}
		path := filepath.Join(h.inputDir, entry.Name())
		// Stat follows symlinks so linked recordings count as files.
		info, err := os.Stat(path)
		if err != nil {
			logging.WarnWithContext(h.logger, "audio file unreadable", "input_file_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix or remove the broken link"),
				logging.String(logging.FieldImpact, "file is not transcribed"),
			)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		found = append(found, AudioFile{Path: path, Size: info.Size(), Format: detectFormat(path)})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	if len(found) == 0 {
		logging.WarnWithContext(h.logger, "no audio files found", "no_input_files",
			logging.String("input_dir", h.inputDir),
			logging.String("extensions", strings.Join(h.sortedExtensions(), ",")),
			logging.String(logging.FieldErrorHint, "place audio files in the input directory or adjust processing.audio_extensions"),
			logging.String(logging.FieldImpact, "nothing to transcribe"),
		)
		return found, nil
	}

	h.logger.Info("audio files discovered", logging.Int("count", len(found)), logging.String("input_dir", h.inputDir))
	for _, f := range found {
		h.logger.Info("audio file",
			logging.String("name", f.Name()),
			logging.String("size_mb", fmt.Sprintf("%.2f", f.SizeMB())),
			logging.String("format", f.Format),
		)
	}
	return found, nil
}

// OutputBase is the output path without extension: {output}/{stem}_transcricao.
func (h *Handler) OutputBase(audioPath string) string {
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(h.outputDir, stem+OutputSuffix)
}

// OutputPath returns {output}/{stem}_transcricao.{extension}.
func (h *Handler) OutputPath(audioPath, extension string) string {
	return h.OutputBase(audioPath) + "." + strings.TrimPrefix(extension, ".")
}

// OutputExists reports whether an output exists for every format. An empty
// format list reports false so nothing is skipped by accident.
func (h *Handler) OutputExists(audioPath string, formats []string) bool {
	if len(formats) == 0 {
		return false
	}
	for _, format := range formats {
		if !fileutil.Exists(h.OutputPath(audioPath, format)) {
			return false
		}
	}
	return true
}

func (h *Handler) sortedExtensions() []string {
	out := make([]string, 0, len(h.extensions))
	for ext := range h.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func detectFormat(path string) string {
	fallback := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	_, fileType, err := tag.Identify(f)
	if err != nil || fileType == tag.UnknownFileType {
		return fallback
	}
	return strings.ToLower(string(fileType))
}
