package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"whisperbatch/internal/language"
)

func (c *Config) DeviceType() string {
	return strings.ToLower(strings.TrimSpace(c.GetString("device.type", defaultDeviceType)))
}

func (c *Config) ComputeType() string {
	return strings.ToLower(strings.TrimSpace(c.GetString("device.compute_type", defaultComputeType)))
}

// Backend selects the model host: the local whisperx worker or an
// OpenAI-compatible transcription endpoint.
func (c *Config) Backend() string {
	return strings.ToLower(strings.TrimSpace(c.GetString("whisper.backend", defaultBackend)))
}

func (c *Config) ModelSize() string {
	return strings.TrimSpace(c.GetString("whisper.model_size", defaultModelSize))
}

// Language returns the canonical base language code, or "" for auto-detect.
func (c *Config) Language() string {
	return language.Normalize(c.GetString("whisper.language", defaultLanguage))
}

func (c *Config) BatchSize() int {
	return c.GetInt("whisper.batch_size", defaultBatchSize)
}

// WorkerCommand is the launcher prefix for the whisperx worker script.
func (c *Config) WorkerCommand() []string {
	cmd := c.GetStringSlice("worker.command", defaultWorkerCommand)
	if len(cmd) == 0 {
		return cloneStrings(defaultWorkerCommand)
	}
	return cmd
}

func (c *Config) WorkerStartupTimeout() time.Duration {
	seconds := c.GetInt("worker.startup_timeout_seconds", 0)
	if seconds <= 0 {
		return defaultWorkerStartupTimeout
	}
	return time.Duration(seconds) * time.Second
}

// WorkerURL attaches to an already running whisperx worker instead of
// launching one.
func (c *Config) WorkerURL() string {
	return strings.TrimSpace(c.GetString("worker.url", ""))
}

// WorkerBaseURL is the OpenAI-compatible endpoint; empty means the public API.
func (c *Config) WorkerBaseURL() string {
	return strings.TrimSpace(c.GetString("worker.base_url", ""))
}

// WorkerAPIKey falls back to OPENAI_API_KEY.
func (c *Config) WorkerAPIKey() string {
	if key := strings.TrimSpace(c.GetString("worker.api_key", "")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

func (c *Config) InputDir() string  { return c.pathValue("paths.input", defaultInputDir) }
func (c *Config) OutputDir() string { return c.pathValue("paths.output", defaultOutputDir) }
func (c *Config) LogsDir() string   { return c.pathValue("paths.logs", defaultLogsDir) }

func (c *Config) pathValue(key, def string) string {
	raw := strings.TrimSpace(c.GetString(key, def))
	if raw == "" {
		raw = def
	}
	expanded, err := ExpandPath(raw)
	if err != nil {
		return raw
	}
	return expanded
}

// AudioExtensions returns lower-cased extensions with a leading dot.
func (c *Config) AudioExtensions() []string {
	return NormalizeExtensions(c.GetStringSlice("processing.audio_extensions", defaultAudioExtensions))
}

// NormalizeExtensions lower-cases, dot-prefixes, and de-duplicates extensions.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) SkipExisting() bool {
	return c.GetBool("processing.skip_existing", false)
}

func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.GetString("processing.ffmpeg", defaultFFmpeg)); bin != "" {
		return bin
	}
	return defaultFFmpeg
}

func (c *Config) AlignmentEnabled() bool {
	return c.GetBool("alignment.enabled", true)
}

func (c *Config) ReturnCharAlignments() bool {
	return c.GetBool("alignment.return_char_alignments", false)
}

func (c *Config) DiarizationEnabled() bool {
	return c.GetBool("diarization.enabled", false)
}

// MinSpeakers and MaxSpeakers return 0 when unbounded.
func (c *Config) MinSpeakers() int { return c.GetInt("diarization.min_speakers", 0) }
func (c *Config) MaxSpeakers() int { return c.GetInt("diarization.max_speakers", 0) }

func (c *Config) FillNearest() bool {
	return c.GetBool("diarization.fill_nearest", false)
}

// OutputFormats returns the lower-cased export formats in configured order.
func (c *Config) OutputFormats() []string {
	raw := c.GetStringSlice("output.formats", defaultOutputFormats)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (c *Config) JSONEnsureASCII() bool { return c.GetBool("output.json.ensure_ascii", false) }
func (c *Config) JSONIndent() int       { return c.GetInt("output.json.indent", defaultJSONIndent) }

func (c *Config) TXTIncludeSpeakers() bool { return c.GetBool("output.txt.include_speakers", true) }
func (c *Config) TXTIncludeTimestamps() bool {
	return c.GetBool("output.txt.include_timestamps", false)
}
func (c *Config) SRTIncludeSpeakers() bool { return c.GetBool("output.srt.include_speakers", false) }

func (c *Config) LogLevel() string {
	return strings.ToUpper(strings.TrimSpace(c.GetString("logging.level", defaultLogLevel)))
}

func (c *Config) LogFile() string {
	return strings.TrimSpace(c.GetString("logging.file", defaultLogFile))
}

// LogFilePath joins the log file name onto the logs directory unless it is
// already absolute. Empty disables the file sink.
func (c *Config) LogFilePath() string {
	name := c.LogFile()
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.LogsDir(), name)
}

func (c *Config) LogConsole() bool { return c.GetBool("logging.console", true) }

func (c *Config) LogFormat() string {
	return strings.ToLower(strings.TrimSpace(c.GetString("logging.format", defaultLogFormat)))
}

func (c *Config) LogRetentionDays() int { return c.GetInt("logging.retention_days", 0) }

func (c *Config) HistoryEnabled() bool { return c.GetBool("history.enabled", false) }

// HistoryPath defaults to history.db inside the logs directory.
func (c *Config) HistoryPath() string {
	if p := strings.TrimSpace(c.GetString("history.path", "")); p != "" {
		if expanded, err := ExpandPath(p); err == nil {
			return expanded
		}
		return p
	}
	return filepath.Join(c.LogsDir(), defaultHistoryFile)
}

// MetricsTextfile is the Prometheus textfile target; empty disables it.
func (c *Config) MetricsTextfile() string {
	return strings.TrimSpace(c.GetString("metrics.textfile", ""))
}

// ScratchDir holds per-run normalized audio; defaults to a directory under
// the OS temp dir.
func (c *Config) ScratchDir() string {
	return c.pathValue("processing.scratch_dir", filepath.Join(os.TempDir(), "whisperbatch"))
}

// NtfyTopic is the full ntfy topic URL; empty disables notifications.
func (c *Config) NtfyTopic() string {
	return strings.TrimSpace(c.GetString("notifications.ntfy_topic", ""))
}

func (c *Config) NtfyRequestTimeout() time.Duration {
	seconds := c.GetInt("notifications.request_timeout_seconds", 0)
	if seconds <= 0 {
		return defaultNtfyTimeout
	}
	return time.Duration(seconds) * time.Second
}
