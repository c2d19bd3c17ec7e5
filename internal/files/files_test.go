package files

import (
	"os"
	"path/filepath"
	"testing"

	"whisperbatch/internal/logging"
)

func newTestHandler(t *testing.T, exts ...string) *Handler {
	t.Helper()
	root := t.TempDir()
	h, err := NewHandler(filepath.Join(root, "in"), filepath.Join(root, "out"), exts, logging.NewNop())
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewHandlerCreatesDirectories(t *testing.T) {
	h := newTestHandler(t, ".wav")
	for _, dir := range []string{h.InputDir(), h.OutputDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if _, err := NewHandler(h.InputDir(), h.OutputDir(), nil, nil); err != nil {
		t.Fatalf("second NewHandler should be idempotent: %v", err)
	}
}

func TestFindAudioFilesFiltersAndSorts(t *testing.T) {
	h := newTestHandler(t, "MP3", ".wav")
	touch(t, filepath.Join(h.InputDir(), "b.wav"), 2048)
	touch(t, filepath.Join(h.InputDir(), "a.MP3"), 10)
	touch(t, filepath.Join(h.InputDir(), "notes.txt"), 10)
	if err := os.Mkdir(filepath.Join(h.InputDir(), "nested.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := h.FindAudioFiles()
	if err != nil {
		t.Fatalf("FindAudioFiles: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(found), found)
	}
	if found[0].Name() != "a.MP3" || found[1].Name() != "b.wav" {
		t.Fatalf("unexpected order: %s, %s", found[0].Name(), found[1].Name())
	}
	if found[1].Size != 2048 {
		t.Fatalf("unexpected size %d", found[1].Size)
	}
	if found[1].Format != "wav" {
		t.Fatalf("expected extension fallback format, got %q", found[1].Format)
	}
}

func TestFindAudioFilesFollowsSymlinks(t *testing.T) {
	h := newTestHandler(t, ".mp3", "wav")
	src := t.TempDir()
	touch(t, filepath.Join(src, "real.wav"), 512)
	touch(t, filepath.Join(h.InputDir(), "a.wav"), 10)
	touch(t, filepath.Join(h.InputDir(), "b.MP3"), 10)
	touch(t, filepath.Join(h.InputDir(), "c.txt"), 10)
	if err := os.Symlink(filepath.Join(src, "real.wav"), filepath.Join(h.InputDir(), "linked.wav")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(src, "gone.wav"), filepath.Join(h.InputDir(), "broken.wav")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(src, filepath.Join(h.InputDir(), "dir.wav")); err != nil {
		t.Fatal(err)
	}

	found, err := h.FindAudioFiles()
	if err != nil {
		t.Fatalf("FindAudioFiles: %v", err)
	}
	var names []string
	for _, f := range found {
		names = append(names, f.Name())
	}
	if len(found) != 3 || names[0] != "a.wav" || names[1] != "b.MP3" || names[2] != "linked.wav" {
		t.Fatalf("unexpected files %v", names)
	}
	if found[2].Size != 512 {
		t.Fatalf("linked size = %d, want size of the target", found[2].Size)
	}
}

func TestFindAudioFilesEmpty(t *testing.T) {
	h := newTestHandler(t, ".wav")
	found, err := h.FindAudioFiles()
	if err != nil {
		t.Fatalf("FindAudioFiles: %v", err)
	}
	if found == nil || len(found) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", found)
	}
}

func TestFindAudioFilesMissingInputDir(t *testing.T) {
	h := newTestHandler(t, ".wav")
	if err := os.RemoveAll(h.InputDir()); err != nil {
		t.Fatal(err)
	}
	if _, err := h.FindAudioFiles(); err == nil {
		t.Fatal("expected error for missing input directory")
	}
}

func TestOutputPaths(t *testing.T) {
	h := newTestHandler(t, ".wav")
	got := h.OutputPath("/somewhere/else/talk.final.mp3", "srt")
	want := filepath.Join(h.OutputDir(), "talk.final_transcricao.srt")
	if got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
	if got := h.OutputPath("talk.mp3", ".json"); got != filepath.Join(h.OutputDir(), "talk_transcricao.json") {
		t.Fatalf("leading dot not stripped: %q", got)
	}
	if got := h.OutputBase("talk.mp3"); got != filepath.Join(h.OutputDir(), "talk_transcricao") {
		t.Fatalf("OutputBase = %q", got)
	}
}

func TestOutputExists(t *testing.T) {
	h := newTestHandler(t, ".wav")
	audio := filepath.Join(h.InputDir(), "talk.wav")

	if h.OutputExists(audio, nil) {
		t.Fatal("empty format list must report false")
	}
	touch(t, h.OutputPath(audio, "json"), 1)
	if h.OutputExists(audio, []string{"json", "txt"}) {
		t.Fatal("expected false while txt is missing")
	}
	touch(t, h.OutputPath(audio, "txt"), 1)
	if !h.OutputExists(audio, []string{"json", "txt"}) {
		t.Fatal("expected true once every format exists")
	}
}
