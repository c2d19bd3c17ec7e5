package export

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"whisperbatch/internal/transcript"
)

func sampleResult() *transcript.Result {
	return &transcript.Result{
		Language: "pt",
		Segments: []transcript.Segment{
			{Start: 0, End: 75.4, Text: "  Olá, <mundo> & 🎉 ", Speaker: "SPEAKER_00"},
			{Start: 75.4, End: 3661.5, Text: "tchau"},
		},
		Stage: transcript.StageDiarized,
	}
}

func TestExportWritesRequestedFormats(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "aula_transcricao")
	var logs bytes.Buffer
	exp := New(DefaultOptions(), slog.New(slog.NewTextHandler(&logs, nil)))

	written := exp.Export(sampleResult(), base, []string{"json", "XML", "txt", "srt", "json"})
	want := []string{base + ".json", base + ".txt", base + ".srt"}
	if len(written) != len(want) {
		t.Fatalf("written = %v, want %v", written, want)
	}
	for i := range want {
		if written[i] != want[i] {
			t.Fatalf("written[%d] = %s, want %s", i, written[i], want[i])
		}
		if _, err := os.Stat(want[i]); err != nil {
			t.Fatalf("missing %s: %v", want[i], err)
		}
	}
	if _, err := os.Stat(base + ".xml"); !os.IsNotExist(err) {
		t.Fatal("unknown format must not produce a file")
	}
	if !strings.Contains(logs.String(), "unknown output format") {
		t.Fatalf("expected warning for unknown format, got %q", logs.String())
	}
}

func TestExportWriteFailureIsSkipped(t *testing.T) {
	base := filepath.Join(t.TempDir(), "missing", "nested", "out")
	written := New(DefaultOptions(), nil).Export(sampleResult(), base, []string{"txt"})
	if len(written) != 0 {
		t.Fatalf("expected nothing written, got %v", written)
	}
}

func TestJSONDefaults(t *testing.T) {
	data, err := encodeJSON(sampleResult(), DefaultOptions())
	if err != nil {
		t.Fatalf("encodeJSON: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Olá, <mundo> & 🎉") {
		t.Fatalf("expected raw UTF-8 without HTML escaping: %s", text)
	}
	if !strings.Contains(text, "\n  \"language\": \"pt\"") {
		t.Fatalf("expected two-space indent: %s", text)
	}
	var back transcript.Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back.Segments[0].Speaker != "SPEAKER_00" {
		t.Fatalf("speaker lost: %+v", back.Segments[0])
	}
}

func TestJSONEnsureASCIICompact(t *testing.T) {
	data, err := encodeJSON(sampleResult(), Options{JSONEnsureASCII: true})
	if err != nil {
		t.Fatalf("encodeJSON: %v", err)
	}
	text := strings.TrimSpace(string(data))
	if strings.Contains(text, "\n") {
		t.Fatalf("indent 0 should be compact: %s", text)
	}
	if !strings.Contains(text, `Ol\u00e1`) || !strings.Contains(text, `\ud83c\udf89`) {
		t.Fatalf("expected \\u escapes with surrogate pair: %s", text)
	}
	for _, r := range text {
		if r > 127 {
			t.Fatalf("non-ASCII rune %q in output", r)
		}
	}
	var back transcript.Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if back.Segments[0].Text != "  Olá, <mundo> & 🎉 " {
		t.Fatalf("text did not round trip: %q", back.Segments[0].Text)
	}
}

func TestJSONEmptyResultHasSegmentsArray(t *testing.T) {
	data, err := encodeJSON(&transcript.Result{Language: "en"}, Options{})
	if err != nil {
		t.Fatalf("encodeJSON: %v", err)
	}
	if !strings.Contains(string(data), `"segments":[]`) {
		t.Fatalf("expected empty segments array: %s", data)
	}
}

func TestTXT(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"defaults", DefaultOptions(), "[SPEAKER_00] Olá, <mundo> & 🎉\ntchau\n"},
		{"timestamps", Options{TXTIncludeSpeakers: true, TXTIncludeTimestamps: true},
			"[SPEAKER_00] [00:00 -> 01:15] Olá, <mundo> & 🎉\n[01:15 -> 61:01] tchau\n"},
		{"bare", Options{}, "Olá, <mundo> & 🎉\ntchau\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encodeTXT(sampleResult(), tt.opts)
			if err != nil {
				t.Fatalf("encodeTXT: %v", err)
			}
			if string(data) != tt.want {
				t.Fatalf("got %q, want %q", data, tt.want)
			}
		})
	}
}

func TestSRT(t *testing.T) {
	data, err := encodeSRT(sampleResult(), DefaultOptions())
	if err != nil {
		t.Fatalf("encodeSRT: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:01:15,400\nOlá, <mundo> & 🎉\n\n" +
		"2\n00:01:15,400 --> 01:01:01,500\ntchau\n\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}

	data, err = encodeSRT(sampleResult(), Options{SRTIncludeSpeakers: true})
	if err != nil {
		t.Fatalf("encodeSRT: %v", err)
	}
	if !strings.Contains(string(data), "\n[SPEAKER_00] Olá") || strings.Contains(string(data), "[] tchau") {
		t.Fatalf("unexpected speaker prefixes: %q", data)
	}
}

func TestTXTTimestampsAndSpeaker(t *testing.T) {
	opts := DefaultOptions()
	opts.TXTIncludeTimestamps = true
	result := &transcript.Result{Segments: []transcript.Segment{
		{Start: 1.0, End: 2.0, Text: " hello ", Speaker: "SPEAKER_00"},
	}}
	data, err := encodeTXT(result, opts)
	if err != nil {
		t.Fatalf("encodeTXT: %v", err)
	}
	if got, want := string(data), "[SPEAKER_00] [00:01 -> 00:02] hello\n"; got != want {
		t.Fatalf("txt = %q, want %q", got, want)
	}
}

func TestSRTTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:        "00:00:00,000",
		75.4:     "00:01:15,400",
		3661.5:   "01:01:01,500",
		3661.005: "01:01:01,005",
	}
	for in, want := range cases {
		if got := srtTimestamp(in); got != want {
			t.Errorf("srtTimestamp(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported(" SRT ") || Supported("xml") {
		t.Fatal("unexpected Supported result")
	}
}
