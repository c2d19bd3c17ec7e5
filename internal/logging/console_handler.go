package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05"

// leadingKeys follow the message in this order; everything else keeps the
// order it was logged in.
var leadingKeys = []string{
	FieldRunID,
	FieldFile,
	FieldStage,
	FieldEventType,
	"error",
	FieldImpact,
	FieldErrorHint,
}

var levelStyles = map[slog.Level]struct{ label, color string }{
	slog.LevelDebug: {"DEBUG", "\x1b[90m"},
	slog.LevelInfo:  {"INFO ", "\x1b[36m"},
	slog.LevelWarn:  {"WARN ", "\x1b[33m"},
	slog.LevelError: {"ERROR", "\x1b[31m"},
}

// lineHandler writes one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO  [pipeline] file done run_id=... file=talk.wav segments=3
//
// Every attribute stays on the record's line so grepping a run ID or file
// name returns whole records.
type lineHandler struct {
	out       *lockedWriter
	level     *slog.LevelVar
	preset    []pair
	prefix    string
	addSource bool
	color     bool
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

type pair struct {
	key string
	val slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource, color bool) slog.Handler {
	return &lineHandler{out: &lockedWriter{w: w}, level: lvl, addSource: addSource, color: color}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = slices.Clone(h.preset)
	for _, a := range attrs {
		next.preset = collect(next.preset, h.prefix, a)
	}
	return &next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	pairs := slices.Clone(h.preset)
	r.Attrs(func(a slog.Attr) bool {
		pairs = collect(pairs, h.prefix, a)
		return true
	})
	pairs = lastWins(pairs)

	var component string
	if i := slices.IndexFunc(pairs, func(p pair) bool { return p.key == FieldComponent }); i >= 0 {
		component = render(pairs[i].val)
		pairs = slices.Delete(pairs, i, i+1)
	}
	sortLeading(pairs)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.Local().Format(consoleTimeLayout))
	b.WriteByte(' ')
	b.WriteString(h.levelText(r.Level))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "-"
	}
	b.WriteString(" " + msg)
	for _, p := range pairs {
		b.WriteString(" " + p.key + "=" + quoteIfNeeded(render(p.val)))
	}
	if h.addSource {
		if src := r.Source(); src != nil && src.File != "" {
			b.WriteString(" (" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + ")")
		}
	}
	b.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := io.WriteString(h.out.w, b.String())
	return err
}

func (h *lineHandler) levelText(level slog.Level) string {
	base := slog.LevelDebug
	for _, l := range []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo} {
		if level >= l {
			base = l
			break
		}
	}
	style := levelStyles[base]
	if !h.color {
		return style.label
	}
	return style.color + style.label + "\x1b[0m"
}

// collect flattens groups into dotted keys.
func collect(dst []pair, prefix string, a slog.Attr) []pair {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			dst = collect(dst, prefix, member)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, pair{key: prefix + a.Key, val: a.Value})
}

// lastWins keeps the first position of each key with its latest value, so
// a file-scoped logger can override a run-scoped stage.
func lastWins(pairs []pair) []pair {
	seen := make(map[string]int, len(pairs))
	out := pairs[:0]
	for _, p := range pairs {
		if i, ok := seen[p.key]; ok {
			out[i].val = p.val
			continue
		}
		seen[p.key] = len(out)
		out = append(out, p)
	}
	return out
}

func sortLeading(pairs []pair) {
	rank := func(key string) int {
		if i := slices.Index(leadingKeys, key); i >= 0 {
			return i
		}
		return len(leadingKeys)
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return rank(a.key) - rank(b.key) })
}

func render(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Local().Format(consoleTimeLayout)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '"' || r == '=' }) {
		return strconv.Quote(s)
	}
	return s
}
