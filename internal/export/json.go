package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"whisperbatch/internal/transcript"
)

func encodeJSON(result *transcript.Result, opts Options) ([]byte, error) {
	doc := *result
	if doc.Segments == nil {
		doc.Segments = []transcript.Segment{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if opts.JSONIndent > 0 {
		enc.SetIndent("", strings.Repeat(" ", opts.JSONIndent))
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if !opts.JSONEnsureASCII {
		return buf.Bytes(), nil
	}
	return escapeNonASCII(buf.Bytes()), nil
}

// escapeNonASCII rewrites every non-ASCII rune as a \uXXXX escape, using a
// surrogate pair outside the Basic Multilingual Plane. Valid JSON only
// carries such runes inside strings, so the rewrite keeps it valid.
func escapeNonASCII(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		switch {
		case r < utf8.RuneSelf:
			out.WriteByte(byte(r))
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&out, `\u%04x`, r)
		}
	}
	return out.Bytes()
}
