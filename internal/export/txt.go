package export

import (
	"fmt"
	"math"
	"strings"

	"whisperbatch/internal/transcript"
)

func encodeTXT(result *transcript.Result, opts Options) ([]byte, error) {
	var b strings.Builder
	for _, seg := range result.Segments {
		parts := make([]string, 0, 3)
		if opts.TXTIncludeSpeakers && seg.Speaker != "" {
			parts = append(parts, "["+seg.Speaker+"]")
		}
		if opts.TXTIncludeTimestamps {
			parts = append(parts, fmt.Sprintf("[%s -> %s]", clockMMSS(seg.Start), clockMMSS(seg.End)))
		}
		parts = append(parts, strings.TrimSpace(seg.Text))
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// clockMMSS renders seconds as MM:SS; minutes are not wrapped into hours.
func clockMMSS(seconds float64) string {
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
