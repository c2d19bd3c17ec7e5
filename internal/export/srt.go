package export

import (
	"fmt"
	"math"
	"strings"

	"whisperbatch/internal/transcript"
)

func encodeSRT(result *transcript.Result, opts Options) ([]byte, error) {
	var b strings.Builder
	for i, seg := range result.Segments {
		text := strings.TrimSpace(seg.Text)
		if opts.SRTIncludeSpeakers && seg.Speaker != "" {
			text = "[" + seg.Speaker + "] " + text
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), text)
	}
	return []byte(b.String()), nil
}

// srtTimestamp truncates rather than rounds: 75.4 becomes 00:01:15,400.
func srtTimestamp(seconds float64) string {
	hours := int(math.Floor(seconds / 3600))
	minutes := int(math.Floor(math.Mod(seconds, 3600) / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	millis := int(math.Floor(math.Mod(seconds, 1) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
