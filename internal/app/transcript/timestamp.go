package transcript

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timestamps are rendered as HH:MM:SS with millisecond precision. Seconds
// round half away from zero to the nearest millisecond, so 1.0005 s becomes
// 00:00:01,001.

func formatClock(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		ms/3600000, ms%3600000/60000, ms%60000/1000, sep, ms%1000)
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm.
func FormatSRTTimestamp(seconds float64) string {
	return formatClock(seconds, ',')
}

// FormatVTTTimestamp renders seconds as HH:MM:SS.mmm.
func FormatVTTTimestamp(seconds float64) string {
	return formatClock(seconds, '.')
}

// ParseTimestamp reads HH:MM:SS,mmm or HH:MM:SS.mmm back into seconds. The
// hour field is optional, as WebVTT permits.
func ParseTimestamp(s string) (float64, error) {
	text := strings.TrimSpace(s)
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("transcript: malformed timestamp %q", s)
	}

	secPart := parts[len(parts)-1]
	secPart = strings.Replace(secPart, ",", ".", 1)
	sec, err := strconv.ParseFloat(secPart, 64)
	if err != nil || sec < 0 {
		return 0, fmt.Errorf("transcript: malformed timestamp %q", s)
	}

	total := sec
	multiplier := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		unit, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("transcript: malformed timestamp %q", s)
		}
		total += float64(unit) * multiplier
		multiplier *= 60
	}
	return total, nil
}
