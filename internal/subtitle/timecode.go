package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// millisUlps is how many units in the last place of the input the
// millisecond field is nudged before flooring. It undoes binary
// representation error (3661.234 renders as .234) and nothing more.
const millisUlps = 4

// FormatTimecode renders seconds as HH:MM:SS.mmm. Every field is truncated,
// hours are not wrapped at 24, and negative input clamps to zero.
func FormatTimecode(seconds float64) string {
	return formatClock(seconds, '.')
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm for SubRip cues.
func FormatSRTTimestamp(seconds float64) string {
	return formatClock(seconds, ',')
}

func formatClock(seconds float64, sep byte) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if math.IsInf(seconds, 1) {
		seconds = math.MaxInt32
	}
	whole := math.Floor(seconds)
	hours := int64(whole) / 3600
	minutes := (int64(whole) % 3600) / 60
	secs := int64(whole) % 60
	ulp := math.Nextafter(seconds, math.Inf(1)) - seconds
	millis := int64(math.Floor((seconds-whole)*1000 + millisUlps*ulp*1000))
	if millis > 999 {
		millis = 999
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}

// ParseTimestamp accepts HH:MM:SS.mmm, HH:MM:SS,mmm or the short WebVTT
// form MM:SS.mmm and returns seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ",", ".")
	clock, fraction, ok := strings.Cut(value, ".")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) == 2 {
		hms = append([]string{"0"}, hms...)
	}
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(fraction)
	if errH != nil || errM != nil || errS != nil || errMS != nil || len(fraction) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}
