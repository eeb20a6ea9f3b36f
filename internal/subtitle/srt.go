package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm).
// Milliseconds are truncated, not rounded, so a cue never starts earlier
// than its source timing. Negative inputs clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMillis := int64(math.Floor(seconds * 1000))
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp converts an SRT timestamp back to seconds. A period is
// accepted in place of the standard comma millisecond separator.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Encode serializes segments into SRT. The 1-based contiguous cue index is
// derived purely from sequence position at encode time. Re-encoding the same
// sequence always yields the same bytes.
func Encode(segments []Segment) []byte {
	var b strings.Builder
	for i, seg := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteByte('\n')
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return []byte(b.String())
}

// Parse reads SRT content back into segments. Cue indexes are discarded;
// multi-line cue text is preserved with embedded newlines so Parse(Encode(S))
// round-trips timestamps and trimmed text exactly.
func Parse(data []byte) ([]Segment, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")
	var segments []Segment
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("malformed srt block %q", block)
		}
		timingLine := lines[1]
		if !strings.Contains(lines[1], "-->") {
			// Tolerate blocks without the numeric index line.
			timingLine = lines[0]
			lines = append([]string{""}, lines...)
		}
		timing := strings.SplitN(timingLine, "-->", 2)
		if len(timing) != 2 {
			return nil, fmt.Errorf("malformed srt timing %q", timingLine)
		}
		start, err := ParseTimestamp(timing[0])
		if err != nil {
			return nil, fmt.Errorf("parse start: %w", err)
		}
		end, err := ParseTimestamp(timing[1])
		if err != nil {
			return nil, fmt.Errorf("parse end: %w", err)
		}
		text := strings.TrimSpace(strings.Join(lines[2:], "\n"))
		segments = append(segments, Segment{Start: start, End: end, Text: text})
	}
	return segments, nil
}
