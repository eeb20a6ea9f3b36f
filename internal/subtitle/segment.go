package subtitle

import "strings"

// Segment is a timed span of transcript text. Segments travel through the
// pipeline as ordered sequences; position within the sequence, not any
// embedded identifier, is what re-aligns translated text to timestamps.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Trimmed returns a copy with surrounding whitespace removed from the text.
func (s Segment) Trimmed() Segment {
	s.Text = strings.TrimSpace(s.Text)
	return s
}

// CloneSegments copies a segment sequence so downstream stages can never
// mutate the transcriber's output in place.
func CloneSegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return cp
}

// Texts extracts the text of each segment in order.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		out[i] = seg.Text
	}
	return out
}
