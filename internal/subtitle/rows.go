package subtitle

import "iter"

// Row is the display projection of one segment.
type Row struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Rows projects segments into display rows. The sequence holds its own copy of
// the segments, so it can be ranged over repeatedly with identical output.
func Rows(segments []Segment) iter.Seq[Row] {
	snapshot := make([]Segment, len(segments))
	copy(snapshot, segments)
	return func(yield func(Row) bool) {
		for i, seg := range snapshot {
			row := Row{
				Index: i + 1,
				Start: FormatTimecode(seg.Start),
				End:   FormatTimecode(seg.End),
				Text:  seg.Text,
			}
			if !yield(row) {
				return
			}
		}
	}
}
