// Package transcript converts word-level speech-to-text output into
// timestamped, speaker-aware segments suitable for embedding and indexing.
package transcript

import "strconv"

// Word is one recognized token from the transcription service.
type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"` // seconds from file start
	End        float64 `json:"end"`
	Speaker    *int    `json:"speaker,omitempty"` // diarization label, nil when unknown
	Confidence float64 `json:"confidence,omitempty"`
}

// Segment is a contiguous run of words grouped for indexing and display.
// Start is the first word's start, End the last word's end.
type Segment struct {
	Speaker *int    `json:"speaker,omitempty"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	File    string  `json:"file"`
	Session string  `json:"session"`
}

// SpeakerLabel renders the segment's speaker for display and metadata,
// using "unknown" for undiarized audio.
func (s Segment) SpeakerLabel() string {
	if s.Speaker == nil {
		return "unknown"
	}
	return strconv.Itoa(*s.Speaker)
}
