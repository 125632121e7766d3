package transcript

import (
	"strings"

	"github.com/mhalloran/voicearch/internal/apierr"
)

const (
	// DefaultMaxGap is the maximum silence (seconds) allowed inside one
	// segment before a boundary is forced.
	DefaultMaxGap = 1.0

	// DefaultMaxDuration caps segment length (seconds) to keep chunks
	// small enough for useful retrieval granularity.
	DefaultMaxDuration = 20.0
)

// Options controls segmentation for a single file.
type Options struct {
	MaxGap      float64 // boundary when the pause between words exceeds this
	MaxDuration float64 // boundary when the running segment would exceed this
	File        string  // source file identifier stamped on every segment
	Session     string  // ingest session identifier (metadata only)
}

// DefaultOptions returns Options with the default gap and duration limits.
func DefaultOptions(file, session string) Options {
	return Options{
		MaxGap:      DefaultMaxGap,
		MaxDuration: DefaultMaxDuration,
		File:        file,
		Session:     session,
	}
}

// Segment groups an ordered word sequence into segments using a greedy
// scan. A new segment starts when the pause since the previous word
// exceeds MaxGap, the speaker label changes, or the running duration
// would exceed MaxDuration. Words with no speaker label are treated as a
// single implicit speaker.
//
// Word timestamps must be non-decreasing; unordered input is rejected.
func SegmentWords(words []Word, opts Options) ([]Segment, error) {
	if err := validateOrder(words); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, nil
	}

	var segments []Segment
	var buf []Word
	segStart := 0.0
	var segSpeaker *int

	flush := func() {
		texts := make([]string, len(buf))
		for i, w := range buf {
			texts[i] = w.Text
		}
		segments = append(segments, Segment{
			Speaker: segSpeaker,
			Start:   segStart,
			End:     buf[len(buf)-1].End,
			Text:    strings.Join(texts, " "),
			File:    opts.File,
			Session: opts.Session,
		})
	}

	for _, w := range words {
		if len(buf) == 0 {
			buf = []Word{w}
			segStart = w.Start
			segSpeaker = w.Speaker
			continue
		}

		lastEnd := buf[len(buf)-1].End
		duration := w.End - segStart

		if w.Start-lastEnd > opts.MaxGap || duration > opts.MaxDuration || !sameSpeaker(w.Speaker, segSpeaker) {
			flush()
			buf = []Word{w}
			segStart = w.Start
			segSpeaker = w.Speaker
		} else {
			buf = append(buf, w)
		}
	}

	flush()
	return segments, nil
}

// sameSpeaker compares diarization labels, treating missing labels as one
// implicit speaker so undiarized audio never splits on nil-vs-nil.
func sameSpeaker(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validateOrder(words []Word) error {
	for i, w := range words {
		if w.End < w.Start {
			return apierr.Validation("words", "word %d ends (%.3f) before it starts (%.3f)", i, w.End, w.Start)
		}
		if i > 0 && w.Start < words[i-1].Start {
			return apierr.Validation("words", "word %d starts (%.3f) before word %d (%.3f)", i, w.Start, i-1, words[i-1].Start)
		}
	}
	return nil
}
