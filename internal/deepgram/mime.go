package deepgram

import (
	"mime"
	"path/filepath"
	"strings"
)

// GuessMIMEType returns a best-effort content type for an audio file so
// the transcription service decodes it correctly. The many WAV and MP3
// aliases are normalized to audio/wav and audio/mpeg.
func GuessMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	if mt := mime.TypeByExtension(ext); mt != "" {
		mt = strings.ToLower(mt)
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = strings.TrimSpace(mt[:i])
		}
		switch mt {
		case "audio/wav", "audio/x-wav", "audio/wave", "audio/x-pn-wav", "audio/vnd.wave":
			return "audio/wav"
		case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mp3", "audio/x-mpeg":
			return "audio/mpeg"
		}
		return mt
	}

	switch ext {
	case ".wav", ".wave", ".wav64", ".bwav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	}
	return "application/octet-stream"
}
