package ingest

import (
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Upload sources.
const (
	SourceFile      = "upload"
	SourceRecording = "recording"
)

// Upload is an audio file about to be sent for transcription.
type Upload struct {
	Path     string
	Name     string
	MIMEType string
	Size     int64
	// Source is SourceFile or SourceRecording.
	Source string
	// Duration is the captured length in seconds for recordings, zero otherwise.
	Duration float64
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// MIMEType guesses an audio content type from the file extension.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// NewFileUpload describes a file picked by the user. An empty path yields an
// empty Upload, which Transcribe rejects with ErrNoFileSelected.
func NewFileUpload(path string) (Upload, error) {
	if path == "" {
		return Upload{}, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: MIMEType(path),
		Size:     fi.Size(),
		Source:   SourceFile,
	}, nil
}

// NewRecordingUpload describes a finished capture.
func NewRecordingUpload(path, mimeType string, size int64, elapsed float64) Upload {
	if mimeType == "" {
		mimeType = MIMEType(path)
	}
	return Upload{
		Path:     path,
		Name:     "recording" + filepath.Ext(path),
		MIMEType: mimeType,
		Size:     size,
		Source:   SourceRecording,
		Duration: elapsed,
	}
}
