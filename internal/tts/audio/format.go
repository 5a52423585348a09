// Package audio identifies the container format of synthesized or uploaded
// narration so it can be stored under the right extension and content type.
package audio

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrEmpty indicates there were no bytes to inspect.
	ErrEmpty = errors.New("audio data is empty")
	// ErrNotAudio indicates the bytes are not one of the supported audio formats.
	ErrNotAudio = errors.New("unsupported audio format")
)

// Format names an audio container by file extension and content type.
type Format struct {
	Extension   string
	ContentType string
}

// supported maps the MIME type the sniffer reports to the format written into decks.
var supported = []struct {
	sniffed string
	format  Format
}{
	{sniffed: "audio/wav", format: Format{Extension: "wav", ContentType: "audio/wav"}},
	{sniffed: "audio/mpeg", format: Format{Extension: "mp3", ContentType: "audio/mpeg"}},
	{sniffed: "audio/x-m4a", format: Format{Extension: "m4a", ContentType: "audio/mp4"}},
	{sniffed: "audio/ogg", format: Format{Extension: "ogg", ContentType: "audio/ogg"}},
	{sniffed: "audio/flac", format: Format{Extension: "flac", ContentType: "audio/flac"}},
	{sniffed: "audio/aac", format: Format{Extension: "aac", ContentType: "audio/aac"}},
}

// Detect sniffs data and returns its format.
func Detect(data []byte) (Format, error) {
	if len(data) == 0 {
		return Format{}, ErrEmpty
	}

	detected := mimetype.Detect(data)

	for mime := detected; mime != nil; mime = mime.Parent() {
		for _, candidate := range supported {
			if mime.Is(candidate.sniffed) {
				return candidate.format, nil
			}
		}
	}

	return Format{}, fmt.Errorf("%w: %s", ErrNotAudio, detected.String())
}

// Detector exposes Detect as a pair of strings, the shape the deck pipeline expects.
type Detector struct{}

// Detect returns the extension and content type of data.
func (Detector) Detect(data []byte) (string, string, error) {
	format, err := Detect(data)
	if err != nil {
		return "", "", err
	}

	return format.Extension, format.ContentType, nil
}
