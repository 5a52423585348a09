// Package fileutil provides the file and path helpers used by the command
// line client: audio discovery, output naming and filename sanitizing.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	defaultDirPermissions  = 0o750
	dot                    = "."
	invalidCharReplacement = "_"
	narratedSuffix         = "_narrated"
	deckExtension          = ".pptx"
)

// Data size constants.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
)

const (
	formatMB    = "%.1f MB"
	formatKB    = "%.1f KB"
	formatBytes = "%d B"
)

// Audio file extensions accepted when scanning a directory.
const (
	extAAC  = ".aac"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP3  = ".mp3"
	extOGG  = ".ogg"
	extWAV  = ".wav"
)

const (
	errFmtFailedToCreateDir = "failed to create directory %s: %w"
	errFmtDuplicateAudio    = "%w: slide %d has %s and %s"
)

// ErrDuplicateAudio is returned when two files in a directory claim the same slide.
var ErrDuplicateAudio = errors.New("more than one audio file for slide")

// slideAudioPattern matches slide_3.wav, slide-3_audio.mp3, Slide3.m4a and 3.ogg.
var slideAudioPattern = regexp.MustCompile(`(?i)^(?:slide[_\- ]?)?0*(\d+)(?:[_\-]audio)?$`)

var filenameReplacer = strings.NewReplacer(
	"<", invalidCharReplacement,
	">", invalidCharReplacement,
	":", invalidCharReplacement,
	"\"", invalidCharReplacement,
	"/", invalidCharReplacement,
	"\\", invalidCharReplacement,
	"|", invalidCharReplacement,
	"?", invalidCharReplacement,
	"*", invalidCharReplacement,
)

// EnsureDir creates path and its parents when missing.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf(errFmtFailedToCreateDir, path, mkdirErr)
		}
	}

	return nil
}

// IsAudioFile reports whether filename has a common audio extension.
func IsAudioFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case extWAV, extMP3, extFLAC, extOGG, extM4A, extAAC:
		return true
	default:
		return false
	}
}

// FileExtension returns the extension of filename without the leading dot.
func FileExtension(filename string) string {
	return strings.TrimPrefix(filepath.Ext(filename), dot)
}

// SanitizeFilename replaces characters that are invalid in most filesystems.
func SanitizeFilename(filename string) string {
	return filenameReplacer.Replace(filename)
}

// NarratedName derives the output file name for a narrated copy of deckPath.
func NarratedName(deckPath string) string {
	base := filepath.Base(deckPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return SanitizeFilename(stem) + narratedSuffix + deckExtension
}

// SlideNumberFromName extracts the slide number from an audio file name.
func SlideNumberFromName(filename string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	match := slideAudioPattern.FindStringSubmatch(stem)
	if match == nil {
		return 0, false
	}

	number, err := strconv.Atoi(match[1])
	if err != nil || number <= 0 {
		return 0, false
	}

	return number, true
}

// FindSlideAudio maps slide numbers to the audio files in dir that name them.
// Files that are not audio or carry no slide number are ignored.
func FindSlideAudio(dir string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !IsAudioFile(entry.Name()) {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	found := make(map[int]string, len(names))

	for _, name := range names {
		number, ok := SlideNumberFromName(name)
		if !ok {
			continue
		}

		existing, taken := found[number]
		if taken {
			return nil, fmt.Errorf(errFmtDuplicateAudio, ErrDuplicateAudio, number, filepath.Base(existing), name)
		}

		found[number] = filepath.Join(dir, name)
	}

	return found, nil
}

// FormatFileSize formats a size as a human-readable string.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}
