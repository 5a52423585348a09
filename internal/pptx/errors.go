package pptx

import "errors"

// Fatal conditions abort the whole request before any output is produced.
var (
	// ErrCorruptArchive indicates the input bytes are not a readable container.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrMissingRequiredInput indicates the caller omitted the deck or the scripts.
	ErrMissingRequiredInput = errors.New("missing required input")
	// ErrSerialization indicates the updated archive could not be compressed.
	ErrSerialization = errors.New("archive serialization failed")
)

// Non-fatal conditions are logged and the affected step is skipped.
var (
	// ErrSlidePartAbsent indicates a script references a slide with no markup part.
	ErrSlidePartAbsent = errors.New("slide part absent")
	// ErrPackagePartAbsent indicates the content-type registry or package relationships are missing.
	ErrPackagePartAbsent = errors.New("package part absent")
	// ErrSlideOutOfRange indicates a slide number outside the reserved ID ranges.
	ErrSlideOutOfRange = errors.New("slide number outside reserved id range")
	// ErrInvalidSlideMarkup indicates a slide lacks the elements the patcher inserts into.
	ErrInvalidSlideMarkup = errors.New("invalid slide markup")
)

// Extraction path errors.
var (
	// ErrNoSlides indicates the deck has no slide parts.
	ErrNoSlides = errors.New("no slides found in deck")
	// ErrNoSlideContent indicates no slide yielded any text, even after AI analysis.
	ErrNoSlideContent = errors.New("no usable slide content found")
)
