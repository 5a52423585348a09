package pptx

import (
	"fmt"
	"strconv"
)

// IDKind selects one of the reserved numeric ranges used for inserted parts.
type IDKind int

// Every inserted identifier is base + slide number. Bases are one stride apart,
// so the ranges stay disjoint as long as slide numbers stay below the stride.
const (
	PackageNotesRel IDKind = iota
	SlideNotesRel
	MediaRel
	IconRel
	AudioRel
	MarkerShape
)

const (
	idStride = 1000

	// MaxSlideNumber is the largest slide number that can receive reserved ids.
	MaxSlideNumber = idStride - 1
)

var idBases = map[IDKind]int{
	PackageNotesRel: 1000,
	SlideNotesRel:   2000,
	MediaRel:        5000,
	IconRel:         6000,
	AudioRel:        7000,
	MarkerShape:     8000,
}

// ReservedID returns the reserved numeric id of kind for slideNumber.
func ReservedID(kind IDKind, slideNumber int) (int, error) {
	base, ok := idBases[kind]
	if !ok {
		return 0, fmt.Errorf("unknown id kind %d", kind)
	}

	if slideNumber < 1 || slideNumber > MaxSlideNumber {
		return 0, fmt.Errorf("%w: %d", ErrSlideOutOfRange, slideNumber)
	}

	return base + slideNumber, nil
}

// ReservedRelID returns the reserved relationship id ("rIdNNNN") of kind for slideNumber.
func ReservedRelID(kind IDKind, slideNumber int) (string, error) {
	id, err := ReservedID(kind, slideNumber)
	if err != nil {
		return "", err
	}

	return relIDPrefix + strconv.Itoa(id), nil
}
