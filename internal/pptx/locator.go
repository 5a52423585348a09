package pptx

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
)

// SlideRef identifies one slide by the number in its file name.
type SlideRef struct {
	Number   int
	Path     string
	RelsPath string
}

// NewSlideRef returns the reference for slideNumber using the standard part names.
func NewSlideRef(slideNumber int) SlideRef {
	slidePath := fmt.Sprintf("%s%s%d%s", slidesDir, slidePrefix, slideNumber, xmlSuffix)

	return SlideRef{
		Number:   slideNumber,
		Path:     slidePath,
		RelsPath: relsPathFor(slidePath),
	}
}

// relsPathFor returns the relationship part path belonging to partPath.
func relsPathFor(partPath string) string {
	return path.Dir(partPath) + "/_rels/" + path.Base(partPath) + relsSuffix
}

// isSlidePart reports whether name is a slide markup part directly under ppt/slides.
func isSlidePart(name string) bool {
	if !strings.HasPrefix(name, slidesDir+slidePrefix) || !strings.HasSuffix(name, xmlSuffix) {
		return false
	}

	return !strings.Contains(strings.TrimPrefix(name, slidesDir), "/")
}

// ListSlides returns the deck's slides ordered by the numeric suffix of their
// file names, so slide2 sorts before slide10.
func ListSlides(archive *Archive) []SlideRef {
	var slides []SlideRef

	for _, name := range archive.Paths() {
		if !isSlidePart(name) {
			continue
		}

		slides = append(slides, SlideRef{
			Number:   numericSuffix(name, slidePrefix, xmlSuffix),
			Path:     name,
			RelsPath: relsPathFor(name),
		})
	}

	slices.SortStableFunc(slides, func(a, b SlideRef) int {
		if a.Number != b.Number {
			return a.Number - b.Number
		}

		return strings.Compare(a.Path, b.Path)
	})

	return slides
}

// SlideSize returns the slide dimensions in EMU declared by the presentation part,
// falling back to the 4:3 default.
func SlideSize(archive *Archive) (width, height int64) {
	width, height = defaultSlideWidth, defaultSlideHeight

	data, ok := archive.Get(presentationPath)
	if !ok {
		return width, height
	}

	doc, err := parseDocument(data)
	if err != nil {
		return width, height
	}

	size := doc.Root().FindElement("./p:sldSz")
	if size == nil {
		return width, height
	}

	cx, cxErr := strconv.ParseInt(size.SelectAttrValue("cx", ""), 10, 64)
	cy, cyErr := strconv.ParseInt(size.SelectAttrValue("cy", ""), 10, 64)

	if cxErr == nil && cyErr == nil && cx > 0 && cy > 0 {
		return cx, cy
	}

	return width, height
}

// NotesPathFor returns the notes part that belongs to slide: the target of the
// slide's existing notes relationship, or notesSlideN.xml when there is none.
func NotesPathFor(archive *Archive, slide SlideRef) string {
	defaultPath := fmt.Sprintf("%snotesSlide%d%s", notesDir, slide.Number, xmlSuffix)

	data, ok := archive.Get(slide.RelsPath)
	if !ok {
		return defaultPath
	}

	doc, err := parseDocument(data)
	if err != nil {
		return defaultPath
	}

	for _, rel := range doc.Root().SelectElements("Relationship") {
		if rel.SelectAttrValue("Type", "") == relTypeNotesSlide {
			return resolveTarget(path.Dir(slide.Path), rel.SelectAttrValue("Target", ""))
		}
	}

	return defaultPath
}

// layoutTarget returns the slide-relative target of the layout that new slide
// relationship parts point at: slideLayout1 when present, otherwise the lowest
// numbered layout.
func layoutTarget(archive *Archive) string {
	const preferred = layoutsDir + "slideLayout1" + xmlSuffix

	if archive.Exists(preferred) {
		return "../slideLayouts/" + path.Base(preferred)
	}

	best, bestNumber := "", 0

	for _, name := range archive.Paths() {
		if path.Dir(name)+"/" != layoutsDir || !strings.HasSuffix(name, xmlSuffix) {
			continue
		}

		number := numericSuffix(name, "slideLayout", xmlSuffix)
		if best == "" || number < bestNumber {
			best, bestNumber = name, number
		}
	}

	if best == "" {
		return "../slideLayouts/" + path.Base(preferred)
	}

	return "../slideLayouts/" + path.Base(best)
}

// notesMasterPath returns the first notes master part, if any.
func notesMasterPath(archive *Archive) (string, bool) {
	for _, name := range archive.Paths() {
		if path.Dir(name)+"/" == notesMastersDir && strings.HasSuffix(name, xmlSuffix) {
			return name, true
		}
	}

	return "", false
}
