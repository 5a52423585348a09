package pptx

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Marker geometry and playback defaults.
const (
	markerSize             = 609600
	markerMargin           = 152400
	DefaultAutoplayDelayMs = 1000
	DefaultVolume          = 80000
	mediaExtensionURI      = "{DAA4B4D4-6D71-4841-9C94-3DE7FCFB9230}"
	markerNameFmt          = "Narration %d"
)

// MediaRefs are the slide-level relationship ids the marker shape points at.
type MediaRefs struct {
	// AudioRelID links the audio part (a:audioFile).
	AudioRelID string
	// MediaRelID embeds the same part for newer viewers (p14:media).
	MediaRelID string
	// IconRelID embeds the marker image (a:blip).
	IconRelID string
}

// PatchOptions positions the marker and tunes the playback trigger.
type PatchOptions struct {
	SlideWidth      int64
	SlideHeight     int64
	AutoplayDelayMs int
	Volume          int
}

func (o PatchOptions) withDefaults() PatchOptions {
	if o.SlideWidth <= 0 || o.SlideHeight <= 0 {
		o.SlideWidth, o.SlideHeight = defaultSlideWidth, defaultSlideHeight
	}

	if o.AutoplayDelayMs <= 0 {
		o.AutoplayDelayMs = DefaultAutoplayDelayMs
	}

	if o.Volume <= 0 {
		o.Volume = DefaultVolume
	}

	return o
}

// PatchSlide adds a narration marker to the slide's shape tree and a timing
// block that starts playback after the slide appears. Both insertions are
// guarded: a marker with the slide's reserved shape id, or any existing timing
// block, is left alone, so repeated calls do not duplicate either.
func PatchSlide(markup []byte, slideNumber int, refs MediaRefs, opts PatchOptions) ([]byte, error) {
	shapeID, err := ReservedID(MarkerShape, slideNumber)
	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(markup)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSlideMarkup, err)
	}

	root := doc.Root()
	if root.Tag != "sld" {
		return nil, fmt.Errorf("%w: unexpected root %q", ErrInvalidSlideMarkup, root.FullTag())
	}

	tree := root.FindElement("./p:cSld/p:spTree")
	if tree == nil {
		return nil, fmt.Errorf("%w: no shape tree", ErrInvalidSlideMarkup)
	}

	opts = opts.withDefaults()

	ensureNamespace(root, "r", nsRelationships)

	if tree.FindElement(".//p:cNvPr[@id='"+strconv.Itoa(shapeID)+"']") == nil {
		insertBeforeTrailer(tree, buildMarker(slideNumber, shapeID, refs, opts))
	}

	if root.FindElement("./p:timing") == nil {
		insertBeforeTrailer(root, buildTiming(shapeID, opts))
	}

	return serializeDocument(doc)
}

// HasTiming reports whether slide markup already carries a timing block.
func HasTiming(markup []byte) bool {
	doc, err := parseDocument(markup)
	if err != nil {
		return false
	}

	return doc.Root().FindElement("./p:timing") != nil
}

func buildMarker(slideNumber, shapeID int, refs MediaRefs, opts PatchOptions) *etree.Element {
	pic := etree.NewElement("p:pic")

	nvPicPr := addElement(pic, "p:nvPicPr")
	cNvPr := addElement(nvPicPr, "p:cNvPr",
		"id", strconv.Itoa(shapeID),
		"name", fmt.Sprintf(markerNameFmt, slideNumber))
	addElement(cNvPr, "a:hlinkClick", "r:id", "", "action", "ppaction://media")
	addElement(addElement(nvPicPr, "p:cNvPicPr"), "a:picLocks", "noChangeAspect", "1")

	nvPr := addElement(nvPicPr, "p:nvPr")
	addElement(nvPr, "a:audioFile", "r:link", refs.AudioRelID)

	if refs.MediaRelID != "" {
		ext := addElement(addElement(nvPr, "p:extLst"), "p:ext", "uri", mediaExtensionURI)
		addElement(ext, "p14:media", "xmlns:p14", nsPowerPoint14, "r:embed", refs.MediaRelID)
	}

	blipFill := addElement(pic, "p:blipFill")
	blip := addElement(blipFill, "a:blip")

	if refs.IconRelID != "" {
		blip.CreateAttr("r:embed", refs.IconRelID)
	}

	addElement(addElement(blipFill, "a:stretch"), "a:fillRect")

	spPr := addElement(pic, "p:spPr")
	xfrm := addElement(spPr, "a:xfrm")
	addElement(xfrm, "a:off",
		"x", strconv.FormatInt(max(opts.SlideWidth-markerSize-markerMargin, 0), 10),
		"y", strconv.FormatInt(max(opts.SlideHeight-markerSize-markerMargin, 0), 10))
	addElement(xfrm, "a:ext",
		"cx", strconv.Itoa(markerSize),
		"cy", strconv.Itoa(markerSize))
	addElement(addElement(spPr, "a:prstGeom", "prst", "rect"), "a:avLst")

	return pic
}

// buildTiming returns a main sequence that plays the marker's media once the
// slide has begun.
func buildTiming(shapeID int, opts PatchOptions) *etree.Element {
	timing := etree.NewElement("p:timing")

	root := addElement(addElement(addElement(timing, "p:tnLst"), "p:par"), "p:cTn",
		"id", "1", "dur", "indefinite", "restart", "never", "nodeType", "tmRoot")
	seq := addElement(addElement(root, "p:childTnLst"), "p:seq", "concurrent", "1", "nextAc", "seek")
	mainSeq := addElement(seq, "p:cTn", "id", "2", "dur", "indefinite", "nodeType", "mainSeq")

	delayed := addElement(addElement(addElement(mainSeq, "p:childTnLst"), "p:par"), "p:cTn",
		"id", "3", "fill", "hold")
	addElement(addElement(delayed, "p:stCondLst"), "p:cond",
		"evt", "onBegin", "delay", strconv.Itoa(opts.AutoplayDelayMs))

	group := addElement(addElement(addElement(delayed, "p:childTnLst"), "p:par"), "p:cTn",
		"id", "4", "fill", "hold")
	mediaNode := addElement(addElement(addElement(group, "p:childTnLst"), "p:audio"), "p:cMediaNode",
		"vol", strconv.Itoa(opts.Volume))

	playback := addElement(mediaNode, "p:cTn", "id", "5", "fill", "hold", "dur", "indefinite")
	addElement(addElement(playback, "p:stCondLst"), "p:cond", "evt", "onBegin", "delay", "0")
	addElement(addElement(mediaNode, "p:tgtEl"), "p:spTgt", "spid", strconv.Itoa(shapeID))

	return timing
}
