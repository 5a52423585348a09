package pptx

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// xmlPart is a structured part opened for editing.
type xmlPart struct {
	path    string
	doc     *etree.Document
	changed bool
}

// openPart parses the part at partPath. Missing parts yield ErrPackagePartAbsent
// unless create is set, in which case an empty root named rootTag in namespace
// ns is started.
func openPart(archive *Archive, partPath, rootTag, ns string, create bool) (*xmlPart, error) {
	data, ok := archive.Get(partPath)
	if !ok {
		if !create {
			return nil, fmt.Errorf("%w: %s", ErrPackagePartAbsent, partPath)
		}

		doc := newDocument()
		doc.CreateElement(rootTag).CreateAttr("xmlns", ns)

		return &xmlPart{path: partPath, doc: doc, changed: true}, nil
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPackagePartAbsent, partPath, err)
	}

	return &xmlPart{path: partPath, doc: doc, changed: false}, nil
}

func (p *xmlPart) root() *etree.Element {
	return p.doc.Root()
}

// save writes the part back when it was modified.
func (p *xmlPart) save(archive *Archive) error {
	if !p.changed {
		return nil
	}

	data, err := serializeDocument(p.doc)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSerialization, p.path, err)
	}

	archive.Put(p.path, data)

	return nil
}

// ensureRelationship returns the id of the record linking to target with
// relType, adding one when absent. The preferred id is used unless another
// record already holds it.
func (p *xmlPart) ensureRelationship(preferredID, relType, target string) string {
	for _, rel := range p.root().SelectElements("Relationship") {
		if rel.SelectAttrValue("Target", "") == target && rel.SelectAttrValue("Type", "") == relType {
			return rel.SelectAttrValue("Id", "")
		}
	}

	id := p.freeRelationshipID(preferredID)
	addElement(p.root(), "Relationship", "Id", id, "Type", relType, "Target", target)
	p.changed = true

	return id
}

func (p *xmlPart) freeRelationshipID(preferredID string) string {
	taken := make(map[string]bool)
	highest := 0

	for _, rel := range p.root().SelectElements("Relationship") {
		id := rel.SelectAttrValue("Id", "")
		taken[id] = true

		number, err := strconv.Atoi(strings.TrimPrefix(id, relIDPrefix))
		if err == nil && number > highest {
			highest = number
		}
	}

	if preferredID != "" && !taken[preferredID] {
		return preferredID
	}

	return relIDPrefix + strconv.Itoa(highest+1)
}

// ensureDefault declares contentType for ext unless the extension is
// already declared. Extensions compare case-insensitively. Defaults are keyed
// by extension, not by content type, so one content type can end up declared
// under several extensions (mp4 and m4a both as audio/mp4).
func (p *xmlPart) ensureDefault(ext, contentType string) {
	for _, declared := range p.root().SelectElements("Default") {
		if strings.EqualFold(declared.SelectAttrValue("Extension", ""), ext) {
			return
		}
	}

	addElement(p.root(), "Default", "Extension", ext, "ContentType", contentType)
	p.changed = true
}

// ensureOverride declares contentType for a single part.
func (p *xmlPart) ensureOverride(partPath, contentType string) {
	partName := "/" + partPath

	for _, declared := range p.root().SelectElements("Override") {
		if declared.SelectAttrValue("PartName", "") == partName {
			return
		}
	}

	addElement(p.root(), "Override", "PartName", partName, "ContentType", contentType)
	p.changed = true
}

// relativeTarget expresses target as a path relative to the directory of source.
func relativeTarget(source, target string) string {
	from := strings.Split(path.Dir(source), "/")
	to := strings.Split(target, "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	parts := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		parts = append(parts, "..")
	}

	return strings.Join(append(parts, to[common:]...), "/")
}

// RegisterNotesPart declares the notes part at notesPath in the content-type
// registry and links it from the package relationships, the slide's
// relationships, and its own relationship part. A missing registry or package
// relationship part skips that step and is reported as ErrPackagePartAbsent
// after the remaining steps ran.
func RegisterNotesPart(archive *Archive, slide SlideRef, notesPath string) error {
	packageID, err := ReservedRelID(PackageNotesRel, slide.Number)
	if err != nil {
		return err
	}

	slideID, err := ReservedRelID(SlideNotesRel, slide.Number)
	if err != nil {
		return err
	}

	var skipped error

	types, err := openPart(archive, contentTypesPath, "Types", nsContentTypes, false)
	if err == nil {
		types.ensureDefault(extensionRels, contentTypeRels)
		types.ensureOverride(notesPath, contentTypeNotesSlide)

		err = types.save(archive)
		if err != nil {
			return err
		}
	} else {
		skipped = err
	}

	packageRels, err := openPart(archive, presentationRelsPath, "Relationships", nsPackageRels, false)
	if err == nil {
		packageRels.ensureRelationship(packageID, relTypeNotesSlide, relativeTarget(presentationPath, notesPath))

		err = packageRels.save(archive)
		if err != nil {
			return err
		}
	} else if skipped == nil {
		skipped = err
	}

	slideRels, err := openSlideRelationships(archive, slide)
	if err != nil {
		return err
	}

	slideRels.ensureRelationship(slideID, relTypeNotesSlide, relativeTarget(slide.Path, notesPath))

	err = slideRels.save(archive)
	if err != nil {
		return err
	}

	err = linkNotesPart(archive, slide, notesPath)
	if err != nil {
		return err
	}

	return skipped
}

// linkNotesPart gives the notes part its own relationships back to the slide
// and to the notes master, when the deck has one.
func linkNotesPart(archive *Archive, slide SlideRef, notesPath string) error {
	notesRels, err := openPart(archive, relsPathFor(notesPath), "Relationships", nsPackageRels, true)
	if err != nil {
		return err
	}

	if master, ok := notesMasterPath(archive); ok {
		notesRels.ensureRelationship("rId1", relTypeNotesMaster, relativeTarget(notesPath, master))
	}

	notesRels.ensureRelationship("rId2", relTypeSlide, relativeTarget(notesPath, slide.Path))

	return notesRels.save(archive)
}

// openSlideRelationships opens the slide's relationship part, starting a new
// one with the layout link every slide needs when the deck has none.
func openSlideRelationships(archive *Archive, slide SlideRef) (*xmlPart, error) {
	rels, err := openPart(archive, slide.RelsPath, "Relationships", nsPackageRels, true)
	if err != nil {
		return nil, err
	}

	if !archive.Exists(slide.RelsPath) {
		rels.ensureRelationship("rId1", relTypeSlideLayout, layoutTarget(archive))
	}

	return rels, nil
}

// RegisterMediaPart declares the audio part at mediaPath for the slide. The
// returned refs carry the relationship ids the marker shape must use.
func RegisterMediaPart(archive *Archive, slide SlideRef, mediaPath, ext, contentType string) (MediaRefs, error) {
	audioID, err := ReservedRelID(AudioRel, slide.Number)
	if err != nil {
		return MediaRefs{}, err
	}

	mediaID, err := ReservedRelID(MediaRel, slide.Number)
	if err != nil {
		return MediaRefs{}, err
	}

	var skipped error

	types, err := openPart(archive, contentTypesPath, "Types", nsContentTypes, false)
	if err == nil {
		types.ensureDefault(ext, contentType)

		err = types.save(archive)
		if err != nil {
			return MediaRefs{}, err
		}
	} else {
		skipped = err
	}

	rels, err := openSlideRelationships(archive, slide)
	if err != nil {
		return MediaRefs{}, err
	}

	target := relativeTarget(slide.Path, mediaPath)
	refs := MediaRefs{
		AudioRelID: rels.ensureRelationship(audioID, relTypeAudio, target),
		MediaRelID: rels.ensureRelationship(mediaID, relTypeMedia, target),
		IconRelID:  "",
	}

	err = rels.save(archive)
	if err != nil {
		return MediaRefs{}, err
	}

	return refs, skipped
}

// RegisterImagePart declares the PNG at imagePath and links it from the slide,
// returning the relationship id.
func RegisterImagePart(archive *Archive, slide SlideRef, imagePath string) (string, error) {
	iconID, err := ReservedRelID(IconRel, slide.Number)
	if err != nil {
		return "", err
	}

	var skipped error

	types, err := openPart(archive, contentTypesPath, "Types", nsContentTypes, false)
	if err == nil {
		types.ensureDefault(extensionPNG, contentTypePNG)

		err = types.save(archive)
		if err != nil {
			return "", err
		}
	} else {
		skipped = err
	}

	rels, err := openSlideRelationships(archive, slide)
	if err != nil {
		return "", err
	}

	id := rels.ensureRelationship(iconID, relTypeImage, relativeTarget(slide.Path, imagePath))

	err = rels.save(archive)
	if err != nil {
		return "", err
	}

	return id, skipped
}
