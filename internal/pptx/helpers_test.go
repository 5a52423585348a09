package pptx_test

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/mrijcreo/scripttts/internal/pptx"
	"github.com/stretchr/testify/require"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/></Types>`

	presentationXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`

	presentationRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/></Relationships>`

	layoutXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`

	slideOpen = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`
	slideClose = `</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`

	wavExtension   = "wav"
	wavContentType = "audio/wav"
)

// shapeXML renders a text shape; placeholder may be empty for a free shape.
func shapeXML(id int, placeholder string, paragraphs ...string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/><p:nvPr>`, id, id)

	if placeholder != "" {
		fmt.Fprintf(&b, `<p:ph type="%s"/>`, placeholder)
	}

	b.WriteString(`</p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/>`)

	for _, paragraph := range paragraphs {
		fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, paragraph)
	}

	b.WriteString(`</p:txBody></p:sp>`)

	return b.String()
}

// slideXML wraps shapes into a complete slide.
func slideXML(shapes ...string) string {
	return slideOpen + strings.Join(shapes, "") + slideClose
}

// titledSlide is a slide with a title placeholder and a body shape.
func titledSlide(title string, body ...string) string {
	return slideXML(shapeXML(2, "title", title), shapeXML(3, "body", body...))
}

// newDeckArchive assembles a minimal deck with the given slide markup by slide number.
func newDeckArchive(slides map[int]string) *pptx.Archive {
	archive := pptx.NewArchive()
	archive.Put("[Content_Types].xml", []byte(contentTypesXML))
	archive.Put("ppt/presentation.xml", []byte(presentationXML))
	archive.Put("ppt/_rels/presentation.xml.rels", []byte(presentationRelsXML))
	archive.Put("ppt/slideLayouts/slideLayout1.xml", []byte(layoutXML))

	for _, number := range slices.Sorted(maps.Keys(slides)) {
		archive.Put(fmt.Sprintf("ppt/slides/slide%d.xml", number), []byte(slides[number]))
	}

	return archive
}

func buildDeck(t *testing.T, slides map[int]string) []byte {
	t.Helper()

	data, err := newDeckArchive(slides).Serialize()
	require.NoError(t, err)

	return data
}

func openDeck(t *testing.T, data []byte) *pptx.Archive {
	t.Helper()

	archive, err := pptx.Load(data)
	require.NoError(t, err)

	return archive
}

func partText(t *testing.T, archive *pptx.Archive, path string) string {
	t.Helper()

	data, ok := archive.Get(path)
	require.True(t, ok, "missing part %s", path)

	return string(data)
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return log
}

type stubDetector struct {
	err error
}

func (d stubDetector) Detect(_ []byte) (string, string, error) {
	if d.err != nil {
		return "", "", d.err
	}

	return wavExtension, wavContentType, nil
}
