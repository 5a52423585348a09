package pptx

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// parseDocument parses a structured part into a mutable tree.
func parseDocument(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	err := doc.ReadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	if doc.Root() == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}

	return doc, nil
}

// serializeDocument writes a tree back to bytes without reformatting it.
func serializeDocument(doc *etree.Document) ([]byte, error) {
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("write xml: %w", err)
	}

	return data, nil
}

// newDocument returns an empty document carrying the standard declaration.
func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlDeclaration)

	return doc
}

// addElement creates a child of parent with attrs given as key/value pairs.
func addElement(parent *etree.Element, tag string, attrs ...string) *etree.Element {
	child := parent.CreateElement(tag)
	setAttrs(child, attrs...)

	return child
}

func setAttrs(element *etree.Element, attrs ...string) {
	for i := 0; i+1 < len(attrs); i += 2 {
		element.CreateAttr(attrs[i], attrs[i+1])
	}
}

// insertBeforeTrailer inserts child as the last element of parent, but ahead of
// a trailing extension list, which the schema requires to stay last.
func insertBeforeTrailer(parent, child *etree.Element) {
	for _, existing := range parent.ChildElements() {
		if existing.Tag == "extLst" {
			parent.InsertChildAt(existing.Index(), child)

			return
		}
	}

	parent.AddChild(child)
}

// ensureNamespace declares prefix on root when it is not declared yet.
func ensureNamespace(root *etree.Element, prefix, uri string) {
	if root.SelectAttr("xmlns:"+prefix) != nil {
		return
	}

	root.CreateAttr("xmlns:"+prefix, uri)
}

// resolveTarget resolves a relationship target relative to the directory of its source part.
func resolveTarget(sourceDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}

	return path.Clean(path.Join(sourceDir, target))
}

// numericSuffix parses the trailing number of name after prefix and before ext.
// Names whose suffix does not parse yield 0.
func numericSuffix(name, prefix, ext string) int {
	base := path.Base(name)
	digits := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ext)

	number, err := strconv.Atoi(digits)
	if err != nil || number < 0 {
		return 0
	}

	return number
}
