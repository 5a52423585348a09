// Package pptx reads and rewrites presentation decks: it locates slide parts,
// extracts their text, and commits speaker notes and narration audio back into
// the package while keeping the manifest and relationship graphs consistent.
package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

const (
	// maxPartSize bounds a single decompressed part.
	maxPartSize = 256 << 20
	// compressionLevel matches what presentation editors write by default.
	compressionLevel = 6
)

var errPartTooLarge = errors.New("part exceeds size limit")

// Archive is an in-memory, ordered view over the named parts of a deck.
// A path appears at most once; writing an existing path replaces its content
// in place, new paths are appended.
type Archive struct {
	order []string
	parts map[string]*part
}

type part struct {
	data     []byte
	method   uint16
	modified time.Time
}

// NewArchive returns an empty archive.
func NewArchive() *Archive {
	return &Archive{
		order: nil,
		parts: make(map[string]*part),
	}
}

// Load decodes a compressed deck. Any decoding failure is reported as ErrCorruptArchive.
func Load(data []byte) (*Archive, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCorruptArchive)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}

	archive := NewArchive()

	for _, file := range reader.File {
		if strings.HasSuffix(file.Name, "/") {
			continue
		}

		content, readErr := readPart(file)
		if readErr != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrCorruptArchive, file.Name, readErr)
		}

		archive.put(file.Name, content, file.Method, file.Modified)
	}

	return archive, nil
}

func readPart(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	if len(content) > maxPartSize {
		return nil, errPartTooLarge
	}

	return content, nil
}

// Get returns the content of path and whether it exists.
func (a *Archive) Get(path string) ([]byte, bool) {
	p, ok := a.parts[path]
	if !ok {
		return nil, false
	}

	return p.data, true
}

// Exists reports whether path is present.
func (a *Archive) Exists(path string) bool {
	_, ok := a.parts[path]

	return ok
}

// Put writes path, fully replacing any previous content.
func (a *Archive) Put(path string, data []byte) {
	if existing, ok := a.parts[path]; ok {
		existing.data = data

		return
	}

	a.put(path, data, zip.Deflate, time.Time{})
}

func (a *Archive) put(path string, data []byte, method uint16, modified time.Time) {
	if existing, ok := a.parts[path]; ok {
		existing.data = data

		return
	}

	a.order = append(a.order, path)
	a.parts[path] = &part{data: data, method: method, modified: modified}
}

// Paths returns every part path in archive order.
func (a *Archive) Paths() []string {
	paths := make([]string, len(a.order))
	copy(paths, a.order)

	return paths
}

// Len returns the number of parts.
func (a *Archive) Len() int {
	return len(a.order)
}

// Serialize compresses the archive into a single byte stream. Failures are
// reported as ErrSerialization.
func (a *Archive) Serialize() ([]byte, error) {
	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, compressionLevel)
	})

	for _, path := range a.order {
		p := a.parts[path]

		entry, err := writer.CreateHeader(&zip.FileHeader{
			Name:     path,
			Method:   p.method,
			Modified: p.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrSerialization, path, err)
		}

		_, err = entry.Write(p.data)
		if err != nil {
			return nil, fmt.Errorf("%w: write %s: %w", ErrSerialization, path, err)
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return buf.Bytes(), nil
}
