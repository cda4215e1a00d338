// Package archive implements the zip-with-deflate writer capability used to
// assemble the final package.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

// ErrSerialized is returned when entries are added after serialization.
var ErrSerialized = errors.New("archive: already serialized")

// Writer is the archive capability: named entries in, one byte blob out.
type Writer interface {
	AddEntry(name string, data []byte) error
	Serialize() ([]byte, error)
}

// entryEpoch is the fixed modification time stamped on every entry, so that
// identical input sequences produce byte-identical archives.
var entryEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Zip writes a deflate-compressed archive into memory.
type Zip struct {
	buf    bytes.Buffer
	zw     *zip.Writer
	closed bool
}

// NewZip returns an empty in-memory archive writer.
func NewZip() *Zip {
	z := &Zip{}
	z.zw = zip.NewWriter(&z.buf)
	return z
}

// AddEntry appends one named entry holding data.
func (z *Zip) AddEntry(name string, data []byte) error {
	if z.closed {
		return ErrSerialized
	}
	w, err := z.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryEpoch,
	})
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

// Serialize finalizes the archive and returns its bytes. The writer accepts
// no further entries.
func (z *Zip) Serialize() ([]byte, error) {
	if z.closed {
		return nil, ErrSerialized
	}
	z.closed = true
	if err := z.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return z.buf.Bytes(), nil
}
