// Package buffer provides ByteBuffer implementations over in-memory data.
package buffer

import (
	"io"
	"os"

	"github.com/wippyai/bcreader/errors"
)

// Memory is a read-only ByteBuffer over a byte slice.
type Memory struct {
	data []byte
}

// New wraps data without copying it. The caller must not modify data while
// the buffer is in use.
func New(data []byte) *Memory {
	return &Memory{data: data}
}

// Load reads the whole file at path into a Memory buffer.
func Load(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return New(data), nil
}

// FromReader drains r into a Memory buffer.
func FromReader(r io.Reader) (*Memory, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Load("read input", err)
	}
	return New(data), nil
}

// Len returns the buffer size in bytes.
func (m *Memory) Len() int {
	return len(m.data)
}

// ReadBytes copies up to len(dst) bytes starting at offset.
func (m *Memory) ReadBytes(dst []byte, offset int) int {
	if offset < 0 || offset >= len(m.data) {
		return 0
	}
	return copy(dst, m.data[offset:])
}

// Slice returns the bytes in [offset, offset+length).
func (m *Memory) Slice(offset, length int) ([]byte, bool) {
	if offset < 0 || length < 0 || offset > len(m.data) || length > len(m.data)-offset {
		return nil, false
	}
	return m.data[offset : offset+length : offset+length], true
}

// Bytes returns the underlying data.
func (m *Memory) Bytes() []byte {
	return m.data
}
