package bcreader

// ByteBuffer is a read-only, randomly addressable byte region holding a
// complete bitcode image.
type ByteBuffer interface {
	// Len returns the size of the region in bytes.
	Len() int
	// ReadBytes copies up to len(dst) bytes starting at offset and returns
	// the number of bytes copied. Reads are clamped at the end of the region.
	ReadBytes(dst []byte, offset int) int
	// Slice returns a view of length bytes starting at offset, or false if
	// the range does not lie entirely inside the region.
	Slice(offset, length int) ([]byte, bool)
}
