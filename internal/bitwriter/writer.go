// Package bitwriter emits bitstream containers. It exists to build fixtures
// for decoder tests and is not part of the public API.
package bitwriter

import (
	"encoding/binary"

	"github.com/wippyai/bcreader/bitstream"
)

type block struct {
	lengthOffset int
	prevWidth    uint
}

// Writer accumulates a bitstream, least significant bit first.
type Writer struct {
	buf     []byte
	blocks  []block
	cur     byte
	curBits uint
	width   uint
}

// New creates a Writer at top level.
func New() *Writer {
	return &Writer{width: bitstream.TopLevelAbbrevIDWidth}
}

// Bytes returns the written bytes, padding a partial final byte with zeros.
func (w *Writer) Bytes() []byte {
	out := append([]byte(nil), w.buf...)
	if w.curBits > 0 {
		out = append(out, w.cur)
	}
	return out
}

// BitLen returns the number of bits written.
func (w *Writer) BitLen() int64 {
	return int64(len(w.buf))*8 + int64(w.curBits)
}

// Emit writes the low bits bits of v.
func (w *Writer) Emit(v uint64, bits uint) {
	for i := uint(0); i < bits; i++ {
		w.cur |= byte((v>>i)&1) << w.curBits
		w.curBits++
		if w.curBits == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur = 0
			w.curBits = 0
		}
	}
}

// EmitVBR writes v as a variable bit-rate value with bits-wide chunks.
func (w *Writer) EmitVBR(v uint64, bits uint) {
	threshold := uint64(1) << (bits - 1)
	for v >= threshold {
		w.Emit(v&(threshold-1)|threshold, bits)
		v >>= bits - 1
	}
	w.Emit(v, bits)
}

// Align32 pads with zero bits to the next 32-bit boundary.
func (w *Writer) Align32() {
	for w.BitLen()%32 != 0 {
		w.Emit(0, 1)
	}
}

// Magic writes the 'B','C',0x0,0xC,0xE,0xD header.
func (w *Writer) Magic() {
	w.Emit('B', 8)
	w.Emit('C', 8)
	w.Emit(0x0, 4)
	w.Emit(0xC, 4)
	w.Emit(0xE, 4)
	w.Emit(0xD, 4)
}

// EnterBlock writes a SubBlock entry for id and switches to width-bit abbreviation ids.
func (w *Writer) EnterBlock(id uint32, width uint) {
	w.Emit(uint64(bitstream.AbbrevIDEnterSubBlock), w.width)
	w.EmitVBR(uint64(id), bitstream.BlockIDWidth)
	w.EmitVBR(uint64(width), bitstream.CodeLenWidth)
	w.Align32()
	w.blocks = append(w.blocks, block{lengthOffset: len(w.buf), prevWidth: w.width})
	w.Emit(0, bitstream.BlockSizeWidth)
	w.width = width
}

// ExitBlock writes an EndBlock entry and backpatches the block length.
func (w *Writer) ExitBlock() {
	w.Emit(uint64(bitstream.AbbrevIDEndBlock), w.width)
	w.Align32()
	b := w.blocks[len(w.blocks)-1]
	w.blocks = w.blocks[:len(w.blocks)-1]
	words := (len(w.buf) - b.lengthOffset - 4) / 4
	binary.LittleEndian.PutUint32(w.buf[b.lengthOffset:], uint32(words))
	w.width = b.prevWidth
}

// Record writes an unabbreviated record.
func (w *Writer) Record(code uint32, ops ...uint64) {
	w.Emit(uint64(bitstream.AbbrevIDUnabbrevRecord), w.width)
	w.EmitVBR(uint64(code), 6)
	w.EmitVBR(uint64(len(ops)), 6)
	for _, op := range ops {
		w.EmitVBR(op, 6)
	}
}

// StringRecord writes an unabbreviated record whose operands are the bytes of s.
func (w *Writer) StringRecord(code uint32, s string) {
	ops := make([]uint64, len(s))
	for i := range len(s) {
		ops[i] = uint64(s[i])
	}
	w.Record(code, ops...)
}

// DefineAbbrev writes a DefineAbbrev entry for a.
func (w *Writer) DefineAbbrev(a *bitstream.Abbreviation) {
	w.Emit(uint64(bitstream.AbbrevIDDefineAbbrev), w.width)
	w.EmitVBR(uint64(a.NumOperands()), 5)
	for _, op := range a.Operands() {
		if op.IsLiteral() {
			w.Emit(1, 1)
			w.EmitVBR(op.LiteralValue(), 8)
			continue
		}
		w.Emit(0, 1)
		w.Emit(uint64(op.Encoding()), 3)
		if op.Encoding().HasWidth() {
			w.EmitVBR(op.Width(), 5)
		}
	}
}

// AbbrevRecord writes a record through abbreviation a registered under id.
// ops supplies values for the non-literal value operands in order; an array
// operand consumes all remaining ops. blob supplies the bytes of a blob operand.
func (w *Writer) AbbrevRecord(id uint32, a *bitstream.Abbreviation, code uint32, ops []uint64, blob []byte) {
	w.Emit(uint64(id), w.width)

	if first := a.Operand(0); !first.IsLiteral() {
		w.emitScalar(first, uint64(code))
	}

	k := 0
	for i := 1; i < a.NumOperands(); i++ {
		op := a.Operand(i)
		if op.IsLiteral() {
			continue
		}
		switch op.Encoding() {
		case bitstream.EncodingArray:
			elt := a.Operand(i + 1)
			rest := ops[k:]
			w.EmitVBR(uint64(len(rest)), 6)
			for _, v := range rest {
				w.emitScalar(elt, v)
			}
			k = len(ops)
			i++
		case bitstream.EncodingBlob:
			w.EmitVBR(uint64(len(blob)), 6)
			w.Align32()
			w.buf = append(w.buf, blob...)
			w.Align32()
		default:
			w.emitScalar(op, ops[k])
			k++
		}
	}
}

func (w *Writer) emitScalar(op bitstream.Operand, v uint64) {
	switch op.Encoding() {
	case bitstream.EncodingFixed:
		w.Emit(v, uint(op.Width()))
	case bitstream.EncodingVBR:
		w.EmitVBR(v, uint(op.Width()))
	case bitstream.EncodingChar6:
		c, _ := bitstream.EncodeChar6(byte(v))
		w.Emit(c, 6)
	}
}
