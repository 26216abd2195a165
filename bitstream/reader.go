package bitstream

import (
	"encoding/binary"
	"fmt"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/bcreader"
	"github.com/wippyai/bcreader/errors"
)

// Builtin abbreviation ids.
const (
	AbbrevIDEndBlock       uint32 = 0
	AbbrevIDEnterSubBlock  uint32 = 1
	AbbrevIDDefineAbbrev   uint32 = 2
	AbbrevIDUnabbrevRecord uint32 = 3

	// FirstApplicationAbbrevID is the id of the first abbreviation defined in a scope.
	FirstApplicationAbbrevID uint32 = 4
)

// Fixed field widths of the container format.
const (
	BlockIDWidth          = 8
	CodeLenWidth          = 4
	BlockSizeWidth        = 32
	TopLevelAbbrevIDWidth = 2

	// MaxAbbrevIDWidth bounds the abbreviation id width a block may declare.
	MaxAbbrevIDWidth = 32
)

// EntryKind classifies the structural entries returned by ReadNextEntry.
type EntryKind uint8

const (
	EntryEndBlock EntryKind = iota
	EntrySubBlock
	EntryDefineAbbrev
	EntryRecord
)

func (k EntryKind) String() string {
	switch k {
	case EntryEndBlock:
		return "end_block"
	case EntrySubBlock:
		return "sub_block"
	case EntryDefineAbbrev:
		return "define_abbrev"
	case EntryRecord:
		return "record"
	default:
		return fmt.Sprintf("entry(%d)", uint8(k))
	}
}

// Entry is one structural element of a block. For EntrySubBlock, ID is the
// block id of the nested block; for EntryRecord it is the abbreviation id to
// pass to ReadRecord.
type Entry struct {
	ID   uint32
	Kind EntryKind
}

// EntryFlags alter how ReadNextEntryFlags treats builtin entries.
type EntryFlags uint8

const (
	// DontAutoprocessAbbrevs returns DefineAbbrev entries to the caller
	// instead of decoding them into the current scope.
	DontAutoprocessAbbrevs EntryFlags = 1 << iota
)

// Record is a decoded record. Ops holds the operand values; for records
// carrying a blob, the blob bytes are appended to Ops one per byte and are
// also available in Blob.
type Record struct {
	Ops  []uint64
	Blob []byte
	Code uint32
}

type scope struct {
	abbrevs       []*Abbreviation
	start         int64 // first byte of block contents
	end           int64 // one past the last byte of block contents
	blockID       uint32
	abbrevIDWidth uint
}

// Reader decodes a bitstream from a ByteBuffer. Bits are consumed LSB first
// through a 64-bit word that is refilled from the buffer on demand.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	buf        bcreader.ByteBuffer
	registry   *Registry
	log        *zap.Logger
	stack      []scope
	cur        scope
	word       uint64
	byteIndex  int // next byte to load into word
	bitsInWord uint
	scratch    [8]byte
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger makes the reader log through l instead of the package logger.
func WithLogger(l *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// NewReader creates a Reader positioned at the start of buf. When registry
// is non-nil, abbreviations it holds for a block id are installed in every
// block of that id entered afterwards.
func NewReader(buf bcreader.ByteBuffer, registry *Registry, opts ...ReaderOption) *Reader {
	r := &Reader{
		buf:      buf,
		registry: registry,
		log:      Logger(),
		cur: scope{
			abbrevIDWidth: TopLevelAbbrevIDWidth,
			end:           int64(buf.Len()),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BitPosition returns the number of bits consumed so far.
func (r *Reader) BitPosition() int64 {
	return int64(r.byteIndex)*8 - int64(r.bitsInWord)
}

// AtEnd reports whether every bit of the buffer has been consumed.
func (r *Reader) AtEnd() bool {
	return r.BitPosition() >= int64(r.buf.Len())*8
}

// Depth returns the number of blocks currently entered.
func (r *Reader) Depth() int {
	return len(r.stack)
}

// BlockID returns the id of the innermost entered block. It is 0 at top level.
func (r *Reader) BlockID() uint32 {
	return r.cur.blockID
}

// AbbrevIDWidth returns the abbreviation id width of the current scope.
func (r *Reader) AbbrevIDWidth() uint {
	return r.cur.abbrevIDWidth
}

// Abbrevs returns a copy of the current scope's abbreviation list. The
// abbreviation at index i has id FirstApplicationAbbrevID+i.
func (r *Reader) Abbrevs() []*Abbreviation {
	return append([]*Abbreviation(nil), r.cur.abbrevs...)
}

// Registry returns the blockinfo registry attached to the reader, or nil.
func (r *Reader) Registry() *Registry {
	return r.registry
}

func (r *Reader) fillWord() {
	r.scratch = [8]byte{}
	n := r.buf.ReadBytes(r.scratch[:], r.byteIndex)
	r.word = binary.LittleEndian.Uint64(r.scratch[:])
	r.byteIndex += n
	r.bitsInWord = uint(n) * 8
}

// Read returns the next bits bits (at most 64), least significant bit first.
func (r *Reader) Read(bits uint) (uint64, error) {
	if bits == 0 {
		return 0, nil
	}
	if bits > 64 {
		return 0, r.errorf(errors.KindDataError, "cannot read %d bits at once", bits)
	}

	if r.bitsInWord >= bits {
		v := r.word & (uint64(1)<<bits - 1)
		r.word >>= bits
		r.bitsInWord -= bits
		return v, nil
	}

	lo := r.word
	loBits := r.bitsInWord
	need := bits - loBits

	if r.byteIndex >= r.buf.Len() {
		return 0, errors.EOF(errors.PhaseRead, r.BitPosition())
	}
	r.fillWord()
	if r.bitsInWord < need {
		return 0, r.errorf(errors.KindDataNotEnough, "need %d more bits, %d available", need, r.bitsInWord)
	}

	hi := r.word & (uint64(1)<<need - 1)
	r.word >>= need
	r.bitsInWord -= need
	return lo | hi<<loBits, nil
}

// ReadVBR64 reads a variable bit-rate value made of bits-wide chunks. The top
// bit of each chunk signals that another chunk follows.
func (r *Reader) ReadVBR64(bits uint) (uint64, error) {
	if bits < 2 || bits > MaxVBRWidth {
		return 0, r.errorf(errors.KindDataError, "invalid vbr chunk width %d", bits)
	}

	piece, err := r.Read(bits)
	if err != nil {
		return 0, err
	}
	hibit := uint64(1) << (bits - 1)
	if piece&hibit == 0 {
		return piece, nil
	}

	var result uint64
	var shift uint
	for {
		if shift >= 64 {
			return 0, r.errorf(errors.KindDataError, "vbr value exceeds 64 bits")
		}
		payload := piece & (hibit - 1)
		if payload<<shift>>shift != payload {
			return 0, r.errorf(errors.KindDataError, "vbr value exceeds 64 bits")
		}
		result |= payload << shift
		if piece&hibit == 0 {
			return result, nil
		}
		shift += bits - 1
		piece, err = r.Read(bits)
		if err != nil {
			return 0, err
		}
	}
}

// ReadVBR reads a variable bit-rate value that must fit in 32 bits.
func (r *Reader) ReadVBR(bits uint) (uint32, error) {
	v, err := r.ReadVBR64(bits)
	if err != nil {
		return 0, err
	}
	n, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0, r.errorf(errors.KindDataError, "vbr value %d exceeds 32 bits", v)
	}
	return n, nil
}

// align32 moves the cursor to the next 32-bit boundary. Positions past the
// end of the buffer are allowed; the next read reports EOF.
func (r *Reader) align32() {
	pos := r.BitPosition()
	aligned := (pos + 31) &^ 31
	if aligned == pos {
		return
	}
	r.seekByte(aligned / 8)
}

func (r *Reader) seekByte(off int64) {
	r.byteIndex = int(off)
	r.word = 0
	r.bitsInWord = 0
}

// ReadNextEntry returns the next structural entry of the current block.
// DefineAbbrev entries are decoded into the current scope and never returned.
func (r *Reader) ReadNextEntry() (Entry, error) {
	return r.ReadNextEntryFlags(0)
}

// ReadNextEntryFlags is ReadNextEntry with behavior flags.
func (r *Reader) ReadNextEntryFlags(flags EntryFlags) (Entry, error) {
	for {
		code, err := r.Read(r.cur.abbrevIDWidth)
		if err != nil {
			return Entry{}, err
		}
		id := uint32(code)

		switch id {
		case AbbrevIDEndBlock:
			return Entry{Kind: EntryEndBlock}, nil
		case AbbrevIDEnterSubBlock:
			blockID, err := r.ReadVBR(BlockIDWidth)
			if err != nil {
				return Entry{}, err
			}
			return Entry{Kind: EntrySubBlock, ID: blockID}, nil
		case AbbrevIDDefineAbbrev:
			if flags&DontAutoprocessAbbrevs != 0 {
				return Entry{Kind: EntryDefineAbbrev, ID: id}, nil
			}
			abbrev, err := r.ReadAbbrevDefinition()
			if err != nil {
				return Entry{}, err
			}
			r.cur.abbrevs = append(r.cur.abbrevs, abbrev)
		default:
			return Entry{Kind: EntryRecord, ID: id}, nil
		}
	}
}

// readBlockHeader reads the part of a block header that follows the block
// id: the new abbreviation id width and the length in 32-bit words.
func (r *Reader) readBlockHeader(blockID uint32) (width uint, start, end int64, err error) {
	w, err := r.ReadVBR(CodeLenWidth)
	if err != nil {
		return 0, 0, 0, err
	}
	if w == 0 || w > MaxAbbrevIDWidth {
		return 0, 0, 0, r.errorf(errors.KindDataError, "block %d declares abbrev id width %d", blockID, w)
	}

	r.align32()
	numWords, err := r.Read(BlockSizeWidth)
	if err != nil {
		return 0, 0, 0, err
	}

	start = r.BitPosition() / 8
	end = start + int64(numWords)*4
	if end > int64(r.buf.Len()) {
		return 0, 0, 0, r.errorf(errors.KindDataError,
			"block %d declares %d bytes, %d remain", blockID, numWords*4, int64(r.buf.Len())-start)
	}
	return uint(w), start, end, nil
}

// EnterSubBlock enters a block whose SubBlock entry and id have already been read.
func (r *Reader) EnterSubBlock(blockID uint32) error {
	width, start, end, err := r.readBlockHeader(blockID)
	if err != nil {
		return err
	}

	next := scope{
		blockID:       blockID,
		abbrevIDWidth: width,
		start:         start,
		end:           end,
	}
	if r.registry != nil {
		if info, ok := r.registry.Get(blockID); ok && len(info.Abbrevs) > 0 {
			next.abbrevs = append([]*Abbreviation(nil), info.Abbrevs...)
		}
	}

	r.stack = append(r.stack, r.cur)
	r.cur = next
	return nil
}

// SkipSubBlock moves past a block whose SubBlock entry and id have already
// been read, without decoding its contents.
func (r *Reader) SkipSubBlock(blockID uint32) error {
	_, start, end, err := r.readBlockHeader(blockID)
	if err != nil {
		return err
	}
	r.log.Debug("skip block",
		zap.Uint32("block_id", blockID),
		zap.Int64("offset", start),
		zap.Int64("bytes", end-start))
	r.seekByte(end)
	return nil
}

// ReadBlockEnd finishes the current block after its EndBlock entry and
// restores the enclosing scope.
func (r *Reader) ReadBlockEnd() error {
	if len(r.stack) == 0 {
		return errors.ScopeMismatch(errors.PhaseRead, r.BitPosition())
	}
	r.align32()
	if pos := r.BitPosition() / 8; pos != r.cur.end {
		return r.errorf(errors.KindDataError,
			"block %d ends at byte %d, declared end is %d", r.cur.blockID, pos, r.cur.end)
	}
	last := len(r.stack) - 1
	r.cur = r.stack[last]
	r.stack = r.stack[:last]
	return nil
}

// ReadAbbrevDefinition decodes the body of a DefineAbbrev entry. The caller
// decides where the abbreviation is registered.
func (r *Reader) ReadAbbrevDefinition() (*Abbreviation, error) {
	numOps, err := r.ReadVBR(5)
	if err != nil {
		return nil, err
	}
	if numOps == 0 {
		return nil, r.errorf(errors.KindDataError, "abbreviation has no operands")
	}

	var ops []Operand
	for i := uint32(0); i < numOps; i++ {
		isLiteral, err := r.Read(1)
		if err != nil {
			return nil, err
		}
		if isLiteral == 1 {
			v, err := r.ReadVBR64(8)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Literal(v))
			continue
		}

		e, err := r.Read(3)
		if err != nil {
			return nil, err
		}
		enc := Encoding(e)
		if !enc.Valid() {
			return nil, r.errorf(errors.KindDataError, "invalid abbreviation encoding %d", e)
		}
		if !enc.HasWidth() {
			ops = append(ops, Encoded(enc, 0))
			continue
		}

		width, err := r.ReadVBR64(5)
		if err != nil {
			return nil, err
		}
		switch {
		case width == 0:
			// A zero-width field always reads as zero.
			ops = append(ops, Literal(0))
			continue
		case enc == EncodingFixed && width > MaxFixedWidth,
			enc == EncodingVBR && (width < 2 || width > MaxVBRWidth):
			return nil, r.errorf(errors.KindDataError, "invalid %s width %d", enc, width)
		}
		ops = append(ops, Encoded(enc, width))
	}

	abbrev := NewAbbreviation(ops...)
	if err := abbrev.Validate(); err != nil {
		return nil, r.errorf(errors.KindDataError, "%v", err)
	}
	return abbrev, nil
}

func (r *Reader) readScalar(op Operand) (uint64, error) {
	switch op.Encoding() {
	case EncodingFixed:
		return r.Read(uint(op.Width()))
	case EncodingVBR:
		return r.ReadVBR64(uint(op.Width()))
	case EncodingChar6:
		v, err := r.Read(6)
		if err != nil {
			return 0, err
		}
		return uint64(DecodeChar6(v)), nil
	default:
		return 0, r.errorf(errors.KindDataError, "%s is not a scalar encoding", op.Encoding())
	}
}

// ReadRecord decodes the record introduced by abbrevID into rec, reusing
// rec.Ops, and returns the record code.
func (r *Reader) ReadRecord(abbrevID uint32, rec *Record) (uint32, error) {
	rec.Ops = rec.Ops[:0]
	rec.Blob = nil
	rec.Code = 0

	if abbrevID == AbbrevIDUnabbrevRecord {
		code, err := r.ReadVBR(6)
		if err != nil {
			return 0, err
		}
		n, err := r.ReadVBR(6)
		if err != nil {
			return 0, err
		}
		if err := r.checkCount(n, 6); err != nil {
			return 0, err
		}
		for i := uint32(0); i < n; i++ {
			v, err := r.ReadVBR64(6)
			if err != nil {
				return 0, err
			}
			rec.Ops = append(rec.Ops, v)
		}
		rec.Code = code
		return code, nil
	}

	if abbrevID < FirstApplicationAbbrevID {
		return 0, r.errorf(errors.KindDataError, "abbrev id %d does not introduce a record", abbrevID)
	}
	idx := abbrevID - FirstApplicationAbbrevID
	if int64(idx) >= int64(len(r.cur.abbrevs)) {
		return 0, r.errorf(errors.KindDataError,
			"abbrev id %d undefined, %d abbreviations in scope", abbrevID, len(r.cur.abbrevs))
	}
	abbrev := r.cur.abbrevs[idx]
	n := abbrev.NumOperands()
	if n == 0 {
		return 0, r.errorf(errors.KindDataError, "abbrev id %d has no operands", abbrevID)
	}

	var code uint64
	first := abbrev.Operand(0)
	if first.IsLiteral() {
		code = first.LiteralValue()
	} else {
		if !first.Encoding().IsScalar() {
			return 0, r.errorf(errors.KindDataError, "record code cannot use %s encoding", first.Encoding())
		}
		v, err := r.readScalar(first)
		if err != nil {
			return 0, err
		}
		code = v
	}
	code32, err := safecast.Conv[uint32](code)
	if err != nil {
		return 0, r.errorf(errors.KindDataError, "record code %d exceeds 32 bits", code)
	}

	for i := 1; i < n; i++ {
		op := abbrev.Operand(i)
		if op.IsLiteral() {
			rec.Ops = append(rec.Ops, op.LiteralValue())
			continue
		}

		switch op.Encoding() {
		case EncodingFixed, EncodingVBR, EncodingChar6:
			v, err := r.readScalar(op)
			if err != nil {
				return 0, err
			}
			rec.Ops = append(rec.Ops, v)

		case EncodingArray:
			if i != n-2 {
				return 0, r.errorf(errors.KindDataError, "array operand %d is not second to last of %d", i, n)
			}
			elt := abbrev.Operand(i + 1)
			if elt.IsLiteral() {
				return 0, r.errorf(errors.KindDataError, "array element must be an encoding, got %s", elt)
			}
			if !elt.Encoding().IsScalar() {
				return 0, r.errorf(errors.KindDataError, "array element cannot use %s encoding", elt.Encoding())
			}
			count, err := r.ReadVBR(6)
			if err != nil {
				return 0, err
			}
			if err := r.checkCount(count, minScalarBits(elt)); err != nil {
				return 0, err
			}
			for j := uint32(0); j < count; j++ {
				v, err := r.readScalar(elt)
				if err != nil {
					return 0, err
				}
				rec.Ops = append(rec.Ops, v)
			}
			i++

		case EncodingBlob:
			if i != n-1 {
				return 0, r.errorf(errors.KindDataError, "blob operand %d is not last of %d", i, n)
			}
			count, err := r.ReadVBR(6)
			if err != nil {
				return 0, err
			}
			r.align32()
			start := r.BitPosition() / 8
			data, ok := r.buf.Slice(int(start), int(count))
			if !ok {
				return 0, r.errorf(errors.KindDataNotEnough,
					"blob of %d bytes at byte %d runs past end of buffer", count, start)
			}
			rec.Blob = data
			for _, b := range data {
				rec.Ops = append(rec.Ops, uint64(b))
			}
			r.seekByte(start + int64(count))
			r.align32()

		default:
			return 0, r.errorf(errors.KindDataError, "invalid operand encoding %d", op.Encoding())
		}
	}

	rec.Code = code32
	return code32, nil
}

// checkCount rejects a count of elements, each at least minBits wide, that
// cannot fit in what is left of the current block.
func (r *Reader) checkCount(count uint32, minBits uint64) error {
	left := r.cur.end*8 - r.BitPosition()
	if int64(count)*int64(minBits) > left {
		return r.errorf(errors.KindDataNotEnough,
			"%d elements of at least %d bits do not fit in the %d bits left in the block", count, minBits, left)
	}
	return nil
}

func minScalarBits(op Operand) uint64 {
	if op.Encoding() == EncodingChar6 {
		return 6
	}
	return max(op.Width(), 1)
}

func (r *Reader) errorf(kind errors.Kind, format string, args ...any) error {
	b := errors.New(errors.PhaseRead, kind).At(r.BitPosition()).Detail(format, args...)
	if len(r.stack) > 0 {
		b.Block(r.blockName(r.cur.blockID))
	}
	return b.Build()
}

func (r *Reader) blockName(id uint32) string {
	if r.registry != nil {
		if info, ok := r.registry.Get(id); ok && info.Name != "" {
			return info.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}
