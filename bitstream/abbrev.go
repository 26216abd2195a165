package bitstream

import "fmt"

// Encoding describes how a non-literal abbreviation operand is packed.
type Encoding uint8

const (
	EncodingFixed Encoding = 1
	EncodingVBR   Encoding = 2
	EncodingArray Encoding = 3
	EncodingChar6 Encoding = 4
	EncodingBlob  Encoding = 5
)

// Width limits for Fixed and VBR operands.
const (
	MaxFixedWidth = 64
	MaxVBRWidth   = 32
)

func (e Encoding) String() string {
	switch e {
	case EncodingFixed:
		return "fixed"
	case EncodingVBR:
		return "vbr"
	case EncodingArray:
		return "array"
	case EncodingChar6:
		return "char6"
	case EncodingBlob:
		return "blob"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Valid reports whether e is one of the defined encodings.
func (e Encoding) Valid() bool {
	return e >= EncodingFixed && e <= EncodingBlob
}

// HasWidth reports whether operands of this encoding carry a bit width.
func (e Encoding) HasWidth() bool {
	return e == EncodingFixed || e == EncodingVBR
}

// IsScalar reports whether the encoding yields exactly one value.
func (e Encoding) IsScalar() bool {
	return e == EncodingFixed || e == EncodingVBR || e == EncodingChar6
}

// Operand is one entry of an abbreviation: either a literal value recorded
// by the template, or an encoding read from the stream.
type Operand struct {
	value    uint64 // literal value, or bit width for Fixed/VBR
	encoding Encoding
	literal  bool
}

// Literal returns an operand that always yields v.
func Literal(v uint64) Operand {
	return Operand{value: v, literal: true}
}

// Encoded returns an operand read from the stream with the given encoding.
// width is ignored for encodings without one.
func Encoded(enc Encoding, width uint64) Operand {
	if !enc.HasWidth() {
		width = 0
	}
	return Operand{value: width, encoding: enc}
}

// IsLiteral reports whether the operand is a literal.
func (o Operand) IsLiteral() bool { return o.literal }

// LiteralValue returns the value of a literal operand.
func (o Operand) LiteralValue() uint64 { return o.value }

// Encoding returns the encoding of a non-literal operand.
func (o Operand) Encoding() Encoding { return o.encoding }

// Width returns the bit width of a Fixed or VBR operand, 0 otherwise.
func (o Operand) Width() uint64 {
	if o.literal {
		return 0
	}
	return o.value
}

func (o Operand) String() string {
	if o.literal {
		return fmt.Sprintf("lit(%d)", o.value)
	}
	if o.encoding.HasWidth() {
		return fmt.Sprintf("%s(%d)", o.encoding, o.value)
	}
	return o.encoding.String()
}

// Abbreviation is an immutable record encoding template. Operand 0 describes
// the record code, the remaining operands describe its values.
type Abbreviation struct {
	ops []Operand
}

// NewAbbreviation builds an abbreviation from ops.
func NewAbbreviation(ops ...Operand) *Abbreviation {
	return &Abbreviation{ops: append([]Operand(nil), ops...)}
}

// NumOperands returns the number of operands in the template.
func (a *Abbreviation) NumOperands() int { return len(a.ops) }

// Operand returns the i-th operand.
func (a *Abbreviation) Operand(i int) Operand { return a.ops[i] }

// Operands returns a copy of the operand list.
func (a *Abbreviation) Operands() []Operand {
	return append([]Operand(nil), a.ops...)
}

// Validate checks operand placement: an Array must be second to last and be
// followed by an encoded scalar element operand, a Blob must be last.
func (a *Abbreviation) Validate() error {
	n := len(a.ops)
	for i, op := range a.ops {
		if op.literal {
			continue
		}
		switch op.encoding {
		case EncodingArray:
			if i != n-2 {
				return fmt.Errorf("array operand at %d of %d must be second to last", i, n)
			}
			next := a.ops[i+1]
			if next.literal {
				return fmt.Errorf("array element operand must be an encoding, got %s", next)
			}
			if !next.encoding.IsScalar() {
				return fmt.Errorf("array element operand must be scalar, got %s", next.encoding)
			}
		case EncodingBlob:
			if i != n-1 {
				return fmt.Errorf("blob operand at %d of %d must be last", i, n)
			}
		}
	}
	return nil
}

func (a *Abbreviation) String() string {
	s := "["
	for i, op := range a.ops {
		if i > 0 {
			s += ", "
		}
		s += op.String()
	}
	return s + "]"
}

// IsChar6 reports whether c is in the char6 alphabet [a-zA-Z0-9._].
func IsChar6(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_':
		return true
	}
	return false
}

// EncodeChar6 maps c to its 6-bit code. ok is false if c is outside the alphabet.
func EncodeChar6(c byte) (v uint64, ok bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c - 'a'), true
	case c >= 'A' && c <= 'Z':
		return uint64(c-'A') + 26, true
	case c >= '0' && c <= '9':
		return uint64(c-'0') + 52, true
	case c == '.':
		return 62, true
	case c == '_':
		return 63, true
	}
	return 0, false
}

// DecodeChar6 maps a 6-bit code to its character. Only the low 6 bits of v are used.
func DecodeChar6(v uint64) byte {
	v &= 0x3f
	switch {
	case v < 26:
		return byte(v) + 'a'
	case v < 52:
		return byte(v-26) + 'A'
	case v < 62:
		return byte(v-52) + '0'
	case v == 62:
		return '.'
	default:
		return '_'
	}
}
