package ir

import "fmt"

// Kind identifies a type variant.
type Kind uint8

const (
	KindVoid Kind = iota + 1
	KindHalf
	KindFloat
	KindDouble
	KindX86FP80
	KindX86MMX
	KindFP128
	KindPPCFP128
	KindLabel
	KindMetadata
	KindInteger
	KindPointer
	KindArray
	KindVector
	KindStruct
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindHalf:
		return "half"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindX86FP80:
		return "x86_fp80"
	case KindX86MMX:
		return "x86_mmx"
	case KindFP128:
		return "fp128"
	case KindPPCFP128:
		return "ppc_fp128"
	case KindLabel:
		return "label"
	case KindMetadata:
		return "metadata"
	case KindInteger:
		return "integer"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindVector:
		return "vector"
	case KindStruct:
		return "struct"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsPrimitive reports whether k is one of the context-owned singleton kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindVoid && k <= KindMetadata
}

// Type is an entry of a module's type table. Composite variants refer to
// other entries by their position in the table.
type Type interface {
	Kind() Kind
}

// Primitive is a type without parameters. Instances are owned by a Context
// and shared by every module parsed with it.
type Primitive struct {
	kind Kind
}

func (p *Primitive) Kind() Kind     { return p.kind }
func (p *Primitive) String() string { return p.kind.String() }

// Integer is an arbitrary-width integer type.
type Integer struct {
	Width uint32
}

func (*Integer) Kind() Kind { return KindInteger }

// Pointer refers to the type at Pointee.
type Pointer struct {
	Pointee   uint32
	AddrSpace uint32
}

func (*Pointer) Kind() Kind { return KindPointer }

// Array is a fixed-count sequence of Elem.
type Array struct {
	Count uint64
	Elem  uint32
}

func (*Array) Kind() Kind { return KindArray }

// Vector is a fixed-count SIMD vector of Elem.
type Vector struct {
	Count uint32
	Elem  uint32
}

func (*Vector) Kind() Kind { return KindVector }

// Struct is a literal or identified structure. Name is empty for literal
// structs. Opaque structs have no body.
type Struct struct {
	Name    string
	Members []uint32
	Packed  bool
	Opaque  bool
}

func (*Struct) Kind() Kind { return KindStruct }

// Function is a function signature.
type Function struct {
	Params []uint32
	Return uint32
	VarArg bool
}

func (*Function) Kind() Kind { return KindFunction }
