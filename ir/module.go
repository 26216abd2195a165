package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// maxRenderDepth bounds recursion when rendering hand-built tables that
// contain cycles. Parsed tables only reference earlier entries.
const maxRenderDepth = 64

// Module is the result of parsing a module block.
type Module struct {
	TargetTriple string
	DataLayout   string
	Types        []Type
	SectionNames []string
	GCNames      []string
	Version      int // 0 when the stream has no version record
}

// NumTypes returns the number of type table entries.
func (m *Module) NumTypes() int {
	return len(m.Types)
}

// IsValidTypeIndex reports whether i names an existing type table entry.
func (m *Module) IsValidTypeIndex(i uint32) bool {
	return uint64(i) < uint64(len(m.Types))
}

// TypeAt returns the entry at i.
func (m *Module) TypeAt(i uint32) (Type, bool) {
	if !m.IsValidTypeIndex(i) {
		return nil, false
	}
	return m.Types[i], true
}

// KindAt returns the kind of the entry at i, or 0 if i is out of range.
func (m *Module) KindAt(i uint32) Kind {
	t, ok := m.TypeAt(i)
	if !ok {
		return 0
	}
	return t.Kind()
}

// TypeString renders the entry at i the way it would appear as an operand
// type: identified structs render by name, everything else structurally.
func (m *Module) TypeString(i uint32) string {
	var b strings.Builder
	m.writeType(&b, i, 0)
	return b.String()
}

// TypeDefinition renders the body of the entry at i. For identified structs
// this is the member list (or "opaque"); other entries render as TypeString.
func (m *Module) TypeDefinition(i uint32) string {
	t, ok := m.TypeAt(i)
	if !ok {
		return m.TypeString(i)
	}
	s, ok := t.(*Struct)
	if !ok || s.Name == "" {
		return m.TypeString(i)
	}
	var b strings.Builder
	m.writeStructBody(&b, s, 0)
	return b.String()
}

// References returns the table positions the entry at i refers to, in
// operand order.
func (m *Module) References(i uint32) []uint32 {
	t, ok := m.TypeAt(i)
	if !ok {
		return nil
	}
	switch t := t.(type) {
	case *Pointer:
		return []uint32{t.Pointee}
	case *Array:
		return []uint32{t.Elem}
	case *Vector:
		return []uint32{t.Elem}
	case *Struct:
		return append([]uint32(nil), t.Members...)
	case *Function:
		return append([]uint32{t.Return}, t.Params...)
	}
	return nil
}

func (m *Module) writeType(b *strings.Builder, i uint32, depth int) {
	if depth > maxRenderDepth {
		b.WriteString("...")
		return
	}
	t, ok := m.TypeAt(i)
	if !ok {
		fmt.Fprintf(b, "<invalid #%d>", i)
		return
	}

	switch t := t.(type) {
	case *Primitive:
		b.WriteString(t.String())
	case *Integer:
		b.WriteByte('i')
		b.WriteString(strconv.FormatUint(uint64(t.Width), 10))
	case *Pointer:
		m.writeType(b, t.Pointee, depth+1)
		if t.AddrSpace != 0 {
			fmt.Fprintf(b, " addrspace(%d)", t.AddrSpace)
		}
		b.WriteByte('*')
	case *Array:
		fmt.Fprintf(b, "[%d x ", t.Count)
		m.writeType(b, t.Elem, depth+1)
		b.WriteByte(']')
	case *Vector:
		fmt.Fprintf(b, "<%d x ", t.Count)
		m.writeType(b, t.Elem, depth+1)
		b.WriteByte('>')
	case *Struct:
		switch {
		case t.Name != "":
			b.WriteByte('%')
			b.WriteString(t.Name)
		default:
			m.writeStructBody(b, t, depth)
		}
	case *Function:
		m.writeType(b, t.Return, depth+1)
		b.WriteString(" (")
		for j, p := range t.Params {
			if j > 0 {
				b.WriteString(", ")
			}
			m.writeType(b, p, depth+1)
		}
		if t.VarArg {
			if len(t.Params) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%s>", t.Kind())
	}
}

func (m *Module) writeStructBody(b *strings.Builder, s *Struct, depth int) {
	if s.Opaque {
		b.WriteString("opaque")
		return
	}
	if s.Packed {
		b.WriteByte('<')
	}
	if len(s.Members) == 0 {
		b.WriteString("{}")
	} else {
		b.WriteString("{ ")
		for j, mem := range s.Members {
			if j > 0 {
				b.WriteString(", ")
			}
			m.writeType(b, mem, depth+1)
		}
		b.WriteString(" }")
	}
	if s.Packed {
		b.WriteByte('>')
	}
}
