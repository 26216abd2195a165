package ir

import "testing"

func TestContextSingletons(t *testing.T) {
	a := NewContext()
	b := NewContext()

	for k := KindVoid; k <= KindMetadata; k++ {
		p := a.Primitive(k)
		if p == nil {
			t.Fatalf("Primitive(%s) = nil", k)
		}
		if p.Kind() != k {
			t.Errorf("Primitive(%s).Kind() = %s", k, p.Kind())
		}
		if a.Primitive(k) != p {
			t.Errorf("Primitive(%s) returned a new instance", k)
		}
		if b.Primitive(k) == p {
			t.Errorf("contexts share the %s instance", k)
		}
	}

	for _, k := range []Kind{0, KindInteger, KindPointer, KindStruct, KindFunction} {
		if a.Primitive(k) != nil {
			t.Errorf("Primitive(%s) returned a value for a composite kind", k)
		}
	}

	if a.Void() != a.Primitive(KindVoid) || a.Label() != a.Primitive(KindLabel) || a.Metadata() != a.Primitive(KindMetadata) {
		t.Error("named accessors disagree with Primitive")
	}
}

func TestPredicates(t *testing.T) {
	all := []Kind{
		KindVoid, KindHalf, KindFloat, KindDouble, KindX86FP80, KindX86MMX, KindFP128,
		KindPPCFP128, KindLabel, KindMetadata, KindInteger, KindPointer, KindArray,
		KindVector, KindStruct, KindFunction,
	}

	tests := []struct {
		name   string
		pred   func(Kind) bool
		reject []Kind
		only   []Kind
	}{
		{name: "pointee", pred: ValidPointee, reject: []Kind{KindVoid, KindLabel, KindMetadata}},
		{name: "array element", pred: ValidArrayElement, reject: []Kind{KindVoid, KindLabel, KindMetadata, KindFunction}},
		{name: "struct member", pred: ValidStructMember, reject: []Kind{KindVoid, KindLabel, KindMetadata, KindFunction}},
		{name: "param", pred: ValidParam, reject: []Kind{KindVoid, KindFunction}},
		{name: "return", pred: ValidReturn, reject: []Kind{KindFunction, KindLabel, KindMetadata}},
		{name: "vector element", pred: ValidVectorElement, only: []Kind{KindInteger, KindHalf, KindFloat, KindDouble, KindPointer}},
	}

	contains := func(ks []Kind, k Kind) bool {
		for _, x := range ks {
			if x == k {
				return true
			}
		}
		return false
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range all {
				want := !contains(tt.reject, k)
				if tt.only != nil {
					want = contains(tt.only, k)
				}
				if got := tt.pred(k); got != want {
					t.Errorf("%s(%s) = %v, want %v", tt.name, k, got, want)
				}
			}
		})
	}
}

func testModule() *Module {
	ctx := NewContext()
	return &Module{
		Types: []Type{
			&Integer{Width: 32},                                     // 0
			&Pointer{Pointee: 0},                                    // 1
			ctx.Primitive(KindFloat),                                // 2
			&Array{Count: 4, Elem: 0},                               // 3
			&Vector{Count: 8, Elem: 2},                              // 4
			&Struct{Members: []uint32{0, 1}},                        // 5
			&Struct{Name: "pair", Members: []uint32{0, 2}},          // 6
			&Struct{Name: "handle", Opaque: true},                   // 7
			&Function{Return: 0, Params: []uint32{1}, VarArg: true}, // 8
			ctx.Void(),                                              // 9
			&Function{Return: 9},                                    // 10
			&Struct{Packed: true, Members: []uint32{6}},             // 11
			&Pointer{Pointee: 6, AddrSpace: 3},                      // 12
			&Integer{Width: 1},                                      // 13
			&Struct{},                                               // 14
		},
	}
}

func TestTypeString(t *testing.T) {
	m := testModule()

	tests := []struct {
		idx  uint32
		want string
	}{
		{0, "i32"},
		{1, "i32*"},
		{2, "float"},
		{3, "[4 x i32]"},
		{4, "<8 x float>"},
		{5, "{ i32, i32* }"},
		{6, "%pair"},
		{7, "%handle"},
		{8, "i32 (i32*, ...)"},
		{9, "void"},
		{10, "void ()"},
		{11, "<{ %pair }>"},
		{12, "%pair addrspace(3)*"},
		{13, "i1"},
		{14, "{}"},
		{99, "<invalid #99>"},
	}
	for _, tt := range tests {
		if got := m.TypeString(tt.idx); got != tt.want {
			t.Errorf("TypeString(%d) = %q, want %q", tt.idx, got, tt.want)
		}
	}
}

func TestTypeDefinition(t *testing.T) {
	m := testModule()

	tests := []struct {
		idx  uint32
		want string
	}{
		{6, "{ i32, float }"},
		{7, "opaque"},
		{5, "{ i32, i32* }"},
		{0, "i32"},
	}
	for _, tt := range tests {
		if got := m.TypeDefinition(tt.idx); got != tt.want {
			t.Errorf("TypeDefinition(%d) = %q, want %q", tt.idx, got, tt.want)
		}
	}
}

func TestTypeStringCycle(t *testing.T) {
	m := &Module{Types: []Type{&Pointer{Pointee: 1}, &Pointer{Pointee: 0}}}
	got := m.TypeString(0)
	if len(got) == 0 || got[:3] != "..." {
		t.Errorf("cyclic TypeString = %q, want truncated rendering", got)
	}
}

func TestTypeIndexHelpers(t *testing.T) {
	m := testModule()

	if !m.IsValidTypeIndex(0) || !m.IsValidTypeIndex(14) {
		t.Error("in-range index rejected")
	}
	if m.IsValidTypeIndex(15) || m.IsValidTypeIndex(^uint32(0)) {
		t.Error("out-of-range index accepted")
	}
	if _, ok := m.TypeAt(15); ok {
		t.Error("TypeAt(15) succeeded")
	}
	if k := m.KindAt(3); k != KindArray {
		t.Errorf("KindAt(3) = %s, want array", k)
	}
	if k := m.KindAt(100); k != 0 {
		t.Errorf("KindAt(100) = %s, want 0", k)
	}

	refs := m.References(8)
	if len(refs) != 2 || refs[0] != 0 || refs[1] != 1 {
		t.Errorf("References(8) = %v, want [0 1]", refs)
	}
	if refs := m.References(2); refs != nil {
		t.Errorf("References(2) = %v, want nil", refs)
	}
}
