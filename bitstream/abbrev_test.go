package bitstream

import "testing"

func TestChar6RoundTrip(t *testing.T) {
	seen := make(map[byte]bool)
	for v := uint64(0); v < 64; v++ {
		c := DecodeChar6(v)
		if !IsChar6(c) {
			t.Errorf("DecodeChar6(%d) = %q, not in alphabet", v, c)
		}
		if seen[c] {
			t.Errorf("DecodeChar6(%d) = %q decoded twice", v, c)
		}
		seen[c] = true

		got, ok := EncodeChar6(c)
		if !ok || got != v {
			t.Errorf("EncodeChar6(%q) = %d, %v; want %d", c, got, ok, v)
		}
	}
}

func TestChar6Alphabet(t *testing.T) {
	tests := []struct {
		c    byte
		want uint64
	}{
		{'a', 0},
		{'z', 25},
		{'A', 26},
		{'Z', 51},
		{'0', 52},
		{'9', 61},
		{'.', 62},
		{'_', 63},
	}
	for _, tt := range tests {
		got, ok := EncodeChar6(tt.c)
		if !ok || got != tt.want {
			t.Errorf("EncodeChar6(%q) = %d, %v; want %d", tt.c, got, ok, tt.want)
		}
	}

	for _, c := range []byte{' ', '-', '$', 0, 0xff} {
		if IsChar6(c) {
			t.Errorf("IsChar6(%q) = true", c)
		}
		if _, ok := EncodeChar6(c); ok {
			t.Errorf("EncodeChar6(%q) succeeded", c)
		}
	}
}

func TestEncodedDropsWidth(t *testing.T) {
	op := Encoded(EncodingChar6, 9)
	if op.Width() != 0 {
		t.Errorf("char6 width = %d, want 0", op.Width())
	}
	if op.String() != "char6" {
		t.Errorf("String() = %q", op.String())
	}

	op = Encoded(EncodingVBR, 6)
	if op.IsLiteral() || op.Width() != 6 || op.String() != "vbr(6)" {
		t.Errorf("vbr operand = %s literal=%v width=%d", op, op.IsLiteral(), op.Width())
	}

	op = Literal(42)
	if !op.IsLiteral() || op.LiteralValue() != 42 || op.Width() != 0 {
		t.Errorf("literal operand = %s", op)
	}
}

func TestAbbreviationValidate(t *testing.T) {
	tests := []struct {
		name    string
		ops     []Operand
		wantErr bool
	}{
		{"scalars", []Operand{Literal(1), Encoded(EncodingFixed, 8), Encoded(EncodingVBR, 6)}, false},
		{"array of char6", []Operand{Literal(1), Encoded(EncodingArray, 0), Encoded(EncodingChar6, 0)}, false},
		{"blob last", []Operand{Literal(1), Encoded(EncodingVBR, 6), Encoded(EncodingBlob, 0)}, false},
		{"array last", []Operand{Literal(1), Encoded(EncodingArray, 0)}, true},
		{"array third to last", []Operand{Literal(1), Encoded(EncodingArray, 0), Encoded(EncodingFixed, 8), Encoded(EncodingFixed, 1)}, true},
		{"array of blob", []Operand{Literal(1), Encoded(EncodingArray, 0), Encoded(EncodingBlob, 0)}, true},
		{"array of literal", []Operand{Literal(1), Encoded(EncodingArray, 0), Literal(3)}, true},
		{"blob not last", []Operand{Literal(1), Encoded(EncodingBlob, 0), Encoded(EncodingFixed, 8)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAbbreviation(tt.ops...).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAbbreviationIsImmutable(t *testing.T) {
	ops := []Operand{Literal(1), Encoded(EncodingFixed, 8)}
	a := NewAbbreviation(ops...)
	ops[1] = Literal(7)

	got := a.Operands()
	got[0] = Literal(99)

	if a.String() != "[lit(1), fixed(8)]" {
		t.Errorf("abbreviation changed through caller slices: %s", a)
	}
}

func TestEncodingValid(t *testing.T) {
	for e := Encoding(0); e < 8; e++ {
		want := e >= 1 && e <= 5
		if e.Valid() != want {
			t.Errorf("Encoding(%d).Valid() = %v, want %v", e, e.Valid(), want)
		}
	}
}
