package parser

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/buffer"
	bcerrors "github.com/wippyai/bcreader/errors"
	"github.com/wippyai/bcreader/internal/bitwriter"
	"github.com/wippyai/bcreader/ir"
)

type rec struct {
	code uint32
	ops  []uint64
}

func buildModule(body func(w *bitwriter.Writer)) []byte {
	w := bitwriter.New()
	w.Magic()
	w.EnterBlock(BlockIDModule, 3)
	body(w)
	w.ExitBlock()
	return w.Bytes()
}

func writeTypeBlock(w *bitwriter.Writer, recs ...rec) {
	w.EnterBlock(BlockIDType, 4)
	for _, r := range recs {
		w.Record(r.code, r.ops...)
	}
	w.ExitBlock()
}

func typeModule(recs ...rec) []byte {
	return buildModule(func(w *bitwriter.Writer) {
		w.Record(ModuleCodeVersion, 1)
		writeTypeBlock(w, recs...)
	})
}

func chars(s string) []uint64 {
	ops := make([]uint64, len(s))
	for i := range len(s) {
		ops[i] = uint64(s[i])
	}
	return ops
}

func mustParse(t *testing.T, data []byte) *ir.Module {
	t.Helper()
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestParseHeaderRejection(t *testing.T) {
	valid := buildModule(func(w *bitwriter.Writer) {})
	if string(valid[:4]) != "BC\xC0\xDE" {
		t.Fatalf("fixture header = %q", valid[:4])
	}

	tests := []struct {
		name   string
		header string
	}{
		{"wrong first byte", "XC\xC0\xDE"},
		{"wrong second byte", "Bc\xC0\xDE"},
		{"swapped nibbles", "BC\x0C\xDE"},
		{"wrong last nibble", "BC\xC0\xDF"},
		{"wrapper magic", "\xDE\xC0\x17\x0B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(tt.header), valid[4:]...)
			m, err := Parse(data)
			if !errors.Is(err, bcerrors.ErrDataError) {
				t.Errorf("err = %v, want data_error", err)
			}
			if m != nil {
				t.Error("module returned alongside error")
			}
		})
	}

	t.Run("truncated", func(t *testing.T) {
		if _, err := Parse([]byte("BC")); !errors.Is(err, bcerrors.ErrEOF) {
			t.Errorf("err = %v, want eof", err)
		}
	})
}

func TestParseMinimalModule(t *testing.T) {
	data := buildModule(func(w *bitwriter.Writer) {
		w.Record(ModuleCodeVersion, 1)
		w.StringRecord(ModuleCodeTriple, "x86_64-unknown-linux-gnu")
	})

	m := mustParse(t, data)
	if m.Version != 1 {
		t.Errorf("Version = %d, want 1", m.Version)
	}
	if m.TargetTriple != "x86_64-unknown-linux-gnu" {
		t.Errorf("TargetTriple = %q", m.TargetTriple)
	}
	if len(m.Types) != 0 || m.DataLayout != "" || len(m.SectionNames) != 0 || len(m.GCNames) != 0 {
		t.Errorf("unexpected module contents: %+v", m)
	}
}

func TestParseDefaultVersion(t *testing.T) {
	m := mustParse(t, buildModule(func(w *bitwriter.Writer) {
		w.StringRecord(ModuleCodeDataLayout, "e-m:e-i64:64")
	}))
	if m.Version != 0 {
		t.Errorf("Version = %d, want 0", m.Version)
	}
	if m.DataLayout != "e-m:e-i64:64" {
		t.Errorf("DataLayout = %q", m.DataLayout)
	}
}

func TestParseModuleRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		body func(w *bitwriter.Writer)
		want error
	}{
		{
			name: "version 2",
			body: func(w *bitwriter.Writer) { w.Record(ModuleCodeVersion, 2) },
			want: bcerrors.ErrNotSupported,
		},
		{
			name: "version 0",
			body: func(w *bitwriter.Writer) { w.Record(ModuleCodeVersion, 0) },
			want: bcerrors.ErrNotSupported,
		},
		{
			name: "version without operand",
			body: func(w *bitwriter.Writer) { w.Record(ModuleCodeVersion) },
			want: bcerrors.ErrDataNotEnough,
		},
		{
			name: "inline asm",
			body: func(w *bitwriter.Writer) { w.StringRecord(ModuleCodeAsm, "nop") },
			want: bcerrors.ErrNotSupported,
		},
		{
			name: "triple operand is not a character",
			body: func(w *bitwriter.Writer) { w.Record(ModuleCodeTriple, 'x', 300) },
			want: bcerrors.ErrDataError,
		},
		{
			name: "nested module block",
			body: func(w *bitwriter.Writer) {
				w.EnterBlock(BlockIDModule, 3)
				w.ExitBlock()
			},
			want: bcerrors.ErrDataError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(buildModule(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if m != nil {
				t.Error("module returned alongside error")
			}
		})
	}
}

func TestParseUnsupportedVersionDetail(t *testing.T) {
	_, err := Parse(buildModule(func(w *bitwriter.Writer) { w.Record(ModuleCodeVersion, 2) }))

	var bcErr *bcerrors.Error
	if !errors.As(err, &bcErr) {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if bcErr.Phase != bcerrors.PhaseParse || bcErr.Block != "MODULE_BLOCK" {
		t.Errorf("phase %q block %q", bcErr.Phase, bcErr.Block)
	}
	if !bcErr.HasRecord || bcErr.Record != ModuleCodeVersion {
		t.Errorf("record = %d (has %v), want %d", bcErr.Record, bcErr.HasRecord, ModuleCodeVersion)
	}
}

func TestParseStringTables(t *testing.T) {
	data := buildModule(func(w *bitwriter.Writer) {
		w.Record(ModuleCodeVersion, 1)
		w.StringRecord(ModuleCodeSectionName, ".text")
		w.StringRecord(ModuleCodeSectionName, "")
		w.StringRecord(ModuleCodeSectionName, ".data")
		w.StringRecord(ModuleCodeGCName, "shadow-stack")
		w.StringRecord(ModuleCodeTriple, "")
	})

	m := mustParse(t, data)
	if got := strings.Join(m.SectionNames, ","); got != ".text,.data" {
		t.Errorf("SectionNames = %q", got)
	}
	if len(m.GCNames) != 1 || m.GCNames[0] != "shadow-stack" {
		t.Errorf("GCNames = %q", m.GCNames)
	}
	if m.TargetTriple != "" {
		t.Errorf("empty triple record assigned %q", m.TargetTriple)
	}
}

func TestParseAbbreviatedStringRecord(t *testing.T) {
	abbrev := bitstream.NewAbbreviation(
		bitstream.Literal(uint64(ModuleCodeTriple)),
		bitstream.Encoded(bitstream.EncodingArray, 0),
		bitstream.Encoded(bitstream.EncodingFixed, 8),
	)
	data := buildModule(func(w *bitwriter.Writer) {
		w.DefineAbbrev(abbrev)
		w.AbbrevRecord(4, abbrev, ModuleCodeTriple, chars("wasm32-wasi"), nil)
	})

	m := mustParse(t, data)
	if m.TargetTriple != "wasm32-wasi" {
		t.Errorf("TargetTriple = %q", m.TargetTriple)
	}
}

func TestParseStubRecords(t *testing.T) {
	data := buildModule(func(w *bitwriter.Writer) {
		w.Record(ModuleCodeVersion, 1)
		w.StringRecord(ModuleCodeDepLib, "libm")
		w.Record(ModuleCodeGlobalVar, 3, 0, 1, 0)
		w.Record(ModuleCodeFunction, 2, 0, 0, 0, 0)
		w.Record(ModuleCodeAlias, 1, 2, 0)
		w.Record(ModuleCodePurgeVals, 4)
		w.Record(ModuleCodeComdat, 1, 'x')
		w.Record(99, 1, 2, 3)
		w.StringRecord(ModuleCodeTriple, "arm64")
	})

	m := mustParse(t, data)
	if m.TargetTriple != "arm64" || m.Version != 1 {
		t.Errorf("module = %+v", m)
	}
}

func TestParseFirstEntryMustBeModule(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *bitwriter.Writer)
	}{
		{
			name: "type block at top level",
			write: func(w *bitwriter.Writer) {
				w.EnterBlock(BlockIDType, 4)
				w.ExitBlock()
			},
		},
		{
			name:  "record at top level",
			write: func(w *bitwriter.Writer) { w.Record(1, 1) },
		},
		{
			name:  "end block at top level",
			write: func(w *bitwriter.Writer) { w.Emit(0, 32) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := bitwriter.New()
			w.Magic()
			tt.write(w)
			if _, err := Parse(w.Bytes()); !errors.Is(err, bcerrors.ErrDataError) {
				t.Errorf("err = %v, want data_error", err)
			}
		})
	}
}

func TestParseSkipsOpaqueBlocks(t *testing.T) {
	data := buildModule(func(w *bitwriter.Writer) {
		for _, id := range []uint32{BlockIDParamAttr, BlockIDConstants, BlockIDFunction, BlockIDMetadata, 40} {
			w.EnterBlock(id, 5)
			w.Record(1, 1, 2, 3)
			w.Emit(31, 5) // abbreviation id that nothing defines
			w.EnterBlock(BlockIDValueSymtab, 2)
			w.Record(1, 0)
			w.ExitBlock()
			w.ExitBlock()
		}
		w.Record(ModuleCodeVersion, 1)
		writeTypeBlock(w, rec{TypeCodeInteger, []uint64{16}})
	})

	m := mustParse(t, data)
	if m.Version != 1 {
		t.Errorf("Version = %d, want 1", m.Version)
	}
	if len(m.Types) != 1 || m.TypeString(0) != "i16" {
		t.Errorf("types after skipped blocks = %d", len(m.Types))
	}
}

func TestSessionLoggerReachesReader(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core).With(zap.String("file", "a.bc"))

	data := buildModule(func(w *bitwriter.Writer) {
		w.EnterBlock(BlockIDFunction, 3)
		w.Record(1, 1)
		w.ExitBlock()
	})
	if _, err := Parse(data, WithLogger(log)); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	skips := logs.FilterMessage("skip block").All()
	if len(skips) != 1 {
		t.Fatalf("logged %d reader skip entries, want 1", len(skips))
	}
	if f := skips[0].ContextMap()["file"]; f != "a.bc" {
		t.Errorf("file field = %v, want a.bc", f)
	}
}

func TestSessionSingleUse(t *testing.T) {
	s := NewSession(buffer.New(buildModule(func(w *bitwriter.Writer) {})))
	if _, err := s.Parse(); err != nil {
		t.Fatalf("first Parse: %v", err)
	}
	if _, err := s.Parse(); !errors.Is(err, bcerrors.ErrInvalidInput) {
		t.Errorf("second Parse err = %v, want invalid_input", err)
	}
}
