package parser

import (
	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/errors"
	"github.com/wippyai/bcreader/ir"
)

// typeBlock carries the state of one type block while it streams.
type typeBlock struct {
	pendingName string // set by STRUCT_NAME, consumed by the next named or opaque struct
	declared    uint64 // expected type table length at block end
	records     int
	hasNumEntry bool
}

func (s *Session) parseTypeBlock() error {
	if err := s.reader.EnterSubBlock(BlockIDType); err != nil {
		return err
	}

	var tb typeBlock
	for {
		e, err := s.reader.ReadNextEntry()
		if err != nil {
			return err
		}

		switch e.Kind {
		case bitstream.EntrySubBlock:
			return s.errorf(errors.KindDataError, BlockIDType, "unexpected block %d inside type block", e.ID)
		case bitstream.EntryEndBlock:
			got := len(s.module.Types)
			if tb.hasNumEntry && uint64(got) != tb.declared {
				return s.errorf(errors.KindDataError, BlockIDType,
					"NUMENTRY declared %d types, table has %d", tb.declared, got)
			}
			if err := s.reader.ReadBlockEnd(); err != nil {
				return err
			}
			s.log.Debug("type block parsed",
				zap.Int("types", got),
				zap.Int("records", tb.records))
			return nil
		}

		code, err := s.reader.ReadRecord(e.ID, &s.rec)
		if err != nil {
			return err
		}
		tb.records++
		ops := s.rec.Ops

		switch code {
		case TypeCodeNumEntry:
			if tb.hasNumEntry {
				return s.recordErrorf(errors.KindDataError, BlockIDType, code, "duplicate NUMENTRY")
			}
			if tb.records != 1 {
				return s.recordErrorf(errors.KindDataError, BlockIDType, code,
					"NUMENTRY must be the first record, found at record %d", tb.records)
			}
			if len(ops) == 0 {
				return s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "NUMENTRY has no count")
			}
			tb.declared = ops[0]
			tb.hasNumEntry = true
			continue

		case TypeCodeStructName:
			name, err := s.opsString(BlockIDType, code, ops)
			if err != nil {
				return err
			}
			tb.pendingName = name
			continue
		}

		t, err := s.buildType(&tb, code, ops)
		if err != nil {
			return err
		}
		if t == nil {
			return s.recordErrorf(errors.KindInternal, BlockIDType, code, "type construction produced no result")
		}
		s.module.Types = append(s.module.Types, t)
	}
}

func (s *Session) buildType(tb *typeBlock, code uint32, ops []uint64) (ir.Type, error) {
	if kind, ok := primitiveTypeCodes[code]; ok {
		return s.ctx.Primitive(kind), nil
	}

	switch code {
	case TypeCodeInteger:
		if len(ops) == 0 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "INTEGER has no width")
		}
		if ops[0] == 0 || ops[0] >= MaxIntegerWidth {
			return nil, s.recordErrorf(errors.KindDataError, BlockIDType, code, "integer width %d out of range", ops[0])
		}
		return &ir.Integer{Width: uint32(ops[0])}, nil

	case TypeCodePointer:
		if len(ops) == 0 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "POINTER has no pointee")
		}
		pointee, err := s.typeRef(code, ops[0], "pointee", ir.ValidPointee)
		if err != nil {
			return nil, err
		}
		var addrSpace uint32
		if len(ops) > 1 {
			addrSpace, err = safecast.Conv[uint32](ops[1])
			if err != nil {
				return nil, s.recordErrorf(errors.KindDataError, BlockIDType, code, "address space %d out of range", ops[1])
			}
		}
		return &ir.Pointer{Pointee: pointee, AddrSpace: addrSpace}, nil

	case TypeCodeArray:
		if len(ops) < 2 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "ARRAY needs count and element type")
		}
		elem, err := s.typeRef(code, ops[1], "array element", ir.ValidArrayElement)
		if err != nil {
			return nil, err
		}
		return &ir.Array{Count: ops[0], Elem: elem}, nil

	case TypeCodeVector:
		if len(ops) < 2 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "VECTOR needs count and element type")
		}
		if ops[0] == 0 {
			return nil, s.recordErrorf(errors.KindDataError, BlockIDType, code, "vector of zero elements")
		}
		count, err := safecast.Conv[uint32](ops[0])
		if err != nil {
			return nil, s.recordErrorf(errors.KindDataError, BlockIDType, code, "vector count %d out of range", ops[0])
		}
		elem, err := s.typeRef(code, ops[1], "vector element", ir.ValidVectorElement)
		if err != nil {
			return nil, err
		}
		return &ir.Vector{Count: count, Elem: elem}, nil

	case TypeCodeOpaque:
		if len(ops) != 1 {
			return nil, s.recordErrorf(errors.KindDataError, BlockIDType, code, "OPAQUE takes 1 operand, got %d", len(ops))
		}
		st := &ir.Struct{Name: tb.pendingName, Opaque: true}
		tb.pendingName = ""
		return st, nil

	case TypeCodeStructAnon, TypeCodeStructNamed:
		if len(ops) == 0 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "struct record has no packed flag")
		}
		members, err := s.typeRefs(code, ops[1:], "struct member", ir.ValidStructMember)
		if err != nil {
			return nil, err
		}
		st := &ir.Struct{Packed: ops[0] != 0, Members: members}
		if code == TypeCodeStructNamed {
			st.Name = tb.pendingName
			tb.pendingName = ""
		}
		return st, nil

	case TypeCodeFunctionOld:
		// [vararg, attrid, retty, paramty x N]
		if len(ops) < 3 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "FUNCTION_OLD needs vararg, attrid and return type")
		}
		return s.buildFunction(code, ops[0] != 0, ops[2], ops[3:])

	case TypeCodeFunction:
		if len(ops) < 2 {
			return nil, s.recordErrorf(errors.KindDataNotEnough, BlockIDType, code, "FUNCTION needs vararg and return type")
		}
		return s.buildFunction(code, ops[0] != 0, ops[1], ops[2:])
	}

	return nil, s.recordErrorf(errors.KindNotSupported, BlockIDType, code, "type code %d", code)
}

func (s *Session) buildFunction(code uint32, varArg bool, ret uint64, params []uint64) (ir.Type, error) {
	p, err := s.typeRefs(code, params, "parameter", ir.ValidParam)
	if err != nil {
		return nil, err
	}
	r, err := s.typeRef(code, ret, "return", ir.ValidReturn)
	if err != nil {
		return nil, err
	}
	return &ir.Function{VarArg: varArg, Return: r, Params: p}, nil
}

// typeRef resolves a type index operand. The index must name an entry that
// already exists and whose kind satisfies valid.
func (s *Session) typeRef(code uint32, op uint64, role string, valid func(ir.Kind) bool) (uint32, error) {
	idx, err := safecast.Conv[uint32](op)
	if err != nil || !s.module.IsValidTypeIndex(idx) {
		return 0, s.recordErrorf(errors.KindDataError, BlockIDType, code,
			"%s type index %d is not defined, table has %d entries", role, op, len(s.module.Types))
	}
	if k := s.module.KindAt(idx); !valid(k) {
		return 0, s.recordErrorf(errors.KindDataError, BlockIDType, code,
			"%s cannot be %s (type %d)", role, k, idx)
	}
	return idx, nil
}

func (s *Session) typeRefs(code uint32, ops []uint64, role string, valid func(ir.Kind) bool) ([]uint32, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	refs := make([]uint32, len(ops))
	for i, op := range ops {
		idx, err := s.typeRef(code, op, role, valid)
		if err != nil {
			return nil, err
		}
		refs[i] = idx
	}
	return refs, nil
}
