package parser

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/errors"
)

var magic = [...]struct {
	value uint64
	bits  uint
}{
	{'B', 8},
	{'C', 8},
	{0x0, 4},
	{0xC, 4},
	{0xE, 4},
	{0xD, 4},
}

func (s *Session) validateHeader() error {
	for i, m := range magic {
		v, err := s.reader.Read(m.bits)
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		if v != m.value {
			return errors.New(errors.PhaseParse, errors.KindDataError).
				At(s.reader.BitPosition()).
				Value(v).
				Detail("bad magic field %d: got %#x, want %#x", i, v, m.value).
				Build()
		}
	}
	return nil
}

func (s *Session) parseModuleBlock() error {
	e, err := s.reader.ReadNextEntry()
	if err != nil {
		return fmt.Errorf("module block: %w", err)
	}
	if e.Kind != bitstream.EntrySubBlock || e.ID != BlockIDModule {
		return errors.New(errors.PhaseParse, errors.KindDataError).
			At(s.reader.BitPosition()).
			Detail("stream must start with the module block, found %s %d", e.Kind, e.ID).
			Build()
	}
	if err := s.reader.EnterSubBlock(BlockIDModule); err != nil {
		return fmt.Errorf("module block: %w", err)
	}

	for {
		e, err := s.reader.ReadNextEntry()
		if err != nil {
			return fmt.Errorf("module block: %w", err)
		}

		switch e.Kind {
		case bitstream.EntryEndBlock:
			if err := s.reader.ReadBlockEnd(); err != nil {
				return fmt.Errorf("module block: %w", err)
			}
			return nil
		case bitstream.EntrySubBlock:
			if err := s.parseSubBlock(e.ID); err != nil {
				return err
			}
		case bitstream.EntryRecord:
			if err := s.parseModuleRecord(e.ID); err != nil {
				return err
			}
		}
	}
}

func (s *Session) parseSubBlock(id uint32) error {
	switch id {
	case bitstream.BlockInfoID:
		if err := s.parseBlockInfoBlock(); err != nil {
			return fmt.Errorf("blockinfo block: %w", err)
		}
	case BlockIDModule:
		return s.errorf(errors.KindDataError, BlockIDModule, "module block cannot be nested")
	case BlockIDType:
		if err := s.parseTypeBlock(); err != nil {
			return fmt.Errorf("type block: %w", err)
		}
	default:
		s.log.Debug("skipping block", zap.Uint32("block_id", id), zap.String("block", blockLabel(id)))
		if err := s.reader.SkipSubBlock(id); err != nil {
			return fmt.Errorf("skip %s: %w", blockLabel(id), err)
		}
	}
	return nil
}

func (s *Session) parseModuleRecord(abbrevID uint32) error {
	code, err := s.reader.ReadRecord(abbrevID, &s.rec)
	if err != nil {
		return fmt.Errorf("module record: %w", err)
	}
	ops := s.rec.Ops

	switch code {
	case ModuleCodeVersion:
		if len(ops) == 0 {
			return s.recordErrorf(errors.KindDataNotEnough, BlockIDModule, code, "version record has no operands")
		}
		if ops[0] != 1 {
			return s.recordErrorf(errors.KindNotSupported, BlockIDModule, code, "module version %d", ops[0])
		}
		s.module.Version = 1

	case ModuleCodeTriple, ModuleCodeDataLayout, ModuleCodeSectionName, ModuleCodeGCName:
		if len(ops) == 0 {
			return nil
		}
		str, err := s.opsString(BlockIDModule, code, ops)
		if err != nil {
			return err
		}
		switch code {
		case ModuleCodeTriple:
			s.module.TargetTriple = str
		case ModuleCodeDataLayout:
			s.module.DataLayout = str
		case ModuleCodeSectionName:
			s.module.SectionNames = append(s.module.SectionNames, str)
		case ModuleCodeGCName:
			s.module.GCNames = append(s.module.GCNames, str)
		}

	case ModuleCodeAsm:
		return s.recordErrorf(errors.KindNotSupported, BlockIDModule, code, "module-level inline assembly")

	case ModuleCodeDepLib, ModuleCodeGlobalVar, ModuleCodeFunction, ModuleCodeAlias,
		ModuleCodePurgeVals, ModuleCodeComdat:
		s.log.Debug("module record not materialized",
			zap.Uint32("code", code),
			zap.Int("operands", len(ops)))

	default:
		s.log.Debug("unknown module record", zap.Uint32("code", code))
	}
	return nil
}
