package parser

import (
	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/errors"
)

// parseBlockInfoBlock fills the registry from a blockinfo block. Only the
// first blockinfo block of a stream is honored; later ones are skipped.
func (s *Session) parseBlockInfoBlock() error {
	const id = bitstream.BlockInfoID

	if s.registry.HasEntries() {
		s.log.Debug("blockinfo already registered, skipping block")
		return s.reader.SkipSubBlock(id)
	}
	if err := s.reader.EnterSubBlock(id); err != nil {
		return err
	}

	var target *bitstream.BlockInfo
	for {
		e, err := s.reader.ReadNextEntryFlags(bitstream.DontAutoprocessAbbrevs)
		if err != nil {
			return err
		}

		switch e.Kind {
		case bitstream.EntryEndBlock:
			return s.reader.ReadBlockEnd()
		case bitstream.EntrySubBlock:
			if err := s.reader.SkipSubBlock(e.ID); err != nil {
				return err
			}
			continue
		case bitstream.EntryDefineAbbrev:
			if target == nil {
				return s.errorf(errors.KindDataError, id, "abbreviation defined before SETBID")
			}
			abbrev, err := s.reader.ReadAbbrevDefinition()
			if err != nil {
				return err
			}
			target.Abbrevs = append(target.Abbrevs, abbrev)
			continue
		}

		code, err := s.reader.ReadRecord(e.ID, &s.rec)
		if err != nil {
			return err
		}
		ops := s.rec.Ops

		switch code {
		case bitstream.BlockInfoCodeSetBID:
			if len(ops) == 0 {
				return s.recordErrorf(errors.KindDataError, id, code, "SETBID has no block id")
			}
			blockID, err := safecast.Conv[uint32](ops[0])
			if err != nil {
				return s.recordErrorf(errors.KindDataError, id, code, "block id %d out of range", ops[0])
			}
			target = s.registry.GetOrCreate(blockID)

		case bitstream.BlockInfoCodeBlockName:
			if target == nil {
				return s.recordErrorf(errors.KindDataError, id, code, "BLOCKNAME before SETBID")
			}
			name, err := s.opsString(id, code, ops)
			if err != nil {
				return err
			}
			target.Name = name

		case bitstream.BlockInfoCodeSetRecordName:
			if target == nil {
				return s.recordErrorf(errors.KindDataError, id, code, "SETRECORDNAME before SETBID")
			}
			if len(ops) == 0 {
				return s.recordErrorf(errors.KindDataError, id, code, "SETRECORDNAME has no record code")
			}
			recordCode, err := safecast.Conv[uint32](ops[0])
			if err != nil {
				return s.recordErrorf(errors.KindDataError, id, code, "record code %d out of range", ops[0])
			}
			name, err := s.opsString(id, code, ops[1:])
			if err != nil {
				return err
			}
			target.RecordNames = append(target.RecordNames, bitstream.RecordName{Code: recordCode, Name: name})

		default:
			s.log.Debug("unknown blockinfo record", zap.Uint32("code", code))
		}
	}
}
