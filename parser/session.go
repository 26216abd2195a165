package parser

import (
	"fmt"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"github.com/wippyai/bcreader"
	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/buffer"
	"github.com/wippyai/bcreader/errors"
	"github.com/wippyai/bcreader/ir"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used by the session and its bitstream reader
// instead of the package loggers.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
			s.readerOpts = append(s.readerOpts, bitstream.WithLogger(l))
		}
	}
}

// WithTypeContext makes the session take primitive types from ctx. Modules
// parsed with the same context share primitive entries.
func WithTypeContext(ctx *ir.Context) Option {
	return func(s *Session) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// Session parses one buffer into one Module. It owns the bitstream reader and
// the blockinfo registry for the duration of Parse and cannot be reused;
// callers retry with a new Session.
//
// A Session is not safe for concurrent use.
type Session struct {
	reader   *bitstream.Reader
	registry *bitstream.Registry
	ctx      *ir.Context
	log      *zap.Logger
	module   *ir.Module
	rec      bitstream.Record
	used     bool

	readerOpts []bitstream.ReaderOption
}

// NewSession creates a session over buf.
func NewSession(buf bcreader.ByteBuffer, opts ...Option) *Session {
	s := &Session{
		registry: bitstream.NewRegistry(),
		log:      Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reader = bitstream.NewReader(buf, s.registry, s.readerOpts...)
	if s.ctx == nil {
		s.ctx = ir.NewContext()
	}
	return s
}

// Parse decodes the header and the module block. On failure it returns a nil
// module and the first error encountered.
func (s *Session) Parse() (*ir.Module, error) {
	if s.used {
		return nil, errors.InvalidInput(errors.PhaseParse, "session already used, create a new session to parse again")
	}
	s.used = true
	s.module = &ir.Module{}

	if err := s.validateHeader(); err != nil {
		return nil, err
	}
	if err := s.parseModuleBlock(); err != nil {
		return nil, err
	}

	s.log.Debug("module parsed",
		zap.Int("version", s.module.Version),
		zap.String("triple", s.module.TargetTriple),
		zap.Int("types", len(s.module.Types)),
		zap.Int("blockinfo_entries", s.registry.Len()))
	return s.module, nil
}

// Registry returns the blockinfo registry populated during Parse.
func (s *Session) Registry() *bitstream.Registry {
	return s.registry
}

// Context returns the type context primitives are taken from.
func (s *Session) Context() *ir.Context {
	return s.ctx
}

// Parse parses data with a new Session.
func Parse(data []byte, opts ...Option) (*ir.Module, error) {
	return NewSession(buffer.New(data), opts...).Parse()
}

// ParseFile loads path into memory and parses it with a new Session.
func ParseFile(path string, opts ...Option) (*ir.Module, error) {
	buf, err := buffer.Load(path)
	if err != nil {
		return nil, err
	}
	return NewSession(buf, opts...).Parse()
}

func (s *Session) errorf(kind errors.Kind, blockID uint32, format string, args ...any) error {
	return errors.New(errors.PhaseParse, kind).
		Block(blockLabel(blockID)).
		At(s.reader.BitPosition()).
		Detail(format, args...).
		Build()
}

func (s *Session) recordErrorf(kind errors.Kind, blockID, code uint32, format string, args ...any) error {
	return errors.New(errors.PhaseParse, kind).
		Block(blockLabel(blockID)).
		Record(code).
		At(s.reader.BitPosition()).
		Detail(format, args...).
		Build()
}

func blockLabel(id uint32) string {
	if name := BlockName(id); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// opsString narrows each operand of the current record to one byte.
func (s *Session) opsString(blockID, code uint32, ops []uint64) (string, error) {
	b := make([]byte, len(ops))
	for i, op := range ops {
		c, err := safecast.Conv[byte](op)
		if err != nil {
			return "", s.recordErrorf(errors.KindDataError, blockID, code,
				"operand %d value %d is not a character", i, op)
		}
		b[i] = c
	}
	return string(b), nil
}
