package dump

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wippyai/bcreader/errors"
	"github.com/wippyai/bcreader/ir"
)

// TypeEntry is the serialized form of one type table entry.
type TypeEntry struct {
	Kind  string   `msgpack:"kind"`
	Text  string   `msgpack:"text"`
	Name  string   `msgpack:"name,omitempty"`
	Refs  []uint32 `msgpack:"refs,omitempty"`
	Index uint32   `msgpack:"index"`
}

// Summary is the serialized form of a parsed module.
type Summary struct {
	Name         string      `msgpack:"name"`
	TargetTriple string      `msgpack:"target_triple,omitempty"`
	DataLayout   string      `msgpack:"data_layout,omitempty"`
	SectionNames []string    `msgpack:"section_names,omitempty"`
	GCNames      []string    `msgpack:"gc_names,omitempty"`
	Types        []TypeEntry `msgpack:"types"`
	Version      int         `msgpack:"version"`
}

// Summarize flattens m into a Summary. Type text uses TypeLine.
func Summarize(name string, m *ir.Module) Summary {
	s := Summary{
		Name:         name,
		Version:      m.Version,
		TargetTriple: m.TargetTriple,
		DataLayout:   m.DataLayout,
		SectionNames: m.SectionNames,
		GCNames:      m.GCNames,
		Types:        make([]TypeEntry, 0, len(m.Types)),
	}
	for i, t := range m.Types {
		idx := uint32(i)
		e := TypeEntry{
			Index: idx,
			Kind:  t.Kind().String(),
			Text:  TypeLine(m, idx),
			Refs:  m.References(idx),
		}
		if st, ok := t.(*ir.Struct); ok {
			e.Name = st.Name
		}
		s.Types = append(s.Types, e)
	}
	return s
}

// WriteMsgpack encodes the Summary of m to w.
func WriteMsgpack(w io.Writer, name string, m *ir.Module) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(Summarize(name, m)); err != nil {
		return errors.Wrap(errors.PhaseRender, errors.KindInternal, err, "encode msgpack summary")
	}
	return nil
}

// ReadMsgpack decodes one Summary written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (Summary, error) {
	var s Summary
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return Summary{}, errors.Wrap(errors.PhaseRender, errors.KindInvalidInput, err, "decode msgpack summary")
	}
	return s, nil
}
