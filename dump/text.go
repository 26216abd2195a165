package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/wippyai/bcreader/errors"
	"github.com/wippyai/bcreader/ir"
)

// Options controls text rendering.
type Options struct {
	// MaxWidth truncates type lines to this many terminal columns. Zero disables truncation.
	MaxWidth int
	Color    bool
}

type palette struct {
	comment *color.Color
	keyword *color.Color
	index   *color.Color
	name    *color.Color
	str     *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		comment: mk(color.FgHiBlack),
		keyword: mk(color.FgYellow, color.Bold),
		index:   mk(color.FgCyan),
		name:    mk(color.FgGreen, color.Bold),
		str:     mk(color.FgMagenta),
	}
}

// Text writes a listing of m in the textual IR style:
//
//	; module: add.bc
//	; version: 1
//	target triple = "x86_64-unknown-linux-gnu"
//
//	; types: 3
//	#0  integer  i32
//	#1  pointer  i32*
//	#2  struct   %pair = type { i32, i32* }
func Text(w io.Writer, name string, m *ir.Module, opts Options) error {
	p := newPalette(opts.Color)
	bw := bufio.NewWriter(w)

	p.comment.Fprintf(bw, "; module: %s\n", name)
	p.comment.Fprintf(bw, "; version: %d\n", m.Version)
	if m.TargetTriple != "" {
		p.keyword.Fprint(bw, "target triple")
		fmt.Fprint(bw, " = ")
		p.str.Fprintln(bw, strconv.Quote(m.TargetTriple))
	}
	if m.DataLayout != "" {
		p.keyword.Fprint(bw, "target datalayout")
		fmt.Fprint(bw, " = ")
		p.str.Fprintln(bw, strconv.Quote(m.DataLayout))
	}
	if len(m.SectionNames) > 0 {
		p.comment.Fprintf(bw, "; sections: %s\n", strings.Join(m.SectionNames, ", "))
	}
	if len(m.GCNames) > 0 {
		p.comment.Fprintf(bw, "; gc: %s\n", strings.Join(m.GCNames, ", "))
	}

	fmt.Fprintln(bw)
	p.comment.Fprintf(bw, "; types: %d\n", len(m.Types))

	idxWidth := len(strconv.Itoa(len(m.Types)-1)) + 1
	kindWidth := 0
	for _, t := range m.Types {
		kindWidth = max(kindWidth, runewidth.StringWidth(t.Kind().String()))
	}

	for i := range m.Types {
		idx := uint32(i)
		label := runewidth.FillRight("#"+strconv.Itoa(i), idxWidth)
		kind := runewidth.FillRight(m.Types[i].Kind().String(), kindWidth)
		line := TypeLine(m, idx)

		if opts.MaxWidth > 0 {
			avail := opts.MaxWidth - idxWidth - kindWidth - 4
			line = truncate(line, avail)
		}

		p.index.Fprint(bw, label)
		fmt.Fprint(bw, "  ")
		p.comment.Fprint(bw, kind)
		fmt.Fprint(bw, "  ")
		if st, ok := m.Types[i].(*ir.Struct); ok && st.Name != "" && strings.HasPrefix(line, "%"+st.Name) {
			p.name.Fprint(bw, "%"+st.Name)
			line = strings.TrimPrefix(line, "%"+st.Name)
		}
		fmt.Fprintln(bw, line)
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(errors.PhaseRender, errors.KindInternal, err, "write listing")
	}
	return nil
}

// TypeLine renders one type table entry. Identified structs render as a
// definition, other entries as their type string.
func TypeLine(m *ir.Module, i uint32) string {
	if t, ok := m.TypeAt(i); ok {
		if st, ok := t.(*ir.Struct); ok && st.Name != "" {
			return "%" + st.Name + " = type " + m.TypeDefinition(i)
		}
	}
	return m.TypeString(i)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
