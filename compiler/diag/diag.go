package diag

import (
	"fmt"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/ziggurat/compiler/ast"
)

type (
	// Error is a user facing diagnostic.
	// End position is not tracked yet and is always -1.
	Error struct {
		LineStart   int
		ColumnStart int
		LineEnd     int
		ColumnEnd   int

		Msg string
	}

	// Sink collects diagnostics in the order they are reported.
	// It is append-only.
	Sink struct {
		errs []Error
	}

	// List is returned by Sink.Err.
	List []Error
)

func (s *Sink) Add(pos ast.Pos, format string, args ...any) {
	s.errs = append(s.errs, Error{
		LineStart:   pos.Line,
		ColumnStart: pos.Col,
		LineEnd:     -1,
		ColumnEnd:   -1,
		Msg:         fmt.Sprintf(format, args...),
	})
}

func (s *Sink) Len() int { return len(s.errs) }

func (s *Sink) Empty() bool { return len(s.errs) == 0 }

// Errors returns collected diagnostics. The slice must not be modified.
func (s *Sink) Errors() []Error { return s.errs }

// Err returns nil if no diagnostics were reported.
func (s *Sink) Err() error {
	if len(s.errs) == 0 {
		return nil
	}

	return List(s.errs)
}

// AppendText renders diagnostics one per line as file:line:col: error: msg.
func (s *Sink) AppendText(b []byte, file string) []byte {
	for _, e := range s.errs {
		b = e.AppendText(b, file)
		b = append(b, '\n')
	}

	return b
}

func (e Error) AppendText(b []byte, file string) []byte {
	if file != "" {
		b = hfmt.Appendf(b, "%s:", file)
	}

	return hfmt.Appendf(b, "%d:%d: error: %s", e.LineStart, e.ColumnStart, e.Msg)
}

func (e Error) Error() string {
	return string(e.AppendText(nil, ""))
}

func (e Error) TlogAppend(b []byte) []byte {
	var enc tlwire.Encoder

	b = enc.AppendMap(b, 3)
	b = enc.AppendKeyInt(b, "line", e.LineStart)
	b = enc.AppendKeyInt(b, "col", e.ColumnStart)
	b = enc.AppendString(b, "msg")
	b = enc.AppendString(b, e.Msg)

	return b
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}

	return fmt.Sprintf("%v (and %d more errors)", l[0].Error(), len(l)-1)
}
