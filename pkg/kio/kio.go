// Package kio implements the stream formats shared by kernel primitives.
//
// A stream carries a Mode. ASCII writes whitespace-separated number tokens,
// Binary writes msgp-encoded numbers with no separators, and Pretty writes a
// human-readable form that cannot be read back. Writers and Readers keep a
// sticky error: once an operation fails every later operation is a no-op and
// Err reports the first failure.
package kio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/tinylib/msgp/msgp"
)

// Mode selects the stream grammar.
type Mode int

const (
	Pretty Mode = iota // human-readable, write-only (default)
	ASCII              // whitespace-separated tokens
	Binary             // concatenated msgp values
)

func (m Mode) String() string {
	switch m {
	case Pretty:
		return "pretty"
	case ASCII:
		return "ascii"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name ("ascii", "binary", "pretty") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "pretty", "":
		return Pretty, nil
	case "ascii":
		return ASCII, nil
	case "binary":
		return Binary, nil
	}
	return Pretty, fmt.Errorf("kio: unknown mode %q, expected ascii, binary, or pretty", s)
}

// ErrModeNotReadable is reported when reading a stream in Pretty mode.
var ErrModeNotReadable = errors.New("kio: pretty mode is write-only")

// Writer writes primitives to an io.Writer in one Mode.
type Writer struct {
	w    io.Writer
	mode Mode
	err  error
}

// NewWriter returns a Writer in the given mode.
func NewWriter(w io.Writer, mode Mode) *Writer {
	return &Writer{w: w, mode: mode}
}

// Mode returns the stream mode.
func (w *Writer) Mode() Mode { return w.mode }

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

// WriteString writes s unless the writer has already failed.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

// WriteBytes writes b unless the writer has already failed.
func (w *Writer) WriteBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Reader reads primitives from an io.Reader in one Mode.
type Reader struct {
	mode Mode
	br   *bufio.Reader
	mr   *msgp.Reader
	err  error
}

// NewReader returns a Reader in the given mode.
func NewReader(r io.Reader, mode Mode) *Reader {
	rd := &Reader{mode: mode}
	switch mode {
	case Binary:
		rd.mr = msgp.NewReader(r)
	case ASCII:
		rd.br = bufio.NewReader(r)
	default:
		rd.err = ErrModeNotReadable
	}
	return rd
}

// Mode returns the stream mode.
func (r *Reader) Mode() Mode { return r.mode }

// Err returns the first read error, if any. io.EOF means the stream ended
// before a value started.
func (r *Reader) Err() error { return r.err }

// OK reports whether no read has failed yet.
func (r *Reader) OK() bool { return r.err == nil }

// Fail puts the reader into the failed state. Only the first failure is
// kept.
func (r *Reader) Fail(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// Token returns the next whitespace-delimited token of an ASCII stream.
func (r *Reader) Token() (string, bool) {
	if r.err != nil {
		return "", false
	}
	if r.br == nil {
		r.Fail(fmt.Errorf("kio: token read in %s mode", r.mode))
		return "", false
	}

	var sb strings.Builder
	for {
		c, _, err := r.br.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				return sb.String(), true
			}
			r.Fail(err)
			return "", false
		}
		if unicode.IsSpace(c) {
			if sb.Len() > 0 {
				return sb.String(), true
			}
			continue
		}
		sb.WriteRune(c)
	}
}

// Msgp returns the underlying msgp reader of a Binary stream, or nil.
func (r *Reader) Msgp() *msgp.Reader {
	return r.mr
}
