package kio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/chazu/ruled/pkg/kernel"
	"github.com/chazu/ruled/pkg/kernel/exact"
	"github.com/chazu/ruled/pkg/kernel/sdfx"
	"github.com/stretchr/testify/require"
)

func TestModeString(t *testing.T) {
	require.Equal(t, "pretty", Pretty.String())
	require.Equal(t, "ascii", ASCII.String())
	require.Equal(t, "binary", Binary.String())
	require.Equal(t, "Mode(9)", Mode(9).String())
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"ascii", ASCII, false},
		{"ASCII", ASCII, false},
		{"binary", Binary, false},
		{"pretty", Pretty, false},
		{"", Pretty, false},
		{"xml", Pretty, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPoint(t *testing.T) {
	c := exact.New().Codec()
	p := kernel.NewPoint(exact.R(1, 2), exact.R(-3, 1), exact.R(0, 1))

	require.Equal(t, "1/2 -3 0", FormatPoint(c, p, ASCII))
	require.Equal(t, "Point(1/2, -3, 0)", FormatPoint(c, p, Pretty))

	fc := sdfx.New().Codec()
	require.Equal(t, "0.5 -3 0", FormatPoint(fc, kernel.NewPoint(0.5, -3.0, 0.0), ASCII))
}

func TestPointRoundTripASCII(t *testing.T) {
	c := exact.New().Codec()
	p := kernel.NewPoint(exact.R(1, 3), exact.R(-22, 7), exact.R(5, 1))

	var buf bytes.Buffer
	w := NewWriter(&buf, ASCII)
	WritePoint(w, c, p)
	require.NoError(t, w.Err())
	require.Equal(t, "1/3 -22/7 5", buf.String())

	r := NewReader(&buf, ASCII)
	got, ok := ReadPoint(r, c)
	require.True(t, ok)
	require.NoError(t, r.Err())
	require.True(t, exact.New().EqualPoints(p, got))
}

func TestPointRoundTripBinary(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		k := exact.New()
		p := kernel.NewPoint(exact.R(1, 3), exact.R(-22, 7), exact.R(5, 1))

		var buf bytes.Buffer
		w := NewWriter(&buf, Binary)
		WritePoint(w, k.Codec(), p)
		WritePoint(w, k.Codec(), p)
		require.NoError(t, w.Err())

		r := NewReader(&buf, Binary)
		for i := 0; i < 2; i++ {
			got, ok := ReadPoint(r, k.Codec())
			require.True(t, ok)
			require.True(t, k.EqualPoints(p, got))
		}
	})

	t.Run("float", func(t *testing.T) {
		k := sdfx.New()
		p := kernel.NewPoint(0.1, -1e-300, 12345.678)

		var buf bytes.Buffer
		w := NewWriter(&buf, Binary)
		WritePoint(w, k.Codec(), p)
		require.NoError(t, w.Err())

		got, ok := ReadPoint(NewReader(&buf, Binary), k.Codec())
		require.True(t, ok)
		require.Equal(t, p, got, "binary floats must round-trip bit for bit")
	})
}

func TestReadPointFailures(t *testing.T) {
	c := exact.New().Codec()

	t.Run("empty stream", func(t *testing.T) {
		r := NewReader(strings.NewReader(""), ASCII)
		_, ok := ReadPoint(r, c)
		require.False(t, ok)
		require.ErrorIs(t, r.Err(), io.EOF)
	})

	t.Run("truncated", func(t *testing.T) {
		r := NewReader(strings.NewReader("1 2"), ASCII)
		_, ok := ReadPoint(r, c)
		require.False(t, ok)
		require.Error(t, r.Err())
	})

	t.Run("bad token", func(t *testing.T) {
		r := NewReader(strings.NewReader("1 two 3"), ASCII)
		_, ok := ReadPoint(r, c)
		require.False(t, ok)
		require.ErrorContains(t, r.Err(), "read number")
	})

	t.Run("failure is sticky", func(t *testing.T) {
		r := NewReader(strings.NewReader("x 1 2 3"), ASCII)
		_, ok := ReadPoint(r, c)
		require.False(t, ok)
		first := r.Err()

		_, ok = ReadPoint(r, c)
		require.False(t, ok, "a failed reader must not recover")
		require.Equal(t, first, r.Err())
	})

	t.Run("pretty is write-only", func(t *testing.T) {
		r := NewReader(strings.NewReader("Point(1, 2, 3)"), Pretty)
		require.False(t, r.OK())
		_, ok := ReadPoint(r, c)
		require.False(t, ok)
		require.ErrorIs(t, r.Err(), ErrModeNotReadable)
	})

	t.Run("binary type mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		WritePoint(NewWriter(&buf, Binary), sdfx.New().Codec(), kernel.NewPoint(1.0, 2.0, 3.0))
		r := NewReader(&buf, Binary)
		_, ok := ReadPoint(r, c)
		require.False(t, ok)
		require.Error(t, r.Err())
	})
}

func TestTokenWhitespace(t *testing.T) {
	r := NewReader(strings.NewReader("  1\t2\n\n 3  "), ASCII)
	var toks []string
	for {
		tok, ok := r.Token()
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	require.Equal(t, []string{"1", "2", "3"}, toks)
	require.ErrorIs(t, r.Err(), io.EOF)
}

func TestTokenInBinaryMode(t *testing.T) {
	r := NewReader(strings.NewReader("1 2 3"), Binary)
	_, ok := r.Token()
	require.False(t, ok)
	require.Error(t, r.Err())
}

type failingWriter struct{ n int }

var errDiskFull = errors.New("disk full")

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.n == 0 {
		return 0, errDiskFull
	}
	f.n--
	return len(p), nil
}

func TestWriterErrorIsSticky(t *testing.T) {
	fw := &failingWriter{n: 1}
	w := NewWriter(fw, ASCII)
	w.WriteString("ok")
	require.NoError(t, w.Err())

	w.WriteString("fails")
	require.ErrorIs(t, w.Err(), errDiskFull)

	fw.n = 10
	w.WriteBytes([]byte("ignored"))
	require.ErrorIs(t, w.Err(), errDiskFull)
	require.Equal(t, 10, fw.n, "writes after a failure must not reach the sink")
}

func TestReaderFailKeepsFirst(t *testing.T) {
	r := NewReader(strings.NewReader(""), ASCII)
	first := errors.New("first")
	r.Fail(first)
	r.Fail(errors.New("second"))
	r.Fail(nil)
	require.Equal(t, first, r.Err())
	require.Equal(t, ASCII, r.Mode())
}
