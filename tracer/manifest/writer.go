package manifest

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/info"
	"github.com/yuuki0xff/bbtrace/tracer/types"
)

// Writer appends records to a manifest. Every record is written as soon as
// it is appended.
type Writer struct {
	w      io.Writer
	closer io.Closer
	n      int
}

// NewWriter returns a Writer that writes to w and never closes it.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Open opens the manifest at path for appending and returns the number of
// records it already holds, which seeds the block IDs of this run.
//
// If path is "-", records are written to diag and the seed is 0.
// A missing file is created, unless policy is types.MissingFail.
func Open(path string, policy types.MissingPolicy, diag io.Writer) (w *Writer, seed uint32, err error) {
	if path == "" || path == info.Stdio {
		return NewWriter(diag), 0, nil
	}

	seed, exists, err := CountFile(path)
	if err != nil {
		return nil, 0, err
	}
	if !exists && policy == types.MissingFail {
		return nil, 0, errors.Errorf("manifest %s does not exist", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	if err := terminateLastLine(f); err != nil {
		f.Close() // nolint: errcheck
		return nil, 0, errors.Wrapf(err, "failed to repair manifest %s", path)
	}
	return &Writer{w: f, closer: f}, seed, nil
}

// terminateLastLine appends a newline if f does not end with one, so the
// next record starts on its own line.
func terminateLastLine(f *os.File) error {
	finfo, err := f.Stat()
	if err != nil {
		return err
	}
	if finfo.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, finfo.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte{'\n'})
	return err
}

func (w *Writer) Append(rec Record) error {
	if w.w == nil {
		return errors.New("manifest writer is closed")
	}
	buf := make([]byte, 0, len(rec.Name)+12)
	buf = append(buf, rec.String()...)
	buf = append(buf, '\n')
	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	w.n++
	return nil
}

// Len returns the number of records appended through w.
func (w *Writer) Len() int {
	return w.n
}

func (w *Writer) Close() error {
	w.w = nil
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}
