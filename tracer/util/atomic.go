package util

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicFile is a file that replaces its destination only on Commit.
// Until then the content lives in a temporary file next to the destination.
type AtomicFile struct {
	*os.File
	dest string
	done bool
}

// CreateAtomic creates a temporary file in the directory of fname.
// An existing destination keeps its permission bits.
func CreateAtomic(fname string) (*AtomicFile, error) {
	mode := os.FileMode(0644)
	if finfo, err := os.Stat(fname); err == nil {
		mode = finfo.Mode()
	}

	w, err := ioutil.TempFile(filepath.Dir(fname), "."+filepath.Base(fname)+".tmp.")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create output file for %s", fname)
	}
	if err = w.Chmod(mode); err != nil {
		w.Close()           // nolint: errcheck
		os.Remove(w.Name()) // nolint: errcheck
		return nil, err
	}
	return &AtomicFile{File: w, dest: fname}, nil
}

// Commit atomically replaces the destination with the written content.
func (f *AtomicFile) Commit() error {
	if f.done {
		return errors.New("already committed or aborted")
	}
	f.done = true
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name()) // nolint: errcheck
		return err
	}
	if err := os.Rename(f.Name(), f.dest); err != nil {
		os.Remove(f.Name()) // nolint: errcheck
		return err
	}
	return nil
}

// Abort removes the temporary file. The destination is not changed.
// Abort after Commit does nothing.
func (f *AtomicFile) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	f.File.Close() // nolint: errcheck
	return os.Remove(f.Name())
}
