package util

import (
	"io/ioutil"
	"os"
)

// WithTempFile create a temporary file and calls fn with file path.
func WithTempFile(fn func(tmpfile string)) {
	file, err := ioutil.TempFile("", ".bbtrace.test")
	if err != nil {
		panic(err)
	}
	file.Close() // nolint: errcheck
	defer func() {
		err = os.Remove(file.Name())
		if err != nil && !os.IsNotExist(err) {
			panic(err)
		}
	}()

	fn(file.Name())
}

// WithTempDir create a temporary directory and chdir into it.
func WithTempDir(fn func()) {
	dir, err := ioutil.TempDir("", ".bbtrace.test")
	if err != nil {
		panic(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	defer func() {
		err = os.Chdir(wd)
		if err != nil {
			panic(err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			panic(err)
		}
	}()

	err = os.Chdir(dir)
	if err != nil {
		panic(err)
	}

	fn()
}
