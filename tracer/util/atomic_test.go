package util

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicFile_commit(t *testing.T) {
	WithTempDir(func() {
		a := assert.New(t)
		require.NoError(t, ioutil.WriteFile("out.ll", []byte("old"), 0600))

		f, err := CreateAtomic("out.ll")
		require.NoError(t, err)
		_, err = f.WriteString("new")
		require.NoError(t, err)

		// the destination is untouched until commit.
		data, _ := ioutil.ReadFile("out.ll")
		a.Equal("old", string(data))

		a.NoError(f.Commit())
		data, _ = ioutil.ReadFile("out.ll")
		a.Equal("new", string(data))

		finfo, err := os.Stat("out.ll")
		require.NoError(t, err)
		a.Equal(os.FileMode(0600), finfo.Mode().Perm())
		a.Error(f.Commit())
	})
}

func TestAtomicFile_abort(t *testing.T) {
	WithTempDir(func() {
		a := assert.New(t)
		f, err := CreateAtomic("out.ll")
		require.NoError(t, err)
		_, err = f.WriteString("partial")
		require.NoError(t, err)
		a.NoError(f.Abort())

		_, err = os.Stat("out.ll")
		a.True(os.IsNotExist(err))
		files, err := ioutil.ReadDir(".")
		require.NoError(t, err)
		a.Empty(files)
	})
}

func TestCreateAtomic_badDir(t *testing.T) {
	_, err := CreateAtomic("/no/such/dir/out.ll")
	assert.Error(t, err)
}
