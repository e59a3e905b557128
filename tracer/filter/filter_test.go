package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuuki0xff/bbtrace/tracer/types"
	"github.com/yuuki0xff/bbtrace/tracer/util"
)

func TestParse(t *testing.T) {
	a := assert.New(t)
	flt, err := Parse(strings.NewReader(`
# functions to trace
foo.c:main
  foo.c:f  

`))
	require.NoError(t, err)
	a.True(flt.Enabled())
	a.Equal(2, flt.Len())
	a.True(flt.Includes("foo.c:main"))
	a.True(flt.Includes("foo.c:f"))
	a.False(flt.Includes("foo.c:g"))
	a.False(flt.Includes("# functions to trace"))
}

func TestLoad_emptyPath(t *testing.T) {
	a := assert.New(t)
	flt, err := Load("", types.MissingFail, nil)
	require.NoError(t, err)
	a.False(flt.Enabled())
	a.True(flt.Includes("anything:at-all"))
}

func TestLoad_nilFilter(t *testing.T) {
	var flt *Filter
	assert.True(t, flt.Includes("foo.c:main"))
	assert.Equal(t, 0, flt.Len())
}

func TestLoad_file(t *testing.T) {
	util.WithTempFile(func(tmpfile string) {
		require.NoError(t, os.WriteFile(tmpfile, []byte("foo.c:main\n"), 0644))
		flt, err := Load(tmpfile, types.MissingFail, nil)
		require.NoError(t, err)
		assert.True(t, flt.Includes("foo.c:main"))
		assert.False(t, flt.Includes("foo.c:f"))
	})
}

func TestLoad_missingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-file")

	_, err := Load(missing, types.MissingFail, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), missing)

	flt, err := Load(missing, types.MissingIgnore, nil)
	require.NoError(t, err)
	assert.False(t, flt.Enabled())
}

func TestLoad_unreadable(t *testing.T) {
	// a directory can be opened but not scanned
	_, err := Load(t.TempDir(), types.MissingIgnore, nil)
	assert.Error(t, err)
}
