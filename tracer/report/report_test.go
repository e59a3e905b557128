package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuuki0xff/bbtrace/tracer/manifest"
)

var fooRecords = []manifest.Record{
	{Name: "foo.c:f", BlockID: 0},
	{Name: "foo.c:g", BlockID: 1},
	{Name: "foo.c:main", BlockID: 2},
	{Name: "foo.c:main", BlockID: 3},
	{Name: "foo.c:main", BlockID: 4},
	{Name: "foo.c:main", BlockID: 5},
}

func counts(rep *Report) []uint64 {
	var c []uint64
	for _, e := range rep.Entries {
		c = append(c, e.Count)
	}
	return c
}

func TestBuild_histogram(t *testing.T) {
	a := assert.New(t)
	rep, err := Build(fooRecords, strings.NewReader("0=1\n1=1\n2=1\n3=3\n4=1\n5=1\n"), Options{})
	require.NoError(t, err)
	a.Equal([]uint64{1, 1, 1, 3, 1, 1}, counts(rep))
	a.Equal(6, rep.Covered())
	a.Equal(uint64(8), rep.Events)
	a.Empty(rep.Unknown)
}

func TestBuild_stream(t *testing.T) {
	a := assert.New(t)
	rep, err := Build(fooRecords, strings.NewReader("2\n0\n1\n3\n3\n3\n"), Options{Format: FormatStream})
	require.NoError(t, err)
	a.Equal([]uint64{1, 1, 1, 3, 0, 0}, counts(rep))
	a.Equal(4, rep.Covered())
}

func TestBuild_messages(t *testing.T) {
	a := assert.New(t)
	trace := "foo.c:main:2\nfoo.c:main:3=2\nfoo.c:main:99\n"
	rep, err := Build(fooRecords, strings.NewReader(trace), Options{})
	require.NoError(t, err)
	a.Equal([]uint64{0, 0, 1, 2, 0, 0}, counts(rep))
	a.Equal(map[string]uint64{"foo.c:main:99": 1}, rep.Unknown)
}

func TestBuild_offsets(t *testing.T) {
	a := assert.New(t)
	trace := "bb:foo.c:f:0=1\nbb:foo.c:main:1=3\nbb:foo.c:main:4=1\nfoo.c:g:0=1\n"
	rep, err := Build(fooRecords, strings.NewReader(trace), Options{Offsets: true, Prefix: "bb:"})
	require.NoError(t, err)
	a.Equal([]uint64{1, 0, 0, 3, 0, 0}, counts(rep))
	a.Equal(map[string]uint64{"bb:foo.c:main:4": 1, "foo.c:g:0": 1}, rep.Unknown)
}

func TestBuild_offsetsAfterResume(t *testing.T) {
	a := assert.New(t)
	// the second run instrumented f and main again.
	records := append(append([]manifest.Record{}, fooRecords...),
		manifest.Record{Name: "foo.c:f", BlockID: 6},
		manifest.Record{Name: "foo.c:main", BlockID: 7},
		manifest.Record{Name: "foo.c:main", BlockID: 8},
		manifest.Record{Name: "foo.c:main", BlockID: 9},
		manifest.Record{Name: "foo.c:main", BlockID: 10},
	)
	trace := "foo.c:f:0=1\nfoo.c:main:0=1\nfoo.c:main:3=2\n"

	rep, err := Build(records, strings.NewReader(trace), Options{Offsets: true, FirstID: -1})
	require.NoError(t, err)
	a.Equal([]uint64{0, 0, 0, 0, 0, 0, 1, 1, 0, 0, 2}, counts(rep))

	rep, err = Build(records, strings.NewReader(trace), Options{Offsets: true, FirstID: 0})
	require.NoError(t, err)
	a.Equal([]uint64{1, 0, 1, 0, 0, 2, 0, 0, 0, 0, 0}, counts(rep))
}

func TestBuild_offsetsAdjacentRuns(t *testing.T) {
	a := assert.New(t)
	// main was the last function of the first run and the only one of the
	// second, so its IDs 2-5 and 6-9 are adjacent.
	records := append(append([]manifest.Record{}, fooRecords...),
		manifest.Record{Name: "foo.c:main", BlockID: 6},
		manifest.Record{Name: "foo.c:main", BlockID: 7},
		manifest.Record{Name: "foo.c:main", BlockID: 8},
		manifest.Record{Name: "foo.c:main", BlockID: 9},
	)
	trace := "foo.c:main:0=1\nfoo.c:main:3=2\n"

	rep, err := Build(records, strings.NewReader(trace), Options{Offsets: true, FirstID: 6})
	require.NoError(t, err)
	a.Equal([]uint64{0, 0, 0, 0, 0, 0, 1, 0, 0, 2}, counts(rep))

	rep, err = Build(records, strings.NewReader(trace), Options{Offsets: true, FirstID: 2})
	require.NoError(t, err)
	a.Equal([]uint64{0, 0, 1, 0, 0, 2, 0, 0, 0, 0}, counts(rep))

	rep, err = Build(records, strings.NewReader("foo.c:main:0=1\n"), Options{Offsets: true, FirstID: 10})
	require.NoError(t, err)
	a.Equal(map[string]uint64{"foo.c:main:0": 1}, rep.Unknown)
}

func TestBuild_malformedHistogram(t *testing.T) {
	_, err := Build(fooRecords, strings.NewReader("0=1\n1=x\n"), Options{Format: FormatHistogram})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRender(t *testing.T) {
	a := assert.New(t)
	rep, err := Build(fooRecords, strings.NewReader("3=3\n"), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.Render(&buf, false))
	out := buf.String()
	a.Contains(out, "foo.c:main")
	a.Contains(out, "covered 1/6 blocks (16.7%), 3 events")

	buf.Reset()
	require.NoError(t, rep.Render(&buf, true))
	a.Equal(5, strings.Count(buf.String(), "foo.c:"))
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatAuto, FormatStream, FormatHistogram} {
		parsed, err := ParseFormat(f.String())
		assert.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}
