package instrument

import (
	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/tracer/manifest"
)

type fakeModule struct {
	name      string
	funcs     []*fakeFunc
	verifyErr error
	verified  bool
}

func (m *fakeModule) Name() string { return m.name }
func (m *fakeModule) Funcs() []Func {
	funcs := make([]Func, len(m.funcs))
	for i, f := range m.funcs {
		funcs[i] = f
	}
	return funcs
}
func (m *fakeModule) Verify() error {
	m.verified = true
	return m.verifyErr
}

type fakeFunc struct {
	name   string
	blocks []*fakeBlock
	decl   bool
}

func (f *fakeFunc) Name() string        { return f.name }
func (f *fakeFunc) IsDeclaration() bool { return f.decl }
func (f *fakeFunc) Blocks() []Block {
	blocks := make([]Block, len(f.blocks))
	for i, b := range f.blocks {
		blocks[i] = b
	}
	return blocks
}

type fakeBlock struct {
	calls       []Call
	unplaceable bool
}

func (b *fakeBlock) HasInsertionPoint() bool { return !b.unplaceable }
func (b *fakeBlock) InsertCall(call Call) error {
	if b.unplaceable {
		return ErrNoInsertionPoint
	}
	b.calls = append(b.calls, call)
	return nil
}

func defined(name string, nblocks int) *fakeFunc {
	f := &fakeFunc{name: name}
	for i := 0; i < nblocks; i++ {
		f.blocks = append(f.blocks, &fakeBlock{})
	}
	return f
}

func declared(name string) *fakeFunc {
	return &fakeFunc{name: name, decl: true}
}

// fooModule mirrors a program with two single-block helpers and a main
// function made of an entry block, a loop body and two exit blocks.
func fooModule() *fakeModule {
	return &fakeModule{
		name: "foo.c",
		funcs: []*fakeFunc{
			defined("f", 1),
			defined("g", 1),
			defined("main", 4),
			declared("printf"),
		},
	}
}

type memManifest struct {
	records []manifest.Record
	err     error
}

func (m *memManifest) Append(rec manifest.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

var errDiskFull = errors.New("disk full")

type setFilter map[string]bool

func (s setFilter) Includes(name string) bool { return s[name] }
