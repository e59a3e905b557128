// Package llvmir binds the instrument.Module interface to LLVM IR modules
// parsed by github.com/llir/llvm.
package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/tracer/instrument"
)

const messageGlobalPrefix = "__bbtrace_fn."

// Module wraps an LLVM IR module. Hook declarations and message strings
// are added to the module on first use.
type Module struct {
	m    *ir.Module
	name string

	hooks map[string]*ir.Func
	msgs  map[string]constant.Constant
	// names of all globals and functions, built on first use.
	symbols map[string]bool
	nextMsg int
}

func NewModule(m *ir.Module, name string) *Module {
	return &Module{
		m:     m,
		name:  name,
		hooks: make(map[string]*ir.Func),
		msgs:  make(map[string]constant.Constant),
	}
}

// IR returns the underlying module.
func (m *Module) IR() *ir.Module {
	return m.m
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Funcs() []instrument.Func {
	funcs := make([]instrument.Func, 0, len(m.m.Funcs))
	for _, f := range m.m.Funcs {
		funcs = append(funcs, &function{mod: m, f: f})
	}
	return funcs
}

func (m *Module) String() string {
	return m.m.String()
}

type function struct {
	mod *Module
	f   *ir.Func
}

func (f *function) Name() string {
	return f.f.Name()
}

func (f *function) IsDeclaration() bool {
	return len(f.f.Blocks) == 0
}

func (f *function) Blocks() []instrument.Block {
	blocks := make([]instrument.Block, 0, len(f.f.Blocks))
	for _, b := range f.f.Blocks {
		blocks = append(blocks, &block{mod: f.mod, b: b})
	}
	return blocks
}

type block struct {
	mod *Module
	b   *ir.Block
}

func (b *block) HasInsertionPoint() bool {
	return FirstInsertionPoint(b.b) >= 0
}

func (b *block) InsertCall(call instrument.Call) error {
	pos := FirstInsertionPoint(b.b)
	if pos < 0 {
		return errors.Wrapf(instrument.ErrNoInsertionPoint, "block %s", b.b.Ident())
	}
	hook, err := b.mod.hook(call.Hook, call.Shape)
	if err != nil {
		return err
	}

	var args []value.Value
	if call.Shape.HasMessage() {
		args = append(args, b.mod.message(call.Message))
	}
	args = append(args, constant.NewInt(types.I32, int64(call.Arg)))

	inst := ir.NewCall(hook, args...)
	b.b.Insts = append(b.b.Insts, nil)
	copy(b.b.Insts[pos+1:], b.b.Insts[pos:])
	b.b.Insts[pos] = inst
	return nil
}

// FirstInsertionPoint returns the index in b.Insts before which a call may
// be inserted: after all PHI nodes and a leading exception-handling pad.
// It returns -1 if the block cannot hold a call.
func FirstInsertionPoint(b *ir.Block) int {
	i := 0
	for i < len(b.Insts) {
		if _, ok := b.Insts[i].(*ir.InstPhi); !ok {
			break
		}
		i++
	}
	if i < len(b.Insts) {
		switch b.Insts[i].(type) {
		case *ir.InstLandingPad, *ir.InstCatchPad, *ir.InstCleanupPad:
			i++
		}
	}
	if i == len(b.Insts) {
		// catchswitch must be the only non-PHI instruction of its block.
		if _, ok := b.Term.(*ir.TermCatchSwitch); ok {
			return -1
		}
	}
	return i
}

func hookParams(shape instrument.PayloadShape) []*ir.Param {
	id := ir.NewParam("id", types.I32)
	if shape.HasMessage() {
		return []*ir.Param{ir.NewParam("msg", types.I8Ptr), id}
	}
	return []*ir.Param{id}
}

// hook returns the declaration of the named hook, adding it if necessary.
func (m *Module) hook(name string, shape instrument.PayloadShape) (*ir.Func, error) {
	if f, ok := m.hooks[name]; ok {
		if len(f.Sig.Params) != len(hookParams(shape)) {
			return nil, errors.Errorf("hook %s is used with different payloads", name)
		}
		return f, nil
	}

	params := hookParams(shape)
	for _, f := range m.m.Funcs {
		if f.Name() != name {
			continue
		}
		if !sameSignature(f.Sig, params) {
			return nil, errors.Errorf("hook %s already exists with signature %s", name, f.Sig)
		}
		m.hooks[name] = f
		return f, nil
	}

	if m.hasSymbol(name) {
		return nil, errors.Errorf("hook %s conflicts with a global variable", name)
	}
	f := m.m.NewFunc(name, types.Void, params...)
	m.symbols[name] = true
	m.hooks[name] = f
	return f, nil
}

func sameSignature(sig *types.FuncType, params []*ir.Param) bool {
	if sig.Variadic || !sig.RetType.Equal(types.Void) || len(sig.Params) != len(params) {
		return false
	}
	for i, p := range params {
		if !sig.Params[i].Equal(p.Type()) {
			return false
		}
	}
	return true
}

// message returns a pointer to a private null-terminated copy of s.
// Each distinct string is emitted once.
func (m *Module) message(s string) constant.Constant {
	if c, ok := m.msgs[s]; ok {
		return c
	}

	data := constant.NewCharArrayFromString(s + "\x00")
	g := m.m.NewGlobalDef(m.newMessageName(), data)
	g.Immutable = true
	g.Linkage = enum.LinkagePrivate

	zero := constant.NewInt(types.I32, 0)
	gep := constant.NewGetElementPtr(data.Typ, g, zero, zero)
	gep.InBounds = true
	m.msgs[s] = gep
	return gep
}

func (m *Module) newMessageName() string {
	for {
		name := fmt.Sprintf("%s%d", messageGlobalPrefix, m.nextMsg)
		m.nextMsg++
		if !m.hasSymbol(name) {
			m.symbols[name] = true
			return name
		}
	}
}

func (m *Module) hasSymbol(name string) bool {
	if m.symbols == nil {
		m.symbols = make(map[string]bool, len(m.m.Globals)+len(m.m.Funcs))
		for _, g := range m.m.Globals {
			m.symbols[g.Name()] = true
		}
		for _, f := range m.m.Funcs {
			m.symbols[f.Name()] = true
		}
	}
	return m.symbols[name]
}
