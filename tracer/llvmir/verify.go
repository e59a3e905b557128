package llvmir

import (
	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/pkg/errors"
)

// Verify checks the structural invariants instrumentation could break and
// makes sure the printed module parses again.
func (m *Module) Verify() error {
	for _, f := range m.m.Funcs {
		for _, b := range f.Blocks {
			if err := m.verifyBlock(b); err != nil {
				return errors.Wrapf(err, "%s: block %s", f.Ident(), b.Ident())
			}
		}
	}

	if _, err := asm.ParseString(m.name, m.m.String()); err != nil {
		return errors.Wrap(err, "instrumented module does not parse")
	}
	return nil
}

func (m *Module) verifyBlock(b *ir.Block) error {
	if b.Term == nil {
		return errors.New("missing terminator")
	}

	leading := true
	for i, inst := range b.Insts {
		switch inst := inst.(type) {
		case *ir.InstPhi:
			if !leading {
				return errors.Errorf("PHI node at index %d follows a non-PHI instruction", i)
			}
			continue
		case *ir.InstLandingPad, *ir.InstCatchPad, *ir.InstCleanupPad:
			if !leading {
				return errors.Errorf("exception-handling pad at index %d is not first", i)
			}
		case *ir.InstCall:
			if err := m.verifyHookCall(inst); err != nil {
				return err
			}
		}
		leading = false
	}
	return nil
}

func (m *Module) verifyHookCall(call *ir.InstCall) error {
	callee, ok := call.Callee.(*ir.Func)
	if !ok || m.hooks[callee.Name()] != callee {
		return nil
	}
	if len(call.Args) != len(callee.Params) {
		return errors.Errorf("call to %s has %d arguments, want %d", callee.Ident(), len(call.Args), len(callee.Params))
	}
	for i, arg := range call.Args {
		if !arg.Type().Equal(callee.Params[i].Type()) {
			return errors.Errorf("argument %d of call to %s has type %s, want %s", i, callee.Ident(), arg.Type(), callee.Params[i].Type())
		}
	}
	return nil
}
