// Copyright © 2017 yuuki0xff <yuuki0xff@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yuuki0xff/bbtrace/config"
	"github.com/yuuki0xff/bbtrace/info"
	"github.com/yuuki0xff/bbtrace/tracer/filter"
	"github.com/yuuki0xff/bbtrace/tracer/instrument"
	"github.com/yuuki0xff/bbtrace/tracer/llvmir"
	"github.com/yuuki0xff/bbtrace/tracer/manifest"
	"github.com/yuuki0xff/bbtrace/tracer/types"
	"github.com/yuuki0xff/bbtrace/tracer/util"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// instrumentCmd represents the instrument command
var instrumentCmd = &cobra.Command{
	Use:                   "instrument [flags] <input|->",
	DisableFlagsInUseLine: true,
	Short:                 "insert a trace call into every basic block of an LLVM module",
	Long: `"bbtrace instrument" reads an LLVM module (text or bitcode), inserts a call
to the trace runtime at the top of every basic block, and writes the module.
Every instrumented block gets a unique ID that is appended to the manifest (-b).
Running again with the same manifest continues numbering where the last run stopped.

Flags can also be set by BBTRACE_<FLAG> environment variables or a config file.`,
	RunE: wrap(runInstrument),
}

func init() {
	RootCmd.AddCommand(instrumentCmd)
	cmdDefaults[instrumentCmd] = config.SetDefaults

	f := instrumentCmd.Flags()
	f.StringP(config.KeyOutput, "o", info.Stdio, "output file, or - for stdout")
	f.StringP(config.KeyManifest, "b", info.Stdio, "manifest file to append block IDs to, or - for stderr")
	f.StringP(config.KeyInclude, "i", "", "instrument only the functions listed in this file")
	f.StringP(config.KeyModule, "m", "", "module ID used in qualified names (default is the input path)")
	f.BoolP(config.KeyNumeric, "n", false, "name functions by their index instead of their name")
	f.StringP(config.KeyPrefix, "p", "", "prefix of the message passed to the message hook")
	f.BoolP(config.KeyForce, "f", false, "write bitcode even if stdout is a terminal")
	f.BoolP(config.KeyTextual, "S", false, "write textual IR instead of bitcode")
	f.String(config.KeyPayload, instrument.PayloadID.String(), "payload of trace calls: id, message or offset")
	f.String(config.KeyHook, info.DefaultTraceHook, "name of the hook for the id payload")
	f.String(config.KeyMessageHook, info.DefaultTraceMessageHook, "name of the hook for the message and offset payloads")
	f.String(config.KeyMissingInclude, types.MissingFail.String(), "what to do if the inclusion list does not exist: fail or ignore")
	f.String(config.KeyMissingManifest, types.MissingCreate.String(), "what to do if the manifest does not exist: create or fail")
	f.String(config.KeyLLVMAs, info.DefaultLLVMAs, "assembler used to write bitcode")
	f.String(config.KeyLLVMDis, info.DefaultLLVMDis, "disassembler used to read bitcode")
}

func runInstrument(opt *handlerOpt) error {
	if len(opt.Args) > 1 {
		opt.Logger.Error("too many input files", zap.Strings("args", opt.Args))
		return errInvalidArgs
	}
	var input string
	if len(opt.Args) == 1 {
		input = opt.Args[0]
	}

	conf, err := config.NewConfig(opt.Viper, input)
	if err != nil {
		opt.Logger.Error("invalid argument", zap.Error(err))
		return errInvalidArgs
	}
	return instrumentModule(opt, conf)
}

func instrumentModule(opt *handlerOpt, conf *config.Config) (err error) {
	log := opt.Logger
	if conf.Output == info.Stdio && !conf.Textual && !conf.Force && isTerminal(opt.Stdout) {
		log.Error("refusing to write bitcode to a terminal; use -f to force or -S for textual output")
		return errGeneral
	}

	m, err := llvmir.Load(conf.Input, opt.Stdin, conf.Tools)
	if err != nil {
		return err
	}
	flt, err := filter.Load(conf.Include, conf.MissingInclude, log)
	if err != nil {
		return err
	}
	mw, seed, err := manifest.Open(conf.Manifest, conf.MissingManifest, opt.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mw.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed to close manifest %s", conf.Manifest)
		}
	}()

	inj := &instrument.Injector{
		Filter:   flt,
		Alloc:    instrument.NewAllocator(seed),
		Manifest: mw,
		Options:  conf.Options,
		Logger:   log,
	}
	stats, err := inj.Run(m)
	if err != nil {
		return err
	}
	if err = writeModule(opt.Stdout, conf, m); err != nil {
		return err
	}

	log.Info("instrumented",
		zap.String("module", m.Name()),
		zap.Int("funcs", stats.Funcs),
		zap.Int("skipped", stats.Skipped),
		zap.Int("blocks", stats.Blocks),
		zap.Int("unplaceable", stats.Unplaceable),
		zap.Uint32("first_id", stats.FirstID),
		zap.Uint32("next_id", stats.NextID))
	return nil
}

// writeModule writes m to stdout or replaces the output file. A failed
// write leaves an existing output file untouched.
func writeModule(stdout io.Writer, conf *config.Config, m *llvmir.Module) error {
	if conf.Output == info.Stdio {
		return llvmir.Encode(stdout, m, conf.Textual, conf.Tools)
	}

	f, err := util.CreateAtomic(conf.Output)
	if err != nil {
		return err
	}
	if err := llvmir.Encode(f, m, conf.Textual, conf.Tools); err != nil {
		f.Abort() // nolint: errcheck
		return errors.Wrapf(err, "failed to write %s", conf.Output)
	}
	return errors.Wrapf(f.Commit(), "failed to write %s", conf.Output)
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
