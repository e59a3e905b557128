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
	"github.com/yuuki0xff/bbtrace/tracer/manifest"
	"github.com/yuuki0xff/bbtrace/tracer/report"
	"go.uber.org/zap"
)

const (
	keyReportFormat = "input-format"
	keyOffsets      = "offsets"
	keyUncovered    = "uncovered"
	keyFirstID      = "first-id"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:                   "report -b <manifest> [flags] <trace-output|->",
	DisableFlagsInUseLine: true,
	Short:                 "show how often each instrumented block was reached",
	Long: `"bbtrace report" joins a manifest with the output of an instrumented program
(either the event stream or the histogram written at exit) and prints the
number of times each block was reached.`,
	RunE: wrap(runReport),
}

func init() {
	RootCmd.AddCommand(reportCmd)

	f := reportCmd.Flags()
	f.StringP(config.KeyManifest, "b", "", "manifest written by the instrument command")
	f.String(keyReportFormat, report.FormatAuto.String(), "format of the trace output: auto, stream or histogram")
	f.Bool(keyOffsets, false, "trace output was produced with the offset payload")
	f.Int64(keyFirstID, -1, "with --offsets, the first_id logged by the instrument run that built the program (default is the latest run)")
	f.StringP(config.KeyPrefix, "p", "", "message prefix given to the instrument command")
	f.Bool(keyUncovered, false, "show only blocks that were never reached")
}

func runReport(opt *handlerOpt) error {
	if len(opt.Args) != 1 {
		opt.Logger.Error("need exactly one trace output", zap.Strings("args", opt.Args))
		return errInvalidArgs
	}
	manifestPath := opt.Viper.GetString(config.KeyManifest)
	if manifestPath == "" || manifestPath == info.Stdio {
		opt.Logger.Error("manifest file is required (-b)")
		return errInvalidArgs
	}
	format, err := report.ParseFormat(opt.Viper.GetString(keyReportFormat))
	if err != nil {
		opt.Logger.Error("invalid argument", zap.Error(err))
		return errInvalidArgs
	}

	records, err := manifest.ReadFile(manifestPath)
	if err != nil {
		return err
	}

	var trace io.Reader
	if opt.Args[0] == info.Stdio {
		trace = opt.Stdin
	} else {
		f, err := os.Open(opt.Args[0])
		if err != nil {
			return errors.Wrapf(err, "failed to open trace output %s", opt.Args[0])
		}
		defer f.Close() // nolint: errcheck
		trace = f
	}

	rep, err := report.Build(records, trace, report.Options{
		Format:  format,
		Offsets: opt.Viper.GetBool(keyOffsets),
		Prefix:  opt.Viper.GetString(config.KeyPrefix),
		FirstID: opt.Viper.GetInt64(keyFirstID),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to read trace output %s", opt.Args[0])
	}
	if len(rep.Unknown) > 0 {
		opt.Logger.Warn("trace output contains keys missing from the manifest", zap.Int("keys", len(rep.Unknown)))
	}
	return rep.Render(opt.Stdout, opt.Viper.GetBool(keyUncovered))
}
