// Package filter implements the inclusion list that restricts
// instrumentation to named functions.
package filter

import (
	"bufio"
	"io"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/tracer/types"
	"go.uber.org/zap"
)

// Filter is a set of qualified function names. A nil or disabled Filter
// includes every function.
type Filter struct {
	names mapset.Set
}

// Load reads the inclusion list at path. An empty path disables filtering.
// If the file does not exist, policy decides between an error and no filtering.
func Load(path string, policy types.MissingPolicy, logger *zap.Logger) (*Filter, error) {
	if path == "" {
		return &Filter{}, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) && policy == types.MissingIgnore {
		logger.Warn("inclusion list not found, instrumenting all functions", zap.String("path", path))
		return &Filter{}, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to open inclusion list %s", path)
	}
	defer f.Close() // nolint: errcheck

	flt, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read inclusion list %s", path)
	}
	logger.Debug("loaded inclusion list", zap.String("path", path), zap.Int("names", flt.Len()))
	return flt, nil
}

// Parse reads one qualified name per line. Blank lines and lines starting
// with '#' are ignored.
func Parse(r io.Reader) (*Filter, error) {
	flt := New()
	s := bufio.NewScanner(r)
	for s.Scan() {
		name := strings.TrimSpace(s.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		flt.names.Add(name)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return flt, nil
}

// New returns an enabled Filter containing names.
func New(names ...string) *Filter {
	set := mapset.NewThreadUnsafeSet()
	for _, name := range names {
		set.Add(name)
	}
	return &Filter{names: set}
}

// Enabled reports whether the filter restricts anything.
func (f *Filter) Enabled() bool {
	return f != nil && f.names != nil
}

func (f *Filter) Includes(name string) bool {
	if !f.Enabled() {
		return true
	}
	return f.names.Contains(name)
}

// Len returns the number of names. It is 0 for a disabled filter.
func (f *Filter) Len() int {
	if !f.Enabled() {
		return 0
	}
	return f.names.Cardinality()
}
