package instrument

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/tracer/manifest"
	"go.uber.org/zap"
)

var ErrNoInsertionPoint = errors.New("block has no insertion point")

// Includer decides whether a function is instrumented.
type Includer interface {
	Includes(name string) bool
}

// Appender persists block records.
type Appender interface {
	Append(rec manifest.Record) error
}

// Stats summarizes one Injector run.
type Stats struct {
	Funcs   int
	Skipped int
	Blocks  int
	// Unplaceable counts blocks that could not host a call.
	Unplaceable int
	// FirstID is the first ID of the run, NextID the first ID of the next run.
	FirstID uint32
	NextID  uint32
}

// Injector inserts one trace call into every basic block of every
// included function and records the assigned IDs.
type Injector struct {
	// Filter may be nil, in which case all functions are included.
	Filter   Includer
	Alloc    *Allocator
	Manifest Appender
	Options  Options
	Logger   *zap.Logger
}

// Run instruments m in place. The module must pass Verify afterwards.
func (inj *Injector) Run(m Module) (Stats, error) {
	log := inj.logger()
	if inj.Alloc == nil {
		inj.Alloc = NewAllocator(0)
	}

	moduleID := inj.Options.ModuleName
	if moduleID == "" {
		moduleID = m.Name()
	}

	stats := Stats{FirstID: inj.Alloc.Peek()}
	var fid int
	for _, f := range m.Funcs() {
		if f.IsDeclaration() {
			continue
		}
		funcID := f.Name()
		if inj.Options.Numeric {
			funcID = strconv.Itoa(fid)
		}
		fid++

		name := QualifiedName(moduleID, funcID)
		if inj.Filter != nil && !inj.Filter.Includes(name) {
			log.Debug("skip function", zap.String("func", name))
			stats.Skipped++
			continue
		}
		if err := inj.instrumentFunc(f, name, &stats); err != nil {
			return stats, errors.Wrapf(err, "failed to instrument %s", name)
		}
		stats.Funcs++
	}
	stats.NextID = inj.Alloc.Peek()

	if err := m.Verify(); err != nil {
		return stats, errors.Wrap(err, "instrumented module is invalid")
	}
	log.Debug("instrumented module",
		zap.String("module", moduleID),
		zap.Int("funcs", stats.Funcs),
		zap.Int("skipped", stats.Skipped),
		zap.Int("blocks", stats.Blocks),
		zap.Uint32("first_id", stats.FirstID),
		zap.Uint32("next_id", stats.NextID))
	return stats, nil
}

func (inj *Injector) instrumentFunc(f Func, name string, stats *Stats) error {
	shape := inj.Options.Payload
	call := Call{
		Hook:  inj.Options.hook(),
		Shape: shape,
	}
	if shape.HasMessage() {
		call.Message = inj.Options.Prefix + name
	}

	var offset uint32
	for _, b := range f.Blocks() {
		if !b.HasInsertionPoint() {
			inj.logger().Warn("block has no insertion point", zap.String("func", name))
			stats.Unplaceable++
			continue
		}
		id, err := inj.Alloc.Next()
		if err != nil {
			return err
		}
		if err := inj.Manifest.Append(manifest.Record{Name: name, BlockID: id}); err != nil {
			return errors.Wrap(err, "failed to append to manifest")
		}

		call.Arg = id
		if shape == PayloadOffset {
			call.Arg = offset
		}
		if err := b.InsertCall(call); err != nil {
			return err
		}
		offset++
		stats.Blocks++
	}
	return nil
}

func (inj *Injector) logger() *zap.Logger {
	if inj.Logger == nil {
		inj.Logger = zap.NewNop()
	}
	return inj.Logger
}
