// Package report joins a manifest with the output of the trace runtime.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/tracer/manifest"
)

// Format of the trace output.
type Format int

const (
	// FormatAuto treats "<key>=<count>" lines as histogram entries and
	// everything else as single events.
	FormatAuto Format = iota
	FormatStream
	FormatHistogram
)

var formatNames = []string{"auto", "stream", "histogram"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range formatNames {
		if name == s {
			return Format(i), nil
		}
	}
	return FormatAuto, errors.Errorf("invalid report format %q (want one of %s)", s, strings.Join(formatNames, ", "))
}

type Options struct {
	Format Format
	// Offsets resolves keys "<prefix><qualified name>:<offset>" produced by
	// the offset payload.
	Offsets bool
	Prefix  string
	// FirstID selects the instrument run offset keys refer to: the blocks of
	// a function from the first ID at or after FirstID. A negative value
	// selects the latest run of each function.
	FirstID int64
}

// Entry is a manifest record with the number of times its block was reached.
type Entry struct {
	manifest.Record
	Count uint64
}

type Report struct {
	Entries []Entry
	// Unknown counts keys that match no manifest record.
	Unknown map[string]uint64
	Events  uint64
}

type resolver struct {
	records []manifest.Record
	byID    map[uint32]int
	// byFunc holds the record indexes of each function, split into runs of
	// consecutive block IDs. Every instrument run assigns consecutive IDs to
	// the blocks of a function.
	byFunc map[string][][]int
	opts   Options
}

func newResolver(records []manifest.Record, opts Options) *resolver {
	r := &resolver{
		records: records,
		byID:    make(map[uint32]int, len(records)),
		byFunc:  make(map[string][][]int),
		opts:    opts,
	}
	for i, rec := range records {
		r.byID[rec.BlockID] = i

		runs := r.byFunc[rec.Name]
		if n := len(runs); n > 0 {
			last := runs[n-1]
			if records[last[len(last)-1]].BlockID+1 == rec.BlockID {
				runs[n-1] = append(last, i)
				continue
			}
		}
		r.byFunc[rec.Name] = append(runs, []int{i})
	}
	return r
}

// blocks returns the record indexes of the run of name selected by FirstID.
// Runs of two instrument passes over the same function are merged when
// their IDs happen to be adjacent; FirstID separates them.
func (r *resolver) blocks(name string) []int {
	runs := r.byFunc[name]
	if len(runs) == 0 {
		return nil
	}
	if r.opts.FirstID < 0 {
		return runs[len(runs)-1]
	}
	for _, run := range runs {
		for j, idx := range run {
			if int64(r.records[idx].BlockID) >= r.opts.FirstID {
				return run[j:]
			}
		}
	}
	return nil
}

// resolve returns the index of the manifest record of key.
func (r *resolver) resolve(key string) (int, bool) {
	msg := ""
	num := key
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		msg, num = key[:i], key[i+1:]
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, false
	}

	if r.opts.Offsets && msg != "" {
		if !strings.HasPrefix(msg, r.opts.Prefix) {
			return 0, false
		}
		blocks := r.blocks(strings.TrimPrefix(msg, r.opts.Prefix))
		if n >= uint64(len(blocks)) {
			return 0, false
		}
		return blocks[n], true
	}
	idx, ok := r.byID[uint32(n)]
	return idx, ok
}

// Build counts the events of trace per manifest record.
func Build(records []manifest.Record, trace io.Reader, opts Options) (*Report, error) {
	rep := &Report{
		Entries: make([]Entry, len(records)),
		Unknown: make(map[string]uint64),
	}
	for i, rec := range records {
		rep.Entries[i].Record = rec
	}
	res := newResolver(records, opts)

	s := bufio.NewScanner(trace)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for lineno := 1; s.Scan(); lineno++ {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		key, count, err := parseLine(line, opts.Format)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineno)
		}

		rep.Events += count
		if idx, ok := res.resolve(key); ok {
			rep.Entries[idx].Count += count
		} else {
			rep.Unknown[key] += count
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return rep, nil
}

func parseLine(line string, f Format) (key string, count uint64, err error) {
	i := strings.LastIndexByte(line, '=')
	if f == FormatStream || (f == FormatAuto && i < 0) {
		return line, 1, nil
	}
	if i < 0 {
		return "", 0, errors.Errorf("malformed histogram entry %q", line)
	}
	count, err = strconv.ParseUint(line[i+1:], 10, 64)
	if err != nil {
		if f == FormatAuto {
			return line, 1, nil
		}
		return "", 0, errors.Wrapf(err, "malformed count in %q", line)
	}
	return line[:i], count, nil
}

// Covered returns the number of blocks reached at least once.
func (r *Report) Covered() int {
	var n int
	for _, e := range r.Entries {
		if e.Count > 0 {
			n++
		}
	}
	return n
}

// Render writes one row per block followed by a coverage summary.
// With uncoveredOnly, blocks that were reached are omitted.
func (r *Report) Render(w io.Writer, uncoveredOnly bool) error {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetCenterSeparator(" ")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"id", "function", "count"})
	for _, e := range r.Entries {
		if uncoveredOnly && e.Count > 0 {
			continue
		}
		table.Append([]string{
			strconv.FormatUint(uint64(e.BlockID), 10),
			e.Name,
			strconv.FormatUint(e.Count, 10),
		})
	}
	table.Render()

	var pct float64
	if len(r.Entries) > 0 {
		pct = 100 * float64(r.Covered()) / float64(len(r.Entries))
	}
	_, err := fmt.Fprintf(w, "\ncovered %d/%d blocks (%.1f%%), %d events", r.Covered(), len(r.Entries), pct, r.Events)
	if err != nil {
		return err
	}
	if len(r.Unknown) > 0 {
		_, err = fmt.Fprintf(w, ", %d unknown keys", len(r.Unknown))
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}
