package tracert

import (
	"bufio"
	"io"
	"sort"
	"strconv"
)

// Event is a single trace call.
type Event struct {
	Message    string
	HasMessage bool
	BlockID    uint32
}

// Key identifies the event in histograms: "<blockID>" or "<message>:<blockID>".
func (ev Event) Key() string {
	return string(ev.appendKey(nil))
}

func (ev Event) appendKey(buf []byte) []byte {
	if ev.HasMessage {
		buf = append(buf, ev.Message...)
		buf = append(buf, ':')
	}
	return strconv.AppendUint(buf, uint64(ev.BlockID), 10)
}

// Recorder is the output strategy of a Session.
// Calls are serialized by the Session.
type Recorder interface {
	// Record handles one event. Streaming recorders write it to w immediately.
	Record(w io.Writer, ev Event) error
	// Flush writes everything still held in memory. It is called once on close.
	Flush(w io.Writer) error
}

// NewRecorder returns the Recorder for f.
func NewRecorder(f Format) Recorder {
	switch f {
	case FormatMessage:
		return messageRecorder{}
	case FormatHistogram:
		return NewHistogram()
	default:
		return idRecorder{}
	}
}

type idRecorder struct{}

func (idRecorder) Record(w io.Writer, ev Event) error {
	var buf [16]byte
	line := strconv.AppendUint(buf[:0], uint64(ev.BlockID), 10)
	_, err := w.Write(append(line, '\n'))
	return err
}

func (idRecorder) Flush(io.Writer) error {
	return nil
}

type messageRecorder struct{}

func (messageRecorder) Record(w io.Writer, ev Event) error {
	line := ev.appendKey(make([]byte, 0, len(ev.Message)+12))
	_, err := w.Write(append(line, '\n'))
	return err
}

func (messageRecorder) Flush(io.Writer) error {
	return nil
}

// Histogram counts events by key.
type Histogram struct {
	counts map[string]uint64
}

func NewHistogram() *Histogram {
	return &Histogram{counts: make(map[string]uint64)}
}

func (h *Histogram) Record(_ io.Writer, ev Event) error {
	h.counts[ev.Key()]++
	return nil
}

// Count returns the number of events recorded with key.
func (h *Histogram) Count(key string) uint64 {
	return h.counts[key]
}

// Flush writes "<key>=<count>" lines sorted by key.
func (h *Histogram) Flush(w io.Writer) error {
	keys := make([]string, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bw := bufio.NewWriter(w)
	var buf []byte
	for _, k := range keys {
		buf = append(buf[:0], k...)
		buf = append(buf, '=')
		buf = strconv.AppendUint(buf, h.counts[k], 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}
