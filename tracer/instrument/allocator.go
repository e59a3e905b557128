package instrument

import (
	"math"

	"github.com/pkg/errors"
)

var ErrIDExhausted = errors.New("block id space exhausted")

// Allocator hands out block IDs in increasing order starting at a seed.
// It is not safe for concurrent use.
type Allocator struct {
	next      uint32
	exhausted bool
}

// NewAllocator returns an Allocator whose first ID is seed. The seed is the
// number of records already present in the manifest.
func NewAllocator(seed uint32) *Allocator {
	return &Allocator{next: seed}
}

func (a *Allocator) Next() (uint32, error) {
	if a.exhausted {
		return 0, ErrIDExhausted
	}
	id := a.next
	if id == math.MaxUint32 {
		a.exhausted = true
	} else {
		a.next++
	}
	return id, nil
}

// Peek returns the ID the next call to Next will return.
func (a *Allocator) Peek() uint32 {
	return a.next
}
