package instrument

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocator_sequence(t *testing.T) {
	a := assert.New(t)
	alloc := NewAllocator(0)
	for want := uint32(0); want < 5; want++ {
		a.Equal(want, alloc.Peek())
		id, err := alloc.Next()
		a.NoError(err)
		a.Equal(want, id)
	}
}

func TestAllocator_seed(t *testing.T) {
	alloc := NewAllocator(17)
	id, err := alloc.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint32(17), id)
	assert.Equal(t, uint32(18), alloc.Peek())
}

func TestAllocator_exhausted(t *testing.T) {
	a := assert.New(t)
	alloc := NewAllocator(math.MaxUint32 - 1)
	id, err := alloc.Next()
	a.NoError(err)
	a.Equal(uint32(math.MaxUint32-1), id)
	id, err = alloc.Next()
	a.NoError(err)
	a.Equal(uint32(math.MaxUint32), id)
	_, err = alloc.Next()
	a.Equal(ErrIDExhausted, err)
}
