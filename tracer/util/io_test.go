package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errExample = errors.New("example error")

func TestPanicHandler_noPanic(t *testing.T) {
	a := assert.New(t)
	a.NoError(PanicHandler(func() {}))
}
func TestPanicHandler_panicWithError(t *testing.T) {
	a := assert.New(t)
	a.EqualError(PanicHandler(func() {
		panic(errExample)
	}), errExample.Error())
}
func TestPanicHandler_panicWithString(t *testing.T) {
	a := assert.New(t)
	a.EqualError(PanicHandler(func() {
		panic(errExample.Error())
	}), errExample.Error())
}
