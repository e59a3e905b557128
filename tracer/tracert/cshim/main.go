// Command cshim builds the trace runtime as a C archive:
//
//	go build -buildmode=c-archive -o libbbtrace.a ./tracer/tracert/cshim
//
// Link the archive into a program instrumented by "bbtrace instrument".
package main

/*
void bbtrace_register_atexit(void);
*/
import "C"

import (
	"github.com/yuuki0xff/bbtrace/tracer/tracert"
	"github.com/yuuki0xff/bbtrace/tracer/util"
)

func init() {
	C.bbtrace_register_atexit()
}

// A panic must never reach the host program.
func guard(fn func()) {
	util.PanicHandler(fn) // nolint: errcheck
}

//export __bbtrace
func __bbtrace(id C.uint) {
	guard(func() {
		tracert.Trace(uint32(id))
	})
}

//export __bbtrace_msg
func __bbtrace_msg(msg *C.char, id C.uint) {
	guard(func() {
		tracert.TraceMessage(C.GoString(msg), uint32(id))
	})
}

//export bbtraceClose
func bbtraceClose() {
	guard(tracert.Close)
}

func main() {}
