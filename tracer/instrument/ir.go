package instrument

// Module is the view of a program representation the Injector needs.
// Implementations wrap a concrete IR library; see tracer/llvmir.
type Module interface {
	// Name returns the module identifier used in qualified names.
	Name() string
	// Funcs returns the functions in declaration order. The returned slice
	// is not affected by declarations added while instrumenting.
	Funcs() []Func
	// Verify checks the structural integrity of the module.
	Verify() error
}

type Func interface {
	Name() string
	// IsDeclaration reports whether the function has no body.
	IsDeclaration() bool
	// Blocks returns the basic blocks in structural order.
	Blocks() []Block
}

type Block interface {
	// HasInsertionPoint reports whether a call can be placed in the block.
	HasInsertionPoint() bool
	// InsertCall places call at the first insertion point of the block:
	// after PHI nodes and exception-handling pads, before any other instruction.
	InsertCall(call Call) error
}

// Call describes a single trace call.
type Call struct {
	// Hook is the name of the called function.
	Hook  string
	Shape PayloadShape
	// Message is passed as the first argument unless Shape is PayloadID.
	Message string
	// Arg is the block ID, or the block offset for PayloadOffset.
	Arg uint32
}
