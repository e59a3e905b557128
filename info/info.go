package info

const (
	AppName = "bbtrace"
	Version = "0.1.0"

	// EnvPrefix is the prefix of environment variables read by the offline tool.
	EnvPrefix = "BBTRACE"

	DefaultTracePathEnv   = "BBTRACE_PATH"
	DefaultTraceFormatEnv = "BBTRACE_FORMAT"
	DefaultTraceDebugEnv  = "BBTRACE_DEBUG"

	// C symbols called by instrumented code.
	DefaultTraceHook        = "__bbtrace"
	DefaultTraceMessageHook = "__bbtrace_msg"

	DefaultLLVMAs  = "llvm-as"
	DefaultLLVMDis = "llvm-dis"

	// Stdio is the path name that selects a standard stream.
	Stdio = "-"
	// StdinModuleName is used as module ID when the input has no source filename.
	StdinModuleName = "<stdin>"
)
