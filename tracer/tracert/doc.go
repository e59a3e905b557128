// Package tracert receives the calls inserted by "bbtrace instrument" and
// records which basic blocks were reached.
//
// Initialization sequence
//   1. Execute `tracert.init()`. It reads BBTRACE_PATH and BBTRACE_FORMAT and opens the default Session.
//   2. Execute other `init()` functions and the main routine. Every trace call is recorded by the default Session.
//   3. Call `tracert.Close()` (or `CloseAndExit()`) before the process terminates.
//      Programs linked against the cshim archive do this through atexit(3).
//
// Events are dropped once the session is closed or its destination fails.
package tracert
