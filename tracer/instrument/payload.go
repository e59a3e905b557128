package instrument

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/yuuki0xff/bbtrace/info"
)

// PayloadShape selects the arguments passed to the trace hook.
type PayloadShape int

const (
	// PayloadID calls hook(blockID).
	PayloadID PayloadShape = iota
	// PayloadMessage calls hook(message, blockID).
	PayloadMessage
	// PayloadOffset calls hook(message, offset) where offset is the
	// 0-based index of the block inside its function.
	PayloadOffset
)

var payloadNames = []string{"id", "message", "offset"}

func (p PayloadShape) String() string {
	if int(p) < len(payloadNames) {
		return payloadNames[p]
	}
	return "unknown"
}

// HasMessage reports whether calls of this shape carry a message argument.
func (p PayloadShape) HasMessage() bool {
	return p != PayloadID
}

func ParsePayloadShape(s string) (PayloadShape, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range payloadNames {
		if name == s {
			return PayloadShape(i), nil
		}
	}
	return 0, errors.Errorf("invalid payload %q (want one of %s)", s, strings.Join(payloadNames, ", "))
}

// Options controls naming and the shape of the inserted calls.
type Options struct {
	// ModuleName overrides Module.Name() in qualified names.
	ModuleName string
	// Numeric names functions by their index among defined functions.
	Numeric bool
	// Prefix is prepended to the per-function message.
	Prefix  string
	Payload PayloadShape
	// Hook and MessageHook override the hook symbols.
	Hook        string
	MessageHook string
}

func (o Options) hook() string {
	if o.Payload.HasMessage() {
		if o.MessageHook != "" {
			return o.MessageHook
		}
		return info.DefaultTraceMessageHook
	}
	if o.Hook != "" {
		return o.Hook
	}
	return info.DefaultTraceHook
}

// QualifiedName joins a module ID and a function ID.
func QualifiedName(moduleID, funcID string) string {
	return moduleID + ":" + funcID
}
