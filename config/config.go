package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/yuuki0xff/bbtrace/info"
	"github.com/yuuki0xff/bbtrace/tracer/instrument"
	"github.com/yuuki0xff/bbtrace/tracer/llvmir"
	"github.com/yuuki0xff/bbtrace/tracer/types"
)

// Keys of the instrument command. Each key is a flag name and, upper-cased
// with the "BBTRACE_" prefix, an environment variable.
const (
	KeyOutput          = "output"
	KeyManifest        = "manifest"
	KeyInclude         = "include"
	KeyModule          = "module"
	KeyNumeric         = "numeric"
	KeyPrefix          = "prefix"
	KeyForce           = "force"
	KeyTextual         = "textual"
	KeyPayload         = "payload"
	KeyHook            = "hook"
	KeyMessageHook     = "message-hook"
	KeyMissingInclude  = "missing-include"
	KeyMissingManifest = "missing-manifest"
	KeyLLVMAs          = "llvm-as"
	KeyLLVMDis         = "llvm-dis"
)

// Config is the resolved configuration of one instrument run.
type Config struct {
	Input    string
	Output   string
	Manifest string
	Include  string
	Force    bool
	Textual  bool

	Options instrument.Options
	Tools   llvmir.Tools

	MissingInclude  types.MissingPolicy
	MissingManifest types.MissingPolicy
}

// InvalidError reports an unusable configuration value.
type InvalidError struct {
	Key string
	Err error
}

func (e *InvalidError) Error() string {
	return e.Key + ": " + e.Err.Error()
}

func (e *InvalidError) Cause() error {
	return e.Err
}

// NewConfig resolves the configuration from v. input is the positional argument.
func NewConfig(v *viper.Viper, input string) (*Config, error) {
	c := &Config{
		Input:    input,
		Output:   v.GetString(KeyOutput),
		Manifest: v.GetString(KeyManifest),
		Include:  v.GetString(KeyInclude),
		Force:    v.GetBool(KeyForce),
		Textual:  v.GetBool(KeyTextual),
		Options: instrument.Options{
			ModuleName:  v.GetString(KeyModule),
			Numeric:     v.GetBool(KeyNumeric),
			Prefix:      v.GetString(KeyPrefix),
			Hook:        v.GetString(KeyHook),
			MessageHook: v.GetString(KeyMessageHook),
		},
		Tools: llvmir.Tools{
			As:  v.GetString(KeyLLVMAs),
			Dis: v.GetString(KeyLLVMDis),
		},
	}
	if c.Input == "" {
		c.Input = info.Stdio
	}
	if c.Output == "" {
		c.Output = info.Stdio
	}

	var err error
	if c.Options.Payload, err = instrument.ParsePayloadShape(v.GetString(KeyPayload)); err != nil {
		return nil, &InvalidError{Key: KeyPayload, Err: err}
	}
	if c.MissingInclude, err = types.ParseMissingPolicy(v.GetString(KeyMissingInclude), types.MissingFail, types.MissingIgnore); err != nil {
		return nil, &InvalidError{Key: KeyMissingInclude, Err: err}
	}
	if c.MissingManifest, err = types.ParseMissingPolicy(v.GetString(KeyMissingManifest), types.MissingCreate, types.MissingFail); err != nil {
		return nil, &InvalidError{Key: KeyMissingManifest, Err: err}
	}
	if c.Options.Prefix != "" && !c.Options.Payload.HasMessage() {
		return nil, &InvalidError{Key: KeyPrefix, Err: errors.Errorf("requires a message payload, got %s", c.Options.Payload)}
	}
	return c, nil
}

// SetDefaults registers the default values of all keys.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutput, info.Stdio)
	v.SetDefault(KeyPayload, instrument.PayloadID.String())
	v.SetDefault(KeyHook, info.DefaultTraceHook)
	v.SetDefault(KeyMessageHook, info.DefaultTraceMessageHook)
	v.SetDefault(KeyMissingInclude, types.MissingFail.String())
	v.SetDefault(KeyMissingManifest, types.MissingCreate.String())
	v.SetDefault(KeyLLVMAs, info.DefaultLLVMAs)
	v.SetDefault(KeyLLVMDis, info.DefaultLLVMDis)
}
