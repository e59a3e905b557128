package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuuki0xff/bbtrace/tracer/instrument"
	"github.com/yuuki0xff/bbtrace/tracer/types"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestNewConfig_defaults(t *testing.T) {
	a := assert.New(t)
	c, err := NewConfig(newViper(nil), "")
	require.NoError(t, err)
	a.Equal("-", c.Input)
	a.Equal("-", c.Output)
	a.Equal("", c.Manifest)
	a.Equal("", c.Include)
	a.Equal(instrument.PayloadID, c.Options.Payload)
	a.Equal("__bbtrace", c.Options.Hook)
	a.Equal("__bbtrace_msg", c.Options.MessageHook)
	a.Equal(types.MissingFail, c.MissingInclude)
	a.Equal(types.MissingCreate, c.MissingManifest)
	a.Equal("llvm-as", c.Tools.As)
}

func TestNewConfig_values(t *testing.T) {
	a := assert.New(t)
	c, err := NewConfig(newViper(map[string]interface{}{
		KeyOutput:          "foo.inst.ll",
		KeyManifest:        "blocks.txt",
		KeyInclude:         "include.txt",
		KeyModule:          "foo",
		KeyNumeric:         true,
		KeyPrefix:          "bb:",
		KeyPayload:         "offset",
		KeyTextual:         true,
		KeyMissingInclude:  "ignore",
		KeyMissingManifest: "fail",
	}), "foo.ll")
	require.NoError(t, err)
	a.Equal("foo.ll", c.Input)
	a.Equal("foo.inst.ll", c.Output)
	a.Equal(instrument.Options{
		ModuleName:  "foo",
		Numeric:     true,
		Prefix:      "bb:",
		Payload:     instrument.PayloadOffset,
		Hook:        "__bbtrace",
		MessageHook: "__bbtrace_msg",
	}, c.Options)
	a.True(c.Textual)
	a.Equal(types.MissingIgnore, c.MissingInclude)
	a.Equal(types.MissingFail, c.MissingManifest)
}

func TestNewConfig_invalid(t *testing.T) {
	for key, val := range map[string]interface{}{
		KeyPayload:         "histogram",
		KeyMissingInclude:  "create",
		KeyMissingManifest: "ignore",
		KeyPrefix:          "bb:",
	} {
		_, err := NewConfig(newViper(map[string]interface{}{key: val}), "foo.ll")
		require.Error(t, err, key)
		invalid, ok := err.(*InvalidError)
		require.True(t, ok, key)
		assert.Equal(t, key, invalid.Key)
		assert.NotNil(t, errors.Cause(err))
	}
}
