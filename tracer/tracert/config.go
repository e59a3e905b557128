package tracert

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/yuuki0xff/bbtrace/info"
)

// Format selects how events are written.
type Format int

const (
	// FormatID writes "<blockID>" per event.
	FormatID Format = iota
	// FormatMessage writes "<message>:<blockID>" per event.
	FormatMessage
	// FormatHistogram writes "<key>=<count>" per distinct event on close.
	FormatHistogram
)

var formatNames = []string{"id", "message", "histogram"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range formatNames {
		if name == s {
			return Format(i), nil
		}
	}
	return FormatID, errors.Errorf("invalid trace format %q (want one of %s)", s, strings.Join(formatNames, ", "))
}

// Config is the runtime configuration of a Session.
type Config struct {
	// Path of the output file. Empty means standard output.
	Path   string
	Format Format
	Debug  bool
}

// LoadConfig reads the configuration from the environment. On an invalid
// format it returns the error together with a usable FormatID config.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.BindEnv("path", info.DefaultTracePathEnv)     // nolint: errcheck
	v.BindEnv("format", info.DefaultTraceFormatEnv) // nolint: errcheck
	v.BindEnv("debug", info.DefaultTraceDebugEnv)   // nolint: errcheck
	v.SetDefault("format", FormatID.String())

	conf := Config{
		Path:  v.GetString("path"),
		Debug: v.GetBool("debug"),
	}
	var err error
	conf.Format, err = ParseFormat(v.GetString("format"))
	return conf, err
}
