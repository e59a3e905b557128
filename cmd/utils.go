package cmd

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yuuki0xff/bbtrace/info"
	"go.uber.org/zap"
)

// Errors returned by func(*handlerOpt) error. Execute maps them to exit codes.
var (
	errGeneral     = errors.New("general error")
	errInvalidArgs = errors.New("invalid args")
)

func Execute() int {
	err := RootCmd.Execute()
	defer logger.Sync() // nolint: errcheck
	switch err {
	case nil:
		return 0
	case errGeneral:
		return 1
	case errInvalidArgs:
		// EX_USAGE 64
		return 64
	default:
		logger.Error("failed", zap.Error(err))
		return 1
	}
}

type cobraHandler func(cmd *cobra.Command, args []string) error
type handlerOpt struct {
	Viper  *viper.Viper
	Cmd    *cobra.Command
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

func wrap(fn func(*handlerOpt) error) cobraHandler {
	return func(cmd *cobra.Command, args []string) error {
		v, err := newViper(cmd)
		if err != nil {
			return err
		}

		ha := handlerOpt{
			Viper:  v,
			Cmd:    cmd,
			Args:   args,
			Stdin:  cmd.InOrStdin(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
			Logger: logger.Named(cmd.Name()),
		}
		return fn(&ha)
	}
}

// newViper resolves the flags of cmd. A flag given on the command line wins
// over BBTRACE_* environment variables, which win over the config file.
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if setDefaults, ok := cmdDefaults[cmd]; ok {
		setDefaults(v)
	}
	v.SetEnvPrefix(info.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", cfgFile)
		}
	}
	return v, nil
}

// cmdDefaults holds the default values of commands whose keys are not
// fully described by their flag defaults.
var cmdDefaults = map[*cobra.Command]func(v *viper.Viper){}
