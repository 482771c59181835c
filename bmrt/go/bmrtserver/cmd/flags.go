package cmd

import (
	"os"

	"github.com/spf13/pflag"

	"github.com/lwz9103/conbench/bmrt/go/config"
	"github.com/lwz9103/conbench/go/sklog"
	"github.com/lwz9103/conbench/go/sklog/sklogimpl"
	"github.com/lwz9103/conbench/go/sklog/stdlogging"
)

// ServerFlags are the command line flags shared by all sub-commands.
type ServerFlags struct {
	ConfigFilename string
	Testing        bool
	Debug          bool
	CheckDeadlines bool
	PromPort       string
}

// Register the flags in the given FlagSet.
func (flags *ServerFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&flags.ConfigFilename, "config", "", "Instance config file, JSON5. If empty the built-in defaults are used.")
	fs.BoolVar(&flags.Testing, "testing", false, "Start from the testing defaults: faster refreshes and a smaller cache.")
	fs.BoolVar(&flags.Debug, "debug", false, "Include debug log lines.")
	fs.BoolVar(&flags.CheckDeadlines, "check_deadlines", false, "Log every SQL call made without a context deadline.")
	fs.StringVar(&flags.PromPort, "prom_port", "", "Overrides the prom_port of the config, e.g. \":20000\".")
}

// instanceConfig loads the config named by the flags on top of the matching
// defaults.
func (flags *ServerFlags) instanceConfig() (*config.InstanceConfig, error) {
	cfg := config.DefaultInstanceConfig()
	if flags.Testing {
		cfg = config.TestingInstanceConfig()
	}
	if flags.ConfigFilename != "" {
		if err := config.LoadFromJSON5(cfg, flags.ConfigFilename); err != nil {
			return nil, err
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if flags.PromPort != "" {
		cfg.PromPort = flags.PromPort
	}
	return cfg, nil
}

// setupLogging logs to stdout.
func (flags *ServerFlags) setupLogging() {
	sklogimpl.SetLogger(stdlogging.New(os.Stdout, flags.Debug))
}

func logFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		sklog.Infof("Flags: --%s=%v", f.Name, f.Value)
	})
}
