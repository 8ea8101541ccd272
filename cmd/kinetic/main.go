package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/kinetic"
	"github.com/deepnoodle-ai/kinetic/engine"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var red = color.New(color.FgRed).SprintFunc()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

// app holds the configuration shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
}

// globalFlags are bound to viper and may also be set through KINETIC_*
// environment variables or the config file.
var globalFlags = []string{"backend", "opt", "workers", "complex", "log-level", "no-color"}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "kinetic",
		Short:         "Compile and evaluate expression models",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	f := root.PersistentFlags()
	f.String("config", "", "config file (default $HOME/.kinetic.toml)")
	f.StringP("backend", "b", engine.BackendBytecode, "backend: "+strings.Join(engine.Backends(), ", "))
	f.IntP("opt", "O", kinetic.DefaultOptimization, "optimization level (0-2)")
	f.IntP("workers", "w", runtime.GOMAXPROCS(0), "fragment count of the parallel backend")
	f.Bool("complex", false, "evaluate with complex scalars")
	f.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	f.Bool("no-color", false, "disable colored output")
	for _, name := range globalFlags {
		if err := a.v.BindPFlag(name, f.Lookup(name)); err != nil {
			panic(err)
		}
	}
	a.v.SetEnvPrefix("kinetic")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.disCmd(),
		a.evalCmd(),
		a.benchCmd(),
		a.checkCmd(),
	)
	return root
}

// init reads the config file and sets up logging and colors.
func (a *app) init(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	} else if home, err := homedir.Dir(); err == nil {
		a.v.AddConfigPath(home)
		a.v.SetConfigName(".kinetic")
		a.v.SetConfigType("toml")
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("config: %w", err)
			}
		}
	}

	if a.v.GetBool("no-color") || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	stderr := cmd.ErrOrStderr()
	a.logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        stderr,
		NoColor:    a.v.GetBool("no-color") || !isTerminal(stderr),
		TimeFormat: "15:04:05.000",
	}).Level(level).With().Timestamp().Logger()
	a.logger.Debug().
		Str("config", a.v.ConfigFileUsed()).
		Str("backend", a.v.GetString("backend")).
		Int("opt", a.v.GetInt("opt")).
		Msg("configured")
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// options translates the global flags into compilation options.
func (a *app) options() []kinetic.Option {
	return []kinetic.Option{
		kinetic.WithBackend(a.v.GetString("backend")),
		kinetic.WithOptimization(a.v.GetInt("opt")),
		kinetic.WithWorkers(a.v.GetInt("workers")),
		kinetic.WithLogger(a.logger),
	}
}
