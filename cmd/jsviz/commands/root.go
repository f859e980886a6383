package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/jsviz/config"
	"github.com/example/jsviz/visualizer"
)

var (
	cfgFile  string
	modeFlag string
	logLevel string

	cfg    *config.Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "jsviz",
	Short: "jsviz steps through small JavaScript programs",
	Long: `jsviz runs programs written in a subset of ES5 one evaluation step at a
time, forward and backward, and describes every step as the stack frames,
heap and output a visualizer draws.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if modeFlag != "" {
			c.Mode = modeFlag
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		level, _ := cfg.Level()
		out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !cfg.UseColor(os.Stderr), TimeFormat: time.Kitchen}
		logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
		color.NoColor = !cfg.UseColor(os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the config file (default: "+config.FileName+" if present)")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "Step granularity, micro or macro (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default from config)")
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// readSource reads a program from path, or from stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func sessionOptions(fns ...visualizer.HostFunction) []visualizer.Option {
	return []visualizer.Option{
		visualizer.WithFunctions(fns...),
		visualizer.WithLogger(logger),
		visualizer.WithDiffTimeout(cfg.DiffTimeout),
	}
}

func stepMode() visualizer.Mode {
	mode, _ := cfg.StepMode()
	return mode
}
