package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/internal/config"
	"github.com/wippyai/bcreader/parser"
)

var rootCmd = &cobra.Command{
	Use:   "bcdump [flags] FILE...",
	Short: "Decode bitcode modules and print their type tables",
	Long: `bcdump decodes LLVM-style bitcode files and prints the module header
fields and the reconstructed type table, as text or as msgpack summaries.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDump,
}

func main() {
	rootCmd.Version = version
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.Flags()
	flags.String("format", config.FormatText, "output format (text|msgpack)")
	flags.String("color", config.ColorAuto, "colorize output (auto|on|off)")
	flags.Int("width", 0, "truncate type lines to this many columns (0 = terminal width)")
	flags.Int("jobs", 4, "number of files parsed concurrently")
	flags.String("config", "", "path to "+config.FileName+" (default: search upward from the working directory)")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	flags.Bool("verbose", false, "development logging at debug level")
	flags.Bool("quiet", false, "suppress all logging")
	flags.BoolP("interactive", "i", false, "browse the type table of a single file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return config.Config{}, err
		}
		if ok {
			path = found
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("color") {
		cfg.Output.Color, _ = flags.GetString("color")
	}
	if flags.Changed("width") {
		cfg.Output.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("jobs") {
		cfg.Parse.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("verbose") {
		cfg.Log.Verbose, _ = flags.GetBool("verbose")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, quiet bool) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	if cfg.Log.Verbose {
		return zap.NewDevelopment()
	}
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.Encoding = "console"
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

func installLogger(l *zap.Logger) {
	bitstream.SetLogger(l.Named("bitstream"))
	parser.SetLogger(l.Named("parser"))
}

// isTerminal reports whether w is an *os.File attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	default:
		return isTerminal(w) && os.Getenv("NO_COLOR") == ""
	}
}

func outputWidth(configured int, w io.Writer) int {
	if configured > 0 {
		return configured
	}
	if !isTerminal(w) {
		return 0
	}
	width, _, err := term.GetSize(int(w.(*os.File).Fd()))
	if err != nil {
		return 0
	}
	return width
}
