package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/cropcare/pkg/cli"
	"github.com/haivivi/cropcare/pkg/config"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	outputFile   string
	width        int
	verbose      bool

	// Global configuration
	globalConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cropcare",
	Short: "Crop health assistant",
	Long: `CropCare - diagnose crop diseases and answer farming questions.

Examples:
  # Run the HTTP server
  cropcare --config cropcare.yaml serve

  # Ask a question in Hindi
  cropcare chat --lang hi-IN "सेब की पपड़ी का इलाज कैसे करें"

  # Classify a leaf photo
  cropcare predict --user farmer-1 leaf.jpg

  # Look up a disease as JSON
  cropcare diseases "apple scab" -o json | jq .treatment
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		globalConfig = cfg
		slog.SetDefault(newLogger(os.Stderr, cfg.Log, verbose))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "card", "output format: card, yaml or json")
	rootCmd.PersistentFlags().StringVar(&outputFile, "out-file", "", "write output to a file instead of stdout")
	rootCmd.PersistentFlags().IntVar(&width, "width", 80, "card width")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diseasesCmd)
	rootCmd.AddCommand(treatmentCmd)
}

// getConfig returns the global configuration
func getConfig() *config.Config {
	if globalConfig == nil {
		return config.Default()
	}
	return globalConfig
}

// newLogger builds the process logger from the log section. Verbose forces
// the debug level.
func newLogger(w io.Writer, lc config.Log, verbose bool) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// outputResult outputs the result using cli package
func outputResult(cmd *cobra.Command, result any) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	opts := cli.OutputOptions{Format: format, File: outputFile, Width: width}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(result, opts)
}

func requireArg(args []string, what string) (string, error) {
	s := strings.TrimSpace(strings.Join(args, " "))
	if s == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return s, nil
}
