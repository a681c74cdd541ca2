package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatCard renders cards; the default for terminals
	FormatCard OutputFormat = "card"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatYAML, FormatJSON, FormatCard:
		return f, nil
	case "":
		return FormatCard, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// OutputOptions configures output behavior
type OutputOptions struct {
	// Format is the output format (yaml, json, card)
	Format OutputFormat

	// File is the output file path (empty for stdout)
	File string

	// Width is the card width; defaults to 80
	Width int

	// Writer is an optional custom writer (overrides File)
	Writer io.Writer
}

// Carder is implemented by values with a card rendering.
type Carder interface {
	Cards() []Card
}

// Output writes the result to the configured destination. Results that are
// not a Carder are written as YAML in card format.
func Output(result any, opts OutputOptions) error {
	var w io.Writer = os.Stdout

	if opts.Writer != nil {
		w = opts.Writer
	} else if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch opts.Format {
	case FormatJSON:
		return outputJSON(w, result)
	case FormatYAML:
		return outputYAML(w, result)
	case FormatCard, "":
		return outputCards(w, result, opts.Width)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

func outputJSON(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(unwrap(result))
}

func outputYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(unwrap(result))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func outputCards(w io.Writer, result any, width int) error {
	c, ok := result.(Carder)
	if !ok {
		return outputYAML(w, result)
	}
	if width <= 0 {
		width = 80
	}
	for _, card := range c.Cards() {
		if _, err := fmt.Fprintln(w, card.Render(width)); err != nil {
			return err
		}
	}
	return nil
}

// unwrap returns the data behind a card view for structured output.
func unwrap(result any) any {
	if v, ok := result.(interface{ Value() any }); ok {
		return v.Value()
	}
	return result
}

// Print helpers for terminal output

// PrintSuccess prints a success message with checkmark
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "Error: "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "⚠ "+format+"\n", args...)
}
