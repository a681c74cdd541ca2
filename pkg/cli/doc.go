// Package cli provides output helpers for the cropcare command-line tool.
//
// This package includes:
//   - Output formatting (JSON, YAML, card)
//   - Cards for diagnoses and disease entries
//   - Human-readable confidence and age formatting
//
// Example usage:
//
//	cli.Output(entry, cli.OutputOptions{
//	    Format: cli.FormatCard,
//	    Writer: os.Stdout,
//	})
package cli
