// Package main provides the CropCare CLI and server.
//
// Usage:
//
//	cropcare [flags] <command> [args]
//
// Commands:
//
//	serve      - Run the HTTP server
//	chat       - Ask the assistant a question
//	predict    - Classify a leaf image
//	history    - List a user's predictions
//	diseases   - Show the disease knowledge base
//	treatment  - Resolve treatment advice for a label
//
// Configuration:
//
//	Settings are read from the YAML file given with --config. Secrets may
//	reference the environment ("$OPENAI_API_KEY"); a .env file in the
//	working directory is loaded first.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/cropcare/cmd/cropcare/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
