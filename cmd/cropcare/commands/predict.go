package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/cropcare/pkg/cli"
	"github.com/haivivi/cropcare/pkg/prediction"
)

var userID string

var predictCmd = &cobra.Command{
	Use:   "predict <image>",
	Short: "Classify a leaf image",
	Long: `Classify a leaf image and record the prediction.

The prediction is stored in the configured durable tier, or in memory
for the lifetime of the command when no database is configured.

Examples:
  cropcare predict leaf.jpg
  cropcare predict --user farmer-1 -o json leaf.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		a, err := newApp(cmd.Context(), getConfig(), slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.assistant.ClassifyImage(cmd.Context(), userID, filepath.Base(args[0]), image)
		if err != nil {
			return err
		}
		return outputResult(cmd, cli.DiagnosisView{Diagnosis: d})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's predictions",
	Long: `List a user's predictions, newest first.

Examples:
  cropcare --config prod.yaml history --user farmer-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), getConfig(), slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		user := userID
		if user == "" {
			user = prediction.Anonymous
		}
		preds := a.assistant.History(cmd.Context(), user)
		for i := range preds {
			preds[i].ImageBase64 = ""
		}
		return outputResult(cmd, cli.HistoryView{User: user, Predictions: preds, Now: time.Now()})
	},
}

func init() {
	predictCmd.Flags().StringVarP(&userID, "user", "u", "", "user id to record the prediction for")
	historyCmd.Flags().StringVarP(&userID, "user", "u", "", "user id (default: anonymous)")
}
