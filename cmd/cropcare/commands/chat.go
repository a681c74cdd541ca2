package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/cropcare/pkg/chat"
	"github.com/haivivi/cropcare/pkg/cli"
)

var chatLanguage string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the assistant a question",
	Long: `Ask the assistant a question.

With a message argument the answer is printed once. Without one, questions
are read from stdin line by line until EOF.

Examples:
  cropcare chat "What causes apple scab?"
  cropcare chat --lang es-ES "¿Cómo trato la roya del maíz?"
  cropcare chat -o json "watering tips" | jq -r .response`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), getConfig(), slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) > 0 {
			msg, err := requireArg(args, "message")
			if err != nil {
				return err
			}
			turn := a.assistant.Converse(cmd.Context(), msg, chatLanguage)
			return outputResult(cmd, cli.TurnView(turn))
		}

		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(cmd.ErrOrStderr(), "> ")
			if !sc.Scan() {
				fmt.Fprintln(cmd.ErrOrStderr())
				return sc.Err()
			}
			msg := strings.TrimSpace(sc.Text())
			if msg == "" {
				continue
			}
			turn := a.assistant.Converse(cmd.Context(), msg, chatLanguage)
			if err := outputResult(cmd, cli.TurnView(turn)); err != nil {
				return err
			}
		}
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatLanguage, "lang", "l", chat.DefaultLanguage, "language tag of the question and answer")
}
