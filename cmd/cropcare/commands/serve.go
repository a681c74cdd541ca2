package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/cropcare/pkg/server"
)

const flushTimeout = 2 * time.Second

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server used by the web frontend.

Routes:
  POST /predict          multipart image upload (fields: image, user_id)
  GET  /history          ?user_id=
  GET  /disease_info     [?disease=]
  POST /chatbot          {"message": "...", "language": "en-US"}
  GET  /static/tts/NAME  synthesized answers
  GET  /metrics          Prometheus metrics
  GET  /healthz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		if addr != "" {
			cfg.Server.Addr = addr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := slog.Default()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Assistant: a.assistant,
			Audio:     a.speech,
			Metrics:   a.metrics.Handler(),
			MaxUpload: int64(cfg.Server.MaxUploadMB) << 20,
			Logger:    logger,
		})
		return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout.D())
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
}
