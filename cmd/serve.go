package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyreel/internal/app"
	"storyreel/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation API over HTTP",
	Long: `Expose story, affiliate and image generation as JSON endpoints:
  GET  /health
  POST /api/story
  POST /api/affiliate
  POST /api/image
  POST /api/storyboard`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	addr := serveAddr
	if addr == "" {
		addr = service.Config().Server.Addr
	}

	return server.New(app.NewPipeline(service)).ListenAndServe(ctx, addr)
}
