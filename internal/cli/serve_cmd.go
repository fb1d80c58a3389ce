package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/roadmap/internal/api"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the roadmap over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h := &api.Handlers{
				Roadmap:    app.Roadmap,
				Resourcing: app.Resourcing,
				Reports:    app.Reports,
				Now:        app.Now,
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(h, app.Logger),
				ReadHeaderTimeout: app.Server.ReadTimeout,
				ReadTimeout:       app.Server.ReadTimeout,
				WriteTimeout:      app.Server.WriteTimeout,
			}
			return api.Serve(ctx, srv, app.Server.ShutdownTimeout, app.Logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", app.Server.Addr, "Listen address")
	return cmd
}
