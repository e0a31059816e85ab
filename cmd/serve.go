package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/adpulse/internal/dashboard"
	"github.com/sells-group/adpulse/internal/loader"
	"github.com/sells-group/adpulse/internal/server"
)

var (
	servePort    int
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long:  "Loads the configured CSV sources, then serves the dashboard sections as JSON plus CSV/XLSX exports. With watching enabled the snapshot is rebuilt whenever a source file changes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		refresher := server.NewRefresher(loader.New(), cfg.Data, st, &server.Holder{})
		if _, err := refresher.Refresh(ctx); err != nil {
			// Serve anyway: the health endpoint reports the load error and a
			// later refresh can recover once the file is fixed.
			zap.L().Error("initial load failed", zap.Error(err))
		}

		if cfg.Data.Watch && !serveNoWatch {
			paths := []string{cfg.Data.Business}
			for _, p := range cfg.Data.Platforms {
				paths = append(paths, p)
			}
			w, err := loader.NewWatcher(paths)
			if err != nil {
				return err
			}
			defer w.Close() //nolint:errcheck
			go w.Run(ctx, func(path string) {
				zap.L().Info("source changed", zap.String("path", path))
				if _, err := refresher.Refresh(ctx); err != nil {
					zap.L().Error("refresh failed", zap.Error(err))
				}
			})
		}

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}

		builder := dashboard.NewBuilder(cfg.Dashboard)
		return server.New(serverCfg, builder, refresher, st).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "disable source file watching")
	rootCmd.AddCommand(serveCmd)
}
