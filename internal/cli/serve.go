package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/adnumaro/storyarn/internal/api"
	"github.com/adnumaro/storyarn/pkg/flowlock"
	"github.com/adnumaro/storyarn/pkg/syncer"
)

// newServeCmd creates the serve command running the HTTP API.
func newServeCmd(config configFn) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			st, save, shutdown, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			logger := loggerFromContext(ctx)

			var locker flowlock.Locker = flowlock.NewLocal()
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
				defer client.Close()
				locker = flowlock.NewRedis(client, cfg.Redis.LockTTL())
				logger.Debug("using redis flow locker", "addr", cfg.Redis.Addr)
			}

			s := syncer.New(st, syncer.WithLogger(logger))
			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.New(st, s, locker, logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Infof("Listening on %s", cfg.Server.Addr)
				errc <- server.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}
			return save()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
