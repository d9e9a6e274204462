package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mymanga/internal/buildinfo"
	"mymanga/internal/config"
	"mymanga/internal/logger"
	"mymanga/internal/preferences"
	"mymanga/internal/reader"
	"mymanga/internal/store"
	"mymanga/internal/title"
	"mymanga/internal/web"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search, title and reader API",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		// read config
		cfg := config.New(configPath, buildinfo.Version)

		// init new logger
		log := logger.New(cfg.Config)

		if err := cfg.UpdateConfig(); err != nil {
			log.Error().Err(err).Msgf("error updating config")
		}

		// init dynamic config
		cfg.DynamicReload(log)

		if cmd.Flags().Changed("host") {
			cfg.Config.Host = host
		}
		if cmd.Flags().Changed("port") {
			cfg.Config.Port = port
		}

		zl := log.With().Logger()

		kv, err := store.New(ctx, cfg.Config)
		if err != nil {
			log.Fatal().Err(err).Msgf("could not open %s storage", cfg.Config.Storage)
		}
		defer func() {
			if err := kv.Close(); err != nil {
				log.Error().Err(err).Msg("error closing storage")
			}
		}()

		catalog := newCatalog(cfg.Config, zl)

		srv := web.NewServer(zl, web.Options{
			Catalog:        catalog,
			Titles:         title.NewService(catalog, zl),
			Chapters:       reader.NewResolver(catalog, zl),
			Preferences:    preferences.NewService(kv, zl),
			Exporter:       newDownloader(cfg.Config, zl),
			NamingTemplate: cfg.Config.NamingTemplate,
			PageSize:       cfg.Config.PageSize,
			Debounce:       time.Duration(cfg.Config.DebounceMs) * time.Millisecond,
			Version:        buildinfo.Version,
		})

		httpServer := &http.Server{
			Addr:              net.JoinHostPort(cfg.Config.Host, strconv.Itoa(cfg.Config.Port)),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msgf("starting server on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		// set up a channel to catch signals for graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info().Msgf("received signal: %s, shutting down server", sig)
		case err := <-errCh:
			log.Error().Err(err).Msg("server stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down server")
		}
	},
}
