package cmd

import (
	"time"

	"mymanga/internal/domain"
	"mymanga/internal/download"
	"mymanga/internal/sharedhttp"
	"mymanga/internal/source"

	"github.com/rs/zerolog"
)

func retryPolicy(cfg *domain.Config) sharedhttp.RetryPolicy {
	policy := sharedhttp.DefaultRetry
	if cfg.RetryAttempts > 0 {
		policy.Attempts = uint(cfg.RetryAttempts)
	}
	if cfg.RetryDelay > 0 {
		policy.Delay = time.Duration(cfg.RetryDelay) * time.Second
	}
	return policy
}

// newCatalog builds the MangaDex client from the configured endpoints.
func newCatalog(cfg *domain.Config, log zerolog.Logger) *source.Mangadex {
	md := source.NewMangadex()
	if cfg.APIURL != "" {
		md.BaseURL = cfg.APIURL
	}
	if cfg.UploadsURL != "" {
		md.UploadsURL = cfg.UploadsURL
	}
	if cfg.UserAgent != "" {
		md.UserAgent = cfg.UserAgent
	}
	md.Retry = retryPolicy(cfg)
	md.Log = log.With().Str("source", md.String()).Logger()

	return md
}

func newDownloader(cfg *domain.Config, log zerolog.Logger) *download.Downloader {
	d := download.New(cfg.UserAgent, log)
	d.Retry = retryPolicy(cfg)
	return d
}
