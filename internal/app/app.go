// Package app wires the workflow components from configuration.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/andresuchdata/driveup/internal/cache"
	"github.com/andresuchdata/driveup/internal/compress"
	"github.com/andresuchdata/driveup/internal/config"
	"github.com/andresuchdata/driveup/internal/drive"
	"github.com/andresuchdata/driveup/internal/fetch"
	"github.com/andresuchdata/driveup/internal/localstore"
	"github.com/andresuchdata/driveup/internal/storage"
	"github.com/andresuchdata/driveup/internal/workflow"
	"github.com/rs/zerolog/log"
)

// Remote is a provider that can both authenticate and upload.
type Remote interface {
	workflow.SessionManager
	workflow.Uploader
}

// Components are the concrete parts behind an Orchestrator. Callers that need
// more than the orchestrator (the CLI's download progress) reach in here.
type Components struct {
	Files       *localstore.Store
	Credentials *localstore.CredentialStore
	Fetcher     *fetch.Fetcher
	Remote      Remote
	Compressor  workflow.Compressor
	Cache       *cache.FolderCache
}

// Build assembles the orchestrator. The returned cleanup func releases the
// cache connection and is safe to call when caching is disabled.
func Build(cfg *config.Config) (*workflow.Orchestrator, *Components, func(), error) {
	files := localstore.New(cfg.App.DownloadDir)
	if err := files.EnsureDir(); err != nil {
		return nil, nil, nil, err
	}

	remote, err := NewRemote(cfg.Remote)
	if err != nil {
		return nil, nil, nil, err
	}

	compressor, err := NewCompressor(cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}

	folderCache, err := cache.NewFolderCache(cfg.Cache)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("folder cache: %w", err)
	}

	c := &Components{
		Files:       files,
		Credentials: localstore.NewCredentialStore(cfg.App.CredentialPath),
		Fetcher:     fetch.New(&http.Client{Timeout: time.Duration(cfg.App.HTTPTimeoutSeconds) * time.Second}, files.Dir, cfg.App.ChunkSize),
		Remote:      remote,
		Compressor:  compressor,
		Cache:       folderCache,
	}

	opts := workflow.Options{
		Fetcher:        c.Fetcher,
		Files:          c.Files,
		Credentials:    c.Credentials,
		CredentialPath: cfg.App.CredentialPath,
		Sessions:       remote,
		Uploader:       remote,
		Compressor:     compressor,
		RootFolderID:   cfg.Remote.RootFolderID,
	}
	// A nil *FolderCache must not end up inside the interface.
	if folderCache != nil {
		opts.Cache = folderCache
	}

	cleanup := func() {
		if folderCache == nil {
			return
		}
		if err := folderCache.Close(); err != nil {
			log.Warn().Err(err).Msg("closing folder cache")
		}
	}

	log.Info().
		Str("provider", cfg.Remote.Provider).
		Str("download_dir", files.Dir).
		Str("compressor", cfg.App.Compressor).
		Bool("cache", folderCache != nil).
		Msg("workflow ready")

	return workflow.New(opts), c, cleanup, nil
}

// NewRemote picks the provider implementation.
func NewRemote(cfg config.RemoteConfig) (Remote, error) {
	switch cfg.Provider {
	case "", config.ProviderDrive:
		return drive.NewService(cfg.DriveEndpoint), nil
	case config.ProviderS3:
		return storage.NewClient(), nil
	default:
		return nil, fmt.Errorf("unknown remote provider %q", cfg.Provider)
	}
}

func NewCompressor(cfg config.AppConfig) (workflow.Compressor, error) {
	switch cfg.Compressor {
	case "", config.CompressorPlaceholder:
		return compress.Placeholder{Size: cfg.PlaceholderSize}, nil
	case config.CompressorGzip:
		return compress.Gzip{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor %q", cfg.Compressor)
	}
}
