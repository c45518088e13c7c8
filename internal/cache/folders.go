package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/driveup/internal/config"
	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const folderKeyPrefix = "driveup:folders:"

// FolderCache keeps folder listings in Redis. Entries are keyed by the session
// fingerprint so a new credential never sees listings made with an old one.
type FolderCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFolderCache connects to Redis. It returns (nil, nil) when caching is
// disabled.
func NewFolderCache(cfg config.CacheConfig) (*FolderCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	return &FolderCache{client: client, ttl: folderTTL(cfg.FolderTTLSeconds)}, nil
}

func folderKey(session domain.Session, rootID string) string {
	return fmt.Sprintf("%s%s:%s:%s", folderKeyPrefix, session.Provider(), session.Fingerprint(), rootID)
}

// Get returns the cached listing. A miss or a Redis failure reports false.
func (c *FolderCache) Get(ctx context.Context, session domain.Session, rootID string) ([]domain.RemoteFolder, bool) {
	raw, err := c.client.Get(ctx, folderKey(session, rootID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("folder cache read failed")
		}
		return nil, false
	}

	var folders []domain.RemoteFolder
	if err := json.Unmarshal(raw, &folders); err != nil {
		log.Warn().Err(err).Msg("folder cache entry is corrupt")
		return nil, false
	}
	return folders, true
}

// Set stores a listing. Failures are logged; the cache is best-effort.
func (c *FolderCache) Set(ctx context.Context, session domain.Session, rootID string, folders []domain.RemoteFolder) {
	raw, err := json.Marshal(folders)
	if err != nil {
		log.Warn().Err(err).Msg("folder cache encode failed")
		return
	}
	if err := c.client.Set(ctx, folderKey(session, rootID), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("folder cache write failed")
	}
}

// Invalidate drops every cached listing.
func (c *FolderCache) Invalidate(ctx context.Context) error {
	removed, err := unlinkPrefix(ctx, c.client, folderKeyPrefix)
	if err != nil {
		return err
	}
	log.Debug().Int("keys", removed).Msg("folder cache invalidated")
	return nil
}

func (c *FolderCache) Close() error {
	return c.client.Close()
}
