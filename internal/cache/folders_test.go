package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andresuchdata/driveup/internal/config"
	"github.com/andresuchdata/driveup/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct{ fp string }

func (s stubSession) Provider() string    { return "drive" }
func (s stubSession) Fingerprint() string { return s.fp }

func TestFolderKey(t *testing.T) {
	key := folderKey(stubSession{fp: "abc"}, "root-1")
	assert.Equal(t, "driveup:folders:drive:abc:root-1", key)
	assert.NotEqual(t, key, folderKey(stubSession{fp: "def"}, "root-1"))
}

func TestNewFolderCache_Disabled(t *testing.T) {
	c, err := NewFolderCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", opts.Addr)

	opts, err = redisOptions(config.CacheConfig{RedisURL: "redis://:secret@redis.local:6379/3"})
	require.NoError(t, err)
	assert.Equal(t, "redis.local:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = redisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestFolderTTL(t *testing.T) {
	assert.Equal(t, time.Minute, folderTTL(0))
	assert.Equal(t, 30*time.Second, folderTTL(30))
}

func newMiniredisCache(t *testing.T) (*FolderCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewFolderCache(config.CacheConfig{
		Enabled:          true,
		RedisHost:        mr.Host(),
		RedisPort:        mr.Port(),
		FolderTTLSeconds: 30,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestFolderCache_RoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()
	session := stubSession{fp: "abc"}

	_, ok := c.Get(ctx, session, "root-1")
	assert.False(t, ok)

	folders := []domain.RemoteFolder{{ID: "f1", Name: "Clips"}, {ID: "f2", Name: "Raw"}}
	c.Set(ctx, session, "root-1", folders)

	got, ok := c.Get(ctx, session, "root-1")
	require.True(t, ok)
	assert.Equal(t, folders, got)

	_, ok = c.Get(ctx, stubSession{fp: "other"}, "root-1")
	assert.False(t, ok)

	key := folderKey(session, "root-1")
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	mr.FastForward(31 * time.Second)
	_, ok = c.Get(ctx, session, "root-1")
	assert.False(t, ok)
}

func TestFolderCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newMiniredisCache(t)
	session := stubSession{fp: "abc"}

	require.NoError(t, mr.Set(folderKey(session, "root-1"), "not json"))

	_, ok := c.Get(context.Background(), session, "root-1")
	assert.False(t, ok)
}

func TestFolderCache_Invalidate(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		c.Set(ctx, stubSession{fp: fmt.Sprintf("fp-%d", i)}, "root-1", []domain.RemoteFolder{{ID: "f1", Name: "Clips"}})
	}
	require.NoError(t, mr.Set("unrelated:key", "keep"))

	require.NoError(t, c.Invalidate(ctx))

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, folderKeyPrefix)
	}
	assert.True(t, mr.Exists("unrelated:key"))
}

func TestNewFolderCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := NewFolderCache(config.CacheConfig{Enabled: true, RedisHost: host, RedisPort: port})
	assert.ErrorContains(t, err, "redis ping failed")
}

func TestUnlinkPrefix_CountsRemovedKeys(t *testing.T) {
	c, mr := newMiniredisCache(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("%sdrive:fp:%d", folderKeyPrefix, i), "[]"))
	}

	removed, err := unlinkPrefix(context.Background(), c.client, folderKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	removed, err = unlinkPrefix(context.Background(), c.client, folderKeyPrefix)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
