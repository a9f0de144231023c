package cache_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/divelog/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("not found")

// --- fakes ---

type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return false, c.setErr
	}
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return true, nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Ping(_ context.Context) error { return nil }

func (c *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

type memBackend struct {
	records map[string][]byte
	reads   int
	saveErr error
	// afterRead runs once between the backend read and its return.
	afterRead func()
}

func (b *memBackend) GetDiveInsight(_ context.Context, userID uuid.UUID, diveID string) ([]byte, error) {
	b.reads++
	v, ok := b.records[userID.String()+diveID]
	if hook := b.afterRead; hook != nil {
		b.afterRead = nil
		hook()
	}
	if !ok {
		return nil, errNotFound
	}
	return v, nil
}

func (b *memBackend) SaveDiveInsight(_ context.Context, userID uuid.UUID, diveID string, record []byte) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.records[userID.String()+diveID] = record
	return nil
}

func newInsightStore(b *memBackend, c *memCache) *cache.InsightStore {
	return cache.NewInsightStore(b, c, time.Hour, slog.New(slog.DiscardHandler))
}

// --- tests ---

func TestInsightStore_ReadThrough(t *testing.T) {
	user := uuid.New()
	b := &memBackend{records: map[string][]byte{user.String() + "d1": []byte(`{"a":1}`)}}
	c := newMemCache()
	s := newInsightStore(b, c)

	for i := 0; i < 3; i++ {
		raw, err := s.GetDiveInsight(context.Background(), user, "d1")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(raw))
	}
	assert.Equal(t, 1, b.reads)
	assert.Equal(t, time.Hour, c.ttls[cache.DiveInsightKey(user, "d1")])
}

func TestInsightStore_BackendMissPassesThrough(t *testing.T) {
	s := newInsightStore(&memBackend{records: map[string][]byte{}}, newMemCache())

	_, err := s.GetDiveInsight(context.Background(), uuid.New(), "d1")
	assert.ErrorIs(t, err, errNotFound)
}

func TestInsightStore_CacheErrorFallsBackToBackend(t *testing.T) {
	user := uuid.New()
	b := &memBackend{records: map[string][]byte{user.String() + "d1": []byte(`{"a":1}`)}}
	c := newMemCache()
	c.getErr = errors.New("redis down")
	c.setErr = errors.New("redis down")
	s := newInsightStore(b, c)

	raw, err := s.GetDiveInsight(context.Background(), user, "d1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))

	require.NoError(t, s.SaveDiveInsight(context.Background(), user, "d1", []byte(`{"a":2}`)))
	assert.Equal(t, `{"a":2}`, string(b.records[user.String()+"d1"]))
}

func TestInsightStore_SaveMirrorsAfterBackend(t *testing.T) {
	user := uuid.New()
	b := &memBackend{records: map[string][]byte{}}
	c := newMemCache()
	s := newInsightStore(b, c)

	require.NoError(t, s.SaveDiveInsight(context.Background(), user, "d1", []byte(`{"v":1}`)))
	require.NoError(t, s.SaveDiveInsight(context.Background(), user, "d1", []byte(`{"v":2}`)))

	raw, err := s.GetDiveInsight(context.Background(), user, "d1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(raw))
	assert.Equal(t, 0, b.reads)
}

func TestInsightStore_BackendSaveErrorSkipsCache(t *testing.T) {
	user := uuid.New()
	b := &memBackend{records: map[string][]byte{}, saveErr: errors.New("db down")}
	c := newMemCache()
	s := newInsightStore(b, c)

	err := s.SaveDiveInsight(context.Background(), user, "d1", []byte(`{"v":1}`))
	require.Error(t, err)
	_, found, _ := c.Get(context.Background(), cache.DiveInsightKey(user, "d1"))
	assert.False(t, found)
}

func TestInsightStore_FailedMirrorInvalidates(t *testing.T) {
	user := uuid.New()
	key := cache.DiveInsightKey(user, "d1")
	b := &memBackend{records: map[string][]byte{}}
	c := newMemCache()
	c.data[key] = []byte(`{"v":"old"}`)
	c.setErr = errors.New("oom")
	s := newInsightStore(b, c)

	require.NoError(t, s.SaveDiveInsight(context.Background(), user, "d1", []byte(`{"v":"new"}`)))
	_, found, _ := c.Get(context.Background(), key)
	assert.False(t, found)
}

func TestInsightStore_FillDoesNotOverwriteConcurrentSave(t *testing.T) {
	user := uuid.New()
	key := cache.DiveInsightKey(user, "d1")
	b := &memBackend{records: map[string][]byte{user.String() + "d1": []byte(`{"v":"old"}`)}}
	c := newMemCache()
	s := newInsightStore(b, c)

	b.afterRead = func() {
		require.NoError(t, s.SaveDiveInsight(context.Background(), user, "d1", []byte(`{"v":"new"}`)))
	}

	raw, err := s.GetDiveInsight(context.Background(), user, "d1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"old"}`, string(raw))

	cached, found, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"v":"new"}`, string(cached))

	raw, err = s.GetDiveInsight(context.Background(), user, "d1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"new"}`, string(raw))
	assert.Equal(t, 1, b.reads)
}
