package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	data, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	data, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)

	now = now.Add(time.Minute)
	data, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestViewCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewViewCache(NewMemoryStore(), time.Minute)

	type view struct {
		Total int `json:"total"`
	}

	key, err := Key(3, "MANAGER", map[string]string{"kind": "FLEET_SUMMARY"})
	require.NoError(t, err)

	var got view
	found, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, key, view{Total: 4}))
	found, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, got.Total)
}

func TestKeyDependsOnGenerationAndScope(t *testing.T) {
	req := map[string]string{"kind": "FLEET_SUMMARY"}
	a, err := Key(1, "MANAGER", req)
	require.NoError(t, err)
	b, err := Key(2, "MANAGER", req)
	require.NoError(t, err)
	c, err := Key(1, "ADMIN", req)
	require.NoError(t, err)
	again, err := Key(1, "MANAGER", req)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, again)
}
