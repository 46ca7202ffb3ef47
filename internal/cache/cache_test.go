package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/city-explorer/internal/cache"
	"github.com/neexbeast/city-explorer/internal/place"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func sampleWeather() []place.Weather {
	return []place.Weather{
		{ID: 1, Forecast: "Rain.", Time: "Fri Jul 14 2017", LocationID: 7},
		{ID: 2, Forecast: "Sun.", Time: "Sat Jul 15 2017", LocationID: 7},
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := cache.RecordsKey("weather", 7)

	require.NoError(t, c.Set(ctx, key, sampleWeather()))

	var got []place.Weather
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 2)
	assert.Equal(t, "Rain.", got[0].Forecast)
	assert.Equal(t, "Sat Jul 15 2017", got[1].Time)
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	var got place.Location
	hit, err := c.Get(context.Background(), cache.LocationKey("nowhere"), &got)
	require.NoError(t, err)
	assert.False(t, hit, "cache miss should return false, nil")
}

func TestCache_LocationKeyIsExact(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, cache.LocationKey("Paris"), place.Location{ID: 1, SearchQuery: "Paris"}))

	var got place.Location
	hit, err := c.Get(ctx, cache.LocationKey("paris"), &got)
	require.NoError(t, err)
	assert.False(t, hit, "keys are case sensitive like the store")
}

func TestCache_KeysDoNotCollideAcrossKinds(t *testing.T) {
	assert.NotEqual(t, cache.RecordsKey("weather", 1), cache.RecordsKey("movies", 1))
	assert.NotEqual(t, cache.RecordsKey("weather", 1), cache.RecordsKey("weather", 11))
}

func TestCache_NoExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := cache.RecordsKey("weather", 7)

	require.NoError(t, c.Set(ctx, key, sampleWeather()))
	assert.Zero(t, mr.TTL(key))

	mr.FastForward(30 * 24 * time.Hour)

	var got []place.Weather
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit, "memo entries never expire")
}

func TestCache_Get_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	key := cache.LocationKey("Paris")
	require.NoError(t, mr.Set(key, "{not json"))

	var got place.Location
	hit, err := c.Get(context.Background(), key, &got)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var got place.Location
	_, err := c.Get(context.Background(), cache.LocationKey("Paris"), &got)
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), cache.LocationKey("Paris"), got))
	require.Error(t, c.Ping(context.Background()))
}

func TestCache_Set_Unmarshalable(t *testing.T) {
	c, _ := newTestCache(t)
	err := c.Set(context.Background(), "k", make(chan int))
	require.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_OK(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()
}
