package cache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wayfarer/internal/cache"
	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/translate"
	"github.com/neexbeast/wayfarer/internal/weather"
)

var (
	paris = geo.Coordinate{Lat: 48.8566, Lon: 2.3522}
	day   = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
)

func fp(v float64) *float64 { return &v }

func discardLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func sampleForecast() *weather.Forecast {
	return &weather.Forecast{
		Daily: &weather.Summary{Date: "2025-06-02", TempMax: fp(27), PrecipProbability: fp(10), Description: "Clear sky"},
	}
}

func TestCache_WeatherSetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetWeather(ctx, paris, day, sampleForecast()))

	got, err := c.GetWeather(ctx, paris, day)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Daily)
	assert.Equal(t, 27.0, *got.Daily.TempMax)
	assert.Equal(t, "Clear sky", got.Daily.Description)
}

func TestCache_WeatherKeyRoundsCoordinates(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetWeather(ctx, paris, day, sampleForecast()))
	assert.True(t, mr.Exists("weather:48.8566,2.3522:2025-06-02"))

	nearby := geo.Coordinate{Lat: 48.85661, Lon: 2.35219}
	got, err := c.GetWeather(ctx, nearby, day)
	require.NoError(t, err)
	assert.NotNil(t, got)

	other, err := c.GetWeather(ctx, paris, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, other, "a different date must miss")
}

func TestCache_WeatherMiss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.GetWeather(context.Background(), paris, day)
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_WeatherNilIsNoop(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.SetWeather(context.Background(), paris, day, nil))
	assert.Empty(t, mr.Keys())
}

func TestCache_WeatherTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetWeather(ctx, paris, day, sampleForecast()))
	mr.FastForward(2 * time.Hour)

	got, err := c.GetWeather(ctx, paris, day)
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestCache_WeatherCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("weather:48.8566,2.3522:2025-06-02", "{broken"))

	_, err := c.GetWeather(context.Background(), paris, day)
	require.Error(t, err)
}

func TestCache_Translation(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	req := translate.Request{Text: "Buongiorno", Source: "it", Target: "en"}

	_, ok, err := c.GetTranslation(ctx, req)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetTranslation(ctx, req, "Good morning"))
	got, ok, err := c.GetTranslation(ctx, translate.Request{Text: " Buongiorno ", Source: "IT", Target: "EN"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Good morning", got)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Regexp(t, `^translation:it:en:[0-9a-f]{40}$`, keys[0])

	mr.FastForward(23 * time.Hour)
	_, ok, _ = c.GetTranslation(ctx, req)
	assert.True(t, ok)
	mr.FastForward(2 * time.Hour)
	_, ok, _ = c.GetTranslation(ctx, req)
	assert.False(t, ok)
}

func TestCache_TranslationEmptyNotStored(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.SetTranslation(context.Background(), translate.Request{Text: "x", Source: "it", Target: "en"}, ""))
	assert.Empty(t, mr.Keys())
}

func TestCache_BacksGateway(t *testing.T) {
	c, mr := newTestCache(t)
	g := translate.NewGateway(translate.Config{},
		translate.WithLogger(discardLog()),
		translate.WithCache(c),
		translate.WithProviders(stubProvider{text: "Thank you very much"}),
	)

	out := g.Do(context.Background(), translate.Request{Text: "Grazie mille", Source: "it", Target: "en"})
	assert.Equal(t, "Thank you very much", out.Text)
	assert.Len(t, mr.Keys(), 1)

	again := g.Do(context.Background(), translate.Request{Text: "Grazie mille", Source: "it", Target: "en"})
	assert.Equal(t, "cache", again.Source)
}

type stubProvider struct{ text string }

func (stubProvider) Name() string { return "stub" }

func (s stubProvider) Translate(context.Context, translate.Request) translate.Result {
	return translate.Ok(s.text)
}

type mockSource struct {
	calls      int
	forecastFn func(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error)
}

func (m *mockSource) Forecast(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error) {
	m.calls++
	return m.forecastFn(ctx, at, date)
}

func TestForecaster_CachesHits(t *testing.T) {
	c, _ := newTestCache(t)
	src := &mockSource{forecastFn: func(context.Context, geo.Coordinate, time.Time) (*weather.Forecast, error) {
		return sampleForecast(), nil
	}}
	f := cache.NewForecaster(c, src, discardLog())

	for i := 0; i < 3; i++ {
		fc, err := f.Forecast(context.Background(), paris, day)
		require.NoError(t, err)
		require.NotNil(t, fc.Daily)
	}
	assert.Equal(t, 1, src.calls)
}

func TestForecaster_EmptyForecastNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	src := &mockSource{forecastFn: func(context.Context, geo.Coordinate, time.Time) (*weather.Forecast, error) {
		return &weather.Forecast{}, nil
	}}
	f := cache.NewForecaster(c, src, discardLog())

	_, err := f.Forecast(context.Background(), paris, day)
	require.NoError(t, err)
	_, err = f.Forecast(context.Background(), paris, day)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
	assert.Empty(t, mr.Keys())
}

func TestForecaster_PartialForecastNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	src := &mockSource{}
	src.forecastFn = func(context.Context, geo.Coordinate, time.Time) (*weather.Forecast, error) {
		if src.calls == 1 {
			return &weather.Forecast{Dayparts: []weather.Daypart{{Key: weather.Morning, From: 6, To: 12}}}, nil
		}
		return &weather.Forecast{Daily: &weather.Summary{Date: "2025-06-02", PrecipProbability: fp(90)}}, nil
	}
	f := cache.NewForecaster(c, src, discardLog())

	first, err := f.Forecast(context.Background(), paris, day)
	require.NoError(t, err)
	assert.Nil(t, first.Daily)
	assert.Empty(t, mr.Keys())

	second, err := f.Forecast(context.Background(), paris, day)
	require.NoError(t, err)
	require.NotNil(t, second.Daily)
	assert.Equal(t, 90.0, *second.Daily.PrecipProbability)
	assert.Equal(t, 2, src.calls)
	assert.Len(t, mr.Keys(), 1)
}

func TestForecaster_SourceError(t *testing.T) {
	c, _ := newTestCache(t)
	src := &mockSource{forecastFn: func(context.Context, geo.Coordinate, time.Time) (*weather.Forecast, error) {
		return nil, errors.New("boom")
	}}

	_, err := cache.NewForecaster(c, src, discardLog()).Forecast(context.Background(), paris, day)
	require.Error(t, err)
}

func TestForecaster_RedisDownFallsThrough(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	src := &mockSource{forecastFn: func(context.Context, geo.Coordinate, time.Time) (*weather.Forecast, error) {
		return sampleForecast(), nil
	}}

	fc, err := cache.NewForecaster(c, src, discardLog()).Forecast(context.Background(), paris, day)
	require.NoError(t, err)
	assert.NotNil(t, fc.Daily)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

func TestPinger(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	p := cache.Pinger{Client: client}
	require.NoError(t, p.Ping(context.Background()))

	mr.Close()
	assert.Error(t, p.Ping(context.Background()))
}
