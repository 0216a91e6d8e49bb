package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/translate"
	"github.com/neexbeast/wayfarer/internal/weather"
)

const (
	defaultWeatherTTL     = time.Hour
	defaultTranslationTTL = 24 * time.Hour
)

// Cache wraps a Redis client and provides typed get/set for forecasts and
// translations.
type Cache struct {
	client         *redis.Client
	weatherTTL     time.Duration
	translationTTL time.Duration
}

// NewCache constructs a Cache with a 1-hour forecast TTL and a 24-hour
// translation TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, weatherTTL: defaultWeatherTTL, translationTTL: defaultTranslationTTL}
}

// weatherKey rounds coordinates to ~11 m so nearby requests share an entry.
func weatherKey(at geo.Coordinate, date time.Time) string {
	return fmt.Sprintf("weather:%.4f,%.4f:%s", at.Lat, at.Lon, date.Format("2006-01-02"))
}

func translationKey(r translate.Request) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(r.Text)))
	return fmt.Sprintf("translation:%s:%s:%s",
		strings.ToLower(strings.TrimSpace(r.Source)),
		strings.ToLower(strings.TrimSpace(r.Target)),
		hex.EncodeToString(sum[:]))
}

// GetWeather retrieves a cached forecast.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetWeather(ctx context.Context, at geo.Coordinate, date time.Time) (*weather.Forecast, error) {
	k := weatherKey(at, date)
	val, err := c.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get %s: %w", k, err)
	}

	var fc weather.Forecast
	if err := json.Unmarshal([]byte(val), &fc); err != nil {
		return nil, fmt.Errorf("unmarshaling cached forecast %s: %w", k, err)
	}

	return &fc, nil
}

// SetWeather stores a forecast with the forecast TTL.
func (c *Cache) SetWeather(ctx context.Context, at geo.Coordinate, date time.Time, fc *weather.Forecast) error {
	if fc == nil {
		return nil
	}

	k := weatherKey(at, date)
	b, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshaling forecast %s: %w", k, err)
	}

	if err := c.client.Set(ctx, k, b, c.weatherTTL).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", k, err)
	}

	return nil
}

// GetTranslation implements translate.Cache.
// A miss returns "", false, nil.
func (c *Cache) GetTranslation(ctx context.Context, r translate.Request) (string, bool, error) {
	k := translationKey(r)
	val, err := c.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache get %s: %w", k, err)
	}
	return val, true, nil
}

// SetTranslation implements translate.Cache.
func (c *Cache) SetTranslation(ctx context.Context, r translate.Request, text string) error {
	if text == "" {
		return nil
	}
	k := translationKey(r)
	if err := c.client.Set(ctx, k, text, c.translationTTL).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", k, err)
	}
	return nil
}
