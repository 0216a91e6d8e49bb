package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/neexbeast/wayfarer/internal/geo"
)

const (
	httpTimeout        = 10 * time.Second
	openMeteoDefault   = "https://api.open-meteo.com/v1/forecast"
	dateLayout         = "2006-01-02"
	openMeteoHourly    = "2006-01-02T15:04"
	dailyFields        = "temperature_2m_max,temperature_2m_min,precipitation_probability_max,precipitation_sum,weathercode"
	hourlyFields       = "temperature_2m,precipitation_probability,weathercode,windspeed_10m,relativehumidity_2m"
	defaultRequestRate = 5
)

// Client fetches forecasts from Open-Meteo. No API key is required; requests
// are paced by a token bucket so bursts of itinerary requests stay polite.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient constructs a Client against the public Open-Meteo endpoint.
// rps <= 0 selects the default pacing.
func NewClient(rps float64) *Client {
	return NewClientWithURL(openMeteoDefault, rps)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests).
func NewClientWithURL(baseURL string, rps float64) *Client {
	if rps <= 0 {
		rps = defaultRequestRate
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// doGet performs a paced GET request and decodes the JSON response into dst.
func (c *Client) doGet(ctx context.Context, rawURL string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("GET %s returned status %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	return nil
}

func (c *Client) endpoint(at geo.Coordinate, date time.Time, kind, fields string) string {
	d := date.Format(dateLayout)
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	q.Set(kind, fields)
	q.Set("timezone", "auto")
	q.Set("start_date", d)
	q.Set("end_date", d)
	return c.baseURL + "?" + q.Encode()
}

type dailyResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		TempMax     []*float64 `json:"temperature_2m_max"`
		TempMin     []*float64 `json:"temperature_2m_min"`
		PrecipProb  []*float64 `json:"precipitation_probability_max"`
		PrecipSum   []*float64 `json:"precipitation_sum"`
		WeatherCode []*float64 `json:"weathercode"`
	} `json:"daily"`
}

// Daily retrieves the daily summary for the given date.
func (c *Client) Daily(ctx context.Context, at geo.Coordinate, date time.Time) (*Summary, error) {
	var raw dailyResponse
	if err := c.doGet(ctx, c.endpoint(at, date, "daily", dailyFields), &raw); err != nil {
		return nil, fmt.Errorf("open-meteo daily for %s: %w", date.Format(dateLayout), err)
	}
	if len(raw.Daily.Time) == 0 {
		return nil, fmt.Errorf("open-meteo daily for %s: empty response", date.Format(dateLayout))
	}

	s := &Summary{
		Date:              raw.Daily.Time[0],
		TempMax:           first(raw.Daily.TempMax),
		TempMin:           first(raw.Daily.TempMin),
		PrecipProbability: first(raw.Daily.PrecipProb),
		PrecipSum:         first(raw.Daily.PrecipSum),
	}
	if code := first(raw.Daily.WeatherCode); code != nil {
		v := int(*code)
		s.ConditionCode = &v
		s.Description = DescribeCode(v)
	}

	return s, nil
}

type hourlyResponse struct {
	Hourly struct {
		Time        []string   `json:"time"`
		Temp        []*float64 `json:"temperature_2m"`
		PrecipProb  []*float64 `json:"precipitation_probability"`
		WeatherCode []*float64 `json:"weathercode"`
		WindSpeed   []*float64 `json:"windspeed_10m"`
		Humidity    []*float64 `json:"relativehumidity_2m"`
	} `json:"hourly"`
}

// Hourly retrieves the hourly series for the given date. Samples with an
// unparseable timestamp are skipped.
func (c *Client) Hourly(ctx context.Context, at geo.Coordinate, date time.Time) ([]Hour, error) {
	var raw hourlyResponse
	if err := c.doGet(ctx, c.endpoint(at, date, "hourly", hourlyFields), &raw); err != nil {
		return nil, fmt.Errorf("open-meteo hourly for %s: %w", date.Format(dateLayout), err)
	}

	h := raw.Hourly
	hours := make([]Hour, 0, len(h.Time))
	for i, ts := range h.Time {
		t, err := time.Parse(openMeteoHourly, ts)
		if err != nil {
			continue
		}
		sample := Hour{
			Time:              t,
			Hour:              t.Hour(),
			Temp:              valueAt(h.Temp, i),
			PrecipProbability: valueAt(h.PrecipProb, i),
			WindSpeed:         valueAt(h.WindSpeed, i),
			Humidity:          valueAt(h.Humidity, i),
		}
		if code := valueAt(h.WeatherCode, i); code != nil {
			v := int(*code)
			sample.ConditionCode = &v
		}
		hours = append(hours, sample)
	}

	return hours, nil
}

func first(vals []*float64) *float64 { return valueAt(vals, 0) }

func valueAt(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}
