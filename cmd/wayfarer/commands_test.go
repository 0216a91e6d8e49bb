package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wayfarer/internal/config"
)

func envConfig(env map[string]string) func() (config.Config, error) {
	base := map[string]string{
		"LIBRETRANSLATE_ENDPOINTS": "none",
		"MYMEMORY_DISABLED":        "true",
	}
	for k, v := range env {
		base[k] = v
	}
	return func() (config.Config, error) {
		return config.FromEnv(func(k string) string { return base[k] })
	}
}

func run(t *testing.T, env map[string]string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(envConfig(env))
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// rainyOpenMeteo serves a wet day for any date.
func rainyOpenMeteo(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("start_date")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("daily") != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"daily": map[string]any{
					"time":                          []string{date},
					"temperature_2m_max":            []float64{18},
					"temperature_2m_min":            []float64{11},
					"precipitation_probability_max": []float64{80},
					"precipitation_sum":             []float64{6.5},
					"weathercode":                   []float64{63},
				},
			})
			return
		}
		times := make([]string, 24)
		temps := make([]float64, 24)
		codes := make([]int, 24)
		for h := range times {
			times[h] = fmt.Sprintf("%sT%02d:00", date, h)
			temps[h] = 11 + float64(h)/3
			codes[h] = 63
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{"time": times, "temperature_2m": temps, "weathercode": codes},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoute_GivenIDs(t *testing.T) {
	out, err := run(t, nil, "", "route", "--city", "roma", "rm-vaticani", "rm-pantheon")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1. Pantheon"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2. Musei Vaticani"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "total "), lines[2])
}

func TestRoute_WholeCityJSON(t *testing.T) {
	out, err := run(t, nil, "", "route", "--city", "paris", "--filter", "indoor", "--json")
	require.NoError(t, err)

	var route struct {
		Stops []struct {
			ID     string `json:"id"`
			Indoor bool   `json:"indoor"`
		} `json:"stops"`
		TotalKm float64 `json:"total_km"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &route))
	require.NotEmpty(t, route.Stops)
	for _, s := range route.Stops {
		assert.True(t, s.Indoor, s.ID)
	}
	assert.Greater(t, route.TotalKm, 0.0)
}

func TestRoute_Errors(t *testing.T) {
	_, err := run(t, nil, "", "route", "--city", "rome", "rm-nowhere")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, nil, "", "route", "--city", "atlantis")
	assert.Error(t, err)

	_, err = run(t, nil, "", "route", "--city", "rome", "--start", "41.9")
	assert.ErrorContains(t, err, "lat,lon")

	_, err = run(t, nil, "", "route", "rm-colosseo")
	assert.Error(t, err, "--city is required")
}

func TestSuggest_NoWeather(t *testing.T) {
	out, err := run(t, nil, "", "suggest", "--city", "rome", "--date", "2025-06-02", "--no-weather", "--days", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Roma, 2025-06-02")
	assert.Contains(t, out, "weather: no data")
	assert.NotContains(t, out, "bad weather")
	assert.Equal(t, 3, strings.Count(out, "day 1 "))
	assert.Equal(t, 3, strings.Count(out, "day 2 "))
}

func TestSuggest_ThreeDaysUsesWholeCity(t *testing.T) {
	out, err := run(t, nil, "", "suggest", "--city", "rome", "--date", "2025-06-02", "--no-weather", "--days", "3")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "day 1 "))
	assert.Equal(t, 3, strings.Count(out, "day 2 "))
	assert.Equal(t, 2, strings.Count(out, "day 3 "), "rome has eight places")
}

func TestSuggest_OnlySelected(t *testing.T) {
	out, err := run(t, nil, "", "suggest", "--city", "rome", "--date", "2025-06-02", "--no-weather",
		"--only", "rm-pantheon,rm-vaticani", "--prefer", "museum=1", "--json")
	require.NoError(t, err)

	var trip struct {
		Schedule []struct {
			POI struct {
				ID string `json:"id"`
			} `json:"poi"`
		} `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &trip))
	require.Len(t, trip.Schedule, 2)
	got := []string{trip.Schedule[0].POI.ID, trip.Schedule[1].POI.ID}
	assert.ElementsMatch(t, []string{"rm-pantheon", "rm-vaticani"}, got)
}

func TestSuggest_RainyDayPrefersIndoor(t *testing.T) {
	srv := rainyOpenMeteo(t)

	out, err := run(t, map[string]string{"WEATHER_BASE_URL": srv.URL}, "",
		"suggest", "--city", "rome", "--date", "2025-11-03", "--json")
	require.NoError(t, err)

	var plan struct {
		BadWeather bool `json:"bad_weather"`
		Schedule   []struct {
			POI struct {
				Indoor bool `json:"indoor"`
			} `json:"poi"`
		} `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.True(t, plan.BadWeather)
	require.Len(t, plan.Schedule, 3)
}

func TestSuggest_BadInputs(t *testing.T) {
	_, err := run(t, nil, "", "suggest", "--city", "rome", "--date", "June 2nd")
	assert.ErrorContains(t, err, "YYYY-MM-DD")

	_, err = run(t, nil, "", "suggest", "--city", "rome", "--days", "0", "--no-weather")
	assert.ErrorContains(t, err, "days")

	_, err = run(t, nil, "", "suggest", "--city", "rome", "--filter", "sideways", "--no-weather")
	assert.Error(t, err)

	_, err = run(t, nil, "", "suggest", "--city", "rome", "--prefer", "opera=1", "--no-weather")
	assert.ErrorContains(t, err, "unknown category")

	_, err = run(t, nil, "", "suggest", "--city", "rome", "--prefer", "park=lots", "--no-weather")
	assert.ErrorContains(t, err, "weight for park")
}

func TestWeather_Text(t *testing.T) {
	srv := rainyOpenMeteo(t)

	out, err := run(t, map[string]string{"WEATHER_BASE_URL": srv.URL}, "",
		"weather", "--city", "londra", "--date", "2025-11-03")
	require.NoError(t, err)

	assert.Contains(t, out, "Londra, 2025-11-03")
	assert.Contains(t, out, "rain 80%")
	for _, key := range []string{"night", "morning", "afternoon", "evening"} {
		assert.Contains(t, out, key)
	}
}

func TestWeather_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := run(t, map[string]string{"WEATHER_BASE_URL": srv.URL}, "",
		"weather", "--city", "paris", "--date", "2025-11-03")
	assert.ErrorContains(t, err, "no weather data")
}

func TestTranslate_Phrasebook(t *testing.T) {
	out, err := run(t, nil, "", "translate", "--from", "it", "--to", "de", "Grazie!")
	require.NoError(t, err)
	assert.Equal(t, "Danke\n", out)
}

func TestTranslate_NoProvidersReturnsInput(t *testing.T) {
	out, err := run(t, nil, "", "translate", "--from", "it", "--to", "en", "Dov'è", "il", "museo?")
	require.NoError(t, err)
	assert.Equal(t, "Dov'è il museo?\n", out)
}

func TestTranslate_StdinBatch(t *testing.T) {
	out, err := run(t, nil, "Ciao\nGrazie\n\n", "translate", "--from", "it", "--to", "en", "-")
	require.NoError(t, err)
	assert.Equal(t, "Hello\nThank you\n\n", out)
}

func TestTranslate_SpeakWithoutTTSIsHarmless(t *testing.T) {
	out, err := run(t, nil, "", "translate", "--from", "it", "--to", "en", "--speak", "Ciao")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)
}

func TestTranslate_RequiresTarget(t *testing.T) {
	_, err := run(t, nil, "", "translate", "Ciao")
	assert.Error(t, err)
}

func TestPhrases_Paired(t *testing.T) {
	out, err := run(t, nil, "", "phrases", "--lang", "it", "--to", "en", "--category", "greetings")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Ciao → Hello")
}

func TestPhrases_UnknownLanguage(t *testing.T) {
	_, err := run(t, nil, "", "phrases", "--lang", "ja")
	assert.ErrorContains(t, err, "no phrases")
}

func TestConfigError(t *testing.T) {
	_, err := run(t, map[string]string{"TRANSLATE_PROVIDER": "babelfish"}, "", "phrases")
	assert.ErrorContains(t, err, "loading config")
}
