package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/itinerary"
	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/translate"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 64 << 10
	maxBatch     = 50
	maxRoutePts  = 100
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	catalog    Catalog
	weather    WeatherSource
	planner    Planner
	translator Translator
	log        *slog.Logger
	now        func() time.Time
}

// NewHandlers constructs Handlers with all required dependencies. A nil
// WeatherSource makes the weather endpoint report 503.
func NewHandlers(catalog Catalog, ws WeatherSource, planner Planner, translator Translator, log *slog.Logger) *Handlers {
	return &Handlers{
		catalog:    catalog,
		weather:    ws,
		planner:    planner,
		translator: translator,
		log:        log,
		now:        time.Now,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// cityParam resolves {city}, writing 404 when it is not supported.
func cityParam(w http.ResponseWriter, r *http.Request) (poi.City, bool) {
	city, err := poi.ParseCity(chi.URLParam(r, "city"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return city, true
}

// dateParam parses ?date=YYYY-MM-DD, defaulting to today (UTC).
func (h *Handlers) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	v := r.URL.Query().Get("date")
	if v == "" {
		now := h.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func filterParam(w http.ResponseWriter, r *http.Request) (poi.Filter, bool) {
	f, err := poi.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return f, true
}

// startParam parses the optional ?lat=&lon= pair.
func startParam(w http.ResponseWriter, r *http.Request) (*geo.Coordinate, bool) {
	q := r.URL.Query()
	latS, lonS := q.Get("lat"), q.Get("lon")
	if latS == "" && lonS == "" {
		return nil, true
	}

	lat, latErr := strconv.ParseFloat(latS, 64)
	lon, lonErr := strconv.ParseFloat(lonS, 64)
	c := geo.Coordinate{Lat: lat, Lon: lon}
	if latErr != nil || lonErr != nil || !validCoordinate(c) {
		writeError(w, http.StatusBadRequest, "lat and lon must be given together as valid degrees")
		return nil, false
	}
	return &c, true
}

func validCoordinate(c geo.Coordinate) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// ListCities handles GET /api/v1/cities.
func (h *Handlers) ListCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, poi.Cities())
}

// ListPOIs handles GET /api/v1/cities/{city}/pois.
func (h *Handlers) ListPOIs(w http.ResponseWriter, r *http.Request) {
	city, ok := cityParam(w, r)
	if !ok {
		return
	}
	filter, ok := filterParam(w, r)
	if !ok {
		return
	}

	pois, err := h.catalog.List(r.Context(), city)
	if err != nil {
		h.log.Error("catalog list failed", "city", city, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, poi.ApplyFilter(pois, filter))
}

// GetWeather handles GET /api/v1/cities/{city}/weather.
// Returns the daily summary and dayparts for the city centre.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, ok := cityParam(w, r)
	if !ok {
		return
	}
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	if h.weather == nil {
		writeError(w, http.StatusServiceUnavailable, "weather is not configured")
		return
	}

	info, _ := city.Info()
	fc, err := h.weather.Forecast(r.Context(), info.Center, date)
	if err != nil {
		h.log.Error("forecast failed", "city", city, "date", date.Format(dateLayout), "err", err)
		writeError(w, http.StatusBadGateway, "weather unavailable")
		return
	}
	if fc == nil || (fc.Daily == nil && len(fc.Dayparts) == 0) {
		writeError(w, http.StatusBadGateway, "no weather data")
		return
	}

	writeJSON(w, http.StatusOK, fc)
}

// Plan handles GET /api/v1/cities/{city}/plan.
func (h *Handlers) Plan(w http.ResponseWriter, r *http.Request) {
	city, ok := cityParam(w, r)
	if !ok {
		return
	}
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}
	filter, ok := filterParam(w, r)
	if !ok {
		return
	}
	start, ok := startParam(w, r)
	if !ok {
		return
	}

	it, err := h.planner.Plan(r.Context(), itinerary.PlanRequest{City: city, Date: date, Filter: filter, Start: start})
	if err != nil {
		if errors.Is(err, poi.ErrUnknownCity) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error("planning failed", "city", city, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, it)
}

// RouteRequest is the body of POST /api/v1/route. Exactly one of POIs and
// Points must be set. POIs are catalog ids in City; Start defaults to the
// city centre when City is given.
type RouteRequest struct {
	City   string           `json:"city,omitempty"`
	Start  *geo.Coordinate  `json:"start,omitempty"`
	POIs   []string         `json:"pois,omitempty"`
	Points []geo.Coordinate `json:"points,omitempty"`
}

// Route handles POST /api/v1/route.
func (h *Handlers) Route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if (len(req.POIs) == 0) == (len(req.Points) == 0) {
		writeError(w, http.StatusBadRequest, "exactly one of pois and points is required")
		return
	}
	if len(req.POIs)+len(req.Points) > maxRoutePts {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d stops per route", maxRoutePts))
		return
	}

	var city poi.City
	if req.City != "" {
		c, err := poi.ParseCity(req.City)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		city = c
	}

	start, ok := routeStart(w, req.Start, city)
	if !ok {
		return
	}

	if len(req.Points) > 0 {
		for _, p := range req.Points {
			if !validCoordinate(p) {
				writeError(w, http.StatusBadRequest, "points must be valid degrees")
				return
			}
		}
		writeJSON(w, http.StatusOK, geo.NearestNeighbor(start, req.Points))
		return
	}

	if city == "" {
		writeError(w, http.StatusBadRequest, "city is required with pois")
		return
	}
	stops, status, err := h.lookupPOIs(r.Context(), city, req.POIs)
	if err != nil {
		if status == http.StatusInternalServerError {
			h.log.Error("catalog get failed", "city", city, "err", err)
			writeError(w, status, "internal server error")
			return
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, geo.NearestNeighbor(start, stops))
}

func routeStart(w http.ResponseWriter, start *geo.Coordinate, city poi.City) (geo.Coordinate, bool) {
	if start != nil {
		if !validCoordinate(*start) {
			writeError(w, http.StatusBadRequest, "start must be valid degrees")
			return geo.Coordinate{}, false
		}
		return *start, true
	}
	if info, ok := city.Info(); ok {
		return info.Center, true
	}
	writeError(w, http.StatusBadRequest, "start is required without a city")
	return geo.Coordinate{}, false
}

func (h *Handlers) lookupPOIs(ctx context.Context, city poi.City, ids []string) ([]poi.PointOfInterest, int, error) {
	stops := make([]poi.PointOfInterest, 0, len(ids))
	for _, id := range ids {
		p, err := h.catalog.Get(ctx, city, id)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		if p == nil {
			return nil, http.StatusNotFound, fmt.Errorf("poi %q not found in %s", id, city)
		}
		stops = append(stops, *p)
	}
	return stops, http.StatusOK, nil
}

// TranslateRequest is the body of POST /api/v1/translate. Set Text for a
// single line or Texts for a batch. Source defaults to auto-detection.
type TranslateRequest struct {
	Text   string   `json:"text,omitempty"`
	Texts  []string `json:"texts,omitempty"`
	Source string   `json:"source,omitempty"`
	Target string   `json:"target"`
}

// TranslateBatchResponse is the reply to a batch request.
type TranslateBatchResponse struct {
	Texts []string `json:"texts"`
}

// Translate handles POST /api/v1/translate. Provider failures never surface
// as errors: the reply carries the input text instead.
func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Target) == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}
	if _, err := translate.NormalizeLang(req.Target); err != nil || strings.EqualFold(req.Target, translate.Auto) {
		writeError(w, http.StatusBadRequest, "target must be a language code")
		return
	}
	if req.Source == "" {
		req.Source = translate.Auto
	}
	if _, err := translate.NormalizeLang(req.Source); err != nil {
		writeError(w, http.StatusBadRequest, "source must be a language code or auto")
		return
	}

	if req.Texts != nil {
		if req.Text != "" {
			writeError(w, http.StatusBadRequest, "set text or texts, not both")
			return
		}
		if len(req.Texts) > maxBatch {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d texts per batch", maxBatch))
			return
		}
		out := h.translator.TranslateBatch(r.Context(), req.Texts, req.Source, req.Target)
		writeJSON(w, http.StatusOK, TranslateBatchResponse{Texts: out})
		return
	}

	out := h.translator.Do(r.Context(), translate.Request{Text: req.Text, Source: req.Source, Target: req.Target})
	writeJSON(w, http.StatusOK, out)
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
// Returns 200 if every configured backend answers, 503 otherwise.
func HealthHandlerFunc(db, redis Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		healthy := true
		check := func(name string, p Pinger) string {
			if p == nil {
				return "disabled"
			}
			if err := p.Ping(ctx); err != nil {
				log.Error("health check: ping failed", "backend", name, "err", err)
				healthy = false
				return "error"
			}
			return "ok"
		}

		body := map[string]string{
			"db":    check("db", db),
			"redis": check("redis", redis),
		}

		status := http.StatusOK
		body["status"] = "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}

		writeJSON(w, status, body)
	}
}
