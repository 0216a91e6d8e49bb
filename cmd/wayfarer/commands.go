package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neexbeast/wayfarer/internal/config"
	"github.com/neexbeast/wayfarer/internal/geo"
	"github.com/neexbeast/wayfarer/internal/itinerary"
	"github.com/neexbeast/wayfarer/internal/poi"
	"github.com/neexbeast/wayfarer/internal/speech"
	"github.com/neexbeast/wayfarer/internal/translate"
	"github.com/neexbeast/wayfarer/internal/weather"
)

const dateLayout = "2006-01-02"

// app carries state shared by all subcommands.
type app struct {
	load    func() (config.Config, error)
	cfg     config.Config
	log     *slog.Logger
	catalog poi.Catalog
	now     func() time.Time

	jsonOut bool
	verbose bool
}

func newRootCmd(load func() (config.Config, error)) *cobra.Command {
	a := &app{load: load, catalog: poi.NewStaticCatalog(), now: time.Now}

	root := &cobra.Command{
		Use:           "wayfarer",
		Short:         "Walking routes, day plans and phrase translation for city trips",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			a.cfg = cfg

			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print JSON instead of text")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logs")

	root.AddCommand(
		a.routeCmd(),
		a.suggestCmd(),
		a.weatherCmd(),
		a.translateCmd(),
		a.phrasesCmd(),
	)
	return root
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) parseDate(s string) (time.Time, error) {
	if s == "" || s == "today" {
		now := a.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if s == "tomorrow" {
		d, _ := a.parseDate("today")
		return d.AddDate(0, 0, 1), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD, today or tomorrow", s)
	}
	return d, nil
}

// parseCoordinate reads "lat,lon".
func parseCoordinate(s string) (geo.Coordinate, error) {
	latS, lonS, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("coordinate %q: want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return geo.Coordinate{}, fmt.Errorf("coordinate %q: out of range", s)
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}

func (a *app) weatherSource() *weather.Forecaster {
	var c *weather.Client
	if a.cfg.WeatherBaseURL != "" {
		c = weather.NewClientWithURL(a.cfg.WeatherBaseURL, a.cfg.WeatherRPS)
	} else {
		c = weather.NewClient(a.cfg.WeatherRPS)
	}
	return weather.NewForecaster(c, a.log)
}

func (a *app) routeCmd() *cobra.Command {
	var cityArg, startArg, filterArg string

	cmd := &cobra.Command{
		Use:   "route [poi-id...]",
		Short: "Order POIs into a nearest-neighbour walking tour",
		Long: "Orders the given POIs (or every POI of the city matching --filter) " +
			"by repeatedly walking to the closest unvisited one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			city, err := poi.ParseCity(cityArg)
			if err != nil {
				return err
			}
			filter, err := poi.ParseFilter(filterArg)
			if err != nil {
				return err
			}
			info, _ := city.Info()
			start := info.Center
			if startArg != "" {
				if start, err = parseCoordinate(startArg); err != nil {
					return err
				}
			}

			var stops []poi.PointOfInterest
			if len(args) == 0 {
				all, err := a.catalog.List(cmd.Context(), city)
				if err != nil {
					return err
				}
				stops = poi.ApplyFilter(all, filter)
			}
			for _, id := range args {
				p, err := a.catalog.Get(cmd.Context(), city, id)
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("poi %q not found in %s", id, city)
				}
				stops = append(stops, *p)
			}

			route := geo.NearestNeighbor(start, stops)
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, route)
			}
			for i, s := range route.Stops {
				fmt.Fprintf(out, "%d. %s (%s)  +%.2f km\n", i+1, s.Name, s.Category, route.Legs[i].DistanceKm)
			}
			fmt.Fprintf(out, "total %.2f km\n", route.TotalKm)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cityArg, "city", "c", "", "City key or label (rome, paris, london)")
	cmd.Flags().StringVarP(&startArg, "start", "s", "", "Start as lat,lon (default: city centre)")
	cmd.Flags().StringVarP(&filterArg, "filter", "f", "all", "all, indoor or outdoor (when no ids are given)")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	var cityArg, dateArg, filterArg, startArg string
	var days int
	var noWeather bool
	var preferArg map[string]string
	var onlyArg []string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Plan a weather-aware day (or several) in a city",
		RunE: func(cmd *cobra.Command, _ []string) error {
			city, err := poi.ParseCity(cityArg)
			if err != nil {
				return err
			}
			date, err := a.parseDate(dateArg)
			if err != nil {
				return err
			}
			filter, err := poi.ParseFilter(filterArg)
			if err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("days must be at least 1")
			}
			prefs, err := parsePreferences(preferArg)
			if err != nil {
				return err
			}
			req := itinerary.PlanRequest{City: city, Date: date, Filter: filter, Prefs: prefs, Selected: onlyArg}
			if startArg != "" {
				start, err := parseCoordinate(startArg)
				if err != nil {
					return err
				}
				req.Start = &start
			}

			var ws itinerary.WeatherSource
			if !noWeather {
				ws = a.weatherSource()
			}
			trip, err := itinerary.NewPlanner(a.catalog, ws, itinerary.DefaultPolicy(), a.log).PlanTrip(cmd.Context(), req, days)
			if err != nil {
				return err
			}
			it := trip.Itinerary

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, trip)
			}

			info, _ := city.Info()
			fmt.Fprintf(out, "%s, %s\n", info.Label, it.Date)
			if it.Weather != nil && it.Weather.Daily != nil {
				fmt.Fprintf(out, "weather: %s\n", describeDay(it.Weather.Daily))
			} else {
				fmt.Fprintln(out, "weather: no data")
			}
			if it.BadWeather {
				fmt.Fprintln(out, "bad weather: indoor places first")
			}
			for _, s := range trip.Schedule {
				fmt.Fprintf(out, "day %d %-9s %s (%s)\n", s.Day, s.Period, s.POI.Name, s.POI.Category)
			}
			fmt.Fprintf(out, "walk %.2f km\n", it.TotalKm)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cityArg, "city", "c", "", "City key or label (rome, paris, london)")
	cmd.Flags().StringVarP(&dateArg, "date", "d", "today", "Date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVarP(&filterArg, "filter", "f", "all", "all, indoor or outdoor")
	cmd.Flags().StringVarP(&startArg, "start", "s", "", "Start as lat,lon (default: city centre)")
	cmd.Flags().IntVar(&days, "days", 1, "Spread the trip over this many days")
	cmd.Flags().StringToStringVar(&preferArg, "prefer", nil, "Category weights for later days, e.g. park=1,museum=0.2")
	cmd.Flags().StringSliceVar(&onlyArg, "only", nil, "Plan only these POI ids")
	cmd.Flags().BoolVar(&noWeather, "no-weather", false, "Plan without fetching a forecast")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func parsePreferences(args map[string]string) (itinerary.Preferences, error) {
	if len(args) == 0 {
		return nil, nil
	}
	prefs := make(itinerary.Preferences, len(args))
	for k, v := range args {
		c, err := poi.ParseCategory(k)
		if err != nil {
			return nil, err
		}
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("weight for %s: %w", c, err)
		}
		prefs[c] = w
	}
	return prefs, nil
}

func describeDay(s *weather.Summary) string {
	parts := []string{}
	if s.Description != "" {
		parts = append(parts, s.Description)
	}
	if s.TempMin != nil && s.TempMax != nil {
		parts = append(parts, fmt.Sprintf("%.0f–%.0f °C", *s.TempMin, *s.TempMax))
	}
	if s.PrecipProbability != nil {
		parts = append(parts, fmt.Sprintf("rain %.0f%%", *s.PrecipProbability))
	}
	if len(parts) == 0 {
		return "no data"
	}
	return strings.Join(parts, ", ")
}

func (a *app) weatherCmd() *cobra.Command {
	var cityArg, dateArg string

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show the daily forecast and dayparts for a city",
		RunE: func(cmd *cobra.Command, _ []string) error {
			city, err := poi.ParseCity(cityArg)
			if err != nil {
				return err
			}
			date, err := a.parseDate(dateArg)
			if err != nil {
				return err
			}

			info, _ := city.Info()
			fc, err := a.weatherSource().Forecast(cmd.Context(), info.Center, date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, fc)
			}
			if fc.Daily == nil && len(fc.Dayparts) == 0 {
				return fmt.Errorf("no weather data for %s on %s", info.Label, date.Format(dateLayout))
			}

			fmt.Fprintf(out, "%s, %s\n", info.Label, date.Format(dateLayout))
			if fc.Daily != nil {
				fmt.Fprintf(out, "%s\n", describeDay(fc.Daily))
			}
			for _, dp := range fc.Dayparts {
				line := fmt.Sprintf("%-9s %02d–%02d", dp.Key, dp.From, dp.To)
				if dp.TempMin != nil && dp.TempMax != nil {
					line += fmt.Sprintf("  %.0f–%.0f °C", *dp.TempMin, *dp.TempMax)
				}
				if dp.ConditionCode != nil {
					line += "  " + weather.DescribeCode(*dp.ConditionCode)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cityArg, "city", "c", "", "City key or label (rome, paris, london)")
	cmd.Flags().StringVarP(&dateArg, "date", "d", "today", "Date (YYYY-MM-DD, today, tomorrow)")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func (a *app) translateCmd() *cobra.Command {
	var fromArg, toArg string
	var speak bool

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text; use - to translate stdin line by line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := translate.NewGateway(a.cfg.Translate,
				translate.WithLogger(a.log),
				translate.WithPhrasebook(translate.DefaultPhrasebook()),
			)
			out := cmd.OutOrStdout()

			if len(args) == 1 && args[0] == "-" {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				results := g.TranslateBatch(cmd.Context(), lines, fromArg, toArg)
				if a.jsonOut {
					return a.printJSON(out, results)
				}
				for _, r := range results {
					fmt.Fprintln(out, r)
				}
				return nil
			}

			res := g.Do(cmd.Context(), translate.Request{Text: strings.Join(args, " "), Source: fromArg, Target: toArg})
			if a.jsonOut {
				if err := a.printJSON(out, res); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, res.Text)
			}

			if speak {
				speech.Say(cmd.Context(), a.speaker(), res.Text, toArg, a.log)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromArg, "from", "f", translate.Auto, "Source language (or auto)")
	cmd.Flags().StringVarP(&toArg, "to", "t", "", "Target language")
	cmd.Flags().BoolVar(&speak, "speak", false, "Read the translation aloud with TTS_COMMAND")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) speaker() speech.Speaker {
	if len(a.cfg.TTSCommand) == 0 {
		a.log.Warn("TTS_COMMAND not set, not speaking")
		return speech.NopSpeaker{}
	}
	return speech.NewExecSpeaker(a.cfg.TTSCommand[0], a.cfg.TTSCommand[1:]...)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

func (a *app) phrasesCmd() *cobra.Command {
	var langArg, toArg, categoryArg string

	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "List useful phrases, optionally paired with another language",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pb := translate.DefaultPhrasebook()
			entries := pb.Entries(strings.ToLower(langArg))
			if len(entries) == 0 {
				return fmt.Errorf("no phrases for language %q (have %s)", langArg, strings.Join(pb.Languages(), ", "))
			}

			type row struct {
				Category string `json:"category"`
				Index    int    `json:"index"`
				Text     string `json:"text"`
				Paired   string `json:"paired,omitempty"`
			}
			var rows []row
			for _, e := range entries {
				if categoryArg != "" && e.Category != categoryArg {
					continue
				}
				r := row{Category: e.Category, Index: e.Index, Text: e.Text}
				if toArg != "" {
					r.Paired, _ = pb.Lookup(strings.ToLower(toArg), e.Category, e.Index)
				}
				rows = append(rows, r)
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return a.printJSON(out, rows)
			}
			for _, r := range rows {
				if r.Paired != "" {
					fmt.Fprintf(out, "%-10s %s → %s\n", r.Category, r.Text, r.Paired)
				} else {
					fmt.Fprintf(out, "%-10s %s\n", r.Category, r.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&langArg, "lang", "l", "en", "Phrase language")
	cmd.Flags().StringVarP(&toArg, "to", "t", "", "Pair each phrase with this language")
	cmd.Flags().StringVar(&categoryArg, "category", "", "Only this category (greetings, directions, food, emergency, shopping)")
	return cmd
}
