package weather

import "time"

// Summary is the daily aggregate for one location and date.
// Pointer fields are nil when the upstream value was missing.
type Summary struct {
	Date              string   `json:"date"`
	TempMin           *float64 `json:"temp_min,omitempty"`
	TempMax           *float64 `json:"temp_max,omitempty"`
	PrecipProbability *float64 `json:"precip_probability,omitempty"`
	PrecipSum         *float64 `json:"precip_sum,omitempty"`
	ConditionCode     *int     `json:"condition_code,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// Hour is one hourly sample.
type Hour struct {
	Time              time.Time `json:"time"`
	Hour              int       `json:"hour"`
	Temp              *float64  `json:"temp,omitempty"`
	PrecipProbability *float64  `json:"precip_probability,omitempty"`
	ConditionCode     *int      `json:"condition_code,omitempty"`
	WindSpeed         *float64  `json:"wind_speed,omitempty"`
	Humidity          *float64  `json:"humidity,omitempty"`
}

// DaypartKey names one of the four fixed 6-hour buckets.
type DaypartKey string

const (
	Night     DaypartKey = "night"
	Morning   DaypartKey = "morning"
	Afternoon DaypartKey = "afternoon"
	Evening   DaypartKey = "evening"
)

// Daypart summarizes the hours From..To (inclusive).
type Daypart struct {
	Key               DaypartKey `json:"key"`
	From              int        `json:"from"`
	To                int        `json:"to"`
	TempMin           *float64   `json:"temp_min,omitempty"`
	TempMax           *float64   `json:"temp_max,omitempty"`
	PrecipProbability *float64   `json:"precip_probability,omitempty"`
	ConditionCode     *int       `json:"condition_code,omitempty"`
}

// Forecast bundles the daily summary with its dayparts. Either part may be
// missing when the upstream call failed.
type Forecast struct {
	Daily    *Summary  `json:"daily,omitempty"`
	Dayparts []Daypart `json:"dayparts,omitempty"`
}
