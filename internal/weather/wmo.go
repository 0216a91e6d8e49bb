package weather

import "fmt"

// WMO weather interpretation codes as used by Open-Meteo.
var wmoText = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow",
	73: "Snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeCode returns a short English description for a WMO code.
func DescribeCode(code int) string {
	if s, ok := wmoText[code]; ok {
		return s
	}
	return fmt.Sprintf("weather code %d", code)
}

// Condition is a coarse weather class for icon hints.
type Condition string

const (
	Clear  Condition = "clear"
	Cloudy Condition = "cloudy"
	Fog    Condition = "fog"
	Rain   Condition = "rain"
	Snow   Condition = "snow"
	Storm  Condition = "storm"
)

// Classify maps a WMO code to a Condition. Unknown codes are Cloudy.
func Classify(code int) Condition {
	switch code {
	case 0, 1, 2:
		return Clear
	case 3:
		return Cloudy
	case 45, 48:
		return Fog
	case 51, 53, 55, 56, 57, 61, 63, 65, 66, 67, 80, 81, 82:
		return Rain
	case 71, 73, 75, 77, 85, 86:
		return Snow
	case 95, 96, 99:
		return Storm
	}
	return Cloudy
}
