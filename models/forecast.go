package models

import (
	"time"
)

// UnknownWeatherCode marks a day whose upstream weather code was missing.
// It is outside every WMO code set.
const UnknownWeatherCode = -1

// Day is a single daily record of a forecast
type Day struct {
	Date        time.Time `json:"date"`        // calendar date in the place's timezone
	WeatherCode int       `json:"weatherCode"` // WMO weather code
	MinTemp     float64   `json:"minTemp"`     // in Celsius
	MaxTemp     float64   `json:"maxTemp"`     // in Celsius
}

// Forecast is an ordered sequence of daily records, first entry is today
type Forecast struct {
	Days []Day `json:"days"`
}

// Empty reports whether the forecast holds no days
func (f Forecast) Empty() bool {
	return len(f.Days) == 0
}
