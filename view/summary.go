package view

import (
	"math"
	"time"

	"classy-weather/models"
	"classy-weather/wmo"
)

// DaySummary is one rendered forecast day
type DaySummary struct {
	Date        time.Time `json:"date"`
	Label       string    `json:"label"`
	Icon        string    `json:"icon"`
	Description string    `json:"description,omitempty"`
	Min         int       `json:"min"` // floored
	Max         int       `json:"max"` // ceiled
}

// Summaries maps each forecast day, in order, to its display summary
func Summaries(f models.Forecast) []DaySummary {
	out := make([]DaySummary, 0, len(f.Days))
	for i, d := range f.Days {
		s := DaySummary{
			Date:  d.Date,
			Label: DayLabel(i, d.Date),
			Icon:  wmo.Icon(d.WeatherCode),
			Min:   int(math.Floor(d.MinTemp)),
			Max:   int(math.Ceil(d.MaxTemp)),
		}
		if c, ok := wmo.Lookup(d.WeatherCode); ok {
			s.Description = c.Description
		}
		out = append(out, s)
	}
	return out
}
