package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"classy-weather/models"
)

// dailyVariables is the fixed set of daily series requested from the forecast API
const dailyVariables = "weathercode,temperature_2m_max,temperature_2m_min"

// forecastResponse holds the parallel daily arrays, aligned by index.
// Open-Meteo reports missing values as null, hence the pointers.
type forecastResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		WeatherCode []*int     `json:"weathercode"`
		MaxTemp     []*float64 `json:"temperature_2m_max"`
		MinTemp     []*float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// FetchForecast gets the daily forecast for a resolved place
func (p *Provider) FetchForecast(ctx context.Context, place models.Place) (models.Forecast, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	params.Set("timezone", place.Timezone)
	params.Set("daily", dailyVariables)

	var response forecastResponse
	if err := p.client.GetJSON(ctx, p.forecastURL, params, &response); err != nil {
		return models.Forecast{}, fmt.Errorf("forecast for %s: %w", place.Name, err)
	}

	return response.toForecast()
}

func (r forecastResponse) toForecast() (models.Forecast, error) {
	d := r.Daily
	n := len(d.Time)
	if len(d.WeatherCode) != n || len(d.MaxTemp) != n || len(d.MinTemp) != n {
		return models.Forecast{}, fmt.Errorf("failed to parse response: daily arrays misaligned (time=%d weathercode=%d max=%d min=%d)",
			n, len(d.WeatherCode), len(d.MaxTemp), len(d.MinTemp))
	}

	forecast := models.Forecast{Days: make([]models.Day, 0, n)}
	for i := 0; i < n; i++ {
		date, err := time.Parse(time.DateOnly, d.Time[i])
		if err != nil {
			return models.Forecast{}, fmt.Errorf("failed to parse response: day %d: %w", i, err)
		}

		// A missing temperature fails the whole response.
		if d.MinTemp[i] == nil || d.MaxTemp[i] == nil {
			return models.Forecast{}, fmt.Errorf("failed to parse response: day %d: missing temperature", i)
		}

		code := models.UnknownWeatherCode
		if d.WeatherCode[i] != nil {
			code = *d.WeatherCode[i]
		}

		forecast.Days = append(forecast.Days, models.Day{
			Date:        date,
			WeatherCode: code,
			MinTemp:     *d.MinTemp[i],
			MaxTemp:     *d.MaxTemp[i],
		})
	}

	return forecast, nil
}
