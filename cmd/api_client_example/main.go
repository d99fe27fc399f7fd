package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"classy-weather/api"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the classy-weather control API")
	location := flag.String("location", "Lisbon", "Location to look up")
	timeout := flag.Duration("timeout", 15*time.Second, "How long to wait for the lookup to settle")
	flag.Parse()

	fmt.Println("Classy Weather API Client Example")
	fmt.Println("=================================")

	client := &http.Client{Timeout: 5 * time.Second}

	fmt.Printf("\nSetting location to %q...\n", *location)
	body, _ := json.Marshal(api.LocationRequest{Location: *location})
	req, err := http.NewRequest(http.MethodPut, *baseURL+"/api/location", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error setting location: %v\n", err)
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		fmt.Printf("Unexpected status setting location: %s\n", resp.Status)
		os.Exit(1)
	}

	// Poll until the widget is no longer loading
	fmt.Println("Waiting for the forecast...")
	deadline := time.Now().Add(*timeout)
	var weather api.WeatherResponse
	for {
		weather, err = fetchWeather(client, *baseURL)
		if err != nil {
			fmt.Printf("Error fetching weather: %v\n", err)
			os.Exit(1)
		}
		if !weather.Loading {
			break
		}
		if time.Now().After(deadline) {
			fmt.Println("Timed out waiting for the forecast.")
			os.Exit(1)
		}
		time.Sleep(250 * time.Millisecond)
	}

	if len(weather.Days) == 0 {
		fmt.Printf("No forecast available for %q.\n", weather.Query)
		return
	}

	fmt.Printf("\nWeather %s\n", weather.Label)
	for _, d := range weather.Days {
		fmt.Printf("  %s  %-5s %d° / %d°  %s\n", d.Icon, d.Label, d.Min, d.Max, d.Description)
	}
}

func fetchWeather(client *http.Client, baseURL string) (api.WeatherResponse, error) {
	var weather api.WeatherResponse

	resp, err := client.Get(baseURL + "/api/weather")
	if err != nil {
		return weather, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return weather, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&weather); err != nil {
		return weather, fmt.Errorf("decoding response: %w", err)
	}
	return weather, nil
}
