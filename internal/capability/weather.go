package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/powderplan/powderplan/internal/domain"
)

const (
	openMeteoGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	openMeteoForecastURL  = "https://api.open-meteo.com/v1/forecast"

	forecastDays     = 7
	forecastReturned = 5
)

// WeatherClient fetches current conditions and a short forecast from
// Open-Meteo, which needs no API key.
type WeatherClient struct {
	geocodingURL string
	forecastURL  string
	httpClient   *http.Client
}

func NewWeatherClient() *WeatherClient {
	return &WeatherClient{
		geocodingURL: openMeteoGeocodingURL,
		forecastURL:  openMeteoForecastURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WeatherDefinition wires the client into the registry as get_weather.
func WeatherDefinition(c *WeatherClient) Definition {
	return Definition{
		Name:        "get_weather",
		Description: "Get current weather conditions and a 5-day forecast for a ski resort or location. Use this when users ask about weather, snow conditions, or current conditions at a resort.",
		Schema: Schema{
			Fields: map[string]Field{
				"location": {
					Type:        FieldString,
					Description: "The ski resort name or city/location (e.g., 'Chamonix', 'Aspen', 'Zermatt')",
					Required:    true,
				},
				"units": {
					Type:        FieldString,
					Description: "Temperature units preference",
					Enum:        []string{"celsius", "fahrenheit"},
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			location, _ := args["location"].(string)
			units, _ := args["units"].(string)
			if units == "" {
				units = "celsius"
			}
			return c.Report(ctx, location, units)
		},
	}
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		Snowfall    float64 `json:"snowfall"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
		SnowfallSum []float64 `json:"snowfall_sum"`
	} `json:"daily"`
	Reason string `json:"reason,omitempty"`
}

// locationVariations generates the name-normalization retry list for
// geocoding. Resort names are apostrophe-heavy (Val d'Isere) and often
// ambiguous without a country.
func locationVariations(location string) []string {
	variations := []string{
		location,
		strings.ReplaceAll(location, "'", "’"),
		strings.ReplaceAll(location, "’", "'"),
		strings.NewReplacer("'", "", "’", "").Replace(location),
		strings.NewReplacer("'", "-", "’", "-").Replace(location),
		location + ", France",
	}

	seen := make(map[string]struct{}, len(variations))
	unique := variations[:0]
	for _, v := range variations {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

func (c *WeatherClient) geocode(ctx context.Context, location string) (lat, lon float64, name string, err error) {
	tried := locationVariations(location)
	for _, candidate := range tried {
		params := url.Values{}
		params.Set("name", candidate)
		params.Set("count", "1")
		params.Set("language", "en")
		params.Set("format", "json")

		var result geocodingResponse
		if err := c.getJSON(ctx, c.geocodingURL+"?"+params.Encode(), &result); err != nil {
			continue
		}
		if len(result.Results) > 0 {
			r := result.Results[0]
			return r.Latitude, r.Longitude, r.Name, nil
		}
	}
	return 0, 0, "", fmt.Errorf("location %q not found (tried: %s)", location, strings.Join(tried, ", "))
}

// Report fetches current conditions plus a 5-day forecast and appends a
// ski-condition summary.
func (c *WeatherClient) Report(ctx context.Context, location, units string) (*domain.WeatherReport, error) {
	lat, lon, name, err := c.geocode(ctx, location)
	if err != nil {
		return nil, err
	}

	tempUnit := "celsius"
	windUnit := "kmh"
	if units == "fahrenheit" {
		tempUnit = "fahrenheit"
		windUnit = "mph"
	}

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", lat))
	params.Set("longitude", fmt.Sprintf("%.4f", lon))
	params.Set("current", "temperature_2m,weather_code,wind_speed_10m,snowfall")
	params.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code,snowfall_sum")
	params.Set("temperature_unit", tempUnit)
	params.Set("wind_speed_unit", windUnit)
	params.Set("forecast_days", fmt.Sprintf("%d", forecastDays))
	params.Set("timezone", "auto")

	var result forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+params.Encode(), &result); err != nil {
		return nil, fmt.Errorf("weather lookup for %q: %w", name, err)
	}

	report := &domain.WeatherReport{
		Location:    name,
		Temperature: round0(result.Current.Temperature),
		Condition:   conditionForCode(result.Current.WeatherCode),
		Snowfall:    round0(result.Current.Snowfall),
		WindSpeed:   round0(result.Current.WindSpeed),
	}

	days := len(result.Daily.Time)
	if days > forecastReturned {
		days = forecastReturned
	}
	for i := 0; i < days; i++ {
		day := domain.DailyForecast{
			Date:      result.Daily.Time[i],
			Condition: conditionForCode(result.Daily.WeatherCode[i]),
		}
		if i < len(result.Daily.TempMax) {
			day.TempHigh = round0(result.Daily.TempMax[i])
		}
		if i < len(result.Daily.TempMin) {
			day.TempLow = round0(result.Daily.TempMin[i])
		}
		if i < len(result.Daily.SnowfallSum) {
			day.Snowfall = round0(result.Daily.SnowfallSum[i])
		}
		report.Forecast = append(report.Forecast, day)
	}

	report.SkiConditions = skiConditions(report)
	return report, nil
}

func (c *WeatherClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func round0(f float64) float64 {
	if f < 0 {
		return float64(int(f - 0.5))
	}
	return float64(int(f + 0.5))
}

// wmoConditions maps WMO weather codes to readable conditions.
// Reference: https://open-meteo.com/en/docs
var wmoConditions = map[int]string{
	0:  "Clear",
	1:  "Mainly Clear",
	2:  "Partly Cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Foggy",
	51: "Light Drizzle",
	53: "Drizzle",
	55: "Heavy Drizzle",
	61: "Light Rain",
	63: "Rain",
	65: "Heavy Rain",
	66: "Freezing Rain",
	67: "Heavy Freezing Rain",
	71: "Light Snow",
	73: "Snow",
	75: "Heavy Snow",
	77: "Snow Grains",
	80: "Light Showers",
	81: "Showers",
	82: "Heavy Showers",
	85: "Light Snow Showers",
	86: "Snow Showers",
	95: "Thunderstorm",
	96: "Thunderstorm with Hail",
	99: "Heavy Thunderstorm with Hail",
}

func conditionForCode(code int) string {
	if cond, ok := wmoConditions[code]; ok {
		return cond
	}
	return "Unknown"
}

// skiConditions summarizes the report for skiers.
func skiConditions(r *domain.WeatherReport) string {
	var summary string
	switch {
	case r.Temperature < -10:
		summary = "Very cold - dress warmly. Good snow conditions."
	case r.Temperature < 0:
		summary = "Excellent skiing conditions with good snow quality."
	case r.Temperature < 5:
		summary = "Good conditions, though snow may be softer in afternoon."
	default:
		summary = "Warm conditions - snow may be slushy. Best skiing in morning."
	}

	if r.Snowfall > 10 {
		summary += " Heavy fresh snowfall - powder conditions!"
	} else if r.Snowfall > 0 {
		summary += " Fresh snow expected."
	}

	if r.WindSpeed > 30 {
		summary += " WARNING: High winds - some lifts may be closed."
	}

	return summary
}
