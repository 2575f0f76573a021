package domain

// DailyForecast is one day of the forecast window.
type DailyForecast struct {
	Date      string  `json:"date"`
	TempHigh  float64 `json:"tempHigh"`
	TempLow   float64 `json:"tempLow"`
	Snowfall  float64 `json:"snowfall"`
	Condition string  `json:"condition"`
}

// WeatherReport is the weather capability's result payload.
type WeatherReport struct {
	Location      string          `json:"location"`
	Temperature   float64         `json:"temperature"`
	Condition     string          `json:"condition"`
	Snowfall      float64         `json:"snowfall"`
	WindSpeed     float64         `json:"windSpeed"`
	Forecast      []DailyForecast `json:"forecast"`
	SkiConditions string          `json:"skiConditions,omitempty"`
}

// CurrencyQuote is the currency capability's result payload. Amount and
// Converted are present only when an amount was requested.
type CurrencyQuote struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Rate      float64  `json:"rate"`
	Amount    *float64 `json:"amount,omitempty"`
	Converted *float64 `json:"converted,omitempty"`
}
