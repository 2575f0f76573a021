package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/powderplan/powderplan/internal/domain"
)

const exchangeRateURL = "https://api.exchangerate-api.com/v4/latest"

// CurrencyClient fetches exchange rates from exchangerate-api.com.
// The /v4/latest endpoint needs no API key.
type CurrencyClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCurrencyClient() *CurrencyClient {
	return &CurrencyClient{
		baseURL:    exchangeRateURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CurrencyDefinition wires the client into the registry as convert_currency.
func CurrencyDefinition(c *CurrencyClient) Definition {
	return Definition{
		Name:        "convert_currency",
		Description: "Convert currency amounts for travel budgeting and cost comparisons. Use this when users ask about prices, costs, or budget conversions.",
		Schema: Schema{
			Fields: map[string]Field{
				"from": {
					Type:        FieldString,
					Description: "Source currency code (e.g., 'USD', 'EUR', 'GBP')",
					Required:    true,
				},
				"to": {
					Type:        FieldString,
					Description: "Target currency code (e.g., 'EUR', 'CHF', 'CAD')",
					Required:    true,
				},
				"amount": {
					Type:        FieldNumber,
					Description: "Amount to convert (optional; if not provided, just return the exchange rate)",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			from, _ := args["from"].(string)
			to, _ := args["to"].(string)
			var amount *float64
			if v, ok := args["amount"].(float64); ok {
				amount = &v
			}
			return c.Convert(ctx, from, to, amount)
		},
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
	Error string             `json:"error,omitempty"`
}

// Convert returns the rate between two currency codes and, when an amount
// is given, the converted value. Fails if the target code is unrecognized.
func (c *CurrencyClient) Convert(ctx context.Context, from, to string, amount *float64) (*domain.CurrencyQuote, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+from, nil)
	if err != nil {
		return nil, fmt.Errorf("create rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("currency API returned status %d for %s", resp.StatusCode, from)
	}

	var result ratesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal rate response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("currency API error: %s", result.Error)
	}

	rate, ok := result.Rates[to]
	if !ok {
		return nil, fmt.Errorf("currency %q not found", to)
	}

	quote := &domain.CurrencyQuote{
		From: from,
		To:   to,
		Rate: roundTo(rate, 4),
	}
	if amount != nil {
		converted := roundTo(*amount*rate, 2)
		quote.Amount = amount
		quote.Converted = &converted
	}

	return quote, nil
}

// SupportedCurrencies lists the codes the assistant most commonly needs.
func (c *CurrencyClient) SupportedCurrencies() []string {
	return []string{
		"USD", "EUR", "GBP", "CHF", "CAD", "AUD", "JPY",
		"NOK", "SEK", "DKK", "NZD", "ISK",
	}
}

func roundTo(f float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(f*shift) / shift
}
