// Package finnhub reads insider transactions from the Finnhub REST API.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/normalize"
	"github.com/bighogz/insider-monitor/internal/source"
)

const (
	DefaultBaseURL = "https://finnhub.io/api/v1"
	DemoKey        = "demo"
)

type insiderResponse struct {
	Symbol string          `json:"symbol"`
	Data   []insiderRecord `json:"data"`
}

type insiderRecord struct {
	Name             string  `json:"name"`
	Share            float64 `json:"share"`
	Change           float64 `json:"change"`
	FilingDate       string  `json:"filingDate"`
	TransactionDate  string  `json:"transactionDate"`
	TransactionCode  string  `json:"transactionCode"`
	TransactionPrice float64 `json:"transactionPrice"`
}

type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *httpclient.Client
	// Names resolves company names, which Finnhub does not return. Optional.
	Names func(symbol string) string
	now   func() time.Time
}

func New(apiKey, baseURL string, hc *httpclient.Client) *Client {
	if apiKey == "" {
		apiKey = DemoKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    hc,
		now:     time.Now,
	}
}

func (c *Client) Name() string { return "finnhub" }

// IsDemo reports whether the client runs on the shared demo key, which only
// serves a handful of symbols.
func (c *Client) IsDemo() bool { return c.APIKey == DemoKey }

// Symbol fetches one ticker's insider transactions between since and now,
// keeping only open-market purchases (P) and sales (S).
func (c *Client) Symbol(ctx context.Context, symbol string, since time.Time) ([]models.RawTransaction, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if !since.IsZero() {
		params.Set("from", since.Format(time.DateOnly))
	}
	params.Set("to", c.now().Format(time.DateOnly))
	params.Set("token", c.APIKey)

	body, err := c.HTTP.Get(ctx, c.BaseURL+"/stock/insider-transactions?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("finnhub %s: %w", symbol, err)
	}
	var resp insiderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("finnhub %s: decode: %w", symbol, err)
	}

	company := symbol
	if c.Names != nil {
		if n := c.Names(symbol); n != "" {
			company = n
		}
	}
	out := make([]models.RawTransaction, 0, len(resp.Data))
	for _, rec := range resp.Data {
		code := strings.ToUpper(strings.TrimSpace(rec.TransactionCode))
		if code != "P" && code != "S" {
			continue
		}
		shares := math.Abs(rec.Change)
		tx := models.RawTransaction{
			Symbol:           strings.ToUpper(symbol),
			CompanyName:      company,
			TransactionValue: shares * math.Abs(rec.TransactionPrice),
			SharesTraded:     shares,
			SharesRatio:      normalize.SharesRatio(shares),
			ExecutiveRole:    normalize.Role(rec.Name),
			IsBuy:            code == "P",
			IsCeoOrCfo:       normalize.IsCeoOrCfo(rec.Name),
			InsiderName:      rec.Name,
			Source:           "finnhub",
		}
		if d, ok := source.ParseDate(rec.TransactionDate); ok {
			tx.TransactionDate = d
		} else if d, ok := source.ParseDate(rec.FilingDate); ok {
			tx.TransactionDate = d
		}
		out = append(out, tx)
	}
	return source.Within(out, since), nil
}

// Latest is not offered on Finnhub's insider endpoint.
func (c *Client) Latest(ctx context.Context, limit int) ([]models.RawTransaction, error) {
	return nil, fmt.Errorf("finnhub latest trades: %w", source.ErrNotSupported)
}
