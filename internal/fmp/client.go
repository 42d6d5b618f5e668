package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/normalize"
	"github.com/bighogz/insider-monitor/internal/source"
)

const DefaultBaseURL = "https://financialmodelingprep.com/stable"

const pageSize = 100

var errNoKey = errors.New("fmp: api key not set")

type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *httpclient.Client
}

func New(apiKey, baseURL string, hc *httpclient.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{APIKey: apiKey, BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c *Client) Name() string { return "fmp" }

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]interface{}, error) {
	if c.APIKey == "" {
		return nil, errNoKey
	}
	params.Set("apikey", c.APIKey)
	body, err := c.HTTP.Get(ctx, c.BaseURL+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("fmp %s: decode: %w", path, err)
	}
	switch v := data.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		if msg, ok := v["Error Message"].(string); ok && msg != "" {
			return nil, fmt.Errorf("fmp %s: %s", path, msg)
		}
		if d, ok := v["data"].([]interface{}); ok {
			return d, nil
		}
	}
	return nil, nil
}

// Symbol returns P and S insider trades for one ticker since the given date.
func (c *Client) Symbol(ctx context.Context, symbol string, since time.Time) ([]models.RawTransaction, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("page", "0")
	params.Set("limit", strconv.Itoa(pageSize))
	items, err := c.get(ctx, "/insider-trading/search", params)
	if err != nil {
		return nil, err
	}
	return source.Within(toTransactions(items, symbol), since), nil
}

// Latest returns the most recent market-wide insider trades.
func (c *Client) Latest(ctx context.Context, limit int) ([]models.RawTransaction, error) {
	params := url.Values{}
	params.Set("page", "0")
	params.Set("limit", strconv.Itoa(min(max(limit, 1), pageSize)))
	items, err := c.get(ctx, "/insider-trading/latest", params)
	if err != nil {
		return nil, err
	}
	txs := toTransactions(items, "")
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func toTransactions(items []interface{}, fallbackSymbol string) []models.RawTransaction {
	out := make([]models.RawTransaction, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		code := tradeCode(strOr(m["transactionType"], m["type"]))
		if code != 'P' && code != 'S' {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(strOr(m["symbol"], m["ticker"])))
		if sym == "" {
			sym = fallbackSymbol
		}
		if sym == "" {
			continue
		}
		shares := toFloat(m["securitiesTransacted"], m["numberOfShares"], m["shares"])
		if shares < 0 {
			shares = -shares
		}
		value := toFloat(m["value"], m["valueUsd"])
		if value <= 0 {
			value = shares * toFloat(m["price"])
		}
		title := normalize.Title(strOr(m["typeOfOwner"]))
		tx := models.RawTransaction{
			Symbol:           sym,
			CompanyName:      strOr(m["companyName"], m["securityName"]),
			TransactionValue: max(value, 0),
			SharesTraded:     shares,
			SharesRatio:      normalize.SharesRatio(shares),
			ExecutiveRole:    normalize.Role(title),
			IsBuy:            code == 'P',
			IsCeoOrCfo:       normalize.IsCeoOrCfo(title),
			InsiderName:      strOr(m["reportingName"], m["reportingOwner"]),
			Source:           "fmp",
		}
		if d, ok := source.ParseDate(strOr(m["transactionDate"], m["filingDate"])); ok {
			tx.TransactionDate = d
		}
		out = append(out, tx)
	}
	return out
}

// tradeCode extracts the Form 4 code from values like "P-Purchase" or "S".
func tradeCode(s string) byte {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0
	}
	if len(s) > 1 && s[1] != '-' && s[1] != ' ' {
		return 0
	}
	return s[0]
}

func str(v interface{}) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]interface{}); ok {
		if n, ok := m["name"].(string); ok {
			return n
		}
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func strOr(vals ...interface{}) string {
	for _, v := range vals {
		if s := strings.TrimSpace(str(v)); s != "" {
			return s
		}
	}
	return ""
}

func toFloat(vals ...interface{}) float64 {
	for _, v := range vals {
		if v == nil {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		case string:
			if f, err := strconv.ParseFloat(x, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
