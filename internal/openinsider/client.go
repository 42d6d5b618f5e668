// Package openinsider scrapes insider trades from openinsider.com screener
// tables.
package openinsider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/normalize"
	"github.com/bighogz/insider-monitor/internal/source"
)

const DefaultBaseURL = "http://openinsider.com"

// errNoTable means the page came back without a results table, which is
// what openinsider serves for unknown tickers and when it is throttling.
var errNoTable = errors.New("results table not found")

const minCells = 10

// columns holds cell indexes for the fields we read; -1 means absent.
type columns struct {
	date, company, ticker, tradeType, insider, title, shares, value int
}

// fallbackColumns is used when the table has no recognizable header row.
var fallbackColumns = columns{
	date: 1, company: 2, ticker: 3, tradeType: 4, insider: 5, title: -1, shares: 6, value: 7,
}

type Client struct {
	BaseURL string
	HTTP    *httpclient.Client
}

func New(baseURL string, hc *httpclient.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c *Client) Name() string { return "openinsider" }

func (c *Client) Symbol(ctx context.Context, symbol string, since time.Time) ([]models.RawTransaction, error) {
	body, err := c.HTTP.Get(ctx, c.BaseURL+"/screener?s="+url.QueryEscape(symbol))
	if err != nil {
		return nil, fmt.Errorf("openinsider %s: %w", symbol, err)
	}
	txs, err := parseTable(body, symbol, 0)
	if err != nil {
		return nil, fmt.Errorf("openinsider %s: %w", symbol, err)
	}
	return source.Within(txs, since), nil
}

func (c *Client) Latest(ctx context.Context, limit int) ([]models.RawTransaction, error) {
	body, err := c.HTTP.Get(ctx, c.BaseURL+"/latest-insider-trading")
	if err != nil {
		return nil, fmt.Errorf("openinsider latest: %w", err)
	}
	return parseTable(body, "", limit)
}

// parseTable reads table.tinytable. symbol fills in blank ticker cells; limit
// caps the number of data rows read (0 means all).
func parseTable(body []byte, symbol string, limit int) ([]models.RawTransaction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table.tinytable").First()
	if table.Length() == 0 {
		return nil, errNoTable
	}
	cols := headerColumns(table)

	out := make([]models.RawTransaction, 0)
	rows := 0
	table.Find("tbody tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if limit > 0 && rows >= limit {
			return false
		}
		cells := tr.Find("td")
		if cells.Length() < minCells {
			return true
		}
		rows++
		text := func(i int) string {
			if i < 0 || i >= cells.Length() {
				return ""
			}
			return strings.TrimSpace(cells.Eq(i).Text())
		}
		tx, ok := rowTransaction(cols, text, symbol)
		if ok {
			out = append(out, tx)
		}
		return true
	})
	return out, nil
}

func rowTransaction(cols columns, text func(int) string, symbol string) (models.RawTransaction, bool) {
	code := tradeCode(text(cols.tradeType))
	if code != 'P' && code != 'S' {
		return models.RawTransaction{}, false
	}
	sym := strings.ToUpper(text(cols.ticker))
	if sym == "" {
		sym = strings.ToUpper(symbol)
	}
	company := text(cols.company)
	if sym == "" || company == "" {
		return models.RawTransaction{}, false
	}
	roleText := text(cols.title)
	if roleText == "" {
		roleText = text(cols.insider)
	}
	roleText = normalize.Title(roleText)
	shares := normalize.Shares(text(cols.shares))
	tx := models.RawTransaction{
		Symbol:           sym,
		CompanyName:      company,
		TransactionValue: normalize.Money(text(cols.value)),
		SharesTraded:     shares,
		SharesRatio:      normalize.SharesRatio(shares),
		ExecutiveRole:    normalize.Role(roleText),
		IsBuy:            code == 'P',
		IsCeoOrCfo:       normalize.IsCeoOrCfo(roleText),
		InsiderName:      text(cols.insider),
		Source:           "openinsider",
	}
	if d, ok := source.ParseDate(text(cols.date)); ok {
		tx.TransactionDate = d
	}
	return tx, true
}

// headerColumns maps header captions to cell indexes, falling back to the
// fixed layout when the table has no usable header.
func headerColumns(table *goquery.Selection) columns {
	cols := columns{date: -1, company: -1, ticker: -1, tradeType: -1, insider: -1, title: -1, shares: -1, value: -1}
	filingDate := -1
	headers := table.Find("thead th")
	if headers.Length() == 0 {
		headers = table.Find("tr").First().Find("th")
	}
	headers.Each(func(i int, th *goquery.Selection) {
		h := strings.ToLower(strings.Join(strings.Fields(th.Text()), " "))
		switch h {
		case "trade date":
			cols.date = i
		case "filing date":
			filingDate = i
		case "company name":
			cols.company = i
		case "ticker":
			cols.ticker = i
		case "trade type":
			cols.tradeType = i
		case "insider name":
			cols.insider = i
		case "title":
			cols.title = i
		case "qty":
			cols.shares = i
		case "value":
			cols.value = i
		}
	})
	if cols.date < 0 {
		cols.date = filingDate
	}
	if cols.ticker < 0 || cols.tradeType < 0 {
		return fallbackColumns
	}
	return cols
}

// tradeCode returns the leading letter of values like "P - Purchase".
func tradeCode(s string) byte {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if len(s) > 1 && s[1] != ' ' && s[1] != '-' {
		return 0
	}
	return s[0]
}
