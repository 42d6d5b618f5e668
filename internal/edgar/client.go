// Package edgar reads Form 4 insider filings straight from SEC EDGAR.
// Requests must carry a descriptive User-Agent per SEC fair-access policy.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/bighogz/insider-monitor/internal/httpclient"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/source"
)

const (
	DefaultDataURL    = "https://data.sec.gov"
	DefaultArchiveURL = "https://www.sec.gov"
	DefaultFeedURL    = "https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent&type=4&company=&dateb=&owner=include&start=0&count=100&output=atom"
	DefaultUserAgent  = "InsiderMonitor admin@example.com"

	defaultMaxFilings = 40
)

type submissionsResponse struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

type Client struct {
	HTTP       *httpclient.Client
	Directory  *Directory
	DataURL    string
	ArchiveURL string
	FeedURL    string
	// MaxFilings caps the Form 4 documents fetched per symbol.
	MaxFilings int
}

func New(hc *httpclient.Client, dir *Directory) *Client {
	return &Client{
		HTTP:       hc,
		Directory:  dir,
		DataURL:    DefaultDataURL,
		ArchiveURL: DefaultArchiveURL,
		FeedURL:    DefaultFeedURL,
		MaxFilings: defaultMaxFilings,
	}
}

func (c *Client) Name() string { return "edgar" }

// Symbol walks the issuer's recent Form 4 filings filed on or after since and
// returns their P and S transactions. A filing that fails to load is skipped.
func (c *Client) Symbol(ctx context.Context, symbol string, since time.Time) ([]models.RawTransaction, error) {
	cik, ok := c.Directory.Lookup(symbol)
	if !ok {
		return nil, fmt.Errorf("edgar %s: %w", symbol, source.ErrUnknownSymbol)
	}
	body, err := c.HTTP.Get(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", c.DataURL, cik))
	if err != nil {
		return nil, fmt.Errorf("edgar submissions %s: %w", symbol, err)
	}
	var subs submissionsResponse
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, fmt.Errorf("edgar submissions %s: decode: %w", symbol, err)
	}

	recent := subs.Filings.Recent
	out := make([]models.RawTransaction, 0)
	fetched := 0
	for i := range recent.Form {
		if c.MaxFilings > 0 && fetched >= c.MaxFilings {
			break
		}
		if recent.Form[i] != "4" || i >= len(recent.AccessionNumber) || i >= len(recent.PrimaryDocument) {
			continue
		}
		if i < len(recent.FilingDate) && !since.IsZero() {
			if d, ok := source.ParseDate(recent.FilingDate[i]); ok && d.Before(since) {
				continue
			}
		}
		fetched++
		url := c.documentURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i])
		doc, err := c.HTTP.Get(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("form 4 not loaded", "symbol", symbol, "url", url, "error", err)
			continue
		}
		txs, err := parseForm4(doc, symbol)
		if err != nil {
			slog.Warn("form 4 not parsed", "symbol", symbol, "url", url, "error", err)
			continue
		}
		for j := range txs {
			if txs[j].CompanyName == "" {
				txs[j].CompanyName = subs.Name
			}
		}
		c.fillNames(txs)
		out = append(out, txs...)
	}
	return source.Within(out, since), nil
}

// fillNames falls back to the directory's registrant name for transactions
// whose filing carried none.
func (c *Client) fillNames(txs []models.RawTransaction) {
	if c.Directory == nil {
		return
	}
	for i := range txs {
		if strings.TrimSpace(txs[i].CompanyName) == "" {
			txs[i].CompanyName = c.Directory.Name(txs[i].Symbol)
		}
	}
}

// documentURL points at the raw XML; primaryDocument may carry an xsl*/
// rendering prefix which is dropped.
func (c *Client) documentURL(cik, accession, primaryDoc string) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
		c.ArchiveURL, trimCIK(cik), strings.ReplaceAll(accession, "-", ""), path.Base(primaryDoc))
}
