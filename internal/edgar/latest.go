package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/bighogz/insider-monitor/internal/models"
)

type filingIndex struct {
	Directory struct {
		Item []struct {
			Name string `json:"name"`
		} `json:"item"`
	} `json:"directory"`
}

// Latest reads the EDGAR current-filings Atom feed for Form 4 and returns up
// to limit transactions from the newest filings.
func (c *Client) Latest(ctx context.Context, limit int) ([]models.RawTransaction, error) {
	body, err := c.HTTP.Get(ctx, c.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("edgar current feed: %w", err)
	}
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("edgar current feed: parse: %w", err)
	}

	out := make([]models.RawTransaction, 0)
	for _, item := range feed.Items {
		if limit > 0 && len(out) >= limit {
			break
		}
		// Each filing is listed once per party; the issuer entry is enough.
		if !strings.Contains(item.Title, "(Issuer)") {
			continue
		}
		folder := filingFolder(item.Link)
		if folder == "" {
			continue
		}
		txs, err := c.loadFiling(ctx, folder)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("latest filing skipped", "link", item.Link, "error", err)
			continue
		}
		c.fillNames(txs)
		out = append(out, txs...)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) loadFiling(ctx context.Context, folder string) ([]models.RawTransaction, error) {
	body, err := c.HTTP.Get(ctx, folder+"/index.json")
	if err != nil {
		return nil, err
	}
	var idx filingIndex
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	var doc string
	for _, it := range idx.Directory.Item {
		if strings.HasSuffix(strings.ToLower(it.Name), ".xml") && !strings.Contains(it.Name, "index") {
			doc = it.Name
			break
		}
	}
	if doc == "" {
		return nil, fmt.Errorf("no xml document in %s", folder)
	}
	data, err := c.HTTP.Get(ctx, folder+"/"+doc)
	if err != nil {
		return nil, err
	}
	return parseForm4(data, "")
}

// filingFolder turns a "...-index.htm" filing link into its archive folder URL.
func filingFolder(link string) string {
	i := strings.LastIndex(link, "/")
	if i <= 0 || !strings.Contains(link, "/Archives/edgar/data/") {
		return ""
	}
	return link[:i]
}
