// Package notify pushes a short summary of each refresh to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bighogz/insider-monitor/internal/models"
)

// picks is how many entries per direction the summary lists.
const picks = 3

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot        sender
	chatID     int64
	maxRetries int
	retryDelay time.Duration
}

// NewTelegram authenticates the bot token against the Bot API.
func NewTelegram(botToken string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, maxRetries: 3, retryDelay: time.Second}, nil
}

// SendSummary posts the top buy and sell picks plus watchlist activity.
func (t *Telegram) SendSummary(ctx context.Context, stocks *models.StocksSnapshot, recs *models.RecommendationsSnapshot) error {
	return t.send(ctx, formatSummary(stocks, recs))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if i == t.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

func formatSummary(stocks *models.StocksSnapshot, recs *models.RecommendationsSnapshot) string {
	var b strings.Builder
	b.WriteString("📊 *Insider activity*\n")

	if recs != nil {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdownV2(recs.LastUpdate.UTC().Format("2006-01-02 15:04 MST")))
		writePicks(&b, "🟢 *Top buys*", recs.Recommendations.Buy)
		writePicks(&b, "🔴 *Top sells*", recs.Recommendations.Sell)
	}

	if stocks != nil && len(stocks.Stocks) > 0 {
		b.WriteString("\n👀 *Watchlist*\n")
		for _, sym := range sortedSymbols(stocks.Stocks) {
			r := stocks.Stocks[sym]
			fmt.Fprintf(&b, "%s  %d buys / %d sells\n", escapeMarkdownV2(sym), r.BuyCount, r.SellCount)
		}
	}
	return b.String()
}

func writePicks(b *strings.Builder, title string, entries []models.RecommendationEntry) {
	fmt.Fprintf(b, "\n%s\n", title)
	if len(entries) == 0 {
		b.WriteString("none\n")
		return
	}
	for i, e := range entries {
		if i == picks {
			break
		}
		line := fmt.Sprintf("%d. %s (%s) score %d, $%s, %s", i+1, e.Symbol, e.CompanyName, e.Score,
			compactMoney(e.TransactionValue), e.ExecutiveType)
		b.WriteString(escapeMarkdownV2(line))
		b.WriteByte('\n')
	}
}

func compactMoney(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.0fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func sortedSymbols(m map[string]models.StockRecord) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
