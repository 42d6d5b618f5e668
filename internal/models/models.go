package models

import "time"

// ExecutiveRole is the normalized role of the insider behind a transaction.
type ExecutiveRole string

const (
	RoleCEO             ExecutiveRole = "CEO"
	RoleCFO             ExecutiveRole = "CFO"
	RoleDirector        ExecutiveRole = "Director"
	RoleTenPercentOwner ExecutiveRole = "10% Owner"
	RoleOfficer         ExecutiveRole = "Officer"
	RoleOther           ExecutiveRole = "Other"
)

// RawTransaction is one insider buy or sell as handed over by an acquisition source.
// SharesRatio is expected to be pre-capped to [0, 2].
type RawTransaction struct {
	Symbol           string        `json:"symbol"`
	CompanyName      string        `json:"company_name"`
	TransactionValue float64       `json:"transaction_value"`
	SharesTraded     float64       `json:"shares_traded"`
	SharesRatio      float64       `json:"shares_ratio"`
	ExecutiveRole    ExecutiveRole `json:"executive_role"`
	IsBuy            bool          `json:"is_buy"`
	IsCeoOrCfo       bool          `json:"is_ceo_or_cfo"`

	InsiderName     string    `json:"insider_name,omitempty"`
	TransactionDate time.Time `json:"transaction_date,omitzero"`
	Source          string    `json:"source"`
}

// SymbolAggregate groups one symbol's transactions by direction. Roles holds
// every distinct role seen for the symbol, across both directions.
type SymbolAggregate struct {
	Symbol      string
	CompanyName string
	Buys        []RawTransaction
	Sells       []RawTransaction
	Roles       []ExecutiveRole
}

func (a *SymbolAggregate) InsiderCount() int {
	return len(a.Roles)
}

type RecommendationEntry struct {
	Symbol           string        `json:"symbol"`
	CompanyName      string        `json:"name"`
	Score            int           `json:"score"`
	TransactionValue float64       `json:"transactionValue"`
	SharesRatio      float64       `json:"sharesRatio"`
	ExecutiveType    ExecutiveRole `json:"executiveType"`
	InsiderCount     int           `json:"insiderCount"`
	IsCeoOrCfo       bool          `json:"isCeoOrCfo"`
}

type Recommendations struct {
	Buy  []RecommendationEntry `json:"buy"`
	Sell []RecommendationEntry `json:"sell"`
}

type StockRecord struct {
	Symbol    string    `json:"symbol"`
	BuyCount  int       `json:"buyCount"`
	SellCount int       `json:"sellCount"`
	LastCheck time.Time `json:"lastCheck"`
}

type StocksSnapshot struct {
	LastUpdate time.Time              `json:"lastUpdate"`
	Stocks     map[string]StockRecord `json:"stocks"`
}

type RecommendationsSnapshot struct {
	LastUpdate      time.Time       `json:"lastUpdate"`
	Recommendations Recommendations `json:"recommendations"`
}
