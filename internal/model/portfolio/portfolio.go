package portfolio

import (
	"fmt"
	"strconv"
)

// Holding is one row of the holdings export.
type Holding struct {
	PortfolioName string  `json:"portfolioName"`
	SecurityID    string  `json:"securityId"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	MVBase        float64 `json:"mvBase"`
	PLYTD         float64 `json:"plYtd"`
	CustodianName string  `json:"custodianName,omitempty"`
}

// Trade is one row of the trades export.
type Trade struct {
	PortfolioName string  `json:"portfolioName"`
	SecurityID    string  `json:"securityId"`
	TradeTypeName string  `json:"tradeTypeName"`
	Quantity      float64 `json:"quantity"`
	Price         float64 `json:"price"`
	Status        string  `json:"status"`
}

// Describe renders the holding as a retrieval document.
func (h Holding) Describe() string {
	return fmt.Sprintf("Holding Record: Portfolio %s holds %s of Security %s. Market Value Base: %s. Price: %s.",
		orNA(h.PortfolioName), number(h.Quantity), orNA(h.SecurityID), number(h.MVBase), number(h.Price))
}

// Describe renders the trade as a retrieval document.
func (t Trade) Describe() string {
	kind := t.TradeTypeName
	if kind == "" {
		kind = "Trade"
	}
	return fmt.Sprintf("Trade Record: %s of %s %s for Portfolio %s. Price: %s. Status: %s.",
		kind, number(t.Quantity), orNA(t.SecurityID), orNA(t.PortfolioName), number(t.Price), orNA(t.Status))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
