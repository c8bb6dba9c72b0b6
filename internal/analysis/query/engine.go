// Package query answers the portfolio questions that need no language model:
// counts per portfolio, the PL_YTD leaderboard, and custodian lookups.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/zhouzirui/holdings-chat/internal/model/portfolio"
)

const (
	HoldingsUnavailable = "Holdings data not available."
	TradesUnavailable   = "Trades data not available."
	PLUnavailable       = "Profit and Loss data (PL_YTD) not found in holdings."
)

const topFunds = 5

// Engine answers deterministic questions against a portfolio store.
type Engine struct {
	store   portfolio.Store
	printer *message.Printer
}

// NewEngine creates an engine over store.
func NewEngine(store portfolio.Store) *Engine {
	return &Engine{
		store:   store,
		printer: message.NewPrinter(language.English),
	}
}

// Answer returns the reply for query and true, or false when no rule produced one.
func (e *Engine) Answer(query string) (string, bool) {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "number of holdings"):
		return e.holdingsCount(query)
	case strings.Contains(q, "number of trades"):
		return e.tradesCount(query)
	case strings.Contains(q, "performed better") && mentionsPL(q):
		return e.performanceSummary(), true
	case strings.Contains(q, "custodian"):
		return e.custodians(query)
	}
	return "", false
}

func mentionsPL(q string) bool {
	return strings.Contains(q, "profit and loss") ||
		strings.Contains(q, "profit & loss") ||
		strings.Contains(q, "p&l")
}

func (e *Engine) holdingsCount(query string) (string, bool) {
	if !e.store.Loaded(portfolio.TableHoldings) {
		return HoldingsUnavailable, true
	}

	name := ExtractPortfolio(query, e.store.Portfolios(portfolio.TableHoldings), "for")
	if name == "" {
		return "", false
	}

	count := lo.CountBy(e.store.Holdings(), func(h portfolio.Holding) bool { return h.PortfolioName == name })
	return fmt.Sprintf("The total number of holdings for %s is %d.", name, count), true
}

func (e *Engine) tradesCount(query string) (string, bool) {
	if !e.store.Loaded(portfolio.TableTrades) {
		return TradesUnavailable, true
	}

	name := ExtractPortfolio(query, e.store.Portfolios(portfolio.TableTrades), "for")
	if name == "" {
		return "", false
	}

	count := lo.CountBy(e.store.Trades(), func(t portfolio.Trade) bool { return t.PortfolioName == name })
	return fmt.Sprintf("The total number of trades for %s is %d.", name, count), true
}

// FundPL is a portfolio's summed year-to-date profit and loss.
type FundPL struct {
	Name string
	PL   float64
}

// Leaderboard sums PL_YTD per portfolio, best first. Ties sort by name.
func (e *Engine) Leaderboard() []FundPL {
	groups := lo.GroupBy(e.store.Holdings(), func(h portfolio.Holding) string { return h.PortfolioName })

	board := make([]FundPL, 0, len(groups))
	for name, rows := range groups {
		board = append(board, FundPL{
			Name: name,
			PL:   lo.SumBy(rows, func(h portfolio.Holding) float64 { return h.PLYTD }),
		})
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].PL != board[j].PL {
			return board[i].PL > board[j].PL
		}
		return board[i].Name < board[j].Name
	})
	return board
}

func (e *Engine) performanceSummary() string {
	if !e.store.Loaded(portfolio.TableHoldings) {
		return HoldingsUnavailable
	}
	if !e.store.HasPL() {
		return PLUnavailable
	}

	var b strings.Builder
	b.WriteString("Top funds by YTD Profit/Loss:\n")
	for _, fund := range lo.Slice(e.Leaderboard(), 0, topFunds) {
		b.WriteString(e.printer.Sprintf("- %s: %.2f\n", fund.Name, fund.PL))
	}
	return b.String()
}

func (e *Engine) custodians(query string) (string, bool) {
	if !e.store.Loaded(portfolio.TableHoldings) {
		return HoldingsUnavailable, true
	}

	name := ExtractPortfolio(query, e.store.Portfolios(portfolio.TableHoldings), "of")
	if name == "" {
		return "", false
	}

	rows := lo.Filter(e.store.Holdings(), func(h portfolio.Holding, _ int) bool { return h.PortfolioName == name })
	names := lo.Uniq(lo.Compact(lo.Map(rows, func(h portfolio.Holding, _ int) string { return h.CustodianName })))
	if len(names) == 0 {
		return "", false
	}
	return strings.Join(names, ", "), true
}

// ExtractPortfolio finds the portfolio a query refers to. A portfolio whose name
// appears in the query wins; otherwise the text after the last keyword is
// matched as a substring of the known names.
func ExtractPortfolio(query string, portfolios []string, keyword string) string {
	q := strings.ToLower(query)
	for _, p := range portfolios {
		if strings.Contains(q, strings.ToLower(p)) {
			return p
		}
	}

	if !strings.Contains(q, keyword) {
		return ""
	}

	parts := strings.Split(q, keyword)
	candidate := strings.TrimSpace(parts[len(parts)-1])
	candidate = strings.NewReplacer("?", "", ".", "").Replace(candidate)
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}

	for _, p := range portfolios {
		if strings.Contains(strings.ToLower(p), candidate) {
			return p
		}
	}
	return ""
}
