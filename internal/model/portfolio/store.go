package portfolio

import (
	"github.com/samber/lo"
)

// Table names one of the two exports.
type Table string

const (
	TableHoldings Table = "holdings"
	TableTrades   Table = "trades"
)

// Store exposes the loaded portfolio exports to the query engine.
type Store interface {
	Holdings() []Holding
	Trades() []Trade
	// Portfolios lists distinct portfolio names of a table in first-seen order.
	Portfolios(table Table) []string
	// Loaded reports whether the table's export was read.
	Loaded(table Table) bool
	// HasPL reports whether the holdings export carried a PL_YTD column.
	HasPL() bool
}

// MemoryStore implements Store over slices loaded once at startup.
type MemoryStore struct {
	holdings       []Holding
	trades         []Trade
	holdingsLoaded bool
	tradesLoaded   bool
	hasPL          bool
}

// NewMemoryStore returns a store holding copies of the supplied rows. A nil
// slice marks that table as not loaded.
func NewMemoryStore(holdings []Holding, trades []Trade) *MemoryStore {
	return &MemoryStore{
		holdings:       append([]Holding(nil), holdings...),
		trades:         append([]Trade(nil), trades...),
		holdingsLoaded: holdings != nil,
		tradesLoaded:   trades != nil,
		hasPL:          holdings != nil,
	}
}

func (s *MemoryStore) Holdings() []Holding {
	return append([]Holding(nil), s.holdings...)
}

func (s *MemoryStore) Trades() []Trade {
	return append([]Trade(nil), s.trades...)
}

func (s *MemoryStore) Portfolios(table Table) []string {
	var names []string
	switch table {
	case TableHoldings:
		names = lo.Map(s.holdings, func(h Holding, _ int) string { return h.PortfolioName })
	case TableTrades:
		names = lo.Map(s.trades, func(t Trade, _ int) string { return t.PortfolioName })
	}
	return lo.Uniq(lo.Compact(names))
}

func (s *MemoryStore) Loaded(table Table) bool {
	switch table {
	case TableHoldings:
		return s.holdingsLoaded
	case TableTrades:
		return s.tradesLoaded
	default:
		return false
	}
}

func (s *MemoryStore) HasPL() bool {
	return s.hasPL
}
