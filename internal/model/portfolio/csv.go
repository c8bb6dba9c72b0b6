package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNoData is returned by LoadFiles when neither export could be read.
var ErrNoData = errors.New("no portfolio data loaded")

type header map[string]int

func (h header) get(record []string, names ...string) string {
	for _, name := range names {
		if idx, ok := h[name]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
	}
	return ""
}

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok
}

func readTable(r io.Reader) (header, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return header{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(header, len(first))
	for i, name := range first {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return cols, records, nil
}

// parseNumber coerces a cell to a float. Unparseable cells count as zero.
func parseNumber(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// ReadHoldings parses a holdings export. It also reports whether a PL_YTD column was present.
func ReadHoldings(r io.Reader) ([]Holding, bool, error) {
	cols, records, err := readTable(r)
	if err != nil {
		return nil, false, err
	}

	holdings := make([]Holding, 0, len(records))
	for _, rec := range records {
		holdings = append(holdings, Holding{
			PortfolioName: cols.get(rec, "PortfolioName"),
			SecurityID:    cols.get(rec, "SecurityId"),
			Quantity:      parseNumber(cols.get(rec, "Quantity", "Qty")),
			Price:         parseNumber(cols.get(rec, "Price")),
			MVBase:        parseNumber(cols.get(rec, "MV_Base")),
			PLYTD:         parseNumber(cols.get(rec, "PL_YTD")),
			CustodianName: cols.get(rec, "CustodianName"),
		})
	}
	return holdings, cols.has("PL_YTD"), nil
}

// ReadTrades parses a trades export.
func ReadTrades(r io.Reader) ([]Trade, error) {
	cols, records, err := readTable(r)
	if err != nil {
		return nil, err
	}

	trades := make([]Trade, 0, len(records))
	for _, rec := range records {
		trades = append(trades, Trade{
			PortfolioName: cols.get(rec, "PortfolioName"),
			SecurityID:    cols.get(rec, "SecurityId"),
			TradeTypeName: cols.get(rec, "TradeTypeName"),
			Quantity:      parseNumber(cols.get(rec, "Quantity", "Qty")),
			Price:         parseNumber(cols.get(rec, "Price")),
			Status:        cols.get(rec, "Status"),
		})
	}
	return trades, nil
}

// LoadFiles reads both exports. A missing or unreadable file is logged and
// leaves that table unloaded; ErrNoData is returned only when both fail.
func LoadFiles(holdingsPath, tradesPath string, logger zerolog.Logger) (*MemoryStore, error) {
	store := &MemoryStore{}

	if err := withFile(holdingsPath, func(f io.Reader) error {
		holdings, hasPL, err := ReadHoldings(f)
		if err != nil {
			return err
		}
		store.holdings, store.holdingsLoaded, store.hasPL = holdings, true, hasPL
		return nil
	}); err != nil {
		logger.Error().Err(err).Str("path", holdingsPath).Msg("holdings not loaded")
	}

	if err := withFile(tradesPath, func(f io.Reader) error {
		trades, err := ReadTrades(f)
		if err != nil {
			return err
		}
		store.trades, store.tradesLoaded = trades, true
		return nil
	}); err != nil {
		logger.Error().Err(err).Str("path", tradesPath).Msg("trades not loaded")
	}

	logger.Info().
		Int("holdings", len(store.holdings)).
		Int("trades", len(store.trades)).
		Msg("portfolio data loaded")

	if !store.holdingsLoaded && !store.tradesLoaded {
		return store, ErrNoData
	}
	return store, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}
