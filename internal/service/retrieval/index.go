// Package retrieval keeps an in-memory full-text index over the portfolio
// exports and returns the records most relevant to a query.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/holdings-chat/internal/model/portfolio"
)

const (
	DefaultTopK = 5

	fieldContent   = "content"
	fieldSource    = "source"
	fieldPortfolio = "portfolio"
	fieldSecurity  = "security"
)

// ErrClosed is returned by Search after Close.
var ErrClosed = errors.New("retrieval index closed")

// Document is one indexed record.
type Document struct {
	Content   string
	Source    string
	Portfolio string
	Security  string
	Score     float64
}

// Searcher is what the answer service depends on.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
	Len() int
}

// Index wraps a bluge writer and the reader snapshot taken after ingestion.
type Index struct {
	writer *bluge.Writer
	reader *bluge.Reader
	count  int
	logger zerolog.Logger
}

// Documents turns every holding and trade row into a retrieval document.
func Documents(store portfolio.Store) []Document {
	holdings := store.Holdings()
	trades := store.Trades()

	docs := make([]Document, 0, len(holdings)+len(trades))
	for _, h := range holdings {
		docs = append(docs, Document{
			Content:   h.Describe(),
			Source:    string(portfolio.TableHoldings),
			Portfolio: unknownIfEmpty(h.PortfolioName),
			Security:  unknownIfEmpty(h.SecurityID),
		})
	}
	for _, t := range trades {
		docs = append(docs, Document{
			Content:   t.Describe(),
			Source:    string(portfolio.TableTrades),
			Portfolio: unknownIfEmpty(t.PortfolioName),
			Security:  unknownIfEmpty(t.SecurityID),
		})
	}
	return docs
}

func unknownIfEmpty(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// Build indexes store in memory.
func Build(store portfolio.Store, logger zerolog.Logger) (*Index, error) {
	return NewIndex(Documents(store), logger)
}

// NewIndex indexes docs in memory. Scores on the input are ignored.
func NewIndex(docs []Document, logger zerolog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}

	batch := bluge.NewBatch()
	for i, d := range docs {
		doc := bluge.NewDocument(strconv.Itoa(i)).
			AddField(bluge.NewTextField(fieldContent, d.Content).StoreValue()).
			AddField(bluge.NewKeywordField(fieldSource, d.Source).StoreValue()).
			AddField(bluge.NewKeywordField(fieldPortfolio, d.Portfolio).StoreValue()).
			AddField(bluge.NewKeywordField(fieldSecurity, d.Security).StoreValue())
		batch.Update(doc.ID(), doc)
	}

	if err := writer.Batch(batch); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to index documents: %w", err)
	}

	reader, err := writer.Reader()
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to open bluge reader: %w", err)
	}

	logger.Info().Int("documents", len(docs)).Msg("retrieval index built")
	return &Index{writer: writer, reader: reader, count: len(docs), logger: logger}, nil
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return i.count
}

// Search returns up to k documents matching query, best first. k <= 0 means DefaultTopK.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if i == nil || i.reader == nil {
		return nil, ErrClosed
	}
	query = strings.TrimSpace(query)
	if query == "" || i.count == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	req := bluge.NewTopNSearch(k, bluge.NewMatchQuery(query).SetField(fieldContent))
	matches, err := i.reader.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	var docs []Document
	match, err := matches.Next()
	for err == nil && match != nil {
		doc := Document{Score: match.Score}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case fieldContent:
				doc.Content = string(value)
			case fieldSource:
				doc.Source = string(value)
			case fieldPortfolio:
				doc.Portfolio = string(value)
			case fieldSecurity:
				doc.Security = string(value)
			}
			return true
		})
		if err != nil {
			break
		}
		docs = append(docs, doc)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	i.logger.Debug().Str("query", query).Int("hits", len(docs)).Msg("retrieval search")
	return docs, nil
}

// Close releases the reader and writer.
func (i *Index) Close() error {
	if i == nil || i.reader == nil {
		return nil
	}
	err := errors.Join(i.reader.Close(), i.writer.Close())
	i.reader = nil
	return err
}
