package intent

import "strings"

// Intent is the routing category of a user query.
type Intent string

const (
	DataLookup  Intent = "DATA_LOOKUP"
	Aggregation Intent = "AGGREGATION"
	Comparison  Intent = "COMPARISON"
	Explanation Intent = "EXPLANATION"
	OutOfScope  Intent = "OUT_OF_SCOPE"
)

// precedence breaks score ties and orders substring matching of model output.
var precedence = []Intent{DataLookup, Aggregation, Comparison, Explanation}

var keywordBuckets = map[Intent][]string{
	DataLookup: {
		"number of", "how many", "count", "show", "list", "custodian", "holding", "trade",
		"portfolio", "fund", "security", "securities", "price", "quantity", "status",
	},
	Aggregation: {
		"total", "sum", "average", "avg", "mean", "maximum", "minimum", "highest", "lowest",
		"top", "profit and loss", "profit & loss", "p&l", "pl_ytd", "market value",
	},
	Comparison: {
		"compare", "comparison", "versus", " vs ", "better", "worse", "difference between",
		"outperform", "underperform",
	},
	Explanation: {
		"why", "explain", "how does", "how did", "reason", "what caused", "meaning of",
	},
}

// Score 是启发式分类的结果。
type Score struct {
	Intent Intent
	Score  int
}

// Heuristic scores query against the keyword buckets. A zero score means no
// bucket matched and Intent is OutOfScope.
func Heuristic(query string) Score {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return Score{Intent: OutOfScope}
	}

	scores := make(map[Intent]int, len(keywordBuckets))
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}
	// 问号结尾且包含 why/how 的提问更偏向解释类。
	if strings.HasSuffix(normalized, "?") && scores[Explanation] > 0 {
		scores[Explanation]++
	}

	best := Score{Intent: OutOfScope}
	for _, label := range precedence {
		if scores[label] > best.Score {
			best = Score{Intent: label, Score: scores[label]}
		}
	}
	return best
}

// Parse maps free-form classifier output to an intent by substring.
// Unrecognized output is OutOfScope.
func Parse(raw string) Intent {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	for _, label := range precedence {
		if strings.Contains(normalized, string(label)) {
			return label
		}
	}
	return OutOfScope
}
