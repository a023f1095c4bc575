package detector

import (
	"strings"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// KindRule is one declarative filename-classification rule. AllOf keywords
// must all appear; otherwise any AnyOf keyword matches. Rules are evaluated
// in slice order, so earlier entries take priority.
type KindRule struct {
	Kind  domain.FileKind
	AllOf []string
	AnyOf []string
}

// KindRules is the single ordered rule list for file-kind inference.
// Capital-gains keywords come before the generic trade keywords because a
// capital-gains export may mention "trade" incidentally.
var KindRules = []KindRule{
	{Kind: domain.FileKindCapitalGains, AllOf: []string{"capital", "gain"}},
	{Kind: domain.FileKindCapitalGains, AnyOf: []string{"capgain", "cg_", "_cg"}},
	{Kind: domain.FileKindHoldings, AnyOf: []string{"holding"}},
	{Kind: domain.FileKindTradeBook, AnyOf: []string{"tradebook", "trade_book", "trades", "trade"}},
}

// BrokerKeywords are the broker names recognized inside filename segments
// when the folder convention does not identify the broker. Matching is
// case-insensitive. Defined here alongside the kind rules so broker and
// file-kind inference live in one place.
var BrokerKeywords = []string{
	"zerodha",
	"schwab",
	"fidelity",
	"hdfc",
	"icici",
	"groww",
	"upstox",
	"kotak",
}

// Matches reports whether the rule applies to the lowercased filename.
func (r KindRule) Matches(name string) bool {
	if len(r.AllOf) > 0 {
		for _, kw := range r.AllOf {
			if !strings.Contains(name, kw) {
				return false
			}
		}
		return true
	}
	for _, kw := range r.AnyOf {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
