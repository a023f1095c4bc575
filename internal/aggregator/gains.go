package aggregator

import (
	"sort"

	"github.com/rahulprajapat123/investment-manager/pkg/contracts/domain"
)

// summarizeGains rolls realized-gain events up per symbol, split by
// holding-period bucket. Events with an unexpected bucket were rejected by
// validation and never reach here.
func summarizeGains(clientID string, gains []domain.CapitalGainEvent) []domain.SymbolGainSummary {
	bySymbol := make(map[string]*domain.SymbolGainSummary)
	for _, g := range gains {
		s, ok := bySymbol[g.Symbol]
		if !ok {
			s = &domain.SymbolGainSummary{ClientID: clientID, Symbol: g.Symbol}
			bySymbol[g.Symbol] = s
		}
		s.TotalGain = s.TotalGain.Add(g.GainLoss)
		switch g.HoldingPeriod {
		case domain.HoldingPeriodShort:
			s.ShortTermGain = s.ShortTermGain.Add(g.GainLoss)
		case domain.HoldingPeriodLong:
			s.LongTermGain = s.LongTermGain.Add(g.GainLoss)
		}
		s.Events++
	}

	summaries := make([]domain.SymbolGainSummary, 0, len(bySymbol))
	for _, s := range bySymbol {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Symbol < summaries[j].Symbol })
	return summaries
}
