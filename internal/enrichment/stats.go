package enrichment

import (
	"math"
	"sort"

	"github.com/opensource-finance/ringdetect/internal/domain"
)

const toleranceFraction = 0.3

// relationshipProfile computes the three legitimacy-profile features over a
// single directed edge's transaction list (spec.md §4.8.1): the relationship
// duration in days, the coefficient of variation of amounts, and the
// periodicity score (fraction of inter-arrival intervals within +/-30% of
// the mean interval).
func relationshipProfile(txs []domain.Transaction) (durationDays, amountVariance, periodicity float64) {
	sorted := append([]domain.Transaction{}, txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	if len(sorted) == 0 {
		return 0, 0, 0
	}

	span := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp)
	durationDays = span.Hours() / 24

	amountVariance = coefficientOfVariation(sorted)
	periodicity = periodicityScore(sorted)
	return durationDays, amountVariance, periodicity
}

func coefficientOfVariation(sorted []domain.Transaction) float64 {
	if len(sorted) == 0 {
		return 0
	}
	var sum float64
	amounts := make([]float64, len(sorted))
	for i, tx := range sorted {
		f, _ := tx.Amount.Float64()
		amounts[i] = f
		sum += f
	}
	mean := sum / float64(len(amounts))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, a := range amounts {
		d := a - mean
		variance += d * d
	}
	variance /= float64(len(amounts))
	return math.Sqrt(variance) / mean
}

func periodicityScore(sorted []domain.Transaction) float64 {
	if len(sorted) < 3 {
		return 0
	}
	intervals := make([]float64, 0, len(sorted)-1)
	var sum float64
	for i := 1; i < len(sorted); i++ {
		d := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp).Seconds()
		intervals = append(intervals, d)
		sum += d
	}
	mean := sum / float64(len(intervals))
	if mean <= 0 {
		return 0
	}
	within := 0
	lower := mean * (1 - toleranceFraction)
	upper := mean * (1 + toleranceFraction)
	for _, d := range intervals {
		if d >= lower && d <= upper {
			within++
		}
	}
	return float64(within) / float64(len(intervals))
}
