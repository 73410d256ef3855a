package partner

import "math"

// Risk score weighting. Matching friction dominates; disputes add on
// top because they bind finance staff, not just buyers
const (
	riskBaseline        = 5
	riskExceptionWeight = 60
	riskDisputeWeight   = 35
)

// ScoreVendorRisk derives a 0-100 risk score from a vendor's recent
// invoice activity. Vendors without activity sit at the baseline; a
// vendor failing matching on every invoice and disputing them all
// scores 100
func ScoreVendorRisk(total, exceptions, disputed int64) int {
	if total <= 0 {
		return riskBaseline
	}

	exceptionShare := float64(exceptions) / float64(total)
	disputeShare := float64(disputed) / float64(total)

	score := riskBaseline +
		int(math.Round(riskExceptionWeight*exceptionShare)) +
		int(math.Round(riskDisputeWeight*disputeShare))

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
