package intel

import (
	"math"

	"github.com/sawpanic/optionrun/internal/domain"
)

// ClusterType tags which side of the chain is being accumulated.
type ClusterType string

const (
	CallAccumulation ClusterType = "CALL_ACCUMULATION"
	PutAccumulation  ClusterType = "PUT_ACCUMULATION"
)

// Cluster is one flagged accumulation site. Institutional is set when the
// strike sits on a round number, the footprint big money prefers.
type Cluster struct {
	Strike        float64     `json:"strike"`
	Type          ClusterType `json:"type"`
	Strength      float64     `json:"strength"`
	Institutional bool        `json:"is_institutional"`
}

// FlowResult carries the institutional-intent read for one snapshot.
type FlowResult struct {
	IntentScore     int       `json:"intent_score"`
	Clusters        []Cluster `json:"clusters"`
	BigMoneyPresent bool      `json:"big_money_present"`
}

const (
	volOIRatioThreshold = 1.5
	roundNumberVolume   = 50_000
	clusterScoreStep    = 10
	maxReportedClusters = 5
)

// AnalyzeInstitutionalFlow detects aggressive position initiation via
// volume/OI ratio anomalies and round-number volume clustering. When
// volume outruns open interest, positions are being initiated or closed
// aggressively rather than carried.
func AnalyzeInstitutionalFlow(chain []domain.StrikeRow) FlowResult {
	var clusters []Cluster
	score := 0

	for i := range chain {
		row := &chain[i]
		wholeNumber := isRoundStrike(row.Strike)

		if c := legCluster(row.Call, row.Strike, CallAccumulation, wholeNumber); c != nil {
			clusters = append(clusters, *c)
			score += clusterScoreStep
		}
		if c := legCluster(row.Put, row.Strike, PutAccumulation, wholeNumber); c != nil {
			clusters = append(clusters, *c)
			score += clusterScoreStep
		}
	}

	if score > 100 {
		score = 100
	}
	// Keep the first five in strike order; the scan already walks the
	// chain ascending.
	if len(clusters) > maxReportedClusters {
		clusters = clusters[:maxReportedClusters]
	}

	bigMoney := false
	for _, c := range clusters {
		if c.Institutional {
			bigMoney = true
			break
		}
	}

	return FlowResult{
		IntentScore:     score,
		Clusters:        clusters,
		BigMoneyPresent: bigMoney,
	}
}

func legCluster(q *domain.ContractQuote, strike float64, typ ClusterType, wholeNumber bool) *Cluster {
	if q == nil {
		return nil
	}
	ratio := float64(q.Volume) / math.Max(float64(q.OI), 1)
	if ratio > volOIRatioThreshold || (wholeNumber && q.Volume > roundNumberVolume) {
		return &Cluster{
			Strike:        strike,
			Type:          typ,
			Strength:      round2(ratio),
			Institutional: wholeNumber,
		}
	}
	return nil
}

func isRoundStrike(strike float64) bool {
	return math.Mod(strike, 100) == 0 || math.Mod(strike, 50) == 0
}
