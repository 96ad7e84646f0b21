package explain

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"riskpipe/internal/decision"
	"riskpipe/internal/pipeline"
)

// Driver is one ranked contribution: the feature, its impact on the score,
// and the record's raw value for that feature.
type Driver struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
	Value   float64 `json:"value"`
}

// ExplanationRecord is the terminal artifact for one top-risk transaction.
type ExplanationRecord struct {
	RecordIndex int      `json:"record_index"`
	RiskScore   float64  `json:"risk_score"`
	FraudLabel  int      `json:"fraud_label"`
	Decision    string   `json:"decision"`
	TopDrivers  []Driver `json:"top_drivers"`
}

// FeatureImportance is one row of the aggregate importance table.
type FeatureImportance struct {
	Feature       string  `json:"feature"`
	MeanAbsImpact float64 `json:"mean_abs_impact"`
}

// Config bounds the explanation set.
type Config struct {
	TopRisk      int
	BaselineSize int
	BaselineSeed int64
	TopDrivers   int
	GlobalTop    int
}

// Explainer combines sampling, decision evaluation, and driver ranking.
type Explainer struct {
	cfg    Config
	policy decision.Policy
	logger zerolog.Logger
}

// New constructs an Explainer.
func New(cfg Config, policy decision.Policy, logger zerolog.Logger) *Explainer {
	return &Explainer{cfg: cfg, policy: policy, logger: logger.With().Str("component", "explain").Logger()}
}

// SampleIndices computes the SampleIndexSet for a score vector: the
// deduplicated, sorted union of the top-N risk indices and the seeded
// baseline sample. The attribution collaborator must compute impacts for
// every returned index before Explain runs.
func (e *Explainer) SampleIndices(scores []float64) ([]int, error) {
	baseline, err := BaselineSample(len(scores), e.cfg.BaselineSize, e.cfg.BaselineSeed)
	if err != nil {
		return nil, err
	}
	top := TopRisk(scores, e.cfg.TopRisk)
	union := Union(top, baseline)
	e.logger.Debug().Int("top_risk", len(top)).Int("baseline", len(baseline)).Int("union", len(union)).Msg("sample index set computed")
	return union, nil
}

// Explain produces one ExplanationRecord per top-risk index plus the
// global importance table over the sampled union. Scores must align 1:1
// with rows; every sampled index must have an impact row.
func (e *Explainer) Explain(rows []pipeline.FeatureRow, scores []float64, impacts *ImpactMatrix) ([]ExplanationRecord, []FeatureImportance, error) {
	if len(scores) != len(rows) {
		return nil, nil, alignmentErrorf("%d scores for %d feature rows", len(scores), len(rows))
	}
	if len(impacts.Features) != len(pipeline.FeatureColumns) {
		return nil, nil, alignmentErrorf("impact matrix has %d feature columns, want %d", len(impacts.Features), len(pipeline.FeatureColumns))
	}

	top := TopRisk(scores, e.cfg.TopRisk)
	baseline, err := BaselineSample(len(scores), e.cfg.BaselineSize, e.cfg.BaselineSeed)
	if err != nil {
		return nil, nil, err
	}
	union := Union(top, baseline)

	records := make([]ExplanationRecord, 0, len(top))
	for _, idx := range top {
		impactRow, err := impacts.Row(idx)
		if err != nil {
			return nil, nil, err
		}

		records = append(records, ExplanationRecord{
			RecordIndex: idx,
			RiskScore:   scores[idx],
			FraudLabel:  rows[idx].IsFraud,
			Decision:    e.policy.Evaluate(scores[idx]),
			TopDrivers:  rankDrivers(impacts.Features, impactRow, rows[idx].FeatureValues(), e.cfg.TopDrivers),
		})
	}

	global, err := globalImportance(impacts, union, e.cfg.GlobalTop)
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info().Int("explanations", len(records)).Int("global_features", len(global)).Msg("explanation set ranked")
	return records, global, nil
}

// rankDrivers selects the k features with the largest absolute impact,
// sorted descending; equal absolute impacts order by feature name.
func rankDrivers(features []string, impacts, values []float64, k int) []Driver {
	drivers := make([]Driver, len(features))
	for i, f := range features {
		drivers[i] = Driver{Feature: f, Impact: impacts[i], Value: values[i]}
	}

	sort.Slice(drivers, func(a, b int) bool {
		absA, absB := math.Abs(drivers[a].Impact), math.Abs(drivers[b].Impact)
		if absA != absB {
			return absA > absB
		}
		return drivers[a].Feature < drivers[b].Feature
	})

	if k > len(drivers) {
		k = len(drivers)
	}
	return drivers[:k]
}

// globalImportance averages absolute impact per feature across the
// sampled union rows, sorted descending and truncated to top.
func globalImportance(impacts *ImpactMatrix, indices []int, top int) ([]FeatureImportance, error) {
	sums := make([]float64, len(impacts.Features))
	for _, idx := range indices {
		row, err := impacts.Row(idx)
		if err != nil {
			return nil, err
		}
		for i, v := range row {
			sums[i] += math.Abs(v)
		}
	}

	table := make([]FeatureImportance, len(impacts.Features))
	for i, f := range impacts.Features {
		mean := 0.0
		if len(indices) > 0 {
			mean = sums[i] / float64(len(indices))
		}
		table[i] = FeatureImportance{Feature: f, MeanAbsImpact: mean}
	}

	sort.Slice(table, func(a, b int) bool {
		if table[a].MeanAbsImpact != table[b].MeanAbsImpact {
			return table[a].MeanAbsImpact > table[b].MeanAbsImpact
		}
		return table[a].Feature < table[b].Feature
	})

	if top > len(table) {
		top = len(table)
	}
	return table[:top], nil
}
