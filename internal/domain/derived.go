package domain

import "time"

// Stability labels attached to cross-validated bias estimates. The label
// summarizes how consistent a judge/topic's adjusted bias was across
// held-out folds.
const (
	// StabilityHigh means at least five fold samples were collected and
	// the 95% confidence interval excludes zero.
	StabilityHigh = "high"

	// StabilityMed means at least three fold samples were collected.
	StabilityMed = "med"

	// StabilityLow means too few fold samples exist to trust the mean.
	StabilityLow = "low"
)

// ModelStats holds the per-model league statistics for one model id.
// Field names are the wire contract with the dashboard frontend.
type ModelStats struct {
	// ModelID identifies the model these statistics describe.
	ModelID string `json:"model_id"`

	// Games is the number of debates this model took part in.
	Games int `json:"games"`

	// Wins, Losses and Ties partition Games by aggregate outcome.
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`

	// WinRate is (wins + 0.5*ties) / max(games, 1).
	WinRate float64 `json:"win_rate"`

	// ProGames and ConGames count appearances on each side.
	ProGames int `json:"pro_games"`
	ConGames int `json:"con_games"`

	// ProWinRate and ConWinRate are side-conditional win rates, with a
	// tie counting 0.5 toward the numerator.
	ProWinRate float64 `json:"pro_win_rate"`
	ConWinRate float64 `json:"con_win_rate"`

	// Rating is the model's Elo rating after the full pass.
	Rating float64 `json:"rating"`

	// Token means are arithmetic means over the turns that reported a
	// count; turns without usage data do not dilute them.
	MeanPromptTokens     float64 `json:"mean_prompt_tokens"`
	MeanCompletionTokens float64 `json:"mean_completion_tokens"`
	MeanTotalTokens      float64 `json:"mean_total_tokens"`

	// MeanCost and TotalCost are present only when at least one turn
	// reported a cost.
	MeanCost  *float64 `json:"mean_cost,omitempty"`
	TotalCost *float64 `json:"total_cost,omitempty"`
}

// HeadToHeadCell is one directed cell of the head-to-head matrix: the
// row model's win rate over the column model. Both (A,B) and (B,A) are
// emitted; a tie contributes 0.5 to each direction.
type HeadToHeadCell struct {
	// ModelA is the row model whose win rate is reported.
	ModelA string `json:"model_a"`

	// ModelB is the column (opponent) model.
	ModelB string `json:"model_b"`

	// WinRate is ModelA's win rate over ModelB, 0 if no samples.
	WinRate float64 `json:"win_rate"`

	// Samples is the number of shared debates.
	Samples int `json:"samples"`
}

// TopicWinrate is one model's record on one topic.
type TopicWinrate struct {
	TopicID  string `json:"topic_id"`
	Category string `json:"category,omitempty"`
	ModelID  string `json:"model_id"`

	Wins    int `json:"wins"`
	Losses  int `json:"losses"`
	Ties    int `json:"ties"`
	Samples int `json:"samples"`

	// WinRate is (wins + 0.5*ties) / samples, 0 with no samples.
	WinRate float64 `json:"win_rate"`
}

// JudgeAgreementRow reports how often an unordered pair of judges picked
// the same winner on the debates they both judged.
type JudgeAgreementRow struct {
	JudgeA string `json:"judge_a"`
	JudgeB string `json:"judge_b"`

	// Agreement is the fraction of shared debates with matching picks.
	Agreement float64 `json:"agreement"`

	// Samples is the number of debates both judges voted on.
	Samples int `json:"samples"`
}

// JudgeBiasRow holds the raw and confound-adjusted pro-side preference
// of one judge on one topic. The adjusted fields are nil until the bias
// model has been fit, and stay nil when the input is degenerate (no
// judges, no topics, or no trainable decisions).
type JudgeBiasRow struct {
	JudgeID string `json:"judge_id"`
	TopicID string `json:"topic_id"`

	// Raw pick counts for this judge on this topic.
	ProPicks int `json:"pro_picks"`
	ConPicks int `json:"con_picks"`
	TiePicks int `json:"tie_picks"`

	// ProRate and ConRate are pick fractions over all picks; Bias is
	// ProRate - ConRate.
	ProRate float64 `json:"pro_rate"`
	ConRate float64 `json:"con_rate"`
	Bias    float64 `json:"bias"`

	// AdjBias is the single-fit adjusted bias in (-1, 1): the judge and
	// topic effects after controlling for model strength.
	AdjBias *float64 `json:"adj_bias,omitempty"`

	// Cross-validated summary of AdjBias across held-out folds.
	AdjBiasMean   *float64 `json:"adj_bias_mean,omitempty"`
	AdjBiasStd    *float64 `json:"adj_bias_std,omitempty"`
	AdjBiasCILow  *float64 `json:"adj_bias_ci_low,omitempty"`
	AdjBiasCIHigh *float64 `json:"adj_bias_ci_high,omitempty"`

	// Stability is "high", "med" or "low"; empty until CV has run.
	Stability string `json:"stability,omitempty"`

	// Topic-level averages across all judges of the same topic, kept on
	// each row so the frontend can sort rows by topic severity.
	TopicAvgBias    *float64 `json:"topic_avg_bias,omitempty"`
	TopicAvgAdjBias *float64 `json:"topic_avg_adj_bias,omitempty"`
}

// DebateRow is a flat per-debate record retained for ad hoc charting.
// Per-dimension means are kept as maps rather than flattened into
// dimension-named fields; flattening, if needed, happens at the
// serialization boundary of the consumer.
type DebateRow struct {
	DebateID   string     `json:"debate_id"`
	TopicID    string     `json:"topic_id"`
	Category   string     `json:"category,omitempty"`
	ProModelID string     `json:"pro_model_id"`
	ConModelID string     `json:"con_model_id"`
	Winner     Winner     `json:"winner"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`

	MeanPro map[string]float64 `json:"mean_pro,omitempty"`
	MeanCon map[string]float64 `json:"mean_con,omitempty"`

	// TotalTokens and TotalCostUSD sum the turns that reported usage.
	TotalTokens  int      `json:"total_tokens"`
	TotalCostUSD *float64 `json:"total_cost_usd,omitempty"`
}

// JudgeDecisionRow is a flat per-judge-decision record retained for ad
// hoc charting.
type JudgeDecisionRow struct {
	DebateID   string `json:"debate_id"`
	JudgeID    string `json:"judge_id"`
	TopicID    string `json:"topic_id"`
	Category   string `json:"category,omitempty"`
	ProModelID string `json:"pro_model_id"`
	ConModelID string `json:"con_model_id"`
	Winner     Winner `json:"winner"`

	// AgreesWithAggregate reports whether this judge picked the same
	// winner as the aggregate judgment.
	AgreesWithAggregate bool `json:"agrees_with_aggregate"`
}

// DerivedData is the aggregate root produced by a single metrics pass.
// Every collection is rebuilt from scratch on each pass; there is no
// incremental mutation. Category-sliced DerivedData values are
// structurally identical to the full-dataset one and can be merged or
// filtered without revisiting raw records.
type DerivedData struct {
	// Models lists every model id seen as pro or con, sorted.
	Models []string `json:"models"`

	// Dimensions is the sorted union of score dimensions observed.
	Dimensions []string `json:"dimensions"`

	ModelStats     []ModelStats        `json:"model_stats"`
	HeadToHead     []HeadToHeadCell    `json:"head_to_head"`
	TopicWinrates  []TopicWinrate      `json:"topic_winrates"`
	JudgeAgreement []JudgeAgreementRow `json:"judge_agreement"`
	JudgeBias      []JudgeBiasRow      `json:"judge_bias"`

	// Flat row tables, populated only when requested.
	DebateRows []DebateRow        `json:"debate_rows"`
	JudgeRows  []JudgeDecisionRow `json:"judge_rows"`
}

// NewDerivedData returns a DerivedData with every collection allocated
// empty, so an empty input serializes as [] rather than null.
func NewDerivedData() DerivedData {
	return DerivedData{
		Models:         []string{},
		Dimensions:     []string{},
		ModelStats:     []ModelStats{},
		HeadToHead:     []HeadToHeadCell{},
		TopicWinrates:  []TopicWinrate{},
		JudgeAgreement: []JudgeAgreementRow{},
		JudgeBias:      []JudgeBiasRow{},
		DebateRows:     []DebateRow{},
		JudgeRows:      []JudgeDecisionRow{},
	}
}
