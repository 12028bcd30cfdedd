// Package domain defines the core data model for the debate league
// metrics engine: the raw debate records produced by benchmark runs and
// the derived statistics computed from them.
package domain

import (
	"time"
)

// Winner identifies which side of a debate prevailed according to a
// judge or the aggregate of all judges.
type Winner string

// Possible debate outcomes. An empty Winner means the outcome is
// unknown; aggregation treats it as tie-equivalent.
const (
	// WinnerPro indicates the side arguing for the motion won.
	WinnerPro Winner = "pro"

	// WinnerCon indicates the side arguing against the motion won.
	WinnerCon Winner = "con"

	// WinnerTie indicates the judges could not separate the sides.
	WinnerTie Winner = "tie"
)

// Topic describes the motion a debate was argued over.
type Topic struct {
	// ID uniquely identifies this topic within the benchmark.
	ID string `json:"id" validate:"required"`

	// Motion is the statement the pro side argues for.
	Motion string `json:"motion"`

	// Category groups related topics for filtered league views
	// (e.g. "ethics", "policy"). May be empty.
	Category string `json:"category,omitempty"`
}

// Turn is a single speech in a debate transcript. Token counts and cost
// are optional because some providers do not report usage; nil values
// are excluded from per-model means rather than treated as zero.
type Turn struct {
	// Index is the zero-based position of this turn in the debate.
	Index int `json:"index"`

	// Speaker is the side that produced this turn.
	Speaker Winner `json:"speaker" validate:"required,oneof=pro con"`

	// Stage names the debate phase (opening, rebuttal, closing).
	Stage string `json:"stage,omitempty"`

	// PromptTokens is the prompt token count reported for this turn.
	PromptTokens *int `json:"prompt_tokens,omitempty"`

	// CompletionTokens is the completion token count for this turn.
	CompletionTokens *int `json:"completion_tokens,omitempty"`

	// TotalTokens is the total token count for this turn.
	TotalTokens *int `json:"total_tokens,omitempty"`

	// CostUSD is the provider cost attributed to this turn in dollars.
	CostUSD *float64 `json:"cost_usd,omitempty"`
}

// Transcript is the full record of a single debate between two models.
type Transcript struct {
	// DebateID uniquely identifies this debate.
	DebateID string `json:"debate_id" validate:"required"`

	// Topic is the motion this debate was argued over.
	Topic Topic `json:"topic" validate:"required"`

	// ProModelID identifies the model arguing for the motion.
	ProModelID string `json:"pro_model_id" validate:"required"`

	// ConModelID identifies the model arguing against the motion.
	ConModelID string `json:"con_model_id" validate:"required"`

	// Turns holds the ordered speeches of the debate.
	Turns []Turn `json:"turns" validate:"dive"`
}

// JudgeResult is a single judge's decision on a debate, including the
// per-dimension rubric scores it assigned to each side.
type JudgeResult struct {
	// JudgeID identifies the judge model that produced this decision.
	JudgeID string `json:"judge_id" validate:"required"`

	// Winner is the side this judge picked. Empty means the judge
	// failed to produce a usable decision.
	Winner Winner `json:"winner" validate:"omitempty,oneof=pro con tie"`

	// ProScores maps dimension id to the score given to the pro side.
	ProScores map[string]float64 `json:"pro_scores,omitempty"`

	// ConScores maps dimension id to the score given to the con side.
	ConScores map[string]float64 `json:"con_scores,omitempty"`
}

// AggregatedResult is the combined judgment over all judges of a debate.
type AggregatedResult struct {
	// Winner is the aggregate outcome. Empty is treated as a tie.
	Winner Winner `json:"winner" validate:"omitempty,oneof=pro con tie"`

	// MeanPro maps dimension id to the mean score of the pro side.
	MeanPro map[string]float64 `json:"mean_pro,omitempty"`

	// MeanCon maps dimension id to the mean score of the con side.
	MeanCon map[string]float64 `json:"mean_con,omitempty"`
}

// EloConfig carries the rating parameters a dataset was produced under.
// Zero values fall back to the engine defaults (400 initial, K=32).
type EloConfig struct {
	// InitialRating is the rating assigned to a model before its
	// first debate.
	InitialRating float64 `json:"initial_rating,omitempty" yaml:"initial_rating" validate:"min=0"`

	// KFactor controls how far a single debate moves a rating.
	KFactor float64 `json:"k_factor,omitempty" yaml:"k_factor" validate:"min=0"`
}

// DebateRecord is one validated debate with its judgments. Records are
// immutable inputs to the metrics engine; the engine never mutates them.
type DebateRecord struct {
	// Transcript holds the debate itself.
	Transcript Transcript `json:"transcript" validate:"required"`

	// Judges holds each judge's individual decision.
	Judges []JudgeResult `json:"judges" validate:"dive"`

	// Aggregate is the combined judgment across judges.
	Aggregate AggregatedResult `json:"aggregate"`

	// CreatedAt is when the debate finished. Records without a
	// timestamp sort after records that have one.
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// Elo optionally overrides the rating parameters for the dataset
	// this record belongs to. The first record that sets a non-zero
	// value wins for the whole pass.
	Elo *EloConfig `json:"elo,omitempty"`
}

// ProScore converts an aggregate winner into the pro side's actual
// score for Elo updates: 1 for a pro win, 0 for a con win, 0.5 for a
// tie or an unknown outcome.
func (w Winner) ProScore() float64 {
	switch w {
	case WinnerPro:
		return 1.0
	case WinnerCon:
		return 0.0
	default:
		return 0.5
	}
}

// Decided reports whether this winner is a usable pro/con decision for
// bias-model training; ties and unknown outcomes are excluded.
func (w Winner) Decided() bool { return w == WinnerPro || w == WinnerCon }
