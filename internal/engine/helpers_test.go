package engine

import (
	"time"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// Test fixture builders shared by the engine test files.

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timeAt(min int) *time.Time {
	t := time.Date(2026, 3, 1, 12, min, 0, 0, time.UTC)
	return &t
}

type debateSpec struct {
	id       string
	topicID  string
	category string
	pro, con string
	winner   domain.Winner
	// judgePicks maps judge id to that judge's winner, in a separate
	// ordered slice to keep record construction deterministic.
	judges []judgePick
	at     *time.Time
	turns  []domain.Turn
	elo    *domain.EloConfig
}

type judgePick struct {
	judge  string
	winner domain.Winner
}

func makeRecord(spec debateSpec) domain.DebateRecord {
	judges := make([]domain.JudgeResult, 0, len(spec.judges))
	for _, p := range spec.judges {
		judges = append(judges, domain.JudgeResult{JudgeID: p.judge, Winner: p.winner})
	}
	return domain.DebateRecord{
		Transcript: domain.Transcript{
			DebateID:   spec.id,
			Topic:      domain.Topic{ID: spec.topicID, Motion: "motion " + spec.topicID, Category: spec.category},
			ProModelID: spec.pro,
			ConModelID: spec.con,
			Turns:      spec.turns,
		},
		Judges:    judges,
		Aggregate: domain.AggregatedResult{Winner: spec.winner},
		CreatedAt: spec.at,
		Elo:       spec.elo,
	}
}

func statsFor(d domain.DerivedData, modelID string) (domain.ModelStats, bool) {
	for _, s := range d.ModelStats {
		if s.ModelID == modelID {
			return s, true
		}
	}
	return domain.ModelStats{}, false
}

func cellFor(d domain.DerivedData, a, b string) (domain.HeadToHeadCell, bool) {
	for _, c := range d.HeadToHead {
		if c.ModelA == a && c.ModelB == b {
			return c, true
		}
	}
	return domain.HeadToHeadCell{}, false
}

func biasRowFor(d domain.DerivedData, judge, topic string) (domain.JudgeBiasRow, bool) {
	for _, r := range d.JudgeBias {
		if r.JudgeID == judge && r.TopicID == topic {
			return r, true
		}
	}
	return domain.JudgeBiasRow{}, false
}
