// Package testutils generates synthetic debate datasets for tests,
// benchmarks and local dashboard development. Generated records are
// schema-valid NDJSON inputs; model strengths and judge habits are
// parameterized so tests can construct datasets with known ground truth.
package testutils

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// ModelProfile describes one synthetic debater. Strength is a latent
// skill on the logit scale: a debate between models with strengths a and
// b gives the pro side a win probability of sigmoid(a-b).
type ModelProfile struct {
	ID       string
	Strength float64
}

// JudgeProfile describes one synthetic judge. Accuracy is the
// probability of following the aggregate outcome; the remainder of the
// time the judge flips a coin weighted by ProLean toward the pro side.
type JudgeProfile struct {
	ID       string
	Accuracy float64
	ProLean  float64
}

// DatasetConfig parameterizes a synthetic dataset.
type DatasetConfig struct {
	Debates int
	TieRate float64
	Models  []ModelProfile
	Topics  []domain.Topic
	Judges  []JudgeProfile
	Seed    int64
}

// DefaultDatasetConfig returns a config with four models of spread
// strengths, six topics over three categories, and three judges of
// varying accuracy and lean.
func DefaultDatasetConfig(debates int, seed int64) DatasetConfig {
	return DatasetConfig{
		Debates: debates,
		TieRate: 0.08,
		Seed:    seed,
		Models: []ModelProfile{
			{ID: "model-alpha", Strength: 1.0},
			{ID: "model-beta", Strength: 0.4},
			{ID: "model-gamma", Strength: -0.2},
			{ID: "model-delta", Strength: -0.8},
		},
		Topics: []domain.Topic{
			{ID: "topic-ubi", Motion: "Universal basic income should replace welfare programs", Category: "policy"},
			{ID: "topic-nuclear", Motion: "Nuclear power is essential for decarbonization", Category: "policy"},
			{ID: "topic-privacy", Motion: "Privacy outweighs security in digital surveillance", Category: "ethics"},
			{ID: "topic-gene", Motion: "Germline gene editing should be permitted", Category: "ethics"},
			{ID: "topic-tenure", Motion: "Academic tenure should be abolished", Category: "education"},
			{ID: "topic-exams", Motion: "Standardized exams measure learning poorly", Category: "education"},
		},
		Judges: []JudgeProfile{
			{ID: "judge-sonnet", Accuracy: 0.9, ProLean: 0.5},
			{ID: "judge-quill", Accuracy: 0.75, ProLean: 0.5},
			{ID: "judge-herald", Accuracy: 0.6, ProLean: 0.85},
		},
	}
}

var scoreDimensions = []string{"logic", "evidence", "rhetoric"}

// GenerateDataset produces cfg.Debates schema-valid records. Output is
// deterministic for a fixed config and seed.
func GenerateDataset(cfg DatasetConfig) []domain.DebateRecord {
	rng := rand.New(rand.NewSource(cfg.Seed))
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	records := make([]domain.DebateRecord, 0, cfg.Debates)
	for i := 0; i < cfg.Debates; i++ {
		pro := cfg.Models[rng.Intn(len(cfg.Models))]
		con := cfg.Models[rng.Intn(len(cfg.Models))]
		for con.ID == pro.ID {
			con = cfg.Models[rng.Intn(len(cfg.Models))]
		}
		topic := cfg.Topics[rng.Intn(len(cfg.Topics))]

		winner := domain.WinnerTie
		if rng.Float64() >= cfg.TieRate {
			pPro := 1.0 / (1.0 + math.Exp(con.Strength-pro.Strength))
			if rng.Float64() < pPro {
				winner = domain.WinnerPro
			} else {
				winner = domain.WinnerCon
			}
		}

		judges := make([]domain.JudgeResult, 0, len(cfg.Judges))
		for _, j := range cfg.Judges {
			pick := winner
			if rng.Float64() >= j.Accuracy {
				pick = domain.WinnerCon
				if rng.Float64() < j.ProLean {
					pick = domain.WinnerPro
				}
			}
			judges = append(judges, domain.JudgeResult{
				JudgeID:   j.ID,
				Winner:    pick,
				ProScores: randomScores(rng, pick == domain.WinnerPro),
				ConScores: randomScores(rng, pick == domain.WinnerCon),
			})
		}

		at := start.Add(time.Duration(i) * 7 * time.Minute)
		records = append(records, domain.DebateRecord{
			Transcript: domain.Transcript{
				DebateID:   fmt.Sprintf("debate-%05d", i),
				Topic:      topic,
				ProModelID: pro.ID,
				ConModelID: con.ID,
				Turns:      randomTurns(rng),
			},
			Judges:    judges,
			Aggregate: domain.AggregatedResult{Winner: winner},
			CreatedAt: &at,
		})
	}
	return records
}

func randomScores(rng *rand.Rand, favored bool) map[string]float64 {
	base := 5.0
	if favored {
		base = 7.0
	}
	scores := make(map[string]float64, len(scoreDimensions))
	for _, dim := range scoreDimensions {
		scores[dim] = math.Round((base+rng.Float64()*2)*10) / 10
	}
	return scores
}

func randomTurns(rng *rand.Rand) []domain.Turn {
	stages := []string{"opening", "rebuttal", "closing"}
	turns := make([]domain.Turn, 0, 2*len(stages))
	idx := 0
	for _, stage := range stages {
		for _, speaker := range []domain.Winner{domain.WinnerPro, domain.WinnerCon} {
			prompt := 400 + rng.Intn(600)
			completion := 150 + rng.Intn(450)
			total := prompt + completion
			cost := math.Round(float64(total)*0.003) / 100
			turns = append(turns, domain.Turn{
				Index:            idx,
				Speaker:          speaker,
				Stage:            stage,
				PromptTokens:     &prompt,
				CompletionTokens: &completion,
				TotalTokens:      &total,
				CostUSD:          &cost,
			})
			idx++
		}
	}
	return turns
}

// WriteNDJSON writes records as newline-delimited JSON, the storage
// format the ingest reader consumes.
func WriteNDJSON(w io.Writer, records []domain.DebateRecord) error {
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// SaveDataset writes records to path as NDJSON, creating parent
// directories as needed.
func SaveDataset(records []domain.DebateRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteNDJSON(f, records); err != nil {
		return err
	}
	return f.Close()
}
