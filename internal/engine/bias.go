package engine

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-rostrum/internal/domain"
	"github.com/ahrav/go-rostrum/internal/regress"
)

// Feature groups of the bias design matrix. Group membership determines
// the L2 penalty applied to a weight.
type featureKind uint8

const (
	featJudge featureKind = iota
	featTopic
	featModel
	featTopicModel
)

type featureKey struct {
	kind featureKind
	a, b string // b is only set for topic-by-model interactions
}

// biasDesign is the sparse design matrix for the judge-bias regression:
// one example per non-tie judge decision, with an intercept, judge and
// topic one-hots, signed model features (+1 pro / -1 con) and signed
// topic-by-model interactions. The model and interaction features exist
// only to absorb skill confounds during fitting; they are excluded from
// the bias readout.
type biasDesign struct {
	index    map[featureKey]int
	penalty  []float64
	examples []regress.Example

	// foldKeys holds one fold-assignment key per example: the debate id
	// when available, otherwise a topic/judge composite.
	foldKeys []string

	judges map[string]bool
	topics map[string]bool
}

const interceptIndex = 0

// buildBiasDesign walks records in sorted order so feature indices are
// assigned deterministically.
func buildBiasDesign(sorted []domain.DebateRecord, cfg BiasConfig) *biasDesign {
	d := &biasDesign{
		index:   make(map[featureKey]int),
		penalty: []float64{cfg.LambdaJudge}, // intercept penalized at the judge rate
		judges:  make(map[string]bool),
		topics:  make(map[string]bool),
	}

	feature := func(kind featureKind, a, b string, lambda float64) int {
		key := featureKey{kind: kind, a: a, b: b}
		if idx, ok := d.index[key]; ok {
			return idx
		}
		idx := len(d.penalty)
		d.index[key] = idx
		d.penalty = append(d.penalty, lambda)
		return idx
	}

	for _, rec := range sorted {
		tr := rec.Transcript
		for _, j := range rec.Judges {
			if !j.Winner.Decided() {
				continue
			}
			d.judges[j.JudgeID] = true
			d.topics[tr.Topic.ID] = true

			label := 0.0
			if j.Winner == domain.WinnerPro {
				label = 1.0
			}

			ex := regress.Example{
				Label: label,
				Features: []regress.Feature{
					{Index: interceptIndex, Value: 1},
					{Index: feature(featJudge, j.JudgeID, "", cfg.LambdaJudge), Value: 1},
					{Index: feature(featTopic, tr.Topic.ID, "", cfg.LambdaTopic), Value: 1},
					{Index: feature(featModel, tr.ProModelID, "", cfg.LambdaModel), Value: 1},
					{Index: feature(featModel, tr.ConModelID, "", cfg.LambdaModel), Value: -1},
					{Index: feature(featTopicModel, tr.Topic.ID, tr.ProModelID, cfg.LambdaTopicModel), Value: 1},
					{Index: feature(featTopicModel, tr.Topic.ID, tr.ConModelID, cfg.LambdaTopicModel), Value: -1},
				},
			}
			d.examples = append(d.examples, ex)

			foldKey := tr.DebateID
			if foldKey == "" {
				foldKey = tr.Topic.ID + "|" + j.JudgeID
			}
			d.foldKeys = append(d.foldKeys, foldKey)
		}
	}
	return d
}

// degenerate reports whether the adjustment phase should be skipped
// entirely: no trainable decisions, no judges, or no topics. Raw bias
// stays populated; the adj fields simply remain unset.
func (d *biasDesign) degenerate() bool {
	return len(d.examples) == 0 || len(d.judges) == 0 || len(d.topics) == 0
}

// adjustedBias reads the (judge, topic) bias out of a fitted weight
// vector: logit = w[intercept] + w[judge] + w[topic], mapped to (-1, 1)
// by 2*sigmoid - 1. A judge or topic absent from the design (all its
// decisions were ties) contributes zero.
func (d *biasDesign) adjustedBias(weights []float64, judgeID, topicID string) float64 {
	logit := weights[interceptIndex]
	if idx, ok := d.index[featureKey{kind: featJudge, a: judgeID}]; ok {
		logit += weights[idx]
	}
	if idx, ok := d.index[featureKey{kind: featTopic, a: topicID}]; ok {
		logit += weights[idx]
	}
	return 2*regress.Sigmoid(logit) - 1
}

func (d *biasDesign) fit(lr float64, iterations int) ([]float64, error) {
	return regress.FitRidgeLogistic(d.examples, len(d.penalty), regress.Config{
		LearningRate: lr,
		Iterations:   iterations,
		Penalty:      d.penalty,
	})
}

// fitFold refits on the examples outside the given fold. It returns nil
// weights when the fold holds every example.
func (d *biasDesign) fitFold(fold int, cfg BiasConfig) ([]float64, error) {
	var held []regress.Example
	for i, ex := range d.examples {
		if regress.HashFold(d.foldKeys[i], cfg.Folds) != fold {
			held = append(held, ex)
		}
	}
	if len(held) == 0 {
		return nil, nil
	}
	return regress.FitRidgeLogistic(held, len(d.penalty), regress.Config{
		LearningRate: cfg.LearningRate,
		Iterations:   cfg.CVIterations,
		Penalty:      d.penalty,
	})
}

// adjustJudgeBias fits the confound-adjusted bias model and annotates
// the raw bias rows in place. With includeCV it additionally runs the
// k-fold stability pass. Degenerate inputs leave every adj field unset.
func adjustJudgeBias(sorted []domain.DebateRecord, rows []domain.JudgeBiasRow, cfg BiasConfig, includeCV bool) {
	if len(rows) == 0 {
		return
	}
	design := buildBiasDesign(sorted, cfg)
	if design.degenerate() {
		return
	}

	weights, err := design.fit(cfg.LearningRate, cfg.Iterations)
	if err != nil {
		// Unreachable for a non-degenerate design; treated as the same
		// silent degradation as a degenerate input.
		return
	}
	for i := range rows {
		adj := design.adjustedBias(weights, rows[i].JudgeID, rows[i].TopicID)
		rows[i].AdjBias = &adj
	}

	if !includeCV {
		return
	}
	crossValidateBias(design, rows, cfg)
}

// crossValidateBias refits the model once per fold and summarizes the
// per-(judge, topic) spread of adjusted bias across folds. Fold fits are
// independent and run concurrently; fold membership is a pure function
// of the example key, so concurrency cannot change the result.
func crossValidateBias(design *biasDesign, rows []domain.JudgeBiasRow, cfg BiasConfig) {
	foldWeights := make([][]float64, cfg.Folds)

	var g errgroup.Group
	for fold := 0; fold < cfg.Folds; fold++ {
		g.Go(func() error {
			w, err := design.fitFold(fold, cfg)
			if err != nil {
				return fmt.Errorf("fold %d refit: %w", fold, err)
			}
			foldWeights[fold] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Per-fold fits only fail on structurally unusable inputs, which
		// degenerate() already screened out. Leave CV fields unset.
		return
	}

	for i := range rows {
		var samples []float64
		for _, w := range foldWeights {
			if w == nil {
				continue
			}
			samples = append(samples, design.adjustedBias(w, rows[i].JudgeID, rows[i].TopicID))
		}
		if len(samples) == 0 {
			continue
		}

		mean := stat.Mean(samples, nil)
		std := 0.0
		if len(samples) > 1 {
			std = stat.StdDev(samples, nil)
		}
		ciLow := mean - 1.96*std
		ciHigh := mean + 1.96*std

		rows[i].AdjBiasMean = &mean
		rows[i].AdjBiasStd = &std
		rows[i].AdjBiasCILow = &ciLow
		rows[i].AdjBiasCIHigh = &ciHigh
		rows[i].Stability = classifyStability(len(samples), ciLow, ciHigh)
	}
}

// classifyStability labels an estimate by fold-sample count and whether
// its 95% confidence interval excludes zero.
func classifyStability(samples int, ciLow, ciHigh float64) string {
	switch {
	case samples >= 5 && (ciLow > 0 || ciHigh < 0):
		return domain.StabilityHigh
	case samples >= 3:
		return domain.StabilityMed
	default:
		return domain.StabilityLow
	}
}

// annotateTopicAverages attaches per-topic mean raw and adjusted bias to
// every row of that topic, so the frontend can sort rows by how skewed a
// topic is overall.
func annotateTopicAverages(rows []domain.JudgeBiasRow) {
	if len(rows) == 0 {
		return
	}

	rawByTopic := make(map[string][]float64)
	adjByTopic := make(map[string][]float64)
	for _, row := range rows {
		rawByTopic[row.TopicID] = append(rawByTopic[row.TopicID], row.Bias)
		if row.AdjBias != nil {
			adjByTopic[row.TopicID] = append(adjByTopic[row.TopicID], *row.AdjBias)
		}
	}

	for i := range rows {
		if raw, err := stats.Mean(rawByTopic[rows[i].TopicID]); err == nil {
			avg := raw
			rows[i].TopicAvgBias = &avg
		}
		if adj, err := stats.Mean(adjByTopic[rows[i].TopicID]); err == nil {
			avg := adj
			rows[i].TopicAvgAdjBias = &avg
		}
	}
}
