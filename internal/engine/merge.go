package engine

import (
	"sort"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// MergeDerivedByCategories combines precomputed per-category DerivedData
// slices into a single view without revisiting raw records. With no
// selected categories the base dataset is returned unchanged; with one,
// the precomputed slice is returned directly. With several, count fields
// are summed and rates recomputed from the summed counts, continuous
// means are weighted by game count, head-to-head cells are merged by
// sample weight, and per-topic/bias/row tables are concatenated. Judge
// agreement is not category-scoped, so it is always taken from base.
func MergeDerivedByCategories(base domain.DerivedData, byCategory map[string]domain.DerivedData, selected []string) domain.DerivedData {
	if len(selected) == 0 {
		return base
	}

	slices := make([]domain.DerivedData, 0, len(selected))
	for _, cat := range selected {
		if slice, ok := byCategory[cat]; ok {
			slices = append(slices, slice)
		}
	}
	switch len(slices) {
	case 0:
		return domain.NewDerivedData()
	case 1:
		return slices[0]
	}

	merged := domain.NewDerivedData()

	modelSet := make(map[string]struct{})
	dimSet := make(map[string]struct{})
	statsByModel := make(map[string]*mergedStats)
	h2h := make(map[pairKey]*h2hAcc)

	for _, slice := range slices {
		for _, m := range slice.Models {
			modelSet[m] = struct{}{}
		}
		for _, dim := range slice.Dimensions {
			dimSet[dim] = struct{}{}
		}
		for _, s := range slice.ModelStats {
			acc, ok := statsByModel[s.ModelID]
			if !ok {
				acc = &mergedStats{}
				statsByModel[s.ModelID] = acc
			}
			acc.add(s)
		}
		for _, cell := range slice.HeadToHead {
			key := pairKey{rowModel: cell.ModelA, colModel: cell.ModelB}
			acc, ok := h2h[key]
			if !ok {
				acc = &h2hAcc{}
				h2h[key] = acc
			}
			acc.win += cell.WinRate * float64(cell.Samples)
			acc.total += cell.Samples
		}

		merged.TopicWinrates = append(merged.TopicWinrates, slice.TopicWinrates...)
		merged.JudgeBias = append(merged.JudgeBias, slice.JudgeBias...)
		merged.DebateRows = append(merged.DebateRows, slice.DebateRows...)
		merged.JudgeRows = append(merged.JudgeRows, slice.JudgeRows...)
	}

	merged.Models = sortedSet(modelSet)
	merged.Dimensions = sortedSet(dimSet)
	for _, id := range sortedKeys(statsByModel) {
		merged.ModelStats = append(merged.ModelStats, statsByModel[id].finalize(id))
	}
	merged.HeadToHead = finalizeHeadToHead(h2h)
	merged.JudgeAgreement = base.JudgeAgreement

	return merged
}

// mergedStats accumulates ModelStats across category slices. Count
// fields are exactly associative; continuous fields carry a running
// game-count-weighted mean.
type mergedStats struct {
	games, wins, losses, ties int
	proGames, conGames        int
	proWinNum, conWinNum      float64

	rating           weightedMean
	promptTokens     weightedMean
	completionTokens weightedMean
	totalTokens      weightedMean
	meanCost         weightedMean
	costSeen         bool
	totalCost        float64
}

func (m *mergedStats) add(s domain.ModelStats) {
	m.games += s.Games
	m.wins += s.Wins
	m.losses += s.Losses
	m.ties += s.Ties
	m.proGames += s.ProGames
	m.conGames += s.ConGames
	m.proWinNum += s.ProWinRate * float64(s.ProGames)
	m.conWinNum += s.ConWinRate * float64(s.ConGames)

	w := float64(s.Games)
	m.rating.add(s.Rating, w)
	m.promptTokens.add(s.MeanPromptTokens, w)
	m.completionTokens.add(s.MeanCompletionTokens, w)
	m.totalTokens.add(s.MeanTotalTokens, w)
	if s.MeanCost != nil {
		m.meanCost.add(*s.MeanCost, w)
		m.costSeen = true
	}
	if s.TotalCost != nil {
		m.totalCost += *s.TotalCost
	}
}

func (m *mergedStats) finalize(id string) domain.ModelStats {
	games := m.games
	if games < 1 {
		games = 1
	}
	s := domain.ModelStats{
		ModelID:              id,
		Games:                m.games,
		Wins:                 m.wins,
		Losses:               m.losses,
		Ties:                 m.ties,
		WinRate:              (float64(m.wins) + 0.5*float64(m.ties)) / float64(games),
		ProGames:             m.proGames,
		ConGames:             m.conGames,
		Rating:               m.rating.value(),
		MeanPromptTokens:     m.promptTokens.value(),
		MeanCompletionTokens: m.completionTokens.value(),
		MeanTotalTokens:      m.totalTokens.value(),
	}
	if m.proGames > 0 {
		s.ProWinRate = m.proWinNum / float64(m.proGames)
	}
	if m.conGames > 0 {
		s.ConWinRate = m.conWinNum / float64(m.conGames)
	}
	if m.costSeen {
		mean := m.meanCost.value()
		total := m.totalCost
		s.MeanCost = &mean
		s.TotalCost = &total
	}
	return s
}

// weightedMean is a running mean weighted by game count:
// (a*games_a + b*games_b) / (games_a + games_b). With zero total weight
// it falls back to the most recently added value.
type weightedMean struct {
	sum    float64
	weight float64
	last   float64
}

func (w *weightedMean) add(v, weight float64) {
	w.sum += v * weight
	w.weight += weight
	w.last = v
}

func (w *weightedMean) value() float64 {
	if w.weight == 0 {
		return w.last
	}
	return w.sum / w.weight
}

// FilterDerivedByModels restricts every collection of an already
// computed DerivedData to rows and cells whose model participants are
// all in keep. It is a pure filter: nothing is recomputed, and
// judge-scoped collections (agreement, bias) pass through untouched.
func FilterDerivedByModels(d domain.DerivedData, keep []string) domain.DerivedData {
	keepSet := make(map[string]struct{}, len(keep))
	for _, m := range keep {
		keepSet[m] = struct{}{}
	}
	in := func(m string) bool {
		_, ok := keepSet[m]
		return ok
	}

	out := domain.NewDerivedData()
	out.Dimensions = d.Dimensions
	out.JudgeAgreement = d.JudgeAgreement
	out.JudgeBias = d.JudgeBias

	for _, m := range d.Models {
		if in(m) {
			out.Models = append(out.Models, m)
		}
	}
	sort.Strings(out.Models)

	for _, s := range d.ModelStats {
		if in(s.ModelID) {
			out.ModelStats = append(out.ModelStats, s)
		}
	}
	for _, cell := range d.HeadToHead {
		if in(cell.ModelA) && in(cell.ModelB) {
			out.HeadToHead = append(out.HeadToHead, cell)
		}
	}
	for _, row := range d.TopicWinrates {
		if in(row.ModelID) {
			out.TopicWinrates = append(out.TopicWinrates, row)
		}
	}
	for _, row := range d.DebateRows {
		if in(row.ProModelID) && in(row.ConModelID) {
			out.DebateRows = append(out.DebateRows, row)
		}
	}
	for _, row := range d.JudgeRows {
		if in(row.ProModelID) && in(row.ConModelID) {
			out.JudgeRows = append(out.JudgeRows, row)
		}
	}
	return out
}
