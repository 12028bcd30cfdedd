package engine

import (
	"math"
	"sort"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// Composite accumulator keys. Struct keys make collisions structurally
// impossible, unlike concatenated string keys.
type pairKey struct{ rowModel, colModel string }

type topicModelKey struct {
	topicID  string
	category string
	modelID  string
}

type judgeTopicKey struct{ judgeID, topicID string }

type judgePairKey struct{ judgeA, judgeB string }

type modelAcc struct {
	games, wins, losses, ties int
	proGames, conGames        int
	proWinNum, conWinNum      float64

	promptSum     float64
	promptN       int
	completionSum float64
	completionN   int
	totalSum      float64
	totalN        int
	costSum       float64
	costN         int
}

type h2hAcc struct {
	win   float64
	total int
}

type topicAcc struct{ wins, losses, ties, samples int }

type agreeAcc struct{ agree, total int }

type biasAcc struct{ pro, con, tie int }

// BuildDerived runs the single deterministic metrics pass over records
// and returns the fully-populated DerivedData. Empty input yields a
// DerivedData with every collection empty; the pass never fails for
// structurally valid records. The pass is referentially transparent:
// identical input produces bit-identical output.
func BuildDerived(records []domain.DebateRecord, cfg Config, opts Options) domain.DerivedData {
	derived := domain.NewDerivedData()
	if len(records) == 0 {
		return derived
	}

	sorted := sortRecords(records)
	initialRating, kFactor := eloParams(sorted, cfg.Elo)

	ratings := make(map[string]float64)
	models := make(map[string]*modelAcc)
	h2h := make(map[pairKey]*h2hAcc)
	topics := make(map[topicModelKey]*topicAcc)
	agreement := make(map[judgePairKey]*agreeAcc)
	bias := make(map[judgeTopicKey]*biasAcc)
	dimensions := make(map[string]struct{})

	model := func(id string) *modelAcc {
		acc, ok := models[id]
		if !ok {
			acc = &modelAcc{}
			models[id] = acc
		}
		return acc
	}
	rating := func(id string) float64 {
		r, ok := ratings[id]
		if !ok {
			return initialRating
		}
		return r
	}

	for _, rec := range sorted {
		tr := rec.Transcript
		pro, con := model(tr.ProModelID), model(tr.ConModelID)
		winner := rec.Aggregate.Winner

		// Elo is path-dependent: both ratings move by K*(actual-expected)
		// in sorted order. Expected scores always sum to 1.
		rPro, rCon := rating(tr.ProModelID), rating(tr.ConModelID)
		expected := expectedScore(rPro, rCon)
		actual := winner.ProScore()
		delta := kFactor * (actual - expected)
		ratings[tr.ProModelID] = rPro + delta
		ratings[tr.ConModelID] = rCon - delta

		pro.games++
		pro.proGames++
		con.games++
		con.conGames++

		switch winner {
		case domain.WinnerPro:
			pro.wins++
			con.losses++
			pro.proWinNum += 1
		case domain.WinnerCon:
			con.wins++
			pro.losses++
			con.conWinNum += 1
		default:
			// Tie or missing winner: half credit to both sides.
			pro.ties++
			con.ties++
			pro.proWinNum += 0.5
			con.conWinNum += 0.5
		}

		// Token and cost means count only turns that reported a value.
		for _, turn := range tr.Turns {
			speaker := pro
			if turn.Speaker == domain.WinnerCon {
				speaker = con
			}
			if turn.PromptTokens != nil {
				speaker.promptSum += float64(*turn.PromptTokens)
				speaker.promptN++
			}
			if turn.CompletionTokens != nil {
				speaker.completionSum += float64(*turn.CompletionTokens)
				speaker.completionN++
			}
			if turn.TotalTokens != nil {
				speaker.totalSum += float64(*turn.TotalTokens)
				speaker.totalN++
			}
			if turn.CostUSD != nil {
				speaker.costSum += *turn.CostUSD
				speaker.costN++
			}
		}

		// Head-to-head: both directions are independent cells and a tie
		// is half a win each way.
		proWin := winner.ProScore()
		addH2H(h2h, tr.ProModelID, tr.ConModelID, proWin)
		addH2H(h2h, tr.ConModelID, tr.ProModelID, 1-proWin)

		addTopic(topics, tr.Topic, tr.ProModelID, winner, domain.WinnerPro)
		addTopic(topics, tr.Topic, tr.ConModelID, winner, domain.WinnerCon)

		accumulateAgreement(agreement, rec.Judges)

		for _, j := range rec.Judges {
			if j.Winner == "" {
				continue
			}
			key := judgeTopicKey{judgeID: j.JudgeID, topicID: tr.Topic.ID}
			acc, ok := bias[key]
			if !ok {
				acc = &biasAcc{}
				bias[key] = acc
			}
			switch j.Winner {
			case domain.WinnerPro:
				acc.pro++
			case domain.WinnerCon:
				acc.con++
			default:
				acc.tie++
			}
		}

		collectDimensions(dimensions, rec)
	}

	derived.Models = sortedKeys(models)
	derived.Dimensions = sortedSet(dimensions)
	derived.ModelStats = finalizeModelStats(models, ratings, initialRating)
	derived.HeadToHead = finalizeHeadToHead(h2h)
	derived.TopicWinrates = finalizeTopicWinrates(topics)
	derived.JudgeAgreement = finalizeAgreement(agreement)
	derived.JudgeBias = finalizeJudgeBias(bias)

	adjustJudgeBias(sorted, derived.JudgeBias, cfg.Bias, opts.IncludeBiasCV)
	annotateTopicAverages(derived.JudgeBias)

	if opts.IncludeRows {
		derived.DebateRows, derived.JudgeRows = buildRows(sorted)
	}

	return derived
}

// sortRecords orders records by parsed created_at ascending with missing
// timestamps last, tie-broken by debate id and finally by original input
// position. The ordering is load-bearing: Elo is path-dependent.
func sortRecords(records []domain.DebateRecord) []domain.DebateRecord {
	type keyed struct {
		rec domain.DebateRecord
		pos int
	}
	keys := make([]keyed, len(records))
	for i, rec := range records {
		keys[i] = keyed{rec: rec, pos: i}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		at, bt := a.rec.CreatedAt, b.rec.CreatedAt
		switch {
		case at != nil && bt != nil && !at.Equal(*bt):
			return at.Before(*bt)
		case at != nil && bt == nil:
			return true
		case at == nil && bt != nil:
			return false
		}
		if a.rec.Transcript.DebateID != b.rec.Transcript.DebateID {
			return a.rec.Transcript.DebateID < b.rec.Transcript.DebateID
		}
		return a.pos < b.pos
	})

	sorted := make([]domain.DebateRecord, len(keys))
	for i, k := range keys {
		sorted[i] = k.rec
	}
	return sorted
}

// eloParams resolves the initial rating and K-factor for the pass:
// engine defaults, overridden by the first record in sorted order that
// specifies a non-zero value.
func eloParams(sorted []domain.DebateRecord, defaults domain.EloConfig) (initial, k float64) {
	initial, k = defaults.InitialRating, defaults.KFactor
	if initial == 0 {
		initial = 400
	}
	if k == 0 {
		k = 32
	}

	initialSet, kSet := false, false
	for _, rec := range sorted {
		if rec.Elo == nil {
			continue
		}
		if !initialSet && rec.Elo.InitialRating != 0 {
			initial = rec.Elo.InitialRating
			initialSet = true
		}
		if !kSet && rec.Elo.KFactor != 0 {
			k = rec.Elo.KFactor
			kSet = true
		}
		if initialSet && kSet {
			break
		}
	}
	return initial, k
}

// expectedScore is the Elo expectation for the pro side:
// 1 / (1 + 10^((Rcon-Rpro)/400)).
func expectedScore(rPro, rCon float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rCon-rPro)/400.0))
}

func addH2H(h2h map[pairKey]*h2hAcc, row, col string, win float64) {
	key := pairKey{rowModel: row, colModel: col}
	acc, ok := h2h[key]
	if !ok {
		acc = &h2hAcc{}
		h2h[key] = acc
	}
	acc.win += win
	acc.total++
}

func addTopic(topics map[topicModelKey]*topicAcc, topic domain.Topic, modelID string, winner, side domain.Winner) {
	key := topicModelKey{topicID: topic.ID, category: topic.Category, modelID: modelID}
	acc, ok := topics[key]
	if !ok {
		acc = &topicAcc{}
		topics[key] = acc
	}
	acc.samples++
	switch {
	case winner == side:
		acc.wins++
	case winner == domain.WinnerPro || winner == domain.WinnerCon:
		acc.losses++
	default:
		acc.ties++
	}
}

// accumulateAgreement updates the shared counters for every unordered
// pair of judges that both voted on this debate. This is the only
// super-linear part of the pass: O(judges^2) per record.
func accumulateAgreement(agreement map[judgePairKey]*agreeAcc, judges []domain.JudgeResult) {
	for i := 0; i < len(judges); i++ {
		if judges[i].Winner == "" {
			continue
		}
		for j := i + 1; j < len(judges); j++ {
			if judges[j].Winner == "" {
				continue
			}
			a, b := judges[i].JudgeID, judges[j].JudgeID
			if a == b {
				continue
			}
			if a > b {
				a, b = b, a
			}
			key := judgePairKey{judgeA: a, judgeB: b}
			acc, ok := agreement[key]
			if !ok {
				acc = &agreeAcc{}
				agreement[key] = acc
			}
			acc.total++
			if judges[i].Winner == judges[j].Winner {
				acc.agree++
			}
		}
	}
}

func collectDimensions(dims map[string]struct{}, rec domain.DebateRecord) {
	for dim := range rec.Aggregate.MeanPro {
		dims[dim] = struct{}{}
	}
	for dim := range rec.Aggregate.MeanCon {
		dims[dim] = struct{}{}
	}
	for _, j := range rec.Judges {
		for dim := range j.ProScores {
			dims[dim] = struct{}{}
		}
		for dim := range j.ConScores {
			dims[dim] = struct{}{}
		}
	}
}

func finalizeModelStats(models map[string]*modelAcc, ratings map[string]float64, initialRating float64) []domain.ModelStats {
	stats := make([]domain.ModelStats, 0, len(models))
	for _, id := range sortedKeys(models) {
		acc := models[id]
		games := acc.games
		if games < 1 {
			games = 1
		}

		s := domain.ModelStats{
			ModelID:  id,
			Games:    acc.games,
			Wins:     acc.wins,
			Losses:   acc.losses,
			Ties:     acc.ties,
			WinRate:  (float64(acc.wins) + 0.5*float64(acc.ties)) / float64(games),
			ProGames: acc.proGames,
			ConGames: acc.conGames,
			Rating:   initialRating,
		}
		if r, ok := ratings[id]; ok {
			s.Rating = r
		}
		if acc.proGames > 0 {
			s.ProWinRate = acc.proWinNum / float64(acc.proGames)
		}
		if acc.conGames > 0 {
			s.ConWinRate = acc.conWinNum / float64(acc.conGames)
		}
		if acc.promptN > 0 {
			s.MeanPromptTokens = acc.promptSum / float64(acc.promptN)
		}
		if acc.completionN > 0 {
			s.MeanCompletionTokens = acc.completionSum / float64(acc.completionN)
		}
		if acc.totalN > 0 {
			s.MeanTotalTokens = acc.totalSum / float64(acc.totalN)
		}
		if acc.costN > 0 {
			mean := acc.costSum / float64(acc.costN)
			total := acc.costSum
			s.MeanCost = &mean
			s.TotalCost = &total
		}
		stats = append(stats, s)
	}
	return stats
}

func finalizeHeadToHead(h2h map[pairKey]*h2hAcc) []domain.HeadToHeadCell {
	keys := make([]pairKey, 0, len(h2h))
	for key := range h2h {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].rowModel != keys[j].rowModel {
			return keys[i].rowModel < keys[j].rowModel
		}
		return keys[i].colModel < keys[j].colModel
	})

	cells := make([]domain.HeadToHeadCell, 0, len(keys))
	for _, key := range keys {
		acc := h2h[key]
		cell := domain.HeadToHeadCell{
			ModelA:  key.rowModel,
			ModelB:  key.colModel,
			Samples: acc.total,
		}
		if acc.total > 0 {
			cell.WinRate = acc.win / float64(acc.total)
		}
		cells = append(cells, cell)
	}
	return cells
}

func finalizeTopicWinrates(topics map[topicModelKey]*topicAcc) []domain.TopicWinrate {
	keys := make([]topicModelKey, 0, len(topics))
	for key := range topics {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].topicID != keys[j].topicID {
			return keys[i].topicID < keys[j].topicID
		}
		return keys[i].modelID < keys[j].modelID
	})

	rows := make([]domain.TopicWinrate, 0, len(keys))
	for _, key := range keys {
		acc := topics[key]
		row := domain.TopicWinrate{
			TopicID:  key.topicID,
			Category: key.category,
			ModelID:  key.modelID,
			Wins:     acc.wins,
			Losses:   acc.losses,
			Ties:     acc.ties,
			Samples:  acc.samples,
		}
		if acc.samples > 0 {
			row.WinRate = (float64(acc.wins) + 0.5*float64(acc.ties)) / float64(acc.samples)
		}
		rows = append(rows, row)
	}
	return rows
}

func finalizeAgreement(agreement map[judgePairKey]*agreeAcc) []domain.JudgeAgreementRow {
	keys := make([]judgePairKey, 0, len(agreement))
	for key := range agreement {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].judgeA != keys[j].judgeA {
			return keys[i].judgeA < keys[j].judgeA
		}
		return keys[i].judgeB < keys[j].judgeB
	})

	rows := make([]domain.JudgeAgreementRow, 0, len(keys))
	for _, key := range keys {
		acc := agreement[key]
		row := domain.JudgeAgreementRow{
			JudgeA:  key.judgeA,
			JudgeB:  key.judgeB,
			Samples: acc.total,
		}
		if acc.total > 0 {
			row.Agreement = float64(acc.agree) / float64(acc.total)
		}
		rows = append(rows, row)
	}
	return rows
}

func finalizeJudgeBias(bias map[judgeTopicKey]*biasAcc) []domain.JudgeBiasRow {
	keys := make([]judgeTopicKey, 0, len(bias))
	for key := range bias {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].judgeID != keys[j].judgeID {
			return keys[i].judgeID < keys[j].judgeID
		}
		return keys[i].topicID < keys[j].topicID
	})

	rows := make([]domain.JudgeBiasRow, 0, len(keys))
	for _, key := range keys {
		acc := bias[key]
		row := domain.JudgeBiasRow{
			JudgeID:  key.judgeID,
			TopicID:  key.topicID,
			ProPicks: acc.pro,
			ConPicks: acc.con,
			TiePicks: acc.tie,
		}
		if total := acc.pro + acc.con + acc.tie; total > 0 {
			row.ProRate = float64(acc.pro) / float64(total)
			row.ConRate = float64(acc.con) / float64(total)
			row.Bias = row.ProRate - row.ConRate
		}
		rows = append(rows, row)
	}
	return rows
}

// buildRows produces the flat pass-through tables in sorted record
// order for downstream ad hoc charting.
func buildRows(sorted []domain.DebateRecord) ([]domain.DebateRow, []domain.JudgeDecisionRow) {
	debateRows := make([]domain.DebateRow, 0, len(sorted))
	judgeRows := make([]domain.JudgeDecisionRow, 0, len(sorted))

	for _, rec := range sorted {
		tr := rec.Transcript
		row := domain.DebateRow{
			DebateID:   tr.DebateID,
			TopicID:    tr.Topic.ID,
			Category:   tr.Topic.Category,
			ProModelID: tr.ProModelID,
			ConModelID: tr.ConModelID,
			Winner:     rec.Aggregate.Winner,
			CreatedAt:  rec.CreatedAt,
			MeanPro:    rec.Aggregate.MeanPro,
			MeanCon:    rec.Aggregate.MeanCon,
		}
		var costSum float64
		costSeen := false
		for _, turn := range tr.Turns {
			if turn.TotalTokens != nil {
				row.TotalTokens += *turn.TotalTokens
			}
			if turn.CostUSD != nil {
				costSum += *turn.CostUSD
				costSeen = true
			}
		}
		if costSeen {
			row.TotalCostUSD = &costSum
		}
		debateRows = append(debateRows, row)

		for _, j := range rec.Judges {
			judgeRows = append(judgeRows, domain.JudgeDecisionRow{
				DebateID:            tr.DebateID,
				JudgeID:             j.JudgeID,
				TopicID:             tr.Topic.ID,
				Category:            tr.Topic.Category,
				ProModelID:          tr.ProModelID,
				ConModelID:          tr.ConModelID,
				Winner:              j.Winner,
				AgreesWithAggregate: j.Winner != "" && j.Winner == rec.Aggregate.Winner,
			})
		}
	}
	return debateRows, judgeRows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
