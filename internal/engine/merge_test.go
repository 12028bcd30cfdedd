package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// categoryPartition builds a dataset whose categories have disjoint
// model sets, so per-model statistics in a category slice are exactly
// the full-dataset ones and the merge must reproduce them.
func categoryPartition() (all []domain.DebateRecord, byCat map[string][]domain.DebateRecord) {
	byCat = make(map[string][]domain.DebateRecord)
	outcomes := []domain.Winner{domain.WinnerPro, domain.WinnerCon, domain.WinnerPro, domain.WinnerTie}

	add := func(category, topic string, models [2]string, offset int) {
		for i := 0; i < 8; i++ {
			pro, con := models[0], models[1]
			if i%2 == 1 {
				pro, con = con, pro
			}
			winner := outcomes[i%len(outcomes)]
			rec := makeRecord(debateSpec{
				id:       fmt.Sprintf("%s-%02d", category, i),
				topicID:  topic,
				category: category,
				pro:      pro, con: con,
				winner: winner,
				judges: []judgePick{{"j1", winner}, {"j2", domain.WinnerPro}},
				at:     timeAt(offset + i),
			})
			all = append(all, rec)
			byCat[category] = append(byCat[category], rec)
		}
	}
	add("c1", "t1", [2]string{"A", "B"}, 0)
	add("c2", "t2", [2]string{"C", "D"}, 100)
	return all, byCat
}

func TestMergeDerivedByCategories_ReassemblesPartition(t *testing.T) {
	cfg := DefaultConfig()
	opts := Options{IncludeRows: true}
	all, byCat := categoryPartition()

	full := BuildDerived(all, cfg, opts)
	slices := map[string]domain.DerivedData{
		"c1": BuildDerived(byCat["c1"], cfg, opts),
		"c2": BuildDerived(byCat["c2"], cfg, opts),
	}

	merged := MergeDerivedByCategories(full, slices, []string{"c1", "c2"})

	assert.Equal(t, full.Models, merged.Models)
	assert.Equal(t, full.Dimensions, merged.Dimensions)
	assert.Equal(t, full.JudgeAgreement, merged.JudgeAgreement, "agreement always comes from base")

	// Disjoint model sets mean every model's debates live in exactly one
	// category, so counts and ratings must round-trip through the merge.
	require.Len(t, merged.ModelStats, len(full.ModelStats))
	for _, want := range full.ModelStats {
		got, ok := statsFor(merged, want.ModelID)
		require.True(t, ok, "model %s missing after merge", want.ModelID)
		assert.Equal(t, want.Games, got.Games)
		assert.Equal(t, want.Wins, got.Wins)
		assert.Equal(t, want.Losses, got.Losses)
		assert.Equal(t, want.Ties, got.Ties)
		assert.Equal(t, want.ProGames, got.ProGames)
		assert.Equal(t, want.ConGames, got.ConGames)
		assert.InDelta(t, want.WinRate, got.WinRate, 1e-9)
		assert.InDelta(t, want.ProWinRate, got.ProWinRate, 1e-9)
		assert.InDelta(t, want.ConWinRate, got.ConWinRate, 1e-9)
		assert.InDelta(t, want.Rating, got.Rating, 1e-9)
	}

	require.Len(t, merged.HeadToHead, len(full.HeadToHead))
	for _, want := range full.HeadToHead {
		got, ok := cellFor(merged, want.ModelA, want.ModelB)
		require.True(t, ok)
		assert.Equal(t, want.Samples, got.Samples)
		assert.InDelta(t, want.WinRate, got.WinRate, 1e-9)
	}

	assert.ElementsMatch(t, full.TopicWinrates, merged.TopicWinrates)
	assert.ElementsMatch(t, full.DebateRows, merged.DebateRows)
	assert.ElementsMatch(t, full.JudgeRows, merged.JudgeRows)

	// Bias rows are concatenated slice rows; the raw fields match the
	// full run, while the adjusted fields come from per-category fits.
	require.Len(t, merged.JudgeBias, len(full.JudgeBias))
	for _, want := range full.JudgeBias {
		var got domain.JudgeBiasRow
		found := false
		for _, row := range merged.JudgeBias {
			if row.JudgeID == want.JudgeID && row.TopicID == want.TopicID {
				got, found = row, true
				break
			}
		}
		require.True(t, found)
		assert.Equal(t, want.ProPicks, got.ProPicks)
		assert.Equal(t, want.ConPicks, got.ConPicks)
		assert.Equal(t, want.TiePicks, got.TiePicks)
		assert.InDelta(t, want.Bias, got.Bias, 1e-9)
	}
}

func TestMergeDerivedByCategories_SelectionHandling(t *testing.T) {
	cfg := DefaultConfig()
	all, byCat := categoryPartition()
	base := BuildDerived(all, cfg, Options{})
	slices := map[string]domain.DerivedData{
		"c1": BuildDerived(byCat["c1"], cfg, Options{}),
		"c2": BuildDerived(byCat["c2"], cfg, Options{}),
	}

	t.Run("empty selection returns base", func(t *testing.T) {
		assert.Equal(t, base, MergeDerivedByCategories(base, slices, nil))
	})

	t.Run("single category passes its slice through", func(t *testing.T) {
		assert.Equal(t, slices["c1"], MergeDerivedByCategories(base, slices, []string{"c1"}))
	})

	t.Run("unknown categories are skipped", func(t *testing.T) {
		got := MergeDerivedByCategories(base, slices, []string{"nope", "c2"})
		assert.Equal(t, slices["c2"], got)
	})

	t.Run("all categories unknown yields empty data", func(t *testing.T) {
		got := MergeDerivedByCategories(base, slices, []string{"nope"})
		assert.Equal(t, domain.NewDerivedData(), got)
	})
}

// TestMergeDerivedByCategories_WeightedMeans merges two hand-built
// slices sharing one model, pinning the count summation and the
// game-weighted continuous means.
func TestMergeDerivedByCategories_WeightedMeans(t *testing.T) {
	catX := domain.NewDerivedData()
	catX.Models = []string{"m", "o"}
	catX.ModelStats = []domain.ModelStats{{
		ModelID: "m",
		Games:   4, Wins: 3, Losses: 1,
		WinRate:  0.75,
		ProGames: 2, ConGames: 2,
		ProWinRate: 1.0, ConWinRate: 0.5,
		Rating:           1020,
		MeanPromptTokens: 100,
		MeanCost:         floatPtr(0.02),
		TotalCost:        floatPtr(0.08),
	}}
	catX.HeadToHead = []domain.HeadToHeadCell{{ModelA: "m", ModelB: "o", WinRate: 0.75, Samples: 4}}

	catY := domain.NewDerivedData()
	catY.Models = []string{"m", "o"}
	catY.ModelStats = []domain.ModelStats{{
		ModelID: "m",
		Games:   2, Wins: 0, Losses: 2,
		ProGames: 1, ConGames: 1,
		Rating:           990,
		MeanPromptTokens: 40,
	}}
	catY.HeadToHead = []domain.HeadToHeadCell{{ModelA: "m", ModelB: "o", WinRate: 0.25, Samples: 4}}

	merged := MergeDerivedByCategories(domain.NewDerivedData(),
		map[string]domain.DerivedData{"x": catX, "y": catY}, []string{"x", "y"})

	m, ok := statsFor(merged, "m")
	require.True(t, ok)
	assert.Equal(t, 6, m.Games)
	assert.Equal(t, 3, m.Wins)
	assert.Equal(t, 3, m.Losses)
	assert.InDelta(t, 0.5, m.WinRate, 1e-12)
	assert.Equal(t, 3, m.ProGames)
	assert.Equal(t, 3, m.ConGames)
	assert.InDelta(t, 2.0/3.0, m.ProWinRate, 1e-12)
	assert.InDelta(t, 1.0/3.0, m.ConWinRate, 1e-12)
	assert.InDelta(t, 1010, m.Rating, 1e-9, "(1020*4 + 990*2) / 6")
	assert.InDelta(t, 80, m.MeanPromptTokens, 1e-9, "(100*4 + 40*2) / 6")

	// Cost means only weight the slices that reported a cost.
	require.NotNil(t, m.MeanCost)
	assert.InDelta(t, 0.02, *m.MeanCost, 1e-12)
	require.NotNil(t, m.TotalCost)
	assert.InDelta(t, 0.08, *m.TotalCost, 1e-12)

	cell, ok := cellFor(merged, "m", "o")
	require.True(t, ok)
	assert.Equal(t, 8, cell.Samples)
	assert.InDelta(t, 0.5, cell.WinRate, 1e-12, "(0.75*4 + 0.25*4) / 8")
}

func TestFilterDerivedByModels(t *testing.T) {
	records := []domain.DebateRecord{
		makeRecord(debateSpec{id: "d1", topicID: "t1", pro: "A", con: "B", winner: domain.WinnerPro,
			judges: []judgePick{{"j1", domain.WinnerPro}, {"j2", domain.WinnerPro}}, at: timeAt(0)}),
		makeRecord(debateSpec{id: "d2", topicID: "t1", pro: "B", con: "C", winner: domain.WinnerCon,
			judges: []judgePick{{"j1", domain.WinnerCon}, {"j2", domain.WinnerPro}}, at: timeAt(1)}),
		makeRecord(debateSpec{id: "d3", topicID: "t2", pro: "C", con: "A", winner: domain.WinnerTie,
			judges: []judgePick{{"j1", domain.WinnerTie}, {"j2", domain.WinnerPro}}, at: timeAt(2)}),
	}
	full := BuildDerived(records, DefaultConfig(), Options{IncludeRows: true})

	got := FilterDerivedByModels(full, []string{"A", "B"})

	assert.Equal(t, []string{"A", "B"}, got.Models)
	for _, s := range got.ModelStats {
		assert.NotEqual(t, "C", s.ModelID)
	}
	require.Len(t, got.ModelStats, 2)

	// Cross-pair cells and rows involving the dropped model disappear;
	// surviving ones are untouched copies.
	for _, cell := range got.HeadToHead {
		assert.NotEqual(t, "C", cell.ModelA)
		assert.NotEqual(t, "C", cell.ModelB)
	}
	wantCell, ok := cellFor(full, "A", "B")
	require.True(t, ok)
	gotCell, ok := cellFor(got, "A", "B")
	require.True(t, ok)
	assert.Equal(t, wantCell, gotCell)

	for _, row := range got.TopicWinrates {
		assert.NotEqual(t, "C", row.ModelID)
	}
	require.Len(t, got.DebateRows, 1)
	assert.Equal(t, "d1", got.DebateRows[0].DebateID)
	require.Len(t, got.JudgeRows, 2)
	for _, row := range got.JudgeRows {
		assert.Equal(t, "d1", row.DebateID)
	}

	// Judge-scoped collections pass through untouched.
	assert.Equal(t, full.JudgeAgreement, got.JudgeAgreement)
	assert.Equal(t, full.JudgeBias, got.JudgeBias)
	assert.Equal(t, full.Dimensions, got.Dimensions)
}

func TestFilterDerivedByModels_EmptyKeep(t *testing.T) {
	records := []domain.DebateRecord{
		makeRecord(debateSpec{id: "d1", topicID: "t1", pro: "A", con: "B", winner: domain.WinnerPro, at: timeAt(0)}),
	}
	full := BuildDerived(records, DefaultConfig(), Options{})

	got := FilterDerivedByModels(full, nil)
	assert.Empty(t, got.ModelStats)
	assert.Empty(t, got.HeadToHead)
	assert.Empty(t, got.Models)
}
