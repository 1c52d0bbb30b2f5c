package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baja-recommender/logic/discount"
	"baja-recommender/logic/match"
	"baja-recommender/types"
)

// fakeStore 区分历史中标查询（带 Buyer）和分层查询
type fakeStore struct {
	tiers   [][]types.HistoricalBid
	prior   []types.HistoricalBid
	err     error
	calls   int
	byBuyer int
}

func (f *fakeStore) Query(_ context.Context, q types.BidQuery) ([]types.HistoricalBid, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q.Buyer != "" {
		f.byBuyer++
		return f.prior, nil
	}
	i := f.calls
	f.calls++
	if i < len(f.tiers) {
		return f.tiers[i], nil
	}
	return nil, nil
}

func record(id string, discountPct float64, published time.Time) types.HistoricalBid {
	return types.HistoricalBid{
		ID:                  id,
		Title:               fmt.Sprintf("Obras de reforma %s", id),
		Buyer:               "Ayuntamiento de Getafe",
		BudgetAmount:        100000,
		AwardedAmount:       100000 * (1 - discountPct/100),
		ClassificationCodes: []string{"45210000"},
		Region:              "Madrid",
		PublicationDate:     published,
		Awardee:             "Acme SA",
		BiddersCount:        3,
	}
}

func testOptions() Options {
	return Options{
		Match:      match.DefaultConfig(),
		Score:      match.DefaultScoreConfig(),
		Discount:   discount.DefaultConfig(),
		PriorAward: true,
	}
}

var lot = types.TargetBid{
	Title:               "Obras de reforma",
	ClassificationCodes: []string{"45210000-2"},
	Budget:              100000,
	Region:              "Madrid",
}

func TestAnalyze_Cluster(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{tiers: [][]types.HistoricalBid{{
		record("1", 10, now), record("2", 12, now), record("3", 13, now), record("4", 30, now),
	}}}
	svc := NewRecommendationService(store, testOptions())

	res, err := svc.Analyze(context.Background(), lot)
	require.NoError(t, err)

	assert.NotEmpty(t, res.AnalysisID)
	assert.Equal(t, 15.0, res.RecommendedDiscount)
	assert.Equal(t, types.BasisCluster, res.Basis)
	assert.Equal(t, []float64{10, 12, 13}, res.Cluster)
	assert.Len(t, res.SupportingCandidates, 4)
	assert.Equal(t, 1, res.TierReached)
	assert.Equal(t, "done", res.Outcome)
	assert.Equal(t, []string{"obras reforma"}, res.Keywords.Terms())
	assert.Equal(t, 4, res.Stats.Count)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 0, store.byBuyer) // 没有采购方不查历史中标
}

func TestAnalyze_PriorAwardWins(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		tiers: [][]types.HistoricalBid{{record("1", 23, now), record("2", 24, now), record("3", 25, now)}},
		prior: []types.HistoricalBid{
			record("old", 30, now.AddDate(-2, 0, 0)),
			record("recent", 18, now),
			record("bad", 0.1, now.AddDate(1, 0, 0)), // 折扣不合法，忽略
		},
	}
	bid := lot
	bid.Buyer = "ayuntamiento de getafe"
	svc := NewRecommendationService(store, testOptions())

	res, err := svc.Analyze(context.Background(), bid)
	require.NoError(t, err)

	assert.Equal(t, 20.0, res.RecommendedDiscount)
	assert.Equal(t, types.BasisPriorAward, res.Basis)
	require.NotNil(t, res.PriorAward)
	assert.Equal(t, "recent", res.PriorAward.ID)
	assert.Equal(t, 1, store.byBuyer)
}

func TestAnalyze_NoCandidatesDegradedInput(t *testing.T) {
	store := &fakeStore{}
	svc := NewRecommendationService(store, testOptions())

	res, err := svc.Analyze(context.Background(), types.TargetBid{Title: "Obras de reforma"})
	require.NoError(t, err)

	assert.Equal(t, 15.0, res.RecommendedDiscount)
	assert.Equal(t, types.BasisAverage, res.Basis)
	assert.Equal(t, "exhausted", res.Outcome)
	assert.Empty(t, res.SupportingCandidates)
	assert.Equal(t, []string{warnNoCode, warnNoBudget}, res.Warnings)
	// 有关键词，4 层都查
	assert.Equal(t, 4, store.calls)
}

func TestAnalyze_StoreUnavailable(t *testing.T) {
	svc := NewRecommendationService(&fakeStore{err: errors.New("timeout")}, testOptions())

	_, err := svc.Analyze(context.Background(), lot)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestAnalyzeLots(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{tiers: [][]types.HistoricalBid{
		{record("1", 10, now), record("2", 11, now), record("3", 12, now)},
	}}
	svc := NewRecommendationService(store, testOptions())

	out, err := svc.AnalyzeLots(context.Background(), []types.TargetBid{lot, {Title: "Suministro de papel"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 14.0, out[0].RecommendedDiscount)
	assert.Equal(t, types.BasisAverage, out[1].Basis)
	assert.NotEqual(t, out[0].AnalysisID, out[1].AnalysisID)
}

func TestKeywords(t *testing.T) {
	svc := NewRecommendationService(&fakeStore{}, DefaultOptions())
	kw := svc.Keywords("Redacción del proyecto y ejecución de las obras de reforma")
	assert.Contains(t, kw.Terms(), "redaccion proyecto")
	assert.Contains(t, kw.Terms(), "ejecucion obras")
}
