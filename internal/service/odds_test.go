package service

import (
	"math"
	"testing"

	"ChopRaffle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func newDefaultEngine() *OddsEngine {
	return NewOddsEngine(model.DefaultRaffleConstants())
}

func TestSurvivalRate(t *testing.T) {
	cases := []struct {
		name   string
		rounds int
		rate   float64
		want   float64
	}{
		{"chop default", 15, 0.5, 1.0 / 32768},
		{"single round", 1, 0.5, 0.5},
		{"mild elimination", 10, 0.1, math.Pow(0.9, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := model.DefaultRaffleConstants()
			c.Rounds = tc.rounds
			c.EliminationRate = tc.rate
			e := NewOddsEngine(c)
			assert.InDelta(t, tc.want, e.SurvivalRate(), 1e-15)
			assert.InDelta(t, tc.want, e.Calculate(10, 0).SurvivalRate, 1e-15)
		})
	}
}

func TestMakesFinalRoundScenarios(t *testing.T) {
	e := newDefaultEngine()

	one := e.Calculate(1, 0.5)
	assert.InDelta(t, 1.0/32768, one.MakesFinalRound/100, 1e-15)

	thousand := e.Calculate(1000, 0.5)
	assert.InDelta(t, 1-math.Pow(1-1.0/32768, 1000), thousand.MakesFinalRound/100, 1e-12)
	assert.InDelta(t, 0.03, thousand.MakesFinalRound/100, 0.001)
}

func TestTierFormulas(t *testing.T) {
	e := newDefaultEngine()
	public := 243750.0
	s := 1.0 / 32768

	res := e.Calculate(1000, 0)
	require.Len(t, res.Tiers, 5)

	grand := (1 - math.Pow(1-s/10, 1000)) * 100
	assert.InDelta(t, grand, res.GrandPrize, tol)
	assert.InDelta(t, grand, res.Tiers[0].Probability, tol)

	// 比例近似：t * winners / public * 100，不做超几何修正
	assert.InDelta(t, 1000*10/public*100, res.Top10Prize, tol)

	eliminated := 1 - res.MakesFinalRound/100
	assert.InDelta(t, eliminated*1/public*100, res.Tiers[2].Probability, tol)
	assert.InDelta(t, eliminated*5/public*100, res.Tiers[3].Probability, tol)
	assert.InDelta(t, eliminated*11/public*100, res.LuckyLoser, tol)

	var ev float64
	for _, tier := range res.Tiers {
		ev += tier.Probability / 100 * tier.Value
		assert.InDelta(t, tier.Probability/100*tier.Value, tier.ExpectedValue, tol)
	}
	assert.InDelta(t, ev, res.ExpectedValue, tol)
	assert.InDelta(t, 249.07396843582376, res.ExpectedValue, 1e-6)
}

func TestPoolShareSaturates(t *testing.T) {
	e := newDefaultEngine()
	res := e.Calculate(30000, 0)
	assert.Equal(t, 100.0, res.Top10Prize)
}

func TestClamping(t *testing.T) {
	e := newDefaultEngine()
	public := model.DefaultRaffleConstants().PublicAllocation()

	assert.Equal(t, e.Calculate(1, 0.01), e.Calculate(-5, 0.01))
	assert.Equal(t, e.Calculate(1, 0.01), e.Calculate(0, 0.01))
	assert.Equal(t, e.Calculate(public, 0.01), e.Calculate(10_000_000, 0.01))
	assert.Equal(t, public, e.Calculate(10_000_000, 0.01).Tickets)
}

func TestInvalidPrice(t *testing.T) {
	e := newDefaultEngine()
	for _, p := range []float64{-1, math.NaN(), math.Inf(1)} {
		res := e.Calculate(10, p)
		assert.Equal(t, 0.0, res.TotalCost)
		assert.Equal(t, 0.0, res.UnitPrice)
	}
	assert.InDelta(t, 10*0.5, e.Calculate(10, 0.5).TotalCost, tol)
}

func TestNormalizeTickets(t *testing.T) {
	e := newDefaultEngine()
	cases := []struct {
		raw  float64
		want int
	}{
		{math.NaN(), 1},
		{math.Inf(-1), 1},
		{-3, 1},
		{0, 1},
		{0.7, 1},
		{12.9, 12},
		{math.Inf(1), 243750},
		{1e12, 243750},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.NormalizeTickets(tc.raw), "raw=%v", tc.raw)
	}
}

func TestMonotonicity(t *testing.T) {
	e := newDefaultEngine()
	counts := []int{1, 2, 10, 99, 100, 500, 1000, 5000, 5001, 24375, 50000, 243750}
	prev := e.Calculate(counts[0], 0.5)
	for _, n := range counts[1:] {
		cur := e.Calculate(n, 0.5)
		assert.GreaterOrEqual(t, cur.MakesFinalRound, prev.MakesFinalRound, "tickets=%d", n)
		assert.GreaterOrEqual(t, cur.ExpectedValue, prev.ExpectedValue, "tickets=%d", n)
		assert.Greater(t, cur.TotalCost, prev.TotalCost, "tickets=%d", n)
		prev = cur
	}
}

func TestProbabilitiesWithinBounds(t *testing.T) {
	c := model.DefaultRaffleConstants()
	c.Prizes = append(c.Prizes, model.PrizeTier{Label: "huge", Kind: model.TierPoolShare, Value: 1, Winners: 1_000_000})
	e := NewOddsEngine(c)
	for _, n := range []int{1, 1000, 243750} {
		res := e.Calculate(n, 1)
		for _, tier := range res.Tiers {
			assert.GreaterOrEqual(t, tier.Probability, 0.0)
			assert.LessOrEqual(t, tier.Probability, 100.0)
		}
		assert.LessOrEqual(t, res.MakesFinalRound, 100.0)
		assert.GreaterOrEqual(t, res.ExpectedValue, 0.0)
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	e := newDefaultEngine()
	assert.Equal(t, e.Calculate(777, 0.5), e.Calculate(777, 0.5))
}

func TestRecommendation(t *testing.T) {
	e := newDefaultEngine()
	cases := []struct {
		tickets int
		level   string
	}{
		{1, "low"},
		{99, "low"},
		{100, "balanced"},
		{1000, "balanced"},
		{1001, "strong"},
		{5000, "strong"},
		{5001, "maximum"},
		{243750, "maximum"},
	}
	for _, tc := range cases {
		res := e.Calculate(tc.tickets, 0)
		assert.Equal(t, tc.level, res.RecommendationLevel, "tickets=%d", tc.tickets)
		assert.NotEmpty(t, res.Recommendation)
	}
	assert.Equal(t, "Whale territory - maximum survival probability!", e.Calculate(9999, 0).Recommendation)
}

func TestRecommendationWithoutCatchAll(t *testing.T) {
	c := model.DefaultRaffleConstants()
	c.Breakpoints = []model.Breakpoint{{UpTo: 10, Level: "a", Message: "small"}, {UpTo: 20, Level: "b", Message: "medium"}}
	e := NewOddsEngine(c)
	assert.Equal(t, "b", e.Calculate(500, 0).RecommendationLevel)
}

func TestRoundHelpers(t *testing.T) {
	e := newDefaultEngine()

	assert.InDelta(t, 100*0.125, e.ExpectedRemaining(100, 3), tol)
	assert.Equal(t, 0.0, e.ExpectedRemaining(0, 3))
	assert.InDelta(t, 243750.0/32768, e.ExpectedSurvivors(), 1e-9)
	assert.InDelta(t, e.Calculate(1000, 0).MakesFinalRound, e.CombinedSurvival(1000), tol)
	assert.Equal(t, 0.0, e.CombinedSurvival(0))

	rounds := e.RoundBreakdown(64)
	require.Len(t, rounds, 15)
	assert.Equal(t, 1, rounds[0].Round)
	assert.InDelta(t, 32.0, rounds[0].ExpectedRemaining, tol)
	assert.InDelta(t, (1-math.Pow(0.5, 64))*100, rounds[0].AnyRemaining, tol)
	assert.InDelta(t, 64.0/32768, rounds[14].ExpectedRemaining, tol)
	for i := 1; i < len(rounds); i++ {
		assert.Less(t, rounds[i].TicketSurvival, rounds[i-1].TicketSurvival)
	}
}
