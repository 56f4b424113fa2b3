package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-tracker/internal/tracker/model"
)

func mkBet(id, tipster, sport string, stake, odds float64, outcome model.Outcome, date time.Time) model.Bet {
	return model.Bet{ID: id, Tipster: tipster, Sport: sport, Team: "T" + id, Stake: stake, Odds: odds, Outcome: outcome, Date: date}
}

func d(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 12, 0, 0, 0, time.UTC) }

func TestOverallEmpty(t *testing.T) {
	o := Overall(nil)
	assert.Zero(t, o.Total)
	assert.Zero(t, o.WinRate)
	assert.Zero(t, o.ROI)
	assert.Zero(t, o.AverageOdds)
}

func TestOverall(t *testing.T) {
	bets := []model.Bet{
		mkBet("1", "A", model.Sports[0], 20, 2, model.OutcomeWin, d(2024, 1, 1)),
		mkBet("2", "A", model.Sports[0], 10, 3, model.OutcomeLose, d(2024, 1, 2)),
		mkBet("3", "A", model.Sports[0], 50, 1.5, model.OutcomePending, d(2024, 1, 3)),
	}
	o := Overall(bets)
	assert.Equal(t, 3, o.Total)
	assert.Equal(t, 1, o.Wins)
	assert.Equal(t, 1, o.Losses)
	assert.Equal(t, 1, o.Pending)
	assert.InDelta(t, 50, o.WinRate, 1e-9)
	assert.InDelta(t, 30, o.TotalStaked, 1e-9)
	assert.InDelta(t, 40, o.TotalReturns, 1e-9)
	assert.InDelta(t, 10, o.NetProfit, 1e-9)
	assert.InDelta(t, 33.333, o.ROI, 1e-3)
	assert.InDelta(t, 6.5/3, o.AverageOdds, 1e-9)
}

func TestOnlyPendingHasZeroWinRate(t *testing.T) {
	o := Overall([]model.Bet{mkBet("1", "A", "x", 10, 2, model.OutcomePending, d(2024, 1, 1))})
	assert.Zero(t, o.WinRate)
	assert.Zero(t, o.TotalStaked)
	assert.Zero(t, o.ROI)
}

func TestTipsters(t *testing.T) {
	s := model.NewState()
	s.Tipsters["Zed"] = &model.Tipster{InitialCapital: 100, CurrentCapital: 120, InitialSet: true}
	s.Tipsters["Amy"] = &model.Tipster{InitialCapital: 0, CurrentCapital: 0, InitialSet: true}
	s.Tipsters["Tipster 1"].InitialSet = true
	s.Tipsters["Tipster 1"].InitialCapital = 50
	s.Tipsters["Tipster 1"].CurrentCapital = 25
	s.Bets = []model.Bet{
		mkBet("1", "Zed", "x", 20, 2, model.OutcomeWin, d(2024, 1, 1)),
	}

	got := Tipsters(s, s.Bets)
	require.Len(t, got, 3)
	assert.Equal(t, "Amy", got[0].Name)
	assert.Zero(t, got[0].ROI)
	assert.Equal(t, "Zed", got[1].Name)
	assert.InDelta(t, 20, got[1].ProfitLoss, 1e-9)
	assert.InDelta(t, 20, got[1].ROI, 1e-9)
	assert.Equal(t, 1, got[1].Wins)
	assert.Equal(t, "Tipster 1", got[2].Name)
	assert.InDelta(t, -50, got[2].ROI, 1e-9)

	totals := CapitalTotals(s)
	assert.InDelta(t, 150, totals.Initial, 1e-9)
	assert.InDelta(t, 145, totals.Current, 1e-9)
}

func TestTipsterDetails(t *testing.T) {
	s := model.NewState()
	s.Tipsters["A"] = &model.Tipster{InitialCapital: 100, CurrentCapital: 100, InitialSet: true}
	for i := 1; i <= 7; i++ {
		s.Bets = append(s.Bets, mkBet(string(rune('0'+i)), "A", "x", 1, 2, model.OutcomePending, d(2024, 1, i)))
	}
	det, ok := TipsterDetails(s, "A")
	require.True(t, ok)
	require.Len(t, det.Recent, RecentBetsLimit)
	assert.Equal(t, "7", det.Recent[0].ID)
	assert.Equal(t, "3", det.Recent[4].ID)
	assert.Equal(t, 7, det.Pending)

	_, ok = TipsterDetails(s, "ghost")
	assert.False(t, ok)
}

func TestSportsOrdering(t *testing.T) {
	bets := []model.Bet{
		mkBet("1", "A", "Curling", 10, 2, model.OutcomeWin, d(2024, 1, 1)),
		mkBet("2", "A", model.Sports[2], 10, 2, model.OutcomeLose, d(2024, 1, 1)),
		mkBet("3", "A", model.Sports[0], 10, 2, model.OutcomeWin, d(2024, 1, 1)),
		mkBet("4", "A", "Archery", 10, 2, model.OutcomePending, d(2024, 1, 1)),
		mkBet("5", "A", model.Sports[0], 10, 3, model.OutcomeLose, d(2024, 1, 1)),
	}
	got := Sports(bets)
	require.Len(t, got, 4)
	assert.Equal(t, model.Sports[0], got[0].Sport)
	assert.Equal(t, model.Sports[2], got[1].Sport)
	assert.Equal(t, "Archery", got[2].Sport)
	assert.Equal(t, "Curling", got[3].Sport)

	assert.Equal(t, 2, got[0].Total)
	assert.InDelta(t, 50, got[0].WinRate, 1e-9)
	assert.InDelta(t, 0, got[0].Profit, 1e-9)
	assert.InDelta(t, -10, got[1].Profit, 1e-9)
	assert.Equal(t, 1, got[2].Pending)
}

func TestProfitSeries(t *testing.T) {
	bets := []model.Bet{
		mkBet("1", "A", "x", 10, 2, model.OutcomeWin, d(2024, 3, 1)),
		mkBet("2", "A", "x", 5, 2, model.OutcomeLose, d(2024, 1, 1)),
		mkBet("3", "A", "x", 5, 2, model.OutcomePending, d(2024, 2, 1)),
	}
	got := ProfitSeries(bets)
	require.Len(t, got, 2)
	assert.Equal(t, "1/1/2024", got[0].Label)
	assert.InDelta(t, -5, got[0].Profit, 1e-9)
	assert.InDelta(t, 5, got[1].Profit, 1e-9)

	assert.Empty(t, ProfitSeries(nil))
}

func TestMonthly(t *testing.T) {
	bets := []model.Bet{
		mkBet("1", "A", "x", 10, 2, model.OutcomeWin, d(2024, 3, 1)),
		mkBet("2", "A", "x", 10, 2, model.OutcomeLose, d(2023, 12, 31)),
		mkBet("3", "A", "x", 10, 2, model.OutcomeWin, d(2024, 3, 20)),
		mkBet("4", "A", "x", 10, 2, model.OutcomePending, d(2024, 1, 5)),
	}
	got := Monthly(bets)
	require.Len(t, got, 3)
	assert.Equal(t, "2023-12", got[0].Key)
	assert.Equal(t, "2023.12", got[0].Label)
	assert.Equal(t, 1, got[0].Losses)
	assert.Equal(t, "2024-01", got[1].Key)
	assert.Zero(t, got[1].Wins+got[1].Losses)
	assert.Equal(t, 2, got[2].Wins)
}
