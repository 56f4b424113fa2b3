package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bet-tracker/internal/tracker/interchange"
	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/query"
	"github.com/radieske/bet-tracker/internal/tracker/snapshot"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type recPublisher struct {
	events []events.LedgerEvent
	err    error
}

func (p *recPublisher) Publish(_ context.Context, e events.LedgerEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type recBroadcaster struct{ updates []events.LedgerUpdate }

func (b *recBroadcaster) Broadcast(_ context.Context, u events.LedgerUpdate) error {
	b.updates = append(b.updates, u)
	return nil
}

type failingStore struct{ *snapshot.MemoryStore }

func (failingStore) Save(context.Context, []byte) error { return errors.New("disk full") }

type fakeRemote struct {
	doc *interchange.Document
	err error
}

func (fakeRemote) Enabled() bool { return true }
func (f fakeRemote) Fetch(context.Context) (*interchange.Document, error) {
	return f.doc, f.err
}

type fixture struct {
	tr       *Tracker
	store    *snapshot.MemoryStore
	pub      *recPublisher
	bc       *recBroadcaster
	rejected []string
	persistE int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: snapshot.NewMemoryStore(), pub: &recPublisher{}, bc: &recBroadcaster{}}
	n := 0
	f.tr = New(Options{
		Store:       f.store,
		Publisher:   f.pub,
		Broadcaster: f.bc,
		Now:         func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("bet-%d", n)
		},
		Hooks: Hooks{
			OnRejected:     func(r string) { f.rejected = append(f.rejected, r) },
			OnPersistError: func() { f.persistE++ },
		},
	})
	require.NoError(t, f.tr.Load(context.Background()))
	return f
}

func (f *fixture) stored(t *testing.T) *model.State {
	t.Helper()
	doc, ok, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	s, err := interchange.DecodeSnapshot(doc)
	require.NoError(t, err)
	return s
}

func betIn(tipster string, stake, odds float64) BetInput {
	return BetInput{Tipster: tipster, Sport: model.Sports[0], Team: "Ajax", Stake: stake, Odds: odds}
}

func TestLoadSeedsDefaults(t *testing.T) {
	f := newFixture(t)
	s := f.stored(t)
	assert.Len(t, s.Tipsters, model.DefaultTipsterCount)
	assert.Equal(t, model.ThemeLight, s.Theme)
}

func TestLoadExistingSnapshotNormalizes(t *testing.T) {
	store := snapshot.NewMemoryStore()
	doc := `{"tipstersData":{"Zed":{"initialCapital":100,"currentCapital":0,"initialSet":true},
		"Tipster 1":{"initialCapital":0,"currentCapital":0,"initialSet":false}},
		"bets":[{"id":"x","tipster":"Zed","sport":"s","team":"t","stake":30,"odds":2,"outcome":"win","date":"2024-01-01"}],
		"theme":"dark"}`
	require.NoError(t, store.Save(context.Background(), []byte(doc)))

	tr := New(Options{Store: store})
	require.NoError(t, tr.Load(context.Background()))
	s := tr.State()
	assert.Equal(t, model.ThemeDark, s.Theme)
	assert.Equal(t, 130.0, s.Tipsters["Zed"].CurrentCapital)
	_, ok := s.Tipsters["Tipster 2"]
	assert.True(t, ok)
}

func TestLoadMalformedKeepsStoredDocument(t *testing.T) {
	store := snapshot.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), []byte(`{broken`)))

	tr := New(Options{Store: store})
	require.NoError(t, tr.Load(context.Background()))
	assert.Len(t, tr.State().Tipsters, model.DefaultTipsterCount)

	doc, _, _ := store.Load(context.Background())
	assert.Equal(t, `{broken`, string(doc))
}

func TestPlaceBetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	b, err := f.tr.PlaceBet(ctx, betIn("Alice", 20, 2))
	require.NoError(t, err)
	assert.Equal(t, "bet-1", b.ID)
	assert.Equal(t, model.OutcomePending, b.Outcome)
	assert.Equal(t, fixedNow, b.Date)

	_, err = f.tr.SetOutcome(ctx, b.ID, "win")
	require.NoError(t, err)
	// mesmo outcome: sem evento
	_, err = f.tr.SetOutcome(ctx, b.ID, "WIN")
	require.NoError(t, err)

	s := f.stored(t)
	assert.Equal(t, 120.0, s.Tipsters["Alice"].CurrentCapital)
	require.Len(t, s.Bets, 1)

	assert.Equal(t, []string{events.TypeTipsterAdded, events.TypeBetPlaced, events.TypeOutcomeChanged}, f.pub.types())
	last := f.pub.events[2]
	assert.Equal(t, "pending", last.PreviousOutcome)
	assert.Equal(t, "win", last.Outcome)
	assert.Equal(t, 120.0, last.Capital)
	assert.Equal(t, "Alice", last.Tipster)

	require.Len(t, f.bc.updates, 3)
	assert.Equal(t, 120.0, f.bc.updates[2].Balances["Alice"])
	assert.Equal(t, 1, f.bc.updates[2].Overview.Wins)
	assert.Equal(t, []string{"Alice"}, f.bc.updates[2].Tipsters)

	removed, err := f.tr.DeleteBet(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, removed.ID)
	assert.Equal(t, 100.0, f.stored(t).Tipsters["Alice"].CurrentCapital)
}

func TestRejectionsDoNotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 50)
	require.NoError(t, err)
	_, err = f.tr.PlaceBet(ctx, betIn("Alice", 10, 2))
	require.NoError(t, err)
	_ = f.stored(t)
	published := len(f.pub.events)

	_, err = f.tr.PlaceBet(ctx, betIn("Alice", 10, 2))
	assert.ErrorIs(t, err, ledger.ErrDuplicateBet)
	_, err = f.tr.PlaceBet(ctx, betIn("Alice", 41, 2))
	assert.ErrorIs(t, err, ledger.ErrInsufficientCapital)
	_, err = f.tr.PlaceBet(ctx, betIn("Tipster 2", 1, 2))
	assert.ErrorIs(t, err, ledger.ErrCapitalNotSet)
	_, err = f.tr.SetOutcome(ctx, "nope", "win")
	assert.ErrorIs(t, err, ledger.ErrBetNotFound)
	_, err = f.tr.SetOutcome(ctx, "bet-1", "")
	assert.ErrorIs(t, err, ledger.ErrInvalid)
	in := betIn("Alice", 1, 2)
	in.OddsFormat = "fractional"
	_, err = f.tr.PlaceBet(ctx, in)
	assert.ErrorIs(t, err, ledger.ErrInvalid)

	stored := f.stored(t)
	assert.Len(t, stored.Bets, 1)
	assert.Equal(t, 90.0, stored.Tipsters["Alice"].CurrentCapital)
	assert.Len(t, f.pub.events, published)
	assert.Equal(t, []string{"duplicate", "insufficient_capital", "capital_not_set", "bet_not_found", "invalid", "invalid"}, f.rejected)
}

func TestAmericanOdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)

	in := betIn("Alice", 10, -150)
	in.OddsFormat = model.OddsAmerican
	b, err := f.tr.PlaceBet(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1.67, b.Odds)

	for _, american := range []float64{-1, 50, -99} {
		in := betIn("Alice", 10, american)
		in.OddsFormat = model.OddsAmerican
		in.Outcome = "win"
		_, err := f.tr.PlaceBet(ctx, in)
		assert.ErrorIs(t, err, ledger.ErrInvalid, "american %v", american)
	}
	assert.Equal(t, 90.0, f.tr.State().Tipsters["Alice"].CurrentCapital)
}

func TestUpdateBetKeepsIDAndDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)
	in := betIn("Alice", 50, 2)
	in.Date = fixedNow.AddDate(0, 0, -3)
	b, err := f.tr.PlaceBet(ctx, in)
	require.NoError(t, err)

	edit := betIn("Alice", 80, 1.5)
	edit.Outcome = "lose"
	got, err := f.tr.UpdateBet(ctx, b.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, in.Date, got.Date)
	assert.Equal(t, 20.0, f.tr.State().Tipsters["Alice"].CurrentCapital)

	_, err = f.tr.UpdateBet(ctx, "missing", edit)
	assert.ErrorIs(t, err, ledger.ErrBetNotFound)
}

func TestUpdateMovingBetTouchesBothTipsters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"Alice", "Bob"} {
		_, err := f.tr.AddTipster(ctx, name, 100)
		require.NoError(t, err)
	}
	b, err := f.tr.PlaceBet(ctx, betIn("Alice", 10, 2))
	require.NoError(t, err)
	_, err = f.tr.UpdateBet(ctx, b.ID, betIn("Bob", 10, 2))
	require.NoError(t, err)

	last := f.bc.updates[len(f.bc.updates)-1]
	assert.Equal(t, events.TypeBetUpdated, last.Cause)
	assert.Equal(t, []string{"Bob", "Alice"}, last.Tipsters)
	assert.Equal(t, 100.0, last.Balances["Alice"])
	assert.Equal(t, 90.0, last.Balances["Bob"])

	require.NoError(t, f.tr.Reset(ctx))
	assert.Empty(t, f.bc.updates[len(f.bc.updates)-1].Tipsters)
}

func TestSetCapitalAndTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tp, err := f.tr.SetCapital(ctx, "Tipster 1", 250)
	require.NoError(t, err)
	assert.True(t, tp.InitialSet)
	assert.Equal(t, 250.0, tp.CurrentCapital)

	require.NoError(t, f.tr.SetTheme(ctx, model.ThemeDark))
	assert.Equal(t, model.ThemeDark, f.stored(t).Theme)
	assert.ErrorIs(t, f.tr.SetTheme(ctx, "blue"), ledger.ErrInvalid)
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	persistErrors := 0
	tr := New(Options{
		Store: failingStore{snapshot.NewMemoryStore()},
		Hooks: Hooks{OnPersistError: func() { persistErrors++ }},
	})
	require.NoError(t, tr.Load(context.Background()))
	_, err := tr.AddTipster(context.Background(), "Alice", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, persistErrors)
	assert.Contains(t, tr.State().Tipsters, "Alice")
}

func TestPublishFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	_, err := f.tr.AddTipster(context.Background(), "Alice", 10)
	require.NoError(t, err)
	assert.Contains(t, f.stored(t).Tipsters, "Alice")
}

func TestImportAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)
	_, err = f.tr.PlaceBet(ctx, betIn("Alice", 10, 2))
	require.NoError(t, err)

	exp, err := f.tr.Export(ExportJSON)
	require.NoError(t, err)
	assert.Equal(t, "bettracker_export_2024-05-10.json", exp.FileName)

	res, err := f.tr.Import(ctx, exp.Body, interchange.ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reassigned)
	assert.Len(t, f.tr.State().Bets, 2)
	assert.Equal(t, 80.0, f.tr.State().Tipsters["Alice"].CurrentCapital)

	before := f.tr.State()
	_, err = f.tr.Import(ctx, []byte(`{"bets":[]}`), interchange.ModeReplace)
	assert.ErrorIs(t, err, interchange.ErrMalformed)
	assert.Equal(t, before, f.tr.State())

	for _, format := range []string{ExportCSV, ExportTXT} {
		e, err := f.tr.Export(format)
		require.NoError(t, err)
		assert.NotEmpty(t, e.Body)
	}
	_, err = f.tr.Export("xml")
	assert.ErrorIs(t, err, ledger.ErrInvalid)
}

func TestImportRejectsBetsBreakingLedgerRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)
	_, err = f.tr.PlaceBet(ctx, betIn("Alice", 10, 2))
	require.NoError(t, err)
	before := f.tr.State()
	published := len(f.pub.events)

	doc := `{"tipstersData":{
		"A":{"initialCapital":100,"currentCapital":100,"initialSet":true},
		"B":{"initialCapital":0,"currentCapital":0,"initialSet":false}},
		"bets":[
		{"id":"x1","tipster":"A","sport":"s","team":"t","stake":-1000,"odds":0.5,"outcome":"lose"},
		{"id":"x2","tipster":"B","sport":"s","team":"t","stake":5,"odds":2,"outcome":"win"}]}`
	for _, mode := range []interchange.Mode{interchange.ModeReplace, interchange.ModeMerge} {
		_, err := f.tr.Import(ctx, []byte(doc), mode)
		assert.ErrorIs(t, err, interchange.ErrMalformed)
	}
	assert.Equal(t, before, f.tr.State())
	stored := f.stored(t)
	assert.Len(t, stored.Bets, 1)
	assert.Equal(t, 90.0, stored.Tipsters["Alice"].CurrentCapital)
	assert.Len(t, f.pub.events, published)
	assert.Equal(t, []string{"malformed", "malformed"}, f.rejected)

	remote := &interchange.Document{
		Tipsters: map[string]*model.Tipster{"B": {InitialSet: false}},
		Bets:     []model.Bet{{ID: "r1", Tipster: "B", Sport: "s", Team: "t", Stake: 5, Odds: 2, Outcome: model.OutcomeWin}},
	}
	assert.False(t, f.tr.SyncFromRemote(ctx, fakeRemote{doc: remote}))
	assert.Equal(t, before, f.tr.State())
}

func TestResetKeepsTheme(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)
	require.NoError(t, f.tr.SetTheme(ctx, model.ThemeDark))

	require.NoError(t, f.tr.Reset(ctx))
	s := f.stored(t)
	assert.NotContains(t, s.Tipsters, "Alice")
	assert.Len(t, s.Tipsters, model.DefaultTipsterCount)
	assert.Equal(t, model.ThemeDark, s.Theme)
	assert.Equal(t, events.TypeReset, f.pub.types()[len(f.pub.events)-1])
}

func TestSyncFromRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.tr.SyncFromRemote(ctx, fakeRemote{err: errors.New("unreachable")}))
	assert.Len(t, f.tr.State().Tipsters, model.DefaultTipsterCount)

	doc := &interchange.Document{
		Tipsters: map[string]*model.Tipster{"Remote": {InitialCapital: 40, InitialSet: true}},
		Bets:     []model.Bet{{ID: "r1", Tipster: "Remote", Sport: "s", Team: "t", Stake: 10, Odds: 2, Outcome: model.OutcomeLose}},
	}
	assert.True(t, f.tr.SyncFromRemote(ctx, fakeRemote{doc: doc}))
	s := f.stored(t)
	assert.Len(t, s.Tipsters, 1)
	assert.Equal(t, 30.0, s.Tipsters["Remote"].CurrentCapital)
	assert.Equal(t, events.TypeSynced, f.pub.types()[len(f.pub.events)-1])
}

func TestViewOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 1000)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		in := betIn("Alice", 1, 2)
		in.Team = fmt.Sprintf("Team %d", i)
		_, err := f.tr.PlaceBet(ctx, in)
		require.NoError(t, err)
	}

	v := f.tr.View()
	assert.Equal(t, 2, v.Page.TotalPages)
	assert.Len(t, v.Page.Items, 10)

	v = f.tr.MoveViewPage(1)
	assert.Equal(t, 2, v.Page.Page)
	v = f.tr.MoveViewPage(1)
	assert.Equal(t, 2, v.Page.Page)

	v = f.tr.SetViewFilter(query.Filter{Search: "team 1"})
	assert.Equal(t, 1, v.Page.Page)
	assert.Equal(t, 3, v.Page.TotalItems) // Team 1, Team 10, Team 11

	assert.True(t, v.Filtered)

	v = f.tr.SetViewSearch("team 11")
	assert.Equal(t, 1, v.Page.TotalItems)
	f.tr.SetViewFilter(query.Filter{Tipster: "Alice", Search: "team 1"})
	v = f.tr.SetViewSearch("")
	assert.Equal(t, "Alice", v.View.Filter.Tipster)
	assert.Equal(t, 12, v.Page.TotalItems)
	v = f.tr.ClearViewFilters()
	assert.False(t, v.Filtered)
	assert.Equal(t, query.Filter{}, v.View.Filter)
	f.tr.SetViewFilter(query.Filter{Search: "team 1"})

	v = f.tr.SetViewPageSize(2)
	assert.Equal(t, 2, v.Page.TotalPages)
	v = f.tr.SetViewPage(99)
	assert.Equal(t, 2, v.Page.Page)

	v = f.tr.ToggleViewSort()
	assert.Equal(t, query.Sort{Key: query.SortDate, Order: query.Asc}, v.View.Sort)

	p := f.tr.ListBets(query.Filter{}, query.DefaultSort, 2, 5)
	assert.Equal(t, 3, p.TotalPages)
}

func TestStatsQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.tr.AddTipster(ctx, "Alice", 100)
	require.NoError(t, err)
	b, err := f.tr.PlaceBet(ctx, betIn("Alice", 10, 3))
	require.NoError(t, err)
	_, err = f.tr.SetOutcome(ctx, b.ID, "win")
	require.NoError(t, err)

	o := f.tr.Overview(query.Filter{})
	assert.Equal(t, 20.0, o.NetProfit)
	ts, totals := f.tr.TipsterStats(query.Filter{})
	require.Len(t, ts, 1)
	assert.Equal(t, 120.0, totals.Current)

	d, err := f.tr.TipsterDetails("Alice")
	require.NoError(t, err)
	assert.Len(t, d.Recent, 1)
	_, err = f.tr.TipsterDetails("ghost")
	assert.ErrorIs(t, err, ledger.ErrTipsterNotFound)

	assert.Len(t, f.tr.SportStats(query.Filter{}), 1)
	assert.Len(t, f.tr.ProfitSeries(query.Filter{}), 1)
	assert.Len(t, f.tr.Monthly(query.Filter{}), 1)
	assert.Len(t, f.tr.Balances(), model.DefaultTipsterCount+1)
}
