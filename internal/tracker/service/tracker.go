// Package service expõe o Tracker: dono único do estado, com uma API estreita de mutações.
// Toda mutação segue o mesmo caminho: guardas → escrita → recompute → save → eventos.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/tracker/interchange"
	"github.com/radieske/bet-tracker/internal/tracker/ledger"
	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/query"
	"github.com/radieske/bet-tracker/internal/tracker/snapshot"
	"github.com/radieske/bet-tracker/internal/tracker/stats"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// Publisher envia eventos do ledger (Kafka)
type Publisher interface {
	Publish(ctx context.Context, e events.LedgerEvent) error
}

// Broadcaster envia o resumo ao vivo (Redis pub/sub → websocket)
type Broadcaster interface {
	Broadcast(ctx context.Context, u events.LedgerUpdate) error
}

// RemoteSource é a origem opcional de sync
type RemoteSource interface {
	Enabled() bool
	Fetch(ctx context.Context) (*interchange.Document, error)
}

// Hooks são callbacks de métricas; campos nil são ignorados
type Hooks struct {
	OnMutation     func(op string)
	OnRejected     func(reason string)
	OnPersistError func()
	OnState        func(bets int, balances map[string]float64)
}

// Options agrupa as dependências do Tracker
type Options struct {
	Store       snapshot.Store
	Publisher   Publisher
	Broadcaster Broadcaster
	Log         *zap.Logger
	Now         func() time.Time
	NewID       func() string
	PageSize    int
	Hooks       Hooks
}

// Tracker serializa todas as operações com um mutex; nenhuma leitura vê estado parcial
type Tracker struct {
	mu    sync.Mutex
	state *model.State
	view  *query.View

	store snapshot.Store
	pub   Publisher
	bc    Broadcaster
	log   *zap.Logger
	now   func() time.Time
	newID func() string
	hooks Hooks
}

// New cria o Tracker com estado padrão; chame Load para ler o snapshot persistido
func New(opts Options) *Tracker {
	t := &Tracker{
		state: model.NewState(),
		view:  query.NewView(opts.PageSize),
		store: opts.Store,
		pub:   opts.Publisher,
		bc:    opts.Broadcaster,
		log:   opts.Log,
		now:   opts.Now,
		newID: opts.NewID,
		hooks: opts.Hooks,
	}
	if t.store == nil {
		t.store = snapshot.NewMemoryStore()
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	if t.now == nil {
		t.now = func() time.Time { return time.Now().UTC() }
	}
	if t.newID == nil {
		t.newID = func() string { return uuid.NewString() }
	}
	return t
}

// Load lê o snapshot na inicialização. Ausente ou inválido vira o estado padrão.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	doc, ok, err := t.store.Load(ctx)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		t.log.Info("no snapshot found, seeding defaults")
		t.state = model.NewState()
		t.persist(ctx)
	default:
		st, derr := interchange.DecodeSnapshot(doc)
		if derr != nil {
			// o documento só é sobrescrito na próxima mutação
			t.log.Warn("malformed snapshot, starting from defaults", zap.Error(derr))
			st = model.NewState()
		}
		t.state = st
	}
	t.state.NormalizeDefaultNames()
	ledger.Apply(t.state)
	t.reportState()
	t.log.Info("snapshot loaded",
		zap.Int("tipsters", len(t.state.Tipsters)),
		zap.Int("bets", len(t.state.Bets)),
	)
	return nil
}

// Ping verifica o backend do snapshot (healthz)
func (t *Tracker) Ping(ctx context.Context) error { return t.store.Ping(ctx) }

// State retorna uma cópia do estado atual
func (t *Tracker) State() *model.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// persist grava o snapshot inteiro; falha é logada e o estado em memória segue válido
func (t *Tracker) persist(ctx context.Context) {
	doc, err := interchange.EncodeSnapshot(t.state)
	if err == nil {
		err = t.store.Save(ctx, doc)
	}
	if err != nil {
		t.log.Error("snapshot save failed", zap.Error(err))
		if t.hooks.OnPersistError != nil {
			t.hooks.OnPersistError()
		}
	}
}

func (t *Tracker) reportState() {
	if t.hooks.OnState == nil {
		return
	}
	balances := make(map[string]float64, len(t.state.Tipsters))
	for name, tp := range t.state.Tipsters {
		if tp.InitialSet {
			balances[name] = tp.CurrentCapital
		}
	}
	t.hooks.OnState(len(t.state.Bets), balances)
}

// reject registra a rejeição de uma guarda e devolve o erro
func (t *Tracker) reject(op string, err error, fields ...zap.Field) error {
	reason := ledger.Reason(err)
	t.log.Warn(op+" rejected", append(fields, zap.String("reason", reason), zap.Error(err))...)
	if t.hooks.OnRejected != nil {
		t.hooks.OnRejected(reason)
	}
	return err
}

// committed roda o caminho comum depois de uma mutação aplicada.
// also lista outros tipsters afetados além de ev.Tipster (aposta movida de tipster).
func (t *Tracker) committed(ctx context.Context, op string, ev events.LedgerEvent, also ...string) {
	t.persist(ctx)
	if ev.Tipster != "" {
		if tp, ok := t.state.Tipsters[ev.Tipster]; ok {
			ev.Capital = tp.CurrentCapital
		}
	}
	ev.Type = op
	ev.Ts = t.now()

	if t.pub != nil {
		if err := t.pub.Publish(ctx, ev); err != nil {
			t.log.Error("ledger event publish failed", zap.String("type", op), zap.Error(err))
		}
	}
	if t.bc != nil {
		if err := t.bc.Broadcast(ctx, t.update(op, touched(ev.Tipster, also))); err != nil {
			t.log.Error("ledger update broadcast failed", zap.String("type", op), zap.Error(err))
		}
	}
	if t.hooks.OnMutation != nil {
		t.hooks.OnMutation(op)
	}
	t.reportState()
}

func touched(tipster string, also []string) []string {
	if tipster == "" {
		return nil
	}
	out := []string{tipster}
	for _, name := range also {
		if name != "" && name != tipster {
			out = append(out, name)
		}
	}
	return out
}

func (t *Tracker) update(cause string, tipsters []string) events.LedgerUpdate {
	o := stats.Overall(t.state.Bets)
	balances := map[string]float64{}
	for name, tp := range t.state.Tipsters {
		if tp.InitialSet {
			balances[name] = tp.CurrentCapital
		}
	}
	return events.LedgerUpdate{
		Cause:    cause,
		Tipsters: tipsters,
		Overview: events.Overview{
			TotalBets:   o.Total,
			Wins:        o.Wins,
			Losses:      o.Losses,
			Pending:     o.Pending,
			WinRate:     o.WinRate,
			NetProfit:   o.NetProfit,
			ROI:         o.ROI,
			TotalStaked: o.TotalStaked,
		},
		Balances:  balances,
		UpdatedAt: t.now(),
	}
}

// AddTipster cria um tipster já inicializado
func (t *Tracker) AddTipster(ctx context.Context, name string, capital float64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	added, err := ledger.AddTipster(t.state, name, capital)
	if err != nil {
		return "", t.reject(events.TypeTipsterAdded, err, zap.String("tipster", name))
	}
	t.committed(ctx, events.TypeTipsterAdded, events.LedgerEvent{Tipster: added})
	t.log.Info("tipster added", zap.String("tipster", added), zap.Float64("capital", capital))
	return added, nil
}

// SetCapital define o capital inicial do tipster
func (t *Tracker) SetCapital(ctx context.Context, name string, value float64) (model.Tipster, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ledger.SetCapital(t.state, name, value); err != nil {
		return model.Tipster{}, t.reject(events.TypeCapitalSet, err, zap.String("tipster", name))
	}
	t.committed(ctx, events.TypeCapitalSet, events.LedgerEvent{Tipster: name})
	t.log.Info("capital set", zap.String("tipster", name), zap.Float64("initial", value))
	return *t.state.Tipsters[name], nil
}

// Theme retorna a preferência de tema
func (t *Tracker) Theme() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Theme
}

// SetTheme grava a preferência de tema (light|dark)
func (t *Tracker) SetTheme(ctx context.Context, theme string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !model.ValidTheme(theme) {
		return &ledger.ValidationError{Field: "theme", Message: "theme must be light or dark"}
	}
	t.state.Theme = theme
	t.persist(ctx)
	return nil
}

// Reset apaga o snapshot e volta ao estado padrão
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(ctx); err != nil {
		t.log.Error("snapshot delete failed", zap.Error(err))
		return err
	}
	theme := t.state.Theme
	t.state = model.NewState()
	t.state.Theme = theme
	t.view = query.NewView(t.view.PageSize)
	t.committed(ctx, events.TypeReset, events.LedgerEvent{})
	t.log.Info("all data reset")
	return nil
}

// SyncFromRemote busca o snapshot remoto e, se válido, substitui o estado local.
// O fetch roda sem o lock: uma edição feita durante a busca é sobrescrita.
// Falhas são apenas logadas; retorna true quando o estado foi substituído.
func (t *Tracker) SyncFromRemote(ctx context.Context, src RemoteSource) bool {
	if src == nil || !src.Enabled() {
		return false
	}
	doc, err := src.Fetch(ctx)
	if err != nil {
		t.log.Warn("server sync failed", zap.Error(err))
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := interchange.Import(t.state, doc, interchange.ModeReplace, t.newID); err != nil {
		t.log.Warn("remote snapshot rejected", zap.Error(err))
		return false
	}
	t.committed(ctx, events.TypeSynced, events.LedgerEvent{})
	t.log.Info("state replaced from remote",
		zap.Int("tipsters", len(doc.Tipsters)),
		zap.Int("bets", len(doc.Bets)),
	)
	return true
}
