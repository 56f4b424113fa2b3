package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/ledger-audit/repo"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// fakeSource entrega as mensagens e cancela o contexto quando esvazia
type fakeSource struct {
	msgs      []kgo.Message
	committed []int64
	cancel    context.CancelFunc
}

func (s *fakeSource) FetchMessage(ctx context.Context) (kgo.Message, error) {
	if len(s.msgs) == 0 {
		s.cancel()
		<-ctx.Done()
		return kgo.Message{}, ctx.Err()
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

func (s *fakeSource) CommitMessages(_ context.Context, msgs ...kgo.Message) error {
	for _, m := range msgs {
		s.committed = append(s.committed, m.Offset)
	}
	return nil
}

type fakeStore struct {
	rows    map[repo.Position]events.LedgerEvent
	failFor map[int64]int // offset → falhas restantes
}

func (f *fakeStore) Insert(_ context.Context, e events.LedgerEvent, pos repo.Position) (bool, error) {
	if f.failFor[pos.Offset] > 0 {
		f.failFor[pos.Offset]--
		return false, errors.New("db down")
	}
	if _, ok := f.rows[pos]; ok {
		return false, nil
	}
	f.rows[pos] = e
	return true, nil
}

type fakeDLQ struct {
	msgs  []kgo.Message
	fails int
}

func (d *fakeDLQ) WriteMessages(_ context.Context, msgs ...kgo.Message) error {
	if d.fails > 0 {
		d.fails--
		return errors.New("broker unavailable")
	}
	d.msgs = append(d.msgs, msgs...)
	return nil
}

func msg(t *testing.T, offset int64, ev events.LedgerEvent) kgo.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kgo.Message{Offset: offset, Key: []byte(ev.Key()), Value: b}
}

func TestProcessorRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	placed := events.LedgerEvent{Type: events.TypeBetPlaced, BetID: "b1", Tipster: "Alice", Stake: 10, Odds: 2, Capital: 90}
	src := &fakeSource{cancel: cancel, msgs: []kgo.Message{
		msg(t, 1, placed),
		{Offset: 2, Key: []byte("x"), Value: []byte("{not json")},
		msg(t, 1, placed), // reentrega
		msg(t, 3, events.LedgerEvent{Type: events.TypeReset}),
		msg(t, 4, events.LedgerEvent{Type: events.TypeBetDeleted, Tipster: "Bob"}),
	}}
	store := &fakeStore{rows: map[repo.Position]events.LedgerEvent{}, failFor: map[int64]int{3: 1, 4: 5}}
	dlq := &fakeDLQ{}

	var consumed, persisted, dups int
	stages := map[string]int{}
	p := &Processor{
		Log:         zap.NewNop(),
		Reader:      src,
		Repo:        store,
		DLQ:         dlq,
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
		OnConsumed:  func() { consumed++ },
		OnPersist:   func() { persisted++ },
		OnDuplicate: func() { dups++ },
		OnError:     func(s string) { stages[s]++ },
	}

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 5, consumed)
	assert.Equal(t, 2, persisted)
	assert.Equal(t, 1, dups)
	assert.Equal(t, []int64{1, 2, 1, 3, 4}, src.committed)
	assert.Equal(t, map[string]int{"decode": 1, "db_insert": 3}, stages)

	require.Len(t, dlq.msgs, 2)
	assert.Equal(t, "{not json", string(dlq.msgs[0].Value))
	assert.Equal(t, "Bob", string(dlq.msgs[1].Key))

	assert.Equal(t, "Alice", store.rows[repo.Position{Offset: 1}].Tipster)
	assert.Equal(t, events.TypeReset, store.rows[repo.Position{Offset: 3}].Type)
}

func TestProcessorWithoutDLQSkipsBadMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{cancel: cancel, msgs: []kgo.Message{{Offset: 9, Value: []byte(`{"capital":1}`)}}}
	p := &Processor{Log: zap.NewNop(), Reader: src, Repo: &fakeStore{rows: map[repo.Position]events.LedgerEvent{}}}

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, []int64{9}, src.committed)
}

func TestProcessorRetriesDLQ(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{cancel: cancel, msgs: []kgo.Message{{Offset: 5, Value: []byte("garbage")}}}
	dlq := &fakeDLQ{fails: 1}
	stages := map[string]int{}
	p := &Processor{
		Log: zap.NewNop(), Reader: src, Repo: &fakeStore{rows: map[repo.Position]events.LedgerEvent{}},
		DLQ: dlq, MaxAttempts: 3, RetryDelay: time.Millisecond,
		OnError: func(s string) { stages[s]++ },
	}

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Len(t, dlq.msgs, 1)
	assert.Equal(t, []int64{5}, src.committed)
	assert.Equal(t, map[string]int{"decode": 1, "dlq": 1}, stages)
}

func TestProcessorStopsWhenDLQUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	placed := events.LedgerEvent{Type: events.TypeBetPlaced, Tipster: "Alice"}
	src := &fakeSource{cancel: cancel, msgs: []kgo.Message{
		{Offset: 7, Value: []byte("garbage")},
		msg(t, 8, placed),
	}}
	store := &fakeStore{rows: map[repo.Position]events.LedgerEvent{}}
	p := &Processor{
		Log: zap.NewNop(), Reader: src, Repo: store,
		DLQ: &fakeDLQ{fails: 10}, MaxAttempts: 2, RetryDelay: time.Millisecond,
	}

	err := p.Run(ctx)
	assert.ErrorIs(t, err, ErrDeadLetter)
	assert.ErrorContains(t, err, "offset 7")
	// nada confirmado e a mensagem seguinte não é lida
	assert.Empty(t, src.committed)
	assert.Empty(t, store.rows)
	assert.Len(t, src.msgs, 1)
}
