package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/ledger-audit/repo"
	"github.com/radieske/bet-tracker/internal/shared/kafka"
	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// ErrDeadLetter indica mensagem que não foi gravada nem enviada para a DLQ
var ErrDeadLetter = errors.New("dead letter write failed")

// AuditStore grava um evento na trilha de auditoria
type AuditStore interface {
	Insert(ctx context.Context, e events.LedgerEvent, pos repo.Position) (bool, error)
}

// Processor consome ledger_events do Kafka e grava a trilha de auditoria no Postgres.
// O offset só é confirmado depois de gravar (ou de enviar para a DLQ).
type Processor struct {
	Log    *zap.Logger
	Reader kafka.MessageSource
	Repo   AuditStore
	DLQ    kafka.MessageWriter // opcional

	MaxAttempts int           // tentativas de gravação antes da DLQ (default 3)
	RetryDelay  time.Duration // default 500ms

	OnConsumed  func()       // métricas (counter++)
	OnPersist   func()       // métricas
	OnDuplicate func()       // métricas: reentrega já gravada
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal; retorna quando o contexto é cancelado
// ou quando uma mensagem não pôde ser gravada nem enviada para a DLQ
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := kafka.FetchNext(ctx, p.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			if !p.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		// sem commit: o worker para e a mensagem volta na próxima inicialização
		if err := p.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Error("message not processed", zap.Int64("offset", m.Offset), zap.Error(err))
			return fmt.Errorf("offset %d: %w", m.Offset, err)
		}
		if err := kafka.Commit(ctx, p.Reader, m); err != nil {
			p.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
			p.fail("commit")
		}
	}
}

// handle decodifica e grava; mensagens inválidas ou que esgotam as tentativas vão para a DLQ
func (p *Processor) handle(ctx context.Context, m kafka.Message) error {
	var ev events.LedgerEvent
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.Type == "" {
		if err == nil {
			err = errors.New("missing event type")
		}
		p.Log.Warn("invalid message", zap.Int64("offset", m.Offset), zap.Error(err))
		p.fail("decode")
		return p.deadLetter(ctx, m)
	}

	pos := repo.Position{Partition: m.Partition, Offset: m.Offset}
	attempts := p.attempts()
	var err error
	for i := 0; i < attempts; i++ {
		var inserted bool
		if inserted, err = p.Repo.Insert(ctx, ev, pos); err == nil {
			switch {
			case !inserted && p.OnDuplicate != nil:
				p.OnDuplicate()
			case inserted && p.OnPersist != nil:
				p.OnPersist()
			}
			return nil
		}
		p.Log.Warn("audit insert failed", zap.Int("attempt", i+1), zap.Error(err))
		p.fail("db_insert")
		if i+1 < attempts && !p.sleep(ctx) {
			return ctx.Err()
		}
	}
	return p.deadLetter(ctx, m)
}

// deadLetter tenta a DLQ até MaxAttempts vezes; esgotadas, devolve ErrDeadLetter
func (p *Processor) deadLetter(ctx context.Context, m kafka.Message) error {
	if p.DLQ == nil {
		return nil
	}
	attempts := p.attempts()
	var err error
	for i := 0; i < attempts; i++ {
		if err = kafka.WriteJSON(ctx, p.DLQ, string(m.Key), m.Value); err == nil {
			p.Log.Info("message sent to dlq", zap.Int64("offset", m.Offset))
			return nil
		}
		p.Log.Warn("dlq write failed", zap.Int("attempt", i+1), zap.Error(err))
		p.fail("dlq")
		if i+1 < attempts && !p.sleep(ctx) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", ErrDeadLetter, err)
}

func (p *Processor) attempts() int {
	if p.MaxAttempts < 1 {
		return 3
	}
	return p.MaxAttempts
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

func (p *Processor) sleep(ctx context.Context) bool {
	d := p.RetryDelay
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
