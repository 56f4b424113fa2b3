// Package snapshot guarda o documento do Entity Store sob uma chave fixa num key-value store.
// Cada Save sobrescreve o documento inteiro.
package snapshot

import "context"

// Store é o key-value store durável do snapshot
type Store interface {
	// Load retorna o documento e false quando a chave não existe
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, doc []byte) error
	Delete(ctx context.Context) error
	Ping(ctx context.Context) error
}
