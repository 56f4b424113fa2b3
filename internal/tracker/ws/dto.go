package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Tipster: vazio assina todos os updates
type ClientMsg struct {
	Type    string `json:"type"`
	Tipster string `json:"tipster,omitempty"`
}
