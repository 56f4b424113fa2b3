package model

// Sports é o catálogo fixo exibido nos formulários; apostas podem usar outros valores
var Sports = []string{
	"⚽ Football",
	"🏀 Basketball",
	"🎾 Tennis",
	"⚾ Baseball",
	"🏈 American Football",
	"🏏 Cricket",
	"🏒 Ice Hockey",
	"🏐 Volleyball",
	"🥊 Boxing",
	"🥋 MMA/UFC",
	"🎯 Darts",
	"🎱 Snooker",
	"🏎️ Formula 1",
	"🐎 Horse Racing",
	"🕹️ eSports",
	"❓ Other",
}

// SportIndex retorna a posição no catálogo, ou -1
func SportIndex(sport string) int {
	for i, s := range Sports {
		if s == sport {
			return i
		}
	}
	return -1
}
