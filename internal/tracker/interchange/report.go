package interchange

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/radieske/bet-tracker/internal/tracker/model"
	"github.com/radieske/bet-tracker/internal/tracker/stats"
)

const (
	csvHeader      = "Date,Tipster,Sport,Team,Stake,Odds,Outcome,Notes"
	csvDateLayout  = "1/2/2006"
	textDateLayout = "1/2/2006, 3:04:05 PM"
)

func quote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// ExportCSV gera uma linha por aposta; campos texto sempre entre aspas, números com 2 casas
func ExportCSV(bets []model.Bet) []byte {
	var buf bytes.Buffer
	buf.WriteString(csvHeader)
	buf.WriteByte('\n')
	for _, b := range bets {
		fmt.Fprintf(&buf, "%s,%s,%s,%s,%.2f,%.2f,%s,%s\n",
			quote(b.Date.UTC().Format(csvDateLayout)),
			quote(b.Tipster),
			quote(b.Sport),
			quote(b.Team),
			b.Stake,
			b.Odds,
			quote(string(b.Outcome)),
			quote(b.Notes),
		)
	}
	return buf.Bytes()
}

// ExportTXT gera o relatório legível: cabeçalho, estatísticas, saldos e lista de apostas
func ExportTXT(s *model.State, now time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString("=== BetTracker Pro Export ===\n")
	fmt.Fprintf(&buf, "Export Date: %s\n\n", now.UTC().Format(textDateLayout))

	o := stats.Overall(s.Bets)
	buf.WriteString("--- STATISTICS ---\n")
	fmt.Fprintf(&buf, "Total Bets: %d\n", o.Total)
	fmt.Fprintf(&buf, "Win Rate: %.1f%%\n", o.WinRate)
	fmt.Fprintf(&buf, "Net Profit: %.2f\n", o.NetProfit)
	fmt.Fprintf(&buf, "ROI: %.1f%%\n\n", o.ROI)

	buf.WriteString("--- TIPSTERS ---\n")
	for _, name := range s.SortedTipsterNames() {
		t := s.Tipsters[name]
		if !t.InitialSet {
			continue
		}
		fmt.Fprintf(&buf, "%s: %.2f -> %.2f\n", name, t.InitialCapital, t.CurrentCapital)
	}

	buf.WriteString("\n--- BETS ---\n")
	for i, b := range s.Bets {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, b.Tipster, b.Team)
		fmt.Fprintf(&buf, "   Sport: %s, Stake: %.2f, Odds: %.2f\n", b.Sport, b.Stake, b.Odds)
		fmt.Fprintf(&buf, "   Outcome: %s, Date: %s\n", b.Outcome, b.Date.UTC().Format(textDateLayout))
		if b.Notes != "" {
			fmt.Fprintf(&buf, "   Note: %s\n", b.Notes)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
