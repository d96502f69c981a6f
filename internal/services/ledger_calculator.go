package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"logistics-backend/internal/models"
)

// SortLedger orders transactions by transaction date, then creation time, then id.
func SortLedger(txns []models.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.Before(b.TransactionDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// FoldBalance adds credit - debit of every transaction to start.
func FoldBalance(start decimal.Decimal, txns []models.Transaction) decimal.Decimal {
	balance := start
	for _, t := range txns {
		balance = balance.Add(t.Net())
	}
	return balance
}

// RunningBalances walks txns in ledger order and annotates each with the
// balance after it. It returns the lines in the same order plus the closing balance.
func RunningBalances(opening decimal.Decimal, txns []models.Transaction) ([]models.StatementLine, decimal.Decimal) {
	ordered := make([]models.Transaction, len(txns))
	copy(ordered, txns)
	SortLedger(ordered)

	lines := make([]models.StatementLine, 0, len(ordered))
	running := opening
	for _, t := range ordered {
		running = running.Add(t.Net())
		lines = append(lines, models.StatementLine{Transaction: t, CalculatedBalance: running})
	}
	return lines, running
}

// NewestFirst returns lines in reverse order. Balances must already be computed.
func NewestFirst(lines []models.StatementLine) []models.StatementLine {
	out := make([]models.StatementLine, len(lines))
	for i, l := range lines {
		out[len(lines)-1-i] = l
	}
	return out
}

// FilterLines keeps lines whose details or destination contain search, case-insensitively.
func FilterLines(lines []models.StatementLine, search string) []models.StatementLine {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return lines
	}
	out := make([]models.StatementLine, 0, len(lines))
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l.Details), search) ||
			strings.Contains(strings.ToLower(l.Destination), search) {
			out = append(out, l)
		}
	}
	return out
}

func sumCreditDebit(txns []models.Transaction) (credit, debit decimal.Decimal) {
	for _, t := range txns {
		credit = credit.Add(t.Credit)
		debit = debit.Add(t.Debit)
	}
	return credit, debit
}
