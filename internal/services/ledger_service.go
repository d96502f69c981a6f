package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/cache"
	"logistics-backend/internal/metrics"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
	"logistics-backend/internal/timeutil"
)

// TransactionStore persists ledger transactions. Create must move the
// account balance and insert the row atomically.
type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	List(ctx context.Context, accountID int, rng repositories.TransactionRange) ([]models.Transaction, error)
}

type LedgerService struct {
	Accounts     AccountStore
	Transactions TransactionStore
	log          *zap.Logger
}

func NewLedgerService(accounts AccountStore, txns TransactionStore, log *zap.Logger) *LedgerService {
	return &LedgerService{Accounts: accounts, Transactions: txns, log: log.Named("ledger")}
}

// CreateTransaction validates the request, then records it and moves the
// account balance in one database transaction.
func (s *LedgerService) CreateTransaction(ctx context.Context, session *models.Session, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	amount := req.Amount
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, apperr.Validation("amount cannot have more than two decimal places")
	}

	t := &models.Transaction{
		AccountID:   req.AccountID,
		Type:        req.Type,
		Credit:      decimal.Zero,
		Debit:       decimal.Zero,
		Details:     strings.TrimSpace(req.Details),
		Destination: strings.TrimSpace(req.Destination),
	}
	switch req.Type {
	case models.TransactionTypeCredit:
		t.Credit = amount
	case models.TransactionTypeDebit:
		t.Debit = amount
	case models.TransactionTypeTransfer:
		if t.Destination == "" {
			return nil, apperr.Validation("destination is required for a transfer")
		}
		t.Debit = amount
	default:
		return nil, apperr.Validation("type must be credit, debit or transfer")
	}

	if strings.TrimSpace(req.TransactionDate) == "" {
		t.TransactionDate = timeutil.StartOfDay(timeutil.Now())
	} else {
		d, err := timeutil.ParseDate(req.TransactionDate)
		if err != nil {
			return nil, apperr.Validation("invalid transaction date: %v", err)
		}
		t.TransactionDate = d
	}

	if req.AccountID <= 0 {
		return nil, apperr.Validation("account is required")
	}
	account, err := s.Accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperr.Validation("account %q is inactive", account.Slug)
	}
	if session != nil {
		uid := session.UserID
		t.CreatedByUserID = &uid
	}

	if err := s.Transactions.Create(ctx, t); err != nil {
		s.log.Error("failed to record transaction",
			zap.Int("account_id", req.AccountID), zap.String("type", string(req.Type)), zap.Error(err))
		return nil, err
	}

	metrics.LedgerTransactionsTotal.WithLabelValues(string(t.Type)).Inc()
	cache.InvalidateAccounts(ctx)
	s.log.Info("transaction recorded",
		zap.Int64("id", t.ID), zap.String("account", t.AccountSlug),
		zap.String("credit", t.Credit.StringFixed(2)), zap.String("debit", t.Debit.StringFixed(2)))
	return t, nil
}

// Statement computes the opening balance as of the start date, running
// balances through the range, and returns lines newest first.
func (s *LedgerService) Statement(ctx context.Context, slug string, filter models.StatementFilter) (*models.Statement, error) {
	start, end, err := parseRange(filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, err
	}

	account, err := s.Accounts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	opening := account.InitialBalance
	if start != nil {
		prior, err := s.Transactions.List(ctx, account.ID, repositories.TransactionRange{Before: start})
		if err != nil {
			return nil, err
		}
		SortLedger(prior)
		opening = FoldBalance(opening, prior)
	}

	inRange, err := s.Transactions.List(ctx, account.ID, repositories.TransactionRange{From: start, To: end})
	if err != nil {
		return nil, err
	}

	lines, closing := RunningBalances(opening, inRange)
	credit, debit := sumCreditDebit(inRange)

	return &models.Statement{
		Account:        account,
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: opening,
		ClosingBalance: closing,
		TotalCredit:    credit,
		TotalDebit:     debit,
		Transactions:   FilterLines(NewestFirst(lines), filter.Search),
	}, nil
}

// TransactionsPage returns one page of the full ledger, newest first, with
// balances computed over the whole history.
func (s *LedgerService) TransactionsPage(ctx context.Context, slug string, page, pageSize int) (*models.TransactionPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	stmt, err := s.Statement(ctx, slug, models.StatementFilter{})
	if err != nil {
		return nil, err
	}

	total := len(stmt.Transactions)
	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return &models.TransactionPage{
		Transactions: stmt.Transactions[from:to],
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// parseRange parses optional YYYY-MM-DD bounds. The end bound covers its whole day.
func parseRange(startStr, endStr string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if strings.TrimSpace(startStr) != "" {
		d, err := timeutil.ParseDate(startStr)
		if err != nil {
			return nil, nil, apperr.Validation("invalid start date: %v", err)
		}
		d = timeutil.StartOfDay(d)
		start = &d
	}
	if strings.TrimSpace(endStr) != "" {
		d, err := timeutil.ParseDate(endStr)
		if err != nil {
			return nil, nil, apperr.Validation("invalid end date: %v", err)
		}
		d = timeutil.EndOfDay(d)
		end = &d
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, apperr.Validation("end date is before start date")
	}
	return start, end, nil
}
