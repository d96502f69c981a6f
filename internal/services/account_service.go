package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/cache"
	"logistics-backend/internal/models"
)

type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id int) (*models.Account, error)
	GetBySlug(ctx context.Context, slug string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Update(ctx context.Context, a *models.Account, initialDelta decimal.Decimal) error
	SetActive(ctx context.Context, id int, active bool) error
	RecalculateBalance(ctx context.Context, id int) (*models.BalanceCheck, error)
}

type AccountService struct {
	Repo                  AccountStore
	DefaultCurrency       string
	DefaultCurrencySymbol string
	log                   *zap.Logger
}

func NewAccountService(repo AccountStore, currency, symbol string, log *zap.Logger) *AccountService {
	return &AccountService{
		Repo:                  repo,
		DefaultCurrency:       currency,
		DefaultCurrencySymbol: symbol,
		log:                   log.Named("accounts"),
	}
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title and joins its alphanumeric runs with dashes.
func Slugify(title string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func (s *AccountService) Create(ctx context.Context, session *models.Session, req *models.CreateAccountRequest) (*models.Account, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, apperr.Validation("title must contain letters or digits")
	}

	a := &models.Account{
		Title:          title,
		Slug:           slug,
		Description:    strings.TrimSpace(req.Description),
		InitialBalance: req.InitialBalance.Round(2),
		Currency:       firstNonEmpty(req.Currency, s.DefaultCurrency),
		CurrencySymbol: firstNonEmpty(req.CurrencySymbol, s.DefaultCurrencySymbol),
	}
	if session != nil {
		uid := session.UserID
		a.CreatedByUserID = &uid
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, err
	}
	cache.InvalidateAccounts(ctx)
	s.log.Info("account created", zap.String("slug", a.Slug))
	return a, nil
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.Repo.List(ctx)
}

func (s *AccountService) Get(ctx context.Context, slug string) (*models.Account, error) {
	return s.Repo.GetBySlug(ctx, slug)
}

// Update edits metadata. Changing the initial balance shifts the current
// balance by the same amount.
func (s *AccountService) Update(ctx context.Context, slug string, req *models.UpdateAccountRequest) (*models.Account, error) {
	a, err := s.Repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if t := strings.TrimSpace(req.Title); t != "" {
		a.Title = t
	}
	a.Description = strings.TrimSpace(req.Description)
	a.Currency = firstNonEmpty(req.Currency, a.Currency)
	a.CurrencySymbol = firstNonEmpty(req.CurrencySymbol, a.CurrencySymbol)

	delta := decimal.Zero
	if req.InitialBalance != nil {
		delta = req.InitialBalance.Round(2).Sub(a.InitialBalance)
	}
	if err := s.Repo.Update(ctx, a, delta); err != nil {
		return nil, err
	}
	cache.InvalidateAccounts(ctx)
	return a, nil
}

func (s *AccountService) ToggleActive(ctx context.Context, slug string) (*models.Account, error) {
	a, err := s.Repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetActive(ctx, a.ID, !a.IsActive); err != nil {
		return nil, err
	}
	a.IsActive = !a.IsActive
	cache.InvalidateAccounts(ctx)
	return a, nil
}

// Recalculate rebuilds the stored balance from the transaction log.
func (s *AccountService) Recalculate(ctx context.Context, slug string) (*models.BalanceCheck, error) {
	a, err := s.Repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	check, err := s.Repo.RecalculateBalance(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if !check.Drift.IsZero() {
		s.log.Warn("account balance drift corrected",
			zap.String("slug", check.Slug),
			zap.String("stored", check.StoredBalance.StringFixed(2)),
			zap.String("computed", check.ComputedBalance.StringFixed(2)))
	}
	cache.InvalidateAccounts(ctx)
	return check, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
