package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
)

var testLog = zap.NewNop()

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func intPtr(v int) *int { return &v }

// memLedger keeps accounts and transactions in memory. Create moves the
// balance and appends under one lock, like the repository's transaction.
type memLedger struct {
	mu       sync.Mutex
	accounts map[int]*models.Account
	txns     []models.Transaction
	nextID   int64
	clock    time.Time
}

var (
	_ AccountStore     = accountStore{}
	_ TransactionStore = (*memLedger)(nil)
)

func newMemLedger() *memLedger {
	return &memLedger{
		accounts: map[int]*models.Account{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// accountStore is the AccountStore view; memLedger itself is the TransactionStore.
type accountStore struct{ *memLedger }

func (m *memLedger) Create(ctx context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[t.AccountID]
	if !ok {
		return apperr.NotFound("account %d not found", t.AccountID)
	}
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	t.ID = m.nextID
	t.AccountSlug = a.Slug
	t.CreatedAt = m.clock
	a.CurrentBalance = a.CurrentBalance.Add(t.Net())
	m.txns = append(m.txns, *t)
	return nil
}

func (m *memLedger) List(ctx context.Context, accountID int, rng repositories.TransactionRange) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Transaction{}
	for _, t := range m.txns {
		if t.AccountID != accountID {
			continue
		}
		if rng.Before != nil && !t.TransactionDate.Before(*rng.Before) {
			continue
		}
		if rng.From != nil && t.TransactionDate.Before(*rng.From) {
			continue
		}
		if rng.To != nil && t.TransactionDate.After(*rng.To) {
			continue
		}
		out = append(out, t)
	}
	SortLedger(out)
	return out, nil
}

func (s accountStore) Create(ctx context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Slug == a.Slug {
			return apperr.Conflict("account %q already exists", a.Slug)
		}
	}
	a.ID = len(s.accounts) + 1
	a.CurrentBalance = a.InitialBalance
	a.IsActive = true
	stored := *a
	s.accounts[a.ID] = &stored
	return nil
}

func (s accountStore) GetByID(ctx context.Context, id int) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account %d not found", id)
	}
	cp := *a
	return &cp, nil
}

func (s accountStore) GetBySlug(ctx context.Context, slug string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("account %q not found", slug)
}

func (s accountStore) List(ctx context.Context) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Account{}
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s accountStore) Update(ctx context.Context, a *models.Account, initialDelta decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[a.ID]
	if !ok {
		return apperr.NotFound("account %d not found", a.ID)
	}
	stored.Title = a.Title
	stored.Description = a.Description
	stored.Currency = a.Currency
	stored.CurrencySymbol = a.CurrencySymbol
	stored.InitialBalance = stored.InitialBalance.Add(initialDelta)
	stored.CurrentBalance = stored.CurrentBalance.Add(initialDelta)
	a.InitialBalance = stored.InitialBalance
	a.CurrentBalance = stored.CurrentBalance
	return nil
}

func (s accountStore) SetActive(ctx context.Context, id int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return apperr.NotFound("account %d not found", id)
	}
	a.IsActive = active
	return nil
}

func (s accountStore) RecalculateBalance(ctx context.Context, id int) (*models.BalanceCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("account %d not found", id)
	}
	computed := a.InitialBalance
	count := 0
	for _, t := range s.txns {
		if t.AccountID == id {
			computed = computed.Add(t.Net())
			count++
		}
	}
	check := &models.BalanceCheck{
		AccountID:        id,
		Slug:             a.Slug,
		StoredBalance:    a.CurrentBalance,
		ComputedBalance:  computed,
		Drift:            a.CurrentBalance.Sub(computed),
		TransactionCount: count,
	}
	a.CurrentBalance = computed
	return check, nil
}

// memInvoices backs invoices, receipts, companies and credit balances.
// ApplyPayment works on a copy and commits only when every step succeeds.
type memInvoices struct {
	mu        sync.Mutex
	invoices  map[int]*models.Invoice
	receipts  []models.Receipt
	companies map[string]models.Company
	credit    map[string]decimal.Decimal
	invoiceNo int
	receiptNo int
}

var (
	_ InvoiceStore     = (*memInvoices)(nil)
	_ ReceiptStore     = receiptStore{}
	_ CompanyDirectory = (*memInvoices)(nil)
	_ DocumentArchive  = (*memArchive)(nil)
)

func newMemInvoices() *memInvoices {
	return &memInvoices{
		invoices:  map[int]*models.Invoice{},
		companies: map[string]models.Company{},
		credit:    map[string]decimal.Decimal{},
	}
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	cp := *inv
	cp.Items = append([]models.InvoiceItem{}, inv.Items...)
	cp.Payments = append([]models.Payment{}, inv.Payments...)
	return &cp
}

func (m *memInvoices) Create(ctx context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoiceNo++
	inv.ID = m.invoiceNo
	inv.InvoiceNumber = fmt.Sprintf("INV-%06d", m.invoiceNo)
	m.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (m *memInvoices) Get(ctx context.Context, id int) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, apperr.NotFound("invoice %d not found", id)
	}
	return cloneInvoice(inv), nil
}

func (m *memInvoices) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Invoice{}
	for _, inv := range m.invoices {
		if filter.Client != "" && !strings.Contains(strings.ToLower(inv.ClientCompanyName), strings.ToLower(filter.Client)) {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, *cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memInvoices) Update(ctx context.Context, id int, apply func(current *models.Invoice) error) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[id]
	if !ok {
		return nil, apperr.NotFound("invoice %d not found", id)
	}
	working := cloneInvoice(stored)
	if err := apply(working); err != nil {
		return nil, err
	}
	m.invoices[id] = cloneInvoice(working)
	return working, nil
}

func (m *memInvoices) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return apperr.NotFound("invoice %d not found", id)
	}
	if len(inv.Payments) > 0 {
		return apperr.Validation("invoice %s has recorded payments and cannot be deleted", inv.InvoiceNumber)
	}
	delete(m.invoices, id)
	return nil
}

func (m *memInvoices) ApplyPayment(ctx context.Context, invoiceID int, decide repositories.PaymentFunc) (*models.Invoice, *models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[invoiceID]
	if !ok {
		return nil, nil, apperr.NotFound("invoice %d not found", invoiceID)
	}
	working := cloneInvoice(stored)
	before := len(working.Payments)
	rec, err := decide(working)
	if err != nil {
		return nil, nil, err
	}
	if len(working.Payments) != before+1 {
		return nil, nil, fmt.Errorf("payment decision appended %d payments", len(working.Payments)-before)
	}

	m.receiptNo++
	rec.ID = m.receiptNo
	rec.ReceiptNumber = fmt.Sprintf("RCP-%06d", m.receiptNo)
	working.Payments[len(working.Payments)-1].ReceiptNumber = rec.ReceiptNumber

	if rec.ExcessAmount.IsPositive() {
		m.credit[working.ClientCompanyName] = m.credit[working.ClientCompanyName].Add(rec.ExcessAmount)
	}
	m.invoices[invoiceID] = cloneInvoice(working)
	m.receipts = append(m.receipts, *rec)
	return working, rec, nil
}

// receiptStore and companyStore give the two List methods their own receivers.
type receiptStore struct{ *memInvoices }

func (s receiptStore) GetByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rc := range s.receipts {
		if rc.ReceiptNumber == number {
			cp := rc
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("receipt %s not found", number)
}

func (s receiptStore) List(ctx context.Context, invoiceID int) ([]models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Receipt{}
	for _, rc := range s.receipts {
		if invoiceID == 0 || rc.InvoiceID == invoiceID {
			out = append(out, rc)
		}
	}
	return out, nil
}

// GetByName is called from inside ApplyPayment's decision, so it does not
// take the lock. companies is only written during setup.
func (m *memInvoices) GetByName(ctx context.Context, name string) (*models.Company, error) {
	c, ok := m.companies[name]
	if !ok {
		return nil, apperr.NotFound("company %q not found", name)
	}
	return &c, nil
}

func (m *memInvoices) creditOf(name string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credit[name]
}

func (m *memInvoices) receiptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receipts)
}

// memArchive is a DocumentArchive over a map.
type memArchive struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (a *memArchive) Put(ctx context.Context, key, contentType string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.docs == nil {
		a.docs = map[string][]byte{}
	}
	a.docs[key] = append([]byte(nil), data...)
	return nil
}

func (a *memArchive) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.docs[key]
	if !ok {
		return nil, apperr.NotFound("object %s not found", key)
	}
	return data, nil
}

// memFleet implements FleetStore. WithinTx snapshots all tables and restores
// them when fn fails. DeleteExpenses refuses to orphan a mirror, matching the
// foreign key on synced_from_expense.
type memFleet struct {
	carriers map[int]models.Carrier
	trucks   map[int]models.Truck
	drivers  map[int]models.Driver
	expenses map[int64]models.Expense
	nextID   int
	nextExp  int64

	failMirrorInsert bool
}

var _ FleetStore = (*memFleet)(nil)

func newMemFleet() *memFleet {
	return &memFleet{
		carriers: map[int]models.Carrier{},
		trucks:   map[int]models.Truck{},
		drivers:  map[int]models.Driver{},
		expenses: map[int64]models.Expense{},
	}
}

func (m *memFleet) WithinTx(ctx context.Context, fn func(tx repositories.FleetTx) error) error {
	carriers := map[int]models.Carrier{}
	for k, v := range m.carriers {
		carriers[k] = v
	}
	trucks := map[int]models.Truck{}
	for k, v := range m.trucks {
		trucks[k] = v
	}
	drivers := map[int]models.Driver{}
	for k, v := range m.drivers {
		drivers[k] = v
	}
	expenses := map[int64]models.Expense{}
	for k, v := range m.expenses {
		expenses[k] = v
	}
	if err := fn(m); err != nil {
		m.carriers, m.trucks, m.drivers, m.expenses = carriers, trucks, drivers, expenses
		return err
	}
	return nil
}

func (m *memFleet) GetCarrier(ctx context.Context, id int) (*models.Carrier, error) {
	c, ok := m.carriers[id]
	if !ok {
		return nil, apperr.NotFound("carrier %d not found", id)
	}
	c.Cars = append([]models.Car{}, c.Cars...)
	return &c, nil
}

func (m *memFleet) ListCarriers(ctx context.Context, scope models.FleetScope) ([]models.Carrier, error) {
	out := []models.Carrier{}
	for _, c := range m.carriers {
		if scope.OwnerUserID == 0 || c.OwnerUserID == scope.OwnerUserID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memFleet) InsertCarrier(ctx context.Context, c *models.Carrier) error {
	m.nextID++
	c.ID = m.nextID
	c.IsActive = true
	c.TotalExpense = decimal.Zero
	m.carriers[c.ID] = *c
	return nil
}

func (m *memFleet) UpdateCarrier(ctx context.Context, c *models.Carrier) error {
	stored, ok := m.carriers[c.ID]
	if !ok {
		return apperr.NotFound("carrier %d not found", c.ID)
	}
	cp := *c
	cp.TotalExpense = stored.TotalExpense
	m.carriers[c.ID] = cp
	return nil
}

func (m *memFleet) SetCarrierTotalExpense(ctx context.Context, id int, total decimal.Decimal) error {
	c, ok := m.carriers[id]
	if !ok {
		return apperr.NotFound("carrier %d not found", id)
	}
	c.TotalExpense = total
	m.carriers[id] = c
	return nil
}

func (m *memFleet) DeleteCarrier(ctx context.Context, id int) error {
	if _, ok := m.carriers[id]; !ok {
		return apperr.NotFound("carrier %d not found", id)
	}
	for _, e := range m.expenses {
		if e.CarrierID != nil && *e.CarrierID == id {
			return fmt.Errorf("carrier %d still has expenses", id)
		}
	}
	delete(m.carriers, id)
	return nil
}

func (m *memFleet) GetTruck(ctx context.Context, id int) (*models.Truck, error) {
	t, ok := m.trucks[id]
	if !ok {
		return nil, apperr.NotFound("truck %d not found", id)
	}
	return &t, nil
}

func (m *memFleet) ListTrucks(ctx context.Context, scope models.FleetScope) ([]models.Truck, error) {
	out := []models.Truck{}
	for _, t := range m.trucks {
		if scope.OwnerUserID == 0 || t.OwnerUserID == scope.OwnerUserID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memFleet) InsertTruck(ctx context.Context, t *models.Truck) error {
	m.nextID++
	t.ID = m.nextID
	t.IsActive = true
	m.trucks[t.ID] = *t
	return nil
}

func (m *memFleet) UpdateTruck(ctx context.Context, t *models.Truck) error {
	if _, ok := m.trucks[t.ID]; !ok {
		return apperr.NotFound("truck %d not found", t.ID)
	}
	m.trucks[t.ID] = *t
	return nil
}

// DeleteTruck unlinks carriers, like ON DELETE SET NULL.
func (m *memFleet) DeleteTruck(ctx context.Context, id int) error {
	if _, ok := m.trucks[id]; !ok {
		return apperr.NotFound("truck %d not found", id)
	}
	for cid, c := range m.carriers {
		if c.TruckID != nil && *c.TruckID == id {
			c.TruckID = nil
			m.carriers[cid] = c
		}
	}
	delete(m.trucks, id)
	return nil
}

func (m *memFleet) GetDriver(ctx context.Context, id int) (*models.Driver, error) {
	d, ok := m.drivers[id]
	if !ok {
		return nil, apperr.NotFound("driver %d not found", id)
	}
	return &d, nil
}

func (m *memFleet) ListDrivers(ctx context.Context, scope models.FleetScope) ([]models.Driver, error) {
	out := []models.Driver{}
	for _, d := range m.drivers {
		if scope.OwnerUserID == 0 || d.OwnerUserID == scope.OwnerUserID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memFleet) InsertDriver(ctx context.Context, d *models.Driver) error {
	m.nextID++
	d.ID = m.nextID
	d.IsActive = true
	m.drivers[d.ID] = *d
	return nil
}

func (m *memFleet) UpdateDriver(ctx context.Context, d *models.Driver) error {
	if _, ok := m.drivers[d.ID]; !ok {
		return apperr.NotFound("driver %d not found", d.ID)
	}
	m.drivers[d.ID] = *d
	return nil
}

func (m *memFleet) DeleteDriver(ctx context.Context, id int) error {
	if _, ok := m.drivers[id]; !ok {
		return apperr.NotFound("driver %d not found", id)
	}
	for cid, c := range m.carriers {
		if c.DriverID != nil && *c.DriverID == id {
			c.DriverID = nil
			m.carriers[cid] = c
		}
	}
	delete(m.drivers, id)
	return nil
}

func (m *memFleet) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, apperr.NotFound("expense %d not found", id)
	}
	return &e, nil
}

func (m *memFleet) ListExpenses(ctx context.Context, owner models.ExpenseOwner) ([]models.Expense, error) {
	out := []models.Expense{}
	for _, e := range m.expenses {
		if e.BelongsTo(owner) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpenseDate.Equal(out[j].ExpenseDate) {
			return out[i].ExpenseDate.After(out[j].ExpenseDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memFleet) ListMirrorsOf(ctx context.Context, originIDs []int64) ([]models.Expense, error) {
	want := map[int64]bool{}
	for _, id := range originIDs {
		want[id] = true
	}
	out := []models.Expense{}
	for _, e := range m.expenses {
		if e.SyncedFromExpense != nil && want[*e.SyncedFromExpense] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memFleet) InsertExpense(ctx context.Context, e *models.Expense) error {
	if m.failMirrorInsert && e.SyncedFromExpense != nil {
		return apperr.Persistence(fmt.Errorf("insert failed"), "failed to save expense")
	}
	if e.SyncedFromExpense != nil {
		if _, ok := m.expenses[*e.SyncedFromExpense]; !ok {
			return fmt.Errorf("mirror references missing expense %d", *e.SyncedFromExpense)
		}
	}
	m.nextExp++
	e.ID = m.nextExp
	m.expenses[e.ID] = *e
	return nil
}

func (m *memFleet) UpdateExpense(ctx context.Context, e *models.Expense) error {
	if _, ok := m.expenses[e.ID]; !ok {
		return apperr.NotFound("expense %d not found", e.ID)
	}
	m.expenses[e.ID] = *e
	return nil
}

func (m *memFleet) DeleteExpenses(ctx context.Context, ids []int64) error {
	doomed := map[int64]bool{}
	for _, id := range ids {
		doomed[id] = true
	}
	for _, e := range m.expenses {
		if e.SyncedFromExpense != nil && doomed[*e.SyncedFromExpense] && !doomed[e.ID] {
			return fmt.Errorf("expense %d still has mirror %d", *e.SyncedFromExpense, e.ID)
		}
	}
	for id := range doomed {
		delete(m.expenses, id)
	}
	return nil
}

// mirrorsOn returns the mirrors attached to owner.
func (m *memFleet) mirrorsOn(owner models.ExpenseOwner) []models.Expense {
	out := []models.Expense{}
	for _, e := range m.expenses {
		if e.IsMirror() && e.BelongsTo(owner) {
			out = append(out, e)
		}
	}
	return out
}
