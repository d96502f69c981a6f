package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/models"
)

var (
	owner = &models.Session{UserID: 7, Username: "dispatcher", Role: models.RoleUser}
	other = &models.Session{UserID: 8, Username: "someone else", Role: models.RoleUser}
	admin = &models.Session{UserID: 1, Username: "admin", Role: models.RoleAdmin}
)

type fleetFixture struct {
	store   *memFleet
	svc     *FleetService
	truck   *models.Truck
	driver  *models.Driver
	carrier *models.Carrier
}

func newFleetFixture(t *testing.T) *fleetFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemFleet()
	svc := NewFleetService(store, testLog)

	truck, err := svc.CreateTruck(ctx, owner, &models.TruckRequest{Name: "DXB-T-4411", Model: "Actros"})
	require.NoError(t, err)
	driver, err := svc.CreateDriver(ctx, owner, &models.DriverRequest{Name: "Imran", Phone: "+971500000000"})
	require.NoError(t, err)
	carrier, err := svc.CreateCarrier(ctx, owner, &models.CarrierRequest{
		Name:     "Trip to Riyadh",
		TripDate: "2024-05-01",
		TruckID:  &truck.ID,
		DriverID: &driver.ID,
		Cars: []models.Car{
			{Make: "Toyota", Model: "Camry", Amount: dec("1500")},
			{Make: "Nissan", Model: "Patrol", Amount: dec("2000.005")},
		},
	})
	require.NoError(t, err)
	return &fleetFixture{store: store, svc: svc, truck: truck, driver: driver, carrier: carrier}
}

func (f *fleetFixture) carrierOwner() models.ExpenseOwner {
	return models.ExpenseOwner{Kind: models.OwnerCarrier, ID: f.carrier.ID}
}

func (f *fleetFixture) truckOwner() models.ExpenseOwner {
	return models.ExpenseOwner{Kind: models.OwnerTruck, ID: f.truck.ID}
}

func (f *fleetFixture) driverOwner() models.ExpenseOwner {
	return models.ExpenseOwner{Kind: models.OwnerDriver, ID: f.driver.ID}
}

func (f *fleetFixture) totalExpense() decimal.Decimal {
	return f.store.carriers[f.carrier.ID].TotalExpense
}

func fuel(liters, price string) *models.ExpenseRequest {
	return &models.ExpenseRequest{
		Category:      models.ExpenseFuel,
		Liters:        nullDec(liters),
		PricePerLiter: nullDec(price),
		Details:       "ENOC Al Quoz",
		ExpenseDate:   "2024-05-02",
	}
}

func TestCarrierTotalsCars(t *testing.T) {
	f := newFleetFixture(t)
	assert.True(t, f.carrier.TotalAmount.Equal(dec("3500.01")), f.carrier.TotalAmount.String())
	assert.True(t, f.totalExpense().IsZero())
}

func TestFuelExpenseMirroredOntoTruck(t *testing.T) {
	f := newFleetFixture(t)
	e, err := f.svc.CreateExpense(context.Background(), owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(dec("1000")))

	mirrors := f.store.mirrorsOn(f.truckOwner())
	require.Len(t, mirrors, 1)
	m := mirrors[0]
	assert.True(t, m.Amount.Equal(dec("1000")))
	require.NotNil(t, m.SyncedFromExpense)
	assert.Equal(t, e.ID, *m.SyncedFromExpense)
	assert.Equal(t, models.ExpenseFuel, m.Category)
	assert.True(t, m.Liters.Decimal.Equal(dec("50")))

	assert.Empty(t, f.store.mirrorsOn(f.driverOwner()))
	assert.True(t, f.totalExpense().Equal(dec("1000")))
}

func TestChangingFuelCategoryRemovesMirror(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	e, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateExpense(ctx, owner, f.carrierOwner(), e.ID, &models.ExpenseRequest{
		Category:      models.ExpenseOthers,
		Amount:        dec("1000"),
		Liters:        nullDec("50"),
		PricePerLiter: nullDec("20"),
		ExpenseDate:   "2024-05-02",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ExpenseOthers, updated.Category)
	assert.False(t, updated.Liters.Valid)
	assert.False(t, updated.PricePerLiter.Valid)
	assert.Empty(t, f.store.mirrorsOn(f.truckOwner()))
	assert.True(t, f.totalExpense().Equal(dec("1000")))
}

func TestEditingFuelUpdatesMirror(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	e, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)
	before := f.store.mirrorsOn(f.truckOwner())[0]

	_, err = f.svc.UpdateExpense(ctx, owner, f.carrierOwner(), e.ID, fuel("60", "2.5"))
	require.NoError(t, err)

	mirrors := f.store.mirrorsOn(f.truckOwner())
	require.Len(t, mirrors, 1)
	assert.Equal(t, before.ID, mirrors[0].ID)
	assert.True(t, mirrors[0].Amount.Equal(dec("150")))
	assert.True(t, f.totalExpense().Equal(dec("150")))
}

func TestDriverRentMirroredOntoDriver(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), &models.ExpenseRequest{
		Category: models.ExpenseDriverRent, Amount: dec("350"), ExpenseDate: "2024-05-03",
	})
	require.NoError(t, err)
	_, err = f.svc.CreateExpense(ctx, owner, f.carrierOwner(), &models.ExpenseRequest{
		Category: models.ExpenseTyre, Amount: dec("120"), ExpenseDate: "2024-05-03",
	})
	require.NoError(t, err)

	assert.Len(t, f.store.mirrorsOn(f.driverOwner()), 1)
	assert.Empty(t, f.store.mirrorsOn(f.truckOwner()))
	assert.True(t, f.totalExpense().Equal(dec("470")))
}

func TestMirrorsAreReadOnly(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("10", "3"))
	require.NoError(t, err)
	mirror := f.store.mirrorsOn(f.truckOwner())[0]

	_, err = f.svc.UpdateExpense(ctx, owner, f.truckOwner(), mirror.ID, fuel("1", "1"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = f.svc.DeleteExpense(ctx, owner, f.truckOwner(), mirror.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Len(t, f.store.mirrorsOn(f.truckOwner()), 1)
}

func TestExpensePathMustMatchOwner(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	e, err := f.svc.CreateExpense(ctx, owner, f.truckOwner(), &models.ExpenseRequest{
		Category: models.ExpenseMaintenance, Amount: dec("80"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateExpense(ctx, owner, f.carrierOwner(), e.ID, &models.ExpenseRequest{
		Category: models.ExpenseMaintenance, Amount: dec("90"),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteOriginRemovesMirror(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	e, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExpense(ctx, owner, f.carrierOwner(), e.ID))
	assert.Empty(t, f.store.expenses)
	assert.True(t, f.totalExpense().IsZero())
}

func TestRelinkingTruckMovesMirrors(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)

	spare, err := f.svc.CreateTruck(ctx, owner, &models.TruckRequest{Name: "DXB-T-9000"})
	require.NoError(t, err)

	req := &models.CarrierRequest{
		Name:     f.carrier.Name,
		TripDate: "2024-05-01",
		TruckID:  &spare.ID,
		DriverID: &f.driver.ID,
		Cars:     f.carrier.Cars,
	}
	_, err = f.svc.UpdateCarrier(ctx, owner, f.carrier.ID, req)
	require.NoError(t, err)
	assert.Empty(t, f.store.mirrorsOn(f.truckOwner()))
	assert.Len(t, f.store.mirrorsOn(models.ExpenseOwner{Kind: models.OwnerTruck, ID: spare.ID}), 1)

	req.TruckID = nil
	_, err = f.svc.UpdateCarrier(ctx, owner, f.carrier.ID, req)
	require.NoError(t, err)
	assert.Empty(t, f.store.mirrorsOn(models.ExpenseOwner{Kind: models.OwnerTruck, ID: spare.ID}))
	assert.True(t, f.totalExpense().Equal(dec("1000")))
}

func TestCarrierLinksMustShareOwner(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	foreign, err := f.svc.CreateTruck(ctx, other, &models.TruckRequest{Name: "AUH-1"})
	require.NoError(t, err)

	_, err = f.svc.CreateCarrier(ctx, owner, &models.CarrierRequest{Name: "Bad link", TruckID: &foreign.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missing := 999
	_, err = f.svc.CreateCarrier(ctx, owner, &models.CarrierRequest{Name: "Missing", DriverID: &missing})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFailedSyncRollsBackExpense(t *testing.T) {
	f := newFleetFixture(t)
	f.store.failMirrorInsert = true

	_, err := f.svc.CreateExpense(context.Background(), owner, f.carrierOwner(), fuel("50", "20"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
	assert.Empty(t, f.store.expenses)
	assert.True(t, f.totalExpense().IsZero())
}

func TestFleetAccessIsOwnerScoped(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateExpense(ctx, other, f.carrierOwner(), fuel("1", "1"))
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	_, err = f.svc.GetCarrier(ctx, other, f.carrier.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	_, err = f.svc.GetTruck(ctx, nil, f.truck.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = f.svc.CreateExpense(ctx, admin, f.carrierOwner(), fuel("1", "1"))
	assert.NoError(t, err)

	mine, err := f.svc.ListCarriers(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := f.svc.ListCarriers(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
	all, err := f.svc.ListTrucks(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	anon, err := f.svc.ListDrivers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, anon)
}

func TestDeleteCarrierRemovesExpensesAndMirrors(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)
	_, err = f.svc.CreateExpense(ctx, owner, f.truckOwner(), &models.ExpenseRequest{
		Category: models.ExpenseTyre, Amount: dec("400"),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteCarrier(ctx, owner, f.carrier.ID))
	assert.NotContains(t, f.store.carriers, f.carrier.ID)

	left, err := f.svc.ListExpenses(ctx, owner, f.truckOwner())
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, models.ExpenseTyre, left[0].Category)
}

func TestDeleteTruckUnlinksCarrier(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTruck(ctx, owner, f.truck.ID))
	c, err := f.svc.GetCarrier(ctx, owner, f.carrier.ID)
	require.NoError(t, err)
	assert.Nil(t, c.TruckID)
	assert.Len(t, f.store.expenses, 1)
	assert.True(t, c.TotalExpense.Equal(dec("1000")))
}

func TestExpenseSummary(t *testing.T) {
	f := newFleetFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateExpense(ctx, owner, f.carrierOwner(), fuel("50", "20"))
	require.NoError(t, err)
	_, err = f.svc.CreateExpense(ctx, owner, f.carrierOwner(), &models.ExpenseRequest{Category: models.ExpenseTaxes, Amount: dec("75.5")})
	require.NoError(t, err)
	_, err = f.svc.CreateExpense(ctx, owner, f.carrierOwner(), &models.ExpenseRequest{Category: models.ExpenseFuel, Amount: dec("24.5")})
	require.NoError(t, err)

	sum, err := f.svc.ExpenseSummary(ctx, owner, f.carrierOwner())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.True(t, sum.Total.Equal(dec("1100")))
	assert.True(t, sum.ByCategory[models.ExpenseFuel].Equal(dec("1024.5")))
	assert.True(t, sum.ByCategory[models.ExpenseTaxes].Equal(dec("75.5")))
}

func TestExpenseFields(t *testing.T) {
	e, err := expenseFields(&models.ExpenseRequest{Category: models.ExpenseFuel, Liters: nullDec("33.3"), PricePerLiter: nullDec("2.91")})
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(dec("96.9")), e.Amount.String())

	e, err = expenseFields(&models.ExpenseRequest{Category: models.ExpenseFuel, Amount: dec("55"), Liters: nullDec("10")})
	require.NoError(t, err)
	assert.True(t, e.Amount.Equal(dec("55")))
	assert.True(t, e.Liters.Valid)

	for name, req := range map[string]*models.ExpenseRequest{
		"unknown category": {Category: "tolls", Amount: dec("5")},
		"zero amount":      {Category: models.ExpenseOthers},
		"negative liters":  {Category: models.ExpenseFuel, Amount: dec("5"), Liters: nullDec("-1")},
		"bad date":         {Category: models.ExpenseOthers, Amount: dec("5"), ExpenseDate: "2024/01/01"},
	} {
		_, err := expenseFields(req)
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
}

func TestPlanMirrors(t *testing.T) {
	truckID, driverID := 3, 4
	carrier := &models.Carrier{ID: 1, TruckID: &truckID, DriverID: &driverID}
	origin := &models.Expense{ID: 10, CarrierID: intPtr(1), Category: models.ExpenseFuel, Amount: dec("100")}
	onTruck := mirrorOf(origin, models.ExpenseOwner{Kind: models.OwnerTruck, ID: truckID})

	plan := planMirrors(origin, carrier, nil)
	require.Len(t, plan.Create, 1)
	assert.Equal(t, models.ExpenseOwner{Kind: models.OwnerTruck, ID: truckID}, plan.Create[0].Owner())

	first, second := onTruck, onTruck
	first.ID, second.ID = 20, 21
	plan = planMirrors(origin, carrier, []models.Expense{first, second})
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Update)
	assert.Equal(t, []int64{21}, plan.Delete)

	stale := first
	stale.Amount = dec("90")
	plan = planMirrors(origin, carrier, []models.Expense{stale})
	require.Len(t, plan.Update, 1)
	assert.Equal(t, int64(20), plan.Update[0].ID)
	assert.True(t, plan.Update[0].Amount.Equal(dec("100")))

	assert.True(t, planMirrors(origin, carrier, []models.Expense{first}).empty())

	plan = planMirrors(nil, carrier, []models.Expense{first})
	assert.Equal(t, []int64{20}, plan.Delete)

	onDriver := mirrorOf(origin, models.ExpenseOwner{Kind: models.OwnerDriver, ID: driverID})
	onDriver.ID = 22
	plan = planMirrors(origin, carrier, []models.Expense{onDriver})
	assert.Equal(t, []int64{22}, plan.Delete)
	assert.Len(t, plan.Create, 1)
}
