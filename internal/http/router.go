package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"logistics-backend/internal/handlers"
	"logistics-backend/internal/middleware"
	"logistics-backend/internal/models"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	TOTP     *handlers.TOTPHandler
	Users    *handlers.UserHandler
	Accounts *handlers.AccountHandler
	Company  *handlers.CompanyHandler
	Invoices *handlers.InvoiceHandler
	Fleet    *handlers.FleetHandler
	Expenses *handlers.ExpenseHandler
	Health   *handlers.HealthHandler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, log *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.MetricsMiddleware)

	// Health and metrics (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public API routes - Authentication
	r.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	r.HandleFunc("/auth/2fa/verify", h.Auth.VerifyTwoFactor).Methods("POST")

	staff := authMiddleware.RequireRole(models.RoleAdmin, models.RoleAccountant)
	admin := authMiddleware.RequireRole(models.RoleAdmin)
	optional := func(f http.HandlerFunc) http.Handler { return authMiddleware.OptionalAuth(f) }

	// List reads degrade to an empty list without a session, so they are
	// registered ahead of the authenticated subrouters.
	r.Handle("/api/accounts", optional(h.Accounts.ListAccounts)).Methods("GET")
	r.Handle("/api/companies", optional(h.Company.List)).Methods("GET")
	r.Handle("/api/company-balances", optional(h.Company.ListBalances)).Methods("GET")
	r.Handle("/api/invoices", optional(h.Invoices.ListInvoices)).Methods("GET")
	r.Handle("/api/receipts", optional(h.Invoices.ListReceipts)).Methods("GET")
	r.Handle("/api/carriers", optional(h.Fleet.ListCarriers)).Methods("GET")
	r.Handle("/api/trucks", optional(h.Fleet.ListTrucks)).Methods("GET")
	r.Handle("/api/drivers", optional(h.Fleet.ListDrivers)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Session and 2FA - any authenticated user
	self := api.NewRoute().Subrouter()
	self.Use(authMiddleware.Authenticate)
	self.HandleFunc("/session", h.Auth.Session).Methods("GET")
	self.HandleFunc("/2fa/setup", h.TOTP.Setup).Methods("POST")
	self.HandleFunc("/2fa/enable", h.TOTP.Enable).Methods("POST")
	self.HandleFunc("/2fa/disable", h.TOTP.Disable).Methods("POST")

	// Users - admin only
	users := api.PathPrefix("/users").Subrouter()
	users.Use(admin)
	users.HandleFunc("", h.Users.ListUsers).Methods("GET")
	users.HandleFunc("", h.Users.CreateUser).Methods("POST")
	users.HandleFunc("/{id:[0-9]+}", h.Users.UpdateUser).Methods("PUT")
	users.HandleFunc("/{id:[0-9]+}/toggle-active", h.Users.ToggleActive).Methods("PATCH")

	// Accounts and ledger - admin or accountant
	accounts := api.PathPrefix("/accounts").Subrouter()
	accounts.Use(staff)
	accounts.HandleFunc("", h.Accounts.CreateAccount).Methods("POST")
	accounts.HandleFunc("/{slug}", h.Accounts.GetAccount).Methods("GET")
	accounts.HandleFunc("/{slug}", h.Accounts.UpdateAccount).Methods("PUT")
	accounts.HandleFunc("/{slug}/toggle-active", h.Accounts.ToggleActive).Methods("PATCH")
	accounts.Handle("/{slug}/recalculate", admin(http.HandlerFunc(h.Accounts.Recalculate))).Methods("POST")
	accounts.HandleFunc("/{slug}/transactions", h.Accounts.ListTransactions).Methods("GET")
	accounts.HandleFunc("/{slug}/statement", h.Accounts.Statement).Methods("GET")
	accounts.HandleFunc("/{slug}/statement.pdf", h.Accounts.StatementPDF).Methods("GET")
	accounts.HandleFunc("/{slug}/statement.xlsx", h.Accounts.StatementXLSX).Methods("GET")

	transactions := api.PathPrefix("/transactions").Subrouter()
	transactions.Use(staff)
	transactions.HandleFunc("", h.Accounts.CreateTransaction).Methods("POST")

	// Companies and credit balances
	companies := api.PathPrefix("/companies").Subrouter()
	companies.Use(staff)
	companies.HandleFunc("", h.Company.Create).Methods("POST")
	companies.HandleFunc("/{id:[0-9]+}", h.Company.Get).Methods("GET")
	companies.HandleFunc("/{id:[0-9]+}", h.Company.Update).Methods("PUT")
	companies.HandleFunc("/{id:[0-9]+}", h.Company.Delete).Methods("DELETE")

	balances := api.PathPrefix("/company-balances").Subrouter()
	balances.Use(staff)
	balances.HandleFunc("/{name}", h.Company.GetBalance).Methods("GET")
	balances.Handle("/{name}", admin(http.HandlerFunc(h.Company.SetBalance))).Methods("PUT")

	// Invoices, payments and receipts
	invoices := api.PathPrefix("/invoices").Subrouter()
	invoices.Use(staff)
	invoices.HandleFunc("", h.Invoices.CreateInvoice).Methods("POST")
	invoices.HandleFunc("/{id:[0-9]+}", h.Invoices.GetInvoice).Methods("GET")
	invoices.HandleFunc("/{id:[0-9]+}", h.Invoices.UpdateInvoice).Methods("PUT")
	invoices.HandleFunc("/{id:[0-9]+}", h.Invoices.DeleteInvoice).Methods("DELETE")
	invoices.HandleFunc("/{id:[0-9]+}/pdf", h.Invoices.InvoicePDF).Methods("GET")
	invoices.HandleFunc("/{id:[0-9]+}/payments", h.Invoices.ApplyPayment).Methods("POST")

	receipts := api.PathPrefix("/receipts").Subrouter()
	receipts.Use(staff)
	receipts.HandleFunc("/{number}", h.Invoices.GetReceipt).Methods("GET")
	receipts.HandleFunc("/{number}/pdf", h.Invoices.ReceiptPDF).Methods("GET")

	// Fleet - any authenticated user, owner-scoped in the service
	carriers := api.PathPrefix("/carriers").Subrouter()
	carriers.Use(authMiddleware.Authenticate)
	carriers.HandleFunc("", h.Fleet.CreateCarrier).Methods("POST")
	carriers.HandleFunc("/{id:[0-9]+}", h.Fleet.GetCarrier).Methods("GET")
	carriers.HandleFunc("/{id:[0-9]+}", h.Fleet.UpdateCarrier).Methods("PUT")
	carriers.HandleFunc("/{id:[0-9]+}", h.Fleet.DeleteCarrier).Methods("DELETE")
	carriers.HandleFunc("/{id:[0-9]+}/toggle-active", h.Fleet.ToggleCarrier).Methods("PATCH")
	carriers.HandleFunc("/{id:[0-9]+}/expenses.xlsx", h.Expenses.Export(models.OwnerCarrier)).Methods("GET")
	registerExpenses(carriers, h.Expenses, models.OwnerCarrier)

	trucks := api.PathPrefix("/trucks").Subrouter()
	trucks.Use(authMiddleware.Authenticate)
	trucks.HandleFunc("", h.Fleet.CreateTruck).Methods("POST")
	trucks.HandleFunc("/{id:[0-9]+}", h.Fleet.GetTruck).Methods("GET")
	trucks.HandleFunc("/{id:[0-9]+}", h.Fleet.UpdateTruck).Methods("PUT")
	trucks.HandleFunc("/{id:[0-9]+}", h.Fleet.DeleteTruck).Methods("DELETE")
	trucks.HandleFunc("/{id:[0-9]+}/toggle-active", h.Fleet.ToggleTruck).Methods("PATCH")
	registerExpenses(trucks, h.Expenses, models.OwnerTruck)

	drivers := api.PathPrefix("/drivers").Subrouter()
	drivers.Use(authMiddleware.Authenticate)
	drivers.HandleFunc("", h.Fleet.CreateDriver).Methods("POST")
	drivers.HandleFunc("/{id:[0-9]+}", h.Fleet.GetDriver).Methods("GET")
	drivers.HandleFunc("/{id:[0-9]+}", h.Fleet.UpdateDriver).Methods("PUT")
	drivers.HandleFunc("/{id:[0-9]+}", h.Fleet.DeleteDriver).Methods("DELETE")
	drivers.HandleFunc("/{id:[0-9]+}/toggle-active", h.Fleet.ToggleDriver).Methods("PATCH")
	registerExpenses(drivers, h.Expenses, models.OwnerDriver)

	return r
}

func registerExpenses(r *mux.Router, h *handlers.ExpenseHandler, kind models.OwnerKind) {
	r.HandleFunc("/{id:[0-9]+}/expenses", h.List(kind)).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}/expenses", h.Create(kind)).Methods("POST")
	r.HandleFunc("/{id:[0-9]+}/expenses/summary", h.Summary(kind)).Methods("GET")
	r.HandleFunc("/{id:[0-9]+}/expenses/{expenseId:[0-9]+}", h.Update(kind)).Methods("PUT")
	r.HandleFunc("/{id:[0-9]+}/expenses/{expenseId:[0-9]+}", h.Delete(kind)).Methods("DELETE")
}
