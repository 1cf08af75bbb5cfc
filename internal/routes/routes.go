package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perkpoint/loyalty-backend/internal/handlers"
	"github.com/perkpoint/loyalty-backend/internal/middleware"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
)

// Deps bundles everything the routes need. Built once in main and
// passed down; no package-level singletons.
type Deps struct {
	Store       storage.Store
	Tokens      *services.TokenService
	Auth        *services.AuthService
	Access      *services.AccessService
	Cashback    *services.CashbackService
	InternalKey string
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Auth)
	accountHandler := handlers.NewAccountHandler(deps.Store)
	companyHandler := handlers.NewCompanyHandler(deps.Store, deps.Access)
	outletHandler := handlers.NewOutletHandler(deps.Store, deps.Access)
	employeeHandler := handlers.NewEmployeeHandler(deps.Store, deps.Access)
	tariffHandler := handlers.NewTariffHandler(deps.Store)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.Store, deps.Access)
	promotionHandler := handlers.NewPromotionHandler(deps.Store, deps.Access)
	cashbackHandler := handlers.NewCashbackHandler(deps.Store, deps.Access)
	transactionHandler := handlers.NewTransactionHandler(deps.Store, deps.Access, deps.Cashback)
	internalHandler := handlers.NewInternalHandler(deps.Store, deps.Auth)

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/otp/request", authHandler.RequestOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)

	// Everything below needs a valid access token
	authed := api.Use(middleware.RequireAuth(deps.Tokens))

	// Own account
	account := authed.Group("/account")
	account.Get("/", accountHandler.Me)
	account.Put("/", accountHandler.Update)
	account.Delete("/", accountHandler.Delete)

	// Tariff plans
	tariffs := authed.Group("/tariffs")
	tariffs.Post("/", tariffHandler.Create)
	tariffs.Get("/", tariffHandler.List)
	tariffs.Get("/:id", tariffHandler.Get)
	tariffs.Put("/:id", tariffHandler.Update)
	tariffs.Delete("/:id", tariffHandler.Delete)

	// Companies
	companies := authed.Group("/companies")
	companies.Post("/", companyHandler.Create)
	companies.Get("/", companyHandler.ListMine)
	companies.Get("/:id", companyHandler.Get)
	companies.Put("/:id", companyHandler.Update)
	companies.Delete("/:id", companyHandler.Delete)
	companies.Get("/:id/dashboard", companyHandler.Dashboard)

	// Outlets
	companies.Post("/:id/outlets", outletHandler.Create)
	companies.Get("/:id/outlets", outletHandler.List)
	companies.Put("/:id/outlets/:outletId", outletHandler.Update)
	companies.Delete("/:id/outlets/:outletId", outletHandler.Delete)

	// Employees
	companies.Post("/:id/employees", employeeHandler.Add)
	companies.Get("/:id/employees", employeeHandler.List)
	companies.Delete("/:id/employees/:employeeId", employeeHandler.Remove)

	// Subscriptions
	companies.Post("/:id/subscriptions", subscriptionHandler.Subscribe)
	companies.Get("/:id/subscriptions", subscriptionHandler.History)
	companies.Get("/:id/subscription", subscriptionHandler.Current)

	// Promotions
	companies.Post("/:id/promotions", promotionHandler.Create)
	companies.Get("/:id/promotions", promotionHandler.List)
	companies.Put("/:id/promotions/:promoId", promotionHandler.Update)
	companies.Delete("/:id/promotions/:promoId", promotionHandler.Delete)

	// Cashback configuration
	companies.Put("/:id/cashback", cashbackHandler.Upsert)
	companies.Get("/:id/cashback", cashbackHandler.Get)

	// Transactions
	companies.Post("/:id/transactions/earn", middleware.RequireScope("employee"), transactionHandler.Earn)
	companies.Post("/:id/transactions/spend/request", middleware.RequireScope("employee"), transactionHandler.RequestSpend)
	companies.Post("/:id/transactions/spend/confirm", middleware.RequireScope("employee"), transactionHandler.ConfirmSpend)
	companies.Get("/:id/transactions", transactionHandler.ListCompany)
	companies.Get("/:id/balance", middleware.RequireScope("customer"), transactionHandler.MyBalance)

	// ========== INTERNAL ROUTES (bot gateways) ==========
	internal := app.Group("/internal", middleware.RequireInternalKey(deps.InternalKey))
	internal.Post("/customers/onboard", internalHandler.OnboardCustomer)
	internal.Get("/customers/by-telegram/:tid", internalHandler.FindByTelegramID)
}
