package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hobbyden/store/internal/api/handlers"
	"github.com/hobbyden/store/internal/api/middleware"
	"github.com/hobbyden/store/internal/cache"
	"github.com/hobbyden/store/internal/config"
	"github.com/hobbyden/store/internal/models"
	"github.com/hobbyden/store/internal/repository"
	"github.com/hobbyden/store/internal/service"
)

// NewRouter builds the HTTP router for the store service.
func NewRouter(conn *sql.DB, cfg config.Config, logger *zap.Logger, notifier service.Notifier) http.Handler {
	db := repository.NewDB(conn)
	itemRepo := repository.NewItemRepo(conn, cfg.AdultCategories)
	invoiceRepo := repository.NewInvoiceRepo(conn)
	userRepo := repository.NewUserRepo(conn)
	categoryRepo := repository.NewCategoryRepo(conn)

	cartSvc := service.NewCartService(db, itemRepo, invoiceRepo, userRepo, notifier, logger,
		cfg.MaxDiscount, cfg.RentPercent)
	catalogSvc := service.NewCatalogService(db, itemRepo, categoryRepo, cache.New(), cfg.AdultCategories)
	accountSvc := service.NewAccountService(db, userRepo, logger)

	cartHandler := handlers.NewCartHandler(cartSvc, logger)
	itemHandler := handlers.NewItemHandler(catalogSvc, logger)
	userHandler := handlers.NewUserHandler(accountSvc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Authenticate(userRepo, logger))

	// Catalog, readable without an account.
	r.Get("/items", itemHandler.List(""))
	r.Get("/items/{id}", itemHandler.Get)
	r.Get("/books", itemHandler.List(models.KindBook))
	r.Get("/magazines", itemHandler.List(models.KindMagazine))
	r.Get("/figures", itemHandler.List(models.KindFigure))
	r.Get("/categories", itemHandler.ListCategories)

	r.Post("/users", userHandler.Register)

	// Everything below needs an authenticated user.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Post("/books", itemHandler.Create(models.KindBook))
		r.Post("/magazines", itemHandler.Create(models.KindMagazine))
		r.Post("/figures", itemHandler.Create(models.KindFigure))
		r.Post("/categories", itemHandler.CreateCategory)

		r.Get("/users", userHandler.List)
		r.Get("/users/{id}", userHandler.Get)
		r.Patch("/users/{id}", userHandler.UpdateProfile)
		r.Delete("/users/{id}", userHandler.Delete)

		r.Get("/cart", cartHandler.GetCart)
		r.Put("/cart", cartHandler.Pay)
		r.Patch("/cart", cartHandler.Pay)
		r.Delete("/cart/{id}", cartHandler.RemoveLine)
		r.Post("/purchase", cartHandler.CreatePurchase)
		r.Post("/rent", cartHandler.CreateRent)
		r.Get("/rent/{id}", cartHandler.RentQuote)
		r.Get("/history", cartHandler.History)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
