package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-pos-backoffice/internal/cache"
	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/receipt"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/seed"
	"go-pos-backoffice/internal/server"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/database"
	"go-pos-backoffice/pkg/jwt"
	"go-pos-backoffice/pkg/logger"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database.GetDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("Database unavailable")
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			log.WithError(err).Fatal("Auto migrate failed")
		}
	}

	// 3. Seed default privileges, roles, admin user and counters
	if err := seed.Run(db, seed.Admin{Email: cfg.Auth.AdminEmail, Password: cfg.Auth.AdminPassword}, log); err != nil {
		log.WithError(err).Fatal("Seed failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Optional Redis snapshot cache
	var snapshots *cache.Cache
	if cfg.Redis.Address != "" {
		snapshots, err = cache.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Dashboard.CacheTTL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, dashboard cache disabled")
			snapshots = nil
		} else {
			defer snapshots.Close()
		}
	}

	// 5. Setup WebSocket Hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// 6. Dependency Injection (Wiring Layers)
	saleRepo := repository.NewSaleRepo(db)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	reportRepo := repository.NewReportRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	loc := cfg.App.Location
	app := server.New(server.Deps{
		Location:     loc,
		SecureCookie: cfg.App.Environment == "production",
		AccessLog:    true,
		Log:          log,
		Auth:         service.NewAuthService(userRepo, jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)),
		Users:        service.NewUserService(userRepo, roleRepo),
		Sales:        service.NewSaleService(db, saleRepo, productRepo, customerRepo, counterRepo, snapshots, hub, log),
		Dashboard:    service.NewDashboardService(reportRepo, productRepo, categoryRepo, counterRepo, snapshots, loc, log),
		Catalog:      service.NewCatalogService(db, categoryRepo, productRepo, counterRepo, snapshots, log),
		Customers:    service.NewCustomerService(customerRepo, cfg.App.DefaultPhoneRegion),
		Receipts: receipt.NewRenderer(
			receipt.Shop{Name: cfg.Receipt.ShopName, Address: cfg.Receipt.ShopAddress},
			receipt.DefaultStyle,
			loc,
		),
		Hub: hub,
	})

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.WithError(err).Error("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	log.Info("Server exited")
}
