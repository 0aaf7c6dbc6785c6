package main

import (
	"flag"
	"fmt"
	"os"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/service"
	"go-pos-backoffice/pkg/database"
	"go-pos-backoffice/pkg/jwt"
	"go-pos-backoffice/pkg/logger"
)

func main() {
	email := flag.String("email", "admin@example.com", "email of the account to reset")
	password := flag.String("password", "", "new password (at least 6 characters)")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: reset-password -email user@example.com -password NEWPASS")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.ConnectDB(cfg.Database.GetDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("Database unavailable")
	}
	defer database.Close(db)

	auth := service.NewAuthService(repository.NewUserRepo(db), jwt.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL))
	if err := auth.ResetPassword(*email, *password); err != nil {
		log.WithError(err).WithField("email", *email).Fatal("Password reset failed")
	}
	log.WithField("email", *email).Info("Password reset; existing sessions were signed out")
}
