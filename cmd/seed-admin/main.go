// Command seed-admin creates the initial administrator account if it does
// not exist yet.
package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/config"
	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
	authsvc "github.com/mamadbah2/newsletter/internal/service/auth"
	"github.com/mamadbah2/newsletter/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(cfg.Log.Level)).Named("seed-admin")
	defer func() { _ = log.Sync() }()

	if cfg.Auth.AdminPassword == "" {
		log.Fatal("ADMIN_PASSWORD must be provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log)
	if err != nil {
		log.Fatal("failed to init mongodb client", zap.Error(err))
	}
	defer func() { _ = client.Close(context.Background()) }()

	users := mongodb.NewUserRepository(client.Database())
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to ensure user indexes", zap.Error(err))
	}

	if existing, err := users.FindByEmail(ctx, cfg.Auth.AdminEmail); err == nil {
		log.Info("admin user already exists", zap.String("user_id", existing.ID.Hex()))
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		log.Fatal("failed to look up admin user", zap.Error(err))
	}

	admin, err := authsvc.NewUser(cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, models.RoleAdmin)
	if err != nil {
		log.Fatal("invalid admin credentials", zap.Error(err))
	}

	if err := users.Insert(ctx, admin); err != nil {
		if errors.Is(err, models.ErrConflict) {
			log.Info("admin user already exists")
			return
		}
		log.Fatal("failed to create admin user", zap.Error(err))
	}

	log.Info("admin user created", zap.String("user_id", admin.ID.Hex()), zap.String("email", admin.Email))
}
