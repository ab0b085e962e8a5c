package configs

import (
	"errors"

	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/services"

	"go.uber.org/zap"
)

// SeedAdmin creates the first admin account from ADMIN_USERNAME / ADMIN_PASSWORD.
func SeedAdmin(cfg *Config, riders *services.RiderService, log *zap.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Warn("skip seeding admin: missing ADMIN_USERNAME/ADMIN_PASSWORD")
		return nil
	}

	if _, _, err := riders.Login(cfg.AdminUsername, cfg.AdminPassword); err == nil {
		log.Info("admin already exists", zap.String("username", cfg.AdminUsername))
		return nil
	} else if !errors.Is(err, services.ErrInvalidCredentials) {
		return err
	}

	_, err := riders.Register(services.RiderInput{
		Name:         "Administrador",
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
		VehiclePlate: "ADMIN",
		Role:         entity.RoleAdmin,
	})
	if errors.Is(err, services.ErrValidation) {
		// username taken by a rider with another password
		log.Info("admin username already registered", zap.String("username", cfg.AdminUsername))
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("admin seeded", zap.String("username", cfg.AdminUsername))
	return nil
}
