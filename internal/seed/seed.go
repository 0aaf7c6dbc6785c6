// Package seed creates the default privileges, roles, admin account and running counters.
package seed

import (
	"errors"
	"fmt"
	"strings"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Admin struct {
	Email    string
	Password string
}

// Run is idempotent: existing rows are left as they are.
func Run(db *gorm.DB, admin Admin, log *logrus.Logger) error {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}

	all, err := privilegeRepo.FindAll()
	if err != nil {
		return err
	}
	cashier, err := privilegeRepo.FindByCodes(model.CashierPrivileges)
	if err != nil {
		return err
	}
	if err := roleRepo.SeedDefaults(map[string][]model.Privilege{
		model.RoleMasterAdmin: all,
		model.RoleCashier:     cashier,
	}); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	if err := seedAdmin(userRepo, roleRepo, admin, log); err != nil {
		return err
	}
	return seedCounters(db)
}

func seedAdmin(userRepo repository.UserRepository, roleRepo repository.RoleRepository, admin Admin, log *logrus.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" {
		return nil
	}
	_, err := userRepo.FindByEmail(email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	role, err := roleRepo.FindByCode(model.RoleMasterAdmin)
	if err != nil {
		return fmt.Errorf("master role: %w", err)
	}
	user := &model.User{
		Email:    email,
		FullName: "Master Administrator",
		RoleID:   &role.ID,
		IsActive: true,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return err
	}
	if err := userRepo.Create(user, role.Privileges); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.WithField("email", email).Info("admin user created")
	return nil
}

// seedCounters starts missing counters from the current table totals.
func seedCounters(db *gorm.DB) error {
	counters := repository.NewCounterRepo(db)
	stock, sales, err := repository.NewReportRepo(db).ProductTotals()
	if err != nil {
		return err
	}
	if err := counters.Ensure(model.CounterGrandProductTotal, stock); err != nil {
		return err
	}
	return counters.Ensure(model.CounterGrandSalesTotal, sales)
}
