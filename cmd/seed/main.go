package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dentalsupply/internal/config"
	"dentalsupply/internal/db"
	"dentalsupply/internal/logger"
	"dentalsupply/internal/model"
	"dentalsupply/internal/repository"
)

// CategorySeed is one main category and the subcategories filed under it.
type CategorySeed struct {
	Name          string
	Subcategories []string
}

var defaultCategories = []CategorySeed{
	{Name: "Consumables", Subcategories: []string{"Gloves", "Masks", "Cotton Rolls", "Bibs"}},
	{Name: "Instruments", Subcategories: []string{"Forceps", "Scalers", "Mirrors", "Probes"}},
	{Name: "Endodontics", Subcategories: []string{"Files", "Gutta Percha", "Paper Points"}},
	{Name: "Restorative", Subcategories: []string{"Composites", "Bonding Agents", "Matrix Bands"}},
	{Name: "Orthodontics", Subcategories: []string{"Brackets", "Archwires", "Elastics"}},
	{Name: "Preventive", Subcategories: []string{"Fluoride", "Prophy Paste", "Sealants"}},
	{Name: "Equipment", Subcategories: []string{"Handpieces", "Curing Lights", "Sterilization"}},
}

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		zlog.Fatal("run migrations", zap.Error(err))
	}

	ctx := context.Background()

	created, existing, err := seedCategories(ctx, repository.NewCategoryRepository(gormDB), defaultCategories)
	if err != nil {
		zlog.Fatal("seed categories", zap.Error(err))
	}
	zlog.Info("categories seeded", zap.Int("created", created), zap.Int("existing", existing))

	if cfg.SeedAdminPassword == "" {
		zlog.Warn("SEED_ADMIN_PASSWORD not set, skipping admin account")
		return
	}
	admin, isNew, err := seedAdmin(ctx, repository.NewUserRepository(gormDB), cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.BcryptCost)
	if err != nil {
		zlog.Fatal("seed admin", zap.Error(err))
	}
	zlog.Info("admin account ready", zap.String("email", admin.Email), zap.Bool("created", isNew))
}

// seedCategories creates missing main categories and subcategories. Running
// it again only counts what already exists.
func seedCategories(ctx context.Context, repo repository.CategoryRepository, seeds []CategorySeed) (created int, existing int, err error) {
	for _, seed := range seeds {
		parent, err := repo.FindMainByName(ctx, seed.Name)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			parent = &model.Category{Name: seed.Name}
			if err := repo.Create(ctx, parent); err != nil {
				return created, existing, fmt.Errorf("create category %q: %w", seed.Name, err)
			}
			created++
		case err != nil:
			return created, existing, fmt.Errorf("find category %q: %w", seed.Name, err)
		default:
			existing++
		}

		children, err := repo.ListByParent(ctx, parent.ID)
		if err != nil {
			return created, existing, fmt.Errorf("list subcategories of %q: %w", seed.Name, err)
		}
		have := make(map[string]bool, len(children))
		for _, c := range children {
			have[strings.ToLower(c.Name)] = true
		}

		for _, name := range seed.Subcategories {
			if have[strings.ToLower(name)] {
				existing++
				continue
			}
			sub := &model.Category{Name: name, ParentID: &parent.ID}
			if err := repo.Create(ctx, sub); err != nil {
				return created, existing, fmt.Errorf("create subcategory %q: %w", name, err)
			}
			created++
		}
	}
	return created, existing, nil
}

// seedAdmin makes sure an admin account exists for email. An existing
// account is promoted but keeps its password.
func seedAdmin(ctx context.Context, repo repository.UserRepository, email, password string, cost int) (*model.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := repo.FindByEmail(ctx, email)
	if err == nil {
		if user.IsAdmin && user.IsVerified {
			return user, false, nil
		}
		user.IsAdmin = true
		user.IsVerified = true
		if err := repo.Update(ctx, user); err != nil {
			return nil, false, fmt.Errorf("promote %s: %w", email, err)
		}
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find %s: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	user = &model.User{
		Name:         "Store Admin",
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
		IsVerified:   true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", email, err)
	}
	return user, true, nil
}
