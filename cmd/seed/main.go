// Command seed loads bootstrap fixtures into the database: the system
// tenant, its default permission groups and an initial superadmin. The
// command is idempotent and safe to rerun.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/planforge/api/internal/config"
	"github.com/planforge/api/internal/infra/postgres"
	"github.com/planforge/api/internal/infra/postgres/migrations"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/logger"
	migrate "github.com/planforge/api/pkg/migrations"
	"github.com/planforge/api/pkg/password"
)

// Fixtures is the YAML shape of a seed file.
type Fixtures struct {
	Tenants []TenantFixture `yaml:"tenants"`
	Users   []UserFixture   `yaml:"users"`
}

// TenantFixture seeds one tenant plus its default permission groups.
type TenantFixture struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// UserFixture seeds one user profile.
type UserFixture struct {
	Email      string `yaml:"email"`
	Name       string `yaml:"name"`
	Password   string `yaml:"password"`
	Role       string `yaml:"role"`
	TenantCode string `yaml:"tenant_code"`
}

func defaultFixtures() Fixtures {
	return Fixtures{
		Tenants: []TenantFixture{
			{Name: "System", Code: tenant.SystemTenantCode},
		},
		Users: []UserFixture{
			{
				Email:      os.Getenv("SEED_SUPERADMIN_EMAIL"),
				Name:       "Bootstrap Superadmin",
				Password:   os.Getenv("SEED_SUPERADMIN_PASSWORD"),
				Role:       string(role.RoleSuperadmin),
				TenantCode: tenant.SystemTenantCode,
			},
		},
	}
}

func main() {
	file := flag.String("file", "", "YAML fixture file (default: system tenant + superadmin from SEED_SUPERADMIN_EMAIL/PASSWORD)")
	flag.Parse()

	if err := run(*file); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(file string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "text", Output: os.Stdout})

	fixtures := defaultFixtures()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read fixture file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fixtures); err != nil {
			return fmt.Errorf("parse fixture file: %w", err)
		}
	}

	ctx := context.Background()

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if _, err := migrate.NewRunner(db.DB).Run(ctx, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	tenants := postgres.NewTenantRepository(db)
	groups := postgres.NewPermissionGroupRepository(db)
	users := postgres.NewUserRepository(db)
	hasher := password.New(password.WithCost(cfg.Auth.BcryptCost))

	tenantsByCode := make(map[string]shared.ID)
	for _, tf := range fixtures.Tenants {
		id, err := seedTenant(ctx, tenants, groups, tf, log)
		if err != nil {
			return err
		}
		tenantsByCode[tf.Code] = id
	}

	for _, uf := range fixtures.Users {
		if uf.Email == "" {
			log.Warn("skipping user fixture without email", "name", uf.Name)
			continue
		}
		if err := seedUser(ctx, users, tenants, hasher, tenantsByCode, uf, log); err != nil {
			return err
		}
	}

	log.Info("seed complete")
	return nil
}

func seedTenant(
	ctx context.Context,
	tenants tenant.Repository,
	groups permissiongroup.Repository,
	tf TenantFixture,
	log *logger.Logger,
) (shared.ID, error) {
	existing, err := tenants.GetByCode(ctx, tf.Code)
	if err == nil {
		log.Info("tenant exists", "code", tf.Code)
		return existing.ID(), seedGroups(ctx, groups, existing.ID(), log)
	}
	if !errors.Is(err, tenant.ErrTenantNotFound) {
		return shared.ID{}, fmt.Errorf("look up tenant %q: %w", tf.Code, err)
	}

	t, err := tenant.NewTenant(tf.Name, tf.Code, shared.NewID())
	if err != nil {
		return shared.ID{}, fmt.Errorf("build tenant %q: %w", tf.Code, err)
	}
	if err := tenants.Create(ctx, t); err != nil {
		return shared.ID{}, fmt.Errorf("create tenant %q: %w", tf.Code, err)
	}
	log.Info("tenant created", "code", tf.Code, "name", tf.Name)
	return t.ID(), seedGroups(ctx, groups, t.ID(), log)
}

func seedGroups(ctx context.Context, groups permissiongroup.Repository, tenantID shared.ID, log *logger.Logger) error {
	existing, err := groups.ExistingNames(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list existing groups: %w", err)
	}
	for _, tpl := range permissiongroup.DefaultTemplates() {
		if _, ok := existing[tpl.Name]; ok {
			continue
		}
		g, err := permissiongroup.NewGroup(tenantID, tpl.Name, tpl.Flags, tpl.Color)
		if err != nil {
			return fmt.Errorf("build group %q: %w", tpl.Name, err)
		}
		if err := groups.Create(ctx, g); err != nil {
			return fmt.Errorf("create group %q: %w", tpl.Name, err)
		}
		log.Info("group created", "name", tpl.Name)
	}
	return nil
}

func seedUser(
	ctx context.Context,
	users user.Repository,
	tenants tenant.Repository,
	hasher *password.Hasher,
	tenantsByCode map[string]shared.ID,
	uf UserFixture,
	log *logger.Logger,
) error {
	exists, err := users.ExistsByEmail(ctx, uf.Email)
	if err != nil {
		return fmt.Errorf("look up user %q: %w", uf.Email, err)
	}
	if exists {
		log.Info("user exists", "email", uf.Email)
		return nil
	}

	r, ok := role.Parse(uf.Role)
	if !ok {
		return fmt.Errorf("user %q: unknown role %q", uf.Email, uf.Role)
	}

	tenantID, ok := tenantsByCode[uf.TenantCode]
	if !ok {
		t, err := tenants.GetByCode(ctx, uf.TenantCode)
		if err != nil {
			return fmt.Errorf("user %q: tenant %q: %w", uf.Email, uf.TenantCode, err)
		}
		tenantID = t.ID()
	}

	if uf.Password == "" {
		return fmt.Errorf("user %q: password is required", uf.Email)
	}
	hash, err := hasher.Hash(uf.Password)
	if err != nil {
		return fmt.Errorf("user %q: hash password: %w", uf.Email, err)
	}

	p, err := user.NewProfile(tenantID, uf.Email, uf.Name, hash, r)
	if err != nil {
		return fmt.Errorf("build user %q: %w", uf.Email, err)
	}
	p.Activate()
	if err := users.Create(ctx, p); err != nil {
		return fmt.Errorf("create user %q: %w", uf.Email, err)
	}
	log.Info("user created", "email", uf.Email, "role", uf.Role)
	return nil
}
