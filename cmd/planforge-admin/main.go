// Command planforge-admin is the operator CLI: tenant population,
// invite issuance and the security incident trail, run against the
// database directly. Every command acts as a real superadmin profile
// named by --as.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/internal/config"
	"github.com/planforge/api/internal/infra/postgres"
	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/logger"
	"github.com/planforge/api/pkg/password"
)

type cliEnv struct {
	db      *postgres.DB
	log     *logger.Logger
	tenants *postgres.TenantRepository
	users   *postgres.UserRepository
	groups  *postgres.PermissionGroupRepository
	invites *postgres.InviteRepository
	audits  *app.AuditService
	access  *app.AccessService
	invSvc  *app.InviteService
	popSvc  *app.PopulationService
	asEmail string
}

func main() {
	env := &cliEnv{}

	root := &cobra.Command{
		Use:           "planforge-admin",
		Short:         "Operator tooling for the PlanForge access-control API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.close()
		},
	}
	root.PersistentFlags().StringVar(&env.asEmail, "as", "", "email of the superadmin profile to act as (required)")
	_ = root.MarkPersistentFlagRequired("as")

	root.AddCommand(newPopulateCmd(env))
	root.AddCommand(newCreateInviteCmd(env))
	root.AddCommand(newListIncidentsCmd(env))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "planforge-admin: %v\n", err)
		os.Exit(1)
	}
}

func (e *cliEnv) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.log = logger.New(logger.Config{Level: "warn", Format: "text", Output: os.Stderr})

	e.db, err = postgres.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	e.tenants = postgres.NewTenantRepository(e.db)
	e.users = postgres.NewUserRepository(e.db)
	e.groups = postgres.NewPermissionGroupRepository(e.db)
	e.invites = postgres.NewInviteRepository(e.db)

	auditRepo := postgres.NewAuditRepository(e.db)
	e.audits = app.NewAuditService(auditRepo, e.log)
	e.access = app.NewAccessService(e.users, e.groups, e.audits, e.log)
	hasher := password.New(password.WithCost(cfg.Auth.BcryptCost))
	e.invSvc = app.NewInviteService(e.invites, e.users, e.tenants, e.access, hasher, e.log)
	e.popSvc = app.NewPopulationService(e.tenants, e.groups, e.users, e.access, e.log)
	return nil
}

func (e *cliEnv) close() {
	if e.db != nil {
		e.db.Close()
	}
}

// viewAs loads the acting profile and builds a fresh view context.
// Only active superadmin profiles may drive the CLI.
func (e *cliEnv) viewAs(ctx context.Context) (*session.ViewContext, error) {
	profile, err := e.users.GetByEmail(ctx, e.asEmail)
	if err != nil {
		return nil, fmt.Errorf("load acting profile: %w", err)
	}
	if !profile.Role().IsSuperadmin() {
		return nil, fmt.Errorf("%q is not a superadmin", e.asEmail)
	}
	ident, err := session.NewIdentity(
		profile.ID(), profile.Email(), profile.Role(), profile.TenantID(),
		profile.Role().IsSuperadmin(),
	)
	if err != nil {
		return nil, err
	}
	return session.NewViewContext(ident), nil
}

func (e *cliEnv) resolveTenant(ctx context.Context, ref string) (*tenant.Tenant, error) {
	if id, err := shared.IDFromString(ref); err == nil {
		return e.tenants.GetByID(ctx, id)
	}
	return e.tenants.GetByCode(ctx, ref)
}

func newPopulateCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "populate-tenant <tenant-id-or-code>",
		Short: "Clone default permission groups into a tenant and link users by role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view, err := env.viewAs(ctx)
			if err != nil {
				return err
			}
			t, err := env.resolveTenant(ctx, args[0])
			if err != nil {
				return err
			}
			report, err := env.popSvc.Populate(ctx, view, t.ID())
			if err != nil {
				return err
			}
			fmt.Printf("tenant %s (%s) populated in %s\n", t.Code(), t.Name(), report.Duration)
			fmt.Printf("  groups: %d created, %d skipped\n", len(report.GroupsCreated), len(report.GroupsSkipped))
			fmt.Printf("  users:  %d linked, %d skipped\n", report.UsersLinked, report.UsersSkipped)
			for _, msg := range report.Errors {
				fmt.Printf("  error:  %s\n", msg)
			}
			return nil
		},
	}
}

func newCreateInviteCmd(env *cliEnv) *cobra.Command {
	var (
		roleName          string
		email             string
		projectIDs        []string
		confirmSuperadmin bool
	)
	cmd := &cobra.Command{
		Use:   "create-invite",
		Short: "Issue a single-use invite in the acting profile's tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			view, err := env.viewAs(ctx)
			if err != nil {
				return err
			}
			r, ok := role.Parse(roleName)
			if !ok {
				return fmt.Errorf("unknown role %q", roleName)
			}
			inv, err := env.invSvc.Create(ctx, view, app.CreateInviteInput{
				Role:              r,
				ProjectIDs:        shared.IDsFromStrings(projectIDs),
				RecipientEmail:    email,
				ConfirmSuperadmin: confirmSuperadmin,
			})
			if err != nil {
				return err
			}
			fmt.Printf("invite %s grants %s, expires %s\n",
				inv.Code(), inv.Role(), inv.ExpiresAt().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&roleName, "role", string(role.RoleTeamMember), "role the invite grants")
	cmd.Flags().StringVar(&email, "email", "", "recipient email (optional, used for delivery)")
	cmd.Flags().StringSliceVar(&projectIDs, "project", nil, "project IDs pre-assigned to the invitee")
	cmd.Flags().BoolVar(&confirmSuperadmin, "confirm-superadmin", false, "required step-up when granting superadmin")
	return cmd
}

func newListIncidentsCmd(env *cliEnv) *cobra.Command {
	var (
		kind  string
		since string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list-incidents",
		Short: "Show the security incident trail, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := env.viewAs(ctx); err != nil {
				return err
			}

			filter := audit.Filter{Limit: limit}
			if kind != "" {
				k := audit.IncidentKind(kind)
				if !k.IsValid() {
					return fmt.Errorf("unknown incident kind %q", kind)
				}
				filter.Kind = &k
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("since must be RFC 3339: %w", err)
				}
				filter.Since = &t
			}

			incidents, total, err := env.audits.ListIncidents(ctx, filter)
			if err != nil {
				return err
			}
			for _, in := range incidents {
				details := make([]string, 0, len(in.Details()))
				for k, v := range in.Details() {
					details = append(details, fmt.Sprintf("%s=%v", k, v))
				}
				fmt.Printf("%s  %-24s %s  %s\n",
					in.CreatedAt().Format(time.RFC3339), in.Kind(), in.ActorEmail(), strings.Join(details, " "))
			}
			fmt.Printf("%d of %d incident(s)\n", len(incidents), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "filter by incident kind")
	cmd.Flags().StringVar(&since, "since", "", "only incidents at or after this RFC 3339 time")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum incidents to show")
	return cmd
}
