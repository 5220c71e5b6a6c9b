package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/planforge/api/internal/metrics"
	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
	"github.com/planforge/api/pkg/jwt"
	"github.com/planforge/api/pkg/logger"
	"github.com/planforge/api/pkg/password"
)

type sessionFixture struct {
	svc      *SessionService
	users    *memUsers
	tenants  *memTenants
	overlays *memOverlays
	audits   *memAudits
	hasher   *password.Hasher
	tokens   *jwt.Manager
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	users := newMemUsers()
	tenants := newMemTenants()
	overlays := newMemOverlays()
	audits := &memAudits{}
	log := logger.NewNop()

	tokens, err := jwt.NewManager(jwt.Config{Secret: "test-secret", Issuer: "test", Duration: time.Minute})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	hasher := password.New(password.WithCost(4))
	svc := NewSessionService(users, tenants, overlays, tokens, hasher, NewAuditService(audits, log), log)

	return &sessionFixture{
		svc: svc, users: users, tenants: tenants, overlays: overlays,
		audits: audits, hasher: hasher, tokens: tokens,
	}
}

func (f *sessionFixture) seedTenant(t *testing.T, code string) *tenant.Tenant {
	t.Helper()
	tn, err := tenant.NewTenant("Tenant "+code, code, shared.NewID())
	if err != nil {
		t.Fatalf("NewTenant: %v", err)
	}
	if err := f.tenants.Create(context.Background(), tn); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tn
}

func (f *sessionFixture) seedLogin(t *testing.T, tenantID shared.ID, email, plaintext string, r role.Role) *user.Profile {
	t.Helper()
	hash, err := f.hasher.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	p, err := user.NewProvisionedProfile(tenantID, email, "Login User", hash, r, nil)
	if err != nil {
		t.Fatalf("NewProvisionedProfile: %v", err)
	}
	if err := f.users.Create(context.Background(), p); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return p
}

func TestLoginIssuesTokenForActiveUser(t *testing.T) {
	f := newSessionFixture(t)
	tn := f.seedTenant(t, "acme")
	f.seedLogin(t, tn.ID(), "sa@example.com", "Sup3rSecret", role.RoleSuperadmin)

	res, err := f.svc.Login(context.Background(), "sa@example.com", "Sup3rSecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.Identity.IsOperator() {
		t.Error("superadmin login must carry the operator flag")
	}

	claims, err := f.tokens.Validate(res.Token)
	if err != nil {
		t.Fatalf("Validate issued token: %v", err)
	}
	ident, err := claims.Identity()
	if err != nil {
		t.Fatalf("rebuild identity: %v", err)
	}
	if !ident.UID().Equals(res.Identity.UID()) {
		t.Error("token must round-trip the identity")
	}
}

func TestLoginFailuresCollapseToOneError(t *testing.T) {
	f := newSessionFixture(t)
	tn := f.seedTenant(t, "acme")
	f.seedLogin(t, tn.ID(), "known@example.com", "Sup3rSecret", role.RoleAdmin)

	// Unknown account and wrong password must be indistinguishable.
	if _, err := f.svc.Login(context.Background(), "ghost@example.com", "whatever1A"); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := f.svc.Login(context.Background(), "known@example.com", "WrongPass1"); !errors.Is(err, user.ErrInvalidCredentials) {
		t.Errorf("bad password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginRejectsPendingAndDisabled(t *testing.T) {
	f := newSessionFixture(t)
	tn := f.seedTenant(t, "acme")

	hash, _ := f.hasher.Hash("Sup3rSecret")
	pending, err := user.NewProfile(tn.ID(), "pending@example.com", "Pending", hash, role.RoleClient)
	if err != nil {
		t.Fatalf("NewProfile: %v", err)
	}
	if err := f.users.Create(context.Background(), pending); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "pending@example.com", "Sup3rSecret"); !errors.Is(err, user.ErrUserPending) {
		t.Errorf("pending login: got %v, want ErrUserPending", err)
	}

	disabled := f.seedLogin(t, tn.ID(), "off@example.com", "Sup3rSecret", role.RoleClient)
	disabled.Disable()
	if _, err := f.svc.Login(context.Background(), "off@example.com", "Sup3rSecret"); !errors.Is(err, user.ErrUserDisabled) {
		t.Errorf("disabled login: got %v, want ErrUserDisabled", err)
	}
}

func TestLoginRejectsInactiveTenant(t *testing.T) {
	f := newSessionFixture(t)
	tn := f.seedTenant(t, "acme")
	f.seedLogin(t, tn.ID(), "user@example.com", "Sup3rSecret", role.RoleAdmin)
	if err := tn.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), "user@example.com", "Sup3rSecret"); !errors.Is(err, tenant.ErrTenantInactive) {
		t.Errorf("got %v, want ErrTenantInactive", err)
	}
}

func TestSimulatePersistsOverlayAcrossRequests(t *testing.T) {
	f := newSessionFixture(t)
	home := f.seedTenant(t, "acme")
	other := f.seedTenant(t, "globex")
	sa := f.seedLogin(t, home.ID(), "sa@example.com", "Sup3rSecret", role.RoleSuperadmin)

	ident, err := session.NewIdentity(sa.ID(), sa.Email(), sa.Role(), sa.TenantID(), true)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}

	lower := role.RoleTeamMember
	otherID := other.ID()
	view, err := f.svc.Simulate(context.Background(), ident, session.Simulation{
		ActiveRole:     &lower,
		ActiveTenantID: &otherID,
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !view.IsMasquerading() {
		t.Fatal("view must be masquerading")
	}

	// A fresh request rebuilds the view from the stored overlay.
	rebuilt := f.svc.ViewContextFor(context.Background(), ident)
	if !rebuilt.IsMasquerading() {
		t.Fatal("overlay must survive across requests")
	}
	if rebuilt.ActiveRole() != role.RoleTeamMember || !rebuilt.ActiveTenantID().Equals(other.ID()) {
		t.Errorf("rebuilt view = (%s, %s), want (team_member, %s)",
			rebuilt.ActiveRole(), rebuilt.ActiveTenantID(), other.ID())
	}
	// The identity itself never changes.
	if rebuilt.Identity().RealRole() != role.RoleSuperadmin || !rebuilt.Identity().RealTenantID().Equals(home.ID()) {
		t.Error("real identity must be untouched by simulation")
	}

	kinds := f.audits.kinds()
	if len(kinds) == 0 || kinds[0] != audit.KindMasqueradeStart {
		t.Errorf("masquerade start must be recorded, got %v", kinds)
	}
}

func TestSimulateRejectsInactiveTargetTenant(t *testing.T) {
	f := newSessionFixture(t)
	home := f.seedTenant(t, "acme")
	dead := f.seedTenant(t, "globex")
	if err := dead.Deactivate(); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	ident, err := session.NewIdentity(shared.NewID(), "sa@example.com", role.RoleSuperadmin, home.ID(), true)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	deadID := dead.ID()
	if _, err := f.svc.Simulate(context.Background(), ident, session.Simulation{ActiveTenantID: &deadID}); !errors.Is(err, tenant.ErrTenantInactive) {
		t.Errorf("got %v, want ErrTenantInactive", err)
	}
}

func TestSimulateDeniedForNonSuperadmin(t *testing.T) {
	f := newSessionFixture(t)
	tn := f.seedTenant(t, "acme")

	ident, err := session.NewIdentity(shared.NewID(), "admin@example.com", role.RoleAdmin, tn.ID(), false)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	lower := role.RoleClient
	if _, err := f.svc.Simulate(context.Background(), ident, session.Simulation{ActiveRole: &lower}); !shared.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSimulateDenialHidesTenantLookup(t *testing.T) {
	// A non-superadmin probing an arbitrary tenant ID must get the
	// masquerade denial, never a not-found that reveals whether the
	// tenant exists.
	f := newSessionFixture(t)
	tn := f.seedTenant(t, "acme")

	ident, err := session.NewIdentity(shared.NewID(), "admin@example.com", role.RoleAdmin, tn.ID(), false)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}

	ghost := shared.NewID()
	_, err = f.svc.Simulate(context.Background(), ident, session.Simulation{ActiveTenantID: &ghost})
	if !errors.Is(err, session.ErrMasqueradeForbidden) {
		t.Fatalf("unknown tenant: got %v, want ErrMasqueradeForbidden", err)
	}

	known := tn.ID()
	_, err = f.svc.Simulate(context.Background(), ident, session.Simulation{ActiveTenantID: &known})
	if !errors.Is(err, session.ErrMasqueradeForbidden) {
		t.Fatalf("known tenant: got %v, want ErrMasqueradeForbidden", err)
	}
}

func TestMasqueradeGaugeRecoversFromOverlayExpiry(t *testing.T) {
	f := newSessionFixture(t)
	home := f.seedTenant(t, "acme")
	other := f.seedTenant(t, "globex")

	ident, err := session.NewIdentity(shared.NewID(), "sa@example.com", role.RoleSuperadmin, home.ID(), true)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	otherID := other.ID()
	if _, err := f.svc.Simulate(context.Background(), ident, session.Simulation{ActiveTenantID: &otherID}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if got := testutil.ToFloat64(metrics.MasqueradeSessionsActive); got != 1 {
		t.Fatalf("gauge after simulate = %v, want 1", got)
	}

	// The overlay lapses by TTL without Reset ever being called.
	f.overlays.expire(ident.UID())

	if _, err := f.svc.Reset(context.Background(), ident); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := testutil.ToFloat64(metrics.MasqueradeSessionsActive); got != 0 {
		t.Errorf("gauge after expiry = %v, want 0", got)
	}
}

func TestResetClearsOverlayAndRecordsStop(t *testing.T) {
	f := newSessionFixture(t)
	home := f.seedTenant(t, "acme")
	other := f.seedTenant(t, "globex")

	ident, err := session.NewIdentity(shared.NewID(), "sa@example.com", role.RoleSuperadmin, home.ID(), true)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	otherID := other.ID()
	if _, err := f.svc.Simulate(context.Background(), ident, session.Simulation{ActiveTenantID: &otherID}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	view, err := f.svc.Reset(context.Background(), ident)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if view.IsMasquerading() {
		t.Error("reset view must be NORMAL")
	}
	if rebuilt := f.svc.ViewContextFor(context.Background(), ident); rebuilt.IsMasquerading() {
		t.Error("overlay must be deleted from the store")
	}

	kinds := f.audits.kinds()
	if len(kinds) < 2 || kinds[len(kinds)-1] != audit.KindMasqueradeStop {
		t.Errorf("masquerade stop must be recorded, got %v", kinds)
	}
}
