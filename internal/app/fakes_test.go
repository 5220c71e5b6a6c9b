package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/invite"
	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/session"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/domain/tenant"
	"github.com/planforge/api/pkg/domain/user"
)

// memUsers is an in-memory user.Repository. failLink is a one-shot
// error for the next LinkPermissionGroups call.
type memUsers struct {
	mu       sync.Mutex
	profiles map[string]*user.Profile
	failLink error
}

func newMemUsers() *memUsers {
	return &memUsers{profiles: make(map[string]*user.Profile)}
}

func (m *memUsers) Create(_ context.Context, p *user.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if existing.Email() == p.Email() {
			return user.AlreadyExistsError(p.Email())
		}
	}
	m.profiles[p.ID().String()] = p
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id shared.ID) (*user.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id.String()]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return p, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email() == email {
			return p, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *memUsers) Update(_ context.Context, p *user.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID().String()]; !ok {
		return user.ErrUserNotFound
	}
	m.profiles[p.ID().String()] = p
	return nil
}

func (m *memUsers) Delete(_ context.Context, id shared.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id.String()]; !ok {
		return user.ErrUserNotFound
	}
	delete(m.profiles, id.String())
	return nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email() == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) ListByTenant(_ context.Context, tenantID shared.ID) ([]*user.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*user.Profile
	for _, p := range m.profiles {
		if p.TenantID().Equals(tenantID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memUsers) ListByTenantAndRole(_ context.Context, tenantID shared.ID, r role.Role) ([]*user.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*user.Profile
	for _, p := range m.profiles {
		if p.TenantID().Equals(tenantID) && p.Role() == r {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memUsers) LinkPermissionGroups(_ context.Context, links []user.GroupLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLink != nil {
		err := m.failLink
		m.failLink = nil
		return err
	}
	for _, link := range links {
		p, ok := m.profiles[link.UserID.String()]
		if !ok {
			continue
		}
		gid := link.GroupID
		m.profiles[link.UserID.String()] = user.Reconstitute(
			p.ID(), p.TenantID(), p.Email(), p.Name(), p.PasswordHash(), p.Role(),
			&gid, p.AssignedProjectIDs(), p.Status(), p.CreatedAt(), p.UpdatedAt(),
		)
	}
	return nil
}

// memTenants is an in-memory tenant.Repository.
type memTenants struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant
}

func newMemTenants() *memTenants {
	return &memTenants{tenants: make(map[string]*tenant.Tenant)}
}

func (m *memTenants) Create(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID().String()] = t
	return nil
}

func (m *memTenants) GetByID(_ context.Context, id shared.ID) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id.String()]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return t, nil
}

func (m *memTenants) GetByCode(_ context.Context, code string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.Code() == code {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (m *memTenants) Update(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID().String()] = t
	return nil
}

func (m *memTenants) Delete(_ context.Context, id shared.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, id.String())
	return nil
}

func (m *memTenants) ExistsByCode(_ context.Context, code string) (bool, error) {
	_, err := m.GetByCode(context.Background(), code)
	return err == nil, nil
}

func (m *memTenants) ListActive(_ context.Context) ([]*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*tenant.Tenant
	for _, t := range m.tenants {
		if t.IsActive() {
			out = append(out, t)
		}
	}
	return out, nil
}

// memGroups is an in-memory permissiongroup.Repository. failCreate
// holds one-shot errors returned for the named group, modelling a
// transient store failure.
type memGroups struct {
	mu         sync.Mutex
	groups     map[string]*permissiongroup.Group
	failCreate map[string]error
}

func newMemGroups() *memGroups {
	return &memGroups{
		groups:     make(map[string]*permissiongroup.Group),
		failCreate: make(map[string]error),
	}
}

func (m *memGroups) Create(_ context.Context, g *permissiongroup.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failCreate[g.Name()]; ok {
		delete(m.failCreate, g.Name())
		return err
	}
	for _, existing := range m.groups {
		if existing.TenantID().Equals(g.TenantID()) && existing.Name() == g.Name() {
			return permissiongroup.AlreadyExistsError(g.TenantID(), g.Name())
		}
	}
	m.groups[g.ID().String()] = g
	return nil
}

func (m *memGroups) GetByID(_ context.Context, id shared.ID) (*permissiongroup.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id.String()]
	if !ok {
		return nil, permissiongroup.ErrGroupNotFound
	}
	return g, nil
}

func (m *memGroups) GetByTenantAndName(_ context.Context, tenantID shared.ID, name string) (*permissiongroup.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.TenantID().Equals(tenantID) && g.Name() == name {
			return g, nil
		}
	}
	return nil, permissiongroup.ErrGroupNotFound
}

func (m *memGroups) Update(_ context.Context, g *permissiongroup.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID().String()] = g
	return nil
}

func (m *memGroups) Delete(_ context.Context, id shared.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id.String())
	return nil
}

func (m *memGroups) ListByTenant(_ context.Context, tenantID shared.ID) ([]*permissiongroup.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*permissiongroup.Group
	for _, g := range m.groups {
		if g.TenantID().Equals(tenantID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGroups) ExistingNames(_ context.Context, tenantID shared.ID) (map[string]shared.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]shared.ID)
	for _, g := range m.groups {
		if g.TenantID().Equals(tenantID) {
			out[g.Name()] = g.ID()
		}
	}
	return out, nil
}

// memInvites is an in-memory invite.Repository with the same
// compare-and-swap consume semantics as the SQL implementation.
type memInvites struct {
	mu      sync.Mutex
	records map[string]*inviteRecord
}

type inviteRecord struct {
	inv    *invite.Invite
	isUsed bool
	usedBy *shared.ID
	usedAt *time.Time
}

func newMemInvites() *memInvites {
	return &memInvites{records: make(map[string]*inviteRecord)}
}

func (m *memInvites) view(rec *inviteRecord) *invite.Invite {
	return invite.Reconstitute(
		rec.inv.Code(), rec.inv.TenantID(), rec.inv.Role(), rec.inv.ProjectIDs(),
		rec.inv.CreatedBy(), rec.isUsed, rec.usedBy,
		rec.inv.ExpiresAt(), rec.inv.CreatedAt(), rec.usedAt,
	)
}

func (m *memInvites) Create(_ context.Context, inv *invite.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[inv.Code()] = &inviteRecord{inv: inv}
	return nil
}

func (m *memInvites) GetByCode(_ context.Context, code string) (*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[code]
	if !ok {
		return nil, invite.ErrInviteNotFound
	}
	return m.view(rec), nil
}

func (m *memInvites) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[code]; !ok {
		return invite.ErrInviteNotFound
	}
	delete(m.records, code)
	return nil
}

func (m *memInvites) ListByTenant(_ context.Context, tenantID shared.ID) ([]*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*invite.Invite
	for _, rec := range m.records {
		if rec.inv.TenantID().Equals(tenantID) {
			out = append(out, m.view(rec))
		}
	}
	return out, nil
}

func (m *memInvites) Consume(_ context.Context, code string, uid shared.ID) (*invite.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[code]
	if !ok {
		return nil, invite.ErrInviteNotFound
	}
	if rec.isUsed {
		return nil, invite.ErrInviteAlreadyUsed
	}
	if time.Now().UTC().After(rec.inv.ExpiresAt()) {
		return nil, invite.ErrInviteExpired
	}
	now := time.Now().UTC()
	rec.isUsed = true
	rec.usedBy = &uid
	rec.usedAt = &now
	return m.view(rec), nil
}

func (m *memInvites) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for code, rec := range m.records {
		if (rec.isUsed || rec.inv.IsExpired()) && rec.inv.CreatedAt().Before(cutoff) {
			delete(m.records, code)
			n++
		}
	}
	return n, nil
}

// memAudits is an in-memory audit.Repository.
type memAudits struct {
	mu        sync.Mutex
	incidents []*audit.Incident
}

func (m *memAudits) Create(_ context.Context, in *audit.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents = append(m.incidents, in)
	return nil
}

func (m *memAudits) GetByID(_ context.Context, id shared.ID) (*audit.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.incidents {
		if in.ID().Equals(id) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("incident %w", shared.ErrNotFound)
}

func (m *memAudits) List(_ context.Context, _ audit.Filter) ([]*audit.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*audit.Incident(nil), m.incidents...), nil
}

func (m *memAudits) Count(_ context.Context, _ audit.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.incidents)), nil
}

func (m *memAudits) kinds() []audit.IncidentKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.IncidentKind, len(m.incidents))
	for i, in := range m.incidents {
		out[i] = in.Kind()
	}
	return out
}

// memOverlays is an in-memory OverlayStore.
type memOverlays struct {
	mu       sync.Mutex
	overlays map[string]session.Overlay
}

func newMemOverlays() *memOverlays {
	return &memOverlays{overlays: make(map[string]session.Overlay)}
}

func (m *memOverlays) SaveOverlay(_ context.Context, uid shared.ID, o session.Overlay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlays[uid.String()] = o
	return nil
}

func (m *memOverlays) GetOverlay(_ context.Context, uid shared.ID) (session.Overlay, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.overlays[uid.String()]
	return o, ok, nil
}

func (m *memOverlays) DeleteOverlay(_ context.Context, uid shared.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overlays, uid.String())
	return nil
}

func (m *memOverlays) CountOverlays(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.overlays), nil
}

// expire drops an overlay without going through DeleteOverlay, the way
// a redis TTL would.
func (m *memOverlays) expire(uid shared.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overlays, uid.String())
}
