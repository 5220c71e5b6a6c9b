package invite

import (
	"testing"
	"time"

	"github.com/planforge/api/pkg/domain/role"
	"github.com/planforge/api/pkg/domain/shared"
)

func TestCheckClassifiesLifecycle(t *testing.T) {
	tenantID := shared.NewID()
	creator := shared.NewID()

	fresh, err := NewInvite(tenantID, role.RoleTeamMember, nil, creator)
	if err != nil {
		t.Fatalf("NewInvite: %v", err)
	}
	if res := fresh.Check(); !res.Valid() {
		t.Errorf("fresh invite status = %s, want valid", res.Status)
	}

	usedBy := shared.NewID()
	usedAt := time.Now().UTC()
	used := Reconstitute(fresh.Code(), tenantID, role.RoleTeamMember, nil, creator,
		true, &usedBy, fresh.ExpiresAt(), fresh.CreatedAt(), &usedAt)
	if res := used.Check(); res.Status != StatusAlreadyUsed {
		t.Errorf("used invite status = %s, want already_used", res.Status)
	}

	expired := Reconstitute(fresh.Code(), tenantID, role.RoleTeamMember, nil, creator,
		false, nil, time.Now().UTC().Add(-time.Hour), fresh.CreatedAt(), nil)
	if res := expired.Check(); res.Status != StatusExpired {
		t.Errorf("expired invite status = %s, want expired", res.Status)
	}

	// Used wins over expired: the code was consumed while it was alive.
	usedAndExpired := Reconstitute(fresh.Code(), tenantID, role.RoleTeamMember, nil, creator,
		true, &usedBy, time.Now().UTC().Add(-time.Hour), fresh.CreatedAt(), &usedAt)
	if res := usedAndExpired.Check(); res.Status != StatusAlreadyUsed {
		t.Errorf("used+expired status = %s, want already_used", res.Status)
	}
}

func TestCheckIsRepeatable(t *testing.T) {
	inv, err := NewInvite(shared.NewID(), role.RoleClient, nil, shared.NewID())
	if err != nil {
		t.Fatalf("NewInvite: %v", err)
	}
	for i := 0; i < 5; i++ {
		if res := inv.Check(); !res.Valid() {
			t.Fatalf("check %d flipped status to %s", i, res.Status)
		}
	}
	if inv.IsUsed() {
		t.Error("Check must never consume the invite")
	}
}
