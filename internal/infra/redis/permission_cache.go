package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/planforge/api/pkg/domain/permissiongroup"
	"github.com/planforge/api/pkg/domain/shared"
)

const permCacheKeyPrefix = "permgroup:"

// cachedGroup is the wire shape of a cached permission group.
type cachedGroup struct {
	ID        string   `json:"id"`
	TenantID  string   `json:"tenant_id"`
	Name      string   `json:"name"`
	Project   string   `json:"project"`
	Task      string   `json:"task"`
	View      string   `json:"view"`
	Export    string   `json:"export"`
	Specials  []string `json:"specials"`
	Color     string   `json:"color"`
	Version   int      `json:"version"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

// PermissionCache is a read-through cache for permission groups. Flag
// edits bump the group version and call Invalidate, so a stale entry
// can outlive an edit only within the short TTL window on other nodes.
type PermissionCache struct {
	client *Client
	ttl    time.Duration
}

// NewPermissionCache creates a permission group cache.
func NewPermissionCache(client *Client, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, ttl: ttl}
}

func permCacheKey(id shared.ID) string {
	return permCacheKeyPrefix + id.String()
}

// Get returns the cached group, or nil on a miss.
func (c *PermissionCache) Get(ctx context.Context, id shared.ID) (*permissiongroup.Group, error) {
	payload, err := c.client.Raw().Get(ctx, permCacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cached group: %w", err)
	}

	var cg cachedGroup
	if err := json.Unmarshal(payload, &cg); err != nil {
		return nil, fmt.Errorf("unmarshal cached group: %w", err)
	}

	gid, err := shared.IDFromString(cg.ID)
	if err != nil {
		return nil, err
	}
	tid, err := shared.IDFromString(cg.TenantID)
	if err != nil {
		return nil, err
	}

	flags := permissiongroup.Flags{
		ProjectAccess:      permissiongroup.AccessLevel(cg.Project),
		TaskAccess:         permissiongroup.AccessLevel(cg.Task),
		ViewAccess:         permissiongroup.AccessLevel(cg.View),
		ExportAccess:       permissiongroup.AccessLevel(cg.Export),
		SpecialPermissions: cg.Specials,
	}
	return permissiongroup.Reconstitute(gid, tid, cg.Name, flags, cg.Color, cg.Version,
		time.Unix(cg.CreatedAt, 0).UTC(), time.Unix(cg.UpdatedAt, 0).UTC()), nil
}

// Set stores a group under its ID key for the cache TTL.
func (c *PermissionCache) Set(ctx context.Context, g *permissiongroup.Group) error {
	cg := cachedGroup{
		ID:        g.ID().String(),
		TenantID:  g.TenantID().String(),
		Name:      g.Name(),
		Project:   string(g.ProjectAccess()),
		Task:      string(g.TaskAccess()),
		View:      string(g.ViewAccess()),
		Export:    string(g.ExportAccess()),
		Specials:  g.SpecialPermissions(),
		Color:     g.Color(),
		Version:   g.Version(),
		CreatedAt: g.CreatedAt().Unix(),
		UpdatedAt: g.UpdatedAt().Unix(),
	}
	payload, err := json.Marshal(cg)
	if err != nil {
		return fmt.Errorf("marshal cached group: %w", err)
	}
	if err := c.client.Raw().Set(ctx, permCacheKey(g.ID()), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached group: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a group.
func (c *PermissionCache) Invalidate(ctx context.Context, id shared.ID) error {
	if err := c.client.Raw().Del(ctx, permCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate cached group: %w", err)
	}
	return nil
}
