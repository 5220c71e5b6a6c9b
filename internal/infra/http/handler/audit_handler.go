package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/planforge/api/internal/app"
	"github.com/planforge/api/pkg/apierror"
	"github.com/planforge/api/pkg/domain/audit"
	"github.com/planforge/api/pkg/domain/shared"
	"github.com/planforge/api/pkg/pagination"
)

// AuditHandler serves the security incident trail. Superadmin only.
type AuditHandler struct {
	audits *app.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audits *app.AuditService) *AuditHandler {
	return &AuditHandler{audits: audits}
}

// IncidentResponse is the wire shape of a security incident.
type IncidentResponse struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	ActorUID     string         `json:"actor_uid"`
	ActorEmail   string         `json:"actor_email"`
	RealTenantID string         `json:"real_tenant_id"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toIncidentResponse(in *audit.Incident) IncidentResponse {
	return IncidentResponse{
		ID:           in.ID().String(),
		Kind:         string(in.Kind()),
		ActorUID:     in.ActorUID().String(),
		ActorEmail:   in.ActorEmail(),
		RealTenantID: in.RealTenantID().String(),
		Details:      in.Details(),
		CreatedAt:    in.CreatedAt(),
	}
}

type incidentListResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PerPage   int                `json:"per_page"`
}

// List handles GET /api/v1/security-incidents.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ident.IsSuperadmin() {
		respondError(w, r, apierror.Forbidden("incident trail is operator surface"))
		return
	}

	q := r.URL.Query()
	pageNum, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	page := pagination.NewPage(pageNum, perPage)

	filter := audit.Filter{
		Limit:  page.Limit(),
		Offset: page.Offset(),
	}
	if kind := q.Get("kind"); kind != "" {
		k := audit.IncidentKind(kind)
		if !k.IsValid() {
			respondError(w, r, apierror.BadRequest("unknown incident kind"))
			return
		}
		filter.Kind = &k
	}
	if actor := q.Get("actor_uid"); actor != "" {
		uid, err := shared.IDFromString(actor)
		if err != nil {
			respondError(w, r, apierror.BadRequest("invalid actor_uid"))
			return
		}
		filter.ActorUID = &uid
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, r, apierror.BadRequest("since must be RFC 3339"))
			return
		}
		filter.Since = &t
	}

	incidents, total, err := h.audits.ListIncidents(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]IncidentResponse, len(incidents))
	for i, in := range incidents {
		out[i] = toIncidentResponse(in)
	}
	respondJSON(w, http.StatusOK, incidentListResponse{
		Incidents: out,
		Total:     total,
		Page:      page.Number,
		PerPage:   page.PerPage,
	})
}

// Get handles GET /api/v1/security-incidents/{id}.
func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, err := identityFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ident.IsSuperadmin() {
		respondError(w, r, apierror.Forbidden("incident trail is operator surface"))
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	incident, err := h.audits.GetIncident(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toIncidentResponse(incident))
}
