package handler

import (
	"strconv"
	"strings"

	"lumiere/internal/gateway"
	"lumiere/internal/model"
	"lumiere/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) Mount(r *gateway.Router) {
	r.Get("/audit", h.Mine, true)
}

// Mine lists the caller's own audit trail, newest first.
func (h *AuditHandler) Mine(rc *gateway.RequestContext) (*gateway.Result, error) {
	limit, _ := strconv.Atoi(strings.TrimSpace(rc.Request.URL.Query().Get("limit")))

	entries, err := h.service.Recent(rc.Context(), rc.UserID(), limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}

	return gateway.OK("", map[string]any{"entries": entries, "count": len(entries)}), nil
}
