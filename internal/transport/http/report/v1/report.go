package http

import (
	"context"
	"net/http"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/transport/http/dto"
	"github.com/you-humble/gearguard/internal/transport/http/middleware"
	"github.com/you-humble/gearguard/internal/transport/http/respond"
)

type ReportService interface {
	ByTeam(ctx context.Context, actor model.Actor) ([]model.TeamReport, error)
	ByCategory(ctx context.Context, actor model.Actor) ([]model.CategoryReport, error)
	ByStatus(ctx context.Context, actor model.Actor) ([]model.StatusReport, error)
	DurationAnalysis(ctx context.Context, actor model.Actor) (*model.DurationAnalysis, error)
	Dashboard(ctx context.Context, actor model.Actor) (*model.DashboardStats, error)
}

type handler struct {
	svc ReportService
}

func NewReportHandler(service ReportService) *handler {
	return &handler{svc: service}
}

func (h *handler) ByTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	reports, err := h.svc.ByTeam(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.TeamReportsFromModel(reports))
}

func (h *handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	reports, err := h.svc.ByCategory(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.CategoryReportsFromModel(reports))
}

func (h *handler) ByStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	reports, err := h.svc.ByStatus(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.StatusReportsFromModel(reports))
}

func (h *handler) Duration(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	analysis, err := h.svc.DurationAnalysis(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.DurationAnalysisFromModel(*analysis))
}

func (h *handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		respond.Err(w, r, model.ErrUnauthorized)
		return
	}

	stats, err := h.svc.Dashboard(r.Context(), actor)
	if err != nil {
		respond.Err(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dto.DashboardFromModel(*stats))
}
