// Package http exposes the rescue engine, market lookups and the audit log
// over a chi REST surface.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain/audit"
	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
	"github.com/Strob0t/RescueDesk/internal/service"
)

const (
	maxPlanLimit = 1000
	maxLogLimit  = 1000
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Rescue *service.RescueService
	Market *service.MarketService
	Audit  *service.AuditService
}

type generateRequest struct {
	Event string `json:"event"`
	User  string `json:"user"`
}

type plansResponse struct {
	Plans []rescue.Plan `json:"plans"`
	Count int           `json:"count"`
}

type actionResponse struct {
	OK   bool        `json:"ok"`
	Plan rescue.Plan `json:"plan"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type healthResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

type logsResponse struct {
	Logs  []audit.Entry `json:"logs"`
	Count int           `json:"count"`
}

// GenerateRescuePlan handles POST /api/v1/rescue/generate.
func (h *Handlers) GenerateRescuePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[generateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Rescue.Generate(r.Context(), req.Event, req.User)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListRescuePlans handles GET /api/v1/rescue.
func (h *Handlers) ListRescuePlans(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, maxPlanLimit)
	if !ok {
		return
	}
	var status rescue.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, valid := rescue.ParseStatus(strings.ToLower(strings.TrimSpace(raw)))
		if !valid {
			writeError(w, http.StatusBadRequest, "invalid status: use one of pending, approved, executing, succeeded, failed, cancelled")
			return
		}
		status = s
	}

	plans, err := h.Rescue.List(r.Context(), limit, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if plans == nil {
		plans = []rescue.Plan{}
	}
	writeJSON(w, http.StatusOK, plansResponse{Plans: plans, Count: len(plans)})
}

// GetRescuePlan handles GET /api/v1/rescue/{id}.
func (h *Handlers) GetRescuePlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.Rescue.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ApproveRescuePlan handles POST /api/v1/rescue/{id}/approve.
func (h *Handlers) ApproveRescuePlan(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Rescue.Approve)
}

// CancelRescuePlan handles POST /api/v1/rescue/{id}/cancel.
func (h *Handlers) CancelRescuePlan(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Rescue.Cancel)
}

// ExecuteRescuePlan handles POST /api/v1/rescue/{id}/execute. A failing step
// is not an HTTP error: the response carries the failed plan.
func (h *Handlers) ExecuteRescuePlan(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.Rescue.Execute)
}

func (h *Handlers) act(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (rescue.Plan, error)) {
	p, err := fn(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{OK: true, Plan: p})
}

// ClearRescuePlans handles DELETE /api/v1/rescue.
func (h *Handlers) ClearRescuePlans(w http.ResponseWriter, r *http.Request) {
	if err := h.Rescue.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// RescueHealth handles GET /api/v1/rescue/health.
func (h *Handlers) RescueHealth(w http.ResponseWriter, r *http.Request) {
	n, err := h.Rescue.Count(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Count: n})
}

// GetPrice handles GET /api/v1/prices/{symbol}.
func (h *Handlers) GetPrice(w http.ResponseWriter, r *http.Request) {
	p, err := h.Market.Price(r.Context(), urlParam(r, "symbol"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetWalletBalance handles GET /api/v1/wallets/{address}.
func (h *Handlers) GetWalletBalance(w http.ResponseWriter, r *http.Request) {
	b, err := h.Market.Balance(r.Context(), urlParam(r, "address"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListLogs handles GET /api/v1/logs?limit=&type=&since=.
// type accepts a comma-separated list.
func (h *Handlers) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, maxLogLimit)
	if !ok {
		return
	}
	f := audit.Filter{Limit: limit}

	if raw := r.URL.Query().Get("type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t, err := audit.ParseType(part)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			f.Types = append(f.Types, t)
		}
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		f.Since = since
	}

	entries, err := h.Audit.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, logsResponse{Logs: entries, Count: len(entries)})
}

// ClearLogs handles DELETE /api/v1/logs.
func (h *Handlers) ClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.Audit.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
