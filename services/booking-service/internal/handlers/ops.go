package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/practiceops/practiceops/libs/httpx"
	"github.com/practiceops/practiceops/services/booking-service/internal/availability"
	"github.com/practiceops/practiceops/services/booking-service/internal/booking"
	"github.com/practiceops/practiceops/services/booking-service/internal/intake"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
	"github.com/practiceops/practiceops/services/booking-service/internal/overrides"
)

// OperatorHeader carries the verified subject set by the gateway.
const OperatorHeader = "X-Operator-Id"

// SummarySource counts open work for the dashboard header.
type SummarySource interface {
	Summary(ctx context.Context, today string) (model.Summary, error)
}

// OpsHandler serves the dashboard. Authentication happens at the gateway.
type OpsHandler struct {
	booking   *booking.Service
	overrides *overrides.Service
	intake    *intake.Service
	summary   SummarySource
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

func NewOpsHandler(bookingSvc *booking.Service, overridesSvc *overrides.Service, intakeSvc *intake.Service, summary SummarySource, loc *time.Location, logger *slog.Logger) *OpsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &OpsHandler{
		booking:   bookingSvc,
		overrides: overridesSvc,
		intake:    intakeSvc,
		summary:   summary,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *OpsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ops/summary", h.Summary)

	mux.HandleFunc("GET /api/v1/ops/appointments", h.ListAppointments)
	mux.HandleFunc("GET /api/v1/ops/appointments/{id}", h.GetAppointment)
	mux.HandleFunc("PATCH /api/v1/ops/appointments/{id}", h.UpdateAppointment)
	mux.HandleFunc("DELETE /api/v1/ops/appointments/{id}", h.DeleteAppointment)

	mux.HandleFunc("GET /api/v1/ops/availability/slots", h.ListSlots)
	mux.HandleFunc("PUT /api/v1/ops/availability/slots", h.UpsertSlot)
	mux.HandleFunc("DELETE /api/v1/ops/availability/slots/{id}", h.DeleteSlot)
	mux.HandleFunc("GET /api/v1/ops/availability/overrides", h.ListOverrides)
	mux.HandleFunc("POST /api/v1/ops/availability/overrides", h.CreateOverride)
	mux.HandleFunc("DELETE /api/v1/ops/availability/overrides/{id}", h.DeleteOverride)

	mux.HandleFunc("GET /api/v1/ops/call-requests", h.ListCallRequests)
	mux.HandleFunc("PATCH /api/v1/ops/call-requests/{id}", h.UpdateCallRequest)
	mux.HandleFunc("DELETE /api/v1/ops/call-requests/{id}", h.DeleteCallRequest)
	mux.HandleFunc("GET /api/v1/ops/contact", h.ListContact)
	mux.HandleFunc("PATCH /api/v1/ops/contact/{id}", h.UpdateContact)
	mux.HandleFunc("DELETE /api/v1/ops/contact/{id}", h.DeleteContact)
}

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newList[T any](items []T, f model.ListFilter) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	f = f.Normalize()
	return listResponse[T]{Items: items, Limit: f.Limit, Offset: f.Offset}
}

func (h *OpsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	today := availability.FormatDate(h.now().In(h.loc))
	s, err := h.summary.Summary(r.Context(), today)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (h *OpsHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	items, err := h.booking.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newList(items, f))
}

func (h *OpsHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.booking.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

// UpdateAppointment applies status, notes and read flag together; a
// rejected field leaves the appointment untouched.
func (h *OpsHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var p booking.Patch
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	appt, err := h.booking.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	if p.Status != nil {
		h.logger.Info("appointment updated",
			"appointment_id", appt.ID,
			"status", appt.Status,
			"operator", r.Header.Get(OperatorHeader),
		)
	}
	httpx.WriteJSON(w, http.StatusOK, appt)
}

func (h *OpsHandler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.booking.Delete(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	h.logger.Info("appointment deleted", "appointment_id", r.PathValue("id"), "operator", r.Header.Get(OperatorHeader))
	w.WriteHeader(http.StatusNoContent)
}

func (h *OpsHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.overrides.ListSlots(r.Context())
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	if slots == nil {
		slots = []model.RecurringSlot{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": slots})
}

func (h *OpsHandler) UpsertSlot(w http.ResponseWriter, r *http.Request) {
	var in overrides.SlotInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	slot, err := h.overrides.UpsertSlot(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slot)
}

func (h *OpsHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := h.overrides.DeleteSlot(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OpsHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.overrides.ListOverrides(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	if items == nil {
		items = []model.SpecialAvailability{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *OpsHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var in overrides.OverrideInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	o, err := h.overrides.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	h.logger.Info("availability override created",
		"override_id", o.ID,
		"date", o.Date,
		"is_available", o.IsAvailable,
		"operator", r.Header.Get(OperatorHeader),
	)
	httpx.WriteJSON(w, http.StatusCreated, o)
}

func (h *OpsHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if err := h.overrides.DeleteOverride(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OpsHandler) ListCallRequests(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	items, err := h.intake.ListCallRequests(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newList(items, f))
}

func (h *OpsHandler) UpdateCallRequest(w http.ResponseWriter, r *http.Request) {
	var p intake.Patch
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	c, err := h.intake.UpdateCallRequest(r.Context(), r.PathValue("id"), p)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *OpsHandler) DeleteCallRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.intake.DeleteCallRequest(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OpsHandler) ListContact(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	items, err := h.intake.ListContactMessages(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newList(items, f))
}

func (h *OpsHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var p intake.Patch
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	m, err := h.intake.UpdateContactMessage(r.Context(), r.PathValue("id"), p)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (h *OpsHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.intake.DeleteContactMessage(r.Context(), r.PathValue("id")); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
