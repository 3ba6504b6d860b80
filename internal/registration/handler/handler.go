package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gatepass/internal/qrcode"
	"gatepass/internal/registration/models"
	"gatepass/pkg/platform/httputil"
	"gatepass/pkg/platform/sentinel"
	"gatepass/pkg/requestcontext"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// Service defines the registration operations the handlers need.
type Service interface {
	VerifyAndMark(ctx context.Context, rawUID string, source string) (*models.AttendanceResult, error)
	IssueCode(ctx context.Context, id models.RegistrationID) (*models.VerifiedRegistration, error)
	Roster(ctx context.Context, eventID int64) ([]*models.VerifiedRegistration, error)
}

// Config carries the payload-building settings the handlers need.
type Config struct {
	// VerifyBaseURL is the public scan endpoint embedded in QR codes.
	VerifyBaseURL string
	// PayloadSalt feeds the snapshot integrity tag.
	PayloadSalt string
}

// Handler wires check-in endpoints to the registration service.
type Handler struct {
	service  Service
	renderer qrcode.Renderer
	cfg      Config
	logger   *slog.Logger
}

// New constructs a registration handler with its dependencies.
func New(service Service, renderer qrcode.Renderer, cfg Config, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register mounts the public endpoints: scanning and code retrieval.
func (h *Handler) Register(r chi.Router) {
	r.Get("/attend", h.HandleAttend)
	r.Get("/registrations/{registrationID}/qr", h.HandleQRImage)
	r.Get("/registrations/{registrationID}/qr/download", h.HandleQRDownload)
	r.Get("/registrations/{registrationID}/pass", h.HandlePass)
}

// RegisterStaff mounts endpoints that require staff authentication.
func (h *Handler) RegisterStaff(r chi.Router) {
	r.Get("/events/{eventID}/attendance", h.HandleEventAttendance)
}

// HandleAttend handles GET /attend?uid=... requests, the scan target
// embedded in every QR code.
func (h *Handler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	rawUID := r.URL.Query().Get("uid")
	source := requestcontext.ClientIP(ctx)

	result, err := h.service.VerifyAndMark(ctx, rawUID, source)
	if err != nil {
		h.logger.InfoContext(ctx, "scan rejected",
			"request_id", requestID,
			"source", source,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "scan verified",
		"request_id", requestID,
		"registration_id", int64(result.RegistrationID),
		"outcome", string(result.Outcome),
		"source", source,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromAttendanceResult(result))
}

// HandleQRImage handles GET /registrations/{registrationID}/qr requests,
// responding with the rendered PNG.
func (h *Handler) HandleQRImage(w http.ResponseWriter, r *http.Request) {
	h.serveQR(w, r, false)
}

// HandleQRDownload is the same image with an attachment disposition, for
// the "save my pass" flow.
func (h *Handler) HandleQRDownload(w http.ResponseWriter, r *http.Request) {
	h.serveQR(w, r, true)
}

func (h *Handler) serveQR(w http.ResponseWriter, r *http.Request, download bool) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := registrationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	found, err := h.service.IssueCode(ctx, id)
	if err != nil {
		h.logger.InfoContext(ctx, "code issuance refused",
			"request_id", requestID,
			"registration_id", int64(id),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	payload := qrcode.BuildVerifyURL(h.cfg.VerifyBaseURL, found.Registration.UID)

	img, err := h.renderer.Render(ctx, payload, qrSizeParam(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "qr rendering failed",
			"request_id", requestID,
			"registration_id", int64(id),
			"error", err,
		)
		httputil.WriteError(w, fmt.Errorf("render code image: %w", sentinel.ErrUnavailable))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if download {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "pass-"+found.Registration.UID.String()+".png"))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// HandlePass handles GET /registrations/{registrationID}/pass requests,
// returning the printable snapshot payload as plain text.
func (h *Handler) HandlePass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := registrationIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	found, err := h.service.IssueCode(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	payload := qrcode.BuildSnapshot(&found.Registration, found.Event, found.Participant, h.cfg.PayloadSalt)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

// HandleEventAttendance handles staff GET /events/{eventID}/attendance
// requests with the roll-call view.
func (h *Handler) HandleEventAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, fmt.Errorf("event id must be numeric: %w", sentinel.ErrInvalidFormat))
		return
	}

	roster, err := h.service.Roster(ctx, eventID)
	if err != nil {
		h.logger.ErrorContext(ctx, "roster listing failed",
			"request_id", requestID,
			"event_id", eventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "roll call viewed",
		"request_id", requestID,
		"event_id", eventID,
		"staff_id", requestcontext.StaffID(ctx),
		"registrations", len(roster),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRoster(eventID, roster))
}

func registrationIDParam(r *http.Request) (models.RegistrationID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "registrationID"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("registration id must be numeric: %w", sentinel.ErrInvalidFormat)
	}
	return models.RegistrationID(id), nil
}

func qrSizeParam(r *http.Request) int {
	raw := r.URL.Query().Get("size")
	if raw == "" {
		return defaultQRSize
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < minQRSize || size > maxQRSize {
		return defaultQRSize
	}
	return size
}
