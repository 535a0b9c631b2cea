package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/asakaida/monban/internal/infrastructure/metrics"
	"github.com/asakaida/monban/internal/services"
)

// AuthHandler handles the signup and signin HTTP endpoints.
type AuthHandler struct {
	logger    *slog.Logger
	service   *services.AuthService
	collector *metrics.Collector
	exporter  *metrics.PrometheusExporter
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
// collector and exporter may be nil when metrics are disabled.
func NewAuthHandler(logger *slog.Logger, service *services.AuthService, collector *metrics.Collector, exporter *metrics.PrometheusExporter) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		service:   service,
		collector: collector,
		exporter:  exporter,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *AuthHandler) MountRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/signin", h.handleSignin)
}

type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Extended bool   `json:"extended"`
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.service.Signup(r.Context(), services.SignupRequest{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if h.collector != nil {
		h.collector.RecordSignup(err == nil)
	}
	if h.exporter != nil {
		h.exporter.RecordAuthOutcome("signup", err == nil)
	}
	if err != nil {
		status, message := mapServiceError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("signup failed", slog.String("email", req.Email), slog.Any("error", err))
		}
		respondError(w, status, message)
		return
	}

	h.logger.Info("user signed up",
		slog.Int64("user_id", result.User.ID),
		slog.String("role", string(result.User.Role)),
	)
	respondJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.service.Signin(r.Context(), services.SigninRequest{
		Email:    req.Email,
		Password: req.Password,
		Extended: req.Extended,
	})
	if h.collector != nil {
		h.collector.RecordSignin(err == nil)
	}
	if h.exporter != nil {
		h.exporter.RecordAuthOutcome("signin", err == nil)
	}
	if err != nil {
		status, message := mapServiceError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("signin failed", slog.String("email", req.Email), slog.Any("error", err))
		}
		respondError(w, status, message)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// validationMessage flattens validator errors into one client-facing
// line. Field names come from the struct, which matches the JSON
// casing closely enough for error messages.
func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return "invalid request"
	}
	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " is too short"
	case "max":
		return fe.Field() + " is too long"
	default:
		return fe.Field() + " is invalid"
	}
}
