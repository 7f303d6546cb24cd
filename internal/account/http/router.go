package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/androidmontreal/rhok-server/internal/account/service"
	"github.com/androidmontreal/rhok-server/internal/common/config"
	commonerrors "github.com/androidmontreal/rhok-server/internal/common/errors"
	commonhttp "github.com/androidmontreal/rhok-server/internal/common/http"
	"github.com/androidmontreal/rhok-server/internal/common/logger"
	sessionservice "github.com/androidmontreal/rhok-server/internal/session/service"
	userdomain "github.com/androidmontreal/rhok-server/internal/user/domain"
)

const (
	stateGranted = "GRANTED"
	stateDenied  = "DENIED"
	stateSuccess = "SUCCESS"
	stateFailure = "FAILURE"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authenticateResponse struct {
	State      string `json:"state"`
	SessionKey string `json:"session_key,omitempty"`
}

type validationResult struct {
	FieldName string `json:"field_name"`
	Message   string `json:"message"`
}

type createUserResponse struct {
	ResultCode        string             `json:"result_code"`
	ValidationResults []validationResult `json:"validation_results,omitempty"`
}

type stateResponse struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

type logoutRequest struct {
	SessionKey string `json:"session_key"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type resetResponse struct {
	State             string             `json:"state"`
	ValidationResults []validationResult `json:"validation_results,omitempty"`
}

type inviteRequest struct {
	InviterID string `json:"inviter_id"`
	Email     string `json:"email"`
}

type Handler struct {
	auth  *service.AuthService
	users *service.UserService
	cfg   config.AccountsConfig
	log   *logger.Logger
}

func NewHandler(auth *service.AuthService, users *service.UserService, cfg config.AccountsConfig, log *logger.Logger) http.Handler {
	h := &Handler{auth: auth, users: users, cfg: cfg, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.HandleFunc("/api/authenticate", h.authenticate)
	mux.HandleFunc("/api/users", h.createUser)
	mux.HandleFunc("/api/users/", h.archiveUser)
	mux.HandleFunc("/api/users/invite", h.invite)
	mux.HandleFunc("/api/logout", h.logout)
	mux.HandleFunc("/api/forgot", h.forgot)
	mux.HandleFunc("/api/reset", h.reset)
	return mux
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req credentialsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.log.Warnf("authenticate failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	result, err := h.auth.Authenticate(ctx, service.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			commonhttp.WriteJSON(w, http.StatusUnauthorized, authenticateResponse{State: stateDenied})
			return
		}
		h.writeError(w, r, err, "authenticate")
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, authenticateResponse{
		State:      stateGranted,
		SessionKey: result.SessionKey,
	})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req credentialsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.log.Warnf("create user failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	result, err := h.users.CreateUser(ctx, service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err, "create user")
		return
	}

	status := http.StatusOK
	if result.Code == service.CodeUserCreated {
		status = http.StatusCreated
	}

	resp := createUserResponse{ResultCode: string(result.Code)}
	for _, v := range result.ValidationResults {
		resp.ValidationResults = append(resp.ValidationResults, validationResult{
			FieldName: v.FieldName,
			Message:   v.Message,
		})
	}

	commonhttp.WriteJSON(w, status, resp)
}

func (h *Handler) archiveUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeUserIDRequired, "user id required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if err := h.users.ArchiveUser(ctx, userdomain.ID(id)); err != nil {
		if errors.Is(err, commonerrors.ErrUserNotFound) {
			commonhttp.WriteJSON(w, http.StatusNotFound, stateResponse{
				State:   stateFailure,
				Message: "user not found",
			})
			return
		}
		h.writeError(w, r, err, "archive user")
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, stateResponse{State: stateSuccess})
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req inviteRequest
	if err := h.decode(w, r, &req); err != nil {
		h.log.Warnf("invite failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	err := h.users.InviteUser(ctx, userdomain.ID(req.InviterID), req.Email)
	switch {
	case errors.Is(err, service.ErrInviteNotAllowed):
		commonhttp.WriteJSON(w, http.StatusForbidden, stateResponse{
			State:   stateFailure,
			Message: "only confirmed users may send invitations",
		})
	case errors.Is(err, commonerrors.ErrUserNotFound):
		commonhttp.WriteJSON(w, http.StatusNotFound, stateResponse{
			State:   stateFailure,
			Message: "inviter not found",
		})
	case errors.Is(err, commonerrors.ErrNotImplemented):
		// The guard passed but the flow itself does not exist yet.
		commonhttp.WriteJSON(w, http.StatusOK, stateResponse{State: stateFailure})
	case err != nil:
		h.writeError(w, r, err, "invite")
	default:
		commonhttp.WriteJSON(w, http.StatusOK, stateResponse{State: stateSuccess})
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req logoutRequest
	if err := h.decode(w, r, &req); err != nil {
		h.log.Warnf("logout failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if err := h.auth.Logout(ctx, req.SessionKey); err != nil {
		if errors.Is(err, sessionservice.ErrUnknownSessionKey) {
			commonhttp.WriteJSON(w, http.StatusNotFound, stateResponse{State: stateFailure})
			return
		}
		h.writeError(w, r, err, "logout")
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, stateResponse{State: stateSuccess})
}

// forgot always reports SUCCESS so the response cannot be used to probe
// which emails have accounts.
func (h *Handler) forgot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req forgotRequest
	if err := h.decode(w, r, &req); err != nil {
		h.log.Warnf("forgot password failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if err := h.auth.ForgottenPassword(ctx, req.Email); err != nil {
		h.log.Errorf("forgot password failed: %v", err)
	}

	commonhttp.WriteJSON(w, http.StatusOK, stateResponse{State: stateSuccess})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		commonhttp.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req resetRequest
	if err := h.decode(w, r, &req); err != nil {
		h.log.Warnf("password reset failed: invalid json: %v", err)
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	failures, err := h.auth.ResetPassword(ctx, req.Token, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			commonhttp.WriteJSON(w, http.StatusBadRequest, resetResponse{State: stateFailure})
			return
		}
		h.writeError(w, r, err, "password reset")
		return
	}

	if len(failures) > 0 {
		resp := resetResponse{State: stateFailure}
		for _, v := range failures {
			resp.ValidationResults = append(resp.ValidationResults, validationResult{
				FieldName: v.FieldName,
				Message:   v.Message,
			})
		}
		commonhttp.WriteJSON(w, http.StatusOK, resp)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, resetResponse{State: stateSuccess})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBodyBytes)
	return commonhttp.DecodeJSON(r, v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.log.WithFields(r.Context(), logger.Fields{
		"client_ip": commonhttp.GetClientIP(r),
	}).Errorf("%s failed: %v", op, err)

	if dErr, ok := commonerrors.AsDomainError(err); ok {
		// Integrity faults stay internal: the client sees a generic
		// failure, operators see the alert log above.
		if dErr.Category() == commonerrors.CategoryIntegrity {
			commonhttp.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		commonhttp.WriteErrorEnvelope(w, dErr.HTTPStatus(), dErr.Code(), dErr.Message())
		return
	}

	commonhttp.WriteError(w, http.StatusInternalServerError, "internal error")
}
