package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/shopgate/internal/core/domain"
	"github.com/custodia-labs/shopgate/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"not authenticated with marketplace"`
}

// OKResponse represents a simple acknowledgement
// @Description Simple acknowledgement
type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}

// HealthResponse represents the liveness response
// @Description Liveness response
type HealthResponse struct {
	OK   bool   `json:"ok" example:"true"`
	Time string `json:"time" example:"2026-01-02T03:04:05Z"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns liveness and the server time
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		OK:   true,
		Time: s.now().UTC().Format(time.RFC3339Nano),
	})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the session backend connection
// @Tags         Health
// @Produce      json
// @Success      200  {object}  OKResponse
// @Failure      503  {object}  ErrorResponse  "Session backend unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.sessionBackend != nil {
		if err := s.sessionBackend.Ping(r.Context()); err != nil {
			s.logger.Warn("session backend not ready", "error", err)
			writeError(w, http.StatusServiceUnavailable, "session backend unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// OAuth endpoints

// handleLogin godoc
// @Summary      Start marketplace authorization
// @Description  Binds a PKCE challenge and state to the session and redirects to the marketplace consent page
// @Tags         OAuth
// @Success      302
// @Failure      500  {string}  string  "Session error"
// @Router       /auth/login [get]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())

	resp, err := s.authService.Start(r.Context(), sess)
	if err != nil {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	if !s.commitSession(w, sess) {
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, resp.AuthorizationURL, http.StatusFound)
}

// handleCallback godoc
// @Summary      Marketplace authorization callback
// @Description  Validates state, exchanges the code for tokens and redirects to the app
// @Tags         OAuth
// @Param        code   query  string  false  "Authorization code"
// @Param        state  query  string  false  "State parameter"
// @Param        error  query  string  false  "Error from provider"
// @Success      302
// @Failure      400  {string}  string  "Invalid OAuth state."
// @Failure      502  {string}  string  "OAuth error. Check server logs."
// @Failure      503  {string}  string  "OAuth error. Check server logs."
// @Failure      500  {string}  string  "Session save error"
// @Router       /auth/callback [get]
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	q := r.URL.Query()

	err := s.authService.Callback(r.Context(), sess, driving.CallbackRequest{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	switch {
	case err == nil:
	case errors.Is(err, driving.ErrOAuthInvalidState):
		http.Error(w, "Invalid OAuth state.", http.StatusBadRequest)
		return
	case errors.Is(err, driving.ErrOAuthRemoteUnavailable):
		http.Error(w, "OAuth error. Check server logs.", http.StatusServiceUnavailable)
		return
	case errors.Is(err, driving.ErrSessionPersistence):
		http.Error(w, "Session save error", http.StatusInternalServerError)
		return
	case errors.Is(err, driving.ErrOAuthExchangeFailed):
		http.Error(w, "OAuth error. Check server logs.", http.StatusBadGateway)
		return
	default:
		http.Error(w, "OAuth error. Check server logs.", http.StatusInternalServerError)
		return
	}

	if !s.commitSession(w, sess) {
		http.Error(w, "Session save error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleRefresh godoc
// @Summary      Refresh marketplace tokens
// @Description  Exchanges the stored refresh token; credentials in the response are redacted
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  driving.RefreshResponse
// @Failure      400  {object}  ErrorResponse  "No refresh token"
// @Failure      502  {object}  ErrorResponse  "Refresh failed"
// @Failure      503  {object}  ErrorResponse  "Refresh failed"
// @Router       /auth/refresh [post]
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())

	resp, err := s.authService.Refresh(r.Context(), sess)
	switch {
	case err == nil:
	case errors.Is(err, driving.ErrOAuthNoRefreshToken):
		writeError(w, http.StatusBadRequest, "No refresh token")
		return
	case errors.Is(err, driving.ErrOAuthRemoteUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Refresh failed")
		return
	case errors.Is(err, driving.ErrOAuthExchangeFailed):
		writeError(w, http.StatusBadGateway, "Refresh failed")
		return
	default:
		writeError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	if !s.commitSession(w, sess) {
		writeError(w, http.StatusInternalServerError, "Refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Disconnect from the marketplace
// @Description  Removes tokens and any pending authorization from the session
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  OKResponse
// @Failure      500  {object}  ErrorResponse  "Logout failed"
// @Router       /auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())

	if err := s.authService.Logout(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	if !s.commitSession(w, sess) {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// handleStatus godoc
// @Summary      Authorization status
// @Description  Reports whether the session is connected to the marketplace, without credentials
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  driving.StatusResponse
// @Router       /auth/status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.authService.Status(GetSession(r.Context())))
}

// commitSession writes the session cookie, logging failures.
func (s *Server) commitSession(w http.ResponseWriter, sess *domain.Session) bool {
	if err := s.sessions.Commit(w, sess); err != nil {
		s.logger.Error("write session cookie", "error", err)
		return false
	}
	return true
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
