package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"auth-token"`
}

func decodeCredentials(r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	if strings.TrimSpace(req.Login) == "" || strings.TrimSpace(req.Password) == "" {
		return req, false
	}
	return req, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "login and password required")
		return
	}

	if _, err := s.auth.Register(r.Context(), req.Login, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "login and password required")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AuthToken: token.Token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	tokenValue := r.Header.Get(AuthTokenHeaderName)
	if tokenValue == "" {
		writeError(w, http.StatusUnauthorized, "Missing auth-token header")
		return
	}

	s.auth.Logout(r.Context(), tokenValue)
	w.WriteHeader(http.StatusOK)
}
