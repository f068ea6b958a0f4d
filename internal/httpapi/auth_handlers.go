package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"hirehub.dev/internal/audit"
	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/board"
	"hirehub.dev/internal/obs"
)

type registerRequest struct {
	Name     string `json:"user_name"`
	Email    string `json:"user_email"`
	Password string `json:"user_password"`
	RoleName string `json:"role_name"`
	OrgName  string `json:"organization_name"`
}

type loginRequest struct {
	Email    string `json:"user_email"`
	Password string `json:"user_password"`
}

type candidateRequest struct {
	Name     string `json:"user_name"`
	Email    string `json:"user_email"`
	Password string `json:"user_password"`
	OrgID    string `json:"org_id"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.svc.Register(r.Context(), board.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		OrgName:  req.OrgName,
		RoleName: req.RoleName,
	})
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.registered",
		zap.String("user_id", out.User.ID),
		zap.String("org_id", out.Organization.ID))
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%s", out.User.ID))
	writeJSON(w, http.StatusCreated, out)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.authority.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			obs.RecordAuthAttempt("failure")
			_ = audit.LogEvent(r.Context(), "auth.login_failed")
		} else {
			obs.RecordAuthAttempt("error")
		}
		a.handleError(w, r, err)
		return
	}
	obs.RecordAuthAttempt("success")
	_ = audit.LogEvent(auth.ContextWithIdentity(r.Context(), session.Identity), "auth.login")
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkIDs("org_id", req.OrgID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.CreateCandidate(r.Context(), board.CandidateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		OrgID:    req.OrgID,
	})
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%s", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	user, err := a.svc.GetUser(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
