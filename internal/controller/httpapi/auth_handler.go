package httpapi

import (
	"net/http"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=client expert"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.users.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      model.Role(req.Role),
	})
	if err != nil {
		a.logError("register", err)
		writeError(w, err)
		return
	}

	token, err := IssueToken(a.jwtSecret, user)
	if err != nil {
		a.logError("register", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	user, err := a.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Always the same 401 regardless of which check failed.
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := IssueToken(a.jwtSecret, user)
	if err != nil {
		a.logError("login", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (a *API) handleSetClientStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		writeError(w, service.NewValidationError("id", "must be a UUID"))
		return
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending verified rejected"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	if err := a.users.SetClientStatus(r.Context(), userID, callerID(r), model.ClientStatus(req.Status)); err != nil {
		a.logError("set client status", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (a *API) logError(op string, err error) {
	if service.IsValidation(err) {
		return
	}
	a.logger.Warn("Request failed", zap.String("op", op), zap.Error(err))
}
