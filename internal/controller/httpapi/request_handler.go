package httpapi

import (
	"context"
	"net/http"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type submitRequestRequest struct {
	OrganisationName string `json:"organisation_name"`
	EngagementType   string `json:"engagement_type" validate:"omitempty,oneof=consultation research advisory"`
	Urgency          string `json:"urgency" validate:"omitempty,oneof=standard urgent"`
	Brief            string `json:"brief" validate:"required"`
	Confidentiality  string `json:"confidentiality" validate:"omitempty,oneof=standard restricted"`
}

func (a *API) handleSubmitRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req submitRequestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	request, err := a.requests.SubmitRequest(r.Context(), callerID(r), service.SubmitRequestInput{
		OrganisationName: req.OrganisationName,
		EngagementType:   model.EngagementType(req.EngagementType),
		Urgency:          model.UrgencyLevel(req.Urgency),
		Brief:            req.Brief,
		Confidentiality:  model.ConfidentialityLevel(req.Confidentiality),
	})
	if err != nil {
		a.logError("submit request", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// handleListRequests lists the caller's own requests; admins may filter the
// whole book by status.
func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if callerRole(r) == model.RoleAdmin {
		status := model.RequestStatus(r.URL.Query().Get("status"))
		if status == "" {
			writeError(w, service.NewValidationError("status", "query parameter is required"))
			return
		}
		requests, err := a.requests.ListByStatus(r.Context(), callerID(r), status)
		if err != nil {
			a.logError("list requests", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
		return
	}

	requests, err := a.requests.ListForClient(r.Context(), callerID(r))
	if err != nil {
		a.logError("list requests", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	request, err := a.requests.GetByID(r.Context(), id, callerID(r))
	if err != nil {
		a.logError("get request", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (a *API) handleProgressTrail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := a.requests.ProgressTrail(r.Context(), id, callerID(r))
	if err != nil {
		a.logError("progress trail", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (a *API) handleVisibleMatches(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	matches, err := a.requests.VisibleMatches(r.Context(), id, callerID(r))
	if err != nil {
		a.logError("visible matches", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (a *API) handleStartReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.requestAction(w, r, ps, "start review", a.requests.StartReview)
}

func (a *API) handleStartWork(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.requestAction(w, r, ps, "start work", a.requests.StartWork)
}

func (a *API) handleCompleteWork(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.requestAction(w, r, ps, "complete work", a.requests.CompleteWork)
}

func (a *API) handleConfirmRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.requestAction(w, r, ps, "confirm request", a.requests.Confirm)
}

func (a *API) handleExpireRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.requestAction(w, r, ps, "expire request", a.requests.Expire)
}

func (a *API) requestAction(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op string,
	action func(ctx context.Context, requestID, actorID uuid.UUID) error,
) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := action(r.Context(), id, callerID(r)); err != nil {
		a.logError(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleShortlist(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		ExpertID     string `json:"expert_id" validate:"required,uuid4"`
		NoteToClient string `json:"note_to_client"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	expertID, _ := uuid.Parse(req.ExpertID)
	match, err := a.requests.ShortlistExpert(r.Context(), id, callerID(r), expertID, req.NoteToClient)
	if err != nil {
		a.logError("shortlist expert", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

func (a *API) handleSendProposal(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		MatchID       string `json:"match_id" validate:"required,uuid4"`
		ProposedPrice int64  `json:"proposed_price" validate:"gte=0"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	matchID, _ := uuid.Parse(req.MatchID)
	if err := a.requests.SendProposal(r.Context(), id, callerID(r), matchID, req.ProposedPrice); err != nil {
		a.logError("send proposal", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleCancelRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.requests.Cancel(r.Context(), id, callerID(r), req.Reason); err != nil {
		a.logError("cancel request", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleRespondToMatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.requests.RespondToMatch(r.Context(), id, callerID(r), req.Accept); err != nil {
		a.logError("respond to match", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": req.Accept})
}
