package httpapi

import (
	"context"
	"net/http"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type applyExpertRequest struct {
	Headline        string `json:"headline" validate:"required"`
	Bio             string `json:"bio"`
	Timezone        string `json:"timezone"`
	YearsExperience int    `json:"years_experience" validate:"gte=0"`
	HourlyRate      int64  `json:"hourly_rate" validate:"gte=0"`
	Currency        string `json:"currency"`
}

type reviewNotesRequest struct {
	Notes string `json:"notes"`
}

func pathID(ps httprouter.Params) (uuid.UUID, error) {
	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		return uuid.Nil, service.NewValidationError("id", "must be a UUID")
	}
	return id, nil
}

func (a *API) handleListExperts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	profiles, err := a.experts.ListBookable(r.Context())
	if err != nil {
		a.logError("list experts", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (a *API) handleGetExpert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := a.experts.GetByID(r.Context(), id)
	if err != nil {
		a.logError("get expert", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleApplyExpert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req applyExpertRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := a.experts.Apply(r.Context(), callerID(r), service.ApplyInput{
		Headline:        req.Headline,
		Bio:             req.Bio,
		Timezone:        req.Timezone,
		YearsExperience: req.YearsExperience,
		HourlyRate:      req.HourlyRate,
		Currency:        req.Currency,
	})
	if err != nil {
		a.logError("apply expert", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (a *API) handleVetExpert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.verificationAction(w, r, ps, a.experts.Vet)
}

func (a *API) handleRequestChanges(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.verificationAction(w, r, ps, a.experts.RequestChanges)
}

func (a *API) handleRejectExpert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.verificationAction(w, r, ps, a.experts.Reject)
}

func (a *API) verificationAction(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	action func(ctx context.Context, profileID, adminID uuid.UUID, notes string) error,
) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reviewNotesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := action(r.Context(), id, callerID(r), req.Notes); err != nil {
		a.logError("expert verification", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleActivateExpert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.experts.Activate(r.Context(), id, callerID(r)); err != nil {
		a.logError("activate expert", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReapplyExpert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.experts.Reapply(r.Context(), id, callerID(r)); err != nil {
		a.logError("reapply expert", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleListTags(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tags, err := a.experts.ListTags(r.Context())
	if err != nil {
		a.logError("list tags", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *API) handleCreateTag(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Name string `json:"name" validate:"required"`
		Type string `json:"type" validate:"required,oneof=discipline industry"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	tag, err := a.experts.CreateTag(r.Context(), callerID(r), req.Name, model.TagType(req.Type))
	if err != nil {
		a.logError("create tag", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (a *API) handleTagExpert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Slug string `json:"slug" validate:"required"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	if err := a.experts.TagExpert(r.Context(), id, callerID(r), req.Slug); err != nil {
		a.logError("tag expert", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
