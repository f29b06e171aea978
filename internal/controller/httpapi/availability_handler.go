package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/julienschmidt/httprouter"
)

type createRuleRequest struct {
	DayOfWeek   int `json:"day_of_week" validate:"gte=0,lte=6"`
	StartMinute int `json:"start_minute" validate:"gte=0,lt=1440"`
	EndMinute   int `json:"end_minute" validate:"gt=0,lte=1440"`
	HorizonDays int `json:"horizon_days"`
}

// callerProfile resolves the authenticated user's expert profile. Availability
// routes act on the caller's own calendar only.
func (a *API) callerProfile(w http.ResponseWriter, r *http.Request) (*model.ExpertProfile, bool) {
	profile, err := a.experts.GetByUserID(r.Context(), callerID(r))
	if err != nil {
		a.logError("resolve profile", err)
		writeError(w, err)
		return nil, false
	}
	return profile, true
}

func (a *API) handleListRules(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	rules, err := a.availability.ListRules(r.Context(), profile.ID)
	if err != nil {
		a.logError("list rules", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (a *API) handleCreateRule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	var req createRuleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}
	if req.HorizonDays == 0 {
		req.HorizonDays = model.DefaultHorizonDays
	}

	rule, err := a.availability.CreateRule(r.Context(), profile.ID, req.DayOfWeek, req.StartMinute, req.EndMinute, req.HorizonDays)
	if err != nil {
		a.logError("create rule", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (a *API) handleSetRuleActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	ruleID, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.availability.SetRuleActive(r.Context(), profile.ID, ruleID, req.Active); err != nil {
		a.logError("set rule active", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (a *API) handleDeleteRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	ruleID, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.availability.DeleteRule(r.Context(), profile.ID, ruleID); err != nil {
		a.logError("delete rule", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleListExceptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	exceptions, err := a.availability.ListExceptions(r.Context(), profile.ID, from, to)
	if err != nil {
		a.logError("list exceptions", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exceptions)
}

func (a *API) handleBlockDate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	var req struct {
		Date   string `json:"date" validate:"required"`
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, service.NewValidationError("date", "must be YYYY-MM-DD"))
		return
	}

	exception, err := a.availability.BlockDate(r.Context(), profile.ID, date, req.Reason)
	if err != nil {
		a.logError("block date", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exception)
}

func (a *API) handleUnblockDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	profile, ok := a.callerProfile(w, r)
	if !ok {
		return
	}
	exceptionID, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.availability.UnblockDate(r.Context(), profile.ID, exceptionID); err != nil {
		a.logError("unblock date", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleExpertSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	expertID, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	slots, err := a.availability.Schedule(r.Context(), expertID, from, to)
	if err != nil {
		a.logError("expert schedule", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (a *API) handleExpertWindows(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	expertID, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		writeError(w, service.NewValidationError("duration", "must be an integer number of minutes"))
		return
	}

	windows, err := a.bookings.FindAvailableWindows(r.Context(), expertID, from, to, duration)
	if err != nil {
		a.logError("expert windows", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

// dateRange parses optional from/to query params, defaulting to the next 30
// days.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 0, model.DefaultHorizonDays)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, service.NewValidationError("from", "must be YYYY-MM-DD")
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, service.NewValidationError("to", "must be YYYY-MM-DD")
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, service.NewValidationError("to", "must be after from")
	}
	return from, to, nil
}
