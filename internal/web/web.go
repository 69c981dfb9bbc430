// Package web exposes the scheduler over a small JSON API plus an iCalendar
// download. It owns no business logic: handlers validate input, call the
// engine/stores, and shape responses.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"allycal/internal/config"
	"allycal/internal/ics"
	appLog "allycal/internal/log"
	"allycal/internal/model"
	"allycal/internal/schedule"
	"allycal/internal/store"
	"allycal/internal/template"
	"allycal/internal/view"
)

// Server provides HTTP APIs for rules, exceptions, templates and the
// materialized occurrence window.
type Server struct {
	cfg        *config.Config
	rules      *store.RuleStore
	exceptions *store.ExceptionStore
	templates  *store.TemplateStore
	runner     *template.Runner
	window     *view.View
	router     *mux.Router
}

// NewServer constructs a Server wired to the given collaborators.
func NewServer(cfg *config.Config, rules *store.RuleStore, exceptions *store.ExceptionStore,
	templates *store.TemplateStore, runner *template.Runner, window *view.View) *Server {
	s := &Server{
		cfg:        cfg,
		rules:      rules,
		exceptions: exceptions,
		templates:  templates,
		runner:     runner,
		window:     window,
		router:     mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the server's http.Handler, with basic auth applied when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="allycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/api/occurrences", s.handleOccurrences).Methods(http.MethodGet)
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)

	s.router.HandleFunc("/api/rules", s.handleRuleCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/rules/{id}", s.handleRuleGet).Methods(http.MethodGet)
	s.router.HandleFunc("/api/rules/{id}", s.handleRuleUpdate).Methods(http.MethodPatch)
	s.router.HandleFunc("/api/rules/{id}", s.handleRuleDelete).Methods(http.MethodDelete)

	s.router.HandleFunc("/api/rules/{id}/skip", s.handleSkip).Methods(http.MethodPost)
	s.router.HandleFunc("/api/rules/{id}/override", s.handleOverride).Methods(http.MethodPost)
	s.router.HandleFunc("/api/rules/{id}/exceptions/{date}", s.handleExceptionDelete).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/exceptions", s.handleExceptionList).Methods(http.MethodGet)

	s.router.HandleFunc("/api/templates", s.handleTemplateCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/api/templates/{id}/run", s.handleTemplateRun).Methods(http.MethodPost)

	s.router.HandleFunc("/calendar.ics", s.handleCalendarICS).Methods(http.MethodGet)
	s.router.HandleFunc("/rules.ics", s.handleRulesICS).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// defaultWindow derives the served window from the configured backfill and
// horizon, anchored at today.
func (s *Server) defaultWindow() (time.Time, time.Time) {
	today := schedule.DateOf(time.Now().UTC())
	return today.AddDate(0, 0, -s.cfg.BackfillDays), today.AddDate(0, 0, s.cfg.HorizonDays)
}

// occurrenceDTO is the JSON-friendly view of an occurrence.
type occurrenceDTO struct {
	RuleID        string `json:"rule_id"`
	SourceDate    string `json:"source_date"`
	EffectiveDate string `json:"effective_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Visibility    string `json:"visibility"`
	AllianceID    string `json:"alliance_id,omitempty"`
	Origin        string `json:"origin"`
}

type occurrencesResponse struct {
	Occurrences    []occurrenceDTO `json:"occurrences"`
	RangeStart     string          `json:"range_start"`
	RangeEnd       string          `json:"range_end"`
	Generation     uint64          `json:"generation"`
	SkippedRuleIDs []string        `json:"skipped_rule_ids,omitempty"`
}

func snapshotResponse(snap *view.Snapshot) occurrencesResponse {
	dtos := make([]occurrenceDTO, 0, len(snap.Occurrences))
	for _, occ := range snap.Occurrences {
		dtos = append(dtos, occurrenceDTO{
			RuleID:        occ.RuleID,
			SourceDate:    schedule.FormatDate(occ.SourceDate),
			EffectiveDate: schedule.FormatDate(occ.EffectiveDate),
			StartTime:     occ.StartTime,
			EndTime:       occ.EndTime,
			Title:         occ.Title,
			Description:   occ.Description,
			Visibility:    string(occ.Visibility),
			AllianceID:    occ.AllianceID,
			Origin:        string(occ.Origin),
		})
	}
	return occurrencesResponse{
		Occurrences:    dtos,
		RangeStart:     schedule.FormatDate(snap.RangeStart),
		RangeEnd:       schedule.FormatDate(snap.RangeEnd),
		Generation:     snap.Generation,
		SkippedRuleIDs: snap.SkippedRuleIDs,
	}
}

// handleOccurrences returns the materialized window.
//
// GET /api/occurrences?start=YYYY-MM-DD&end=YYYY-MM-DD
//
// Without parameters the current snapshot is served (building it first if the
// server has never refreshed). With an explicit range, a fresh window is
// built; the view's generation counter decides whether it also replaces the
// served snapshot.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("start") == "" && q.Get("end") == "" {
		snap := s.window.Current()
		if snap == nil {
			start, end := s.defaultWindow()
			var err error
			snap, _, err = s.window.Refresh(r.Context(), start, end)
			if err != nil {
				appLog.Error("api occurrences: initial refresh failed", err)
				writeError(w, http.StatusInternalServerError, "failed to build occurrence window")
				return
			}
		}
		writeJSON(w, http.StatusOK, snapshotResponse(snap))
		return
	}

	start, err := schedule.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad start date")
		return
	}
	end, err := schedule.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad end date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end is before start")
		return
	}

	snap, _, err := s.window.Refresh(r.Context(), start, end)
	if err != nil {
		appLog.Error("api occurrences: refresh failed", err,
			"start", q.Get("start"), "end", q.Get("end"))
		writeError(w, http.StatusInternalServerError, "failed to build occurrence window")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(snap))
}

// handleRefresh rebuilds the default window immediately.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	start, end := s.defaultWindow()
	snap, applied, err := s.window.Refresh(r.Context(), start, end)
	if err != nil {
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied":    applied,
		"generation": snap.Generation,
	})
}

// refreshAfterWrite rebuilds the default window in the background so the
// snapshot reflects a mutation. The generation counter drops it if a newer
// refresh lands first.
func (s *Server) refreshAfterWrite() {
	start, end := s.defaultWindow()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, _, err := s.window.Refresh(ctx, start, end); err != nil {
			appLog.Error("background refresh after write failed", err)
		}
	}()
}

// ruleRequest is the JSON draft for creating a rule.
type ruleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Frequency   string `json:"frequency"`
	DaysOfWeek  []int  `json:"days_of_week"`
	Visibility  string `json:"visibility"`
	AllianceID  string `json:"alliance_id"`
}

type ruleDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Frequency   string `json:"frequency"`
	DaysOfWeek  []int  `json:"days_of_week,omitempty"`
	Visibility  string `json:"visibility"`
	AllianceID  string `json:"alliance_id,omitempty"`
}

func ruleToDTO(rule model.RecurrenceRule) ruleDTO {
	return ruleDTO{
		ID:          rule.ID,
		Title:       rule.Title,
		Description: rule.Description,
		StartDate:   schedule.FormatDate(rule.StartDate),
		StartTime:   rule.StartTime,
		EndTime:     rule.EndTime,
		Frequency:   string(rule.Frequency),
		DaysOfWeek:  rule.DaysOfWeek,
		Visibility:  string(rule.Visibility),
		AllianceID:  rule.AllianceID,
	}
}

func (s *Server) handleRuleCreate(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON body")
		return
	}

	startDate, err := schedule.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad start_date")
		return
	}

	draft := model.RuleDraft{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   startDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Frequency:   model.Frequency(req.Frequency),
		DaysOfWeek:  req.DaysOfWeek,
		Visibility:  model.Visibility(req.Visibility),
		AllianceID:  req.AllianceID,
	}

	rule, err := schedule.ValidateDraft(draft)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := s.rules.Create(r.Context(), rule)
	if err != nil {
		appLog.Error("api rule create failed", err)
		writeError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}

	rule.ID = id
	s.refreshAfterWrite()
	writeJSON(w, http.StatusCreated, ruleToDTO(rule))
}

func (s *Server) handleRuleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rule, err := s.rules.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleToDTO(rule))
}

// rulePatchRequest is a partial rule update; absent fields stay untouched.
type rulePatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Frequency   *string `json:"frequency"`
	DaysOfWeek  []int   `json:"days_of_week"`
	Visibility  *string `json:"visibility"`
	AllianceID  *string `json:"alliance_id"`
}

func (s *Server) handleRuleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req rulePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON body")
		return
	}

	patch := store.RulePatch{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		DaysOfWeek:  req.DaysOfWeek,
		AllianceID:  req.AllianceID,
	}
	if req.StartDate != nil {
		d, err := schedule.ParseDate(*req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad start_date")
			return
		}
		patch.StartDate = &d
	}
	if req.Frequency != nil {
		f := model.Frequency(*req.Frequency)
		if !f.Valid() {
			writeError(w, http.StatusBadRequest, "unknown frequency")
			return
		}
		patch.Frequency = &f
	}
	if req.Visibility != nil {
		v := model.Visibility(*req.Visibility)
		if !v.Valid() {
			writeError(w, http.StatusBadRequest, "unknown visibility")
			return
		}
		patch.Visibility = &v
	}

	if err := s.rules.Update(r.Context(), id, patch); err != nil {
		writeDomainError(w, err)
		return
	}

	rule, err := s.rules.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.refreshAfterWrite()
	writeJSON(w, http.StatusOK, ruleToDTO(rule))
}

func (s *Server) handleRuleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.rules.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.refreshAfterWrite()
	w.WriteHeader(http.StatusNoContent)
}

type skipRequest struct {
	OccurrenceDate string `json:"occurrence_date"`
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON body")
		return
	}
	occDate, err := schedule.ParseDate(req.OccurrenceDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad occurrence_date")
		return
	}

	// The rule must exist; the occurrence date is deliberately not checked
	// against the expansion, an orphaned exception is harmless.
	if _, err := s.rules.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.exceptions.UpsertSkip(r.Context(), id, occDate); err != nil {
		appLog.Error("api skip failed", err, "rule_id", id)
		writeError(w, http.StatusInternalServerError, "failed to record skip")
		return
	}
	s.refreshAfterWrite()
	w.WriteHeader(http.StatusNoContent)
}

type overrideRequest struct {
	OccurrenceDate string  `json:"occurrence_date"`
	NewDate        *string `json:"new_date"`
	NewStartTime   *string `json:"new_start_time"`
	NewEndTime     *string `json:"new_end_time"`
	NewTitle       *string `json:"new_title"`
	NewDescription *string `json:"new_description"`
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON body")
		return
	}
	occDate, err := schedule.ParseDate(req.OccurrenceDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad occurrence_date")
		return
	}

	fields := model.OverrideFields{
		NewStartTime:   req.NewStartTime,
		NewEndTime:     req.NewEndTime,
		NewTitle:       req.NewTitle,
		NewDescription: req.NewDescription,
	}
	if req.NewDate != nil {
		d, err := schedule.ParseDate(*req.NewDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad new_date")
			return
		}
		fields.NewDate = &d
	}

	if _, err := s.rules.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.exceptions.UpsertOverride(r.Context(), id, occDate, fields); err != nil {
		appLog.Error("api override failed", err, "rule_id", id)
		writeError(w, http.StatusInternalServerError, "failed to record override")
		return
	}
	s.refreshAfterWrite()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExceptionDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	occDate, err := schedule.ParseDate(vars["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad exception date")
		return
	}
	if err := s.exceptions.Delete(r.Context(), vars["id"], occDate); err != nil {
		appLog.Error("api exception delete failed", err, "rule_id", vars["id"])
		writeError(w, http.StatusInternalServerError, "failed to delete exception")
		return
	}
	s.refreshAfterWrite()
	w.WriteHeader(http.StatusNoContent)
}

type exceptionDTO struct {
	RuleID         string  `json:"rule_id"`
	OccurrenceDate string  `json:"occurrence_date"`
	Action         string  `json:"action"`
	NewDate        *string `json:"new_date,omitempty"`
	NewStartTime   *string `json:"new_start_time,omitempty"`
	NewEndTime     *string `json:"new_end_time,omitempty"`
	NewTitle       *string `json:"new_title,omitempty"`
	NewDescription *string `json:"new_description,omitempty"`
}

func (s *Server) handleExceptionList(w http.ResponseWriter, r *http.Request) {
	ruleID := r.URL.Query().Get("rule_id")
	if ruleID == "" {
		writeError(w, http.StatusBadRequest, "rule_id is required")
		return
	}

	exs, err := s.exceptions.ListForRuleIDs(r.Context(), []string{ruleID})
	if err != nil {
		appLog.Error("api exception list failed", err, "rule_id", ruleID)
		writeError(w, http.StatusInternalServerError, "failed to list exceptions")
		return
	}

	dtos := make([]exceptionDTO, 0, len(exs))
	for _, ex := range exs {
		dto := exceptionDTO{
			RuleID:         ex.RuleID,
			OccurrenceDate: schedule.FormatDate(ex.OccurrenceDate),
			Action:         string(ex.Action),
			NewStartTime:   ex.NewStartTime,
			NewEndTime:     ex.NewEndTime,
			NewTitle:       ex.NewTitle,
			NewDescription: ex.NewDescription,
		}
		if ex.NewDate != nil {
			d := schedule.FormatDate(*ex.NewDate)
			dto.NewDate = &d
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": dtos})
}

type templateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Frequency   string `json:"frequency"`
	DaysOfWeek  []int  `json:"days_of_week"`
	Visibility  string `json:"visibility"`
	AllianceID  string `json:"alliance_id"`
}

func (s *Server) handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON body")
		return
	}

	tpl := model.EventTemplate{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Frequency:   model.Frequency(req.Frequency),
		DaysOfWeek:  schedule.NormalizeDaysOfWeek(req.DaysOfWeek),
		Visibility:  model.Visibility(req.Visibility),
		AllianceID:  req.AllianceID,
	}
	id, err := s.templates.Create(r.Context(), tpl)
	if err != nil {
		appLog.Error("api template create failed", err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type templateRunRequest struct {
	RunDate string `json:"run_date"`
}

func (s *Server) handleTemplateRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req templateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad JSON body")
		return
	}
	runDate, err := schedule.ParseDate(req.RunDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad run_date")
		return
	}

	rule, err := s.runner.Run(r.Context(), id, runDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.refreshAfterWrite()
	writeJSON(w, http.StatusCreated, ruleToDTO(rule))
}

// handleCalendarICS serves the current snapshot as an iCalendar file.
func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	snap := s.window.Current()
	if snap == nil {
		start, end := s.defaultWindow()
		var err error
		snap, _, err = s.window.Refresh(r.Context(), start, end)
		if err != nil {
			appLog.Error("ics export: refresh failed", err)
			writeError(w, http.StatusInternalServerError, "failed to build occurrence window")
			return
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="allycal.ics"`)
	_, _ = w.Write([]byte(ics.ExportOccurrences(snap.Occurrences)))
}

// handleRulesICS serves the rule definitions as recurring VEVENTs.
func (s *Server) handleRulesICS(w http.ResponseWriter, r *http.Request) {
	start, end := s.defaultWindow()
	scope := model.Scope{AllianceID: s.cfg.AllianceID, IncludePersonal: true}
	rules, err := s.rules.ListForWindow(r.Context(), scope, start, end)
	if err != nil {
		appLog.Error("ics rules export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="allycal-rules.ics"`)
	_, _ = w.Write([]byte(ics.ExportRules(rules)))
}

// writeDomainError maps engine/store errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *schedule.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, schedule.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	default:
		appLog.Error("api request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
