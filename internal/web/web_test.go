package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allycal/internal/config"
	"allycal/internal/model"
	"allycal/internal/store"
	"allycal/internal/template"
	"allycal/internal/view"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.AllianceID = "a1"

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rules := store.NewRuleStore(db)
	exceptions := store.NewExceptionStore(db)
	templates := store.NewTemplateStore(db)
	runner := template.NewRunner(templates, rules)
	window := view.New(rules, exceptions, model.Scope{AllianceID: "a1", IncludePersonal: true})

	return NewServer(cfg, rules, exceptions, templates, runner, window)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createRule(t *testing.T, h http.Handler) ruleDTO {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/rules", ruleRequest{
		Title:      "raid night",
		StartDate:  "2024-01-01",
		StartTime:  "20:00",
		EndTime:    "22:00",
		Frequency:  "weekly",
		DaysOfWeek: []int{1, 3},
		Visibility: "alliance",
		AllianceID: "a1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ruleDTO](t, rec)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRuleCreateAndGet(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	created := createRule(t, h)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []int{1, 3}, created.DaysOfWeek)

	rec := doJSON(t, h, http.MethodGet, "/api/rules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ruleDTO](t, rec)
	assert.Equal(t, created, got)
}

func TestRuleCreateValidationError(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/rules", ruleRequest{
		Title:      "   ",
		StartDate:  "2024-01-01",
		Frequency:  "weekly",
		Visibility: "personal",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "title")
}

func TestRuleGetMissing(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/rules/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRulePatch(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	created := createRule(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/api/rules/"+created.ID, map[string]any{
		"title":        "war council",
		"days_of_week": []int{5},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[ruleDTO](t, rec)
	assert.Equal(t, "war council", got.Title)
	assert.Equal(t, []int{5}, got.DaysOfWeek)
	assert.Equal(t, "20:00", got.StartTime)
}

func TestRulePatchBlankTitleRejected(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	created := createRule(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/api/rules/"+created.ID, map[string]any{
		"title": "   ",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "title")

	rec = doJSON(t, h, http.MethodGet, "/api/rules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ruleDTO](t, rec)
	assert.Equal(t, "raid night", got.Title)
}

func TestRulePatchFrequencyChangeKeepsRuleExpandable(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/rules", ruleRequest{
		Title:      "daily muster",
		StartDate:  "2024-01-01",
		StartTime:  "09:00",
		Frequency:  "daily",
		Visibility: "alliance",
		AllianceID: "a1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[ruleDTO](t, rec)

	rec = doJSON(t, h, http.MethodPatch, "/api/rules/"+created.ID, map[string]any{
		"frequency": "weekly",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[ruleDTO](t, rec)
	assert.Equal(t, "weekly", got.Frequency)
	// The start-date weekday is substituted, so the patched rule still
	// expands instead of being dropped from every window as malformed.
	assert.Equal(t, []int{1}, got.DaysOfWeek)

	rec = doJSON(t, h, http.MethodGet, "/api/occurrences?start=2024-01-01&end=2024-01-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[occurrencesResponse](t, rec)
	assert.Empty(t, resp.SkippedRuleIDs)
	require.Len(t, resp.Occurrences, 2)
	assert.Equal(t, "2024-01-01", resp.Occurrences[0].EffectiveDate)
	assert.Equal(t, "2024-01-08", resp.Occurrences[1].EffectiveDate)
}

func TestRuleDelete(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	created := createRule(t, h)

	rec := doJSON(t, h, http.MethodDelete, "/api/rules/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/rules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOccurrencesWindowWithSkipAndOverride(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	created := createRule(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/rules/"+created.ID+"/skip",
		skipRequest{OccurrenceDate: "2024-01-03"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	newDate := "2024-01-09"
	rec = doJSON(t, h, http.MethodPost, "/api/rules/"+created.ID+"/override",
		overrideRequest{OccurrenceDate: "2024-01-08", NewDate: &newDate})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/occurrences?start=2024-01-01&end=2024-01-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[occurrencesResponse](t, rec)

	var got []string
	var origins []string
	for _, occ := range resp.Occurrences {
		got = append(got, occ.EffectiveDate)
		origins = append(origins, occ.Origin)
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-09", "2024-01-10"}, got)
	assert.Equal(t, []string{"generated", "moved", "generated"}, origins)
}

func TestOccurrencesInvertedRange(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet,
		"/api/occurrences?start=2024-01-14&end=2024-01-01", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "before start")
}

func TestSkipUnknownRule(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/rules/nope/skip",
		skipRequest{OccurrenceDate: "2024-01-03"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExceptionListAndDelete(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	created := createRule(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/rules/"+created.ID+"/skip",
		skipRequest{OccurrenceDate: "2024-01-03"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/exceptions?rule_id="+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]exceptionDTO](t, rec)
	require.Len(t, list["exceptions"], 1)
	assert.Equal(t, "skip", list["exceptions"][0].Action)

	rec = doJSON(t, h, http.MethodDelete, "/api/rules/"+created.ID+"/exceptions/2024-01-03", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/exceptions?rule_id="+created.ID, nil)
	list = decode[map[string][]exceptionDTO](t, rec)
	assert.Empty(t, list["exceptions"])
}

func TestTemplateRunIdempotentOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/templates", templateRequest{
		Title:      "muster",
		StartTime:  "18:00",
		Frequency:  "weekly",
		DaysOfWeek: []int{6},
		Visibility: "alliance",
		AllianceID: "a1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	tpl := decode[map[string]string](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/templates/"+tpl["id"]+"/run",
		templateRunRequest{RunDate: "2024-02-03"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[ruleDTO](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/templates/"+tpl["id"]+"/run",
		templateRunRequest{RunDate: "2024-02-03"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[ruleDTO](t, rec)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2024-02-03", first.StartDate)
}

func TestCalendarICSDownload(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	createRule(t, h)

	rec := doJSON(t, h, http.MethodGet, "/calendar.ics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
}

func TestRulesICSDownload(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()
	createRule(t, h)

	rec := doJSON(t, h, http.MethodGet, "/rules.ics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FREQ=WEEKLY")
}

func TestBasicAuthGuardsAPIButNotHealth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "warden", Password: "keep"}
	s := newTestServer(t, cfg)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/occurrences", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/occurrences", nil)
	req.SetBasicAuth("warden", "keep")
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}
