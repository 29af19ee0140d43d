package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kurofune-app/bakumap/backend/internal/pins"
)

func newTestHandler(t *testing.T) (*pins.Store, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := pins.NewStore(pins.StoreConfig{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}
	t.Cleanup(store.Close)
	handler, err := NewHTTPHandler(Dependencies{Store: store, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return store, handler
}

func performRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
}

func TestNewHTTPHandlerRequiresStore(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{Logger: zap.NewNop()}); err == nil {
		t.Fatalf("expected missing store error")
	}
}

func TestHandleHealthReportsOK(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodGet, "/health", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestHandleListPersonsIncludesBuiltins(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodGet, "/catalog/persons", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload struct {
		Persons map[string]struct {
			NameKanji string `json:"nameKanji"`
		} `json:"persons"`
	}
	decodeBody(t, recorder, &payload)
	ryoma, ok := payload.Persons["ryoma"]
	if !ok {
		t.Fatalf("expected ryoma in persons, got %d entries", len(payload.Persons))
	}
	if ryoma.NameKanji != "坂本龍馬" {
		t.Fatalf("unexpected kanji name: %s", ryoma.NameKanji)
	}
}

func TestHandleListFactionsReturnsAllFactions(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodGet, "/catalog/factions", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload struct {
		Factions []struct {
			ID string `json:"id"`
		} `json:"factions"`
	}
	decodeBody(t, recorder, &payload)
	if len(payload.Factions) != 6 {
		t.Fatalf("expected 6 factions, got %d", len(payload.Factions))
	}
}

func TestHandleListEventsUsesCurrentSelection(t *testing.T) {
	store, handler := newTestHandler(t)
	store.SetSelectedYear(1853)

	recorder := performRequest(handler, http.MethodGet, "/events", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload struct {
		SelectedYear int `json:"selectedYear"`
		Events       []struct {
			Year int `json:"year"`
		} `json:"events"`
	}
	decodeBody(t, recorder, &payload)
	if payload.SelectedYear != 1853 {
		t.Fatalf("unexpected selected year: %d", payload.SelectedYear)
	}
	if len(payload.Events) == 0 {
		t.Fatalf("expected events for 1853")
	}
	for _, event := range payload.Events {
		if event.Year != 1853 {
			t.Fatalf("event outside selected year: %d", event.Year)
		}
	}
}

func TestHandleListEventsSerializesEmptyViewAsEmptyArray(t *testing.T) {
	store, handler := newTestHandler(t)
	store.SetSelectedPersons([]string{"no-such-person"})

	recorder := performRequest(handler, http.MethodGet, "/events", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"events":[]`) {
		t.Fatalf("empty view not serialized as array: %s", recorder.Body.String())
	}
}

func TestHandleGetEventReturnsNotFoundForUnknownID(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodGet, "/events/no-such-event", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	expected := `{"error":"event_not_found"}`
	if recorder.Body.String() != expected {
		t.Fatalf("unexpected response body: %s", recorder.Body.String())
	}
}

func TestHandleSetYearClampsOutOfRangeValues(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodPut, "/selection/year", `{"year":1900}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload struct {
		SelectedYear int `json:"selectedYear"`
	}
	decodeBody(t, recorder, &payload)
	if payload.SelectedYear != 1869 {
		t.Fatalf("expected clamp to 1869, got %d", payload.SelectedYear)
	}
}

func TestHandleSetYearRejectsMissingYear(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodPut, "/selection/year", `{}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestHandleSetPersonsSnapsYearToNearestMatch(t *testing.T) {
	store, handler := newTestHandler(t)
	store.SetSelectedYear(1869)

	recorder := performRequest(handler, http.MethodPut, "/selection/persons", `{"personIds":["yoshida"]}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload struct {
		SelectedYear    int      `json:"selectedYear"`
		SelectedPersons []string `json:"selectedPersons"`
	}
	decodeBody(t, recorder, &payload)
	if len(payload.SelectedPersons) != 1 || payload.SelectedPersons[0] != "yoshida" {
		t.Fatalf("unexpected person filter: %v", payload.SelectedPersons)
	}
	if payload.SelectedYear == 1869 {
		t.Fatalf("expected year to snap away from 1869")
	}
}

func TestHandleTogglePersonAddsAndRemoves(t *testing.T) {
	store, handler := newTestHandler(t)

	recorder := performRequest(handler, http.MethodPost, "/selection/persons/ryoma/toggle", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if selected := store.SelectedPersons(); len(selected) != 1 || selected[0] != "ryoma" {
		t.Fatalf("unexpected selection after first toggle: %v", selected)
	}

	performRequest(handler, http.MethodPost, "/selection/persons/ryoma/toggle", "")
	if selected := store.SelectedPersons(); len(selected) != 0 {
		t.Fatalf("unexpected selection after second toggle: %v", selected)
	}
}

func TestHandleYearNavigationMovesAcrossYears(t *testing.T) {
	store, handler := newTestHandler(t)
	store.SetSelectedYear(1853)

	recorder := performRequest(handler, http.MethodPost, "/selection/year/next", "")
	var payload struct {
		SelectedYear int `json:"selectedYear"`
	}
	decodeBody(t, recorder, &payload)
	if payload.SelectedYear <= 1853 {
		t.Fatalf("expected next year after 1853, got %d", payload.SelectedYear)
	}

	recorder = performRequest(handler, http.MethodPost, "/selection/year/prev", "")
	decodeBody(t, recorder, &payload)
	if payload.SelectedYear != 1853 {
		t.Fatalf("expected to return to 1853, got %d", payload.SelectedYear)
	}
}

func TestHandleListYearsReturnsAscendingYears(t *testing.T) {
	_, handler := newTestHandler(t)
	recorder := performRequest(handler, http.MethodGet, "/events/years", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var payload struct {
		Years    []int `json:"years"`
		AllYears []int `json:"allYears"`
	}
	decodeBody(t, recorder, &payload)
	if len(payload.Years) == 0 || len(payload.AllYears) == 0 {
		t.Fatalf("expected non-empty year lists")
	}
	for i := 1; i < len(payload.AllYears); i++ {
		if payload.AllYears[i-1] >= payload.AllYears[i] {
			t.Fatalf("years not ascending: %v", payload.AllYears)
		}
	}
}

func TestRouterAllowsCrossOriginRequests(t *testing.T) {
	_, handler := newTestHandler(t)
	request := httptest.NewRequest(http.MethodOptions, "/events", http.NoBody)
	request.Header.Set("Origin", "http://localhost:19006")
	request.Header.Set("Access-Control-Request-Method", http.MethodGet)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected preflight status: %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing allow-origin header")
	}
}
