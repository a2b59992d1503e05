package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrefRoundTrip(t *testing.T) {
	prefs := &stubPrefs{}
	router := testRouter(t, Deps{Prefs: prefs})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/prefs/theme", `{"mode":"dark"}`))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put: expected 204, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/prefs/theme", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"mode":"dark"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/prefs/theme", ""))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/prefs/theme", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestUnknownPrefRejected(t *testing.T) {
	router := testRouter(t, Deps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/prefs/cart", `{"items":[]}`))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-pref key, got %d", rec.Code)
	}
}

func TestRegistrationDraftRequiredFields(t *testing.T) {
	router := testRouter(t, Deps{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/prefs/registration-draft", `{"email":"a@b.com"}`))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "nome") {
		t.Fatalf("error should name the missing field: %s", rec.Body.String())
	}
}

func TestRegistrationDraftPasswordMismatch(t *testing.T) {
	router := testRouter(t, Deps{})

	body := `{"nome":"Ana","email":"a@b.com","senha":"abc12345","confirmacaoSenha":"abc12346"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/prefs/registration-draft", body))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "match") {
		t.Fatalf("unexpected error: %s", rec.Body.String())
	}
}

func TestRegistrationDraftNeverStoresCredentials(t *testing.T) {
	prefs := &stubPrefs{}
	router := testRouter(t, Deps{Prefs: prefs})

	body := `{"nome":"Ana","email":"a@b.com","senha":"abc12345","confirmacaoSenha":"abc12345"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/prefs/registration-draft", body))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(prefs.values) != 0 {
		t.Fatalf("draft with credentials must not be stored: %v", prefs.values)
	}
}

func TestRegistrationDraftAccepted(t *testing.T) {
	prefs := &stubPrefs{}
	router := testRouter(t, Deps{Prefs: prefs})

	body := `{"nome":"Ana","email":"a@b.com","telefone":"11999990000"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPut, "/prefs/registration-draft", body))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(prefs.values) != 1 {
		t.Fatalf("expected draft stored, got %v", prefs.values)
	}
}
