package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTelemetryDetectsUISource(t *testing.T) {
	var gotSource string
	handler := Telemetry(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSource = SourceFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client", "UI")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotSource != "ui" {
		t.Fatalf("source = %q, want ui", gotSource)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotSource != "api" {
		t.Fatalf("source = %q, want api", gotSource)
	}
}

func TestTelemetryCountryLookup(t *testing.T) {
	var gotCountry string
	handler := Telemetry(func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			return "", errors.New("unexpected ip")
		}
		return "nl", nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCountry = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotCountry != "NL" {
		t.Fatalf("country = %q, want NL", gotCountry)
	}
}

func TestTelemetryLookupFailureIgnored(t *testing.T) {
	called := false
	handler := Telemetry(func(ip string) (string, error) {
		return "", errors.New("database unavailable")
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if CountryFromContext(r.Context()) != "" {
			t.Error("country set despite lookup failure")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("handler not reached")
	}
}

func TestTelemetryLocaleNegotiation(t *testing.T) {
	var gotLocale string
	handler := Telemetry(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.5")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotLocale != "id" {
		t.Fatalf("locale = %q, want id", gotLocale)
	}

	// X-Locale overrides Accept-Language.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Locale", "de")
	req.Header.Set("Accept-Language", "fr-FR")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotLocale != "de" {
		t.Fatalf("locale = %q, want de", gotLocale)
	}

	// No headers falls back to English.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotLocale != "en" {
		t.Fatalf("locale = %q, want en", gotLocale)
	}
}

func TestClientIPPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.4:1234"
	if got := ClientIP(r); got != "192.0.2.4" {
		t.Fatalf("ClientIP = %q, want 192.0.2.4", got)
	}
	r.Header.Set("X-Real-IP", "198.51.100.7")
	if got := ClientIP(r); got != "198.51.100.7" {
		t.Fatalf("ClientIP = %q, want X-Real-IP value", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Fatalf("ClientIP = %q, want first forwarded hop", got)
	}
}
