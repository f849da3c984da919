// Package middleware carries per-request context used by telemetry: the
// request source (API client vs the web UI) and a best-effort country code.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type sourceContextKey struct{}
type countryContextKey struct{}
type localeContextKey struct{}

var (
	SourceKey  = sourceContextKey{}
	CountryKey = countryContextKey{}
	LocaleKey  = localeContextKey{}
)

// localeMatcher picks the closest supported UI language. English is first and
// therefore the fallback.
var localeMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Indonesian,
	language.Spanish,
	language.Portuguese,
	language.German,
	language.French,
	language.Japanese,
})

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Telemetry classifies the request source and, when a lookup is configured,
// resolves the caller's country. Both land in the request context and are
// attached to emitted metric records. Lookup failures are ignored; telemetry
// enrichment never blocks a request.
func Telemetry(lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), SourceKey, detectSource(r))
			ctx = context.WithValue(ctx, LocaleKey, detectLocale(r))
			if lookup != nil {
				if country, err := lookup(ClientIP(r)); err == nil && country != "" {
					ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectSource distinguishes the bundled web UI from direct API callers.
// The UI tags its requests; everything else counts as API traffic.
func detectSource(r *http.Request) string {
	if strings.EqualFold(r.Header.Get("X-Client"), "ui") {
		return "ui"
	}
	if strings.Contains(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return "ui"
	}
	return "api"
}

// detectLocale negotiates the caller's language from the X-Locale override or
// the Accept-Language header. Only the base language is kept; it is a
// telemetry hint, not a localization decision.
func detectLocale(r *http.Request) string {
	tag, _ := language.MatchStrings(localeMatcher, r.Header.Get("X-Locale"), r.Header.Get("Accept-Language"))
	base, _ := tag.Base()
	return base.String()
}

// SourceFromContext returns the request source, defaulting to "api".
func SourceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(SourceKey).(string); ok && v != "" {
		return v
	}
	return "api"
}

// LocaleFromContext returns the negotiated base language, defaulting to "en".
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

// CountryFromContext returns the resolved country code, or "".
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
