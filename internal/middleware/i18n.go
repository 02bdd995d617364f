package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	localeKey  = localeContextKey{}
	countryKey = countryContextKey{}
)

// supportedLocales are the UI locales the service understands.
var supportedLocales = map[string]struct{}{"en": {}, "uz": {}, "ru": {}}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the caller's locale and country in the request context. The
// locale feeds the default deck language when a request doesn't name one.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), localeKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, countryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback, country string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return normalizeLocale(v)
	}
	if v := parseAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	switch strings.ToUpper(country) {
	case "UZ":
		return "uz"
	case "RU", "BY", "KZ":
		return "ru"
	}
	if country != "" {
		return "en"
	}
	if fallback != "" {
		return normalizeLocale(fallback)
	}
	return "en"
}

func parseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		locale := strings.TrimSpace(strings.Split(part, ";")[0])
		if locale == "" {
			continue
		}
		return normalizeLocale(locale)
	}
	return ""
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		locale = locale[:idx]
	}
	if _, ok := supportedLocales[locale]; ok {
		return locale
	}
	return "en"
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	headerHints := []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
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
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the detected UI locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryKey).(string); ok {
		return v
	}
	return ""
}

// LanguageDisplayName converts a BCP 47 tag or bare locale into the English
// display name embedded in generation prompts ("uz" -> "Uzbek"). Unparseable
// input is returned as-is so explicit free-form names still work.
func LanguageDisplayName(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "English"
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	name := display.English.Languages().Name(parsed)
	if name == "" {
		return tag
	}
	return name
}
