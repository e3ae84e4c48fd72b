package market

import (
	"net/http"
	"net/url"
)

// OriginChecker is the WebSocket origin policy matching the HTTP CORS
// rules. Outside production every origin is accepted (nil). In production
// a browser origin must be the serving host itself or on allowed, so an
// empty list means same-origin only.
func OriginChecker(production bool, allowed []string) func(r *http.Request) bool {
	if !production {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
