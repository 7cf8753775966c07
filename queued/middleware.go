package queued

import (
	"encoding/json"
	"net/http"
)

// requireSecret wraps next so every request must carry the configured
// request_secret as a query parameter; a missing or wrong secret short
// circuits with {"error":"bad_secret"} before next ever runs.
func (d *Daemon) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := d.cfg.Get().Queue.RequestSecret
		got := r.URL.Query().Get("secret")
		if want == "" || got != want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad_secret"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
