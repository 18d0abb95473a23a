package health

import (
	"encoding/json"
	"math"
	"net/http"
	"runtime"
	"strconv"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/rategate"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	// Version is the semantic version (e.g., "1.0.0")
	Version string `json:"version"`

	// Commit is the git commit hash
	Commit string `json:"commit"`

	// BuildTime is when the binary was built
	BuildTime string `json:"build_time"`

	// GoVersion is the Go version used to build
	GoVersion string `json:"go_version"`
}

// LivenessHandler returns an HTTP handler for the liveness probe endpoint.
//
// Example response:
//
//	{"status": "ok", "timestamp": "2026-01-20T10:30:00Z"}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler returns an HTTP handler for the readiness probe endpoint.
//
// Returns:
//   - 200 OK: every check passed
//   - 503 Service Unavailable: at least one check failed
//
// Example response (degraded):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "gates": {"status": "unhealthy", "message": "gates closed: mailer"}
//	    },
//	    "timestamp": "2026-01-20T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}

		status := c.CheckReadiness(r.Context())
		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler returns an HTTP handler reporting build information.
func VersionHandler(version, commit, buildTime string) http.HandlerFunc {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Mount registers the liveness, readiness and version handlers on mux at
// the paths configured in cfg.
func (c *Checker) Mount(mux *http.ServeMux, cfg config.HealthConfig, info VersionInfo) {
	mux.HandleFunc(cfg.LivenessPath, c.LivenessHandler())
	mux.HandleFunc(cfg.ReadinessPath, c.ReadinessHandler())
	mux.HandleFunc(cfg.VersionPath, VersionHandler(info.Version, info.Commit, info.BuildTime))
}

// RateLimitedHandler admits at most gate's configured occurrences per time
// unit to handler and answers 429 to the rest without waiting, with a
// Retry-After of one time unit in whole seconds. A closed gate answers 503.
//
// Usage:
//
//	gate, _ := rategate.New(10, time.Second)
//	mux.Handle("/readyz", health.RateLimitedHandler(checker.ReadinessHandler(), gate))
func RateLimitedHandler(handler http.Handler, gate *rategate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := gate.TryProceed()
		switch {
		case err != nil:
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		case !ok:
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(gate.TimeUnit().Seconds()))))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		default:
			handler.ServeHTTP(w, r)
		}
	}
}

func allowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
