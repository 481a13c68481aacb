package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Check pings one dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Result struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Report struct {
	Status string   `json:"status"`
	Checks []Result `json:"checks,omitempty"`
}

// Live answers liveness probes; it never touches dependencies.
func Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every check under a shared timeout and answers 503 if any fails.
func Ready(timeout time.Duration, checks ...Check) http.HandlerFunc {
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report := Report{Status: "ready"}
		status := http.StatusOK
		for _, c := range checks {
			res := Result{Name: c.Name, OK: true}
			if err := c.Ping(ctx); err != nil {
				res.OK = false
				res.Error = err.Error()
				report.Status = "not ready"
				status = http.StatusServiceUnavailable
			}
			report.Checks = append(report.Checks, res)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}
