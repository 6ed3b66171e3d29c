package handler

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/osse101/BrandishProgression_Go/internal/logger"
)

const readinessTimeout = 2 * time.Second

// HealthResponse represents the response for health endpoints
type HealthResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Pinger is anything whose connectivity gates readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// HandleReadyz pings every dependency concurrently and reports ready only
// when all of them answer. A nil dependency (the in-memory store) is skipped.
func HandleReadyz(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			checks = make(map[string]string, len(deps))
			failed []string
		)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			wg.Add(1)
			go func(name string, dep Pinger) {
				defer wg.Done()
				err := dep.Ping(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.FromContext(ctx).Error("Readiness check failed", "dependency", name, "error", err)
					checks[name] = "unavailable"
					failed = append(failed, name)
					return
				}
				checks[name] = "ok"
			}(name, dep)
		}
		wg.Wait()

		if len(checks) == 0 {
			checks = nil
		}
		if len(failed) > 0 {
			sort.Strings(failed)
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "unavailable",
				Message: strings.Join(failed, ", ") + " connection failed",
				Checks:  checks,
			})
			return
		}

		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
	}
}
