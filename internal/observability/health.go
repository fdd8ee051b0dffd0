package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck reports whether a subsystem is ready; nil means ready.
type ReadyCheck func(ctx context.Context) error

// SearchState is the live view of a search served next to the health status.
// It never carries the recovered password.
type SearchState struct {
	Searching bool   `json:"searching"`
	Found     bool   `json:"found"`
	Attempts  uint64 `json:"attempts"`
}

// StateFunc returns the current search state.
type StateFunc func() SearchState

type healthBody struct {
	Status string       `json:"status"`
	Reason string       `json:"reason,omitempty"`
	Search *SearchState `json:"search,omitempty"`
}

// HealthHandler returns the liveness handler for /healthz. It always
// answers 200 and includes the search state when state is non-nil.
func HealthHandler(state StateFunc) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, healthBody{Status: healthStatusOK}, state)
	})
}

// ReadyHandler returns the readiness handler for /readyz. The first failing
// check turns the answer into 503 with the check error as reason.
func ReadyHandler(state StateFunc, checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		for _, check := range checks {
			err := check(hr.Context())
			if err != nil {
				body := healthBody{Status: healthStatusUnavailable, Reason: err.Error()}
				writeHealth(rw, http.StatusServiceUnavailable, body, state)

				return
			}
		}

		writeHealth(rw, http.StatusOK, healthBody{Status: healthStatusOK}, state)
	})
}

func writeHealth(rw http.ResponseWriter, code int, body healthBody, state StateFunc) {
	if state != nil {
		s := state()
		body.Search = &s
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(body)
}
