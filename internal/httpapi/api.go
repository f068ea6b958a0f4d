package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"hirehub.dev/internal/assets"
	"hirehub.dev/internal/auth"
	"hirehub.dev/internal/board"
	"hirehub.dev/internal/ids"
	"hirehub.dev/internal/obs"
)

const (
	maxJSONBytes = 1 << 20
	// uploads carry multipart framing on top of the image itself
	maxRequestBytes = assets.MaxUploadBytes + 1<<20
)

// Pinger reports backend reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks dependencies before reporting ready.
type ReadyProbe struct {
	DB Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.Ping(ctx)
}

// API is the HTTP surface of the job board.
type API struct {
	mux        *http.ServeMux
	svc        *board.Service
	authority  *auth.Authority
	assets     assets.Store
	readyProbe ReadyProbe
	version    string
	log        *zap.Logger

	rateBurst   int
	ratePerSec  float64
	corsOrigins []string
}

// Option configures API.
type Option func(*API)

// WithAssetStore enables the upload and delete endpoints.
func WithAssetStore(s assets.Store) Option {
	return func(a *API) { a.assets = s }
}

// WithReadyProbe sets the readiness check.
func WithReadyProbe(rp ReadyProbe) Option {
	return func(a *API) { a.readyProbe = rp }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// WithRateLimit sets the per-IP token bucket.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(a *API) {
		if perSecond > 0 && burst > 0 {
			a.ratePerSec = perSecond
			a.rateBurst = burst
		}
	}
}

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

// WithLogger sets the logger used for unexpected failures.
func WithLogger(l *zap.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.log = l
		}
	}
}

func New(svc *board.Service, authority *auth.Authority, opts ...Option) *API {
	a := &API{
		mux:         http.NewServeMux(),
		svc:         svc,
		authority:   authority,
		version:     "dev",
		log:         obs.Logger(),
		rateBurst:   40,
		ratePerSec:  20,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	a.mux.HandleFunc("POST /v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /v1/auth/login", a.handleLogin)

	a.mux.HandleFunc("POST /v1/users/candidate", a.handleCreateCandidate)
	a.mux.HandleFunc("GET /v1/users/{id}", a.protected(a.handleGetUser))

	a.mux.HandleFunc("POST /v1/organizations", a.handleCreateOrganization)
	a.mux.HandleFunc("GET /v1/organizations", a.handleListOrganizations)
	a.mux.HandleFunc("GET /v1/organizations/{id}", a.handleGetOrganization)
	a.mux.HandleFunc("PATCH /v1/organizations/{id}", a.protected(a.handleUpdateOrganization))
	a.mux.HandleFunc("GET /v1/organizations/{id}/jobs", a.handleListJobs)
	a.mux.HandleFunc("GET /v1/organizations/{id}/jobs/analytics", a.protected(a.handleJobAnalytics))
	a.mux.HandleFunc("GET /v1/organizations/{id}/applications", a.protected(a.handleListApplications))

	a.mux.HandleFunc("POST /v1/jobs", a.protected(a.handleCreateJob))
	a.mux.HandleFunc("GET /v1/jobs/{id}", a.handleGetJob)
	a.mux.HandleFunc("PATCH /v1/jobs/{id}", a.protected(a.handleUpdateJob))
	a.mux.HandleFunc("DELETE /v1/jobs/{id}", a.protected(a.handleRemoveJob))

	a.mux.HandleFunc("POST /v1/applications", a.protected(a.handleCreateApplication))
	a.mux.HandleFunc("GET /v1/applications/{id}", a.protected(a.handleGetApplication))
	a.mux.HandleFunc("PATCH /v1/applications/{id}/status", a.protected(a.handleUpdateApplicationStatus))

	a.mux.HandleFunc("POST /v1/assets", a.protected(a.handleUploadAsset))
	a.mux.HandleFunc("DELETE /v1/assets", a.protected(a.handleDeleteAsset))
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = MaxBodyBytes(h, maxRequestBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(a.corsOrigins)(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "hirehub-api",
		"version": a.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		a.log.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// handleError maps the shared error taxonomy onto status codes. Anything
// unclassified is logged and reported without its internal text.
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		a.log.Error("request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// checkIDs rejects malformed identifiers before they reach the service.
// Pairs are name, value; empty values are left to the service.
func checkIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if v := strings.TrimSpace(pairs[i+1]); v != "" && !ids.Valid(v) {
			return fmt.Errorf("%s must be a valid identifier", pairs[i])
		}
	}
	return nil
}

// pageFromQuery reads ?page= and ?limit=; bounds are applied by board.Page.
func pageFromQuery(r *http.Request) (board.Page, error) {
	q := r.URL.Query()
	var p board.Page
	for _, f := range []struct {
		key string
		dst *int
	}{{"page", &p.Number}, {"limit", &p.Limit}} {
		raw := strings.TrimSpace(q.Get(f.key))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return board.Page{}, errors.New(f.key + " must be an integer")
		}
		*f.dst = n
	}
	return p.Normalize(), nil
}

// optionalString distinguishes an absent JSON member from null or "".
type optionalString struct {
	present bool
	value   *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.present = true
	if string(data) == "null" {
		o.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.value = &s
	return nil
}

// ptr maps the member onto board.StringField input: absent is nil, null is "".
func (o optionalString) ptr() *string {
	if !o.present {
		return nil
	}
	if o.value == nil {
		empty := ""
		return &empty
	}
	return o.value
}
