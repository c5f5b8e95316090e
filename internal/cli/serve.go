package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autowire/pkg/buildinfo"
	autowireerrors "github.com/matzehuels/autowire/pkg/errors"
	"github.com/matzehuels/autowire/pkg/introspect"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only inspection API",
		Long: `Serve the catalog and its reflected signatures as JSON:

  GET /version
  GET /types
  GET /types/{id}
  GET /types/{id}/methods/{method}

Type ids containing "/" must be path-escaped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newAPI(e.catalog, e.introspector(), c.Logger).routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			printInfo("Serving on %s", StyleLink.Render("http://"+addr))

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			printSuccess("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")

	return cmd
}

// =============================================================================
// API
// =============================================================================

type api struct {
	catalog *introspect.Catalog
	in      introspect.Introspector
	logger  *log.Logger
}

func newAPI(catalog *introspect.Catalog, in introspect.Introspector, logger *log.Logger) *api {
	return &api{catalog: catalog, in: in, logger: logger}
}

func (a *api) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/version", a.version)
	r.Get("/types", a.listTypes)
	r.Get("/types/{id}", a.showType)
	r.Get("/types/{id}/methods/{method}", a.showMethod)
	return r
}

// logRequests attaches the logger to the request context and logs each
// request once it completes.
func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), a.logger)))
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type typeSummary struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Abstract   bool   `json:"abstract"`
	Discovered bool   `json:"discovered"`
}

type typeDetail struct {
	typeSummary
	Constructor introspect.Signature `json:"constructor,omitempty"`
}

type methodDetail struct {
	TypeID    string               `json:"typeId"`
	Method    string               `json:"method"`
	Signature introspect.Signature `json:"signature"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (a *api) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Current())
}

func (a *api) listTypes(w http.ResponseWriter, r *http.Request) {
	ids := a.catalog.IDs()
	out := make([]typeSummary, 0, len(ids))
	for _, id := range ids {
		if t, ok := a.catalog.Lookup(id); ok {
			out = append(out, summarize(t))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) showType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	t, found := a.catalog.Lookup(id)
	if !found {
		a.fail(w, r, &autowireerrors.LookupError{TypeID: id})
		return
	}

	detail := typeDetail{typeSummary: summarize(t)}
	if !t.Abstract() {
		sig, err := a.in.Signature(r.Context(), id, introspect.Constructor)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		detail.Constructor = sig
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *api) showMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	method, ok := pathParam(w, r, "method")
	if !ok {
		return
	}
	if method != introspect.Constructor {
		if err := autowireerrors.ValidateSelector(method); err != nil {
			a.fail(w, r, err)
			return
		}
	}

	sig, err := a.in.Signature(r.Context(), id, method)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if sig == nil {
		sig = introspect.Signature{}
	}
	writeJSON(w, http.StatusOK, methodDetail{TypeID: id, Method: method, Signature: sig})
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := autowireerrors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: string(code)})
}

func statusFor(code autowireerrors.Code) int {
	switch code {
	case autowireerrors.ErrCodeLookupFailed, autowireerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case autowireerrors.ErrCodeInvalidInput, autowireerrors.ErrCodeInvalidTypeID, autowireerrors.ErrCodeInvalidSelector:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func summarize(t *introspect.Type) typeSummary {
	return typeSummary{ID: t.ID, Kind: typeKind(t), Abstract: t.Abstract(), Discovered: t.Discovered()}
}

func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid path parameter " + name, Code: string(autowireerrors.ErrCodeInvalidInput)})
		return "", false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
