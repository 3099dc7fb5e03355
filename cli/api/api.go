package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"

	"github.com/oaiiae/contactbook/datastores"
	"github.com/oaiiae/contactbook/handlers"
	"github.com/oaiiae/contactbook/router"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                    default:""`
	Port              string        `short:"p" doc:"port to listen on"                    default:"8888"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers" default:"15s"`
}

func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              options.Host + ":" + options.Port,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix" default:"/api"`
}

// ContactsStore is the store served by the API. Len feeds the contacts_stored gauge.
type ContactsStore interface {
	datastores.ContactsStore
	Len() int
}

func NewRouter(
	options *RouterOptions,
	title string,
	version string,
	revision string,
	created string,
	store ContactsStore,
	logger *slog.Logger,
) http.Handler {
	buildinfoMetric := joinQuote("build_info{goversion=", runtime.Version(),
		",title=", title,
		",version=", version,
		",revision=", revision,
		",created=", created,
		"} 1\n")
	metriks := metrics.NewSet()
	metriks.NewGauge("contacts_stored", func() float64 { return float64(store.Len()) })
	return router.New(title, version,
		func(w http.ResponseWriter, r *http.Request) {
			if _, err := store.List(r.Context()); err != nil {
				logger.Warn("store not ready", "err", err)
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		},
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfoMetric)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		router.OptUseMiddleware(
			ctxlog{}.loggerMiddleware(logger),
			meterRequests(metriks),
			ctxlog{}.recoverMiddleware(logger),
		),
		router.OptGroup(options.EndpointsPrefix,
			router.OptGroup("/contacts", router.OptAutoRegister(&handlers.Contacts{
				Store:        store,
				ErrorHandler: ctxlog{}.errorHandler(logger),
			})),
		),
	)
}

// ctxlog is the [context.Context] key of the request logger. Its methods are
// the middlewares that set and use it.
type ctxlog struct{}

func (key ctxlog) from(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// loggerMiddleware scopes a logger to the request, tagged with the operation
// and the contact id from the path when there is one, and logs the request
// once it has been served.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		logger := parent.With(slog.String("op", op.OperationID))
		if rid := ctx.Header("X-Request-Id"); rid != "" {
			logger = logger.With(slog.String("request", rid))
		}
		if id := ctx.Param("id"); id != "" {
			logger = logger.With(slog.String("contact", id))
		}

		start := time.Now()
		next(huma.WithValue(ctx, key, logger))

		u := ctx.URL()
		logger.LogAttrs(context.Background(), slog.LevelInfo, joinSpace(op.Method, u.Path),
			slog.Int("status", ctx.Status()),
			slog.String("from", ctx.RemoteAddr()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// recoverMiddleware turns a panic in a handler into a 500 response.
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			if v := recover(); v != nil {
				key.from(ctx.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
					"handler panicked", slog.Any("recovered", v))
				ctx.SetStatus(http.StatusInternalServerError)
			}
		}()
		next(ctx)
	}
}

// errorHandler logs the errors returned by the contacts handlers. A missing
// contact is routine and logged at info; other client errors at warn; store
// failures at error.
func (key ctxlog) errorHandler(fallback *slog.Logger) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		level, msg := slog.LevelError, "contacts store failed"
		attrs := []slog.Attr{slog.Any("err", err)}

		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			status := statusErr.GetStatus()
			switch {
			case status == http.StatusNotFound || errors.Is(err, datastores.ErrObjectNotFound):
				level, msg = slog.LevelInfo, "contact not found"
			case status < http.StatusInternalServerError:
				level, msg = slog.LevelWarn, "contact request rejected"
			}
			attrs = append(attrs, slog.Int("status", status))
		}

		key.from(ctx, fallback).LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	type ref struct {
		*metrics.Counter
		*metrics.PrometheusHistogram
	}

	refs := sync.Map{}
	refsMu := sync.Mutex{}
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // arbitrary

	return func(ctx huma.Context, next func(huma.Context)) {
		op, start := ctx.Operation(), time.Now()
		next(ctx)

		uid := op.OperationID + http.StatusText(ctx.Status())
		val, ok := refs.Load(uid)
		if !ok {
			refsMu.Lock()
			val, ok = refs.Load(uid)
			if !ok {
				labels := joinQuote("{method=", op.Method, ",path=", op.Path, ",status=", strconv.Itoa(ctx.Status()), "}") //nolint: golines
				val = ref{
					set.NewCounter("http_requests_total" + labels),
					set.NewPrometheusHistogramExt("http_request_duration_seconds"+labels, buckets),
				}
				refs.Store(uid, val)
			}
			refsMu.Unlock()
		}
		valref := val.(ref) //nolint: errcheck // always true
		valref.Counter.Inc()
		valref.PrometheusHistogram.UpdateDuration(start)
	}
}

// joinQuote is [strings.Join] with " as separator.
func joinQuote(elems ...string) string { return strings.Join(elems, `"`) }

// joinSpace is [strings.Join] with space as separator.
func joinSpace(elems ...string) string { return strings.Join(elems, ` `) }
