package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	app "github.com/mohammadpnp/person-registry/internal/application/person"
	httpecho "github.com/mohammadpnp/person-registry/internal/interfaces/http/echo"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
)

// Pinger reports whether the store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ServerDeps struct {
	Persons     app.PersonService
	Addresses   app.AddressService
	Store       Pinger
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger
	ServiceName string
	BodyLimit   string
	RetryAfter  time.Duration
}

func NewHTTPServer(deps ServerDeps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BodyLimit == "" {
		deps.BodyLimit = "1M"
	}

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit(deps.BodyLimit))
	server.Use(otelecho.Middleware(deps.ServiceName, otelecho.WithSkipper(skipOperational)))
	server.Use(requestLogger(deps.Logger))

	httpecho.RegisterRoutes(server,
		httpecho.NewPersonHandler(deps.Persons, deps.Addresses, deps.RetryAfter),
		httpecho.NewAddressHandler(deps.Addresses, deps.RetryAfter),
	)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	server.GET("/readyz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			deps.Logger.WarnContext(ctx, "readiness check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
	if deps.Gatherer != nil {
		server.GET("/metrics", echo.WrapHandler(metrics.Handler(deps.Gatherer)))
	}

	return server
}

func skipOperational(c echo.Context) bool {
	switch c.Path() {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      skipOperational,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Log(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
