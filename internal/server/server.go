// Package server exposes the task, category and user services over REST.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"taskboard/internal/service"
)

// Services bundles the collaborators the handlers call into.
type Services struct {
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Users      *service.UserService
	Summaries  *service.SummaryService
	// Ping checks the database; nil skips the check.
	Ping func(ctx context.Context) error
}

// Options tune routing and middleware.
type Options struct {
	Prefix      string
	AllowOrigin string
	LogRequests bool
}

// Server owns the echo instance.
type Server struct {
	echo *echo.Echo
}

func New(svcs Services, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(e)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	if opts.LogRequests {
		e.Use(requestLogger())
	}
	if opts.AllowOrigin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{opts.AllowOrigin},
			AllowMethods: []string{
				http.MethodGet, http.MethodHead, http.MethodPut,
				http.MethodPatch, http.MethodPost, http.MethodDelete,
			},
			AllowCredentials: true,
		}))
	}

	api := e.Group(routePrefix(opts.Prefix))
	registerRoutes(api, svcs)

	return &Server{echo: e}
}

func registerRoutes(g *echo.Group, svcs Services) {
	g.GET("/health", healthHandler(svcs.Ping))

	tasks := &taskHandler{svc: svcs.Tasks}
	g.GET("/tasks", tasks.list)
	g.GET("/tasks/user/:userId", tasks.listByUser)
	g.GET("/tasks/:id", tasks.get)
	g.POST("/tasks", tasks.create)
	g.PATCH("/tasks/:id", tasks.update)
	g.PATCH("/tasks/:id/toggle", tasks.toggle)
	g.DELETE("/tasks/:id", tasks.remove)

	categories := &categoryHandler{svc: svcs.Categories}
	g.GET("/categories", categories.list)
	g.GET("/categories/:id", categories.get)
	g.POST("/categories", categories.create)
	g.DELETE("/categories/:id", categories.remove)

	users := &userHandler{svc: svcs.Users, summaries: svcs.Summaries}
	g.GET("/users", users.list)
	g.GET("/users/:id", users.get)
	g.GET("/users/:id/summary", users.summary)
	g.POST("/users", users.create)
	g.PATCH("/users/:id", users.update)
	g.DELETE("/users/:id", users.remove)
}

// routePrefix turns "api", "/api/" or "/" into a group prefix; the root is "".
func routePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[info] http server listening on %s", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("[http] %s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Printf("[http] %s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}

func healthHandler(ping func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			if err := ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
