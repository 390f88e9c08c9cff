package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Env         string
	Version     string
	LogLevel    slog.Level
	CORSOrigins []string
	// CheckInLimiter throttles check-in and check-out per user. Nil disables it.
	CheckInLimiter *middleware.KeyedRateLimiter
}

type Handlers struct {
	Attendance AttendanceHandler
	Leave      LeaveHandler
	Timesheet  TimesheetHandler
	User       UserHandler
	Scope      ScopeHandler
	Dashboard  DashboardHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, authz user.Authorizer, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-portal"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.Identity)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					if cfg.CheckInLimiter != nil {
						r.Use(middleware.RateLimitByUser(cfg.CheckInLimiter))
					}
					r.Post("/check-in", h.Attendance.CheckIn)
					r.Post("/check-out", h.Attendance.CheckOut)
				})
				r.Get("/daily", h.Attendance.GetDaily)
				r.Get("/monthly", h.Attendance.GetMonthly)
				r.Get("/", h.Attendance.List)

				// Manual corrections
				r.Group(func(r chi.Router) {
					r.Use(middleware.SuperAdminOnly)
					r.Put("/{id}", h.Attendance.Update)
					r.Delete("/{id}", h.Attendance.Delete)
				})
			})

			r.Get("/scope/{resource}", h.Scope.Get)
			r.Get("/dashboard/stats", h.Dashboard.GetStats)

			r.Route("/leaves", func(r chi.Router) {
				r.Post("/", h.Leave.CreateRequest)
				r.Get("/", h.Leave.ListRequests)
				r.Get("/permissions", h.Leave.Permissions)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Leave.GetRequest)
					r.Put("/", h.Leave.UpdateRequest)
					r.Patch("/status", h.Leave.SetStatus)
					r.Delete("/", h.Leave.DeleteRequest)

					r.Route("/responses", func(r chi.Router) {
						r.Get("/", h.Leave.ListResponses)
						r.Post("/", h.Leave.AddResponse)
						r.Put("/{responseID}", h.Leave.UpdateResponse)
						r.Delete("/{responseID}", h.Leave.DeleteResponse)
					})
				})
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.User.List)
				r.Get("/me", h.User.Me)
				r.Get("/org-chart", h.User.OrgChart)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/team", h.User.Team)
					r.Get("/leave-balance", h.Leave.GetBalance)
					r.Put("/leave-allocation", h.Leave.UpdateAllocation)

					r.With(middleware.RequirePermission(authz, user.PermUserAssignManager)).
						Put("/manager", h.User.AssignManager)
				})
			})

			r.Route("/time-logs", func(r chi.Router) {
				r.Post("/", h.Timesheet.CreateTimeLog)
				r.Get("/", h.Timesheet.ListTimeLogs)
				r.Put("/{id}", h.Timesheet.UpdateTimeLog)
				r.Delete("/{id}", h.Timesheet.DeleteTimeLog)
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Post("/", h.Timesheet.Create)
				r.Get("/", h.Timesheet.List)
				r.Get("/weekly", h.Timesheet.Weekly)
				r.Get("/{id}", h.Timesheet.Get)
				r.Patch("/{id}/status", h.Timesheet.UpdateStatus)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequirePermission(authz, user.PermLeaveRebuildBalances))
				r.Post("/leave-balances/rebuild", h.Leave.RebuildBalances)
			})
		})
	})
	return r
}
