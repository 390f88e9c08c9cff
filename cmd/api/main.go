package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/config"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/domain/hierarchy"
	appHTTP "github.com/cmlabs-hris/hris-portal-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-portal-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/messaging/kafka"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/rbac"
	"github.com/cmlabs-hris/hris-portal-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-portal-go/internal/service/attendance"
	dashboardService "github.com/cmlabs-hris/hris-portal-go/internal/service/dashboard"
	hierarchyService "github.com/cmlabs-hris/hris-portal-go/internal/service/hierarchy"
	leaveService "github.com/cmlabs-hris/hris-portal-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-portal-go/internal/service/notification"
	scopeService "github.com/cmlabs-hris/hris-portal-go/internal/service/scope"
	timesheetService "github.com/cmlabs-hris/hris-portal-go/internal/service/timesheet"
	"github.com/redis/go-redis/v9"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	businessClock, err := clock.New(cfg.Attendance.Timezone)
	if err != nil {
		log.Fatal(err)
	}

	policy := attendance.DefaultClosePolicy()
	if penalty, ok := attendance.ParseStatus(cfg.Attendance.CheckInPenalty); ok {
		policy.CheckInPenalty = penalty
	} else {
		slog.Warn("Unknown check-in auto-close status, using default", "value", cfg.Attendance.CheckInPenalty)
	}

	enforcer, err := rbac.NewDefaultEnforcer()
	if err != nil {
		log.Fatal("Failed to initialize RBAC enforcer: ", err)
	}

	txManager := postgresql.NewTxManager(db)
	userRepo := postgresql.NewUserRepository(db)
	directoryRepo := postgresql.NewDirectoryRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveHistoryRepo := postgresql.NewLeaveHistoryRepository(db)
	leaveResponseRepo := postgresql.NewLeaveResponseRepository(db)
	timesheetRepo := postgresql.NewTimesheetRepository(db)
	timeLogRepo := postgresql.NewTimeLogRepository(db)
	outboxRepo := postgresql.NewOutboxRepository(db)

	// Org chart
	edges := hierarchyService.NewTreeResolver(userRepo)
	var (
		tree        hierarchy.Resolver = edges
		invalidator hierarchy.Invalidator
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			slog.Warn("Redis unreachable, subtree cache falls through to the database", "error", err)
		}
		cached := hierarchyService.NewCachedResolver(tree, rdb, cfg.Redis.TTL)
		tree, invalidator = cached, cached
	}
	scopes := scopeService.NewScopeResolver(tree)

	mailer, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service: ", err)
	}
	notifier := notificationService.NewNotificationService(mailer, notificationService.Config{})
	defer notifier.Stop()

	balances := leaveService.NewBalanceService(leaveBalanceRepo, leaveHistoryRepo, txManager)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, outboxRepo, txManager, scopes, enforcer, businessClock, policy)
	sweeper := attendanceService.NewSweeper(attendanceRepo, outboxRepo, txManager, businessClock, policy)
	leaveSvc := leaveService.NewLeaveService(
		leaveRequestRepo,
		leaveResponseRepo,
		attendanceRepo,
		userRepo,
		balances,
		outboxRepo,
		txManager,
		scopes,
		enforcer,
		businessClock,
		notifier,
	)
	timesheetSvc := timesheetService.NewTimesheetService(
		timesheetRepo,
		timeLogRepo,
		userRepo,
		outboxRepo,
		txManager,
		scopes,
		enforcer,
		businessClock,
		notifier,
	)
	dashboardSvc := dashboardService.NewDashboardService(postgresql.NewDashboardRepository(db), scopes, businessClock)
	hierarchySvc := hierarchyService.NewHierarchyService(userRepo, directoryRepo, edges, scopes, invalidator, enforcer, txManager)

	// Background jobs
	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(sweeper, cfg.Attendance.SweepInterval).RegisterJobs(scheduler)
	if cfg.Kafka.Enabled() {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		defer publisher.Close()
		cron.NewOutboxJobs(outboxRepo, publisher, cfg.Kafka.RelayInterval).RegisterJobs(scheduler)
	} else {
		slog.Info("Kafka disabled, outbox events will not be relayed")
	}
	limiter := middleware.NewKeyedRateLimiter(middleware.PerMinute(cfg.Attendance.CheckInRate), cfg.Attendance.CheckInRate)
	scheduler.AddJob("prune_rate_limiters", 10*time.Minute, func(context.Context) error {
		if n := limiter.Prune(); n > 0 {
			slog.Debug("Pruned idle rate limiters", "count", n)
		}
		return nil
	})
	scheduler.Start()
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Leeway)
	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:            cfg.App.Env,
		Version:        version,
		LogLevel:       cfg.SlogLevel(),
		CORSOrigins:    cfg.App.CORSOrigins,
		CheckInLimiter: limiter,
	}, JWTService, enforcer, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc, balances),
		Timesheet:  appHTTP.NewTimesheetHandler(timesheetSvc),
		User:       appHTTP.NewUserHandler(hierarchySvc),
		Scope:      appHTTP.NewScopeHandler(scopes),
		Dashboard:  appHTTP.NewDashboardHandler(dashboardSvc),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "timezone", businessClock.Location().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	} else {
		slog.Info("Server exited gracefully")
	}
}
