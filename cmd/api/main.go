package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdesk/attendance-backend-go/internal/config"
	appHTTP "github.com/opsdesk/attendance-backend-go/internal/handler/http"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/cron"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/database"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/email"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/events"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/jwt"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/ttlstore"
	"github.com/opsdesk/attendance-backend-go/internal/repository/postgresql"
	metricsService "github.com/opsdesk/attendance-backend-go/internal/service/metrics"
	reportService "github.com/opsdesk/attendance-backend-go/internal/service/report"
	shiftService "github.com/opsdesk/attendance-backend-go/internal/service/shift"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	shiftRepo := postgresql.NewShiftRepository(db)
	userRepo := postgresql.NewUserRepository(db)
	orgRepo := postgresql.NewOrganizationRepository(db)
	scheduleMatcher := postgresql.NewScheduleMatcher(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, 15*time.Minute)
	bus := events.NewBus()

	metricsCache := ttlstore.NewMemoryStore(time.Minute)
	defer metricsCache.Stop()
	reportDedup := ttlstore.NewMemoryStore(time.Minute)
	defer reportDedup.Stop()

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}

	shiftSvc := shiftService.NewShiftService(db, shiftRepo, bus)
	metricsSvc := metricsService.NewMetricsService(shiftRepo, userRepo, metricsCache, cfg.Reports.CacheTTL)
	reportSvc := reportService.NewReportService(
		shiftRepo,
		userRepo,
		orgRepo,
		scheduleMatcher,
		emailService,
		reportDedup,
		bus,
		cfg.Reports,
	)

	scheduler := cron.NewScheduler()
	scheduler.AddJob("morning-report", cfg.Reports.MorningPollInterval, reportSvc.RunMorningCycle)
	scheduler.AddJob("evening-report", cfg.Reports.EveningPollInterval, reportSvc.RunEveningCycle)
	scheduler.Start()
	defer scheduler.Stop()

	shiftHandler := appHTTP.NewShiftHandler(shiftSvc)
	metricsHandler := appHTTP.NewMetricsHandler(metricsSvc)
	reportHandler := appHTTP.NewReportHandler(reportSvc)

	router := appHTTP.NewRouter(JWTService, shiftHandler, metricsHandler, reportHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Println("Server error:", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Println("Server shutdown error:", err)
	}
}
