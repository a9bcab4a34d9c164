package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/opsdesk/attendance-backend-go/internal/handler/http/middleware"
	"github.com/opsdesk/attendance-backend-go/internal/pkg/jwt"
)

func NewRouter(JWTService jwt.Service, shiftHandler ShiftHandler, metricsHandler MetricsHandler, reportHandler ReportHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-backend"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/att", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

		// Shift lifecycle for the authenticated user
		r.Post("/in", shiftHandler.CheckIn)
		r.Post("/out", shiftHandler.CheckOut)
		r.Post("/break", shiftHandler.ToggleBreak)

		// Listings
		r.Get("/", shiftHandler.ListToday)
		r.Get("/date/{date}", shiftHandler.ListByDate)
		r.Get("/user/{ref}", shiftHandler.ListByUser)
		r.Get("/status/{ref}", shiftHandler.GetStatus)
		r.Get("/daily-stats/{uid}", shiftHandler.DailyStats)
		r.Get("/metrics/{uid}", metricsHandler.GetUserMetrics)

		// Management only
		r.Group(func(r chi.Router) {
			r.Use(middleware.ManagementOnly)
			r.Get("/branch/{ref}", shiftHandler.ListByBranch)
			r.Get("/report", metricsHandler.GetOrganizationReport)
			r.Route("/reports", func(r chi.Router) {
				r.Post("/morning/send", reportHandler.SendMorningReport)
				r.Post("/evening/send", reportHandler.SendEveningReport)
			})
		})
	})

	return r
}
