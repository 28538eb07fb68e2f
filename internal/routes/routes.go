package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/auth"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/config"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/handlers"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/metrics"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/middleware"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/models"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/reporting"
)

// App is the state shared by every request of the process.
type App struct {
	Config   config.Config
	Repo     database.Repository
	Tokens   *auth.Tokens
	Reporter *reporting.Reporter
	Views    *reporting.Views
	Mailer   handlers.ReportMailer
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

func SetupRouter(app App) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging(app.Log, app.Metrics))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Server is healthy"))
	}).Methods("GET")
	if app.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(app.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	timeout := app.Config.Timeout
	userHandler := handlers.NewUserHandler(app.Repo, app.Tokens, app.Log, timeout, app.Config.CookieSecure)
	studentHandler := handlers.NewStudentHandler(app.Repo, app.Log, timeout)
	batchHandler := handlers.NewBatchHandler(app.Repo, app.Log, timeout)
	attendanceHandler := handlers.NewAttendanceHandler(app.Repo, app.Reporter, app.Views, app.Log, timeout, app.Config.SessionsPageSize)
	reportHandler := handlers.NewReportHandler(app.Reporter, app.Mailer, app.Log, timeout)

	router.HandleFunc("/api/auth/signin", userHandler.Signin).Methods("POST")
	router.HandleFunc("/api/auth/signout", userHandler.Signout).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireRole(app.Tokens, string(models.RoleAdmin), string(models.RoleStaff)))

	api.HandleFunc("/dashboard", batchHandler.GetDashboard).Methods("GET")

	api.HandleFunc("/users", userHandler.GetUsers).Methods("GET")
	// Admin only: the body picks the new account's role.
	adminOnly := middleware.RequireRole(app.Tokens, string(models.RoleAdmin))
	api.Handle("/users", adminOnly(http.HandlerFunc(userHandler.CreateUser))).Methods("POST")

	api.HandleFunc("/students", studentHandler.GetStudents).Methods("GET")
	api.HandleFunc("/students", studentHandler.CreateStudent).Methods("POST")
	api.HandleFunc("/students/code/{code}", studentHandler.GetStudentByCode).Methods("GET")
	api.HandleFunc("/students/{id}", studentHandler.DeleteStudent).Methods("DELETE")

	api.HandleFunc("/batches", batchHandler.GetBatches).Methods("GET")
	api.HandleFunc("/batches", batchHandler.CreateBatch).Methods("POST")
	api.HandleFunc("/programs", batchHandler.GetPrograms).Methods("GET")
	api.HandleFunc("/programs", batchHandler.CreateProgram).Methods("POST")

	api.HandleFunc("/attendance", attendanceHandler.ListSessions).Methods("GET")
	api.HandleFunc("/attendance", attendanceHandler.CreateSession).Methods("POST")
	api.HandleFunc("/attendance/{id}", attendanceHandler.GetSession).Methods("GET")
	api.HandleFunc("/attendance/{id}/views", attendanceHandler.OpenView).Methods("POST")
	api.HandleFunc("/views/{viewID}/more", attendanceHandler.LoadMore).Methods("POST")
	api.HandleFunc("/views/{viewID}", attendanceHandler.CloseView).Methods("DELETE")

	api.HandleFunc("/reports", reportHandler.GetReports).Methods("GET")
	api.HandleFunc("/reports/export", reportHandler.ExportReports).Methods("GET")
	api.HandleFunc("/reports/email", reportHandler.EmailReport).Methods("POST")

	return router
}
