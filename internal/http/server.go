package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"transcoop/internal/core"
	applog "transcoop/internal/log"
	"transcoop/internal/middleware/ratelimit"
	"transcoop/internal/middleware/security"
	"transcoop/internal/middleware/trace"
	"transcoop/internal/report"
	"transcoop/internal/services"
	"transcoop/internal/storage"

	"github.com/shopspring/decimal"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the operations the API exposes.
type Services struct {
	Drivers     *services.DriverService
	Vehicles    *services.VehicleService
	Routes      *services.RouteService
	Loans       *services.LoanService
	Settlements *services.SettlementService
	Aggregation *services.AggregationService
	Auth        *services.AuthService
	DB          Pinger
}

// NewServices wires every service over one store. A nil events publisher
// disables AMQP events.
func NewServices(store *storage.Store, events services.EventPublisher, defaultAdminFee decimal.Decimal) Services {
	return Services{
		Drivers:     services.NewDriverService(store),
		Vehicles:    services.NewVehicleService(store),
		Routes:      services.NewRouteService(store),
		Loans:       services.NewLoanService(store, events),
		Settlements: services.NewSettlementService(store, events, defaultAdminFee),
		Aggregation: services.NewAggregationService(store),
		Auth:        services.NewAuthService(store),
		DB:          store,
	}
}

// Config holds the server settings.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	Company        string
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	svc     Services
	timeout time.Duration
	pdf     report.PDF
	excel   report.ExcelExporter
	now     func() time.Time

	loginLimiter *ratelimit.Limiter
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	resolver := security.NewResolver()
	s := &Server{
		svc:          svc,
		timeout:      cfg.RequestTimeout,
		pdf:          report.PDF{Company: cfg.Company},
		now:          time.Now,
		loginLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:       trace.NewMiddleware(logger, resolver.ClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux, resolver)

	var handler http.Handler = mux
	handler = security.Headers(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux, resolver *security.Resolver) {
	limit := s.loginLimiter.Middleware(resolver.ClientIP, RateLimitedError)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("POST /api/login", limit(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/drivers", s.handleListDrivers)
	mux.HandleFunc("POST /api/drivers", s.handleCreateDriver)
	mux.HandleFunc("GET /api/drivers/export.xlsx", s.handleExportDrivers)
	mux.HandleFunc("GET /api/drivers/{id}", s.handleGetDriver)
	mux.HandleFunc("PUT /api/drivers/{id}", s.handleUpdateDriver)
	mux.HandleFunc("DELETE /api/drivers/{id}", s.handleDeleteDriver)
	mux.HandleFunc("GET /api/drivers/{id}/active-loan", s.handleActiveLoan)

	mux.HandleFunc("GET /api/vehicles", s.handleListVehicles)
	mux.HandleFunc("POST /api/vehicles", s.handleCreateVehicle)
	mux.HandleFunc("GET /api/vehicles/export.xlsx", s.handleExportVehicles)
	mux.HandleFunc("GET /api/vehicles/{id}", s.handleGetVehicle)
	mux.HandleFunc("PUT /api/vehicles/{id}", s.handleUpdateVehicle)
	mux.HandleFunc("DELETE /api/vehicles/{id}", s.handleDeleteVehicle)

	mux.HandleFunc("GET /api/routes", s.handleListRoutes)
	mux.HandleFunc("POST /api/routes", s.handleCreateRoute)
	mux.HandleFunc("GET /api/routes/export.xlsx", s.handleExportRoutes)
	mux.HandleFunc("GET /api/routes/{id}", s.handleGetRoute)
	mux.HandleFunc("PUT /api/routes/{id}", s.handleUpdateRoute)
	mux.HandleFunc("DELETE /api/routes/{id}", s.handleDeleteRoute)
	mux.HandleFunc("GET /api/routes/{id}/students", s.handleListStudents)
	mux.HandleFunc("POST /api/routes/{id}/students", s.handleAddStudent)
	mux.HandleFunc("GET /api/routes/{id}/students/export.xlsx", s.handleExportStudents)
	mux.HandleFunc("PUT /api/students/{id}", s.handleUpdateStudent)
	mux.HandleFunc("DELETE /api/students/{id}", s.handleDeleteStudent)

	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("POST /api/loans", s.handleCreateLoan)
	mux.HandleFunc("GET /api/loans/export.xlsx", s.handleExportLoans)
	mux.HandleFunc("PUT /api/loans/{id}", s.handleUpdateLoan)
	mux.HandleFunc("DELETE /api/loans/{id}", s.handleDeleteLoan)
	mux.HandleFunc("POST /api/loans/{id}/payments", s.handleLoanPayment)

	mux.HandleFunc("GET /api/settlements", s.handleListSettlements)
	mux.HandleFunc("POST /api/settlements", s.handleSaveSettlement)
	mux.HandleFunc("GET /api/settlements/export.xlsx", s.handleExportSettlements)
	mux.HandleFunc("PUT /api/settlements/{id}/check", s.handleSetCheck)
	mux.HandleFunc("GET /api/settlements/{id}/payslip.pdf", s.handlePayslip)

	mux.HandleFunc("GET /api/admin-expenses", s.handleListAdminExpenses)
	mux.HandleFunc("POST /api/admin-expenses", s.handleSaveAdminExpense)
	mux.HandleFunc("GET /api/admin-expenses/period", s.handleAdminExpensePeriod)
	mux.HandleFunc("GET /api/admin-expenses/report.pdf", s.handleAdminExpensePDF)

	mux.HandleFunc("/api/", NotFoundRoute)
}

// Shutdown stops background helpers and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// serve runs op through Dispatch and writes its result with status.
func serve[T any](s *Server, w http.ResponseWriter, r *http.Request, status int, op func(context.Context) (T, error)) {
	v, err := Dispatch(r.Context(), s.timeout, op)
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(status).Data(v).Write(w)
}

// serveList is serve for list reads: a failed read is logged and answered
// with an empty list so the screen still renders.
func serveList[T any](s *Server, w http.ResponseWriter, r *http.Request, op func(context.Context) ([]T, error)) {
	v, err := Dispatch(r.Context(), s.timeout, op)
	if err != nil {
		warnList(r, err)
		v = []T{}
	}
	if v == nil {
		v = []T{}
	}
	NewJSONResponse().Data(v).Write(w)
}

func warnList(r *http.Request, err error) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "List read failed, returning empty list",
		applog.FieldPath, r.URL.Path, applog.FieldErrorKind, core.KindOf(err), applog.FieldError, err)
}

// serveFile renders a document into memory, then sends it as an attachment.
// Rendering errors still produce a JSON envelope.
func serveFile(s *Server, w http.ResponseWriter, r *http.Request, filename, contentType string, render func(ctx context.Context, w io.Writer) error) {
	buf, err := Dispatch(r.Context(), s.timeout, func(ctx context.Context) (*bytes.Buffer, error) {
		var b bytes.Buffer
		if err := render(ctx, &b); err != nil {
			return nil, err
		}
		return &b, nil
	})
	if err != nil {
		ErrorResponse(r, err).Write(w)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "Failed writing download", "file", filename, "error", err)
	}
}

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, http.StatusOK, func(ctx context.Context) (map[string]string, error) {
		if s.svc.DB != nil {
			if err := s.svc.DB.Ping(ctx); err != nil {
				return nil, err
			}
		}
		return map[string]string{"status": "ready"}, nil
	})
}
