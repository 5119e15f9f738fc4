package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/philly/school-finance/backend/internal/adapters/rest"
	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	"github.com/philly/school-finance/backend/internal/authz/permission"
	"github.com/philly/school-finance/backend/internal/platform/logger"
	"github.com/philly/school-finance/backend/internal/platform/metrics"
)

// Handlers groups the REST handlers mounted by NewHTTPServer.
type Handlers struct {
	Health       *rest.HealthHandler
	Staff        *rest.StaffHandler
	Payroll      *rest.PayrollHandler
	Funds        *rest.FundsHandler
	Enrollment   *rest.EnrollmentHandler
	Billing      *rest.BillingHandler
	BalanceSheet *rest.BalanceSheetHandler
	Authz        *rest.AuthzHandler
}

// Middlewares groups the auth and traffic middleware.
type Middlewares struct {
	JWT         *middleware.JWTMiddleware
	AuthAdapter *middleware.AuthAdapter
	Authz       *middleware.AuthorizationMiddleware
	RateLimiter *middleware.RateLimiter
}

// NewHTTPServer creates and configures the HTTP server with all routes
func NewHTTPServer(config Config, h Handlers, mw Middlewares, log logger.Logger) *http.Server {
	return &http.Server{
		Addr:         config.ServerAddress,
		Handler:      NewRouter(h, mw, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the route table. Every /api/v1 route except health and
// login runs JWT verification, then staff resolution, then its permission check.
func NewRouter(h Handlers, mw Middlewares, log logger.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	perm := mw.Authz.RequirePermission
	owned := mw.Authz.RequireResourceAccess

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", h.Health.GetLiveness)
		r.Get("/health/ready", h.Health.GetReadiness)

		r.With(middleware.WithRateLimitTier(middleware.TierLogin), mw.RateLimiter.Middleware).
			Post("/auth/login", h.Staff.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimiter.Middleware)
			r.Use(mw.JWT.Middleware)
			r.Use(mw.AuthAdapter.Middleware)

			r.Get("/me", h.Staff.GetCurrentStaff)
			r.Get("/me/payslips", h.Payroll.ListMyPayslips)
			r.Get("/me/permissions", h.Authz.GetMyPermissions)

			r.Route("/authz", func(r chi.Router) {
				r.Use(perm(permission.StaffRead))
				r.Get("/roles", h.Authz.ListRoles)
				r.Get("/permissions", h.Authz.ListPermissions)
			})

			r.Route("/staff", func(r chi.Router) {
				r.With(perm(permission.StaffCreate)).Post("/", h.Staff.CreateStaff)
				r.With(perm(permission.StaffRead)).Get("/", h.Staff.ListStaff)
				r.With(perm(permission.StaffRead)).Get("/{id}", h.Staff.GetStaff)
				r.With(perm(permission.StaffUpdate)).Put("/{id}", h.Staff.UpdateStaff)
				r.With(perm(permission.StaffDeactivate)).Post("/{id}/deactivate", h.Staff.DeactivateStaff)
			})

			r.Route("/payslips", func(r chi.Router) {
				r.With(perm(permission.PayrollGenerate)).Post("/", h.Payroll.GeneratePayslip)
				r.With(perm(permission.PayrollRun)).Post("/run", h.Payroll.RunPayroll)
				r.With(perm(permission.PayrollReadAny)).Get("/", h.Payroll.ListPayslips)
				r.With(owned("payroll", "read", "id")).Get("/{id}", h.Payroll.GetPayslip)
				r.With(perm(permission.PayrollApprove)).Post("/{id}/approve", h.Payroll.ApprovePayslip)
			})

			// The funds service applies :own and :any grants itself.
			r.Route("/fund-requests", func(r chi.Router) {
				r.With(perm(permission.FundsCreate)).Post("/", h.Funds.CreateFundRequest)
				r.Get("/", h.Funds.ListFundRequests)
				r.Get("/{id}", h.Funds.GetFundRequest)
				r.Put("/{id}", h.Funds.UpdateFundRequest)
				r.With(perm(permission.FundsApprove)).Post("/{id}/approve", h.Funds.ApproveFundRequest)
				r.With(perm(permission.FundsApprove)).Post("/{id}/reject", h.Funds.RejectFundRequest)
				r.Post("/{id}/usage", h.Funds.RecordUsage)
				r.Get("/{id}/usage", h.Funds.ListUsage)
			})

			r.Route("/students", func(r chi.Router) {
				r.With(perm(permission.StudentsCreate)).Post("/", h.Enrollment.RegisterStudent)
				r.With(perm(permission.StudentsRead)).Get("/", h.Enrollment.ListStudents)
				r.With(perm(permission.StudentsRead)).Get("/{id}", h.Enrollment.GetStudent)
				r.With(perm(permission.StudentsCreate)).Put("/{id}", h.Enrollment.UpdateStudent)
				r.With(perm(permission.StudentsEnroll)).Post("/{id}/enrollments", h.Enrollment.EnrollStudent)
				r.With(perm(permission.StudentsEnroll)).Post("/{id}/withdraw", h.Enrollment.WithdrawStudent)
				r.With(perm(permission.BillingRead)).Get("/{id}/bills", h.Billing.ListStudentBills)
			})

			r.Route("/fee-schedules", func(r chi.Router) {
				r.With(perm(permission.BillingCreate)).Put("/", h.Billing.SetFeeSchedule)
				r.With(perm(permission.BillingRead)).Get("/", h.Billing.ListFeeSchedules)
			})

			r.Route("/bills", func(r chi.Router) {
				r.With(perm(permission.BillingCreate)).Post("/", h.Billing.CreateBill)
				r.With(perm(permission.BillingRead)).Get("/{id}", h.Billing.GetBill)
				r.With(perm(permission.BillingPaymentsRecord)).Post("/{id}/payments", h.Billing.RecordPayment)
			})
			r.With(perm(permission.BillingPaymentsApprove)).Post("/payments/{id}/approve", h.Billing.ApprovePayment)

			r.Route("/reports", func(r chi.Router) {
				r.With(perm(permission.BillingRead)).Get("/collections", h.Billing.MonthlyCollections)
				r.With(perm(permission.ReportsGenerate)).Get("/balance-sheet", h.BalanceSheet.Generate)
				r.With(perm(permission.ReportsClose)).Post("/balance-sheet/close", h.BalanceSheet.Close)
				r.With(perm(permission.ReportsRead)).Get("/balance-sheet/snapshots", h.BalanceSheet.ListSnapshots)
				r.With(perm(permission.ReportsRead)).Get("/balance-sheet/snapshots/{year}", h.BalanceSheet.GetSnapshot)
			})
		})
	})

	return r
}

// requestLogger logs every completed request
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrr := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(wrr, r)

			log.Info(r.Context(), "HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrr.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
