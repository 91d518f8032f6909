package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
	"gatehouse/internal/config"
	"gatehouse/internal/httpserver/handlers"
	"gatehouse/internal/obs"
	"gatehouse/internal/rbac"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	DB     *gorm.DB
	Logger *zap.SugaredLogger
	Auth   *auth.Service
	Tokens *auth.TokenService
	Cache  *rbac.Cache
	RBAC   rbac.Store
	Audit  *audit.Recorder
	Cfg    config.Config
}

func NewRouter(d Deps) http.Handler {
	db, lg := d.DB, d.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(obs.Instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Public surface. Credential endpoints share a per-IP bucket.
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(d.Cfg.LoginRatePerSecond, d.Cfg.LoginRateBurst))
			r.Post("/auth/register", handlers.Register(d.Auth, lg))
			r.Post("/auth/login", handlers.Login(d.Auth, lg))
			r.Post("/auth/refresh", handlers.Refresh(d.Auth, lg))
			r.Post("/auth/forgot-password", handlers.ForgotPassword(d.Auth, lg))
			r.Post("/auth/reset-password", handlers.ResetPassword(d.Auth, lg))
		})

		// Everything below requires a verified access token.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(d.Tokens, lg))

			r.Post("/auth/logout", handlers.Logout(d.Auth))
			r.Post("/auth/change-password", handlers.ChangePassword(d.Auth, lg))
			r.Get("/me", handlers.Me(d.Auth, lg))

			r.Route("/organization", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermOrganizationsRead)).Get("/", handlers.GetOrganization(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermOrganizationsUpdate)).Put("/", handlers.UpdateOrganization(db, lg))
			})

			r.Route("/employees", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermEmployeesRead)).Get("/", handlers.ListEmployees(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermEmployeesManage)).Post("/", handlers.CreateEmployee(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermEmployeesManage)).Put("/{id}", handlers.UpdateEmployee(db, lg))
			})

			r.Route("/visitors", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitorsRead)).Get("/", handlers.ListVisitors(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitorsRead)).Get("/{id}", handlers.GetVisitor(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitorsCreate)).Post("/", handlers.CreateVisitor(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitorsUpdate)).Put("/{id}", handlers.UpdateVisitor(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitorsDelete)).Delete("/{id}", handlers.DeleteVisitor(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermDocumentsRead)).Get("/{id}/documents", handlers.ListVisitorDocuments(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermDocumentsManage)).Post("/{id}/documents", handlers.AddVisitorDocument(db, lg))
			})

			r.Route("/visits", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitsRead)).Get("/", handlers.ListVisits(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitsCreate)).Post("/", handlers.CreateVisit(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitsUpdate)).Post("/{id}/check-in", handlers.CheckIn(db, d.Audit, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitsUpdate)).Post("/{id}/check-out", handlers.CheckOut(db, d.Audit, lg))
			})

			r.With(auth.RequireAll(d.Cache, lg, rbac.PermVisitsRead)).
				Get("/access-logs", handlers.ListAccessLogs(db, lg))

			r.Route("/appointments", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermAppointmentsRead)).Get("/", handlers.ListAppointments(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermAppointmentsCreate)).Post("/", handlers.CreateAppointment(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermAppointmentsUpdate)).Put("/{id}", handlers.UpdateAppointment(db, lg))
			})

			r.Route("/incidents", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermIncidentsRead)).Get("/", handlers.ListIncidents(db, lg))
				// Front-desk staff can raise an incident without the manage grant.
				r.With(auth.RequireAny(d.Cache, lg, rbac.PermIncidentsManage, rbac.PermVisitsUpdate)).Post("/", handlers.CreateIncident(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermIncidentsManage)).Post("/{id}/resolve", handlers.ResolveIncident(db, lg))
			})

			r.Route("/watchlist", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermWatchlistRead)).Get("/", handlers.ListWatchlist(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermWatchlistManage)).Post("/", handlers.CreateWatchlistEntry(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermWatchlistManage)).Delete("/{id}", handlers.DeleteWatchlistEntry(db, lg))
			})

			r.Route("/users", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermUsersRead)).Get("/", handlers.ListUsers(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermUsersManage)).Post("/", handlers.CreateUser(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermUsersManage)).Put("/{id}", handlers.UpdateUser(db, d.Cache, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermUsersManage, rbac.PermUsersDelete)).Delete("/{id}", handlers.DeleteUser(db, d.Cache, lg))
			})

			r.Route("/roles", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesRead)).Get("/", handlers.ListRoles(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesManage)).Post("/", handlers.CreateRole(db, d.Audit, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesManage)).Put("/{id}", handlers.UpdateRole(db, d.Cache, d.Audit, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesManage)).Delete("/{id}", handlers.DeleteRole(db, d.Cache, d.Audit, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesManage)).Put("/{id}/permissions", handlers.SetRolePermissions(db, d.Cache, d.Audit, lg))
			})

			r.Route("/permissions", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermPermissionsRead)).Get("/", handlers.ListPermissions(db, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermPermissionsManage)).Post("/", handlers.CreatePermission(db, d.Audit, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermPermissionsManage)).Delete("/{id}", handlers.DeletePermission(db, d.Audit, lg))
			})

			r.Route("/assignments", func(r chi.Router) {
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesManage)).Post("/", handlers.AssignRole(db, d.Cache, d.Audit, lg))
				r.With(auth.RequireAll(d.Cache, lg, rbac.PermRolesManage)).Delete("/{user_id}/{role_id}", handlers.RemoveAssignment(db, d.Cache, d.Audit, lg))
			})

			// Audit trail is admin territory regardless of granted permissions.
			r.With(auth.RequireRole(d.RBAC, lg, "Administrator"), auth.RequireAll(d.Cache, lg, rbac.PermAuditRead)).
				Get("/audit-logs", handlers.ListAuditLogs(db, lg))
		})
	})

	return r
}
