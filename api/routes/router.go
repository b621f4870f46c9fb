package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CruzR/inventorymgr/api/controllers"
	"github.com/CruzR/inventorymgr/api/middleware"
	"github.com/CruzR/inventorymgr/internal/auditlog"
	"github.com/CruzR/inventorymgr/internal/auth"
	"github.com/CruzR/inventorymgr/internal/borrow"
	"github.com/CruzR/inventorymgr/internal/items"
	"github.com/CruzR/inventorymgr/internal/qualifications"
	"github.com/CruzR/inventorymgr/internal/registration"
	"github.com/CruzR/inventorymgr/internal/transfers"
	"github.com/CruzR/inventorymgr/internal/users"
	"github.com/CruzR/inventorymgr/pkg/config"
	"github.com/CruzR/inventorymgr/pkg/enums"
	"github.com/CruzR/inventorymgr/pkg/logger"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions middleware.SessionChecker
	UserRepo users.Repository

	Auth           auth.Service
	Users          users.Service
	Qualifications qualifications.Service
	Items          items.Service
	Borrow         borrow.Service
	Transfers      transfers.Service
	Registration   registration.Service
	AuditLog       auditlog.Service

	ReadyChecks map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(logg, deps.ReadyChecks))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, deps.UserRepo, logg)).
			Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Post("/api/v1/registration/{token}", controllers.Register(deps.Registration, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, deps.UserRepo, logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", controllers.UserMe(deps.Users, logg))
			r.With(middleware.RequirePermission(enums.PermissionViewUsers, logg)).
				Get("/", controllers.UserList(deps.Users, logg))
			r.With(middleware.RequirePermission(enums.PermissionViewUsers, logg)).
				Get("/{userId}", controllers.UserGet(deps.Users, logg))
			r.With(middleware.RequirePermission(enums.PermissionCreateUsers, logg)).
				Post("/", controllers.UserCreate(deps.Users, logg))
			r.With(middleware.RequirePermission(enums.PermissionUpdateUsers, logg)).
				Put("/{userId}", controllers.UserUpdate(deps.Users, logg))
			r.With(middleware.RequirePermission(enums.PermissionUpdateUsers, logg)).
				Delete("/{userId}", controllers.UserDelete(deps.Users, logg))
		})

		r.Route("/qualifications", func(r chi.Router) {
			r.Get("/", controllers.QualificationList(deps.Qualifications, logg))
			r.With(middleware.RequirePermission(enums.PermissionEditQualifications, logg)).
				Post("/", controllers.QualificationCreate(deps.Qualifications, logg))
			r.With(middleware.RequirePermission(enums.PermissionEditQualifications, logg)).
				Put("/{qualificationId}", controllers.QualificationUpdate(deps.Qualifications, logg))
			r.With(middleware.RequirePermission(enums.PermissionEditQualifications, logg)).
				Delete("/{qualificationId}", controllers.QualificationDelete(deps.Qualifications, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemList(deps.Items, logg))
			r.Get("/{itemId}", controllers.ItemGet(deps.Items, logg))
			r.With(middleware.RequirePermission(enums.PermissionCreateItems, logg)).
				Post("/", controllers.ItemCreate(deps.Items, logg))
			r.With(middleware.RequirePermission(enums.PermissionCreateItems, logg)).
				Put("/{itemId}", controllers.ItemUpdate(deps.Items, logg))
			r.With(middleware.RequirePermission(enums.PermissionCreateItems, logg)).
				Delete("/{itemId}", controllers.ItemDelete(deps.Items, logg))
		})

		r.Route("/borrowstates", func(r chi.Router) {
			r.Use(middleware.RequirePermission(enums.PermissionManageCheckouts, logg))
			r.Get("/", controllers.BorrowStateList(deps.Borrow, logg))
			r.Post("/checkout", controllers.Checkout(deps.Borrow, logg))
			r.Post("/checkin", controllers.Checkin(deps.Borrow, logg))
		})

		r.Route("/transferrequests", func(r chi.Router) {
			r.Get("/", controllers.TransferRequestList(deps.Transfers, logg))
			r.Post("/", controllers.TransferRequestCreate(deps.Transfers, logg))
			r.Delete("/{requestId}", controllers.TransferRequestRespond(deps.Transfers, logg))
		})

		r.Route("/registration/tokens", func(r chi.Router) {
			r.Use(middleware.RequirePermission(enums.PermissionCreateUsers, logg))
			r.Get("/", controllers.RegistrationTokenList(deps.Registration, logg))
			r.Post("/", controllers.RegistrationTokenCreate(deps.Registration, logg))
			r.Delete("/{tokenId}", controllers.RegistrationTokenDelete(deps.Registration, logg))
		})

		r.Get("/logs", controllers.LogList(deps.AuditLog, logg))
	})

	return r
}
