package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prepvault/internal/auth"
	"prepvault/internal/httpserver/handlers"
	"prepvault/internal/identity"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/companies"
	"prepvault/internal/services/questions"
	"prepvault/internal/services/ratelimit"
	"prepvault/internal/services/search"
	"prepvault/internal/services/tips"
	"prepvault/internal/uploads"
)

type Deps struct {
	DB        *gorm.DB
	Log       *zap.SugaredLogger
	Provider  identity.Provider
	Identity  *identity.Service
	Questions *questions.Store
	Search    *search.Engine
	Companies *companies.Directory
	Tips      *tips.Service
	Limiter   *ratelimit.Limiter
	Audit     *activity.Recorder
	Uploader  uploads.Uploader
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Route("/api", func(api chi.Router) {
		api.Get("/auth/login", handlers.Login(d.Provider))
		api.Get("/auth/callback", handlers.Callback(d.Provider, d.Identity, d.Audit, d.Log))

		api.Get("/questions", handlers.ListQuestions(d.Search))
		api.Get("/questions/{id}", handlers.GetQuestion(d.Questions))
		api.Get("/companies", handlers.ListCompanies(d.Companies))
		api.Get("/companies/branches", handlers.GetBranchLists())
		api.Get("/companies/{id}", handlers.GetCompany(d.Companies))
		api.Get("/companies/{companyID}/tips", handlers.GetCompanyTips(d.Tips))

		api.Group(func(protected chi.Router) {
			protected.Use(auth.JWTAuth(d.DB))

			protected.Get("/auth/me", handlers.Me(d.DB, d.Questions))
			protected.Post("/auth/logout", handlers.Logout(d.Audit))

			protected.Get("/questions/my", handlers.MyQuestions(d.Questions))
			protected.Get("/questions/my-claims-count", handlers.MyClaimsCount(d.Questions))
			protected.Post("/questions", handlers.CreateQuestion(d.Questions, d.Limiter, d.Audit, d.Log))
			protected.Put("/questions/{id}", handlers.UpdateQuestion(d.Questions, d.Audit))
			protected.Delete("/questions/{id}", handlers.DeleteQuestion(d.Questions))
			protected.Post("/questions/{id}/visited", handlers.ToggleVisited(d.Questions))
			protected.Post("/questions/{id}/claim", handlers.ClaimQuestion(d.Questions, d.Audit))
			protected.Delete("/questions/{id}/claim", handlers.UnclaimQuestion(d.Questions, d.Audit))

			protected.Post("/companies", handlers.CreateCompany(d.Companies, d.Uploader, d.Limiter, d.Audit, d.Log))
			protected.Put("/companies/{id}/logo", handlers.UpdateCompanyLogo(d.Companies, d.Uploader, d.Audit, d.Log))
			protected.Post("/companies/{companyID}/tips", handlers.CreateTip(d.Tips, d.Limiter, d.Audit))
			protected.Put("/tips/{id}", handlers.UpdateTip(d.Tips, d.Audit))
			protected.Delete("/tips/{id}", handlers.DeleteTip(d.Tips, d.Audit))

			protected.Get("/limits", handlers.RateLimitStatus(d.Limiter))

			protected.Group(func(admin chi.Router) {
				admin.Use(auth.RequireAdmin)
				admin.Post("/questions/{id}/claim/{userID}", handlers.AdminAddClaim(d.Questions, d.Audit))
				admin.Delete("/questions/{id}/claim/{userID}", handlers.AdminRemoveClaim(d.Questions, d.Audit))
				admin.Put("/companies/{id}/details", handlers.UpdateCompanyDetails(d.Companies, d.Audit))
				admin.Put("/admin/questions/{id}/transfer", handlers.TransferQuestion(d.Questions, d.Audit))
				admin.Get("/admin/questions/{id}/history", handlers.QuestionHistory(d.Questions))
				admin.Get("/admin/stats", handlers.GetStats(d.DB))
				admin.Get("/logs", handlers.ListLogs(d.Audit))
				admin.Get("/logs/stats", handlers.LogStats(d.Audit))
				admin.Get("/logs/actions", handlers.LogActions(d.Audit))
				admin.Get("/logs/{id}", handlers.GetLog(d.Audit))
			})

			protected.Group(func(superadmin chi.Router) {
				superadmin.Use(auth.RequireSuperadmin)
				superadmin.Get("/admin/users", handlers.ListUsers(d.DB, d.Log))
				superadmin.Put("/admin/users/{id}/role", handlers.UpdateUserRole(d.DB, d.Audit, d.Log))
				superadmin.Post("/admin/questions", handlers.AddQuestionForUser(d.DB, d.Questions, d.Audit))
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
