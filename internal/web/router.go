package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/myrobot/academy/internal/access"
	"github.com/myrobot/academy/internal/auth"
	"github.com/myrobot/academy/internal/handlers"
	"github.com/myrobot/academy/internal/services"
	"github.com/myrobot/academy/internal/store"
)

// Deps groups what the routes need.
type Deps struct {
	Store       *store.Store
	Auth        *auth.Service
	Enrollments *services.Enrollments
	Checkout    *services.Checkout
	Log         zerolog.Logger

	AllowedOrigins  []string
	PublicBaseURL   string
	DefaultDialCode string

	// LoginRate limits auth attempts per IP per minute; 0 disables.
	LoginRate int
}

func Router(ctx context.Context, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(d.AllowedOrigins))
	r.Use(Brotli())
	r.Use(auth.Middleware(d.Auth))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	st := d.Store
	courses := handlers.Courses(st)
	events := handlers.Events(st)
	gallery := handlers.Gallery(st)
	achievements := handlers.Achievements(st)

	// Level 1: everyone
	r.Get("/healthz", handlers.Health)
	r.With(CacheControl(86400)).Get("/qr/{code}.png", handlers.QR(st, d.PublicBaseURL))

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(CacheControl(60))
			pub.Get("/courses", courses.List)
			pub.Get("/events", events.List)
			pub.Get("/gallery", gallery.List)
			pub.Get("/achievements", achievements.List)
		})
		api.Get("/language", handlers.GetLanguage(st))
		api.Put("/language", handlers.SetLanguage(st))

		api.Route("/auth", func(ar chi.Router) {
			ar.Group(func(lim chi.Router) {
				if d.LoginRate > 0 {
					lim.Use(NewRateLimiter(ctx, d.LoginRate, time.Minute).Middleware)
				}
				lim.Post("/register", handlers.Register(d.Auth))
				lim.Post("/login", handlers.Login(d.Auth))
			})
			ar.Post("/logout", handlers.Logout)
			ar.With(access.Require(access.Member)).Get("/me", handlers.Me)
		})

		// Wizards
		enrollFlow := handlers.Fixed(d.Enrollments.Flow)
		api.Route("/enrollment", func(wr chi.Router) {
			wr.Get("/steps", handlers.WizardSteps(enrollFlow))
			wr.Post("/next", handlers.WizardNext(enrollFlow, handlers.PrepareEnrollment(d.DefaultDialCode)))
			wr.Post("/prev", handlers.WizardPrev(enrollFlow))
			wr.Post("/", handlers.SubmitEnrollment(d.Enrollments, d.DefaultDialCode))
		})
		checkoutFlow := handlers.CheckoutFlow(d.Checkout)
		api.Route("/events/{id}/checkout", func(wr chi.Router) {
			wr.Get("/steps", handlers.WizardSteps(checkoutFlow))
			wr.Post("/next", handlers.WizardNext(checkoutFlow, handlers.PrepareCheckout))
			wr.Post("/prev", handlers.WizardPrev(checkoutFlow))
			wr.Post("/", handlers.SubmitCheckout(d.Checkout))
		})

		// Level 2: any signed-in user
		api.Group(func(g chi.Router) {
			g.Use(access.Require(access.Member))
			g.Get("/courses/{id}", courses.Get)
			g.Get("/events/{id}", events.Get)
		})

		// Level 3: students
		api.With(access.Require(access.Student)).Get("/student/dashboard", handlers.StudentDashboard(st))

		// Level 4: parents
		api.Route("/parent", func(pr chi.Router) {
			pr.Use(access.Require(access.Parent))
			pr.Get("/children", handlers.ListChildren(st))
			pr.Post("/children", handlers.CreateChild(st))
			pr.Get("/children/{id}", handlers.GetChild(st))
			pr.Put("/children/{id}", handlers.UpdateChild(st))
			pr.Patch("/children/{id}", handlers.UpdateChild(st))
			pr.Delete("/children/{id}", handlers.DeleteChild(st, d.Enrollments))
			pr.Post("/children/{id}/account", handlers.CreateChildAccount(st, d.Auth))
			pr.Post("/enrollments/{code}/cancel", handlers.CancelEnrollment(d.Enrollments))
		})

		// Level 5: coordinators
		api.Group(func(cr chi.Router) {
			cr.Use(access.Require(access.Coordinator))
			cr.Get("/coordinator/courses", handlers.CoordinatorCourses(st))
			cr.Get("/coordinator/courses/{id}/roster", handlers.CourseRoster(st))
			cr.Get("/codes/{code}", handlers.LookupCode(st))
		})

		// Level 6: admin
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(access.Require(access.Admin))
			ar.Route("/courses", handlers.AdminCourses(st).Routes)
			ar.Route("/events", handlers.AdminEvents(st).Routes)
			ar.Route("/gallery", handlers.Gallery(st).Routes)
			ar.Route("/achievements", handlers.Achievements(st).Routes)

			users := handlers.AdminUsers(st)
			ar.Route("/users", func(ur chi.Router) {
				ur.Get("/", users.List)
				ur.Post("/", handlers.CreateUser(d.Auth))
				ur.Get("/{id}", users.Get)
				ur.Put("/{id}", users.Update)
				ur.Patch("/{id}", users.Update)
				ur.Delete("/{id}", users.Delete)
			})

			ar.Route("/notifications", func(nr chi.Router) {
				nr.Get("/unread", handlers.UnreadNotifications(st))
				nr.Post("/{id}/read", handlers.MarkNotificationRead(st))
				handlers.AdminNotifications(st).Routes(nr)
			})
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
	} else {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}
	return cors.Handler(opts)
}
