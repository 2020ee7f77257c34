package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/timetable"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/ws"
)

type Dependencies struct {
	Enrollment  handler.EnrollmentService
	Recognition handler.RecognitionService
	Attendance  handler.AttendanceService
	Gallery     handler.GalleryStore
	Timetable   *timetable.Timetable
	DB          handler.Pinger
	// Events serves live session events over websocket when set
	Events      *ws.Hub

	// AttendanceSecret enables signature checks on /mark-attendance
	AttendanceSecret string
	RateLimit        *middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "SmartMark API",
		BodyLimit:    64 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-SmartMark-Signature",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var db handler.Pinger
	var gallerySize func() int
	if r.deps != nil {
		db = r.deps.DB
		if r.deps.Gallery != nil {
			gallerySize = func() int { return r.deps.Gallery.Current().Len() }
		}
	}
	healthHandler := handler.NewHealthHandler(db, gallerySize)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	cfg := middleware.DefaultRateLimiterConfig()
	if r.deps.RateLimit != nil {
		cfg = *r.deps.RateLimit
	}
	r.rateLimiter = middleware.NewRateLimiter(cfg)
	limit := r.rateLimiter.Handler()

	// Attendance collaborator endpoint, kept at the root path its clients use
	attendanceHandler := handler.NewAttendanceHandler(r.deps.Attendance, r.logger)
	r.app.Post("/mark-attendance", limit, middleware.Signature(r.deps.AttendanceSecret, r.logger), attendanceHandler.Mark)

	v1 := r.app.Group("/v1", limit)

	v1.Get("/attendance", attendanceHandler.List)

	userHandler := handler.NewUserHandler(r.deps.Enrollment, r.logger)
	v1.Post("/users", limit, userHandler.Enroll)
	v1.Get("/users", userHandler.List)
	v1.Get("/users/:enrollment", userHandler.Get)
	v1.Delete("/users/:enrollment", userHandler.Delete)

	sessionHandler := handler.NewSessionHandler(r.deps.Recognition, r.logger)
	v1.Post("/sessions", sessionHandler.Login)
	v1.Get("/sessions", sessionHandler.List)
	v1.Get("/sessions/:id", sessionHandler.Get)
	v1.Delete("/sessions/:id", sessionHandler.Logout)
	v1.Post("/sessions/:id/recognize", limit, sessionHandler.Recognize)
	if r.deps.Events != nil {
		v1.Get("/sessions/:id/events", ws.UpgradeMiddleware(openSessions{r.deps.Recognition}), ws.Handler(r.deps.Events))
	}

	timetableHandler := handler.NewTimetableHandler(r.deps.Timetable)
	v1.Get("/timetable", timetableHandler.List)
	v1.Get("/timetable/:day", timetableHandler.Day)

	galleryHandler := handler.NewGalleryHandler(r.deps.Gallery, r.logger)
	v1.Get("/gallery", galleryHandler.Get)
	v1.Post("/gallery/rebuild", limit, galleryHandler.Rebuild)
}

type openSessions struct {
	svc handler.RecognitionService
}

func (o openSessions) Exists(id uuid.UUID) bool {
	_, err := o.svc.Session(id)
	return err == nil
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
