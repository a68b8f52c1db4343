package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sekolah-ops-api/internal/config"
	"github.com/noah-isme/sekolah-ops-api/internal/handler"
	"github.com/noah-isme/sekolah-ops-api/internal/middleware"
	"github.com/noah-isme/sekolah-ops-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AttendanceHandler      *handler.AttendanceHandler
	ClassroomHandler       *handler.ClassroomHandler
	StudentHandler         *handler.StudentHandler
	OrderHandler           *handler.OrderHandler
	ClassroomStatusHandler *handler.ClassroomStatusHandler
	PaymentRequestHandler  *handler.PaymentRequestHandler
	SeedHandler            *handler.SeedHandler
	JWTMiddleware          fiber.Handler

	// UploadsDir, when set, is served statically under UploadsPublicPrefix so
	// locally stored evidence images resolve.
	UploadsDir          string
	UploadsPublicPrefix string
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	if deps.UploadsDir != "" {
		prefix := deps.UploadsPublicPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		app.Static(prefix, deps.UploadsDir)
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public self-check-in endpoints: no auth, tight rate limit. The token is
	// the credential.
	if deps.AttendanceHandler != nil {
		public := api.Group("/public/attendance", middleware.RateLimit("public-checkin", 20, time.Minute))
		public.Get("/token/:token", deps.AttendanceHandler.LookupToken)
		public.Post("/submit", deps.AttendanceHandler.SubmitToken)
	}

	// Seeding authenticates with its own shared token, not a JWT.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	staff := api.Group("", jwtMiddleware)
	staffAny := middleware.RequireRole("admin", "teacher", "sale")
	adminOnly := middleware.RequireRole("admin")
	adminSale := middleware.RequireRole("admin", "sale")
	adminTeacher := middleware.RequireRole("admin", "teacher")

	if deps.AttendanceHandler != nil {
		attendance := staff.Group("/attendance")
		attendance.Post("/mark", adminTeacher, deps.AttendanceHandler.Mark)
		attendance.Post("/bulk-mark", adminTeacher, deps.AttendanceHandler.BulkMark)
		attendance.Post("/generate-link", adminTeacher, deps.AttendanceHandler.GenerateLink)
		attendance.Get("/report", adminOnly, deps.AttendanceHandler.Report)
		if deps.ClassroomHandler != nil {
			attendance.Get("/teacher/classes", staffAny, deps.ClassroomHandler.TeacherClasses)
			attendance.Get("/order-classes", staffAny, deps.ClassroomHandler.ListVirtual)
			attendance.Get("/class/:classId/teachers", staffAny, deps.ClassroomHandler.ClassTeachers)
		}
		attendance.Get("/class/:classId", staffAny, deps.AttendanceHandler.ClassDay)
		attendance.Get("/student/:studentId", staffAny, deps.AttendanceHandler.StudentHistory)
		attendance.Get("/stats/:classId", staffAny, deps.AttendanceHandler.Stats)
		attendance.Patch("/:id", adminTeacher, deps.AttendanceHandler.Update)
	}

	if deps.ClassroomHandler != nil {
		classrooms := staff.Group("/classrooms")
		classrooms.Get("", staffAny, deps.ClassroomHandler.List)
		classrooms.Get("/:id", staffAny, deps.ClassroomHandler.Get)
		classrooms.Get("/:id/roster", staffAny, deps.ClassroomHandler.Roster)
		classrooms.Post("", adminOnly, deps.ClassroomHandler.Create)
		classrooms.Patch("/:id", adminOnly, deps.ClassroomHandler.Update)
		classrooms.Delete("/:id", adminOnly, deps.ClassroomHandler.Delete)
	}

	if deps.StudentHandler != nil {
		students := staff.Group("/students")
		students.Get("", staffAny, deps.StudentHandler.List)
		students.Get("/:id", staffAny, deps.StudentHandler.Get)
		students.Post("", adminSale, deps.StudentHandler.Create)
		students.Patch("/:id", adminSale, deps.StudentHandler.Update)
		students.Delete("/:id", adminOnly, deps.StudentHandler.Delete)
		students.Put("/:id/frames", adminSale, deps.StudentHandler.UpsertFrame)
		students.Post("/:id/frames/:index/confirm", adminOnly, deps.StudentHandler.ConfirmFrame)
		students.Get("/:id/balance", staffAny, deps.StudentHandler.Balance)
	}

	if deps.OrderHandler != nil {
		orders := staff.Group("/orders")
		orders.Get("", staffAny, deps.OrderHandler.List)
		orders.Get("/:id", staffAny, deps.OrderHandler.Get)
		orders.Post("", adminSale, deps.OrderHandler.Create)
		orders.Patch("/:id", adminSale, deps.OrderHandler.Update)
		orders.Delete("/:id", adminOnly, deps.OrderHandler.Delete)
		orders.Post("/:id/sync", adminOnly, deps.OrderHandler.Sync)
	}

	if deps.ClassroomStatusHandler != nil {
		statuses := staff.Group("/classroom-status")
		statuses.Get("", staffAny, deps.ClassroomStatusHandler.List)
		statuses.Get("/:id", staffAny, deps.ClassroomStatusHandler.Get)
		statuses.Patch("/:id/lock", adminOnly, deps.ClassroomStatusHandler.Lock)
	}

	if deps.PaymentRequestHandler != nil {
		payments := staff.Group("/payment-requests")
		payments.Get("", adminTeacher, deps.PaymentRequestHandler.List)
		payments.Get("/:id", adminTeacher, deps.PaymentRequestHandler.Get)
		payments.Patch("/:id/submit", adminTeacher, deps.PaymentRequestHandler.Submit)
	}
}
