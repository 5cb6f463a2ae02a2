package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	authHandler := handlers.NewAuthHandler(s.config, sessionManager, s.logger)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Workflow, s.deps.Camera, s.logger)
	studentsHandler := handlers.NewStudentsHandler(s.deps.Registrar, s.logger)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// A batch runs to completion, however long the backend takes
		r.Post("/attendance/submit", attendanceHandler.Submit)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(s.requestTimeout))

			// Admin gate
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/status", authHandler.Status)

			// Attendance is open to anyone at the kiosk
			r.Get("/attendance", attendanceHandler.Get)
			r.Delete("/attendance", attendanceHandler.Reset)
			r.Post("/attendance/images", attendanceHandler.Stage)
			r.Post("/attendance/capture", attendanceHandler.Capture)
			r.Get("/attendance/image", attendanceHandler.Image)
			r.Get("/attendance/previews/{id}", attendanceHandler.Preview)

			// Registration requires an admin session
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(sessionManager))
				r.Post("/students", studentsHandler.Register)
			})
		})
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves a landing page pointing at the API.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Face Attendance</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #f4f6f4; color: #222; }
        .container { text-align: center; }
        h1 { color: #008000; }
        a { color: #008000; }
        code { background: #e6ebe6; padding: 2px 8px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Face Attendance</h1>
        <p>Post images to <code>/api/v1/attendance/images</code>, then <code>/api/v1/attendance/submit</code>.</p>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
