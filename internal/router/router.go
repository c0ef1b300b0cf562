package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/harshyyy26/QuizApp/internal/handler"
	"github.com/harshyyy26/QuizApp/internal/middleware"
)

// RegisterRoutes registers routes that carry no authorization requirement.
// Currently it exposes only a health check used by load balancers and
// monitoring to verify the service and its stores are up.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the credential workflow routes under /auth.  The
// whole group is open: these endpoints run before a token exists and produce
// one.  The rate limiter wraps the group to slow down credential guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)
	g.POST("/send-otp", a.SendOtp)
	g.POST("/verify-otp", a.VerifyOtp)
	g.POST("/request-reset", a.RequestReset)
	g.POST("/reset-password", a.ResetPassword)
}

// RegisterUser registers the quiz-taking surface under /user.  Every route
// requires an authenticated principal with the USER role; the authentication
// gate itself is installed globally in main so that revoked tokens are
// rejected on every route.
func RegisterUser(e *echo.Echo, u *handler.UserHandler) {
	g := e.Group("/user")
	g.Use(middleware.RequireRole("USER"))
	g.GET("/profile", u.Profile)
	g.GET("/quizSubjects", u.QuizSubjects)
	g.GET("/quiz/:quizId", u.QuizQuestions)
	g.POST("/solve/:quizId", u.Solve)
	g.GET("/attempts", u.ListAttempts)
	g.GET("/leaderboard/:quizId", u.Leaderboard)
}

// RegisterAdmin registers quiz and user management under /admin, restricted
// to the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler) {
	g := e.Group("/admin")
	g.Use(middleware.RequireRole("ADMIN"))
	g.POST("/addQuiz", a.AddQuiz)
	g.PUT("/addQuestion/:quizId", a.AddQuestion)
	g.PUT("/updateQuestion/:quizId/:questionId", a.UpdateQuestion)
	g.DELETE("/deleteQuestion/:quizId/:questionId", a.DeleteQuestion)
	g.DELETE("/deleteQuiz/:quizId", a.DeleteQuiz)
	g.GET("/quizzes", a.QuizList)
	g.GET("/quiz/:quizId", a.Quiz)
	g.GET("/users", a.ListUsers)
	g.DELETE("/users/:id", a.DeleteUser)
}
