package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/handlers"
	"practico/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	sessions middleware.SessionValidator,
	adminKey string,
	authHandler *handlers.AuthHandler,
	verifyHandler *handlers.VerifyHandler,
	resetHandler *handlers.PasswordResetHandler,
	userHandler *handlers.UserHandler,
	contentHandler *handlers.ContentHandler,
	paymentHandler *handlers.PaymentHandler,
	tutorHandler *handlers.TutorHandler,
) *gin.Engine {

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ---- public
	r.POST("/adduser", authHandler.Register)
	r.POST("/authenticate", authHandler.Authenticate)
	r.POST("/force-login", authHandler.Authenticate)

	// токен читают сами хендлеры: истёкшая сессия должна ответить sessionExpired
	r.POST("/heartbeat", authHandler.Heartbeat)
	r.POST("/logout", authHandler.Logout)

	r.POST("/send-otp", verifyHandler.SendOTP)
	r.POST("/verify-otp", verifyHandler.VerifyOTP)
	r.POST("/resend-otp", verifyHandler.ResendOTP)

	reset := r.Group("/password-reset")
	{
		reset.POST("/send-otp", resetHandler.SendOTP)
		reset.POST("/verify-otp", resetHandler.VerifyOTP)
		reset.POST("/reset", resetHandler.Reset)
	}

	// PAYMENTS
	pay := r.Group("/payment")
	{
		pay.POST("/initialize", paymentHandler.Initialize)
		pay.POST("/check-status", paymentHandler.CheckStatus)
		pay.GET("/callback", paymentHandler.Callback)
		pay.POST("/callback", paymentHandler.Callback)
	}

	// CONTENT (чтение открыто, запись по ключу администратора)
	admin := middleware.RequireAdminKey(adminKey)
	practice := r.Group("/practice")
	{
		practice.POST("/add", admin, contentHandler.AddPracticeTest)
		practice.GET("", contentHandler.ListPracticeTests)
		practice.GET("/:index", contentHandler.GetPracticeTest)
	}
	subject := r.Group("/subject")
	{
		subject.POST("/add", admin, contentHandler.AddSubjectTest)
		subject.GET("/:subject", contentHandler.ListSubjectTests)
		subject.GET("/:subject/:index", contentHandler.GetSubjectTest)
	}

	// ---- protected
	auth := r.Group("/", middleware.RequireSession(sessions))
	{
		auth.GET("/getinfo", userHandler.GetInfo)
		auth.POST("/updateDarkMode", userHandler.UpdateDarkMode)
		auth.POST("/updatePracticesSolved", userHandler.UpdatePracticesSolved)

		auth.POST("/practice-test-results/update", userHandler.UpdateResults)
		auth.GET("/practice-test-results", userHandler.GetResults)
		auth.POST("/practice-test-results/delete", userHandler.DeleteResult)

		auth.POST("/ai/analyze-question", tutorHandler.Analyze)
		auth.POST("/ai/chat", tutorHandler.Chat)
	}

	return r
}
