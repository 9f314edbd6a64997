package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "practico/docs"
	"practico/internal/config"
	"practico/internal/database"
	"practico/internal/handlers"
	"practico/internal/pdf"
	"practico/internal/ratelimit"
	"practico/internal/repositories"
	"practico/internal/routes"
	"practico/internal/services"
	"practico/internal/utils"
)

const shutdownTimeout = 15 * time.Second

// App owns the HTTP server and everything it depends on.
type App struct {
	cfg      *config.Config
	db       *sql.DB
	rdb      *redis.Client
	geo      *utils.CountryResolver
	notifier *services.Notifier
	router   *gin.Engine
}

// New connects storage, applies migrations and builds the router.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	// === DB ===
	db, err := database.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := database.Migrate(ctx, db); err != nil {
		a.Close()
		return nil, err
	}

	// === Redis (кулдаун OTP) ===
	var cooldown ratelimit.Cooldown = ratelimit.Noop{}
	switch {
	case cfg.OTP.ResendCooldown <= 0:
		log.Printf("[otp] resend_cooldown not set, otp sends are not throttled")
	case cfg.Redis.Addr != "":
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			// без Redis работаем, просто без троттлинга
			log.Printf("[redis] ping failed, otp cooldown degraded: %v", err)
		}
		cooldown = ratelimit.NewRedisCooldown(a.rdb)
	default:
		log.Printf("[redis][skip] addr empty, otp cooldown kept in process")
		cooldown = ratelimit.NewLocal()
	}

	// === GeoIP ===
	geo, err := utils.NewCountryResolver(cfg.Payment.GeoIPDB, cfg.Payment.LocalCountry, cfg.Payment.FallbackCountry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("geoip: %w", err)
	}
	a.geo = geo

	// === Services ===
	store := repositories.NewPostgresStore(db)
	a.notifier = services.NewNotifier()

	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.DryRun,
	)
	alerts, err := services.NewTelegramAlerts(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		// алерты не критичны для оплаты
		log.Printf("[tg] disabled: %v", err)
		alerts = services.NoopAlerts{}
	}

	creds := services.NewCredentials(cfg.Auth.JWTSecret)
	sessionService := services.NewSessionService(store.Users(), creds, cfg.Auth.HeartbeatTimeout)
	otpService := services.NewOTPService(store, emailService, a.notifier, cooldown, services.OTPOptions{
		TTL:            cfg.OTP.TTL,
		ResendCooldown: cfg.OTP.ResendCooldown,
	})
	accountService := services.NewAccountService(store, otpService, emailService, a.notifier)
	userService := services.NewUserService(store)
	contentService := services.NewContentService(store.Content())
	paymentService := services.NewPaymentService(services.PaymentDeps{
		Store:          store,
		Gateway:        utils.NewIyzicoClient(cfg.Payment.APIKey, cfg.Payment.SecretKey, cfg.Payment.BaseURL),
		Countries:      geo,
		Emails:         emailService,
		Alerts:         alerts,
		Receipts:       pdf.NewReceiptGenerator(cfg.PDF.FontPath),
		Notifier:       a.notifier,
		CallbackURL:    cfg.Payment.CallbackURL,
		MembershipDays: cfg.Payment.MembershipDays,
	})
	tutorService := services.NewTutorService(utils.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL))

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(sessionService, accountService, userService)
	verifyHandler := handlers.NewVerifyHandler(accountService)
	resetHandler := handlers.NewPasswordResetHandler(accountService)
	userHandler := handlers.NewUserHandler(userService)
	contentHandler := handlers.NewContentHandler(contentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.Payment.LandingURL)
	tutorHandler := handlers.NewTutorHandler(tutorService)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		sessionService,
		cfg.Admin.APIKey,
		authHandler,
		verifyHandler,
		resetHandler,
		userHandler,
		contentHandler,
		paymentHandler,
		tutorHandler,
	)
	a.router = router
	return a, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// background notifications.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Сервер запущен на %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close waits for pending notifications and releases connections.
func (a *App) Close() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.geo != nil {
		if err := a.geo.Close(); err != nil {
			log.Printf("Ошибка закрытия GeoIP: %v", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Printf("Ошибка закрытия Redis: %v", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Admin-Key")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
