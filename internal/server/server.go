package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/handchatter/internal/bootstrap"
	"anoa.com/handchatter/internal/config"
	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/middleware"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/mailer"
	"anoa.com/handchatter/pkg/storage"

	accountHttp "anoa.com/handchatter/internal/modules/account/delivery/http"
	accountRepo "anoa.com/handchatter/internal/modules/account/repository"
	accountService "anoa.com/handchatter/internal/modules/account/service"

	favoriteHttp "anoa.com/handchatter/internal/modules/favorite/delivery/http"
	favoriteRepo "anoa.com/handchatter/internal/modules/favorite/repository"
	favoriteService "anoa.com/handchatter/internal/modules/favorite/service"

	searchService "anoa.com/handchatter/internal/modules/search/service"
	sessionService "anoa.com/handchatter/internal/modules/session/service"
	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"

	tutorHttp "anoa.com/handchatter/internal/modules/tutor/delivery/http"
	tutorService "anoa.com/handchatter/internal/modules/tutor/service"

	verificationHttp "anoa.com/handchatter/internal/modules/verification/delivery/http"
	verificationService "anoa.com/handchatter/internal/modules/verification/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the external clients the server is built on. Storage
// backends may be left nil to have NewServer construct them from config.
type Dependencies struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Meili       meilisearch.ServiceManager
	Images      storage.ImageStorage
	Documents   storage.DocumentStorage
	Mail        mailer.Sender
	SearchIndex searchService.TutorIndex
}

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config, deps Dependencies) (*Server, error) {
	log := logger.WithComponent("server")

	if deps.Images == nil {
		images, err := storage.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryUploadFolder)
		if err != nil {
			return nil, err
		}
		deps.Images = images
	}

	if deps.Documents == nil {
		docs, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		deps.Documents = docs
	}

	if deps.Mail == nil {
		transport := mailer.NewTransport(mailer.TransportConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.EmailUser,
			Password: cfg.EmailPass,
		})
		deps.Mail = mailer.NewSMTPSender(transport, cfg.EmailUser, cfg.SMTPTimeout)
	}

	if deps.SearchIndex == nil {
		if deps.Meili == nil {
			deps.Meili = meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		}
		if _, err := deps.Meili.Health(); err != nil {
			log.WithError(err).Warn("meilisearch unavailable, tutor indexing disabled")
			deps.SearchIndex = searchService.NewNoopTutorIndex()
		} else {
			deps.SearchIndex = searchService.NewMeiliTutorIndex(deps.Meili, cfg.SessionTTL)
		}
	}

	sessions := sessionService.NewSessionService(deps.Redis, cfg.SessionSecret, cfg.SessionTTL)
	tickets := signupRepo.NewTicketStore(deps.Redis, cfg.SignupTicketTTL)
	accounts := accountRepo.NewAccountRepository(deps.DB)
	cookies := middleware.CookieWriter{Secure: cfg.SessionCookieSecure}

	availabilitySvc := accountService.NewAvailabilityService(accounts, tickets)
	accountSvc := accountService.NewAccountService(accounts, sessions, tickets, deps.SearchIndex, deps.Images, deps.Documents,
		accountService.Options{RequireTicket: cfg.SignupRequireTicket})
	recoverySvc := accountService.NewRecoveryService(accounts, sessions, deps.Redis, deps.Mail, cfg.FrontendURL+"/resetPassword")
	oauthSvc := accountService.NewOAuthService(accounts, sessions, deps.Redis, accountService.KakaoConfig{
		ClientID:     cfg.KakaoClientID,
		ClientSecret: cfg.KakaoClientSecret,
		RedirectURL:  cfg.KakaoRedirectURL,
	})

	accountHandler := accountHttp.NewAccountHandler(accountSvc, availabilitySvc, tickets, cookies, cfg.SessionTTL)
	recoveryHandler := accountHttp.NewRecoveryHandler(recoverySvc)
	oauthHandler := accountHttp.NewOAuthHandler(oauthSvc, cookies, cfg.SessionTTL, cfg.FrontendURL)

	verificationSvc := verificationService.NewVerificationService(deps.Redis, deps.Mail, tickets, verificationService.Options{
		CodeTTL:        cfg.VerificationCodeTTL,
		MaxAttempts:    cfg.VerificationMaxAttempts,
		ResendInterval: cfg.VerificationResendInterval,
	})
	verificationHandler := verificationHttp.NewVerificationHandler(verificationSvc, cfg.IsDevelopment())

	favoriteSvc := favoriteService.NewFavoriteService(favoriteRepo.NewFavoriteRepository(deps.DB), accounts, deps.Redis)
	favoriteHandler := favoriteHttp.NewFavoriteHandler(favoriteSvc)
	eventsHandler := favoriteHttp.NewEventsHandler(deps.Redis, cfg.AllowedOrigins)

	tutorHandler := tutorHttp.NewTutorHandler(tutorService.NewCatalogService(accounts))

	if cfg.IsDevelopment() && cfg.SeedDemoData {
		if err := bootstrap.SeedDemoTutor(ctx, accounts, deps.SearchIndex); err != nil {
			log.WithError(err).Warn("failed to seed demo tutor")
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewHTTPMetrics(registry)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Middleware())

	sessionMiddleware := middleware.NewSessionMiddleware(sessions)
	router.Use(sessionMiddleware.LoadSession())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/auth/kakao", oauthHandler.KakaoLogin)
	router.GET("/auth/kakao/callback", oauthHandler.KakaoCallback)

	api := router.Group("/api")

	// Public routes
	{
		api.GET("/health", healthHandler(accounts, deps.Redis))

		api.GET("", tutorHandler.List)
		api.GET("/tutors/:tutorIdx", tutorHandler.Detail)

		api.POST("/signup/ticket", accountHandler.IssueTicket)
		api.GET("/checkStudentId", accountHandler.CheckID)
		api.GET("/checkTutorId", accountHandler.CheckID)
		api.GET("/checkStudentNickname", accountHandler.CheckNickname)
		api.GET("/checkTutorNickname", accountHandler.CheckNickname)

		api.POST("/email", verificationHandler.SendEmail)
		api.POST("/email/verify", verificationHandler.VerifyEmail)

		api.POST("/student", accountHandler.Signup(entity.RoleStudent))
		api.POST("/tutor", accountHandler.Signup(entity.RoleTutor))
		api.POST("/loginStudent", accountHandler.Login(entity.RoleStudent))
		api.POST("/loginTutor", accountHandler.Login(entity.RoleTutor))

		recovery := api.Group("")
		recovery.Use(middleware.NewIPRateLimiter(6*time.Second, 10).Middleware())
		recovery.GET("/searchId", recoveryHandler.SearchID)
		recovery.GET("/searchPassword", recoveryHandler.SearchPassword)
		recovery.PATCH("/resetPassword", recoveryHandler.ResetPassword)
	}

	protected := api.Group("")
	protected.Use(sessionMiddleware.RequireAuth())
	{
		protected.POST("/logout", accountHandler.Logout)
		protected.GET("/userInfo", accountHandler.GetInfo)
	}

	student := api.Group("")
	student.Use(sessionMiddleware.RequireRole(entity.RoleStudent))
	{
		student.PATCH("/studentProfile", accountHandler.EditProfile(entity.RoleStudent))
		student.PATCH("/editStudentPassword", accountHandler.ChangePassword(entity.RoleStudent))
		student.DELETE("/student", accountHandler.Delete(entity.RoleStudent))

		student.POST("/favorites", favoriteHandler.Add)
		student.DELETE("/favorites", favoriteHandler.Remove)
		student.POST("/favoritesTutor", favoriteHandler.List)
	}

	tutor := api.Group("")
	tutor.Use(sessionMiddleware.RequireRole(entity.RoleTutor))
	{
		tutor.PATCH("/tutorProfile", accountHandler.EditProfile(entity.RoleTutor))
		tutor.PATCH("/editTutorPassword", accountHandler.ChangePassword(entity.RoleTutor))
		tutor.DELETE("/tutor", accountHandler.Delete(entity.RoleTutor))

		tutor.GET("/events/ws", eventsHandler.Stream)
	}

	return &Server{
		engine:      router,
		db:          deps.DB,
		redisClient: deps.Redis,
	}, nil
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func healthHandler(accounts accountRepo.AccountRepository, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := accounts.Ping(ctx); err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithComponent("server").WithField("addr", addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
