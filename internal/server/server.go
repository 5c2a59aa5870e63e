package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"anoa.com/kopilka/internal/config"
	"anoa.com/kopilka/internal/middleware"
	"anoa.com/kopilka/internal/realtime"
	"anoa.com/kopilka/internal/scheduler"
	"anoa.com/kopilka/pkg/logger"
	"anoa.com/kopilka/pkg/response"
	"anoa.com/kopilka/pkg/storage"

	achievementHttp "anoa.com/kopilka/internal/modules/achievement/delivery/http"
	achievementRepo "anoa.com/kopilka/internal/modules/achievement/repository"
	achievementService "anoa.com/kopilka/internal/modules/achievement/service"

	adminHttp "anoa.com/kopilka/internal/modules/admin/delivery/http"
	adminService "anoa.com/kopilka/internal/modules/admin/service"

	applicationHttp "anoa.com/kopilka/internal/modules/application/delivery/http"
	applicationRepo "anoa.com/kopilka/internal/modules/application/repository"
	applicationService "anoa.com/kopilka/internal/modules/application/service"

	attachmentHttp "anoa.com/kopilka/internal/modules/attachment/delivery/http"
	attachmentRepo "anoa.com/kopilka/internal/modules/attachment/repository"
	attachmentService "anoa.com/kopilka/internal/modules/attachment/service"

	categoryHttp "anoa.com/kopilka/internal/modules/category/delivery/http"
	categoryRepo "anoa.com/kopilka/internal/modules/category/repository"
	categoryService "anoa.com/kopilka/internal/modules/category/service"

	donationHttp "anoa.com/kopilka/internal/modules/donation/delivery/http"
	donationRepo "anoa.com/kopilka/internal/modules/donation/repository"
	donationService "anoa.com/kopilka/internal/modules/donation/service"

	friendshipHttp "anoa.com/kopilka/internal/modules/friendship/delivery/http"
	friendshipRepo "anoa.com/kopilka/internal/modules/friendship/repository"
	friendshipService "anoa.com/kopilka/internal/modules/friendship/service"

	gameHttp "anoa.com/kopilka/internal/modules/game/delivery/http"
	gameRepo "anoa.com/kopilka/internal/modules/game/repository"
	gameService "anoa.com/kopilka/internal/modules/game/service"

	leaderboardHttp "anoa.com/kopilka/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/kopilka/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/kopilka/internal/modules/leaderboard/service"

	notiHttp "anoa.com/kopilka/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/kopilka/internal/modules/notification/repository"
	notifService "anoa.com/kopilka/internal/modules/notification/service"

	profileHttp "anoa.com/kopilka/internal/modules/profile/delivery/http"
	profileService "anoa.com/kopilka/internal/modules/profile/service"

	searchService "anoa.com/kopilka/internal/modules/search/service"

	statHttp "anoa.com/kopilka/internal/modules/stat/delivery/http"
	statService "anoa.com/kopilka/internal/modules/stat/service"

	storyHttp "anoa.com/kopilka/internal/modules/story/delivery/http"
	storyRepo "anoa.com/kopilka/internal/modules/story/repository"
	storyService "anoa.com/kopilka/internal/modules/story/service"

	userHttp "anoa.com/kopilka/internal/modules/user/delivery/http"
	userRepo "anoa.com/kopilka/internal/modules/user/repository"
	userService "anoa.com/kopilka/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options carries the infrastructure NewServer does not build itself.
type Options struct {
	Redis *redis.Client
	// Storage overrides the cloudinary client. Tests pass an in-memory implementation.
	Storage storage.FileStorage
	// Meili is nil when search is disabled.
	Meili meilisearch.ServiceManager
}

type Server struct {
	cfg         *config.Config
	engine      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	broker      *realtime.Broker
	scheduler   *scheduler.Scheduler
	leaderboard leaderboardService.LeaderboardService
	stories     storyService.StoryService
	cancel      context.CancelFunc
	log         *logger.Logger
}

func NewServer(cfg *config.Config, db *gorm.DB, opts Options, log *logger.Logger) (*Server, error) {
	response.SetLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	redisClient := opts.Redis

	fileStorage := opts.Storage
	if fileStorage == nil {
		var err error
		fileStorage, err = storage.NewCloudinaryStorage("")
		if err != nil {
			log.Warn("cloudinary not configured, uploads disabled", "error", err)
			fileStorage = storage.Disabled()
		}
	}

	broker := realtime.NewBroker(log, 0)
	if redisClient != nil {
		bus, err := realtime.NewRedisBus(redisClient, cfg.RedisChannel, log)
		if err != nil {
			cancel()
			return nil, err
		}
		if err := broker.AttachBus(ctx, bus); err != nil {
			cancel()
			return nil, err
		}
	}

	if opts.Meili != nil {
		searchService.InitIndexes(opts.Meili, log)
	}
	searchSvc := searchService.NewSearchService(opts.Meili, log)

	userRepository := userRepo.NewUserRepository(db)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, broker, log)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, broker, originChecker(cfg.AllowedOrigins), log)

	leaderboardRepository := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepository, notificationSvc, log)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	applicationRepository := applicationRepo.NewApplicationRepository(db)
	storyRepository := storyRepo.NewStoryRepository(db)
	friendshipRepository := friendshipRepo.NewFriendshipRepository(db)
	gameRepository := gameRepo.NewGameRepository(db)
	donationRepository := donationRepo.NewDonationRepository(db)

	// Achievement engine, evaluated over every activity source
	achievementSvc := achievementService.NewAchievementService(
		achievementRepo.NewAchievementRepository(db),
		achievementService.Sources{
			Applications: applicationRepository,
			Stories:      storyRepository,
			Friends:      friendshipRepository,
			Games:        gameRepository,
			Logins:       userRepository,
			Donations:    donationRepository,
		},
		cfg.AchievementCatalogTTL,
		log,
		achievementService.WithNotifier(notificationSvc),
		achievementService.WithPointsAwarder(leaderboardSvc),
	)
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc)

	authSvc := userService.NewAuthService(userRepository, achievementSvc, cfg.JWTSecret, cfg.JWTTTL, log)
	authHandler := userHttp.NewAuthHandler(authSvc)

	adminSvc := adminService.NewAdminService(userRepository, log)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	profileSvc := profileService.NewProfileService(userRepository, fileStorage, cfg.CloudinaryUploadFolder, leaderboardSvc, achievementSvc, log)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	categorySvc := categoryService.NewCategoryService(categoryRepo.NewCategoryRepository(db))
	categoryHandler := categoryHttp.NewCategoryHandler(categorySvc)

	attachmentSvc := attachmentService.NewAttachmentService(attachmentRepo.NewAttachmentRepository(db), fileStorage, cfg.CloudinaryUploadFolder, log)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc)

	applicationSvc := applicationService.NewApplicationService(applicationRepository, categorySvc, achievementSvc, notificationSvc, leaderboardSvc, searchSvc, log)
	applicationHandler := applicationHttp.NewApplicationHandler(applicationSvc)

	donationSvc := donationService.NewDonationService(donationRepository, achievementSvc, notificationSvc, leaderboardSvc, log)
	donationHandler := donationHttp.NewDonationHandler(donationSvc)

	storySvc := storyService.NewStoryService(storyRepository, redisClient, achievementSvc, notificationSvc, log)
	storyHandler := storyHttp.NewStoryHandler(storySvc)

	friendshipSvc := friendshipService.NewFriendshipService(friendshipRepository, userRepository, achievementSvc, notificationSvc, log)
	friendshipHandler := friendshipHttp.NewFriendshipHandler(friendshipSvc)

	gameSvc := gameService.NewGameService(gameRepository, achievementSvc, log)
	gameHandler := gameHttp.NewGameHandler(gameSvc)

	statSvc := statService.NewStatService(userRepository, applicationRepository, donationRepository)
	statHandler := statHttp.NewStatHandler(statSvc)

	jobs := scheduler.NewScheduler(log)
	if err := jobs.RegisterDefaults(scheduler.Deps{
		Catalog:     achievementSvc,
		Scores:      leaderboardSvc,
		Attachments: attachmentSvc,
	}); err != nil {
		cancel()
		return nil, err
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(userRepository, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/users", adminHandler.GetAllUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.UpdateRole)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.DELETE("/users/:id/achievements/:slug", achievementHandler.Revoke)
			adminGroup.GET("/applications/pending", applicationHandler.ListPending)
			adminGroup.PUT("/applications/:id/review", applicationHandler.Review)
			adminGroup.POST("/categories", categoryHandler.CreateCategory)
			adminGroup.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		}

		achievements := protected.Group("/achievements")
		{
			achievements.GET("", achievementHandler.GetAll)
			achievements.GET("/me", achievementHandler.GetMine)
			achievements.GET("/progress", achievementHandler.GetProgress)
			achievements.POST("/check", achievementHandler.Check)
		}

		applications := protected.Group("/applications")
		{
			applications.GET("", applicationHandler.ListApproved)
			applications.POST("", applicationHandler.Submit)
			applications.GET("/me", applicationHandler.GetMine)
			applications.GET("/search", applicationHandler.Search)
			applications.GET("/:id", applicationHandler.GetByID)
			applications.GET("/:id/donations", donationHandler.ListForApplication)
			applications.POST("/:id/donations",
				middleware.RateLimit(redisClient, "donation", cfg.RateLimitDonation, log),
				donationHandler.Donate,
			)
		}
		protected.GET("/donations/me", donationHandler.ListMine)

		stories := protected.Group("/stories")
		{
			stories.GET("", storyHandler.List)
			stories.POST("", storyHandler.Create)
			stories.GET("/:id", storyHandler.GetByID)
			stories.PUT("/:id", storyHandler.Update)
			stories.DELETE("/:id", storyHandler.Delete)
			stories.POST("/:id/like", storyHandler.ToggleLike)
		}

		friends := protected.Group("/friends")
		{
			friends.GET("", friendshipHandler.ListFriends)
			friends.GET("/requests", friendshipHandler.ListIncoming)
			friends.POST("", friendshipHandler.SendRequest)
			friends.PUT("/:id/accept", friendshipHandler.Accept)
			friends.DELETE("/:id", friendshipHandler.Remove)
		}

		protected.POST("/games/scores", gameHandler.SubmitScore)
		protected.GET("/games/scores/best", gameHandler.BestScores)

		protected.GET("/heroes", leaderboardHandler.GetLeaderboard)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/stream", notificationHandler.Stream)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Profile routes
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)
		protected.PUT("/profile/me", profileHandler.UpdateProfile)
		protected.GET("/profile/:username", profileHandler.GetProfileByUsername)

		protected.GET("/categories", categoryHandler.GetAllCategories)
		protected.GET("/stats", statHandler.GetPlatformStats)
		protected.POST("/upload", attachmentHandler.UploadAttachment)
	}

	return &Server{
		cfg:         cfg,
		engine:      router,
		db:          db,
		redisClient: redisClient,
		broker:      broker,
		scheduler:   jobs,
		leaderboard: leaderboardSvc,
		stories:     storySvc,
		cancel:      cancel,
		log:         log.With("component", "server"),
	}, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts background workers and blocks serving HTTP until Shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.scheduler.Start()
	if s.redisClient != nil {
		go s.stories.StartViewSyncWorker(ctx, s.cfg.ViewSyncInterval)
	}

	s.httpServer = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops jobs and waits for pending point awards.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.scheduler.Stop(ctx)
	s.cancel()
	s.broker.Close()
	s.leaderboard.Wait()
	return err
}

func splitOrigins(allowedOrigins string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(allowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// originChecker accepts websocket upgrades from the CORS origins and from non-browser clients.
func originChecker(allowedOrigins string) func(r *http.Request) bool {
	origins := splitOrigins(allowedOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
