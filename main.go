package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asertelegram/Sparkaph/handlers"
	"github.com/asertelegram/Sparkaph/internal/achievement"
	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store/postgres"
	"github.com/asertelegram/Sparkaph/middleware"
	"github.com/asertelegram/Sparkaph/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	notificationService *services.NotificationService
	userService         *services.UserService
	catalogService      *services.CatalogService
	allocator           *services.SlotAllocator
	tracker             *services.AssignmentTracker
	pipeline            *services.SubmissionPipeline
	evaluator           *services.AchievementEvaluator
	sweeper             *services.Sweeper
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if os.Getenv("GATEWAY_TOKEN") == "" {
		log.Fatal("GATEWAY_TOKEN environment variable is not set")
	}
	if os.Getenv("ADMIN_TOKEN") == "" {
		log.Fatal("ADMIN_TOKEN environment variable is not set")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	clock := clockwork.NewRealClock()
	stores := postgres.New(dbPool)
	catalog := achievement.DefaultCatalog()

	notificationService = services.NewNotificationService(stores.Notifications, clock)
	guard := services.NewSpamGuard(10, 3, clock)
	scoring := services.NewScoringEngine(stores.Users, clock)
	evaluator = services.NewAchievementEvaluator(catalog, stores.Users, stores.Submissions, clock, notificationService)
	userService = services.NewUserService(stores.Users, guard, evaluator, clock, notificationService)
	catalogService = services.NewCatalogService(stores.Challenges, clock)
	allocator = services.NewSlotAllocator(stores.Challenges, stores.Assignments, clock, notificationService)
	tracker = services.NewAssignmentTracker(stores.Assignments, stores.Challenges, clock, notificationService)
	pipeline = services.NewSubmissionPipeline(stores.Assignments, stores.Submissions, guard, tracker, scoring, evaluator, clock, notificationService)

	fcmService, err := notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	sweeper, err = services.NewSweeper(tracker, catalogService, guard, clock)
	if err != nil {
		log.Fatal("Failed to create sweeper:", err)
	}

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService, evaluator)
	challengeHandler := handlers.NewChallengeHandler(allocator, tracker)
	submissionHandler := handlers.NewSubmissionHandler(pipeline)
	adminHandler := handlers.NewAdminHandler(catalogService, pipeline)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "sparkaph-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// -------------------------------------------------------------------------
	// USER TIER (bot gateway auth)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.GatewayAuthMiddleware)

	protected.HandleFunc("/users/register", userHandler.Register).Methods("POST")
	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/achievements", userHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/leaderboard", userHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/social-share", userHandler.RecordSocialShare).Methods("POST")

	protected.HandleFunc("/categories", challengeHandler.GetCategories).Methods("GET")
	protected.HandleFunc("/challenges/draw", challengeHandler.Draw).Methods("POST")
	protected.HandleFunc("/challenges/skip", challengeHandler.Skip).Methods("POST")

	protected.HandleFunc("/submissions", submissionHandler.Submit).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.List).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.UnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods("PUT")

	// -------------------------------------------------------------------------
	// ADMIN TIER (moderation bot auth)
	// -------------------------------------------------------------------------
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuthMiddleware)

	admin.HandleFunc("/challenges", adminHandler.CreateChallenge).Methods("POST")
	admin.HandleFunc("/challenges/{id}", adminHandler.GetChallenge).Methods("GET")
	admin.HandleFunc("/challenges/{id}/archive", adminHandler.ArchiveChallenge).Methods("POST")
	admin.HandleFunc("/submissions/pending", adminHandler.GetPendingSubmissions).Methods("GET")
	admin.HandleFunc("/submissions/{id}/review", adminHandler.ReviewSubmission).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "X-Gateway-Token", "X-Admin-Token", "X-Telegram-User-ID", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	if err := sweeper.Start(); err != nil {
		log.Fatal("Failed to start sweeper:", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if err := sweeper.Stop(); err != nil {
		log.Printf("Sweeper shutdown error: %v", err)
	}
	notificationService.Stop()

	log.Println("Server shutdown complete")
}
