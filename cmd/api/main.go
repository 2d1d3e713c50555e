package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"questrank/internal/adapter/api/handler"
	apimiddleware "questrank/internal/adapter/api/middleware"
	"questrank/internal/adapter/api/router"
	"questrank/internal/adapter/repository"
	"questrank/internal/domain/entity"
	"questrank/internal/infrastructure/cache"
	"questrank/internal/infrastructure/firebase"
	"questrank/internal/infrastructure/websocket"
	"questrank/internal/usecase"
	"questrank/pkg/config"
	"questrank/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New()
	ctx := context.Background()

	var opt option.ClientOption

	// Try to get service account from environment variable (for production)
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		// Fallback to file path (for local development)
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	levelRepo := repository.NewFirestoreLevelRepository(firestoreClient)
	definitions, err := levelRepo.ListAll(ctx)
	if err != nil {
		log.Fatalf("Failed to load level table: %v", err)
	}
	levelTable, err := entity.NewLevelTable(definitions)
	if err != nil {
		log.Fatalf("Level table is invalid, refusing to start (run cmd/seed first?): %v", err)
	}
	log.Printf("Loaded level table with %d levels", levelTable.MaxLevel())

	// Redis is optional. Without it the level cache and rate limiter fall
	// back to miss/fail-open behavior.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			appLogger.Warn("Redis unreachable, continuing without it", "addr", cfg.RedisAddr, "error", err)
			redisClient = nil
		}
		cancel()
	}
	levelCache := cache.NewLevelCache(redisClient, time.Duration(cfg.LevelCacheTTL)*time.Second)

	progressionRepo := repository.NewFirestoreProgressionRepository(firestoreClient)
	instanceRepo := repository.NewFirestoreQuestInstanceRepository(firestoreClient)
	followerProvider := repository.NewFirestoreFollowerProvider(firestoreClient)

	catalogRepo, err := repository.NewCachedQuestCatalog(repository.NewFirestoreQuestCatalogRepository(firestoreClient), 256)
	if err != nil {
		log.Fatalf("Failed to initialize quest catalog cache: %v", err)
	}

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	wsManager := websocket.NewManager(appLogger)
	wsManager.Start(ctx)

	progressionUseCase := usecase.NewProgressionUseCase(
		progressionRepo,
		levelTable,
		followerProvider,
		wsManager,
		levelCache,
		appLogger,
	)
	questUseCase := usecase.NewQuestUseCase(
		catalogRepo,
		instanceRepo,
		progressionRepo,
		progressionUseCase,
		levelCache,
		wsManager,
		appLogger,
	)

	handler.Setup(progressionUseCase, questUseCase, firebaseAuthClient, wsManager)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	rateLimiter := apimiddleware.NewRateLimiter(redisClient, appLogger)

	router.Setup(e, authMiddleware, rateLimiter)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
