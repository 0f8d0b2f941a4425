package main

import (
	"log"
	"os"

	_ "assettrack/api/swagger" // swagger docs
	"assettrack/internal/database"
	"assettrack/internal/glpi"
	"assettrack/internal/handler"
	"assettrack/internal/middleware"
	"assettrack/internal/repository"
	"assettrack/internal/service"
	"assettrack/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func postgresDSN(prefix string) string {
	host := envOr(prefix+"_HOST", "localhost")
	port := envOr(prefix+"_PORT", "5432")
	user := envOr(prefix+"_USER", "postgres")
	password := envOr(prefix+"_PASSWORD", "postgres")
	name := envOr(prefix+"_NAME", "postgres")
	sslMode := envOr(prefix+"_SSLMODE", "disable")
	return "postgres://" + user + ":" + password + "@" + host + ":" + port + "/" + name + "?sslmode=" + sslMode
}

// @title           Asset Tracking API
// @version         1.0
// @description     IT asset registry with lifecycle tracking, loans, maintenance, audits and GLPI enrichment.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	db, err := database.NewConnection(postgresDSN("DB"))
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	glpiDB, err := glpi.NewConnection(postgresDSN("GLPI_DB"))
	if err != nil {
		log.Fatalf("GLPI database connection failed: %v", err)
	}
	log.Println("Connected to GLPI database successfully.")

	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	assetRepo := repository.NewAssetRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	loanRepo := repository.NewLoanRequestRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Services
	glpiService := glpi.NewService(glpiDB)
	lifecycleService := service.NewLifecycleService(
		assetRepo, historyRepo, employeeRepo, locationRepo, loanRepo, maintenanceRepo, txManager, wsHub)
	assetService := service.NewAssetService(
		assetRepo, historyRepo, categoryRepo, locationRepo, activityRepo, glpiService, txManager)
	loanService := service.NewLoanService(
		loanRepo, assetRepo, employeeRepo, lifecycleService, txManager, wsHub)
	maintenanceService := service.NewMaintenanceService(
		maintenanceRepo, assetRepo, lifecycleService, txManager)
	auditService := service.NewAuditService(assetRepo, historyRepo, locationRepo, txManager)
	syncService := service.NewSyncService(
		assetRepo, categoryRepo, locationRepo, activityRepo, glpiService, txManager)
	referenceService := service.NewReferenceService(
		categoryRepo, locationRepo, employeeRepo, assetRepo, activityRepo, txManager)
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	activityService := service.NewActivityService(activityRepo)
	dashboardService := service.NewDashboardService(assetRepo, historyRepo, loanRepo, maintenanceRepo)
	exportService := service.NewExportService(assetRepo, maintenanceRepo)
	labelService := service.NewLabelService(assetRepo, envOr("PUBLIC_BASE_URL", "http://localhost:5173"))

	// Handlers
	assetHandler := handler.NewAssetHandler(assetService, lifecycleService, syncService, exportService, labelService)
	loanHandler := handler.NewLoanHandler(loanService)
	maintenanceHandler := handler.NewMaintenanceHandler(maintenanceService, exportService)
	auditHandler := handler.NewAuditHandler(auditService)
	referenceHandler := handler.NewReferenceHandler(referenceService)
	userHandler := handler.NewUserHandler(userService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, activityService)
	publicHandler := handler.NewPublicHandler(assetService, auditService, loanService, maintenanceService)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		envOr("PUBLIC_BASE_URL", "http://localhost:5173"),
		"http://127.0.0.1:5173",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	root := router.Group("")
	assetHandler.RegisterRoutes(root)
	loanHandler.RegisterRoutes(root)
	maintenanceHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)
	referenceHandler.RegisterRoutes(root)
	userHandler.RegisterRoutes(root)
	dashboardHandler.RegisterRoutes(root)
	publicHandler.RegisterRoutes(root)

	port := envOr("PORT", "8080")
	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
