package main

import (
	"os"

	_ "solardash/api/swagger" // swagger docs
	"solardash/internal/database"
	"solardash/internal/handler"
	"solardash/internal/logger"
	"solardash/internal/middleware"
	"solardash/internal/repository"
	"solardash/internal/service"
	"solardash/internal/session"
	"solardash/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Solar Quotation Dashboard API
// @version         1.0
// @description     Quotation pricing, project tracking and invoicing for solar installations.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	defer logger.Sync()

	if err := godotenv.Load("configs/.env"); err != nil {
		zap.L().Info("no configs/.env file found")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		zap.L().Fatal("database connection failed", zap.Error(err))
	}
	zap.L().Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	sessions := session.NewManager()

	userService := service.NewUserService(userRepo)
	clientService := service.NewClientService(clientRepo, txManager)
	catalogService := service.NewCatalogService(productRepo)
	quotationService := service.NewQuotationService(quotationRepo, productRepo, projectRepo, txManager, sessions, wsHub)
	projectService := service.NewProjectService(projectRepo)
	invoiceService := service.NewInvoiceService(invoiceRepo, projectRepo, clientRepo, txManager)
	revenueService := service.NewRevenueService(revenueRepo)
	statisticsService := service.NewStatisticsService(statsRepo, projectRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	clientHandler := handler.NewClientHandler(clientService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	quotationHandler := handler.NewQuotationHandler(quotationService)
	projectHandler := handler.NewProjectHandler(projectService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, revenueService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	root := router.Group("")
	userHandler.RegisterRoutes(root)
	clientHandler.RegisterRoutes(root)
	catalogHandler.RegisterRoutes(root)
	quotationHandler.RegisterRoutes(root)
	projectHandler.RegisterRoutes(root)
	invoiceHandler.RegisterRoutes(root)
	statisticsHandler.RegisterRoutes(root)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	zap.L().Info("server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		zap.L().Fatal("server failed", zap.Error(err))
	}
}
