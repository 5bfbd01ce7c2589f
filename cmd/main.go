package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/rish560/bytejoule.ai-dashboard/api"
	"github.com/rish560/bytejoule.ai-dashboard/api/handler"
	"github.com/rish560/bytejoule.ai-dashboard/api/middleware"
	appconfig "github.com/rish560/bytejoule.ai-dashboard/config"
	"github.com/rish560/bytejoule.ai-dashboard/internal/analyzer"
	"github.com/rish560/bytejoule.ai-dashboard/internal/cache"
	"github.com/rish560/bytejoule.ai-dashboard/internal/database"
	"github.com/rish560/bytejoule.ai-dashboard/internal/repository"
	"github.com/rish560/bytejoule.ai-dashboard/internal/services"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/storage"
	"github.com/rish560/bytejoule.ai-dashboard/pkg/taskqueue"
)

// 配置选项
type config struct {
	Port         int           // 服务端口
	Mode         string        // 运行模式 (debug/release)
	StoragePath  string        // 文件存储路径
	CacheType    string        // 缓存类型
	LogLevel     string        // 日志级别
	LogFile      string        // 日志文件路径（可选）
	ReadTimeout  time.Duration // 读取超时
	WriteTimeout time.Duration // 写入超时
	DataDir      string        // 数据目录路径
	ConfigFile   string        // 配置文件路径
	// 任务队列相关配置
	QueueEnabled     bool          // 是否启用任务队列
	QueueType        string        // 任务队列类型
	RedisAddr        string        // Redis 地址
	RedisPassword    string        // Redis 密码
	RedisDB          int           // Redis 数据库编号
	QueueConcurrency int           // 任务队列处理并发数
	QueueRetryLimit  int           // 任务重试次数
	QueueRetryDelay  time.Duration // 任务重试延迟
}

func main() {
	// 加载.env文件（如果存在）
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	// 解析命令行参数
	cfg := parseFlags()

	// 加载配置文件(如果指定)
	var appConfig *appconfig.Config
	var err error
	if cfg.ConfigFile != "" {
		appConfig, err = appconfig.Load(cfg.ConfigFile)
		if err != nil {
			log.Printf("Warning: Failed to load config file: %v, using command line args", err)
		} else {
			// 使用配置文件中的值更新相关设置
			updateConfigFromFile(&cfg, appConfig)
		}
	}

	// 设置Gin模式
	gin.SetMode(cfg.Mode)

	// 初始化日志
	logger := setupLogger(cfg.LogLevel)
	if cfg.LogFile != "" {
		middleware.UseLogFile(cfg.LogFile)
	}
	logger.Info("Starting document analysis service...")

	// 初始化数据库
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	// 创建文件存储服务
	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	// 创建缓存服务
	cacheService, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	// 初始化任务队列（如果启用）
	var queue taskqueue.Queue
	if cfg.QueueEnabled {
		queue, err = setupTaskQueue(cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()
		logger.Info("Task queue initialized successfully")
	}

	// 初始化分析记录仓储
	var repo repository.AnalysisRepository
	if queue != nil {
		// 如果启用了任务队列，使用带队列的仓储
		repo = repository.NewAnalysisRepositoryWithQueue(database.MustDB(), queue)
		logger.Info("Using analysis repository with task queue")
	} else {
		repo = repository.NewAnalysisRepository()
	}

	statusManager := services.NewAnalysisStatusManager(repo, logger)

	// 创建分析服务
	analysisServiceOptions := []services.AnalysisOption{
		services.WithAnalysisRepository(repo),
		services.WithSchemaRepository(repository.NewSchemaRepository()),
		services.WithStatusManager(statusManager),
		services.WithCache(cacheService),
		services.WithLogger(logger),
	}

	analysisService := services.NewAnalysisService(
		fileStorage,
		analyzer.NewEngine(analyzerConfig(appConfig)),
		analysisServiceOptions...,
	)
	if err := analysisService.Init(); err != nil {
		logger.Fatalf("Failed to initialize analysis service: %v", err)
	}

	// 启用异步处理并启动任务工作者
	var taskHandler *handler.TaskHandler
	if queue != nil {
		analysisService.EnableAsyncProcessing(queue)
		taskHandler = handler.NewTaskHandler(queue)

		worker, err := startTaskWorker(cfg, queue, analysisService, logger)
		if err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Analysis task worker started")
	}

	// 初始化API处理器
	analysisHandler := handler.NewAnalysisHandler(analysisService, fileStorage)
	schemaHandler := handler.NewSchemaHandler(analysisService)

	// 设置路由
	r := api.SetupRouter(analysisHandler, schemaHandler, taskHandler)

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// 优雅关闭
	go func() {
		// 启动服务
		logger.Infof("Server is running on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// 创建带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		logger.Warnf("Failed to close database: %v", err)
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() config {
	cfg := config{}

	// 服务配置
	flag.IntVar(&cfg.Port, "port", 8080, "Server port")
	flag.StringVar(&cfg.Mode, "mode", "debug", "Run mode (debug/release)")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug/info/warn/error)")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Log file path (enables rotating file output)")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", 30*time.Second, "Read timeout")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", 30*time.Second, "Write timeout")

	// 存储配置
	flag.StringVar(&cfg.StoragePath, "storage", "./data/files", "File storage path")

	// 缓存配置
	flag.StringVar(&cfg.CacheType, "cache", "memory", "Cache type (memory/redis)")

	// 数据目录配置
	flag.StringVar(&cfg.DataDir, "data-dir", "./data", "Data directory path")

	// 配置文件
	flag.StringVar(&cfg.ConfigFile, "config", "", "Path to config file")

	// 任务队列配置
	flag.BoolVar(&cfg.QueueEnabled, "queue", false, "Enable task queue")
	flag.StringVar(&cfg.QueueType, "queue-type", "redis", "Task queue type (redis)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address for task queue")
	flag.StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	flag.IntVar(&cfg.QueueConcurrency, "queue-concurrency", 10, "Task queue concurrency")
	flag.IntVar(&cfg.QueueRetryLimit, "queue-retry", 3, "Max retry attempts for failed tasks")
	flag.DurationVar(&cfg.QueueRetryDelay, "queue-retry-delay", time.Minute, "Delay between retry attempts")

	// 从环境变量获取Redis配置（优先级高于命令行参数）
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}

	flag.Parse()
	return cfg
}

// updateConfigFromFile 从配置文件更新命令行参数
func updateConfigFromFile(cfg *config, appConfig *appconfig.Config) {
	// 只更新未在命令行上明确设置的参数

	// 任务队列配置
	if flag.Lookup("queue").DefValue == fmt.Sprint(cfg.QueueEnabled) {
		cfg.QueueEnabled = appConfig.Queue.Enable
	}
	if flag.Lookup("queue-type").DefValue == cfg.QueueType {
		cfg.QueueType = appConfig.Queue.Type
	}
	if flag.Lookup("redis-addr").DefValue == cfg.RedisAddr {
		cfg.RedisAddr = appConfig.Queue.RedisAddr
	}
	if flag.Lookup("redis-password").DefValue == cfg.RedisPassword {
		cfg.RedisPassword = appConfig.Queue.RedisPassword
	}
	if flag.Lookup("redis-db").DefValue == fmt.Sprint(cfg.RedisDB) {
		cfg.RedisDB = appConfig.Queue.RedisDB
	}
	if flag.Lookup("queue-concurrency").DefValue == fmt.Sprint(cfg.QueueConcurrency) {
		cfg.QueueConcurrency = appConfig.Queue.Concurrency
	}
	if flag.Lookup("queue-retry").DefValue == fmt.Sprint(cfg.QueueRetryLimit) {
		cfg.QueueRetryLimit = appConfig.Queue.RetryLimit
	}
	if appConfig.Queue.RetryDelay > 0 {
		cfg.QueueRetryDelay = time.Duration(appConfig.Queue.RetryDelay) * time.Second
	}

	// 存储配置
	if flag.Lookup("storage").DefValue == cfg.StoragePath && appConfig.Storage.Path != "" {
		cfg.StoragePath = appConfig.Storage.Path
	}

	// 缓存配置
	if flag.Lookup("cache").DefValue == cfg.CacheType && appConfig.Cache.Type != "" {
		cfg.CacheType = appConfig.Cache.Type
	}
}

// analyzerConfig 从应用配置构建分析引擎配置
func analyzerConfig(appConfig *appconfig.Config) analyzer.Config {
	cfg := analyzer.DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if appConfig.Analyzer.MaxInputBytes > 0 {
		cfg.MaxInputBytes = appConfig.Analyzer.MaxInputBytes
	}
	if appConfig.Analyzer.MaxKeyLength > 0 {
		cfg.MaxKeyLength = appConfig.Analyzer.MaxKeyLength
	}
	if appConfig.Analyzer.PreviewLength > 0 {
		cfg.PreviewLength = appConfig.Analyzer.PreviewLength
	}
	if appConfig.Analyzer.MaxEntityCount > 0 {
		cfg.MaxEntityCount = appConfig.Analyzer.MaxEntityCount
	}
	if len(appConfig.Analyzer.StopWords) > 0 {
		cfg.StopWords = appConfig.Analyzer.StopWords
	}
	return cfg
}

// setupLogger 设置日志系统
func setupLogger(level string) *logrus.Logger {
	logger := middleware.GetLogger()

	// 设置日志级别
	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

// setupStorage 设置文件存储服务
func setupStorage(cfg config) (storage.Storage, error) {
	// 确保存储目录存在
	if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	// 创建本地存储
	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.StoragePath,
	})
}

// setupCache 设置缓存服务
func setupCache(cfg config) (cache.Cache, error) {
	cacheConfig := cache.Config{
		Type:            cfg.CacheType,
		DefaultTTL:      24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}

	// 如果配置了Redis，添加Redis配置
	if cfg.CacheType == "redis" {
		cacheConfig.RedisAddr = cfg.RedisAddr
		cacheConfig.RedisPassword = cfg.RedisPassword
		// Redis数据库编号默认为0
	}

	return cache.NewCache(cacheConfig)
}

// setupDatabase 设置数据库
func setupDatabase(cfg config, logger *logrus.Logger) error {
	dbPath := filepath.Join(cfg.DataDir, "docanalysis.db")

	// 确保数据目录存在
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %v", err)
	}

	// 初始化数据库
	dbConfig := &database.Config{
		Type: "sqlite",
		DSN:  dbPath,
	}

	return database.Setup(dbConfig, logger)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg config, logger *logrus.Logger) (taskqueue.Queue, error) {
	if !cfg.QueueEnabled {
		return nil, nil
	}

	// 根据配置创建任务队列
	queueConfig := &taskqueue.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Concurrency:   cfg.QueueConcurrency,
		RetryLimit:    cfg.QueueRetryLimit,
		RetryDelay:    cfg.QueueRetryDelay,
	}

	logger.WithFields(logrus.Fields{
		"type":        cfg.QueueType,
		"redis_addr":  cfg.RedisAddr,
		"concurrency": cfg.QueueConcurrency,
		"retry_limit": cfg.QueueRetryLimit,
	}).Info("Setting up task queue")

	queue, err := taskqueue.NewQueue(cfg.QueueType, queueConfig)
	if err != nil {
		return nil, err
	}

	return queue, nil
}

// startTaskWorker 启动分析任务工作者
func startTaskWorker(cfg config, queue taskqueue.Queue, analysisService *services.AnalysisService, logger *logrus.Logger) (taskqueue.Worker, error) {
	redisQueue, ok := queue.(*taskqueue.RedisQueue)
	if !ok {
		return nil, fmt.Errorf("task worker requires a redis queue, got %T", queue)
	}

	// 复用队列自身的配置
	worker := taskqueue.NewRedisWorker(redisQueue, nil)

	// 注册分析任务处理器
	taskHandler := services.NewAnalysisTaskHandler(analysisService, logger)
	for _, taskType := range taskHandler.GetTaskTypes() {
		worker.RegisterHandler(taskType, taskHandler)
	}

	if err := worker.Start(); err != nil {
		return nil, err
	}

	return worker, nil
}
