package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/sharperly/logistics-api/internal/app"
	"github.com/sharperly/logistics-api/internal/cache"
	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/logger"
	"github.com/sharperly/logistics-api/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiCyan  = "\033[36m"
	ansiDim   = "\033[2m"
)

var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key"}

func main() {
	rawMode := flag.String("mode", app.ModeAll, "run mode: all (default), api, worker")
	flag.Parse()
	mode, err := app.ParseMode(*rawMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	printBanner(mode, cfg.App.Version)

	release := cfg.Server.Mode == "release"
	if isWeakSecret(cfg.JWT.SecretKey) {
		if release {
			stdLog.Fatalf("JWT secret is weak or still the default value, configure a strong random secret in production")
		}
		stdLog.Printf("warning: JWT secret is weak or still the default value")
	}
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	prepareDatabase(cfg, stdLog)

	runErr := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	})
	releaseResources(stdLog)
	if runErr != nil {
		stdLog.Fatalf("server exited: %v", runErr)
	}
}

// prepareDatabase 连接数据库、迁移表结构并按环境变量创建默认管理员
func prepareDatabase(cfg *config.Config, stdLog *log.Logger) {
	pool := models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, pool, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}

	adminEmail := os.Getenv("SHARPERLY_DEFAULT_ADMIN_EMAIL")
	adminPassword := os.Getenv("SHARPERLY_DEFAULT_ADMIN_PASSWORD")
	if cfg.Server.Mode == "release" && adminPassword == "" {
		stdLog.Printf("warning: SHARPERLY_DEFAULT_ADMIN_PASSWORD not set, skipping default admin")
		return
	}
	if err := models.InitDefaultAdmin(adminEmail, adminPassword); err != nil {
		stdLog.Printf("warning: default admin init failed: %v", err)
	}
}

func releaseResources(stdLog *log.Logger) {
	if err := cache.Close(); err != nil {
		stdLog.Printf("warning: close redis failed: %v", err)
	}
	if err := models.CloseDB(); err != nil {
		stdLog.Printf("warning: close database failed: %v", err)
	}
}

func printBanner(mode, version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Println(ansiCyan + ansiBold + "SHARPERLY Logistics API" + ansiReset + " " + version)
	fmt.Println(ansiDim + "The Dispatch Giant of Africa | mode=" + mode + " | health=/api/health" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
