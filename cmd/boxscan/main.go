package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"boxscan/infrastructure/actionlog"
	"boxscan/infrastructure/boxtribute"
	"boxscan/infrastructure/cache"
	httpserver "boxscan/infrastructure/http"
	"boxscan/infrastructure/rbac"
	"boxscan/infrastructure/sqlite"
)

func main() {
	addr := getenv("APP_ADDR", ":8080")
	dbPath := getenv("SQLITE_PATH", "boxscan.db")
	apiURL := getenv("BOXTRIBUTE_API_URL", "https://api.boxtribute.org/graphql")
	apiToken := os.Getenv("BOXTRIBUTE_API_TOKEN")
	legacyBaseURL := getenv("LEGACY_BASE_URL", "https://app.boxtribute.org")
	qrBaseURL := getenv("QR_BASE_URL", "https://app.boxtribute.org/mobile.php")

	if apiToken == "" {
		log.Fatal("BOXTRIBUTE_API_TOKEN is required")
	}

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, ""); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	sessionCache := cache.NewUserSessionCache()
	userCache := cache.NewUserCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)
	logs := actionlog.NewService()
	api := boxtribute.NewClient(apiURL, apiToken)

	server := httpserver.NewServer(httpserver.Config{
		Addr:          addr,
		LegacyBaseURL: legacyBaseURL,
		QRBaseURL:     qrBaseURL,
	}, db, sessionCache, userCache, rbacSvc, rbacCache, logs, api)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("boxscan listening on %s", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
