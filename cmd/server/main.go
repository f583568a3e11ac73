package main

import (
	"log"

	"gorm.io/gorm"

	"collabboard-backend/internal/config"
	"collabboard-backend/internal/database"
	"collabboard-backend/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 데이터베이스 연결 (DB_HOST 없으면 임시 보드 모드)
	var db *gorm.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.ConnectDB(cfg.Database)
		if err != nil {
			log.Fatalf("❌ Database connection failed: %v", err)
		}
		defer database.Close()

		// Ping 테스트
		if err := database.Ping(); err != nil {
			log.Fatalf("❌ Database ping failed: %v", err)
		}
		log.Printf("✅ Database connected successfully")
	} else {
		log.Println("ℹ️ DB_HOST not set, starting in ephemeral single-board mode")
	}

	// 서버 생성 및 설정
	srv := server.New(cfg, db)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
