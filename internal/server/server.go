package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"collabboard-backend/internal/agent"
	"collabboard-backend/internal/auth"
	"collabboard-backend/internal/board"
	"collabboard-backend/internal/cache"
	"collabboard-backend/internal/config"
	"collabboard-backend/internal/handler"
	"collabboard-backend/internal/repository"
)

// Server Fiber 서버 래퍼
type Server struct {
	app           *fiber.App
	cfg           *config.Config
	db            *gorm.DB // nil in ephemeral mode
	tokens        cache.TokenStore
	registry      *board.Registry
	hub           *handler.BoardHub
	wsHandler     *handler.BoardWSHandler
	authHandler   *handler.AuthHandler
	userHandler   *handler.UserHandler
	boardHandler  *handler.BoardHandler
	agentHandler  *handler.AgentHandler
	healthHandler *handler.HealthHandler
	jwtManager    *auth.JWTManager

	flushCancel context.CancelFunc
	flushDone   sync.WaitGroup
}

// New 새 서버 인스턴스 생성. db가 nil이면 단일 임시 보드 모드
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "CollabBoard API",
		ServerHeader:          "Fiber",
		StrictRouting:         true,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             10 * 1024 * 1024, // 10MB
		DisableStartupMessage: false,
	})

	// Auth 초기화
	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	googleAuth := auth.NewGoogleAuthenticator(cfg.Auth.GoogleClientID)
	tokens := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// 보드 상태 저장소 초기화
	var repo board.Repository
	if db != nil {
		repo = repository.NewGormBoardRepository(db)
	} else {
		log.Println("ℹ️ No database configured, running a single ephemeral board")
	}
	registry := board.NewRegistry(repo)
	hub := handler.NewBoardHub(registry)

	boardAgent := agent.New(cfg.Agent, hub)
	if boardAgent.Enabled() {
		log.Printf("✅ AI agent enabled (model: %s)", cfg.Agent.Model)
	} else {
		log.Println("ℹ️ AI agent not configured (OPENAI_API_KEY missing)")
	}

	// 멤버십 확인 (DB 없으면 단일 임시 보드라 확인할 것이 없다)
	var members handler.MembershipChecker
	if db != nil {
		members = func(boardID string, userID int64) bool {
			ok, err := auth.IsBoardMember(db, boardID, userID)
			return err == nil && ok
		}
	}

	return &Server{
		app:      app,
		cfg:      cfg,
		db:       db,
		tokens:   tokens,
		registry: registry,
		hub:      hub,
		wsHandler: handler.NewBoardWSHandler(
			hub, members, cfg.WebSocket.PingInterval, cfg.WebSocket.MaxMissedPings,
		),
		authHandler: handler.NewAuthHandler(
			db, jwtManager, googleAuth, tokens, cfg.Auth.SecureCookie, cfg.Auth.RefreshTokenExpiry,
		),
		userHandler:   handler.NewUserHandler(db),
		boardHandler:  handler.NewBoardHandler(db),
		agentHandler:  handler.NewAgentHandler(db, boardAgent),
		healthHandler: handler.NewHealthHandler(db, tokens),
		jwtManager:    jwtManager,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (인증 엔드포인트용 - Brute Force 방지)
	authLimiter := limiter.New(limiter.Config{
		Max:        10,              // 최대 10회
		Expiration: 1 * time.Minute, // 1분당
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// 인증/멀티보드 라우트는 DB가 있을 때만 활성화
	if s.db != nil {
		// Auth 라우트 그룹
		authGroup := s.app.Group("/auth")
		authGroup.Post("/google", authLimiter, s.authHandler.GoogleLogin)
		authGroup.Post("/refresh", authLimiter, s.authHandler.RefreshToken)
		authGroup.Post("/logout", auth.RequireAuth(s.jwtManager), s.authHandler.Logout)
		authGroup.Get("/me", auth.RequireAuth(s.jwtManager), s.authHandler.GetMe)

		// User 라우트 그룹 (인증 필요)
		userGroup := s.app.Group("/api/users", auth.RequireAuth(s.jwtManager))
		userGroup.Get("/search", s.userHandler.SearchUsers)

		// Board 라우트 그룹 (인증 필요)
		boardGroup := s.app.Group("/api/boards", auth.RequireAuth(s.jwtManager))
		boardGroup.Post("/", s.boardHandler.CreateBoard)
		boardGroup.Get("/", s.boardHandler.GetMyBoards)
		boardGroup.Get("/:id", s.boardHandler.GetBoard)
		boardGroup.Delete("/:id", s.boardHandler.DeleteBoard)
		boardGroup.Post("/:id/members", s.boardHandler.AddMember)
		boardGroup.Delete("/:id/members/:userId", s.boardHandler.RemoveMember)

		// AI Agent 라우트
		boardGroup.Post("/:id/agent", s.agentHandler.RunCommand)
	}

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 보드 엔드포인트. 인증 실패 시에도 업그레이드는 수락하고
	// 핸들러가 close code로 거부한다 (클라이언트가 사유를 구분할 수 있도록).
	wsAuth := auth.WebSocketAuth(s.jwtManager, s.db == nil)
	boardWS := websocket.New(s.wsHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	})

	// 보드 id 없는 연결도 업그레이드를 수락해야 4001을 전달할 수 있다
	s.app.Get("/ws/board", wsAuth, boardWS)
	s.app.Get("/ws/board/", wsAuth, boardWS)
	s.app.Get("/ws/board/:boardId", func(c *fiber.Ctx) error {
		c.Locals("boardId", c.Params("boardId"))
		return c.Next()
	}, wsAuth, boardWS)
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// 주기적 보드 영속화
	if s.registry.Persistent() {
		ctx, cancel := context.WithCancel(context.Background())
		s.flushCancel = cancel
		s.flushDone.Add(1)
		go func() {
			defer s.flushDone.Done()
			s.registry.RunFlusher(ctx, s.cfg.Board.FlushInterval)
		}()
	}

	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.Shutdown(); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 CollabBoard API starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/board/:boardId", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료. 마지막으로 dirty 보드를 한 번 더 저장한다
func (s *Server) Shutdown() error {
	if s.flushCancel != nil {
		s.flushCancel()
		s.flushDone.Wait()
	}
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
