package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/chat"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/config"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/handler"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/middleware"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/moderation"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/push"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/startup"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/storage"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/storage/memory"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/tutor"
)

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL and in-memory session store")
	flag.Parse()

	logger.Info("starting API service")
	cfg := config.Load()

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())
	poolCfg.MinConns = 4

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "")
	defer pool.Close()

	runMigrations(pool)
	if *migrate && !*dev {
		return
	}
	logger.Info("database connected, migrations applied")

	var sessionStore storage.SessionStore
	if *dev {
		sessionStore = memory.New()
		logger.Info("using in-memory session store (-dev)")
	} else {
		sessionStore = startup.ConnectRedisWithRetry(cfg.Redis.URL, 60*time.Second, "")
	}
	defer sessionStore.Close()

	userRepo := repository.NewUserRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	msgRepo := repository.NewMessageRepository(pool)
	settingRepo := repository.NewChatSettingRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	pushRepo := repository.NewPushSubscriptionRepository(pool)

	vapidKeys, err := push.EnsureVAPIDKeys(cfg.VAPIDKeysFile)
	if err != nil {
		logger.Errorf("vapid keys: %v (web push disabled)", err)
	}
	pushSender := push.NewSender(pushRepo, vapidKeys, cfg.PushContact)

	filter := moderation.NewFilter(cfg.ModerationDenylist)
	gatewayCtx, gatewayCancel := context.WithCancel(context.Background())
	gateway := chat.NewGateway(userRepo, groupRepo, msgRepo, settingRepo, filter, cfg.MaxWSConnections, pushSender)

	var gatewayWg sync.WaitGroup
	gatewayWg.Add(1)
	go func() {
		defer gatewayWg.Done()
		gateway.Run(gatewayCtx)
	}()

	tutorClient := tutor.NewClient(cfg.Tutor.BaseURL, cfg.Tutor.APIKey, cfg.Tutor.Model)

	authH := handler.NewAuthHandler(userRepo, sessionStore, cfg.TeacherAccessPassword)
	userH := handler.NewUserHandler(userRepo)
	groupH := handler.NewGroupHandler(groupRepo)
	msgH := handler.NewMessageHandler(msgRepo, groupRepo, userRepo, gateway)
	settingH := handler.NewSettingHandler(settingRepo, userRepo)
	announcementH := handler.NewAnnouncementHandler(announcementRepo, userRepo)
	tutorH := handler.NewTutorHandler(tutorClient)
	pushH := handler.NewPushHandler(pushSender)
	wsH := handler.NewWSHandler(gateway, cfg.CORSAllowedOrigins, chat.WSConnConfig{
		WriteTimeout:   time.Duration(cfg.WSWriteTimeout) * time.Second,
		PongTimeout:    time.Duration(cfg.WSPongTimeout) * time.Second,
		MaxMessageSize: int64(cfg.WSMaxMessageSize),
	})

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	// Never compress WebSocket upgrades: the wrapped ResponseWriter would lose
	// http.Hijacker and the upgrade fails with a 500.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, req)
				return
			}
			chimw.Compress(5)(next).ServeHTTP(w, req)
		})
	})
	r.Use(middleware.RequestLog)
	r.Use(middleware.RateLimitAPI)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Id", "X-Timestamp", "X-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	r.Get("/api/push/vapid-public", pushH.VAPIDPublic)

	r.Post("/api/users", authH.Register)
	r.Post("/api/auth/login", authH.Login)

	// The socket authenticates itself with an auth event after connecting, so
	// it lives outside the session middleware.
	r.Get("/ws", wsH.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(sessionStore))
		r.Post("/api/auth/logout", authH.Logout)
		r.Get("/api/users/me", userH.GetProfile)
		r.Get("/api/users/{id}", userH.GetUser)
		r.Patch("/api/users/{id}", userH.UpdateProfile)
		r.Post("/api/groups", groupH.Create)
		r.Get("/api/groups/my", groupH.MyGroups)
		r.Post("/api/groups/{groupId}/join", groupH.RequestJoin)
		r.Get("/api/groups/{groupId}/join-requests", groupH.JoinRequests)
		r.Patch("/api/group-members/{id}", groupH.UpdateMember)
		r.Get("/api/messages/community/{stream}", msgH.CommunityHistory)
		r.Get("/api/messages/group/{groupId}", msgH.GroupHistory)
		r.Patch("/api/messages/{id}/pin", msgH.Pin)
		r.Delete("/api/messages/{id}", msgH.Delete)
		r.Get("/api/chat/settings/{stream}", settingH.Get)
		r.Patch("/api/chat/settings/{stream}", settingH.Update)
		r.Get("/api/announcements", announcementH.List)
		r.Post("/api/announcements", announcementH.Create)
		r.Post("/api/ai-tutor", tutorH.Ask)
		r.Post("/api/push/subscribe", pushH.Subscribe)
		r.Delete("/api/push/subscribe", pushH.Unsubscribe)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	gatewayCancel()
	gatewayWg.Wait()
	logger.Info("chat gateway stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	files := []string{
		"migrations/001_init.sql",
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			logger.Errorf("read migration %s: %v", f, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", f, err)
			os.Exit(1)
		}
	}
	logger.Info("migrations applied")
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "sansa"
		password = "sansa_secret"
		database = "sansa"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
