package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/morinoparty/dailyquest/server/api/rest"
	apiws "github.com/morinoparty/dailyquest/server/api/ws"
	"github.com/morinoparty/dailyquest/server/cache"
	"github.com/morinoparty/dailyquest/server/config"
	dbadapter "github.com/morinoparty/dailyquest/server/db"
	"github.com/morinoparty/dailyquest/server/game/daily"
	"github.com/morinoparty/dailyquest/server/game/engine"
	"github.com/morinoparty/dailyquest/server/game/player"
	"github.com/morinoparty/dailyquest/server/game/quest"
	mw "github.com/morinoparty/dailyquest/server/middleware"
	"github.com/morinoparty/dailyquest/server/model"
	"github.com/morinoparty/dailyquest/server/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Reset schedule ----
	schedule := daily.ParseResetTime(cfg.Game.DailyResetTime)
	logger.Info("daily reset schedule",
		zap.Int("hour", schedule.Hour), zap.Int("minute", schedule.Minute))

	// ---- Simulation dispatcher / quest engine ----
	disp := engine.NewDispatcher(logger)
	defer disp.Stop()
	executor := engine.NewEventExecutor(disp, logger)

	sm := player.NewSessionManager(logger)
	store := daily.NewSnapshotStore(db)
	questSvc := quest.NewService(store, disp, quest.DefaultPools(), cfg.Game.RerollPoints, logger)
	questSvc.RegisterEvents(executor)

	resolver := daily.NewSourceResolver(sm, disp, store, logger)
	dailySvc := daily.NewService(sm, executor, resolver, store, schedule, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("snapshot_flush", time.Duration(cfg.Game.SnapshotFlushS)*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, s := range sm.All() {
			if err := questSvc.Flush(ctx, s); err != nil {
				logger.Warn("periodic snapshot flush failed",
					zap.String("player_id", s.PlayerID), zap.Error(err))
			}
		}
	})
	sched.AddDailyAt("daily_reset", schedule, func() {
		logger.Info("daily reset boundary reached",
			zap.Int("online", sm.Count()))
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	dailyH := apirest.NewDailyQuestHandler(dailySvc)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)

		dailyG := api.Group("/daily-quests")
		dailyG.Use(mw.Auth(cfg.Security, c))
		dailyG.GET("/me", dailyH.Me)
		dailyG.POST("/me/reroll", dailyH.Reroll)
		dailyG.POST("/me/select", dailyH.Select)
	}

	// ---- WebSocket (live game sessions) ----
	wsH := apiws.NewHandler(c, cfg.Security, sm, questSvc, schedule, logger)
	r.GET("/ws", wsH.ServeWS)

	defer sm.CloseAllSessions()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
