package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/webchatkit/webchatkit/internal/botusage"
	usagedomain "github.com/webchatkit/webchatkit/internal/botusage/domain"
	"github.com/webchatkit/webchatkit/internal/chat"
	chatdomain "github.com/webchatkit/webchatkit/internal/chat/domain"
	"github.com/webchatkit/webchatkit/internal/clock"
	"github.com/webchatkit/webchatkit/internal/config"
	"github.com/webchatkit/webchatkit/internal/migration"
	"github.com/webchatkit/webchatkit/internal/observability"
	obsmiddleware "github.com/webchatkit/webchatkit/internal/observability/logger"
	obstracing "github.com/webchatkit/webchatkit/internal/observability/tracing"
	"github.com/webchatkit/webchatkit/internal/providers"
	emailprovider "github.com/webchatkit/webchatkit/internal/providers/email"
	speechprovider "github.com/webchatkit/webchatkit/internal/providers/speech"
	"github.com/webchatkit/webchatkit/internal/ratelimit"
	"github.com/webchatkit/webchatkit/internal/session"
	"github.com/webchatkit/webchatkit/internal/usagelog"
	"github.com/webchatkit/webchatkit/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	observability.Module,
	db.Module,
	clock.Module,
	migration.Module,
	fx.Provide(registerGin),
	fx.Provide(NewDisplayCounters),
	botusage.Module,
	session.Module,
	usagelog.Module,
	ratelimit.Module,
	providers.Module,
	chat.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	usageSvc usagedomain.Service
	chatSvc  chatdomain.Service
	speech   speechprovider.Provider
	email    emailprovider.Provider
	counters *DisplayCounters
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	UsageSvc usagedomain.Service
	ChatSvc  chatdomain.Service
	Speech   speechprovider.Provider
	Email    emailprovider.Provider
	Counters *DisplayCounters
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		log:      p.Log.Named("server"),
		usageSvc: p.UsageSvc,
		chatSvc:  p.ChatSvc,
		speech:   p.Speech,
		email:    p.Email,
		counters: p.Counters,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/chat", s.Chat)

	// -------- Usage --------
	v1.GET("/usage", s.GetUsage)
	v1.GET("/availability", s.GetAvailability)
	v1.POST("/usage/initialize", s.InitializeUsage)
	v1.POST("/usage/reset", s.ResetUsage)

	// -------- Voice --------
	v1.POST("/tts", s.Synthesize)
	v1.POST("/transcribe", s.Transcribe)

	// -------- Email relay --------
	v1.POST("/conversation-email", s.SendConversationEmail)

	// -------- Display counters --------
	v1.GET("/counters/tokens", s.GetTokenCounter)
	v1.POST("/counters/tokens", s.IncrementTokenCounter)
	v1.DELETE("/counters/tokens", s.ResetTokenCounter)
	v1.GET("/counters/interactions", s.GetInteractionCounter)
	v1.POST("/counters/interactions", s.IncrementInteractionCounter)
	v1.DELETE("/counters/interactions", s.ResetInteractionCounter)
}
