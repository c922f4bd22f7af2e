package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/bistro/internal/config"
	menudomain "github.com/smallbiznis/bistro/internal/menu/domain"
	"github.com/smallbiznis/bistro/internal/observability"
	obsmiddleware "github.com/smallbiznis/bistro/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/bistro/internal/observability/metrics"
	obstracing "github.com/smallbiznis/bistro/internal/observability/tracing"
	"github.com/smallbiznis/bistro/internal/ratelimit"
	ratingdomain "github.com/smallbiznis/bistro/internal/rating/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func corsConfig(cfg config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AddAllowHeaders("Authorization", obsmiddleware.HeaderRequestID, obsmiddleware.HeaderCorrelationID)
	corsCfg.AddExposeHeaders(obsmiddleware.HeaderRequestID, obsmiddleware.HeaderCorrelationID, "Retry-After")
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	corsCfg.AllowCredentials = true
	return corsCfg
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine        *gin.Engine
	cfg           config.Config
	menuSvc       menudomain.Service
	ratingSvc     ratingdomain.Service
	ratingLimiter *ratelimit.RatingLimiter
	obsMetrics    *obsmetrics.Metrics
	identity      *identityResolver
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	MenuSvc       menudomain.Service
	RatingSvc     ratingdomain.Service
	RatingLimiter *ratelimit.RatingLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		menuSvc:       p.MenuSvc,
		ratingSvc:     p.RatingSvc,
		ratingLimiter: p.RatingLimiter,
		obsMetrics:    p.ObsMetrics,
		identity:      newIdentityResolver(p.Cfg),
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.Identity())

	// -------- Menu --------
	menu := api.Group("/menu")
	menu.GET("/week", s.GetWeek)
	menu.GET("/slots/:id", s.GetSlot)
	menu.POST("/rename", s.RenameSlot)
	menu.GET("/autocomplete", s.Autocomplete)
	menu.GET("/top", s.GetTopMenus)

	// -------- Ratings --------
	ratings := api.Group("/ratings")
	ratings.GET("", s.ListMyRatings)
	ratings.GET("/top", s.GetTopMenus)
	ratings.GET("/slots/:id", s.GetSlotRatingSummary)
	ratings.POST("/rate", s.RatingRateLimit(), s.RateMeal)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
