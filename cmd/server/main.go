package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/symptomchat/internal/compose"
	"github.com/Skufu/symptomchat/internal/config"
	"github.com/Skufu/symptomchat/internal/model"
	"github.com/Skufu/symptomchat/internal/predictor"
	"github.com/Skufu/symptomchat/internal/spelling"
	"github.com/Skufu/symptomchat/internal/store"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Recorder appends served predictions to the prediction log.
type Recorder interface {
	Save(ctx context.Context, r store.Record) (store.Record, error)
}

type PredictRequest struct {
	Symptom string `json:"symptom"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	art, err := model.Load(cfg.ModelPath)
	if err != nil {
		logger.Fatal("model load failed", zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("path", art.Path),
		zap.Int("vocab_size", art.Config.VocabSize),
		zap.Int("layers", art.Config.Layers))

	pred, err := newPredictor(cfg, art, logger)
	if err != nil {
		logger.Fatal("predictor setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db  HealthChecker
		rec Recorder
	)
	if cfg.EnableDB {
		pool, st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer pool.Close()
		db, rec = st, st
	}

	router := setupRouter(pred, db, rec, logger)
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatal("listen failed", zap.Error(err))
	}

	logger.Info("server listening", zap.String("addr", ln.Addr().String()))
	if err := serve(ctx, server, ln, logger); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

func newPredictor(cfg *config.Config, art *model.Artifact, logger *zap.Logger) (*predictor.Predictor, error) {
	var norm predictor.Normalizer = spelling.Identity{}
	if cfg.SpellCheck {
		norm = spelling.NewCorrector(art.Vocab.Words())
	}

	return predictor.New(predictor.Deps{
		Model:      art.Model,
		Vocab:      art.Vocab,
		Normalizer: norm,
		Composer:   compose.NewSeeded(cfg.PhraseSeed),
		Logger:     logger,
	})
}

func setupRouter(pred *predictor.Predictor, db HealthChecker, rec Recorder, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "AI Online", "device": "cpu"})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
	})

	router.POST("/predict", func(c *gin.Context) {
		var payload PredictRequest
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if strings.TrimSpace(payload.Symptom) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Empty text"})
			return
		}

		result := pred.Predict(payload.Symptom)
		if rec != nil && result.OK() {
			_, err := rec.Save(c.Request.Context(), store.Record{
				Original:  result.Original,
				Corrected: result.Corrected,
				RawLabel:  result.RawLabel,
				Label:     result.Label,
				Rule:      result.Rule,
			})
			if err != nil {
				logger.Warn("prediction log write failed", zap.Error(err))
			}
		}

		c.JSON(http.StatusOK, result)
	})

	return router
}

// serve runs server on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
