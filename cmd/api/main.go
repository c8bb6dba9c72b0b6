package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/holdings-chat/internal/analysis/query"
	"github.com/zhouzirui/holdings-chat/internal/config"
	"github.com/zhouzirui/holdings-chat/internal/handler"
	"github.com/zhouzirui/holdings-chat/internal/model/portfolio"
	"github.com/zhouzirui/holdings-chat/internal/service/ai"
	"github.com/zhouzirui/holdings-chat/internal/service/bot"
	"github.com/zhouzirui/holdings-chat/internal/service/intent"
	"github.com/zhouzirui/holdings-chat/internal/service/retrieval"
	"github.com/zhouzirui/holdings-chat/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger, err := utils.NewLogger(cfg.Log.Level, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	log.Logger = logger

	store, err := portfolio.LoadFiles(cfg.Data.HoldingsFile, cfg.Data.TradesFile, logger)
	if errors.Is(err, portfolio.ErrNoData) {
		logger.Warn().Msg("no portfolio data loaded, only model answers are available")
	}

	index, err := retrieval.Build(store, logger.With().Str("component", "retrieval").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build retrieval index")
	}
	defer index.Close()

	// Initialize chat model
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialize chat model, continuing in demo mode - 请检查 Ark 模型相关环境变量")
			chatModel = nil
		} else {
			logger.Info().Str("model", cfg.AI.Model).Msg("chat model initialized")
		}
	} else {
		logger.Info().Msg("Ark 凭证未配置，使用演示模式与启发式意图分类")
	}

	classifier, err := intent.NewService(ctx, chatModel, logger.With().Str("component", "intent").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize intent classifier")
	}

	rag, err := ai.NewService(ctx, chatModel, index, cfg.AI.TopK, logger.With().Str("component", "ai").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize answer service")
	}

	chatbot := bot.NewService(classifier, query.NewEngine(store), rag, logger.With().Str("component", "bot").Logger())
	router := handler.NewRouter(chatbot, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info().Str("addr", addr).Msg("holdings chat backend listening")
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
