package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/empathicai21/Empathic-AI-Research/internal/config"
	"github.com/empathicai21/Empathic-AI-Research/internal/handler"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
	"github.com/empathicai21/Empathic-AI-Research/internal/safety"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/ai"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/assign"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	styleStore := style.NewMemoryStore(style.Seed())
	promptSource := prompt.NewSource(cfg.Study.PromptDir, styleStore)
	detector := safety.NewDetector(cfg.Study.CrisisKeywords, promptSource.CrisisResponse())
	persistence := store.NewMemoryStore()
	policy := assign.NewPolicy(persistence)

	if !cfg.AI.Enabled() {
		log.Fatal("model credentials not configured; set ARK_API_KEY + Model or AK/SK")
	}
	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Println("AI service initialized successfully")

	assembler := ai.NewAssembler(promptSource, cfg.Study.MaxWords)
	manager := bot.NewManager(aiService, assembler, detector, policy, styleStore, persistence, cfg.Study)

	router := handler.NewRouter(manager, persistence, styleStore, detector, cfg.Study.MaxTurns)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Empathy study backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
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
