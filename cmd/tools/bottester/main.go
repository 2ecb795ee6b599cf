// bottester is a terminal harness for piloting the empathy bots without the
// HTTP surface: it creates a session against the orchestrator and exchanges
// turns read from stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/empathicai21/Empathic-AI-Research/internal/config"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/prompt"
	"github.com/empathicai21/Empathic-AI-Research/internal/safety"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/ai"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/assign"
	"github.com/empathicai21/Empathic-AI-Research/internal/service/bot"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment variables: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	styleFlag := flag.String("style", "", "style override: cognitive, emotional, motivational or neutral (default: sequential assignment)")
	streamFlag := flag.Bool("stream", true, "print reply fragments as they arrive")
	flag.Parse()

	if !cfg.AI.Enabled() {
		log.Fatal("model credentials not configured; set ARK_API_KEY + Model or AK/SK")
	}

	ctx := context.Background()

	styleStore := style.NewMemoryStore(style.Seed())
	promptSource := prompt.NewSource(cfg.Study.PromptDir, styleStore)
	detector := safety.NewDetector(cfg.Study.CrisisKeywords, promptSource.CrisisResponse())
	persistence := store.NewMemoryStore()
	policy := assign.NewPolicy(persistence)

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}

	assembler := ai.NewAssembler(promptSource, cfg.Study.MaxWords)
	manager := bot.NewManager(aiService, assembler, detector, policy, styleStore, persistence, cfg.Study)

	info, err := manager.CreateSession(ctx, *styleFlag, "")
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	defer manager.EndSession(info.SessionID)

	fmt.Printf("session=%s participant=%s style=%s watermark=%s\n",
		info.SessionID, info.ParticipantID, info.Style, info.WatermarkCondition)
	fmt.Println("type a message and press enter; empty line or Ctrl-D to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for turn := 1; turn <= cfg.Study.MaxTurns; turn++ {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			break
		}

		if *streamFlag {
			if err := streamTurn(ctx, manager, info.SessionID, message); err != nil {
				log.Printf("turn failed: %v", err)
			}
			continue
		}

		reply, err := manager.Respond(ctx, info.SessionID, message, turn)
		if err != nil {
			log.Printf("turn failed: %v", err)
			continue
		}
		if reply.CrisisDetected {
			fmt.Printf("[crisis keyword: %q]\n", reply.DetectedKeyword)
		}
		fmt.Println(reply.BotResponse)
	}
}

func streamTurn(ctx context.Context, manager *bot.Manager, sessionID, message string) error {
	isCrisis, keyword, crisisText, err := manager.CheckCrisis(message)
	if err != nil {
		return err
	}
	if isCrisis {
		fmt.Printf("[crisis keyword: %q]\n%s\n", keyword, crisisText)
		return nil
	}

	stream, err := manager.StreamRespond(ctx, sessionID, message)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Print(fragment)
	}
}
