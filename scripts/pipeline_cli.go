//go:build ignore

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/oracle"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/extraction"
	llmService "github.com/ArthurLoboLobo/projeto-estudos/internal/service/llm"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/planning"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/prompts"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// CLI runs extraction and planning against local PDFs without a database.
type CLI struct {
	ctx       context.Context
	extractor *extraction.Pipeline
	planner   *planning.Planner
	text      oracle.TextGenerator
	model     string
	scanner   *bufio.Scanner
	language  string
	docs      []models.Document
	plan      models.DraftPlan
	logger    *slog.Logger
}

// setupLogger creates a logger that writes to both console and file
func setupLogger() (*slog.Logger, string, error) {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFilename := filepath.Join(logsDir, fmt.Sprintf("pipeline_cli_%s.log", timestamp))

	logFile, err := os.Create(logFilename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file: %w", err)
	}

	// Console: INFO level, file: DEBUG level with source
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return a
		},
	})

	logger := slog.New(&multiHandler{
		handlers: []slog.Handler{consoleHandler, fileHandler},
	})
	return logger, logFilename, nil
}

// multiHandler writes to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

func main() {
	_ = godotenv.Load()

	logger, logFile, err := setupLogger()
	if err != nil {
		fmt.Printf("Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("session started", "log_file", logFile)

	cfg := config.Load()

	oracles, err := llmService.NewProviderFactory(cfg, logger).Build()
	if err != nil {
		fmt.Printf("%s❌ Failed to setup providers: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	catalog := prompts.MustLoad()
	visionPrompt, err := catalog.Render(prompts.VisionExtraction, nil)
	if err != nil {
		fmt.Printf("%s❌ Failed to render vision prompt: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	cli := &CLI{
		ctx: context.Background(),
		extractor: extraction.NewPipeline(
			extraction.NewPdftoppmRasterizer(cfg.PdftoppmPath, config.RasterDPI),
			oracles.Vision,
			visionPrompt,
			retry.FromConfig(cfg, logger),
			config.MaxConcurrentPages,
			logger,
		),
		planner:  planning.NewPlanner(oracles.Text, catalog, cfg.ModelPlan, logger),
		text:     oracles.Text,
		model:    cfg.ModelPlan,
		scanner:  bufio.NewScanner(os.Stdin),
		language: "en",
		logger:   logger,
	}
	cli.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	cli.run()
}

func (cli *CLI) run() {
	fmt.Printf("\n%s╔══════════════════════════════════════╗%s\n", colorCyan, colorReset)
	fmt.Printf("%s║    Study Pipeline CLI                ║%s\n", colorCyan, colorReset)
	fmt.Printf("%s╚══════════════════════════════════════╝%s\n", colorCyan, colorReset)

	for {
		fmt.Println("\n" + strings.Repeat("─", 40))
		fmt.Printf("Documents: %d | Plan topics: %d | Language: %s\n", len(cli.docs), len(cli.plan), cli.language)
		fmt.Println("1. Extract a PDF")
		fmt.Println("2. Generate plan from extracted documents")
		fmt.Println("3. Revise plan")
		fmt.Println("4. Show plan")
		fmt.Println("5. Set language")
		fmt.Println("6. Ask about the documents (streamed)")
		fmt.Println("7. Exit")
		fmt.Print("\nSelect option (1-7): ")

		choice := cli.readLine()
		fmt.Println()

		switch choice {
		case "1":
			cli.extractFlow()
		case "2":
			cli.generateFlow()
		case "3":
			cli.reviseFlow()
		case "4":
			cli.printPlan()
		case "5":
			fmt.Print("Language code (en, pt, es, fr, de): ")
			if lang := cli.readLine(); lang != "" {
				cli.language = lang
			}
		case "6":
			cli.askFlow()
		case "7":
			fmt.Printf("%s✓ Goodbye!%s\n", colorGreen, colorReset)
			return
		default:
			fmt.Printf("%s⚠ Invalid choice. Please enter 1-7.%s\n", colorYellow, colorReset)
		}
	}
}

func (cli *CLI) extractFlow() {
	fmt.Print("PDF path: ")
	path := cli.readLine()
	pdf, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("%s❌ %v%s\n", colorRed, err, colorReset)
		return
	}

	fmt.Printf("%s⏳ Extracting %s...%s\n", colorBlue, filepath.Base(path), colorReset)
	start := time.Now()
	text, err := cli.extractor.Extract(cli.ctx, pdf)
	if err != nil {
		cli.logger.Error("extraction failed", "path", path, "error", err)
		fmt.Printf("%s❌ Extraction failed: %v%s\n", colorRed, err, colorReset)
		return
	}

	length := len([]rune(text))
	cli.docs = append(cli.docs, models.Document{
		ID:               uuid.NewString(),
		FileName:         filepath.Base(path),
		FilePath:         path,
		ContentText:      &text,
		ContentLength:    &length,
		ProcessingStatus: models.ProcessingCompleted,
		CreatedAt:        time.Now(),
	})
	fmt.Printf("%s✓ Extracted %d characters in %s%s\n", colorGreen, length, time.Since(start).Round(time.Millisecond), colorReset)
}

func (cli *CLI) generateFlow() {
	if len(cli.docs) == 0 {
		fmt.Printf("%s⚠ Extract at least one PDF first%s\n", colorYellow, colorReset)
		return
	}

	fmt.Printf("%s⏳ Generating plan...%s\n", colorBlue, colorReset)
	plan, err := cli.planner.Generate(cli.ctx, "cli", cli.docs, cli.language, func(e models.ProgressEvent) {
		if data, ok := e.Data.(models.DocumentProcessedData); ok {
			fmt.Printf("%s  %s %d/%d (%d topics)%s\n", colorBlue, e.Name, data.Doc, data.Total, len(data.Plan), colorReset)
		}
	})
	if err != nil {
		fmt.Printf("%s❌ Plan generation failed: %v%s\n", colorRed, err, colorReset)
		return
	}
	cli.plan = plan
	cli.printPlan()
}

func (cli *CLI) reviseFlow() {
	if cli.plan == nil {
		fmt.Printf("%s⚠ Generate a plan first%s\n", colorYellow, colorReset)
		return
	}

	fmt.Print("Instruction: ")
	instruction := cli.readLine()
	if instruction == "" {
		return
	}

	fmt.Printf("%s⏳ Revising plan...%s\n", colorBlue, colorReset)
	plan, err := cli.planner.Revise(cli.ctx, cli.plan, instruction, cli.language)
	if err != nil {
		fmt.Printf("%s❌ Revision failed: %v%s\n", colorRed, err, colorReset)
		return
	}
	cli.plan = plan
	cli.printPlan()
}

// askFlow streams an answer grounded on the extracted documents so model
// output can be checked before it feeds a plan.
func (cli *CLI) askFlow() {
	if len(cli.docs) == 0 {
		fmt.Printf("%s⚠ Extract at least one PDF first%s\n", colorYellow, colorReset)
		return
	}

	fmt.Print("Question: ")
	question := cli.readLine()
	if question == "" {
		return
	}

	var prompt strings.Builder
	for _, d := range cli.docs {
		fmt.Fprintf(&prompt, "=== %s ===\n", d.FileName)
		if d.ContentText != nil {
			prompt.WriteString(*d.ContentText)
		}
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Question: " + question)

	start := time.Now()
	answer, err := cli.text.Stream(cli.ctx, &oracle.TextRequest{
		SystemPrompt: "Answer using only the study documents below. Reply in language code " + cli.language + ".",
		UserPrompt:   prompt.String(),
		Model:        cli.model,
		MaxTokens:    1024,
	}, func(delta string) {
		fmt.Print(delta)
	})
	fmt.Println()
	if err != nil {
		cli.logger.Error("streamed answer failed", "error", err)
		fmt.Printf("%s❌ Stream failed: %v%s\n", colorRed, err, colorReset)
		return
	}
	cli.logger.Info("streamed answer", "chars", len(answer), "latency", time.Since(start).String())
}

func (cli *CLI) printPlan() {
	if len(cli.plan) == 0 {
		fmt.Println("(empty plan)")
		return
	}
	for _, t := range cli.plan {
		fmt.Printf("%s%2d. %s%s\n", colorCyan, t.OrderIndex, t.Title, colorReset)
		for _, s := range t.Subtopics {
			fmt.Printf("      - %s\n", s)
		}
	}
}

func (cli *CLI) readLine() string {
	if !cli.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(cli.scanner.Text())
}
