package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/clobrano/contentaudit/internal/analyzer"
	"github.com/clobrano/contentaudit/internal/audio"
	"github.com/clobrano/contentaudit/internal/config"
	"github.com/clobrano/contentaudit/internal/document"
	"github.com/clobrano/contentaudit/internal/execx"
	"github.com/clobrano/contentaudit/internal/extract"
	"github.com/clobrano/contentaudit/internal/logger"
	"github.com/clobrano/contentaudit/internal/metrics"
	"github.com/clobrano/contentaudit/internal/models"
	"github.com/clobrano/contentaudit/internal/notifier"
	"github.com/clobrano/contentaudit/internal/ocr"
	"github.com/clobrano/contentaudit/internal/pipeline"
	"github.com/clobrano/contentaudit/internal/processor"
	"github.com/clobrano/contentaudit/internal/queue"
	"github.com/clobrano/contentaudit/internal/store"
	"github.com/clobrano/contentaudit/internal/watcher"
	"github.com/clobrano/contentaudit/internal/youtube"
)

const usage = `Usage:
  contentaudit                        watch the inbox and audit incoming requests
  contentaudit audit <user> <input>   audit one text, URL or file path and print the result
  contentaudit history <user> [n]     print the n most recent audits of a user`

// recordStore is what both store backends provide.
type recordStore interface {
	store.Store
	store.History
}

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	args := os.Args[1:]
	switch {
	case len(args) == 0:
		err = runDaemon(cfg, log)
	case args[0] == "audit" && len(args) == 3:
		err = runAudit(cfg, log, args[1], args[2])
	case args[0] == "history" && (len(args) == 2 || len(args) == 3):
		limit := 20
		if len(args) == 3 {
			if limit, err = strconv.Atoi(args[2]); err != nil {
				err = fmt.Errorf("invalid count %q", args[2])
				break
			}
		}
		err = runHistory(cfg, log, args[1], limit)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("contentaudit failed", zap.Error(err))
	}
}

func runDaemon(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting contentaudit",
		zap.String("watch_dir", cfg.WatchDir),
		zap.String("data_dir", cfg.DataDir),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("llm_model", cfg.LLMModel),
	)
	validateConfig(cfg, log)

	// Ensure directories exist and are writable
	for _, dir := range []string{cfg.WatchDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		if err := checkWritePermission(dir); err != nil {
			return fmt.Errorf("%s is not writable: %w", dir, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	p, closeStore, err := buildPipeline(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer closeStore()

	queuePath := filepath.Join(cfg.DataDir, ".queue.json")
	q, err := queue.New(queuePath, m)
	if err != nil {
		return fmt.Errorf("initialize queue: %w", err)
	}
	log.Info("Queue initialized", zap.String("persistence", queuePath), zap.Int("pending", q.PendingCount()))

	ntfy := notifier.New(cfg.NtfyTopic)
	if ntfy != nil {
		log.Info("Notifier initialized", zap.String("topic", cfg.NtfyTopic))
	}

	proc := processor.New(q, p, ntfy, cfg.WatchDir, maxUpload(cfg.Limits), log)
	proc.Start(ctx)

	watch, err := watcher.New(cfg.WatchDir, cfg.DefaultUser, q, log)
	if err != nil {
		return fmt.Errorf("initialize watcher: %w", err)
	}
	if err := watch.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", zap.Error(err))
			}
		}()
		log.Info("Serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	log.Info("contentaudit is running")
	<-ctx.Done()
	log.Info("Shutting down")

	watch.Stop()
	proc.Stop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	log.Info("contentaudit stopped")
	return nil
}

// runAudit audits a single input from the command line. An existing path
// is read as a file, anything that looks like a URL is fetched, and the
// rest is audited as text.
func runAudit(cfg *config.Config, log *zap.Logger, userID, input string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, closeStore, err := buildPipeline(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer closeStore()

	in := models.TextInput(input)
	if info, statErr := os.Stat(input); statErr == nil && !info.IsDir() {
		if info.Size() > maxUpload(cfg.Limits) {
			return fmt.Errorf("%s is %d bytes, limit is %d", input, info.Size(), maxUpload(cfg.Limits))
		}
		data, err := os.ReadFile(input)
		if err != nil {
			return err
		}
		in = models.FileInput(data, "", filepath.Base(input))
	} else if looksLikeURL(input) {
		in = models.URLInput(input)
	}

	result, err := p.ProcessContent(ctx, in, pipeline.Options{UserID: userID})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runHistory(cfg *config.Config, log *zap.Logger, userID string, limit int) error {
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := st.ListByUser(context.Background(), userID, limit)
	if err != nil {
		return fmt.Errorf("list audits: %w", err)
	}
	log.Debug("Listed audits", zap.String("user_id", userID), zap.Int("count", len(records)))
	return printJSON(records)
}

// buildPipeline constructs every collaborator of the pipeline once. m may
// be nil.
func buildPipeline(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) (*pipeline.Pipeline, func(), error) {
	var genaiClient *genai.Client
	if cfg.LLMProvider == "gemini" || cfg.Transcriber == "gemini" || cfg.OCR == "gemini" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GoogleKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("initialize Gemini client: %w", err)
		}
		genaiClient = client
	}

	an, err := initAnalyzer(cfg, genaiClient)
	if err != nil {
		return nil, nil, err
	}

	runner := execx.ExecRunner{}
	var transcriber audio.Transcriber = audio.NewWhisperCLI(runner, cfg.WhisperModel, cfg.WhisperThreads, cfg.WhisperModelDir, cfg.TempDir)
	if cfg.Transcriber == "gemini" {
		transcriber = audio.NewGeminiTranscriber(genaiClient, geminiModel(cfg))
	}
	var engine ocr.Engine = ocr.NewTesseract(runner, cfg.OCRLanguage, cfg.TempDir)
	if cfg.OCR == "gemini" {
		engine = ocr.NewGemini(genaiClient, geminiModel(cfg))
	}
	checkTools(cfg, log)

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{}
	guard := extract.NewGuard(cfg.Limits)
	media := extract.NewMedia(guard, transcriber, log)

	var ytRecorder extract.TranscriptRecorder
	var recorder pipeline.Recorder
	if m != nil {
		ytRecorder, recorder = m, m
	}

	p := pipeline.New(pipeline.Deps{
		Guard:   guard,
		Text:    extract.NewText(guard),
		Webpage: extract.NewWebpage(client, guard, log),
		Video: extract.NewYouTube(guard, cfg.TempDir, extract.YouTubeDeps{
			Captions:    youtube.NewCaptionFetcher(client, "en"),
			Audio:       youtube.NewYtDlp(runner),
			Normalizer:  audio.NewFFmpeg(runner),
			Transcriber: transcriber,
			Recorder:    ytRecorder,
		}, log),
		RemoteMedia: extract.NewRemoteMedia(client, guard, media),
		Media:       media,
		Image:       extract.NewImage(guard, engine),
		Document: extract.NewDocument(guard, document.NewRouter(
			document.NewPDF(runner, cfg.TempDir),
			document.NewDOCX(),
			document.Plain{},
		)),
		Invoker:  analyzer.NewInvoker(an, cfg.Limits.AnalysisTimeout, log),
		Store:    st,
		Recorder: recorder,
		Logger:   log,
	})
	return p, closeStore, nil
}

func initAnalyzer(cfg *config.Config, genaiClient *genai.Client) (analyzer.Analyzer, error) {
	switch cfg.LLMProvider {
	case "claude":
		return analyzer.NewClaude(cfg.AnthropicKey, cfg.LLMModel), nil
	case "gemini":
		return analyzer.NewGemini(genaiClient, cfg.LLMModel), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// geminiModel is the model used for Gemini transcription and OCR, which
// stay on Gemini when analysis runs on Claude.
func geminiModel(cfg *config.Config) string {
	if cfg.LLMProvider == "gemini" {
		return cfg.LLMModel
	}
	return "gemini-2.5-flash"
}

func openStore(cfg *config.Config) (recordStore, func(), error) {
	switch cfg.Store {
	case "file":
		st, err := store.NewFile(filepath.Join(cfg.DataDir, "audits"))
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open audit database: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func validateConfig(cfg *config.Config, log *zap.Logger) {
	if cfg.LLMProvider == "claude" && cfg.AnthropicKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set, Claude analysis will fail")
	}
	if cfg.LLMProvider == "gemini" && cfg.GoogleKey == "" {
		log.Warn("GOOGLE_API_KEY not set, Gemini analysis will fail")
	}
	if cfg.DefaultUser == "" {
		log.Warn("CONTENTAUDIT_DEFAULT_USER not set, request files without user_id will be refused")
	}
}

// checkTools warns about missing command-line tools up front rather than
// on the first request that needs them.
func checkTools(cfg *config.Config, log *zap.Logger) {
	tools := []string{"yt-dlp", "ffmpeg", "pdftotext"}
	if cfg.Transcriber != "gemini" {
		tools = append(tools, "whisper")
	}
	if cfg.OCR != "gemini" {
		tools = append(tools, "tesseract")
	}
	for _, tool := range tools {
		if !execx.Available(tool) {
			log.Warn("Command-line tool not found on PATH", zap.String("tool", tool))
		}
	}
}

// maxUpload is the largest file any strategy accepts.
func maxUpload(l config.Limits) int64 {
	return max(l.MaxMediaSize, l.MaxImageSize, l.MaxDocumentSize)
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkWritePermission(dir string) error {
	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(testFile)
}
