package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CONTENTAUDIT_"

// Limits are the size, length and time ceilings the pipeline enforces.
type Limits struct {
	MaxTextLength      int
	MaxWebpageChars    int
	MinWebpageChars    int
	MinTranscriptChars int
	MinDocumentChars   int
	MaxMediaSize       int64
	MaxImageSize       int64
	MaxDocumentSize    int64
	MaxAudioSize       int64
	MaxYouTubeDuration time.Duration
	FetchTimeout       time.Duration
	CaptionTimeout     time.Duration
	DownloadTimeout    time.Duration
	AnalysisTimeout    time.Duration
	SaveTimeout        time.Duration
}

type Config struct {
	WatchDir    string
	DataDir     string
	TempDir     string
	DefaultUser string

	LLMProvider  string
	LLMModel     string
	AnthropicKey string
	GoogleKey    string

	Transcriber     string
	WhisperModel    string
	WhisperThreads  string
	WhisperModelDir string
	OCR             string
	OCRLanguage     string
	Store           string

	NtfyTopic   string
	MetricsAddr string
	LogLevel    string
	LogFormat   string

	Limits Limits
}

// DefaultLimits returns the production ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxTextLength:      100000,
		MaxWebpageChars:    80000,
		MinWebpageChars:    50,
		MinTranscriptChars: 50,
		MinDocumentChars:   20,
		MaxMediaSize:       25 << 20,
		MaxImageSize:       20 << 20,
		MaxDocumentSize:    20 << 20,
		MaxAudioSize:       25 << 20,
		MaxYouTubeDuration: 600 * time.Second,
		FetchTimeout:       10 * time.Second,
		CaptionTimeout:     15 * time.Second,
		DownloadTimeout:    5 * time.Minute,
		AnalysisTimeout:    2 * time.Minute,
		SaveTimeout:        10 * time.Second,
	}
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("LLM_PROVIDER", "gemini"))
	model := getEnv("LLM_MODEL", "")

	// Set default model based on provider if not specified
	if model == "" {
		switch provider {
		case "claude":
			model = "claude-3-7-sonnet-latest"
		case "gemini":
			model = "gemini-2.5-flash"
		}
	}

	dataDir := getEnv("DATA_DIR", "/data")
	d := DefaultLimits()

	return &Config{
		WatchDir:    getEnv("WATCH_DIR", filepath.Join(dataDir, "inbox")),
		DataDir:     dataDir,
		TempDir:     getEnv("TEMP_DIR", os.TempDir()),
		DefaultUser: getEnv("DEFAULT_USER", ""),

		LLMProvider:  provider,
		LLMModel:     model,
		AnthropicKey: getRawEnv("ANTHROPIC_API_KEY", ""),
		GoogleKey:    getRawEnv("GOOGLE_API_KEY", ""),

		Transcriber:     strings.ToLower(getEnv("TRANSCRIBER", "whisper")),
		WhisperModel:    getEnv("WHISPER_MODEL", "base"),
		WhisperThreads:  getEnv("WHISPER_THREADS", ""),
		WhisperModelDir: getEnv("WHISPER_MODEL_DIR", ""),
		OCR:             strings.ToLower(getEnv("OCR", "tesseract")),
		OCRLanguage:     getEnv("OCR_LANGUAGE", "eng"),
		Store:           strings.ToLower(getEnv("STORE", "sqlite")),

		NtfyTopic:   getEnv("NTFY_TOPIC", ""),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		Limits: Limits{
			MaxTextLength:      getInt("MAX_TEXT_LENGTH", d.MaxTextLength),
			MaxWebpageChars:    getInt("MAX_WEBPAGE_CHARS", d.MaxWebpageChars),
			MinWebpageChars:    getInt("MIN_WEBPAGE_CHARS", d.MinWebpageChars),
			MinTranscriptChars: getInt("MIN_TRANSCRIPT_CHARS", d.MinTranscriptChars),
			MinDocumentChars:   getInt("MIN_DOCUMENT_CHARS", d.MinDocumentChars),
			MaxMediaSize:       getSize("MAX_MEDIA_SIZE", d.MaxMediaSize),
			MaxImageSize:       getSize("MAX_IMAGE_SIZE", d.MaxImageSize),
			MaxDocumentSize:    getSize("MAX_DOCUMENT_SIZE", d.MaxDocumentSize),
			MaxAudioSize:       getSize("MAX_AUDIO_SIZE", d.MaxAudioSize),
			MaxYouTubeDuration: getDuration("MAX_YOUTUBE_DURATION", d.MaxYouTubeDuration),
			FetchTimeout:       getDuration("FETCH_TIMEOUT", d.FetchTimeout),
			CaptionTimeout:     getDuration("CAPTION_TIMEOUT", d.CaptionTimeout),
			DownloadTimeout:    getDuration("DOWNLOAD_TIMEOUT", d.DownloadTimeout),
			AnalysisTimeout:    getDuration("ANALYSIS_TIMEOUT", d.AnalysisTimeout),
			SaveTimeout:        getDuration("SAVE_TIMEOUT", d.SaveTimeout),
		},
	}
}

func getEnv(key, defaultVal string) string {
	return getRawEnv(envPrefix+key, defaultVal)
}

func getRawEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// getSize accepts a plain byte count or a number with a KB/MB/GB suffix
// (binary multiples).
func getSize(key string, defaultVal int64) int64 {
	raw := strings.ToUpper(strings.TrimSpace(getEnv(key, "")))
	if raw == "" {
		return defaultVal
	}

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if strings.HasSuffix(raw, unit.suffix) {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, unit.suffix))
			multiplier = unit.mult
			break
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n * multiplier
}

// getDuration accepts Go duration strings ("90s", "5m") or bare seconds.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
