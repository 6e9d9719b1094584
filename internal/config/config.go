package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/lexreader/chapterd/internal/segment"
)

type Config struct {
	Port string

	// Persistence
	DataPath string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Segmentation thresholds
	LargeFileThreshold   int
	ScanChunkSize        int
	ChunkLookback        int
	SegmentTimeout       time.Duration
	MaxChapterBytes      int
	SplitTargetBytes     int
	SplitLookahead       int
	MinChapterBytes      int
	BatchSize            int
	DensityMaxCandidates int
	DensityMinGap        int
	HeaderZonePercent    int
	LoosePatternFallback bool

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	def := segment.DefaultConfig()

	cfg := Config{
		Port: envOr("PORT", "8091"),

		DataPath: envOr("DATA_PATH", "chapterd.db"),

		APIKey: os.Getenv("CHAPTERD_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		LargeFileThreshold:   envInt("LARGE_FILE_THRESHOLD", def.LargeFileThreshold),
		ScanChunkSize:        envInt("SCAN_CHUNK_SIZE", def.ScanChunkSize),
		ChunkLookback:        envInt("CHUNK_LOOKBACK", def.ChunkLookback),
		SegmentTimeout:       envDuration("SEGMENT_TIMEOUT", def.Timeout),
		MaxChapterBytes:      envInt("MAX_CHAPTER_BYTES", def.MaxChapterBytes),
		SplitTargetBytes:     envInt("SPLIT_TARGET_BYTES", def.SplitTargetBytes),
		SplitLookahead:       envInt("SPLIT_LOOKAHEAD", def.SplitLookahead),
		MinChapterBytes:      envInt("MIN_CHAPTER_BYTES", def.MinChapterBytes),
		BatchSize:            envInt("BUILD_BATCH_SIZE", def.BatchSize),
		DensityMaxCandidates: envInt("DENSITY_MAX_CANDIDATES", def.DensityMaxCandidates),
		DensityMinGap:        envInt("DENSITY_MIN_GAP", def.DensityMinGap),
		HeaderZonePercent:    envInt("HEADER_ZONE_PERCENT", def.HeaderZonePercent),
		LoosePatternFallback: envBool("LOOSE_PATTERN_FALLBACK", false),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ScanChunkSize <= 0 {
		cfg.ScanChunkSize = def.ScanChunkSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CHAPTERD_API_KEY is required")
	}
	if c.DataPath == "" {
		return fmt.Errorf("DATA_PATH is required")
	}
	return nil
}

// SegmentConfig maps the flat service configuration onto the
// segmentation engine's config.
func (c Config) SegmentConfig() segment.Config {
	return segment.Config{
		LargeFileThreshold:   c.LargeFileThreshold,
		ScanChunkSize:        c.ScanChunkSize,
		ChunkLookback:        c.ChunkLookback,
		Timeout:              c.SegmentTimeout,
		MaxChapterBytes:      c.MaxChapterBytes,
		SplitTargetBytes:     c.SplitTargetBytes,
		SplitLookahead:       c.SplitLookahead,
		MinChapterBytes:      c.MinChapterBytes,
		BatchSize:            c.BatchSize,
		DensityMaxCandidates: c.DensityMaxCandidates,
		DensityMinGap:        c.DensityMinGap,
		HeaderZonePercent:    c.HeaderZonePercent,
		LoosePatternFallback: c.LoosePatternFallback,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
