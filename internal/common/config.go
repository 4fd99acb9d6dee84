package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store      StoreConfig
	Render     RenderConfig
	Preprocess PreprocessConfig
	OCR        OCRConfig
	Pipeline   PipelineConfig
	Submission SubmissionContext
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	DSN         string // sqlite path or postgres URL
	DialTimeout time.Duration
}

// RenderConfig holds PDF rasterization configuration.
type RenderConfig struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 300
	MaxPages int    // 0 = no limit
}

// PreprocessConfig holds image normalization parameters.
type PreprocessConfig struct {
	TargetDPI      int     // default 300
	Binarize       bool    // apply adaptive thresholding after grayscale
	ThresholdBlock int     // adaptive threshold window size (odd), default 31
	ThresholdBias  float64 // subtracted from local mean, default 8
	DeskewMaxAngle float64 // degrees; 0 disables deskew
	DebugDir       string  // if set, normalized images are persisted here
}

// OCRConfig holds OCR engine configuration.
type OCRConfig struct {
	Languages    []string // default ["eng"]
	PSM          int      // page segmentation mode; 6 is good for form blocks
	TessdataDir  string
	MaxRetries   int           // retries after the first attempt, default 2
	RetryBackoff time.Duration // base backoff, doubled per attempt
}

// PipelineConfig holds orchestration parameters.
type PipelineConfig struct {
	PageWorkers int    // parallel page extractions per document, default 4
	RulesPath   string // optional YAML rule-set override
	FormMarker  string // regexp marking the first page of a logical form
}

// SubmissionContext is the static reporting context stamped onto every
// outgoing record. Loaded once and threaded through the orchestrator as an
// immutable value, never process-wide mutable state.
type SubmissionContext struct {
	DelegateAgency string
	VendorID       string
	Program        string
	SubmittedBy    string
	ReportingMonth string
	DefaultCity    string
	DefaultState   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			DSN:         getEnv("DB_URL", "file:consult-intake.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Render: RenderConfig{
			Pdftoppm: getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DPI:      getEnvAsInt("RENDER_DPI", 300),
			MaxPages: getEnvAsInt("RENDER_MAX_PAGES", 0),
		},
		Preprocess: PreprocessConfig{
			TargetDPI:      getEnvAsInt("PREPROCESS_TARGET_DPI", 300),
			Binarize:       getEnvAsBool("PREPROCESS_BINARIZE", true),
			ThresholdBlock: getEnvAsInt("PREPROCESS_THRESHOLD_BLOCK", 31),
			ThresholdBias:  getEnvAsFloat64("PREPROCESS_THRESHOLD_BIAS", 8),
			DeskewMaxAngle: getEnvAsFloat64("PREPROCESS_DESKEW_MAX_ANGLE", 5),
			DebugDir:       getEnv("DEBUG_IMAGE_DIR", ""),
		},
		OCR: OCRConfig{
			Languages:    []string{getEnv("OCR_LANG", "eng")},
			PSM:          getEnvAsInt("OCR_PSM", 6),
			TessdataDir:  getEnv("TESSDATA_PREFIX", ""),
			MaxRetries:   getEnvAsInt("OCR_MAX_RETRIES", 2),
			RetryBackoff: getEnvAsDuration("OCR_RETRY_BACKOFF", 250*time.Millisecond),
		},
		Pipeline: PipelineConfig{
			PageWorkers: getEnvAsInt("PIPELINE_PAGE_WORKERS", 4),
			RulesPath:   getEnv("RULES_PATH", ""),
			FormMarker:  getEnv("FORM_MARKER", `(?i)client\s+consultation\s+form`),
		},
		Submission: SubmissionContext{
			DelegateAgency: getEnv("DELEGATE_AGENCY", ""),
			VendorID:       getEnv("VENDOR_ID", ""),
			Program:        getEnv("PROGRAM", ""),
			SubmittedBy:    getEnv("SUBMITTED_BY", ""),
			ReportingMonth: getEnv("REPORTING_MONTH", ""),
			DefaultCity:    getEnv("DEFAULT_CITY", ""),
			DefaultState:   getEnv("DEFAULT_STATE", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Render.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "RENDER_DPI must be positive", ErrInvalidInput)
	}
	if c.Pipeline.PageWorkers <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_PAGE_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
