package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

type AnnotatorKind int

const (
	AnnotatorStanza AnnotatorKind = iota
	AnnotatorUDPipe
)

func (k AnnotatorKind) String() string {
	switch k {
	case AnnotatorStanza:
		return "stanza"
	case AnnotatorUDPipe:
		return "udpipe"
	default:
		return "unknown"
	}
}

func ParseAnnotatorKind(s string) (AnnotatorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stanza":
		return AnnotatorStanza, nil
	case "udpipe":
		return AnnotatorUDPipe, nil
	default:
		return 0, fmt.Errorf("unsupported annotator %q (stanza or udpipe)", s)
	}
}

type AppConfig struct {
	Env                Environment
	LogLevel           string
	ServerPort         string
	RawBodyLog         bool
	HttpTimeoutSeconds int
	CorsOrigins        []string
	RunConfigPath      string
}

type StanzaConfig struct {
	ConfigDir             string
	Python                string
	Language              string
	Package               string
	CPUOnly               bool
	StartupTimeoutSeconds int
}

type UDPipeConfig struct {
	URL               string
	Model             string
	RequestsPerSecond float64
	Burst             int
}

type AnnotatorConfig struct {
	Kind   AnnotatorKind
	Stanza StanzaConfig
	UDPipe UDPipeConfig
}

type CountConfig struct {
	ChunkChars   int
	TraceMaxRows int
}

type Config struct {
	App       AppConfig
	Annotator AnnotatorConfig
	Count     CountConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	env := parseEnvironment(appEnv)

	logLevel := getLogLevel(env)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	defaultStanzaDir := filepath.Join(homeDir, ".config", "vocabula")

	kind, err := ParseAnnotatorKind(getEnv("ANNOTATOR_KIND", "stanza"))
	if err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			Env:                env,
			LogLevel:           logLevel,
			ServerPort:         getEnv("APP_SERVER_PORT", "8080"),
			RawBodyLog:         getEnvBool("APP_RAW_BODY_LOG", false),
			HttpTimeoutSeconds: getEnvInt("APP_HTTP_TIMEOUT_SECONDS", 120),
			CorsOrigins:        getEnvList("APP_CORS_ORIGINS", []string{"*"}),
			RunConfigPath:      getEnv("VOCABULA_CONFIG", "groups.config.yml"),
		},
		Annotator: AnnotatorConfig{
			Kind: kind,
			Stanza: StanzaConfig{
				ConfigDir:             getEnv("STANZA_CONFIG_DIR", defaultStanzaDir),
				Python:                getEnv("STANZA_PYTHON", ""),
				Language:              getEnv("STANZA_LANGUAGE", "la"),
				Package:               getEnv("STANZA_PACKAGE", "perseus"),
				CPUOnly:               getEnvBool("STANZA_CPU_ONLY", true),
				StartupTimeoutSeconds: getEnvInt("STANZA_STARTUP_TIMEOUT", 600),
			},
			UDPipe: UDPipeConfig{
				URL:               getEnv("UDPIPE_URL", "https://lindat.mff.cuni.cz/services/udpipe/api"),
				Model:             getEnv("UDPIPE_MODEL", "latin-perseus"),
				RequestsPerSecond: getEnvFloat("UDPIPE_REQUESTS_PER_SECOND", 1.0),
				Burst:             getEnvInt("UDPIPE_BURST", 1),
			},
		},
		Count: CountConfig{
			ChunkChars:   getEnvInt("COUNT_CHUNK_CHARS", 200_000),
			TraceMaxRows: getEnvInt("COUNT_TRACE_MAX_ROWS", 0),
		},
	}, nil
}

func (c *Config) Validate() error {
	if c.Count.ChunkChars < 0 {
		return fmt.Errorf("COUNT_CHUNK_CHARS must not be negative")
	}
	if c.Count.TraceMaxRows < 0 {
		return fmt.Errorf("COUNT_TRACE_MAX_ROWS must not be negative")
	}
	switch c.Annotator.Kind {
	case AnnotatorStanza:
		if c.Annotator.Stanza.ConfigDir == "" && c.Annotator.Stanza.Python == "" {
			return fmt.Errorf("STANZA_CONFIG_DIR or STANZA_PYTHON is required")
		}
	case AnnotatorUDPipe:
		if c.Annotator.UDPipe.URL == "" {
			return fmt.Errorf("UDPIPE_URL is required")
		}
		if c.Annotator.UDPipe.RequestsPerSecond <= 0 {
			return fmt.Errorf("UDPIPE_REQUESTS_PER_SECOND must be positive")
		}
	}
	return nil
}

// ApplyRun lets the run file override the annotator settings it carries.
func (c *Config) ApplyRun(run *RunConfig) {
	if run.Annotator != nil {
		c.Annotator.Kind = *run.Annotator
	}
	if run.Language != "" {
		c.Annotator.Stanza.Language = run.Language
	}
	if run.StanzaPackage != "" {
		c.Annotator.Stanza.Package = run.StanzaPackage
	}
	if run.CPUOnly != nil {
		c.Annotator.Stanza.CPUOnly = *run.CPUOnly
	}
	if run.ChunkChars > 0 {
		c.Count.ChunkChars = run.ChunkChars
	}
	if run.Trace.MaxRows > 0 {
		c.Count.TraceMaxRows = run.Trace.MaxRows
	}
}

func parseEnvironment(envStr string) Environment {
	env := Environment(strings.ToLower(envStr))

	switch env {
	case Development, Production:
		return env
	default:
		return Development
	}
}

func getLogLevel(env Environment) string {
	if env == Production {
		return getEnv("APP_LOG_LEVEL", "info")
	}

	return getEnv("APP_LOG_LEVEL", "debug")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
