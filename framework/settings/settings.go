package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/km-arc/go-ioc/framework/validation"
)

// Settings is the process configuration, read from the environment.
type Settings struct {
	App       AppSettings
	Container ContainerSettings
	Log       LogSettings
	Inspect   InspectSettings
}

type AppSettings struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
}

type ContainerSettings struct {
	// Sources are the definition files read at start-up, in order.
	Sources   []string
	EagerInit bool
}

type LogSettings struct {
	Level  string // debug | info | warn | error
	Format string // text | json
}

type InspectSettings struct {
	Enabled bool
	Addr    string
}

// Load reads .env (if present) and populates Settings from environment
// variables. Variables already set in the environment win over the files.
//
//	s := settings.Load()
//	s := settings.Load("config/.env", "config/.env.local")
func Load(envFiles ...string) *Settings {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// Non-fatal: .env may not exist in production
		_ = godotenv.Load(f)
	}

	return &Settings{
		App: AppSettings{
			Name:  Get("APP_NAME", "go-ioc"),
			Env:   Get("APP_ENV", "local"),
			Debug: GetBool("APP_DEBUG", false),
		},
		Container: ContainerSettings{
			Sources:   GetList("IOC_SOURCES"),
			EagerInit: GetBool("IOC_EAGER_INIT", true),
		},
		Log: LogSettings{
			Level:  strings.ToLower(Get("IOC_LOG_LEVEL", "info")),
			Format: strings.ToLower(Get("IOC_LOG_FORMAT", "text")),
		},
		Inspect: InspectSettings{
			Enabled: GetBool("IOC_INSPECT_ENABLED", false),
			Addr:    Get("IOC_INSPECT_ADDR", ":8000"),
		},
	}
}

// Validate checks the loaded values.
func (s *Settings) Validate() error {
	v := validation.Make(map[string]string{
		"APP_NAME":         s.App.Name,
		"APP_ENV":          s.App.Env,
		"IOC_SOURCES":      strings.Join(s.Container.Sources, ","),
		"IOC_LOG_LEVEL":    s.Log.Level,
		"IOC_LOG_FORMAT":   s.Log.Format,
		"IOC_INSPECT_ADDR": s.Inspect.Addr,
	}, validation.Rules{
		"APP_NAME":         "required|max:64",
		"APP_ENV":          "required|alpha_dash",
		"IOC_SOURCES":      "nullable|extensions:xml,yaml,yml",
		"IOC_LOG_LEVEL":    "required|in:debug,info,warn,error",
		"IOC_LOG_FORMAT":   "required|in:text,json",
		"IOC_INSPECT_ADDR": "required|address",
	})
	if err := v.Err(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Environment helpers, mirroring APP_ENV.
func (s *Settings) IsLocal() bool      { return s.App.Env == "local" }
func (s *Settings) IsProduction() bool { return s.App.Env == "production" }
func (s *Settings) IsTesting() bool    { return s.App.Env == "testing" }

// Get returns the value of key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetBool parses key with cast.ToBoolE, returning fallback when it is unset
// or does not parse.
func GetBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

// GetList returns the trimmed, non-empty items of a comma-separated value.
func GetList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
