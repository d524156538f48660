package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is read once at startup. Values come from ./pxk_config.json when it
// exists, then from the environment (and .env), which wins.
type Config struct {
	LarkAppID         string `json:"larkAppId" env:"LARK_APP_ID" validate:"required"`
	LarkAppSecret     string `json:"larkAppSecret" env:"LARK_APP_SECRET" validate:"required"`
	LarkBaseToken     string `json:"larkBaseToken" env:"LARK_BASE_TOKEN" validate:"required"`
	LarkTableMasterID string `json:"larkTableMasterId" env:"LARK_TABLE_MASTER_ID" validate:"required"`
	LarkTableDetailID string `json:"larkTableDetailId" env:"LARK_TABLE_DETAIL_ID" validate:"required"`
	LarkBaseURL       string `json:"larkBaseUrl" env:"LARK_BASE_URL" validate:"required,url"`

	// PrintAPIKey protects the print endpoint when set. Empty keeps it public.
	PrintAPIKey string `json:"printApiKey" env:"PRINT_API_KEY"`

	TemplateDir      string `json:"templateDir" env:"TEMPLATE_DIR" validate:"required"`
	Port             int    `json:"port" env:"PORT" validate:"min=1,max=65535"`
	RemoteTimeoutSec int    `json:"remoteTimeoutSec" env:"REMOTE_TIMEOUT_SEC" validate:"min=1"`
	RenderTimeoutSec int    `json:"renderTimeoutSec" env:"RENDER_TIMEOUT_SEC" validate:"min=1"`

	BrowserBin string `json:"browserBin" env:"ROD_BROWSER_BIN"`
	NoSandbox  bool   `json:"noSandbox" env:"ROD_NO_SANDBOX"`

	// PrintLogDB is the sqlite file of the print journal. Empty disables the journal.
	PrintLogDB string `json:"printLogDb" env:"PRINT_LOG_DB"`
	// StrictTicketNumber rejects masters without a ticket number with 400.
	StrictTicketNumber bool `json:"strictTicketNumber" env:"STRICT_TICKET_NUMBER"`
}

var (
	cfg Config
	mu  sync.RWMutex

	validate = validator.New()
)

const configFilePath = "./pxk_config.json"

// Defaults returns the settings used when nothing else is configured.
func Defaults() Config {
	return Config{
		LarkBaseURL:      "https://open.feishu.cn",
		TemplateDir:      "./templates",
		Port:             8000,
		RemoteTimeoutSec: 30,
		RenderTimeoutSec: 60,
	}
}

// LoadConfig loads .env, ./pxk_config.json and the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(configFilePath)
}

// Load reads the JSON file at path (missing is fine) and applies environment overrides.
func Load(path string) (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	c := Defaults()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(file, &c); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, err
		}
	}
	if err := applyEnv(&c); err != nil {
		return Config{}, err
	}

	cfg = c
	return cfg, nil
}

// GetConfig returns the last loaded configuration.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// applyEnv overrides every field tagged `env` whose variable is set and non-blank.
func applyEnv(c *Config) error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("env")
		if key == "" {
			continue
		}
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.String:
			f.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %q is not a number", key, raw)
			}
			f.SetInt(int64(n))
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %q is not a boolean", key, raw)
			}
			f.SetBool(b)
		}
	}
	return nil
}

// Missing lists the environment keys of settings that are absent or invalid.
func (c Config) Missing() []string {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	t := reflect.TypeOf(c)
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.StructField()
		if sf, ok := t.FieldByName(name); ok && sf.Tag.Get("env") != "" {
			name = sf.Tag.Get("env")
		}
		out = append(out, name)
	}
	return out
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
