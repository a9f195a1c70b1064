// Package config resolves the settings of a test run from defaults, an optional JSON or YAML file,
// the environment (including a .env file) and finally command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment names accepted in TEST_ENV.
const (
	EnvQA   = "qa"
	EnvProd = "prod"
)

// Environment variables read by ApplyEnv.
const (
	VarTestEnv      = "TEST_ENV"
	VarAPIURL       = "API_URL"
	VarUIURL        = "UI_URL"
	VarUserEmail    = "EMAIL_API"
	VarUserPassword = "PASSWORD_API"
	VarWorkers      = "WORKERS"
)

const (
	DefaultAPIURL    = "https://conduit-api.bondaracademy.com/"
	DefaultUIURL     = "https://conduit.bondaracademy.com"
	DefaultSchemaDir = "./response-schemas"
	DefaultDotEnv    = ".env"
)

// Config is the complete configuration of a test run.
type Config struct {
	Env              string   `json:"env"`
	APIURL           string   `json:"apiUrl"`
	UIURL            string   `json:"uiUrl"`
	UserEmail        string   `json:"userEmail"`
	UserPassword     string   `json:"userPassword"`
	SchemaDir        string   `json:"schemaDir"`
	UpdateSchemas    bool     `json:"updateSchemas"`
	Workers          int      `json:"workers"`
	RequestTimeoutMs int      `json:"requestTimeoutMs"`
	UI               UIConfig `json:"ui"`
}

// UIConfig controls the browser tests.
type UIConfig struct {
	Enabled       bool   `json:"enabled"`
	Headless      bool   `json:"headless"`
	ScreenshotDir string `json:"screenshotDir"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Env:       EnvQA,
		APIURL:    DefaultAPIURL,
		UIURL:     DefaultUIURL,
		SchemaDir: DefaultSchemaDir,
		Workers:   1,
		UI:        UIConfig{Headless: true},
	}
}

// LoadFile overlays the contents of a JSON or YAML file onto c. Keys missing from the file leave
// the corresponding settings unchanged.
func (c Config) LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("cannot read config file: %w", err)
	}
	if err := parseJSONOrYAML(data, &c); err != nil {
		return c, fmt.Errorf("cannot parse config file %q: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overlays any of the recognized environment variables that are set and non-empty.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(target *string, name string) {
		if v := getenv(name); v != "" {
			*target = v
		}
	}
	set(&c.Env, VarTestEnv)
	set(&c.APIURL, VarAPIURL)
	set(&c.UIURL, VarUIURL)
	set(&c.UserEmail, VarUserEmail)
	set(&c.UserPassword, VarUserPassword)
	if v := getenv(VarWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("%s must be an integer, not %q", VarWorkers, v)
		}
		c.Workers = n
	}
	return c, nil
}

// Validate checks the configuration and applies the rules that depend on the environment: in qa
// credentials are mandatory, while in prod they are always blank so that tests needing a logged-in
// user are skipped.
func (c Config) Validate() (Config, error) {
	switch c.Env {
	case EnvQA:
		if c.UserEmail == "" || c.UserPassword == "" {
			return c, fmt.Errorf("missing required environment variables %s and %s", VarUserEmail, VarUserPassword)
		}
	case EnvProd:
		c.UserEmail = ""
		c.UserPassword = ""
	default:
		return c, fmt.Errorf("unknown environment %q (expected %q or %q)", c.Env, EnvQA, EnvProd)
	}
	if err := checkURL("API URL", c.APIURL); err != nil {
		return c, err
	}
	if c.UI.Enabled {
		if err := checkURL("UI URL", c.UIURL); err != nil {
			return c, err
		}
	}
	if c.Workers < 1 {
		return c, fmt.Errorf("workers must be at least 1, not %d", c.Workers)
	}
	if c.RequestTimeoutMs < 0 {
		return c, errors.New("request timeout cannot be negative")
	}
	if c.SchemaDir == "" {
		c.SchemaDir = DefaultSchemaDir
	}
	return c, nil
}

// HasCredentials is true if a user email and password are both configured.
func (c Config) HasCredentials() bool {
	return c.UserEmail != "" && c.UserPassword != ""
}

// LoadDotEnv copies the variables in a .env file into the process environment, without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnv
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("cannot load %s: %w", path, err)
	}
	return nil
}

func checkURL(what, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute URL", what, value)
	}
	return nil
}
