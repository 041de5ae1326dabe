package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Cfg struct {
	Database   Database
	Logger     Logger
	OpenAI     OpenAI
	Browser    Browser
	Selenium   Selenium
	Migrations Migrations
	App        App
	Locator    Locator
	Validation Validation
	Auth       Auth
}

type Database struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// Enabled сообщает, настроено ли подключение к БД.
// Без DB_HOST сканер работает без сохранения результатов.
func (d Database) Enabled() bool {
	return d.Host != ""
}

// DSN - строка подключения для gorm/pgx.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// URL - тот же адрес в виде postgres:// для golang-migrate.
func (d Database) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type OpenAI struct {
	KeyAI      string
	Model      string
	MaxTokens  int
	MaxEnrich  int
	CacheSize  int
	RatePerMin int
}

type Browser struct {
	Display      string
	Headless     bool
	UserDataDir  string
	BrowsersPath string
	Timeout      time.Duration
}

type Selenium struct {
	URL     string
	Browser string
}

type App struct {
	Host string
	Port string
	// AllowPrivateTargets разрешает HTTP API сканировать localhost и частные сети.
	AllowPrivateTargets bool
}

// Locator задаёт параметры генерации локаторов.
type Locator struct {
	TestIDAttributes []string
	Scope            string
	MinStability     string
	Frameworks       []string
	RulesFile        string
	Workers          int
}

type Validation struct {
	Workers     int
	Timeout     time.Duration
	AuthTimeout time.Duration
	Resolver    string
}

// Auth описывает аутентификацию перед валидацией: либо сохранённый
// storage state, либо сценарий логина.
type Auth struct {
	StorageState    string
	URL             string
	User            string
	Password        string
	UserSelector    string
	PassSelector    string
	SubmitSelector  string
	WaitSelector    string
	WaitURLContains string
}

// Configured сообщает, задан ли хоть какой-то способ аутентификации.
func (a Auth) Configured() bool {
	return a.StorageState != "" || a.URL != ""
}

// Rules - содержимое YAML-файла правил (LOCATOR_RULES_FILE).
type Rules struct {
	TestIDAttributes []string `yaml:"test_id_attributes"`
	Scope            string   `yaml:"scope"`
	MinStability     string   `yaml:"min_stability"`
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     env("DB_PORT", "5432"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAI{
			KeyAI:      os.Getenv("OPENAI_API_KEY"),
			Model:      env("OPENAI_MODEL", "gpt-4o"),
			MaxTokens:  envInt("OPENAI_MAX_TOKENS", 1500),
			MaxEnrich:  envInt("OPENAI_MAX_ENRICH", 20),
			CacheSize:  envInt("OPENAI_CACHE_SIZE", 256),
			RatePerMin: envInt("OPENAI_RPM", 60),
		},
		Browser: Browser{
			Display:      env("DISPLAY", ""),
			Headless:     envBoolDefault("PW_HEADLESS", true),
			UserDataDir:  env("PW_USER_DATA_DIR", ""),
			BrowsersPath: env("PLAYWRIGHT_BROWSERS_PATH", ""),
			Timeout:      envDuration("PW_TIMEOUT", 30*time.Second),
		},
		Selenium: Selenium{
			URL:     env("SELENIUM_URL", "http://localhost:4444/wd/hub"),
			Browser: env("SELENIUM_BROWSER", "chrome"),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
		App: App{
			Host:                env("APP_HOST", "0.0.0.0"),
			Port:                env("APP_PORT", "8080"),
			AllowPrivateTargets: envBool("APP_ALLOW_PRIVATE_TARGETS"),
		},
		Locator: Locator{
			TestIDAttributes: envList("LOCATOR_TEST_ID_ATTRS", []string{"data-test", "data-qa", "data-cy"}),
			Scope:            env("LOCATOR_SCOPE", "all"),
			MinStability:     env("LOCATOR_MIN_STABILITY", ""),
			Frameworks:       envList("LOCATOR_FRAMEWORKS", []string{"Playwright", "Selenium"}),
			RulesFile:        os.Getenv("LOCATOR_RULES_FILE"),
			Workers:          envInt("LOCATOR_WORKERS", 0),
		},
		Validation: Validation{
			Workers:     envInt("VALIDATE_WORKERS", 4),
			Timeout:     envDuration("VALIDATE_TIMEOUT", 10*time.Second),
			AuthTimeout: envDuration("AUTH_TIMEOUT", 30*time.Second),
			Resolver:    env("VALIDATE_RESOLVER", "playwright"),
		},
		Auth: Auth{
			StorageState:    os.Getenv("AUTH_STORAGE_STATE"),
			URL:             os.Getenv("AUTH_URL"),
			User:            os.Getenv("AUTH_USER"),
			Password:        os.Getenv("AUTH_PASS"),
			UserSelector:    os.Getenv("AUTH_USER_SELECTOR"),
			PassSelector:    os.Getenv("AUTH_PASS_SELECTOR"),
			SubmitSelector:  os.Getenv("AUTH_SUBMIT_SELECTOR"),
			WaitSelector:    os.Getenv("AUTH_WAIT_SELECTOR"),
			WaitURLContains: os.Getenv("AUTH_WAIT_URL_CONTAINS"),
		},
	}

	if cfg.Locator.RulesFile != "" {
		if err := cfg.applyRules(cfg.Locator.RulesFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyRules накладывает YAML-правила поверх значений из окружения.
func (c *Cfg) applyRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("чтение файла правил %s: %w", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return fmt.Errorf("разбор файла правил %s: %w", path, err)
	}

	if len(rules.TestIDAttributes) > 0 {
		c.Locator.TestIDAttributes = rules.TestIDAttributes
	}
	if rules.Scope != "" {
		c.Locator.Scope = rules.Scope
	}
	if rules.MinStability != "" {
		c.Locator.MinStability = rules.MinStability
	}
	return nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envBoolDefault(key string, defaultValue bool) bool {
	if os.Getenv(key) == "" {
		return defaultValue
	}
	return envBool(key)
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func envList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
