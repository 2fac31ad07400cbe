package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Политики кэша описаний.
const (
	CachePolicyPresence    = "presence"     // наличие файла = попадание в кэш
	CachePolicyContentHash = "content_hash" // плюс совпадение хэша набора фото
)

// AppConfig - корневая структура конфигурации.
// Зеркалит структуру config.yaml.
type AppConfig struct {
	Models          ModelsConfig    `yaml:"models"`
	ImageProcessing ImageProcConfig `yaml:"image_processing"`
	Inventory       InventoryConfig `yaml:"inventory"`
	Prompt          PromptConfig    `yaml:"prompt"`
	S3              S3Config        `yaml:"s3"`
	App             AppSpecific     `yaml:"app"`
}

// ModelsConfig - настройки AI моделей.
type ModelsConfig struct {
	DefaultVision string              `yaml:"default_vision"` // Алиас по умолчанию (например, "gpt-4o")
	Definitions   map[string]ModelDef `yaml:"definitions"`    // Словарь определений моделей
}

// ModelDef - параметры конкретной модели.
type ModelDef struct {
	Provider    string        `yaml:"provider"`   // "openai" или любой OpenAI-совместимый
	ModelName   string        `yaml:"model_name"` // Реальное имя в API
	APIKey      string        `yaml:"api_key"`    // Поддерживает ${VAR}
	BaseURL     string        `yaml:"base_url"`   // Пусто = api.openai.com
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // "60s", "2m"; 0 = без таймаута
}

// ImageProcConfig - настройки обработки изображений перед отправкой.
type ImageProcConfig struct {
	MaxWidth int `yaml:"max_width"` // 0 = отправлять файл как есть
	Quality  int `yaml:"quality"`
}

// InventoryConfig - раскладка файлов и поведение прогона.
type InventoryConfig struct {
	DataDir             string `yaml:"data_dir"`              // Корень с папками вещей
	OutputCSV           string `yaml:"output_csv"`            // Итоговая таблица
	DescriptionFile     string `yaml:"description_file"`      // Имя кэш-файла внутри папки
	LastDescriptionFile string `yaml:"last_description_file"` // Последний ответ модели в cwd; "-" отключает
	CachePolicy         string `yaml:"cache_policy"`          // presence | content_hash
	FailFast            bool   `yaml:"fail_fast"`             // Остановить прогон на первой ошибке API
	RequireImages       *bool  `yaml:"require_images"`        // Не звать API, если ни одно фото не закодировалось
}

// PromptConfig - где лежит YAML с промптом. Пусто = встроенный промпт.
type PromptConfig struct {
	Path string `yaml:"path"`
}

// S3Config - настройки объектного хранилища для публикации результатов.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// Enabled сообщает, настроена ли публикация в S3.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.Endpoint != ""
}

// AppSpecific - общие настройки приложения.
type AppSpecific struct {
	Debug  bool   `yaml:"debug"`
	LogDir string `yaml:"log_dir"`
}

// Default возвращает конфигурацию, с которой утилита работает без config.yaml:
// gpt-4o, data/, clothing_inventory.csv, description.txt.
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load подгружает .env, читает YAML файл, подставляет ENV переменные,
// заполняет дефолты и валидирует результат.
func Load(path string) (*AppConfig, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из окружения (и .env)
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault грузит path, если он задан, иначе - Default() поверх .env.
func LoadOrDefault(path string) (*AppConfig, error) {
	if path == "" {
		if err := loadDotEnv(""); err != nil {
			return nil, err
		}
		return Default(), nil
	}
	return Load(path)
}

// loadDotEnv читает .env из текущей директории и рядом с конфигом.
// Отсутствие файла - не ошибка, битый файл - ошибка;
// уже выставленные переменные не перетираются.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return fmt.Errorf("failed to load %s: %w", p, err)
			}
		}
	}
	return nil
}

// applyDefaults заполняет незаданные поля.
func (c *AppConfig) applyDefaults() {
	if c.Models.Definitions == nil {
		c.Models.Definitions = map[string]ModelDef{}
	}
	if c.Models.DefaultVision == "" {
		c.Models.DefaultVision = "gpt-4o"
	}
	if _, ok := c.Models.Definitions[c.Models.DefaultVision]; !ok && len(c.Models.Definitions) == 0 {
		c.Models.Definitions[c.Models.DefaultVision] = ModelDef{Provider: "openai"}
	}
	for name, def := range c.Models.Definitions {
		if def.ModelName == "" {
			def.ModelName = name
		}
		if def.MaxTokens == 0 {
			def.MaxTokens = 1000
		}
		if def.APIKey == "" {
			def.APIKey = apiKeyFromEnv()
		}
		c.Models.Definitions[name] = def
	}

	if c.ImageProcessing.Quality == 0 {
		c.ImageProcessing.Quality = 85
	}

	inv := &c.Inventory
	if inv.DataDir == "" {
		inv.DataDir = "data"
	}
	if inv.OutputCSV == "" {
		inv.OutputCSV = "clothing_inventory.csv"
	}
	if inv.DescriptionFile == "" {
		inv.DescriptionFile = "description.txt"
	}
	if inv.LastDescriptionFile == "" {
		inv.LastDescriptionFile = "description.txt"
	}
	if inv.CachePolicy == "" {
		inv.CachePolicy = CachePolicyPresence
	}
	if inv.RequireImages == nil {
		require := true
		inv.RequireImages = &require
	}
}

// apiKeyFromEnv - OPENAI_API_KEY, затем API_KEY (оба имени встречаются в .env).
func apiKeyFromEnv() string {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("API_KEY")
}

// validate проверяет согласованность настроек.
//
// Отсутствие API ключа здесь не ошибка: запрос к модели упадёт позже,
// при первом реальном вызове.
func (c *AppConfig) validate() error {
	if _, ok := c.Models.Definitions[c.Models.DefaultVision]; !ok {
		return fmt.Errorf("default_vision model '%s' is not defined in definitions", c.Models.DefaultVision)
	}
	switch c.Inventory.CachePolicy {
	case CachePolicyPresence, CachePolicyContentHash:
	default:
		return fmt.Errorf("inventory.cache_policy must be %q or %q, got %q",
			CachePolicyPresence, CachePolicyContentHash, c.Inventory.CachePolicy)
	}
	if c.ImageProcessing.MaxWidth < 0 {
		return fmt.Errorf("image_processing.max_width must be >= 0")
	}
	if c.S3.Bucket != "" && c.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required when s3.bucket is set")
	}
	return nil
}

// GetVisionModel возвращает конфигурацию модели по умолчанию или по имени.
func (c *AppConfig) GetVisionModel(name string) (ModelDef, bool) {
	if name == "" {
		name = c.Models.DefaultVision
	}
	m, ok := c.Models.Definitions[name]
	return m, ok
}

// LastDescriptionPath возвращает путь для файла последнего ответа или "" если отключено.
func (c *AppConfig) LastDescriptionPath() string {
	if c.Inventory.LastDescriptionFile == "-" {
		return ""
	}
	return c.Inventory.LastDescriptionFile
}

// RequireImagesEnabled разворачивает указатель с дефолтом true.
func (c *AppConfig) RequireImagesEnabled() bool {
	return c.Inventory.RequireImages == nil || *c.Inventory.RequireImages
}
