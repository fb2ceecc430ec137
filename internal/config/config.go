package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv        string `yaml:"app_env"`
	HTTPAddr      string `yaml:"http_addr"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	LLMProvider      string `yaml:"llm_provider"`
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	DefaultLLMModel  string `yaml:"default_llm_model"`
	FallbackLLMModel string `yaml:"fallback_llm_model"`

	BrowserHeadless bool `yaml:"browser_headless"`
	TaskMaxRetries  int  `yaml:"task_max_retries"`
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Load reads configuration from the environment. When CONFIG_FILE
// points at a YAML file, its values are applied first and environment
// variables override them.
func Load() Config {
	cfg := Config{
		AppEnv:        "development",
		HTTPAddr:      ":8081",
		RedisAddr:     "127.0.0.1:6379",
		MongoURI:      "mongodb://127.0.0.1:27017",
		MongoDatabase: "job_scraper",

		LLMProvider:      "gemini",
		DefaultLLMModel:  "gemini-1.5-flash",
		FallbackLLMModel: "gemini-1.5-pro",

		BrowserHeadless: true,
		TaskMaxRetries:  3,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			panic(fmt.Errorf("read config file %s: %w", path, err))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Errorf("parse config file %s: %w", path, err))
		}
	}

	cfg.AppEnv = getenv("APP_ENV", cfg.AppEnv)
	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RedisAddr = getenv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.MongoURI = getenv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getenv("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.LLMProvider = getenv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.GeminiAPIKey = getenv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.DefaultLLMModel = getenv("DEFAULT_LLM_MODEL", cfg.DefaultLLMModel)
	cfg.FallbackLLMModel = getenv("FALLBACK_LLM_MODEL", cfg.FallbackLLMModel)
	cfg.BrowserHeadless = getenvBool("BROWSER_HEADLESS", cfg.BrowserHeadless)
	cfg.TaskMaxRetries = getenvInt("TASK_MAX_RETRIES", cfg.TaskMaxRetries)

	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	if cfg.MongoURI == "" {
		panic(fmt.Errorf("MONGO_URI is required"))
	}
	return cfg
}
