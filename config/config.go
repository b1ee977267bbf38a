package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"` // memory | mysql
	} `yaml:"storage"`
	MySQL struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Gemini struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		Model      string `yaml:"model"`
		FlashModel string `yaml:"flash_model"`
	} `yaml:"gemini"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
	} `yaml:"redis"`
	Queue struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"queue"`
	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		Domain    string `yaml:"domain"`
	} `yaml:"minio"`
}

var AppConfig *Config

func InitConfig() {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		log.Fatalf("配置文件读取失败: %v", err)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	AppConfig = &Config{}
	if err := decoder.Decode(AppConfig); err != nil {
		log.Fatalf("配置文件解析失败: %v", err)
	}

	// Gemini API key 优先读取环境变量（.env 由 main 加载）
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		AppConfig.Gemini.APIKey = v
	}
	if AppConfig.Gemini.BaseURL == "" {
		AppConfig.Gemini.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if AppConfig.Gemini.Model == "" {
		AppConfig.Gemini.Model = "gemini-2.5-pro"
	}
	if AppConfig.Gemini.FlashModel == "" {
		AppConfig.Gemini.FlashModel = "gemini-2.5-flash"
	}
	if AppConfig.Storage.Driver == "" {
		AppConfig.Storage.Driver = "memory"
	}
	if AppConfig.Queue.Concurrency <= 0 {
		AppConfig.Queue.Concurrency = 5
	}
}
