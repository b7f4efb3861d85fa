package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	JWTSecret     string

	// 图书检索 API（Google Books 兼容接口）
	BooksAPIBaseURL string
	BooksAPIKey     string

	DefaultCycleDays  int // 新俱乐部默认的阅读周期天数
	DefaultMaxMembers int // 新俱乐部默认的成员上限
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	defaultCycleDays, _ := strconv.Atoi(getEnv("DEFAULT_CYCLE_DAYS", "30"))
	defaultMaxMembers, _ := strconv.Atoi(getEnv("DEFAULT_MAX_MEMBERS", "50"))

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		JWTSecret:         os.Getenv("JWT_SECRET"),
		BooksAPIBaseURL:   getEnv("BOOKS_API_URL", "https://www.googleapis.com/books/v1"),
		BooksAPIKey:       os.Getenv("BOOKS_API_KEY"),
		DefaultCycleDays:  defaultCycleDays,
		DefaultMaxMembers: defaultMaxMembers,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
