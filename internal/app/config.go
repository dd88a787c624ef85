package app

import (
	"strings"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/utils"
)

type Config struct {
	ServiceName  string
	Environment  string
	Version      string
	Addr         string
	AllowOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	origins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		ServiceName:  utils.GetEnv("SERVICE_NAME", "mentorme-backend", log),
		Environment:  utils.GetEnv("APP_ENV", "development", log),
		Version:      utils.GetEnv("APP_VERSION", "dev", log),
		Addr:         utils.GetEnv("HTTP_ADDR", ":8080", log),
		AllowOrigins: origins,
	}
}
