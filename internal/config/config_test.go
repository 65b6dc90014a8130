package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 10000, cfg.MaxWSConnections)
	assert.Equal(t, 4096, cfg.WSMaxMessageSize)
	assert.Equal(t, "*", cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Tutor.BaseURL)
	assert.NotEmpty(t, cfg.DatabaseURL())
	assert.Equal(t, 20, cfg.DBMaxConnections())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("DATABASE_URL", "postgres://x:y@dbhost:5432/app")
	t.Setenv("DB_MAX_CONNECTIONS", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("MAX_WS_CONNECTIONS", "123")
	t.Setenv("TEACHER_ACCESS_PASSWORD", "open-sesame")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "postgres://x:y@dbhost:5432/app", cfg.DatabaseURL())
	assert.Equal(t, 7, cfg.DBMaxConnections())
	assert.Equal(t, "https://app.example.com", cfg.CORSAllowedOrigins)
	assert.Equal(t, 123, cfg.MaxWSConnections)
	assert.Equal(t, "open-sesame", cfg.TeacherAccessPassword)
}

func TestModerationDenylistFromEnv(t *testing.T) {
	t.Setenv("MODERATION_DENYLIST", "badword, spam , ,cheat")

	cfg := Load()

	assert.Equal(t, []string{"badword", "spam", "cheat"}, cfg.ModerationDenylist)
}

func TestEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("DB_MAX_CONNECTIONS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 20, cfg.DBMaxConnections())
}
