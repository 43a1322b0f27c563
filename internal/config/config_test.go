package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		viper.Reset()
		chdir(t, t.TempDir())

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.AppPort)
		assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
		assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
		assert.Equal(t, AuthDev, cfg.AuthMode)
		assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
		assert.Equal(t, 5000, cfg.MaxDocumentChars)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		viper.Reset()
		chdir(t, t.TempDir())
		t.Setenv("LLM_PROVIDER", "ollama")
		t.Setenv("OLLAMA_MODEL", "qwen")
		t.Setenv("LLM_TIMEOUT", "5s")
		t.Setenv("AUTH_MODE", "anonymous")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, cfg.LLMProvider)
		assert.Equal(t, "qwen", cfg.OllamaModel)
		assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
		assert.Equal(t, AuthAnonymous, cfg.AuthMode)
	})

	t.Run("External auth needs a userinfo URL", func(t *testing.T) {
		viper.Reset()
		chdir(t, t.TempDir())
		t.Setenv("AUTH_MODE", "external")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "AUTH_USERINFO_URL")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		LLMProvider:      ProviderOpenAI,
		OpenAIModel:      "gpt-4o-mini",
		AuthMode:         AuthAnonymous,
		MaxUploadBytes:   1,
		MaxDocumentChars: 1,
	}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.LLMProvider = "bedrock"
	assert.ErrorContains(t, bad.Validate(), "unknown LLM_PROVIDER")

	bad = valid
	bad.MaxDocumentChars = 0
	assert.Error(t, bad.Validate())
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
