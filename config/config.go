package config

import (
    "os"
    "strconv"

    "gopkg.in/yaml.v3"
)

// FileConfig mirrors the optional atlas_crimen.yml config file.
// Environment variables always win over file values.
type FileConfig struct {
    Database struct {
        Host     string `yaml:"host"`
        Port     string `yaml:"port"`
        Name     string `yaml:"db_name"`
        User     string `yaml:"user"`
        Password string `yaml:"password"`
        SSLMode  string `yaml:"sslmode"`
    } `yaml:"database"`
    OpenAI struct {
        APIKey  string `yaml:"api_key"`
        Model   string `yaml:"model"`
        BaseURL string `yaml:"base_url"`
        Timeout int    `yaml:"timeout_seconds"`
    } `yaml:"openai"`
}

// LoadConfigFile reads atlas_crimen.yml if present and exports any values
// not already set in the environment. A missing file is not an error.
func LoadConfigFile(path string) error {
    data, err := os.ReadFile(path)
    if err != nil {
        if os.IsNotExist(err) {
            return nil
        }
        return err
    }

    var fc FileConfig
    if err := yaml.Unmarshal(data, &fc); err != nil {
        return err
    }

    setIfEmpty("DB_HOST", fc.Database.Host)
    setIfEmpty("DB_PORT", fc.Database.Port)
    setIfEmpty("DB_NAME", fc.Database.Name)
    setIfEmpty("DB_USER", fc.Database.User)
    setIfEmpty("DB_PASSWORD", fc.Database.Password)
    setIfEmpty("DB_SSL_MODE", fc.Database.SSLMode)
    setIfEmpty("OPENAI_API_KEY", fc.OpenAI.APIKey)
    setIfEmpty("OPENAI_MODEL", fc.OpenAI.Model)
    setIfEmpty("OPENAI_BASE_URL", fc.OpenAI.BaseURL)
    if fc.OpenAI.Timeout > 0 {
        setIfEmpty("OPENAI_TIMEOUT_SECONDS", strconv.Itoa(fc.OpenAI.Timeout))
    }
    return nil
}

func setIfEmpty(key, value string) {
    if value != "" && os.Getenv(key) == "" {
        os.Setenv(key, value)
    }
}

// Helper functions
func GetEnvWithDefault(key, defaultValue string) string {
    if value := os.Getenv(key); value != "" {
        return value
    }
    return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
    if value := os.Getenv(key); value != "" {
        if intValue, err := strconv.Atoi(value); err == nil {
            return intValue
        }
    }
    return defaultValue
}
