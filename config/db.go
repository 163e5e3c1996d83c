package config

import (
    "bufio"
    "context"
    "database/sql"
    "fmt"
    "log"
    "os"
    "strings"
    "time"

    _ "github.com/lib/pq"
)

var DB *sql.DB

// LoadEnv loads environment variables from a .env file
func LoadEnv() error {
    // Try multiple possible locations for .env file
    possiblePaths := []string{
        ".env",                  // Current directory
        "../.env",               // Parent directory
        os.Getenv("ATLAS_ENV"),  // Environment-specified path
    }

    var loadedFile string

    for _, path := range possiblePaths {
        if path == "" {
            continue
        }
        if _, err := os.Stat(path); err == nil {
            loadedFile = path
            log.Printf("Found .env file at: %s", path)
            break
        }
    }

    if loadedFile == "" {
        // No .env file is fine when the database host is already configured
        if os.Getenv("DB_HOST") != "" {
            return nil
        }
        return fmt.Errorf("no .env file found and DB_HOST not set in environment")
    }

    file, err := os.Open(loadedFile)
    if err != nil {
        return fmt.Errorf("error opening .env file: %v", err)
    }
    defer file.Close()

    log.Printf("Loading environment variables from %s", loadedFile)
    scanner := bufio.NewScanner(file)
    for scanner.Scan() {
        line := scanner.Text()
        if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
            continue
        }
        parts := strings.SplitN(line, "=", 2)
        if len(parts) != 2 {
            continue
        }
        key := strings.TrimSpace(parts[0])
        value := strings.TrimSpace(parts[1])
        value = strings.Trim(value, `"'`)
        os.Setenv(key, value)
        lower := strings.ToLower(key)
        if !strings.Contains(lower, "password") && !strings.Contains(lower, "key") {
            log.Printf("Set environment variable: %s", key)
        }
    }

    return scanner.Err()
}

// InitDBWithRetry attempts to connect to PostgreSQL with retries
func InitDBWithRetry(maxRetries int) error {
    var err error
    for i := 0; i < maxRetries; i++ {
        err = InitDB()
        if err == nil {
            return nil
        }
        log.Printf("Failed to connect to PostgreSQL (attempt %d/%d): %v", i+1, maxRetries, err)
        time.Sleep(5 * time.Second)
    }
    return fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err)
}

func InitDB() error {
    host := GetEnvWithDefault("DB_HOST", "localhost")
    port := GetEnvWithDefault("DB_PORT", "5432")
    user := GetEnvWithDefault("DB_USER", "admin-santander")
    password := os.Getenv("DB_PASSWORD")
    dbname := GetEnvWithDefault("DB_NAME", "santander")
    sslmode := GetEnvWithDefault("DB_SSL_MODE", "disable")

    log.Printf("DB Host: %s", host)
    log.Printf("DB Port: %s", port)
    log.Printf("DB Name: %s", dbname)
    log.Printf("DB User: %s", user)
    log.Printf("SSL Mode: %s", sslmode)

    connStr := fmt.Sprintf(
        "host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
        host, port, user, password, dbname, sslmode)

    var err error
    DB, err = sql.Open("postgres", connStr)
    if err != nil {
        return fmt.Errorf("error opening PostgreSQL database: %v", err)
    }

    // Set connection pool settings
    DB.SetMaxOpenConns(25)
    DB.SetMaxIdleConns(5)
    DB.SetConnMaxLifetime(5 * time.Minute)

    // Verify connection with timeout
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if err = DB.PingContext(ctx); err != nil {
        return fmt.Errorf("error connecting to PostgreSQL database: %v", err)
    }

    log.Printf("Successfully connected to PostgreSQL database: %s", dbname)

    // Verify the fact table exists
    var tableExists bool
    err = DB.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = 'fact_seguridad'
        )`).Scan(&tableExists)

    if err != nil {
        return fmt.Errorf("error checking fact_seguridad table: %v", err)
    }

    if !tableExists {
        return fmt.Errorf("fact_seguridad table does not exist in the database")
    }

    log.Printf("Verified fact_seguridad table exists")
    return nil
}

func CheckPostgresHealth() error {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    if err := DB.PingContext(ctx); err != nil {
        return fmt.Errorf("PostgreSQL health check failed: %v", err)
    }
    return nil
}

// Graceful shutdown
func CloseDB() {
    if DB != nil {
        if err := DB.Close(); err != nil {
            log.Printf("Error closing PostgreSQL connection: %v", err)
        }
    }
}
