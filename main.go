package main

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/gorilla/mux"
    _ "github.com/lib/pq"
    "github.com/rs/cors"

    "atlas_crimen/chatbot"
    "atlas_crimen/config"
    "atlas_crimen/handlers"
    "atlas_crimen/middleware"
)

type HealthResponse struct {
    Status    string `json:"status"`
    DBStatus  string `json:"db_status"`
    DBDetails struct {
        Host     string   `json:"host"`
        Port     string   `json:"port"`
        Database string   `json:"database"`
        Tables   []string `json:"tables,omitempty"`
    } `json:"db_details"`
    Chatbot string `json:"chatbot"`
    Error   string `json:"error,omitempty"`
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
    response := HealthResponse{
        Status:  "ok",
        Chatbot: "ready",
    }

    if config.DB == nil {
        response.Status = "error"
        response.DBStatus = "not_initialized"
        response.Error = "Database connection not initialized"
    } else {
        if err := config.DB.Ping(); err != nil {
            response.Status = "error"
            response.DBStatus = "connection_error"
            response.Error = fmt.Sprintf("Database ping failed: %v", err)
        } else {
            response.DBStatus = "connected"

            response.DBDetails.Host = os.Getenv("DB_HOST")
            response.DBDetails.Port = os.Getenv("DB_PORT")
            response.DBDetails.Database = os.Getenv("DB_NAME")

            tables := []string{"fact_seguridad", "master_municipios", "master_demografia", "fact_clima"}
            var existingTables []string
            for _, table := range tables {
                var exists bool
                err := config.DB.QueryRow(`
                    SELECT EXISTS (
                        SELECT FROM information_schema.tables
                        WHERE table_name = $1
                    )`, table).Scan(&exists)
                if err == nil && exists {
                    existingTables = append(existingTables, table)
                }
            }
            response.DBDetails.Tables = existingTables
        }
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(response)
}

func main() {
    startTime := time.Now()
    log.Printf("Starting server initialization at %s", startTime.Format(time.RFC3339))

    if err := config.LoadEnv(); err != nil {
        log.Printf("Warning: Error loading .env file: %v", err)
    }
    if path := os.Getenv("ATLAS_CONFIG"); path != "" {
        if err := config.LoadConfigFile(path); err != nil {
            log.Fatalf("Failed to load config file %s: %v", path, err)
        }
    }

    port := config.GetEnvWithDefault("PORT", "8080")

    log.Println("Initializing PostgreSQL database...")
    if err := config.InitDBWithRetry(5); err != nil {
        log.Fatalf("Failed to initialize PostgreSQL: %v", err)
    }
    log.Println("PostgreSQL database initialized successfully")
    defer config.CloseDB()

    config.InitCache()

    if err := chatbot.ValidateRegistry(); err != nil {
        log.Fatalf("Invalid intent registry: %v", err)
    }

    llmConfig := chatbot.DefaultConfig()
    llmConfig.APIKey = os.Getenv("OPENAI_API_KEY")
    if model := os.Getenv("OPENAI_MODEL"); model != "" {
        llmConfig.Model = model
    }
    if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
        llmConfig.BaseURL = baseURL
    }
    llmConfig.Timeout = config.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", llmConfig.Timeout)

    generator, err := chatbot.NewOpenAIGenerator(llmConfig)
    if err != nil {
        log.Fatalf("Failed to initialize text generator: %v", err)
    }
    bot := chatbot.New(config.DB, generator)

    r := mux.NewRouter()

    corsHandler := cors.New(cors.Options{
        AllowedOrigins: []string{
            "http://localhost:3000",
            "http://localhost:5173",
            "http://localhost:8080",
            "http://127.0.0.1:3000",
        },
        AllowedMethods: []string{
            "GET", "POST", "OPTIONS",
        },
        AllowedHeaders: []string{
            "Accept",
            "Authorization",
            "Content-Type",
            "X-Requested-With",
            "Origin",
        },
        ExposedHeaders: []string{
            "Content-Length",
            "Content-Type",
        },
        AllowCredentials: false,
        MaxAge:           86400,
    })

    r.Use(corsHandler.Handler)
    r.Use(middleware.RecoveryMiddleware)
    r.Use(middleware.LoggingMiddleware)

    api := r.PathPrefix("/api/v1").Subrouter()
    registerRoutes(api, bot)
    log.Println("Routes registered successfully")

    api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        if err := config.CheckPostgresHealth(); err != nil {
            w.WriteHeader(http.StatusServiceUnavailable)
            json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
            return
        }
        json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
    }).Methods("GET")
    api.HandleFunc("/health/detailed", healthCheck).Methods("GET")

    srv := &http.Server{
        Handler:           r,
        Addr:              ":" + port,
        WriteTimeout:      60 * time.Second,
        ReadTimeout:       15 * time.Second,
        IdleTimeout:       60 * time.Second,
        ReadHeaderTimeout: 5 * time.Second,
        MaxHeaderBytes:    1 << 20,
    }

    serverErrors := make(chan error, 1)

    go func() {
        log.Printf("Starting server on port %s...", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Printf("Server error: %v", err)
            serverErrors <- err
        }
    }()

    stop := make(chan os.Signal, 1)
    signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

    select {
    case <-stop:
        log.Println("Shutdown signal received")
    case err := <-serverErrors:
        log.Printf("Server error received: %v", err)
    }

    log.Println("Shutting down server...")
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()

    if err := srv.Shutdown(ctx); err != nil {
        log.Printf("Error during server shutdown: %v", err)
    } else {
        log.Println("Server shutdown completed successfully")
    }
}

func registerRoutes(api *mux.Router, bot *chatbot.Chatbot) {
    // Chatbot routes
    chatbotHandler := handlers.NewChatbotHandler(config.DB, bot)
    api.HandleFunc("/chatbot/consultar", chatbotHandler.Consultar).Methods("POST")
    api.HandleFunc("/chatbot/sugerencias", chatbotHandler.Sugerencias).Methods("GET")
    api.HandleFunc("/chatbot/capacidades", chatbotHandler.Capacidades).Methods("GET")
    api.HandleFunc("/chatbot/estadisticas", chatbotHandler.Estadisticas).Methods("GET")

    // Filter routes
    filterHandler := handlers.NewFilterHandler(config.DB)
    api.HandleFunc("/filtros/opciones", filterHandler.Opciones).Methods("GET")
    api.HandleFunc("/filtros/municipios", filterHandler.Municipios).Methods("GET")
    api.HandleFunc("/filtros/categorias-delito", filterHandler.Categorias).Methods("GET")
    api.HandleFunc("/filtros/generos", filterHandler.Generos).Methods("GET")
    api.HandleFunc("/filtros/grupos-etarios", filterHandler.GruposEtarios).Methods("GET")
    api.HandleFunc("/filtros/zonas", filterHandler.Zonas).Methods("GET")
    api.HandleFunc("/filtros/armas-medios", filterHandler.ArmasMedios).Methods("GET")
    api.HandleFunc("/filtros/modalidades", filterHandler.Modalidades).Methods("GET")
    api.HandleFunc("/filtros/clases-sitio", filterHandler.ClasesSitio).Methods("GET")
    api.HandleFunc("/filtros/anios", filterHandler.Anios).Methods("GET")

    // Dashboard routes
    dashboardHandler := handlers.NewDashboardHandler(config.DB)
    api.HandleFunc("/geografia/delitos-por-municipio", dashboardHandler.DelitosPorMunicipio).Methods("GET")
    api.HandleFunc("/geografia/tasa-por-municipio", dashboardHandler.TasaPorMunicipio).Methods("GET")
    api.HandleFunc("/geografia/eventos-recientes", dashboardHandler.Eventos).Methods("GET")
    api.HandleFunc("/temporal/por-anio", dashboardHandler.PorAnio).Methods("GET")
    api.HandleFunc("/temporal/por-mes", dashboardHandler.PorMes).Methods("GET")
    api.HandleFunc("/victimas/por-genero", dashboardHandler.PorGenero).Methods("GET")
    api.HandleFunc("/victimas/perfil", dashboardHandler.PerfilVictimas).Methods("GET")
    api.HandleFunc("/clima/lluvia-vs-delitos", dashboardHandler.LluviaVsDelitos).Methods("GET")
    api.HandleFunc("/clima/serie-precipitacion", dashboardHandler.ClimaSerie).Methods("GET")

    // Prediction routes
    predictionHandler := handlers.NewPredictionHandler("")
    api.HandleFunc("/predicciones/municipio/{codigo_dane}", predictionHandler.PorMunicipio).Methods("GET")
}
