package handlers

import (
    "database/sql"
    "encoding/json"
    "log"
    "net/http"
    "strings"

    "atlas_crimen/chatbot"
)

type ChatbotHandler struct {
    DB  *sql.DB
    Bot *chatbot.Chatbot
}

func NewChatbotHandler(db *sql.DB, bot *chatbot.Chatbot) *ChatbotHandler {
    return &ChatbotHandler{DB: db, Bot: bot}
}

type questionRequest struct {
    Question string `json:"pregunta"`
}

// Consultar answers a natural-language question about the crime dataset.
func (h *ChatbotHandler) Consultar(w http.ResponseWriter, r *http.Request) {
    var req questionRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        log.Printf("Consultar: invalid request body: %v", err)
        http.Error(w, "Cuerpo de la petición inválido", http.StatusBadRequest)
        return
    }

    question := strings.TrimSpace(req.Question)
    if question == "" {
        http.Error(w, "La pregunta no puede estar vacía", http.StatusBadRequest)
        return
    }

    log.Printf("Consultar: pregunta recibida: %q", question)
    answer := h.Bot.Ask(r.Context(), question)
    log.Printf("Consultar: intent=%s error=%s", answer.QueryType, answer.ErrorKind)

    w.Header().Set("Content-Type", "application/json")
    if err := json.NewEncoder(w).Encode(answer); err != nil {
        log.Printf("Consultar: error encoding response: %v", err)
    }
}

// Sugerencias returns example questions grouped by topic, one per intent
// family, so frontends can offer starting points.
func (h *ChatbotHandler) Sugerencias(w http.ResponseWriter, r *http.Request) {
    suggestions := map[string][]string{
        "general": {
            "¿Cuántos delitos se han registrado en Santander?",
            "Dame un resumen general de la criminalidad",
        },
        "geografia": {
            "¿Cuántos hurtos hubo en Bucaramanga en 2023?",
            "¿Cuáles son los 10 municipios con más delitos?",
            "¿Qué municipios tienen la mayor tasa de delitos por habitante?",
            "Compara Bucaramanga y Floridablanca",
            "¿Qué pasa en los municipios cercanos a Girón?",
        },
        "tiempo": {
            "¿Cómo ha evolucionado el delito año a año?",
            "¿Qué día de la semana ocurren más delitos?",
            "¿A qué hora ocurren más hurtos?",
            "Compara 2023 contra 2024",
        },
        "victimas": {
            "¿Qué género es más afectado por los delitos?",
            "¿Cuál es el grupo de edad más victimizado?",
            "¿Hay más delitos en zona urbana o rural?",
        },
        "delitos": {
            "¿Cuáles son las modalidades de hurto más comunes?",
            "¿Qué armas se usan más en los delitos?",
            "Compara hurto y extorsión",
        },
        "clima": {
            "¿Llueven más delitos cuando llueve en Bucaramanga?",
            "¿Cuánto llueve al mes en Piedecuesta?",
        },
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "sugerencias": suggestions,
    }); err != nil {
        log.Printf("Sugerencias: error encoding response: %v", err)
    }
}

// Capacidades describes the closed catalogue of supported query types.
func (h *ChatbotHandler) Capacidades(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "total_consultas": len(chatbot.IntentCatalogue),
        "consultas":       chatbot.IntentCatalogue,
        "descripcion":     "Consultas soportadas sobre delitos en Santander: estadísticas, rankings, tendencias, perfiles de víctima y clima.",
    }); err != nil {
        log.Printf("Capacidades: error encoding response: %v", err)
    }
}

// Estadisticas exposes the general dataset summary without going through
// the language model.
func (h *ChatbotHandler) Estadisticas(w http.ResponseWriter, r *http.Request) {
    data := chatbot.Dispatch(r.Context(), h.DB, chatbot.IntentGeneralStats, chatbot.Params{})
    if errMsg, ok := data["error"].(string); ok {
        log.Printf("Estadisticas: %s", errMsg)
        http.Error(w, "Error consultando estadísticas", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=300")
    if err := json.NewEncoder(w).Encode(data); err != nil {
        log.Printf("Estadisticas: error encoding response: %v", err)
    }
}
