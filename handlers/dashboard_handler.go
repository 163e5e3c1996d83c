package handlers

import (
    "database/sql"
    "encoding/json"
    "fmt"
    "log"
    "net/http"

    "atlas_crimen/chatbot"
    "atlas_crimen/models"
)

// DashboardHandler serves aggregated views for the analytics frontend. Each
// endpoint reuses the chatbot aggregation routines, driven by query-string
// filters instead of the language model.
type DashboardHandler struct {
    DB *sql.DB
}

func NewDashboardHandler(db *sql.DB) *DashboardHandler {
    return &DashboardHandler{DB: db}
}

// queryParams lifts the supported query-string filters into a Params bag.
func queryParams(r *http.Request) chatbot.Params {
    p := chatbot.Params{}
    q := r.URL.Query()
    for _, key := range []string{"municipio", "categoria", "anio", "limite", "orden", "genero", "zona", "fecha_inicio", "fecha_fin"} {
        if v := q.Get(key); v != "" {
            p[key] = v
        }
    }
    return p.Normalize()
}

func (h *DashboardHandler) serve(w http.ResponseWriter, r *http.Request, intent string) {
    data := chatbot.Dispatch(r.Context(), h.DB, intent, queryParams(r))
    if errMsg, ok := data["error"].(string); ok {
        log.Printf("dashboard %s: %s", intent, errMsg)
        http.Error(w, errMsg, http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=300")
    if err := json.NewEncoder(w).Encode(data); err != nil {
        log.Printf("dashboard %s: error encoding response: %v", intent, err)
    }
}

// DelitosPorMunicipio returns the municipality ranking for the map view.
func (h *DashboardHandler) DelitosPorMunicipio(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentRanking)
}

// TasaPorMunicipio returns the per-100k rate ranking.
func (h *DashboardHandler) TasaPorMunicipio(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentRankingRate)
}

// PorAnio returns the annual trend series.
func (h *DashboardHandler) PorAnio(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentAnnualTrend)
}

// PorMes returns the month-of-year distribution.
func (h *DashboardHandler) PorMes(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentMonthly)
}

// PorGenero returns the gender distribution.
func (h *DashboardHandler) PorGenero(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentGender)
}

// PerfilVictimas returns the gender/age-group profile.
func (h *DashboardHandler) PerfilVictimas(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentVictimProfile)
}

// LluviaVsDelitos returns the rain/incident correlation view.
func (h *DashboardHandler) LluviaVsDelitos(w http.ResponseWriter, r *http.Request) {
    h.serve(w, r, chatbot.IntentRainCorrelation)
}

// Eventos lists the most recent raw incidents under the given filters,
// capped at 100 rows.
func (h *DashboardHandler) Eventos(w http.ResponseWriter, r *http.Request) {
    p := queryParams(r)

    args := []interface{}{}
    where := "1=1"
    if code, ok := chatbot.ResolveMunicipality(r.Context(), h.DB, p.String("municipio")); ok {
        args = append(args, code)
        where += fmt.Sprintf(" AND codigo_dane = $%d", len(args))
    }
    if year := p.Int("anio"); year != 0 {
        args = append(args, year)
        where += fmt.Sprintf(" AND EXTRACT(YEAR FROM fecha_hecho) = $%d", len(args))
    }
    if category := p.String("categoria"); category != "" {
        args = append(args, category)
        where += fmt.Sprintf(" AND UPPER(categoria_delito) = UPPER($%d)", len(args))
    }

    rows, err := h.DB.QueryContext(r.Context(), `
        SELECT id_evento, fecha_hecho::text, codigo_dane, categoria_delito,
               COALESCE(modalidad_especifica, ''), COALESCE(zona_hecho, ''),
               COALESCE(clase_sitio, ''), COALESCE(genero, ''),
               COALESCE(grupo_etario, ''), COALESCE(arma_medio, ''), cantidad
        FROM fact_seguridad
        WHERE `+where+`
        ORDER BY fecha_hecho DESC, id_evento DESC
        LIMIT 100`, args...)
    if err != nil {
        log.Printf("Eventos: database error: %v", err)
        http.Error(w, "Error consultando eventos", http.StatusInternalServerError)
        return
    }
    defer rows.Close()

    var events []models.Incident
    for rows.Next() {
        var e models.Incident
        if err := rows.Scan(&e.EventID, &e.Date, &e.DaneCode, &e.Category,
            &e.Modality, &e.Zone, &e.SiteClass, &e.Gender,
            &e.AgeGroup, &e.WeaponMeans, &e.Count); err != nil {
            log.Printf("Eventos: error scanning row: %v", err)
            continue
        }
        events = append(events, e)
    }
    if err := rows.Err(); err != nil {
        log.Printf("Eventos: error iterating rows: %v", err)
        http.Error(w, "Error procesando eventos", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=300")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "eventos": events,
        "total":   len(events),
    }); err != nil {
        log.Printf("Eventos: error encoding response: %v", err)
    }
}

// ClimaSerie returns the raw daily precipitation series for a municipality,
// optionally narrowed to one year.
func (h *DashboardHandler) ClimaSerie(w http.ResponseWriter, r *http.Request) {
    p := queryParams(r)

    code, ok := chatbot.ResolveMunicipality(r.Context(), h.DB, p.StringOr("municipio", "Bucaramanga"))
    if !ok {
        http.Error(w, "Municipio no encontrado", http.StatusNotFound)
        return
    }

    args := []interface{}{code}
    where := "codigo_dane = $1"
    if year := p.Int("anio"); year != 0 {
        args = append(args, year)
        where += fmt.Sprintf(" AND EXTRACT(YEAR FROM fecha) = $%d", len(args))
    }

    rows, err := h.DB.QueryContext(r.Context(), `
        SELECT codigo_dane, fecha::text, precipitacion_mm
        FROM fact_clima
        WHERE `+where+`
        ORDER BY fecha`, args...)
    if err != nil {
        log.Printf("ClimaSerie: database error: %v", err)
        http.Error(w, "Error consultando clima", http.StatusInternalServerError)
        return
    }
    defer rows.Close()

    var series []models.WeatherDay
    for rows.Next() {
        var d models.WeatherDay
        if err := rows.Scan(&d.DaneCode, &d.Date, &d.PrecipitationMM); err != nil {
            log.Printf("ClimaSerie: error scanning row: %v", err)
            continue
        }
        series = append(series, d)
    }
    if err := rows.Err(); err != nil {
        log.Printf("ClimaSerie: error iterating rows: %v", err)
        http.Error(w, "Error procesando clima", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "codigo_dane": code,
        "serie":       series,
        "total_dias":  len(series),
    }); err != nil {
        log.Printf("ClimaSerie: error encoding response: %v", err)
    }
}
