package handlers

import (
    "database/sql"
    "encoding/json"
    "log"
    "net/http"

    "atlas_crimen/chatbot"
    "atlas_crimen/models"
)

type FilterHandler struct {
    DB *sql.DB
}

func NewFilterHandler(db *sql.DB) *FilterHandler {
    return &FilterHandler{DB: db}
}

// Opciones returns every filter domain in one payload, for populating
// dashboard selectors.
func (h *FilterHandler) Opciones(w http.ResponseWriter, r *http.Request) {
    options, err := chatbot.GetFilterOptions(r.Context(), h.DB)
    if err != nil {
        log.Printf("Opciones: error fetching filter options: %v", err)
        http.Error(w, "Error consultando opciones de filtro", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(options); err != nil {
        log.Printf("Opciones: error encoding response: %v", err)
    }
}

// Municipios lists every municipality with its DANE code.
func (h *FilterHandler) Municipios(w http.ResponseWriter, r *http.Request) {
    rows, err := h.DB.QueryContext(r.Context(), `
        SELECT codigo_dane, nombre_municipio
        FROM master_municipios
        ORDER BY nombre_municipio`)
    if err != nil {
        log.Printf("Municipios: database error: %v", err)
        http.Error(w, "Error consultando municipios", http.StatusInternalServerError)
        return
    }
    defer rows.Close()

    var municipios []models.Municipality
    for rows.Next() {
        var m models.Municipality
        if err := rows.Scan(&m.DaneCode, &m.Name); err != nil {
            log.Printf("Municipios: error scanning row: %v", err)
            continue
        }
        municipios = append(municipios, m)
    }
    if err := rows.Err(); err != nil {
        log.Printf("Municipios: error iterating rows: %v", err)
        http.Error(w, "Error procesando municipios", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "municipios": municipios,
    }); err != nil {
        log.Printf("Municipios: error encoding response: %v", err)
    }
}

// Categorias lists the distinct crime categories.
func (h *FilterHandler) Categorias(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "categoria_delito", "categorias")
}

// Generos lists the distinct victim genders.
func (h *FilterHandler) Generos(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "genero", "generos")
}

// GruposEtarios lists the distinct age groups.
func (h *FilterHandler) GruposEtarios(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "grupo_etario", "grupos_etarios")
}

// Zonas lists the distinct zones (urban/rural).
func (h *FilterHandler) Zonas(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "zona_hecho", "zonas")
}

// ArmasMedios lists the distinct weapons/means.
func (h *FilterHandler) ArmasMedios(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "arma_medio", "armas_medios")
}

// Modalidades lists the distinct crime modalities.
func (h *FilterHandler) Modalidades(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "modalidad_especifica", "modalidades")
}

// ClasesSitio lists the distinct site classes.
func (h *FilterHandler) ClasesSitio(w http.ResponseWriter, r *http.Request) {
    h.distinctColumn(w, r, "clase_sitio", "clases_sitio")
}

// Anios lists the years with registered events.
func (h *FilterHandler) Anios(w http.ResponseWriter, r *http.Request) {
    rows, err := h.DB.QueryContext(r.Context(), `
        SELECT DISTINCT EXTRACT(YEAR FROM fecha_hecho)::int AS anio
        FROM fact_seguridad
        ORDER BY anio`)
    if err != nil {
        log.Printf("Anios: database error: %v", err)
        http.Error(w, "Error consultando años", http.StatusInternalServerError)
        return
    }
    defer rows.Close()

    var years []int
    for rows.Next() {
        var year int
        if err := rows.Scan(&year); err != nil {
            log.Printf("Anios: error scanning row: %v", err)
            continue
        }
        years = append(years, year)
    }
    if err := rows.Err(); err != nil {
        log.Printf("Anios: error iterating rows: %v", err)
        http.Error(w, "Error procesando años", http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "anios": years,
    }); err != nil {
        log.Printf("Anios: error encoding response: %v", err)
    }
}

func (h *FilterHandler) distinctColumn(w http.ResponseWriter, r *http.Request, column, key string) {
    rows, err := h.DB.QueryContext(r.Context(), `
        SELECT DISTINCT `+column+`
        FROM fact_seguridad
        WHERE `+column+` IS NOT NULL
        ORDER BY `+column)
    if err != nil {
        log.Printf("distinctColumn(%s): database error: %v", column, err)
        http.Error(w, "Error consultando "+key, http.StatusInternalServerError)
        return
    }
    defer rows.Close()

    var values []string
    for rows.Next() {
        var v string
        if err := rows.Scan(&v); err != nil {
            log.Printf("distinctColumn(%s): error scanning row: %v", column, err)
            continue
        }
        if v != "" {
            values = append(values, v)
        }
    }
    if err := rows.Err(); err != nil {
        log.Printf("distinctColumn(%s): error iterating rows: %v", column, err)
        http.Error(w, "Error procesando "+key, http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        key: values,
    }); err != nil {
        log.Printf("distinctColumn(%s): error encoding response: %v", column, err)
    }
}
