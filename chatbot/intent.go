package chatbot

import (
    "strconv"
    "strings"
)

// Intent tags form the closed catalogue of supported questions. The wire
// labels are the Spanish names the model is instructed to return.
const (
    IntentGeneralStats      = "estadisticas_generales"
    IntentMunicipality      = "municipio"
    IntentRanking           = "ranking"
    IntentRankingRate       = "ranking_tasa"
    IntentCompareMunicipios = "comparar_municipios"
    IntentNearbyMunicipios  = "municipios_cercanos"
    IntentAnnualTrend       = "tendencia_anual"
    IntentMonthly           = "datos_mes"
    IntentWeekday           = "dia_semana"
    IntentHourly            = "horario"
    IntentDateRange         = "rango_fechas"
    IntentSpecificDate      = "fecha_especifica"
    IntentPeriodComparison  = "comparativa_periodos"
    IntentGender            = "genero"
    IntentAgeGroup          = "grupo_etario"
    IntentZone              = "zona"
    IntentVictimProfile     = "perfil_victima"
    IntentGenderByYear      = "genero_por_anio"
    IntentVulnerability     = "vulnerabilidad"
    IntentCategory          = "categoria"
    IntentModality          = "modalidad"
    IntentWeapon            = "arma_medio"
    IntentSiteClass         = "clase_sitio"
    IntentRankingCategories = "ranking_categorias"
    IntentRankingModalities = "ranking_modalidades"
    IntentRankingWeapons    = "ranking_armas"
    IntentRankingSites      = "ranking_sitios"
    IntentCompareCategories = "comparar_categorias"
    IntentRainCorrelation   = "correlacion_clima"
    IntentRainLevels        = "clima_precipitacion"
    IntentWeatherSummary    = "resumen_clima"
    IntentMonthlyWeather    = "clima_mensual"
)

// FallbackIntent is used whenever classification cannot confidently produce
// a specific intent.
const FallbackIntent = IntentGeneralStats

// IntentCatalogue lists every recognized intent tag. The dispatcher registry
// is validated against it at startup.
var IntentCatalogue = []string{
    IntentGeneralStats,
    IntentMunicipality,
    IntentRanking,
    IntentRankingRate,
    IntentCompareMunicipios,
    IntentNearbyMunicipios,
    IntentAnnualTrend,
    IntentMonthly,
    IntentWeekday,
    IntentHourly,
    IntentDateRange,
    IntentSpecificDate,
    IntentPeriodComparison,
    IntentGender,
    IntentAgeGroup,
    IntentZone,
    IntentVictimProfile,
    IntentGenderByYear,
    IntentVulnerability,
    IntentCategory,
    IntentModality,
    IntentWeapon,
    IntentSiteClass,
    IntentRankingCategories,
    IntentRankingModalities,
    IntentRankingWeapons,
    IntentRankingSites,
    IntentCompareCategories,
    IntentRainCorrelation,
    IntentRainLevels,
    IntentWeatherSummary,
    IntentMonthlyWeather,
}

// Params is the typed-by-convention parameter bag attached to an intent.
// Values arrive from JSON, so numbers are float64 and lists are []interface{}.
type Params map[string]interface{}

// Result is the loosely structured aggregation output. Every routine fills
// it with enough context for the composer to state "no data" when empty.
type Result map[string]interface{}

// placeholder strings the model emits instead of omitting a parameter
var nullPlaceholders = map[string]bool{
    "null":    true,
    "none":    true,
    "":        true,
    "ninguno": true,
    "todos":   true,
}

// Normalize drops placeholder null markers so downstream code can treat a
// missing key as the only "no filter" signal.
func (p Params) Normalize() Params {
    clean := Params{}
    for k, v := range p {
        if v == nil {
            continue
        }
        if s, ok := v.(string); ok {
            if nullPlaceholders[strings.ToLower(strings.TrimSpace(s))] {
                continue
            }
        }
        clean[k] = v
    }
    return clean
}

// String returns the named parameter as a trimmed string, "" when absent.
func (p Params) String(key string) string {
    v, ok := p[key]
    if !ok || v == nil {
        return ""
    }
    if s, ok := v.(string); ok {
        return strings.TrimSpace(s)
    }
    return ""
}

// StringOr returns the named parameter or a default when absent.
func (p Params) StringOr(key, def string) string {
    if s := p.String(key); s != "" {
        return s
    }
    return def
}

// Int returns the named parameter as an int, 0 when absent or unparseable.
// JSON numbers decode as float64; the model sometimes quotes them.
func (p Params) Int(key string) int {
    v, ok := p[key]
    if !ok || v == nil {
        return 0
    }
    switch n := v.(type) {
    case float64:
        return int(n)
    case int:
        return n
    case string:
        if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
            return i
        }
    }
    return 0
}

// IntOr returns the named parameter or a default when absent/zero.
func (p Params) IntOr(key string, def int) int {
    if n := p.Int(key); n != 0 {
        return n
    }
    return def
}

// StringList returns the named parameter as a list of strings.
func (p Params) StringList(key string) []string {
    v, ok := p[key]
    if !ok || v == nil {
        return nil
    }
    var out []string
    switch list := v.(type) {
    case []interface{}:
        for _, item := range list {
            if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
                out = append(out, strings.TrimSpace(s))
            }
        }
    case []string:
        for _, s := range list {
            if strings.TrimSpace(s) != "" {
                out = append(out, strings.TrimSpace(s))
            }
        }
    case string:
        if strings.TrimSpace(list) != "" {
            out = append(out, strings.TrimSpace(list))
        }
    }
    return out
}
