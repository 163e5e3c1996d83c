package models

// Incident mirrors a row of fact_seguridad, the unified crime-event fact table.
type Incident struct {
    EventID      int64   `json:"id_evento"`
    Date         string  `json:"fecha_hecho"`
    DaneCode     int     `json:"codigo_dane"`
    Category     string  `json:"categoria_delito"`
    Modality     string  `json:"modalidad_especifica,omitempty"`
    Zone         string  `json:"zona_hecho,omitempty"`
    SiteClass    string  `json:"clase_sitio,omitempty"`
    Gender       string  `json:"genero,omitempty"`
    AgeGroup     string  `json:"grupo_etario,omitempty"`
    WeaponMeans  string  `json:"arma_medio,omitempty"`
    Count        int     `json:"cantidad"`
    Latitude     float64 `json:"latitud,omitempty"`
    Longitude    float64 `json:"longitud,omitempty"`
}
