package models

// Prediction is a pre-computed monthly crime forecast loaded from CSV.
type Prediction struct {
    DaneCode     int     `json:"codigo_dane"`
    Year         int     `json:"anio"`
    Month        int     `json:"mes"`
    TotalCrimes  float64 `json:"total_delitos"`
    IsPrediction bool    `json:"es_prediccion"`
}
