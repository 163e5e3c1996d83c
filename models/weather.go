package models

// WeatherDay is a row of fact_clima: daily precipitation per municipality.
// 0 mm means a dry day; coverage is 2005-2019 and not guaranteed for every
// municipality/date pair.
type WeatherDay struct {
    DaneCode        int     `json:"codigo_dane"`
    Date            string  `json:"fecha"`
    PrecipitationMM float64 `json:"precipitacion_mm"`
}
