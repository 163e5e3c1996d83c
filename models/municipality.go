package models

// Municipality is a row of master_municipios, the geographic dimension.
// DaneCode is the official five-digit DANE identifier.
type Municipality struct {
    DaneCode int    `json:"codigo_dane"`
    Name     string `json:"nombre_municipio"`
    Category string `json:"categoria,omitempty"` // PREDOMINANTEMENTE RURAL / URBANA
}

// Demography is a row of master_demografia, the population dimension used
// as the denominator for per-100,000-inhabitant rates.
type Demography struct {
    DaneCode        int `json:"codigo_dane"`
    Year            int `json:"anio"`
    TotalPopulation int `json:"poblacion_total"`
    RuralPopulation int `json:"poblacion_rural"`
    UrbanPopulation int `json:"poblacion_cabecera"`
}
