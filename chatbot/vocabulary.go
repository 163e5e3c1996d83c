package chatbot

import (
    "context"
    "database/sql"
    "log"
    "strconv"
    "strings"
)

// Caps applied to the free-text domains so the interpretation prompt stays
// within a reasonable size.
const maxPromptDomainValues = 20

// FilterOptions is the live vocabulary: the distinct filter values currently
// present in the fact store. It is queried fresh on every call, never cached.
type FilterOptions struct {
    Categories     []string `json:"categorias_delito"`
    Genders        []string `json:"generos"`
    AgeGroups      []string `json:"grupos_etarios"`
    Zones          []string `json:"zonas"`
    Weapons        []string `json:"armas_medios"`
    Modalities     []string `json:"modalidades"`
    SiteClasses    []string `json:"clases_sitio"`
    Years          []int    `json:"anios"`
    Municipalities []string `json:"municipios"`
}

// ResolveMunicipality maps free text naming a municipality to its DANE code.
// Resolution order: case-insensitive exact match, then substring match taking
// the first result by name ascending. Blank input and no-match both return
// ok=false; callers treat that as "no filter", never as an error.
func ResolveMunicipality(ctx context.Context, db *sql.DB, name string) (int, bool) {
    name = strings.TrimSpace(name)
    if name == "" {
        return 0, false
    }

    var code int
    err := db.QueryRowContext(ctx, `
        SELECT codigo_dane FROM master_municipios
        WHERE nombre_municipio ILIKE $1
        ORDER BY nombre_municipio
        LIMIT 1`, name).Scan(&code)
    if err == nil {
        return code, true
    }
    if err != sql.ErrNoRows {
        log.Printf("ResolveMunicipality: exact lookup failed for %q: %v", name, err)
        return 0, false
    }

    err = db.QueryRowContext(ctx, `
        SELECT codigo_dane FROM master_municipios
        WHERE nombre_municipio ILIKE $1
        ORDER BY nombre_municipio
        LIMIT 1`, "%"+name+"%").Scan(&code)
    if err != nil {
        if err != sql.ErrNoRows {
            log.Printf("ResolveMunicipality: partial lookup failed for %q: %v", name, err)
        }
        return 0, false
    }
    return code, true
}

// MunicipalityName returns the canonical name for a DANE code, or the code
// itself as text when the dimension row is missing.
func MunicipalityName(ctx context.Context, db *sql.DB, code int) string {
    var name string
    err := db.QueryRowContext(ctx, `
        SELECT nombre_municipio FROM master_municipios
        WHERE codigo_dane = $1`, code).Scan(&name)
    if err != nil {
        return strconv.Itoa(code)
    }
    return name
}

// GetFilterOptions queries the current enumerated domains from the store.
func GetFilterOptions(ctx context.Context, db *sql.DB) (*FilterOptions, error) {
    opts := &FilterOptions{}

    var err error
    if opts.Categories, err = distinctValues(ctx, db, "categoria_delito", 0); err != nil {
        return nil, err
    }
    if opts.Genders, err = distinctValues(ctx, db, "genero", 0); err != nil {
        return nil, err
    }
    if opts.AgeGroups, err = distinctValues(ctx, db, "grupo_etario", 0); err != nil {
        return nil, err
    }
    if opts.Zones, err = distinctValues(ctx, db, "zona_hecho", 0); err != nil {
        return nil, err
    }
    if opts.Weapons, err = distinctValues(ctx, db, "arma_medio", 0); err != nil {
        return nil, err
    }
    if opts.Modalities, err = distinctValues(ctx, db, "modalidad_especifica", maxPromptDomainValues); err != nil {
        return nil, err
    }
    if opts.SiteClasses, err = distinctValues(ctx, db, "clase_sitio", maxPromptDomainValues); err != nil {
        return nil, err
    }
    if opts.Years, err = distinctYears(ctx, db); err != nil {
        return nil, err
    }
    if opts.Municipalities, err = municipalityNames(ctx, db); err != nil {
        return nil, err
    }
    return opts, nil
}

func distinctValues(ctx context.Context, db *sql.DB, column string, limit int) ([]string, error) {
    query := `SELECT DISTINCT ` + column + `
        FROM fact_seguridad
        WHERE ` + column + ` IS NOT NULL
        ORDER BY ` + column
    if limit > 0 {
        query += " LIMIT " + strconv.Itoa(limit)
    }

    rows, err := db.QueryContext(ctx, query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var values []string
    for rows.Next() {
        var v string
        if err := rows.Scan(&v); err != nil {
            return nil, err
        }
        if v != "" {
            values = append(values, v)
        }
    }
    return values, rows.Err()
}

func distinctYears(ctx context.Context, db *sql.DB) ([]int, error) {
    rows, err := db.QueryContext(ctx, `
        SELECT DISTINCT EXTRACT(YEAR FROM fecha_hecho)::int AS anio
        FROM fact_seguridad
        WHERE fecha_hecho IS NOT NULL
        ORDER BY anio`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var years []int
    for rows.Next() {
        var y int
        if err := rows.Scan(&y); err != nil {
            return nil, err
        }
        years = append(years, y)
    }
    return years, rows.Err()
}

func municipalityNames(ctx context.Context, db *sql.DB) ([]string, error) {
    rows, err := db.QueryContext(ctx, `
        SELECT nombre_municipio FROM master_municipios
        ORDER BY nombre_municipio`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var names []string
    for rows.Next() {
        var n string
        if err := rows.Scan(&n); err != nil {
            return nil, err
        }
        names = append(names, n)
    }
    return names, rows.Err()
}
