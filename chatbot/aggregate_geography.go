package chatbot

import (
    "context"
    "database/sql"
    "fmt"
    "sort"
    "strings"

    "atlas_crimen/utils"
)

const defaultMunicipality = "Bucaramanga"

// aggregateMunicipality builds the profile of a single municipality:
// totals, category distribution and (without a year filter) annual trend.
func aggregateMunicipality(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    name := p.StringOr("municipio", defaultMunicipality)
    code, ok := ResolveMunicipality(ctx, db, name)
    if !ok {
        return Result{"error": fmt.Sprintf("No se encontró el municipio: %s", name)}, nil
    }
    canonical := MunicipalityName(ctx, db, code)

    year := p.Int("anio")
    category := p.String("categoria")

    fs := newFilterSet().Equal("codigo_dane", code)
    if year != 0 {
        fs.Year("fecha_hecho", year)
    }
    if category != "" {
        fs.EqualFold("categoria_delito", category)
    }

    var (
        total      int64
        categories int64
        firstDate  sql.NullString
        lastDate   sql.NullString
    )
    err := db.QueryRowContext(ctx, `
        SELECT
            COUNT(*) AS total_eventos,
            COUNT(DISTINCT categoria_delito) AS categorias_afectadas,
            MIN(fecha_hecho)::text AS primer_evento,
            MAX(fecha_hecho)::text AS ultimo_evento
        FROM fact_seguridad
        WHERE `+fs.Where(), fs.Args()...).Scan(&total, &categories, &firstDate, &lastDate)
    if err != nil {
        return nil, err
    }

    distribution, err := labelCounts(ctx, db, `
        SELECT categoria_delito, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY categoria_delito
        ORDER BY cantidad DESC, categoria_delito`, fs.Args(), "categoria", "cantidad")
    if err != nil {
        return nil, err
    }

    var trend []Result
    if year == 0 {
        trend, err = labelCountsInt(ctx, db, `
            SELECT EXTRACT(YEAR FROM fecha_hecho)::int AS anio, COUNT(*) AS cantidad
            FROM fact_seguridad
            WHERE `+fs.Where()+`
            GROUP BY anio
            ORDER BY anio`, fs.Args(), "anio", "cantidad")
        if err != nil {
            return nil, err
        }
    }

    period := "Sin datos"
    if firstDate.Valid && lastDate.Valid {
        period = firstDate.String + " a " + lastDate.String
    }

    result := Result{
        "municipio":   canonical,
        "codigo_dane": code,
        "filtros_aplicados": Result{
            "anio":      year,
            "categoria": category,
        },
        "estadisticas": Result{
            "total_eventos":        total,
            "categorias_afectadas": categories,
            "periodo":              period,
        },
        "distribucion_categorias": distribution,
    }
    if trend != nil {
        result["tendencia_anual"] = trend
    }
    return result, nil
}

// aggregateRanking ranks municipalities by absolute event count. Ties break
// deterministically on DANE code ascending.
func aggregateRanking(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    limit := p.IntOr("limite", 10)
    order := orderDirection(p.String("orden"))
    category := p.String("categoria")
    year := p.Int("anio")

    fs := newFilterSet()
    if category != "" {
        fs.EqualFold("fs.categoria_delito", category)
    }
    if year != 0 {
        fs.Year("fs.fecha_hecho", year)
    }

    query := `
        SELECT
            mm.nombre_municipio,
            mm.codigo_dane,
            COUNT(*) AS total_eventos
        FROM fact_seguridad fs
        JOIN master_municipios mm ON fs.codigo_dane = mm.codigo_dane
        WHERE ` + fs.Where() + `
        GROUP BY mm.nombre_municipio, mm.codigo_dane
        ORDER BY total_eventos ` + order + `, mm.codigo_dane ASC
        LIMIT ` + fs.Bind(limit)

    rows, err := db.QueryContext(ctx, query, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ranking []Result
    for rows.Next() {
        var (
            name  string
            code  int
            total int64
        )
        if err := rows.Scan(&name, &code, &total); err != nil {
            return nil, err
        }
        ranking = append(ranking, Result{
            "posicion":      len(ranking) + 1,
            "municipio":     name,
            "codigo_dane":   code,
            "total_eventos": total,
        })
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    return Result{
        "tipo_ranking": "absoluto",
        "orden":        orderLabel(order),
        "filtros": Result{
            "categoria": category,
            "anio":      year,
        },
        "ranking": ranking,
    }, nil
}

// aggregateRankingRate ranks municipalities by events per 100,000
// inhabitants. Municipalities without a positive population are excluded
// from the ranking entirely.
func aggregateRankingRate(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    limit := p.IntOr("limite", 10)
    order := orderDirection(p.String("orden"))
    category := p.String("categoria")
    year := p.Int("anio")

    fs := newFilterSet()
    if category != "" {
        fs.EqualFold("fs.categoria_delito", category)
    }
    if year != 0 {
        fs.Year("fs.fecha_hecho", year)
    }

    // Population taken from the most recent census projection per municipality
    query := `
        SELECT
            mm.nombre_municipio,
            mm.codigo_dane,
            COUNT(*) AS total_eventos,
            md.poblacion_total,
            ROUND(COUNT(*)::numeric / md.poblacion_total * 100000, 2) AS tasa_por_100k
        FROM fact_seguridad fs
        JOIN master_municipios mm ON fs.codigo_dane = mm.codigo_dane
        JOIN (
            SELECT DISTINCT ON (codigo_dane) codigo_dane, poblacion_total
            FROM master_demografia
            WHERE poblacion_total > 0
            ORDER BY codigo_dane, anio DESC
        ) md ON fs.codigo_dane = md.codigo_dane
        WHERE ` + fs.Where() + `
        GROUP BY mm.nombre_municipio, mm.codigo_dane, md.poblacion_total
        ORDER BY tasa_por_100k ` + order + `, mm.codigo_dane ASC
        LIMIT ` + fs.Bind(limit)

    rows, err := db.QueryContext(ctx, query, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var ranking []Result
    for rows.Next() {
        var (
            name       string
            code       int
            total      int64
            population int64
            rate       float64
        )
        if err := rows.Scan(&name, &code, &total, &population, &rate); err != nil {
            return nil, err
        }
        ranking = append(ranking, Result{
            "posicion":      len(ranking) + 1,
            "municipio":     name,
            "codigo_dane":   code,
            "total_eventos": total,
            "poblacion":     population,
            "tasa_por_100k": rate,
        })
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    return Result{
        "tipo_ranking": "por_tasa",
        "descripcion":  "Eventos por cada 100,000 habitantes",
        "orden":        orderLabel(order),
        "filtros": Result{
            "categoria": category,
            "anio":      year,
        },
        "ranking": ranking,
    }, nil
}

// aggregateCompareMunicipalities compares totals, rates and category mix
// across a list of municipalities. Unresolved names are reported inline,
// not dropped.
func aggregateCompareMunicipalities(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    names := p.StringList("municipios")
    if len(names) == 0 {
        if single := p.String("municipio"); single != "" {
            names = []string{single}
        }
    }
    year := p.Int("anio")
    category := p.String("categoria")

    var comparison []Result
    for _, name := range names {
        code, ok := ResolveMunicipality(ctx, db, name)
        if !ok {
            comparison = append(comparison, Result{
                "municipio": name,
                "error":     "No encontrado",
            })
            continue
        }
        canonical := MunicipalityName(ctx, db, code)

        fs := newFilterSet().Equal("fs.codigo_dane", code)
        if year != 0 {
            fs.Year("fs.fecha_hecho", year)
        }
        if category != "" {
            fs.EqualFold("fs.categoria_delito", category)
        }

        var (
            total      int64
            population sql.NullInt64
        )
        err := db.QueryRowContext(ctx, `
            SELECT
                COUNT(*) AS total_eventos,
                MAX(md.poblacion_total) AS poblacion
            FROM fact_seguridad fs
            LEFT JOIN (
                SELECT DISTINCT ON (codigo_dane) codigo_dane, poblacion_total
                FROM master_demografia
                ORDER BY codigo_dane, anio DESC
            ) md ON fs.codigo_dane = md.codigo_dane
            WHERE `+fs.Where(), fs.Args()...).Scan(&total, &population)
        if err != nil {
            return nil, err
        }

        rate := 0.0
        if population.Valid && population.Int64 > 0 {
            rate = round2(float64(total) / float64(population.Int64) * 100000)
        }

        distribution, err := labelCounts(ctx, db, `
            SELECT categoria_delito, COUNT(*) AS cantidad
            FROM fact_seguridad fs
            WHERE `+fs.Where()+`
            GROUP BY categoria_delito
            ORDER BY cantidad DESC, categoria_delito`, fs.Args(), "categoria", "cantidad")
        if err != nil {
            return nil, err
        }

        entry := Result{
            "municipio":     canonical,
            "codigo_dane":   code,
            "total_eventos": total,
            "tasa_por_100k": rate,
            "distribucion":  distribution,
        }
        if population.Valid {
            entry["poblacion"] = population.Int64
        }
        comparison = append(comparison, entry)
    }

    return Result{
        "comparacion": comparison,
        "filtros": Result{
            "anio":      year,
            "categoria": category,
        },
    }, nil
}

// aggregateNearbyMunicipalities finds municipalities within a radius of the
// given one, using incident centroids as municipality positions, and lists
// their event totals. Distances are haversine, not geodesy over boundaries.
func aggregateNearbyMunicipalities(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    name := p.StringOr("municipio", defaultMunicipality)
    radiusKM := float64(p.IntOr("radio_km", 50))

    code, ok := ResolveMunicipality(ctx, db, name)
    if !ok {
        return Result{"error": fmt.Sprintf("No se encontró el municipio: %s", name)}, nil
    }
    canonical := MunicipalityName(ctx, db, code)

    rows, err := db.QueryContext(ctx, `
        SELECT
            mm.codigo_dane,
            mm.nombre_municipio,
            AVG(fs.latitud) AS lat,
            AVG(fs.longitud) AS lon,
            COUNT(*) AS total_eventos
        FROM fact_seguridad fs
        JOIN master_municipios mm ON fs.codigo_dane = mm.codigo_dane
        WHERE fs.latitud IS NOT NULL AND fs.longitud IS NOT NULL
        GROUP BY mm.codigo_dane, mm.nombre_municipio`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    type centroid struct {
        code  int
        name  string
        lat   float64
        lon   float64
        total int64
    }
    var all []centroid
    for rows.Next() {
        var c centroid
        if err := rows.Scan(&c.code, &c.name, &c.lat, &c.lon, &c.total); err != nil {
            return nil, err
        }
        all = append(all, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    var origin *centroid
    for i := range all {
        if all[i].code == code {
            origin = &all[i]
            break
        }
    }
    if origin == nil {
        return Result{
            "municipio_origen": canonical,
            "error":            "Sin coordenadas registradas para el municipio",
        }, nil
    }

    var nearby []Result
    for _, c := range all {
        if c.code == code {
            continue
        }
        dist := utils.CalculateDistance(origin.lat, origin.lon, c.lat, c.lon)
        if dist <= radiusKM {
            nearby = append(nearby, Result{
                "municipio":     c.name,
                "codigo_dane":   c.code,
                "distancia_km":  round2(dist),
                "total_eventos": c.total,
            })
        }
    }
    sort.Slice(nearby, func(i, j int) bool {
        return nearby[i]["distancia_km"].(float64) < nearby[j]["distancia_km"].(float64)
    })

    return Result{
        "municipio_origen":    canonical,
        "radio_busqueda_km":   radiusKM,
        "municipios_cercanos": nearby,
    }, nil
}

func orderDirection(order string) string {
    if strings.EqualFold(order, "asc") {
        return "ASC"
    }
    return "DESC"
}

func orderLabel(direction string) string {
    if direction == "ASC" {
        return "menor a mayor"
    }
    return "mayor a menor"
}

// labelCounts runs a two-column (text, count) query and renders rows as
// {labelKey: ..., countKey: ...} maps.
func labelCounts(ctx context.Context, db *sql.DB, query string, args []interface{}, labelKey, countKey string) ([]Result, error) {
    rows, err := db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []Result
    for rows.Next() {
        var (
            label string
            count int64
        )
        if err := rows.Scan(&label, &count); err != nil {
            return nil, err
        }
        out = append(out, Result{labelKey: label, countKey: count})
    }
    return out, rows.Err()
}

// labelCountsInt is labelCounts for an integer label column (years, months).
func labelCountsInt(ctx context.Context, db *sql.DB, query string, args []interface{}, labelKey, countKey string) ([]Result, error) {
    rows, err := db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []Result
    for rows.Next() {
        var (
            label int
            count int64
        )
        if err := rows.Scan(&label, &count); err != nil {
            return nil, err
        }
        out = append(out, Result{labelKey: label, countKey: count})
    }
    return out, rows.Err()
}
