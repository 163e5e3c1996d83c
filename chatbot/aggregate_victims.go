package chatbot

import (
    "context"
    "database/sql"
)

// victimFilters applies the shared municipality/year/category filters used by
// every victim-dimension routine.
func victimFilters(ctx context.Context, db *sql.DB, p Params, fs *filterSet) {
    if name := p.String("municipio"); name != "" {
        if code, ok := ResolveMunicipality(ctx, db, name); ok {
            fs.Equal("codigo_dane", code)
        }
    }
    if year := p.Int("anio"); year != 0 {
        fs.Year("fecha_hecho", year)
    }
    if category := p.String("categoria"); category != "" {
        fs.EqualFold("categoria_delito", category)
    }
}

// dimensionBreakdown runs a grouped count over one victim dimension and
// attaches the percentage of the filtered total to each bucket. Percentages
// are 0 when the filtered set is empty.
func dimensionBreakdown(ctx context.Context, db *sql.DB, fs *filterSet, column, labelKey string) ([]Result, int64, error) {
    buckets, err := labelCounts(ctx, db, `
        SELECT `+column+`, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND `+column+` IS NOT NULL
        GROUP BY `+column+`
        ORDER BY cantidad DESC, `+column, fs.Args(), labelKey, "cantidad")
    if err != nil {
        return nil, 0, err
    }

    var total int64
    for _, b := range buckets {
        total += b["cantidad"].(int64)
    }
    for _, b := range buckets {
        b["porcentaje"] = percentage(b["cantidad"].(int64), total)
    }
    return buckets, total, nil
}

// aggregateGender breaks events down by victim gender.
func aggregateGender(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    victimFilters(ctx, db, p, fs)
    if gender := p.String("genero"); gender != "" {
        fs.EqualFold("genero", gender)
    }

    buckets, total, err := dimensionBreakdown(ctx, db, fs, "genero", "genero")
    if err != nil {
        return nil, err
    }

    municipios, err := labelCounts(ctx, db, `
        SELECT (
            SELECT mm.nombre_municipio FROM master_municipios mm
            WHERE mm.codigo_dane = fact_seguridad.codigo_dane
        ) AS municipio, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND genero IS NOT NULL
        GROUP BY municipio
        ORDER BY cantidad DESC, municipio
        LIMIT 10`, fs.Args(), "municipio", "cantidad")
    if err != nil {
        return nil, err
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
            "genero":    p.String("genero"),
        },
        "total_eventos":            total,
        "distribucion_genero":      buckets,
        "municipios_mas_afectados": municipios,
    }, nil
}

// aggregateAgeGroup breaks events down by victim age group.
func aggregateAgeGroup(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    victimFilters(ctx, db, p, fs)
    if group := p.String("grupo_etario"); group != "" {
        fs.EqualFold("grupo_etario", group)
    }

    buckets, total, err := dimensionBreakdown(ctx, db, fs, "grupo_etario", "grupo_etario")
    if err != nil {
        return nil, err
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "total_eventos":       total,
        "distribucion_etaria": buckets,
        "grupo_mas_afectado":  firstOrNil(buckets),
    }, nil
}

// aggregateZone breaks events down by urban vs rural zone.
func aggregateZone(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    victimFilters(ctx, db, p, fs)
    if zone := p.String("zona"); zone != "" {
        fs.EqualFold("zona_hecho", zone)
    }

    buckets, total, err := dimensionBreakdown(ctx, db, fs, "zona_hecho", "zona")
    if err != nil {
        return nil, err
    }

    categories, err := labelCounts(ctx, db, `
        SELECT categoria_delito, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND zona_hecho IS NOT NULL
        GROUP BY categoria_delito
        ORDER BY cantidad DESC, categoria_delito
        LIMIT 5`, fs.Args(), "categoria", "cantidad")
    if err != nil {
        return nil, err
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
            "zona":      p.String("zona"),
        },
        "total_eventos":        total,
        "distribucion_zona":    buckets,
        "categorias_frecuentes": categories,
    }, nil
}

// aggregateVictimProfile crosses gender with age group to describe who is
// most affected under the given filters.
func aggregateVictimProfile(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    victimFilters(ctx, db, p, fs)

    rows, err := db.QueryContext(ctx, `
        SELECT genero, grupo_etario, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND genero IS NOT NULL AND grupo_etario IS NOT NULL
        GROUP BY genero, grupo_etario
        ORDER BY cantidad DESC, genero, grupo_etario`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var profiles []Result
    var total int64
    for rows.Next() {
        var (
            gender string
            group  string
            count  int64
        )
        if err := rows.Scan(&gender, &group, &count); err != nil {
            return nil, err
        }
        profiles = append(profiles, Result{
            "genero":       gender,
            "grupo_etario": group,
            "cantidad":     count,
        })
        total += count
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    for _, prof := range profiles {
        prof["porcentaje"] = percentage(prof["cantidad"].(int64), total)
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "total_eventos":        total,
        "perfiles":             profiles,
        "perfil_predominante":  firstOrNil(profiles),
    }, nil
}

// aggregateGenderByYear returns the per-year gender series, one entry per
// year with a count per gender.
func aggregateGenderByYear(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    if name := p.String("municipio"); name != "" {
        if code, ok := ResolveMunicipality(ctx, db, name); ok {
            fs.Equal("codigo_dane", code)
        }
    }
    if category := p.String("categoria"); category != "" {
        fs.EqualFold("categoria_delito", category)
    }

    rows, err := db.QueryContext(ctx, `
        SELECT EXTRACT(YEAR FROM fecha_hecho)::int AS anio, genero, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND genero IS NOT NULL
        GROUP BY anio, genero
        ORDER BY anio, genero`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    perYear := map[int]Result{}
    var years []int
    for rows.Next() {
        var (
            year   int
            gender string
            count  int64
        )
        if err := rows.Scan(&year, &gender, &count); err != nil {
            return nil, err
        }
        entry, ok := perYear[year]
        if !ok {
            entry = Result{"anio": year}
            perYear[year] = entry
            years = append(years, year)
        }
        entry[gender] = count
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    series := make([]Result, 0, len(years))
    for _, year := range years {
        series = append(series, perYear[year])
    }

    return Result{
        "filtros": Result{
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "serie_anual": series,
    }, nil
}

// aggregateVulnerability ranks gender + age-group combinations by incident
// volume, optionally narrowed to one crime category, to surface the most
// exposed population segments.
func aggregateVulnerability(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    victimFilters(ctx, db, p, fs)
    limit := p.IntOr("limite", 10)

    rows, err := db.QueryContext(ctx, `
        SELECT genero, grupo_etario, COUNT(*) AS cantidad, COUNT(DISTINCT categoria_delito) AS categorias
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND genero IS NOT NULL AND grupo_etario IS NOT NULL
        GROUP BY genero, grupo_etario
        ORDER BY cantidad DESC, genero, grupo_etario
        LIMIT `+fs.Bind(limit), fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var segments []Result
    for rows.Next() {
        var (
            gender     string
            group      string
            count      int64
            categories int64
        )
        if err := rows.Scan(&gender, &group, &count, &categories); err != nil {
            return nil, err
        }
        segments = append(segments, Result{
            "genero":               gender,
            "grupo_etario":         group,
            "cantidad":             count,
            "categorias_distintas": categories,
        })
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "segmentos_vulnerables": segments,
        "segmento_mas_afectado": firstOrNil(segments),
    }, nil
}

func firstOrNil(entries []Result) Result {
    if len(entries) == 0 {
        return nil
    }
    return entries[0]
}
