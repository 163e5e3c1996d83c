package chatbot

import (
    "context"
    "database/sql"
    "fmt"
)

const defaultCategory = "HURTO"

// aggregateCategory profiles one crime category: totals, top modalities and
// weapons, and the annual trend. Missing category falls back to HURTO.
func aggregateCategory(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    category := p.StringOr("categoria", defaultCategory)

    fs := newFilterSet().EqualFold("categoria_delito", category)
    if name := p.String("municipio"); name != "" {
        if code, ok := ResolveMunicipality(ctx, db, name); ok {
            fs.Equal("codigo_dane", code)
        }
    }
    if year := p.Int("anio"); year != 0 {
        fs.Year("fecha_hecho", year)
    }

    var (
        total      int64
        municipios int64
        firstDate  sql.NullString
        lastDate   sql.NullString
    )
    err := db.QueryRowContext(ctx, `
        SELECT
            COUNT(*) AS total,
            COUNT(DISTINCT codigo_dane) AS municipios,
            MIN(fecha_hecho)::text AS primera,
            MAX(fecha_hecho)::text AS ultima
        FROM fact_seguridad
        WHERE `+fs.Where(), fs.Args()...).Scan(&total, &municipios, &firstDate, &lastDate)
    if err != nil {
        return nil, err
    }

    modalities, err := labelCounts(ctx, db, `
        SELECT modalidad_especifica, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND modalidad_especifica IS NOT NULL
        GROUP BY modalidad_especifica
        ORDER BY cantidad DESC, modalidad_especifica
        LIMIT 10`, fs.Args(), "modalidad", "cantidad")
    if err != nil {
        return nil, err
    }

    weapons, err := labelCounts(ctx, db, `
        SELECT arma_medio, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+` AND arma_medio IS NOT NULL
        GROUP BY arma_medio
        ORDER BY cantidad DESC, arma_medio
        LIMIT 10`, fs.Args(), "arma_medio", "cantidad")
    if err != nil {
        return nil, err
    }

    trend, err := labelCountsInt(ctx, db, `
        SELECT EXTRACT(YEAR FROM fecha_hecho)::int AS anio, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY anio
        ORDER BY anio`, fs.Args(), "anio", "cantidad")
    if err != nil {
        return nil, err
    }

    return Result{
        "categoria": category,
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
        },
        "estadisticas": Result{
            "total_eventos":        total,
            "municipios_afectados": municipios,
            "primera_fecha":        nullableString(firstDate),
            "ultima_fecha":         nullableString(lastDate),
        },
        "modalidades_principales": modalities,
        "armas_principales":       weapons,
        "tendencia_anual":         trend,
    }, nil
}

// freeTextDimension profiles a free-text dimension (modality, weapon, site
// class): an optional substring filter plus the top values and their
// category mix.
func freeTextDimension(ctx context.Context, db *sql.DB, p Params, column, paramKey, labelKey string) (Result, error) {
    fs := newFilterSet().NotNull(column)
    if v := p.String(paramKey); v != "" {
        fs.Contains(column, v)
    }
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

    values, err := labelCounts(ctx, db, `
        SELECT `+column+`, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY `+column+`
        ORDER BY cantidad DESC, `+column+`
        LIMIT 20`, fs.Args(), labelKey, "cantidad")
    if err != nil {
        return nil, err
    }

    categories, err := labelCounts(ctx, db, `
        SELECT categoria_delito, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY categoria_delito
        ORDER BY cantidad DESC, categoria_delito`, fs.Args(), "categoria", "cantidad")
    if err != nil {
        return nil, err
    }

    var total int64
    for _, v := range values {
        total += v["cantidad"].(int64)
    }

    return Result{
        "filtros": Result{
            paramKey:    p.String(paramKey),
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "total_eventos":           total,
        "valores_principales":     values,
        "distribucion_categorias": categories,
    }, nil
}

func aggregateModality(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return freeTextDimension(ctx, db, p, "modalidad_especifica", "modalidad", "modalidad")
}

func aggregateWeapon(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return freeTextDimension(ctx, db, p, "arma_medio", "arma", "arma_medio")
}

func aggregateSiteClass(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return freeTextDimension(ctx, db, p, "clase_sitio", "clase_sitio", "clase_sitio")
}

// dimensionRanking ranks the distinct values of one dimension by event
// count. Rankings over free-text dimensions default to 20 entries.
func dimensionRanking(ctx context.Context, db *sql.DB, p Params, column, labelKey string, defaultLimit int) (Result, error) {
    limit := p.IntOr("limite", defaultLimit)
    direction := orderDirection(p.StringOr("orden", "desc"))

    fs := newFilterSet().NotNull(column)
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

    buckets, err := labelCounts(ctx, db, fmt.Sprintf(`
        SELECT %[1]s, COUNT(*) AS cantidad
        FROM fact_seguridad
        WHERE %[2]s
        GROUP BY %[1]s
        ORDER BY cantidad %[3]s, %[1]s ASC
        LIMIT %[4]s`, column, fs.Where(), direction, fs.Bind(limit)),
        fs.Args(), labelKey, "cantidad")
    if err != nil {
        return nil, err
    }

    var total int64
    for _, b := range buckets {
        total += b["cantidad"].(int64)
    }
    ranking := make([]Result, 0, len(buckets))
    for i, b := range buckets {
        ranking = append(ranking, Result{
            "posicion":   i + 1,
            labelKey:     b[labelKey],
            "cantidad":   b["cantidad"],
            "porcentaje": percentage(b["cantidad"].(int64), total),
        })
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "orden":   orderLabel(direction),
        "ranking": ranking,
    }, nil
}

func aggregateCategoryRanking(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return dimensionRanking(ctx, db, p, "categoria_delito", "categoria", 10)
}

func aggregateModalityRanking(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return dimensionRanking(ctx, db, p, "modalidad_especifica", "modalidad", 20)
}

func aggregateWeaponRanking(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return dimensionRanking(ctx, db, p, "arma_medio", "arma_medio", 20)
}

func aggregateSiteRanking(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    return dimensionRanking(ctx, db, p, "clase_sitio", "clase_sitio", 20)
}

// aggregateCompareCategories compares two or more crime categories under the
// same filters. Unknown names still produce an entry, with zero counts, so
// the caller sees every requested category.
func aggregateCompareCategories(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    categories := p.StringList("categorias")
    if len(categories) < 2 {
        return Result{"error": "Se requieren al menos dos categorías para comparar"}, nil
    }

    var entries []Result
    for _, category := range categories {
        fs := newFilterSet().EqualFold("categoria_delito", category)
        if name := p.String("municipio"); name != "" {
            if code, ok := ResolveMunicipality(ctx, db, name); ok {
                fs.Equal("codigo_dane", code)
            }
        }
        if year := p.Int("anio"); year != 0 {
            fs.Year("fecha_hecho", year)
        }

        var (
            total      int64
            municipios int64
        )
        err := db.QueryRowContext(ctx, `
            SELECT COUNT(*) AS total, COUNT(DISTINCT codigo_dane) AS municipios
            FROM fact_seguridad
            WHERE `+fs.Where(), fs.Args()...).Scan(&total, &municipios)
        if err != nil {
            return nil, err
        }

        trend, err := labelCountsInt(ctx, db, `
            SELECT EXTRACT(YEAR FROM fecha_hecho)::int AS anio, COUNT(*) AS cantidad
            FROM fact_seguridad
            WHERE `+fs.Where()+`
            GROUP BY anio
            ORDER BY anio`, fs.Args(), "anio", "cantidad")
        if err != nil {
            return nil, err
        }

        entries = append(entries, Result{
            "categoria":            category,
            "total_eventos":        total,
            "municipios_afectados": municipios,
            "tendencia_anual":      trend,
        })
    }

    var grandTotal int64
    for _, e := range entries {
        grandTotal += e["total_eventos"].(int64)
    }
    for _, e := range entries {
        e["porcentaje"] = percentage(e["total_eventos"].(int64), grandTotal)
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
        },
        "comparativa":        entries,
        "categoria_dominante": maxByCount(entries, "total_eventos"),
    }, nil
}

func nullableString(v sql.NullString) interface{} {
    if !v.Valid {
        return nil
    }
    return v.String
}
