package chatbot

import (
    "context"
    "database/sql"
)

// Precipitation buckets, in millimeters per day. The weather side drives the
// join so dry days with zero incidents still count toward the averages.
const rainBucketExpr = `
    CASE
        WHEN fc.precipitacion_mm = 0 THEN 'SIN_LLUVIA'
        WHEN fc.precipitacion_mm < 5 THEN 'LLUVIA_LIGERA'
        WHEN fc.precipitacion_mm < 20 THEN 'LLUVIA_MODERADA'
        ELSE 'LLUVIA_FUERTE'
    END`

var rainBucketOrder = []string{"SIN_LLUVIA", "LLUVIA_LIGERA", "LLUVIA_MODERADA", "LLUVIA_FUERTE"}

// weatherScope resolves the municipality (default Bucaramanga) and the
// optional year for the weather routines.
func weatherScope(ctx context.Context, db *sql.DB, p Params) (int, string, bool) {
    name := p.StringOr("municipio", defaultMunicipality)
    code, ok := ResolveMunicipality(ctx, db, name)
    return code, name, ok
}

// aggregateWeatherCorrelation relates daily precipitation to daily incident
// counts in one municipality: average incidents per rain bucket.
func aggregateWeatherCorrelation(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    code, name, ok := weatherScope(ctx, db, p)
    if !ok {
        return Result{"error": "Municipio no encontrado: " + name}, nil
    }

    fs := newFilterSet().Equal("fc.codigo_dane", code)
    if year := p.Int("anio"); year != 0 {
        fs.Year("fc.fecha", year)
    }
    category := p.String("categoria")
    incidentFilter := ""
    if category != "" {
        incidentFilter = " AND UPPER(s.categoria_delito) = UPPER(" + fs.Bind(category) + ")"
    }

    rows, err := db.QueryContext(ctx, `
        SELECT
            `+rainBucketExpr+` AS franja_lluvia,
            COUNT(DISTINCT fc.fecha) AS dias,
            COALESCE(SUM(d.eventos), 0) AS total_eventos,
            ROUND(COALESCE(SUM(d.eventos), 0)::numeric / COUNT(DISTINCT fc.fecha), 2) AS promedio_eventos_dia
        FROM fact_clima fc
        LEFT JOIN (
            SELECT s.codigo_dane, s.fecha_hecho, COUNT(*) AS eventos
            FROM fact_seguridad s
            WHERE 1=1`+incidentFilter+`
            GROUP BY s.codigo_dane, s.fecha_hecho
        ) d ON d.codigo_dane = fc.codigo_dane AND d.fecha_hecho = fc.fecha
        WHERE `+fs.Where()+`
        GROUP BY franja_lluvia`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    byBucket := map[string]Result{}
    for rows.Next() {
        var (
            bucket  string
            days    int64
            total   int64
            average float64
        )
        if err := rows.Scan(&bucket, &days, &total, &average); err != nil {
            return nil, err
        }
        byBucket[bucket] = Result{
            "franja_lluvia":        bucket,
            "dias":                 days,
            "total_eventos":        total,
            "promedio_eventos_dia": average,
        }
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    var correlation []Result
    for _, bucket := range rainBucketOrder {
        if entry, ok := byBucket[bucket]; ok {
            correlation = append(correlation, entry)
        }
    }

    return Result{
        "municipio": MunicipalityName(ctx, db, code),
        "filtros": Result{
            "anio":      p.Int("anio"),
            "categoria": category,
        },
        "correlacion": correlation,
        "nota":        "Cobertura de clima: 2005-2019. Días sin registro de lluvia no se incluyen.",
    }, nil
}

// aggregateWeatherPrecipitation reports how many days fall in each rain
// bucket and the precipitation extremes for one municipality.
func aggregateWeatherPrecipitation(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    code, name, ok := weatherScope(ctx, db, p)
    if !ok {
        return Result{"error": "Municipio no encontrado: " + name}, nil
    }

    fs := newFilterSet().Equal("fc.codigo_dane", code)
    if year := p.Int("anio"); year != 0 {
        fs.Year("fc.fecha", year)
    }

    rows, err := db.QueryContext(ctx, `
        SELECT `+rainBucketExpr+` AS franja_lluvia, COUNT(*) AS dias
        FROM fact_clima fc
        WHERE `+fs.Where()+`
        GROUP BY franja_lluvia`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    byBucket := map[string]int64{}
    var totalDays int64
    for rows.Next() {
        var (
            bucket string
            days   int64
        )
        if err := rows.Scan(&bucket, &days); err != nil {
            return nil, err
        }
        byBucket[bucket] = days
        totalDays += days
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    var distribution []Result
    for _, bucket := range rainBucketOrder {
        days := byBucket[bucket]
        distribution = append(distribution, Result{
            "franja_lluvia": bucket,
            "dias":          days,
            "porcentaje":    percentage(days, totalDays),
        })
    }

    var (
        maxMM   sql.NullFloat64
        maxDate sql.NullString
        avgMM   sql.NullFloat64
    )
    err = db.QueryRowContext(ctx, `
        SELECT MAX(fc.precipitacion_mm), (
            SELECT f2.fecha::text FROM fact_clima f2
            WHERE f2.codigo_dane = `+fs.Bind(code)+`
            ORDER BY f2.precipitacion_mm DESC, f2.fecha
            LIMIT 1
        ), ROUND(AVG(fc.precipitacion_mm)::numeric, 2)
        FROM fact_clima fc
        WHERE `+fs.Where(), fs.Args()...).Scan(&maxMM, &maxDate, &avgMM)
    if err != nil {
        return nil, err
    }

    return Result{
        "municipio": MunicipalityName(ctx, db, code),
        "filtros": Result{
            "anio": p.Int("anio"),
        },
        "dias_registrados":          totalDays,
        "distribucion_lluvia":       distribution,
        "precipitacion_maxima":      Result{"mm": nullableFloat(maxMM), "fecha": nullableString(maxDate)},
        "precipitacion_promedio_mm": nullableFloat(avgMM),
    }, nil
}

// aggregateWeatherSummary gives the overall precipitation picture for one
// municipality: coverage, totals and the rainiest years.
func aggregateWeatherSummary(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    code, name, ok := weatherScope(ctx, db, p)
    if !ok {
        return Result{"error": "Municipio no encontrado: " + name}, nil
    }

    fs := newFilterSet().Equal("fc.codigo_dane", code)

    var (
        days      int64
        rainyDays int64
        totalMM   sql.NullFloat64
        firstDate sql.NullString
        lastDate  sql.NullString
    )
    err := db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE fc.precipitacion_mm > 0),
            ROUND(SUM(fc.precipitacion_mm)::numeric, 2),
            MIN(fc.fecha)::text,
            MAX(fc.fecha)::text
        FROM fact_clima fc
        WHERE `+fs.Where(), fs.Args()...).Scan(&days, &rainyDays, &totalMM, &firstDate, &lastDate)
    if err != nil {
        return nil, err
    }

    rows, err := db.QueryContext(ctx, `
        SELECT EXTRACT(YEAR FROM fc.fecha)::int AS anio,
               ROUND(SUM(fc.precipitacion_mm)::numeric, 2) AS total_mm
        FROM fact_clima fc
        WHERE `+fs.Where()+`
        GROUP BY anio
        ORDER BY total_mm DESC
        LIMIT 5`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var rainiest []Result
    for rows.Next() {
        var (
            year    int
            totalYr float64
        )
        if err := rows.Scan(&year, &totalYr); err != nil {
            return nil, err
        }
        rainiest = append(rainiest, Result{"anio": year, "precipitacion_total_mm": totalYr})
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    return Result{
        "municipio":              MunicipalityName(ctx, db, code),
        "dias_registrados":       days,
        "dias_con_lluvia":        rainyDays,
        "porcentaje_dias_lluvia": percentage(rainyDays, days),
        "precipitacion_total_mm": nullableFloat(totalMM),
        "periodo":                Result{"desde": nullableString(firstDate), "hasta": nullableString(lastDate)},
        "anios_mas_lluviosos":    rainiest,
    }, nil
}

// aggregateWeatherMonthly returns the month-of-year precipitation profile
// alongside the incident counts for the same months.
func aggregateWeatherMonthly(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    code, name, ok := weatherScope(ctx, db, p)
    if !ok {
        return Result{"error": "Municipio no encontrado: " + name}, nil
    }

    fs := newFilterSet().Equal("fc.codigo_dane", code)
    if year := p.Int("anio"); year != 0 {
        fs.Year("fc.fecha", year)
    }

    rows, err := db.QueryContext(ctx, `
        SELECT EXTRACT(MONTH FROM fc.fecha)::int AS mes,
               ROUND(AVG(fc.precipitacion_mm)::numeric, 2) AS promedio_mm,
               ROUND(SUM(fc.precipitacion_mm)::numeric, 2) AS total_mm
        FROM fact_clima fc
        WHERE `+fs.Where()+`
        GROUP BY mes
        ORDER BY mes`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var months []Result
    for rows.Next() {
        var (
            month   int
            avgMM   float64
            totalMM float64
        )
        if err := rows.Scan(&month, &avgMM, &totalMM); err != nil {
            return nil, err
        }
        months = append(months, Result{
            "mes":         month,
            "nombre_mes":  monthNames[month],
            "promedio_mm": avgMM,
            "total_mm":    totalMM,
        })
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    is := newFilterSet().Equal("codigo_dane", code)
    if year := p.Int("anio"); year != 0 {
        is.Year("fecha_hecho", year)
    }
    incidents, err := labelCountsInt(ctx, db, `
        SELECT EXTRACT(MONTH FROM fecha_hecho)::int AS mes, COUNT(*) AS total_eventos
        FROM fact_seguridad
        WHERE `+is.Where()+`
        GROUP BY mes
        ORDER BY mes`, is.Args(), "mes", "total_eventos")
    if err != nil {
        return nil, err
    }
    eventsByMonth := map[int]interface{}{}
    for _, e := range incidents {
        eventsByMonth[e["mes"].(int)] = e["total_eventos"]
    }
    for _, m := range months {
        if v, ok := eventsByMonth[m["mes"].(int)]; ok {
            m["total_eventos"] = v
        } else {
            m["total_eventos"] = int64(0)
        }
    }

    return Result{
        "municipio": MunicipalityName(ctx, db, code),
        "filtros": Result{
            "anio": p.Int("anio"),
        },
        "clima_mensual": months,
    }, nil
}

func nullableFloat(v sql.NullFloat64) interface{} {
    if !v.Valid {
        return nil
    }
    return v.Float64
}
