package chatbot

import (
    "context"
    "database/sql"
    "strconv"
)

// Spanish labels for date buckets. Day-of-week follows the PostgreSQL DOW
// epoch: 0 = Sunday through 6 = Saturday, for every weekday routine.
var weekdayNames = map[int]string{
    0: "Domingo",
    1: "Lunes",
    2: "Martes",
    3: "Miércoles",
    4: "Jueves",
    5: "Viernes",
    6: "Sábado",
}

var monthNames = map[int]string{
    1:  "Enero",
    2:  "Febrero",
    3:  "Marzo",
    4:  "Abril",
    5:  "Mayo",
    6:  "Junio",
    7:  "Julio",
    8:  "Agosto",
    9:  "Septiembre",
    10: "Octubre",
    11: "Noviembre",
    12: "Diciembre",
}

// Defaults for temporal intents with missing parameters: the full historical
// window of the dataset and the two most recent complete years.
const (
    defaultRangeStart  = "2003-01-01"
    defaultRangeEnd    = "2025-12-31"
    defaultPeriodYear1 = 2023
    defaultPeriodYear2 = 2024
)

// temporalFilters applies the common municipality/year/category trio.
func temporalFilters(ctx context.Context, db *sql.DB, p Params, fs *filterSet) {
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

// aggregateAnnualTrend returns the year-by-year series with the
// period-over-period percentage variation (nil when the prior year is 0).
func aggregateAnnualTrend(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    if name := p.String("municipio"); name != "" {
        if code, ok := ResolveMunicipality(ctx, db, name); ok {
            fs.Equal("codigo_dane", code)
        }
    }
    if category := p.String("categoria"); category != "" {
        fs.EqualFold("categoria_delito", category)
    }
    if from := p.Int("anio_inicio"); from != 0 {
        fs.Static("EXTRACT(YEAR FROM fecha_hecho) >= " + fs.Bind(from))
    }
    if to := p.Int("anio_fin"); to != 0 {
        fs.Static("EXTRACT(YEAR FROM fecha_hecho) <= " + fs.Bind(to))
    }

    rows, err := db.QueryContext(ctx, `
        SELECT EXTRACT(YEAR FROM fecha_hecho)::int AS anio, COUNT(*) AS total_eventos
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY anio
        ORDER BY anio`, fs.Args()...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    type yearCount struct {
        year  int
        total int64
    }
    var series []yearCount
    for rows.Next() {
        var yc yearCount
        if err := rows.Scan(&yc.year, &yc.total); err != nil {
            return nil, err
        }
        series = append(series, yc)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }

    var (
        trend      []Result
        grandTotal int64
        maxYear    interface{}
        minYear    interface{}
    )
    var maxTotal, minTotal int64
    for i, yc := range series {
        var change interface{}
        if i > 0 {
            change = variation(series[i-1].total, yc.total)
        }
        trend = append(trend, Result{
            "anio":                 yc.year,
            "total_eventos":        yc.total,
            "variacion_porcentual": change,
        })
        grandTotal += yc.total
        if maxYear == nil || yc.total > maxTotal {
            maxYear, maxTotal = yc.year, yc.total
        }
        if minYear == nil || yc.total < minTotal {
            minYear, minTotal = yc.year, yc.total
        }
    }

    average := 0.0
    if len(series) > 0 {
        average = round2(float64(grandTotal) / float64(len(series)))
    }

    return Result{
        "filtros": Result{
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "tendencia": trend,
        "resumen": Result{
            "total_general":  grandTotal,
            "promedio_anual": average,
            "anio_max":       maxYear,
            "anio_min":       minYear,
        },
    }, nil
}

// aggregateMonthly returns the month-of-year distribution with Spanish
// month names and the most/least critical months.
func aggregateMonthly(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    temporalFilters(ctx, db, p, fs)

    buckets, err := labelCountsInt(ctx, db, `
        SELECT EXTRACT(MONTH FROM fecha_hecho)::int AS mes, COUNT(*) AS total_eventos
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY mes
        ORDER BY mes`, fs.Args(), "mes", "total_eventos")
    if err != nil {
        return nil, err
    }

    var distribution []Result
    for _, b := range buckets {
        month := b["mes"].(int)
        distribution = append(distribution, Result{
            "mes":           month,
            "nombre_mes":    monthNames[month],
            "total_eventos": b["total_eventos"],
        })
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "distribucion_mensual": distribution,
        "mes_mas_critico":      maxByCount(distribution, "total_eventos"),
        "mes_menos_critico":    minByCount(distribution, "total_eventos"),
    }, nil
}

// aggregateWeekday returns the day-of-week distribution plus the business
// days (Mon-Fri) vs weekend (Sat/Sun) comparison.
func aggregateWeekday(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    temporalFilters(ctx, db, p, fs)

    buckets, err := labelCountsInt(ctx, db, `
        SELECT EXTRACT(DOW FROM fecha_hecho)::int AS dia_semana, COUNT(*) AS total_eventos
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY dia_semana
        ORDER BY dia_semana`, fs.Args(), "dia_semana", "total_eventos")
    if err != nil {
        return nil, err
    }

    var (
        distribution []Result
        weekdays     int64
        weekend      int64
    )
    for _, b := range buckets {
        day := b["dia_semana"].(int)
        total := b["total_eventos"].(int64)
        distribution = append(distribution, Result{
            "dia_semana":    day,
            "nombre_dia":    weekdayNames[day],
            "total_eventos": total,
        })
        if day >= 1 && day <= 5 {
            weekdays += total
        } else {
            weekend += total
        }
    }

    avgWeekdays := 0.0
    if weekdays > 0 {
        avgWeekdays = round2(float64(weekdays) / 5)
    }
    avgWeekend := 0.0
    if weekend > 0 {
        avgWeekend = round2(float64(weekend) / 2)
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "distribucion_semanal": distribution,
        "dia_mas_critico":      maxByCount(distribution, "total_eventos"),
        "dia_menos_critico":    minByCount(distribution, "total_eventos"),
        "comparacion": Result{
            "dias_laborables":     weekdays,
            "fin_de_semana":       weekend,
            "promedio_laborables": avgWeekdays,
            "promedio_fin_semana": avgWeekend,
        },
    }, nil
}

// aggregateHourly returns the hour-of-day distribution with the four
// standard time bands.
func aggregateHourly(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    fs := newFilterSet()
    temporalFilters(ctx, db, p, fs)

    buckets, err := labelCountsInt(ctx, db, `
        SELECT EXTRACT(HOUR FROM fecha_hecho)::int AS hora, COUNT(*) AS total
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY hora
        ORDER BY hora`, fs.Args(), "hora", "total")
    if err != nil {
        return nil, err
    }

    var earlyMorning, morning, afternoon, night int64
    var peak Result
    var peakTotal int64
    for _, b := range buckets {
        hour := b["hora"].(int)
        total := b["total"].(int64)
        switch {
        case hour < 6:
            earlyMorning += total
        case hour < 12:
            morning += total
        case hour < 18:
            afternoon += total
        default:
            night += total
        }
        if peak == nil || total > peakTotal {
            peak, peakTotal = b, total
        }
    }

    return Result{
        "filtros": Result{
            "anio":      p.Int("anio"),
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "distribucion_horaria": buckets,
        "franjas_horarias": Result{
            "madrugada_00_06": earlyMorning,
            "manana_06_12":    morning,
            "tarde_12_18":     afternoon,
            "noche_18_24":     night,
        },
        "hora_pico": peak,
    }, nil
}

// aggregateDateRange reports totals, category mix and the daily series for
// an inclusive date range. Missing bounds fall back to the dataset window.
func aggregateDateRange(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    from := p.StringOr("fecha_inicio", defaultRangeStart)
    to := p.StringOr("fecha_fin", defaultRangeEnd)

    fs := newFilterSet().DateGTE("fecha_hecho", from).DateLTE("fecha_hecho", to)
    if name := p.String("municipio"); name != "" {
        if code, ok := ResolveMunicipality(ctx, db, name); ok {
            fs.Equal("codigo_dane", code)
        }
    }
    if category := p.String("categoria"); category != "" {
        fs.EqualFold("categoria_delito", category)
    }

    var (
        total      int64
        municipios int64
        categories int64
    )
    err := db.QueryRowContext(ctx, `
        SELECT
            COUNT(*) AS total_eventos,
            COUNT(DISTINCT codigo_dane) AS municipios_afectados,
            COUNT(DISTINCT categoria_delito) AS categorias
        FROM fact_seguridad
        WHERE `+fs.Where(), fs.Args()...).Scan(&total, &municipios, &categories)
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

    daily, err := labelCounts(ctx, db, `
        SELECT fecha_hecho::text AS fecha, COUNT(*) AS total
        FROM fact_seguridad
        WHERE `+fs.Where()+`
        GROUP BY fecha_hecho
        ORDER BY fecha_hecho`, fs.Args(), "fecha", "total")
    if err != nil {
        return nil, err
    }

    return Result{
        "rango": Result{
            "fecha_inicio": from,
            "fecha_fin":    to,
        },
        "filtros": Result{
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
        "estadisticas": Result{
            "total_eventos":          total,
            "municipios_afectados":   municipios,
            "categorias_registradas": categories,
        },
        "distribucion_categorias": distribution,
        "serie_diaria":            daily,
    }, nil
}

// aggregateSpecificDate reports what happened on one calendar day.
func aggregateSpecificDate(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    date := p.String("fecha")
    if date == "" {
        return Result{"error": "Se requiere una fecha (YYYY-MM-DD)"}, nil
    }

    fs := newFilterSet().Equal("fs.fecha_hecho", date)
    if name := p.String("municipio"); name != "" {
        if code, ok := ResolveMunicipality(ctx, db, name); ok {
            fs.Equal("fs.codigo_dane", code)
        }
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

    municipios, err := labelCounts(ctx, db, `
        SELECT mm.nombre_municipio, COUNT(*) AS total
        FROM fact_seguridad fs
        JOIN master_municipios mm ON fs.codigo_dane = mm.codigo_dane
        WHERE `+fs.Where()+`
        GROUP BY mm.nombre_municipio
        ORDER BY total DESC, mm.nombre_municipio
        LIMIT 10`, fs.Args(), "municipio", "total")
    if err != nil {
        return nil, err
    }

    var total int64
    for _, d := range distribution {
        total += d["cantidad"].(int64)
    }

    return Result{
        "fecha": date,
        "filtros": Result{
            "municipio": p.String("municipio"),
        },
        "total_eventos":            total,
        "distribucion_categorias":  distribution,
        "municipios_mas_afectados": municipios,
    }, nil
}

// aggregatePeriodComparison compares two years. The percentage variation is
// nil when the first year has no events; the absolute difference and trend
// label are always reported.
func aggregatePeriodComparison(ctx context.Context, db *sql.DB, p Params) (Result, error) {
    year1 := p.IntOr("anio_1", defaultPeriodYear1)
    year2 := p.IntOr("anio_2", defaultPeriodYear2)

    byYear := Result{}
    totals := map[int]int64{}
    for _, year := range []int{year1, year2} {
        fs := newFilterSet().Year("fecha_hecho", year)
        if name := p.String("municipio"); name != "" {
            if code, ok := ResolveMunicipality(ctx, db, name); ok {
                fs.Equal("codigo_dane", code)
            }
        }
        if category := p.String("categoria"); category != "" {
            fs.EqualFold("categoria_delito", category)
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

        distribution, err := labelCounts(ctx, db, `
            SELECT categoria_delito, COUNT(*) AS cantidad
            FROM fact_seguridad
            WHERE `+fs.Where()+`
            GROUP BY categoria_delito
            ORDER BY cantidad DESC, categoria_delito`, fs.Args(), "categoria", "cantidad")
        if err != nil {
            return nil, err
        }

        perCategory := Result{}
        for _, d := range distribution {
            perCategory[d["categoria"].(string)] = d["cantidad"]
        }

        byYear[strconv.Itoa(year)] = Result{
            "total_eventos":        total,
            "municipios_afectados": municipios,
            "por_categoria":        perCategory,
        }
        totals[year] = total
    }

    trendLabel := "estable"
    if totals[year2] > totals[year1] {
        trendLabel = "aumento"
    } else if totals[year2] < totals[year1] {
        trendLabel = "disminución"
    }

    return Result{
        "comparativa": byYear,
        "analisis": Result{
            "variacion_porcentual": variation(totals[year1], totals[year2]),
            "diferencia_absoluta":  totals[year2] - totals[year1],
            "tendencia":            trendLabel,
        },
        "filtros": Result{
            "municipio": p.String("municipio"),
            "categoria": p.String("categoria"),
        },
    }, nil
}

func maxByCount(entries []Result, countKey string) Result {
    var best Result
    var bestCount int64
    for _, e := range entries {
        count, _ := e[countKey].(int64)
        if best == nil || count > bestCount {
            best, bestCount = e, count
        }
    }
    return best
}

func minByCount(entries []Result, countKey string) Result {
    var worst Result
    var worstCount int64
    for _, e := range entries {
        count, _ := e[countKey].(int64)
        if worst == nil || count < worstCount {
            worst, worstCount = e, count
        }
    }
    return worst
}
