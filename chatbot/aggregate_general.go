package chatbot

import (
    "context"
    "database/sql"
    "math"
)

// round2 rounds to two decimals, the precision every percentage and rate in
// the API reports.
func round2(v float64) float64 {
    return math.Round(v*100) / 100
}

// percentage guards the zero-denominator case: 0, never NaN.
func percentage(part, total int64) float64 {
    if total <= 0 {
        return 0
    }
    return round2(float64(part) * 100 / float64(total))
}

// variation returns the period-over-period percentage change, nil when the
// prior period had no events.
func variation(prev, curr int64) interface{} {
    if prev <= 0 {
        return nil
    }
    return round2(float64(curr-prev) * 100 / float64(prev))
}

// aggregateGeneralStats is the fallback routine: an overview of the whole
// fact table.
func aggregateGeneralStats(ctx context.Context, db *sql.DB, _ Params) (Result, error) {
    var (
        totalEvents      int64
        totalMunicipios  int64
        totalCategories  int64
        firstDate        sql.NullString
        lastDate         sql.NullString
    )

    err := db.QueryRowContext(ctx, `
        SELECT
            COUNT(*) AS total_eventos,
            COUNT(DISTINCT codigo_dane) AS total_municipios,
            COUNT(DISTINCT categoria_delito) AS total_categorias,
            MIN(fecha_hecho)::text AS fecha_inicio,
            MAX(fecha_hecho)::text AS fecha_fin
        FROM fact_seguridad`).Scan(
        &totalEvents, &totalMunicipios, &totalCategories, &firstDate, &lastDate)
    if err != nil {
        return nil, err
    }

    period := "Sin datos"
    if firstDate.Valid && lastDate.Valid {
        period = firstDate.String + " a " + lastDate.String
    }

    return Result{
        "total_eventos":    totalEvents,
        "total_municipios": totalMunicipios,
        "total_categorias": totalCategories,
        "periodo":          period,
    }, nil
}
