package chatbot

import (
    "context"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
    assert.Equal(t, 33.33, round2(33.3333))
    assert.Equal(t, 66.67, round2(66.6666))
    assert.Equal(t, 0.0, round2(0))
}

func TestPercentageZeroDenominator(t *testing.T) {
    assert.Equal(t, 0.0, percentage(10, 0))
    assert.Equal(t, 0.0, percentage(0, 0))
    assert.Equal(t, 50.0, percentage(5, 10))
    assert.Equal(t, 33.33, percentage(1, 3))
}

func TestVariation(t *testing.T) {
    assert.Nil(t, variation(0, 100), "no prior period means no variation")
    assert.Equal(t, 100.0, variation(50, 100))
    assert.Equal(t, -50.0, variation(100, 50))
    assert.Equal(t, 0.0, variation(100, 100))
}

func TestAggregateGeneralStats(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT(.|\n)*FROM fact_seguridad").
        WillReturnRows(sqlmock.NewRows(
            []string{"total_eventos", "total_municipios", "total_categorias", "fecha_inicio", "fecha_fin"}).
            AddRow(1500, 87, 6, "2003-01-01", "2025-06-30"))

    result, err := aggregateGeneralStats(context.Background(), db, Params{})
    require.NoError(t, err)

    assert.Equal(t, int64(1500), result["total_eventos"])
    assert.Equal(t, int64(87), result["total_municipios"])
    assert.Equal(t, "2003-01-01 a 2025-06-30", result["periodo"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateGeneralStatsEmptyTable(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT(.|\n)*FROM fact_seguridad").
        WillReturnRows(sqlmock.NewRows(
            []string{"total_eventos", "total_municipios", "total_categorias", "fecha_inicio", "fecha_fin"}).
            AddRow(0, 0, 0, nil, nil))

    result, err := aggregateGeneralStats(context.Background(), db, Params{})
    require.NoError(t, err)

    assert.Equal(t, "Sin datos", result["periodo"])
}

func TestAggregateWeekdaySplitsBusinessDays(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    rows := sqlmock.NewRows([]string{"dia_semana", "total_eventos"})
    // Sunday=0 .. Saturday=6
    for day, total := range map[int]int64{0: 40, 1: 10, 2: 10, 3: 10, 4: 10, 5: 10, 6: 60} {
        rows.AddRow(day, total)
    }

    mock.ExpectQuery("EXTRACT\\(DOW FROM fecha_hecho\\)").WillReturnRows(rows)

    result, err := aggregateWeekday(context.Background(), db, Params{})
    require.NoError(t, err)

    comparison := result["comparacion"].(Result)
    assert.Equal(t, int64(50), comparison["dias_laborables"])
    assert.Equal(t, int64(100), comparison["fin_de_semana"])
    assert.Equal(t, 10.0, comparison["promedio_laborables"])
    assert.Equal(t, 50.0, comparison["promedio_fin_semana"])

    distribution := result["distribucion_semanal"].([]Result)
    require.Len(t, distribution, 7)
    names := map[int]string{}
    for _, d := range distribution {
        names[d["dia_semana"].(int)] = d["nombre_dia"].(string)
    }
    assert.Equal(t, "Domingo", names[0])
    assert.Equal(t, "Sábado", names[6])
}

func TestAggregatePeriodComparisonZeroBaseline(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    // year 1: no events
    mock.ExpectQuery("COUNT\\(DISTINCT codigo_dane\\)").
        WillReturnRows(sqlmock.NewRows([]string{"total", "municipios"}).AddRow(0, 0))
    mock.ExpectQuery("GROUP BY categoria_delito").
        WillReturnRows(sqlmock.NewRows([]string{"categoria_delito", "cantidad"}))
    // year 2
    mock.ExpectQuery("COUNT\\(DISTINCT codigo_dane\\)").
        WillReturnRows(sqlmock.NewRows([]string{"total", "municipios"}).AddRow(120, 15))
    mock.ExpectQuery("GROUP BY categoria_delito").
        WillReturnRows(sqlmock.NewRows([]string{"categoria_delito", "cantidad"}).AddRow("HURTO", 120))

    result, err := aggregatePeriodComparison(context.Background(), db, Params{})
    require.NoError(t, err)

    analysis := result["analisis"].(Result)
    assert.Nil(t, analysis["variacion_porcentual"], "variation undefined against an empty baseline")
    assert.Equal(t, int64(120), analysis["diferencia_absoluta"])
    assert.Equal(t, "aumento", analysis["tendencia"])

    comparison := result["comparativa"].(Result)
    assert.Contains(t, comparison, "2023")
    assert.Contains(t, comparison, "2024")
}

func TestAggregateGenderEmptyData(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("GROUP BY genero").
        WillReturnRows(sqlmock.NewRows([]string{"genero", "cantidad"}))
    mock.ExpectQuery("GROUP BY municipio").
        WillReturnRows(sqlmock.NewRows([]string{"municipio", "cantidad"}))

    result, err := aggregateGender(context.Background(), db, Params{})
    require.NoError(t, err)

    assert.Equal(t, int64(0), result["total_eventos"])
    assert.Empty(t, result["distribucion_genero"])
}

func TestAggregateCompareCategoriesNeedsTwo(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    result, err := aggregateCompareCategories(context.Background(), db, Params{
        "categorias": []interface{}{"HURTO"},
    })
    require.NoError(t, err)
    assert.Contains(t, result["error"], "al menos dos")
}

func TestAggregateRankingRateExcludesMissingPopulation(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    // The census subquery keeps only municipalities with a positive,
    // most-recent population; anything without a usable denominator never
    // enters the ranking.
    mock.ExpectQuery(`DISTINCT ON \(codigo_dane\)(.|\n)*poblacion_total > 0(.|\n)*ORDER BY codigo_dane, anio DESC`).
        WillReturnRows(sqlmock.NewRows(
            []string{"nombre_municipio", "codigo_dane", "total_eventos", "poblacion_total", "tasa_por_100k"}).
            AddRow("BARRANCABERMEJA", 68081, 900, 190000, 473.68).
            AddRow("BUCARAMANGA", 68001, 2500, 600000, 416.67))

    result, err := aggregateRankingRate(context.Background(), db, Params{"limite": 2})
    require.NoError(t, err)

    ranking := result["ranking"].([]Result)
    require.Len(t, ranking, 2)
    assert.Equal(t, "BARRANCABERMEJA", ranking[0]["municipio"])
    assert.Equal(t, int64(190000), ranking[0]["poblacion"])
    assert.Equal(t, 473.68, ranking[0]["tasa_por_100k"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateWeatherCorrelationKeepsZeroIncidentDays(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT codigo_dane FROM master_municipios").
        WillReturnRows(sqlmock.NewRows([]string{"codigo_dane"}).AddRow(68001))

    // The weather side drives the join, so a bucket made entirely of days
    // without incidents still comes back, counted with zero events.
    mock.ExpectQuery(`FROM fact_clima fc(.|\n)*LEFT JOIN(.|\n)*fact_seguridad`).
        WillReturnRows(sqlmock.NewRows(
            []string{"franja_lluvia", "dias", "total_eventos", "promedio_eventos_dia"}).
            AddRow("SIN_LLUVIA", 30, 0, 0.0).
            AddRow("LLUVIA_FUERTE", 4, 12, 3.0))

    mock.ExpectQuery("SELECT nombre_municipio FROM master_municipios").
        WillReturnRows(sqlmock.NewRows([]string{"nombre_municipio"}).AddRow("BUCARAMANGA"))

    result, err := aggregateWeatherCorrelation(context.Background(), db, Params{})
    require.NoError(t, err)

    correlation := result["correlacion"].([]Result)
    require.Len(t, correlation, 2)
    assert.Equal(t, "SIN_LLUVIA", correlation[0]["franja_lluvia"])
    assert.Equal(t, int64(30), correlation[0]["dias"])
    assert.Equal(t, int64(0), correlation[0]["total_eventos"])
    assert.Equal(t, "LLUVIA_FUERTE", correlation[1]["franja_lluvia"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateSpecificDateRequiresDate(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    result, err := aggregateSpecificDate(context.Background(), db, Params{})
    require.NoError(t, err)
    assert.Contains(t, result["error"], "fecha")
}
