package handlers

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestTemporalServesAnnualTrend(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("EXTRACT\\(YEAR FROM fecha_hecho\\)").
        WillReturnRows(sqlmock.NewRows([]string{"anio", "total_eventos"}).
            AddRow(2022, 100).
            AddRow(2023, 150))

    h := NewDashboardHandler(db)

    req := httptest.NewRequest(http.MethodGet, "/api/v1/temporal/por-anio", nil)
    rec := httptest.NewRecorder()

    h.PorAnio(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

    var body struct {
        Tendencia []struct {
            Anio      int      `json:"anio"`
            Total     int      `json:"total_eventos"`
            Variacion *float64 `json:"variacion_porcentual"`
        } `json:"tendencia"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    require.Len(t, body.Tendencia, 2)
    assert.Nil(t, body.Tendencia[0].Variacion)
    require.NotNil(t, body.Tendencia[1].Variacion)
    assert.Equal(t, 50.0, *body.Tendencia[1].Variacion)
}

func TestQueryParamsNormalization(t *testing.T) {
    req := httptest.NewRequest(http.MethodGet,
        "/api/v1/geografia/delitos-por-municipio?municipio=Bucaramanga&anio=2023&categoria=todos&limite=5", nil)

    p := queryParams(req)

    assert.Equal(t, "Bucaramanga", p.String("municipio"))
    assert.Equal(t, 2023, p.Int("anio"))
    assert.Equal(t, 5, p.Int("limite"))
    assert.NotContains(t, p, "categoria", "placeholder values are dropped")
}
