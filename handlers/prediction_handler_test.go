package handlers

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "testing"

    "github.com/gorilla/mux"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "atlas_crimen/config"
)

func writePredictionsCSV(t *testing.T) string {
    t.Helper()
    path := filepath.Join(t.TempDir(), "predicciones.csv")
    content := `codigo_dane,anio,mes,total_delitos,es_prediccion
68001,2025,1,120.5,true
68001,2025,2,118.2,true
68001,2024,12,130.0,false
68081,2025,1,45.0,true
fila,mala,x,y,z
`
    require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
    return path
}

func TestPorMunicipioFiltersAndParses(t *testing.T) {
    config.InitCache()
    h := NewPredictionHandler(writePredictionsCSV(t))

    req := httptest.NewRequest(http.MethodGet, "/api/v1/predicciones/municipio/68001?anio=2025", nil)
    req = mux.SetURLVars(req, map[string]string{"codigo_dane": "68001"})
    rec := httptest.NewRecorder()

    h.PorMunicipio(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)

    var body struct {
        CodigoDane   int `json:"codigo_dane"`
        Predicciones []struct {
            Anio         int     `json:"anio"`
            Mes          int     `json:"mes"`
            TotalDelitos float64 `json:"total_delitos"`
            EsPrediccion bool    `json:"es_prediccion"`
        } `json:"predicciones"`
        TotalFilas int `json:"total_filas"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, 68001, body.CodigoDane)
    assert.Equal(t, 2, body.TotalFilas)
    for _, p := range body.Predicciones {
        assert.Equal(t, 2025, p.Anio)
        assert.True(t, p.EsPrediccion)
    }
}

func TestPorMunicipioUnknownCode(t *testing.T) {
    config.InitCache()
    h := NewPredictionHandler(writePredictionsCSV(t))

    req := httptest.NewRequest(http.MethodGet, "/api/v1/predicciones/municipio/11001", nil)
    req = mux.SetURLVars(req, map[string]string{"codigo_dane": "11001"})
    rec := httptest.NewRecorder()

    h.PorMunicipio(rec, req)

    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPorMunicipioInvalidCode(t *testing.T) {
    h := NewPredictionHandler("sin-archivo.csv")

    req := httptest.NewRequest(http.MethodGet, "/api/v1/predicciones/municipio/abc", nil)
    req = mux.SetURLVars(req, map[string]string{"codigo_dane": "abc"})
    rec := httptest.NewRecorder()

    h.PorMunicipio(rec, req)

    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPorMunicipioMissingCSV(t *testing.T) {
    config.InitCache()
    h := NewPredictionHandler(filepath.Join(t.TempDir(), "no-existe.csv"))

    req := httptest.NewRequest(http.MethodGet, "/api/v1/predicciones/municipio/68001", nil)
    req = mux.SetURLVars(req, map[string]string{"codigo_dane": "68001"})
    rec := httptest.NewRecorder()

    h.PorMunicipio(rec, req)

    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
