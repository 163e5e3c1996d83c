package handlers

import (
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMunicipiosListsDimension(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("FROM master_municipios").
        WillReturnRows(sqlmock.NewRows([]string{"codigo_dane", "nombre_municipio"}).
            AddRow(68081, "BARRANCABERMEJA").
            AddRow(68001, "BUCARAMANGA"))

    h := NewFilterHandler(db)

    req := httptest.NewRequest(http.MethodGet, "/api/v1/filtros/municipios", nil)
    rec := httptest.NewRecorder()

    h.Municipios(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)

    var body struct {
        Municipios []struct {
            CodigoDane int    `json:"codigo_dane"`
            Nombre     string `json:"nombre_municipio"`
        } `json:"municipios"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    require.Len(t, body.Municipios, 2)
    assert.Equal(t, 68081, body.Municipios[0].CodigoDane)
    assert.Equal(t, "BUCARAMANGA", body.Municipios[1].Nombre)
}

func TestCategoriasListsDistinctValues(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT DISTINCT categoria_delito").
        WillReturnRows(sqlmock.NewRows([]string{"categoria_delito"}).
            AddRow("EXTORSION").
            AddRow("HURTO"))

    h := NewFilterHandler(db)

    req := httptest.NewRequest(http.MethodGet, "/api/v1/filtros/categorias-delito", nil)
    rec := httptest.NewRecorder()

    h.Categorias(rec, req)

    require.Equal(t, http.StatusOK, rec.Code)

    var body struct {
        Categorias []string `json:"categorias"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, []string{"EXTORSION", "HURTO"}, body.Categorias)
}

func TestAniosReportsDatabaseError(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("EXTRACT\\(YEAR FROM fecha_hecho\\)").
        WillReturnError(errors.New("sin conexión"))

    h := NewFilterHandler(db)

    req := httptest.NewRequest(http.MethodGet, "/api/v1/filtros/anios", nil)
    rec := httptest.NewRecorder()

    h.Anios(rec, req)

    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
