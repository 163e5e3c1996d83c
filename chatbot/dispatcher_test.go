package chatbot

import (
    "context"
    "database/sql"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestValidateRegistry(t *testing.T) {
    assert.NoError(t, ValidateRegistry())
}

func TestRegistryCoversCatalogue(t *testing.T) {
    for _, intent := range IntentCatalogue {
        _, ok := registry[intent]
        assert.True(t, ok, "intent sin rutina: %s", intent)
    }
}

func TestRegistryKeepsLegacyWeatherAlias(t *testing.T) {
    _, ok := registry["clima_temperatura"]
    assert.True(t, ok)
}

func TestDispatchUnknownIntentFallsBack(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT(.|\n)*FROM fact_seguridad").
        WillReturnRows(sqlmock.NewRows(
            []string{"total_eventos", "total_municipios", "total_categorias", "fecha_inicio", "fecha_fin"}).
            AddRow(10, 3, 2, "2020-01-01", "2024-12-31"))

    result := Dispatch(context.Background(), db, "intent_inventado", Params{})

    assert.Equal(t, int64(10), result["total_eventos"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchMapsRoutineErrors(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("SELECT(.|\n)*FROM fact_seguridad").
        WillReturnError(errors.New("connection reset"))

    result := Dispatch(context.Background(), db, IntentGeneralStats, Params{})

    assert.Contains(t, result["error"], "connection reset")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
    registry["panico_prueba"] = func(context.Context, *sql.DB, Params) (Result, error) {
        panic("boom")
    }
    defer delete(registry, "panico_prueba")

    result := Dispatch(context.Background(), nil, "panico_prueba", Params{})

    assert.Contains(t, result["error"], "boom")
}
