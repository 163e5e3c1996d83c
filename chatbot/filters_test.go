package chatbot

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestFilterSetEmpty(t *testing.T) {
    fs := newFilterSet()

    assert.Equal(t, "1=1", fs.Where())
    assert.Empty(t, fs.Args())
}

func TestFilterSetComposition(t *testing.T) {
    fs := newFilterSet().
        Equal("codigo_dane", 68001).
        Year("fecha_hecho", 2023).
        EqualFold("categoria_delito", "hurto")

    assert.Equal(t,
        "codigo_dane = $1 AND EXTRACT(YEAR FROM fecha_hecho) = $2 AND UPPER(categoria_delito) = UPPER($3)",
        fs.Where())
    assert.Equal(t, []interface{}{68001, 2023, "hurto"}, fs.Args())
}

func TestFilterSetContains(t *testing.T) {
    fs := newFilterSet().Contains("modalidad_especifica", "atraco")

    assert.Equal(t, "modalidad_especifica ILIKE $1", fs.Where())
    assert.Equal(t, []interface{}{"%atraco%"}, fs.Args())
}

func TestFilterSetDateBounds(t *testing.T) {
    fs := newFilterSet().
        DateGTE("fecha_hecho", "2023-01-01").
        DateLTE("fecha_hecho", "2023-12-31").
        NotNull("genero")

    assert.Equal(t,
        "fecha_hecho >= $1 AND fecha_hecho <= $2 AND genero IS NOT NULL",
        fs.Where())
    assert.Len(t, fs.Args(), 2)
}

func TestFilterSetBindOrder(t *testing.T) {
    fs := newFilterSet()

    assert.Equal(t, "$1", fs.Bind("a"))
    assert.Equal(t, "$2", fs.Bind("b"))
    assert.Equal(t, []interface{}{"a", "b"}, fs.Args())
}
