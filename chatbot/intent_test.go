package chatbot

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestNormalizeDropsPlaceholders(t *testing.T) {
    p := Params{
        "municipio": "Bucaramanga",
        "categoria": "null",
        "genero":    "None",
        "zona":      "  todos  ",
        "arma":      "",
        "anio":      nil,
        "limite":    float64(5),
    }

    clean := p.Normalize()

    assert.Equal(t, "Bucaramanga", clean["municipio"])
    assert.Equal(t, float64(5), clean["limite"])
    assert.NotContains(t, clean, "categoria")
    assert.NotContains(t, clean, "genero")
    assert.NotContains(t, clean, "zona")
    assert.NotContains(t, clean, "arma")
    assert.NotContains(t, clean, "anio")
}

func TestParamsString(t *testing.T) {
    p := Params{"municipio": "  Girón ", "anio": float64(2023)}

    assert.Equal(t, "Girón", p.String("municipio"))
    assert.Equal(t, "", p.String("anio"), "non-string values read as empty")
    assert.Equal(t, "", p.String("ausente"))
    assert.Equal(t, "HURTO", p.StringOr("categoria", "HURTO"))
}

func TestParamsInt(t *testing.T) {
    p := Params{
        "anio":    float64(2024),
        "limite":  "15",
        "mes":     7,
        "basura":  "no-numero",
    }

    assert.Equal(t, 2024, p.Int("anio"))
    assert.Equal(t, 15, p.Int("limite"))
    assert.Equal(t, 7, p.Int("mes"))
    assert.Equal(t, 0, p.Int("basura"))
    assert.Equal(t, 0, p.Int("ausente"))
    assert.Equal(t, 10, p.IntOr("ausente", 10))
}

func TestParamsStringList(t *testing.T) {
    p := Params{
        "municipios": []interface{}{"Bucaramanga", " Floridablanca ", ""},
        "categorias": "HURTO",
    }

    assert.Equal(t, []string{"Bucaramanga", "Floridablanca"}, p.StringList("municipios"))
    assert.Equal(t, []string{"HURTO"}, p.StringList("categorias"))
    assert.Nil(t, p.StringList("ausente"))
}

func TestIntentCatalogueHasNoDuplicates(t *testing.T) {
    seen := map[string]bool{}
    for _, intent := range IntentCatalogue {
        assert.False(t, seen[intent], "intent duplicado: %s", intent)
        seen[intent] = true
    }
    assert.Contains(t, IntentCatalogue, FallbackIntent)
}
