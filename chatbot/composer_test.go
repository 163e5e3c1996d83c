package chatbot

import (
    "context"
    "errors"
    "strings"
    "testing"
    "unicode/utf8"

    "github.com/stretchr/testify/assert"
)

func TestComposeShortCircuitsOnErrorResult(t *testing.T) {
    gen := &stubGenerator{response: "no debería llamarse"}
    c := NewComposer(gen)

    answer := c.Compose(context.Background(), "pregunta", Result{"error": "municipio no encontrado"})

    assert.Equal(t, "Lo siento, hubo un problema al consultar los datos: municipio no encontrado", answer)
    assert.Empty(t, gen.prompt, "the model must not see error results")
}

func TestComposeUsesGeneratedAnswer(t *testing.T) {
    gen := &stubGenerator{response: "  En 2023 se registraron 120 hurtos en Bucaramanga.  "}
    c := NewComposer(gen)

    answer := c.Compose(context.Background(), "¿cuántos hurtos hubo?", Result{"total_eventos": 120})

    assert.Equal(t, "En 2023 se registraron 120 hurtos en Bucaramanga.", answer)
    assert.Contains(t, gen.prompt, "¿cuántos hurtos hubo?")
    assert.Contains(t, gen.prompt, `"total_eventos":120`)
}

func TestComposeDegradesOnGenerationFailure(t *testing.T) {
    gen := &stubGenerator{err: errors.New("timeout")}
    c := NewComposer(gen)

    answer := c.Compose(context.Background(), "pregunta", Result{"total_eventos": 42})

    assert.True(t, strings.HasPrefix(answer, "Datos encontrados: "))
    assert.Contains(t, answer, `"total_eventos":42`)
}

func TestComposeDegradesOnEmptyAnswer(t *testing.T) {
    gen := &stubGenerator{response: "   "}
    c := NewComposer(gen)

    answer := c.Compose(context.Background(), "pregunta", Result{"total_eventos": 42})

    assert.True(t, strings.HasPrefix(answer, "Datos encontrados: "))
}

func TestComposeTruncatesLongRawData(t *testing.T) {
    gen := &stubGenerator{err: errors.New("timeout")}
    c := NewComposer(gen)

    answer := c.Compose(context.Background(), "pregunta", Result{
        "relleno": strings.Repeat("x", 2000),
    })

    assert.True(t, strings.HasSuffix(answer, "..."))
    assert.LessOrEqual(t, len(answer), len("Datos encontrados: ")+maxRawDataChars+len("..."))
}

func TestDegradedAnswerCutsOnRuneBoundary(t *testing.T) {
    // Accented municipality names must never be split mid-rune by the cap.
    // The leading byte puts every two-byte rune astride the cut point.
    raw := "x" + strings.Repeat("á", maxRawDataChars)

    answer := degradedAnswer(raw)

    assert.True(t, utf8.ValidString(answer))
    assert.True(t, strings.HasSuffix(answer, "..."))
    assert.LessOrEqual(t, len(answer), len("Datos encontrados: ")+maxRawDataChars+len("..."))
}
