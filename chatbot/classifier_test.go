package chatbot

import (
    "context"
    "errors"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// stubGenerator returns a fixed response or error; it also records the last
// prompt for assertions on prompt construction.
type stubGenerator struct {
    response string
    err      error
    prompt   string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
    s.prompt = prompt
    return s.response, s.err
}

func testVocabulary() *FilterOptions {
    return &FilterOptions{
        Categories:     []string{"HURTO", "SEXUAL"},
        Genders:        []string{"FEMENINO", "MASCULINO"},
        Zones:          []string{"RURAL", "URBANA"},
        Years:          []int{2023, 2024},
        Municipalities: []string{"BARRANCABERMEJA", "BUCARAMANGA", "GIRÓN"},
    }
}

func TestClassifyParsesInterpretation(t *testing.T) {
    gen := &stubGenerator{
        response: `{"tipo_consulta": "ranking", "parametros": {"limite": 5, "anio": 2023, "categoria": "null"}}`,
    }
    c := NewClassifier(gen)

    interp := c.Classify(context.Background(), "top 5 municipios en 2023", testVocabulary())

    assert.Equal(t, IntentRanking, interp.Intent)
    assert.Equal(t, ErrorKindNone, interp.ErrorKind)
    assert.Equal(t, 5, interp.Params.Int("limite"))
    assert.Equal(t, 2023, interp.Params.Int("anio"))
    assert.NotContains(t, interp.Params, "categoria", "placeholder filters are dropped")
}

func TestClassifyStripsCodeFence(t *testing.T) {
    gen := &stubGenerator{
        response: "```json\n{\"tipo_consulta\": \"genero\", \"parametros\": {\"genero\": \"FEMENINO\"}}\n```",
    }
    c := NewClassifier(gen)

    interp := c.Classify(context.Background(), "delitos contra mujeres", testVocabulary())

    assert.Equal(t, IntentGender, interp.Intent)
    assert.Equal(t, "FEMENINO", interp.Params.String("genero"))
}

func TestClassifyGenerationFailureFallsBack(t *testing.T) {
    gen := &stubGenerator{err: errors.New("timeout")}
    c := NewClassifier(gen)

    interp := c.Classify(context.Background(), "cualquier cosa", testVocabulary())

    assert.Equal(t, FallbackIntent, interp.Intent)
    assert.Equal(t, ErrorKindGeneration, interp.ErrorKind)
    assert.Empty(t, interp.Params)
}

func TestClassifyUnparseableFallsBack(t *testing.T) {
    gen := &stubGenerator{response: "no soy JSON"}
    c := NewClassifier(gen)

    interp := c.Classify(context.Background(), "cualquier cosa", testVocabulary())

    assert.Equal(t, FallbackIntent, interp.Intent)
    assert.Equal(t, ErrorKindParse, interp.ErrorKind)
    assert.Contains(t, interp.ErrorDetail, "error parseando JSON")
}

func TestClassifyEmptyIntentFallsBack(t *testing.T) {
    gen := &stubGenerator{response: `{"tipo_consulta": "", "parametros": {}}`}
    c := NewClassifier(gen)

    interp := c.Classify(context.Background(), "pregunta vaga", testVocabulary())

    assert.Equal(t, FallbackIntent, interp.Intent)
    assert.Equal(t, ErrorKindNone, interp.ErrorKind)
}

func TestInterpretationPromptContents(t *testing.T) {
    gen := &stubGenerator{response: `{"tipo_consulta": "municipio", "parametros": {}}`}
    c := NewClassifier(gen)

    c.Classify(context.Background(), "¿qué pasa en Girón?", testVocabulary())

    require.NotEmpty(t, gen.prompt)
    assert.Contains(t, gen.prompt, "¿qué pasa en Girón?")
    assert.Contains(t, gen.prompt, "HURTO, SEXUAL")
    assert.Contains(t, gen.prompt, "BARRANCABERMEJA, BUCARAMANGA, GIRÓN")
    for _, intent := range IntentCatalogue {
        assert.Contains(t, gen.prompt, `"`+intent+`"`)
    }
}

func TestInterpretationPromptCapsFreeTextDomains(t *testing.T) {
    vocab := testVocabulary()
    for i := 0; i < 50; i++ {
        vocab.Modalities = append(vocab.Modalities, "MODALIDAD_"+strings.Repeat("X", i+1))
    }

    prompt := buildInterpretationPrompt("pregunta", vocab)

    assert.Contains(t, prompt, vocab.Modalities[maxPromptDomainValues-1])
    assert.NotContains(t, prompt, vocab.Modalities[maxPromptDomainValues])
}
