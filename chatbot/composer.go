package chatbot

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "strings"
    "unicode/utf8"
)

// maxRawDataChars caps the degraded answer when the model cannot compose.
const maxRawDataChars = 500

// Composer turns an aggregation Result into a natural-language answer. A
// generation failure degrades to a deterministic data dump instead of an
// error, so the endpoint always answers.
type Composer struct {
    gen Generator
}

func NewComposer(gen Generator) *Composer {
    return &Composer{gen: gen}
}

// Compose writes the final answer for a question. Results carrying an
// "error" key short-circuit to an apology without touching the model.
func (c *Composer) Compose(ctx context.Context, question string, data Result) string {
    if errMsg, ok := data["error"].(string); ok && errMsg != "" {
        return "Lo siento, hubo un problema al consultar los datos: " + errMsg
    }

    raw, err := json.Marshal(data)
    if err != nil {
        log.Printf("error serializando datos para respuesta: %v", err)
        return "Lo siento, hubo un problema al preparar la respuesta."
    }

    answer, err := c.gen.Generate(ctx, buildAnswerPrompt(question, string(raw)))
    if err != nil {
        log.Printf("error generando respuesta, usando datos crudos: %v", err)
        return degradedAnswer(string(raw))
    }
    answer = strings.TrimSpace(answer)
    if answer == "" {
        return degradedAnswer(string(raw))
    }
    return answer
}

func degradedAnswer(raw string) string {
    if len(raw) > maxRawDataChars {
        // Back off to a rune boundary so accented data never splits mid-rune.
        cut := maxRawDataChars
        for cut > 0 && !utf8.RuneStart(raw[cut]) {
            cut--
        }
        raw = raw[:cut] + "..."
    }
    return "Datos encontrados: " + raw
}

func buildAnswerPrompt(question, data string) string {
    return fmt.Sprintf(`Eres un analista de seguridad ciudadana de Santander, Colombia.

Pregunta del usuario: %s

Datos obtenidos de la base de datos (JSON):
%s

Redacta una respuesta en español, clara y concisa, basada EXCLUSIVAMENTE en los
datos anteriores. Usa cifras concretas. Si los datos están vacíos o en cero,
dilo explícitamente. No inventes información que no esté en los datos. No
menciones que los datos vienen en JSON.`, question, data)
}

// Answer is the wire response of the consultar endpoint.
type Answer struct {
    Question    string `json:"pregunta"`
    Response    string `json:"respuesta"`
    Data        Result `json:"datos_consultados"`
    QueryType   string `json:"tipo_consulta"`
    ErrorKind   string `json:"tipo_error,omitempty"`
    ErrorDetail string `json:"detalle_error,omitempty"`
}
