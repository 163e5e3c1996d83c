package chatbot

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "regexp"
    "strconv"
    "strings"
)

// ErrorKind distinguishes classification failure modes for diagnostics.
// Both kinds degrade identically: fallback intent, empty parameters.
type ErrorKind string

const (
    ErrorKindNone       ErrorKind = ""
    ErrorKindParse      ErrorKind = "parse_error"
    ErrorKindGeneration ErrorKind = "generation_error"
)

// Interpretation is the structured outcome of classifying a question.
type Interpretation struct {
    Intent      string    `json:"tipo_consulta"`
    Params      Params    `json:"parametros"`
    ErrorKind   ErrorKind `json:"-"`
    ErrorDetail string    `json:"-"`
}

// Classifier maps a natural-language question plus the live vocabulary to
// one (intent, parameters) pair from the closed catalogue.
type Classifier struct {
    gen Generator
}

func NewClassifier(gen Generator) *Classifier {
    return &Classifier{gen: gen}
}

var codeFenceStart = regexp.MustCompile("^```(?:json)?\n?")
var codeFenceEnd = regexp.MustCompile("\n?```$")

// Classify interprets the question. It never returns an error: any failure
// in the generation call or in parsing its output degrades to the fallback
// intent with the failure recorded on the Interpretation.
func (c *Classifier) Classify(ctx context.Context, question string, vocab *FilterOptions) Interpretation {
    prompt := buildInterpretationPrompt(question, vocab)

    text, err := c.gen.Generate(ctx, prompt)
    if err != nil {
        log.Printf("Classify: generation failed: %v", err)
        return Interpretation{
            Intent:      FallbackIntent,
            Params:      Params{},
            ErrorKind:   ErrorKindGeneration,
            ErrorDetail: err.Error(),
        }
    }

    // The model sometimes wraps its answer in a code fence
    text = strings.TrimSpace(text)
    text = codeFenceStart.ReplaceAllString(text, "")
    text = codeFenceEnd.ReplaceAllString(text, "")

    var parsed struct {
        Intent string `json:"tipo_consulta"`
        Params Params `json:"parametros"`
    }
    if err := json.Unmarshal([]byte(text), &parsed); err != nil {
        log.Printf("Classify: unparseable interpretation: %v", err)
        return Interpretation{
            Intent:      FallbackIntent,
            Params:      Params{},
            ErrorKind:   ErrorKindParse,
            ErrorDetail: fmt.Sprintf("error parseando JSON: %v", err),
        }
    }

    intent := strings.TrimSpace(parsed.Intent)
    if intent == "" {
        intent = FallbackIntent
    }

    params := parsed.Params
    if params == nil {
        params = Params{}
    }

    return Interpretation{
        Intent: intent,
        Params: params.Normalize(),
    }
}

func buildInterpretationPrompt(question string, vocab *FilterOptions) string {
    var b strings.Builder

    b.WriteString(`Eres un asistente experto en análisis de datos de seguridad de Santander, Colombia.
Tu trabajo es interpretar preguntas en lenguaje natural y extraer los parámetros de consulta.

DATOS DISPONIBLES:
`)
    if vocab != nil {
        b.WriteString("- Categorías de delito: " + joinValues(vocab.Categories) + "\n")
        b.WriteString("- Géneros: " + joinValues(vocab.Genders) + "\n")
        b.WriteString("- Grupos etarios: " + joinValues(vocab.AgeGroups) + "\n")
        b.WriteString("- Zonas: " + joinValues(vocab.Zones) + "\n")
        b.WriteString("- Armas/medios: " + joinValues(vocab.Weapons) + "\n")
        b.WriteString("- Modalidades (muestra): " + joinValues(vocab.Modalities) + "\n")
        b.WriteString("- Clases de sitio (muestra): " + joinValues(vocab.SiteClasses) + "\n")
        b.WriteString("- Años con datos: " + joinYears(vocab.Years) + "\n")
        b.WriteString("- Municipios: " + joinAll(vocab.Municipalities) + "\n")
    }

    b.WriteString(`
REGLAS IMPORTANTES PARA ELEGIR EL TIPO DE CONSULTA:
- Si la pregunta menciona GÉNERO (hombre, mujer, masculino, femenino) -> usa "genero"
- Si la pregunta menciona EDAD o grupo etario (niños, adolescentes, adultos, mayores) -> usa "grupo_etario"
- Si la pregunta menciona ZONA (urbano, rural, campo, ciudad) -> usa "zona"
- Si la pregunta es sobre un MUNICIPIO específico sin mencionar género/edad/zona -> usa "municipio"
- Si la pregunta pide RANKING o comparación de municipios -> usa "ranking" o "ranking_tasa"
- Si la pregunta habla de tasa por habitante -> usa "ranking_tasa"
- Si la pregunta es sobre TENDENCIA en el tiempo -> usa "tendencia_anual"
- Si la pregunta es sobre MESES o estacionalidad -> usa "datos_mes"
- Si la pregunta es sobre DÍAS de la semana -> usa "dia_semana"
- Si la pregunta es sobre HORAS del día -> usa "horario"
- Si la pregunta es sobre CLIMA o lluvia -> usa "correlacion_clima"
- Si la pregunta es sobre QUÉ ARMA se usa más o ranking de armas -> usa "ranking_armas"
- Si la pregunta es sobre DÓNDE/LUGARES/SITIOS ocurren más delitos -> usa "ranking_sitios"

TIPOS DE CONSULTA DISPONIBLES:
`)
    for i, intent := range IntentCatalogue {
        b.WriteString(strconv.Itoa(i+1) + `. "` + intent + `"` + "\n")
    }

    b.WriteString(`
IMPORTANTE: Todos los tipos de consulta aceptan filtros adicionales de municipio, año y categoría.
Por ejemplo, si preguntan "violencia sexual contra hombres en Barrancabermeja",
debes usar tipo_consulta="genero" con parametros municipio="Barrancabermeja" y categoria="SEXUAL".

RESPONDE ÚNICAMENTE con un JSON válido con esta estructura:
{
    "tipo_consulta": "nombre_del_tipo",
    "parametros": {
        "municipio": "nombre del municipio si aplica",
        "municipios": ["lista", "de", "municipios"] si es comparación,
        "anio": número de año si aplica,
        "anio_1": primer año si es comparativa de periodos,
        "anio_2": segundo año si es comparativa de periodos,
        "mes": número de mes (1-12) si aplica,
        "fecha": "YYYY-MM-DD" si aplica,
        "fecha_inicio": "YYYY-MM-DD" si aplica,
        "fecha_fin": "YYYY-MM-DD" si aplica,
        "categoria": "categoría de delito si aplica",
        "modalidad": "modalidad específica si aplica",
        "arma_medio": "arma o medio si aplica",
        "clase_sitio": "tipo de sitio si aplica",
        "genero": "género si aplica",
        "grupo_etario": "grupo de edad si aplica",
        "zona": "URBANA o RURAL si aplica",
        "limite": número para rankings (default 10),
        "orden": "desc" o "asc" para rankings
    }
}

PREGUNTA DEL USUARIO: ` + question + `

Responde SOLO con el JSON, sin explicaciones adicionales.
`)
    return b.String()
}

func joinValues(values []string) string {
    if len(values) == 0 {
        return "(sin datos)"
    }
    if len(values) > maxPromptDomainValues {
        values = values[:maxPromptDomainValues]
    }
    return strings.Join(values, ", ")
}

// joinAll joins without the prompt-size cap; the municipality list is the
// closed reference set the model needs in full.
func joinAll(values []string) string {
    if len(values) == 0 {
        return "(sin datos)"
    }
    return strings.Join(values, ", ")
}

func joinYears(years []int) string {
    if len(years) == 0 {
        return "(sin datos)"
    }
    parts := make([]string, len(years))
    for i, y := range years {
        parts[i] = strconv.Itoa(y)
    }
    return strings.Join(parts, ", ")
}
