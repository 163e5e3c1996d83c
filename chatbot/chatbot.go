package chatbot

import (
    "context"
    "database/sql"
)

// Chatbot wires the full pipeline: vocabulary, classification, dispatch and
// composition. Both LLM stages share one Generator so tests inject a single
// mock.
type Chatbot struct {
    db         *sql.DB
    classifier *Classifier
    composer   *Composer
}

// New builds the pipeline over an open database handle and a text generator.
func New(db *sql.DB, gen Generator) *Chatbot {
    return &Chatbot{
        db:         db,
        classifier: NewClassifier(gen),
        composer:   NewComposer(gen),
    }
}

// Ask answers one natural-language question. Every stage degrades instead of
// failing: classification falls back to general statistics, dispatch maps
// errors into the result, and composition falls back to a raw data dump.
func (b *Chatbot) Ask(ctx context.Context, question string) Answer {
    vocab, err := GetFilterOptions(ctx, b.db)
    if err != nil {
        vocab = &FilterOptions{}
    }

    interp := b.classifier.Classify(ctx, question, vocab)
    data := Dispatch(ctx, b.db, interp.Intent, interp.Params)
    response := b.composer.Compose(ctx, question, data)

    return Answer{
        Question:    question,
        Response:    response,
        Data:        data,
        QueryType:   interp.Intent,
        ErrorKind:   string(interp.ErrorKind),
        ErrorDetail: interp.ErrorDetail,
    }
}
