package handlers

import (
    "encoding/csv"
    "encoding/json"
    "io"
    "log"
    "net/http"
    "os"
    "strconv"

    "atlas_crimen/config"
    "atlas_crimen/models"

    "github.com/gorilla/mux"
)

// PredictionHandler serves the pre-computed monthly forecasts. The CSV is
// parsed once per cache window; everything else reads from the cache.
type PredictionHandler struct {
    CSVPath string
}

func NewPredictionHandler(csvPath string) *PredictionHandler {
    if csvPath == "" {
        csvPath = config.GetEnvWithDefault("PREDICTIONS_CSV", "data/predicciones.csv")
    }
    return &PredictionHandler{CSVPath: csvPath}
}

// loadPredictions parses the forecast CSV. Expected columns:
// codigo_dane,anio,mes,total_delitos,es_prediccion. Malformed rows are
// skipped with a log line.
func (h *PredictionHandler) loadPredictions() ([]models.Prediction, error) {
    cacheKey := config.GetCacheKey("predicciones", h.CSVPath)
    if cached, found := config.PredictionCache.Get(cacheKey); found {
        return cached.([]models.Prediction), nil
    }

    f, err := os.Open(h.CSVPath)
    if err != nil {
        return nil, err
    }
    defer f.Close()

    reader := csv.NewReader(f)
    if _, err := reader.Read(); err != nil { // header
        return nil, err
    }

    var predictions []models.Prediction
    for {
        record, err := reader.Read()
        if err == io.EOF {
            break
        }
        if err != nil {
            log.Printf("loadPredictions: skipping malformed row: %v", err)
            continue
        }
        if len(record) < 5 {
            continue
        }

        code, err1 := strconv.Atoi(record[0])
        year, err2 := strconv.Atoi(record[1])
        month, err3 := strconv.Atoi(record[2])
        total, err4 := strconv.ParseFloat(record[3], 64)
        if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
            log.Printf("loadPredictions: skipping row with bad fields: %v", record)
            continue
        }

        predictions = append(predictions, models.Prediction{
            DaneCode:     code,
            Year:         year,
            Month:        month,
            TotalCrimes:  total,
            IsPrediction: record[4] == "true" || record[4] == "1",
        })
    }

    config.PredictionCache.Set(cacheKey, predictions, 0)
    return predictions, nil
}

// PorMunicipio returns the forecast series for one municipality, optionally
// narrowed to a year via ?anio=.
func (h *PredictionHandler) PorMunicipio(w http.ResponseWriter, r *http.Request) {
    codeStr := mux.Vars(r)["codigo_dane"]
    code, err := strconv.Atoi(codeStr)
    if err != nil {
        http.Error(w, "codigo_dane inválido", http.StatusBadRequest)
        return
    }

    predictions, err := h.loadPredictions()
    if err != nil {
        log.Printf("PorMunicipio: error loading predictions: %v", err)
        http.Error(w, "Predicciones no disponibles", http.StatusServiceUnavailable)
        return
    }

    yearFilter := 0
    if yearStr := r.URL.Query().Get("anio"); yearStr != "" {
        if yearFilter, err = strconv.Atoi(yearStr); err != nil {
            http.Error(w, "anio inválido", http.StatusBadRequest)
            return
        }
    }

    var series []models.Prediction
    for _, p := range predictions {
        if p.DaneCode != code {
            continue
        }
        if yearFilter != 0 && p.Year != yearFilter {
            continue
        }
        series = append(series, p)
    }

    if len(series) == 0 {
        http.Error(w, "Sin predicciones para el municipio", http.StatusNotFound)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.Header().Set("Cache-Control", "public, max-age=3600")
    if err := json.NewEncoder(w).Encode(map[string]interface{}{
        "codigo_dane":  code,
        "predicciones": series,
        "total_filas":  len(series),
    }); err != nil {
        log.Printf("PorMunicipio: error encoding response: %v", err)
    }
}
