package config

import (
    "fmt"
    "time"

    "github.com/patrickmn/go-cache"
)

// PredictionCache holds the pre-computed forecast rows loaded from CSV.
// The chatbot pipeline itself never caches anything between requests.
var PredictionCache *cache.Cache

const (
    predictionCacheDuration  = 24 * time.Hour
    predictionCleanupInterval = 48 * time.Hour
)

func InitCache() {
    PredictionCache = cache.New(predictionCacheDuration, predictionCleanupInterval)
}

func GetCacheKey(prefix string, params ...interface{}) string {
    key := prefix
    for _, param := range params {
        key += ":" + fmt.Sprintf("%v", param)
    }
    return key
}
