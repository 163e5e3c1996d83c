package chatbot

import (
    "context"
    "database/sql"
    "fmt"
    "log"
)

// aggregateFunc is the shape every aggregation routine shares.
type aggregateFunc func(ctx context.Context, db *sql.DB, p Params) (Result, error)

// registry maps intent tags to aggregation routines. Adding an intent means
// adding a constant, a routine and one entry here; ValidateRegistry catches
// a catalogue/registry mismatch at startup.
var registry = map[string]aggregateFunc{
    IntentGeneralStats:      aggregateGeneralStats,
    IntentMunicipality:      aggregateMunicipality,
    IntentRanking:           aggregateRanking,
    IntentRankingRate:       aggregateRankingRate,
    IntentCompareMunicipios: aggregateCompareMunicipalities,
    IntentNearbyMunicipios:  aggregateNearbyMunicipalities,
    IntentAnnualTrend:       aggregateAnnualTrend,
    IntentMonthly:           aggregateMonthly,
    IntentWeekday:           aggregateWeekday,
    IntentHourly:            aggregateHourly,
    IntentDateRange:         aggregateDateRange,
    IntentSpecificDate:      aggregateSpecificDate,
    IntentPeriodComparison:  aggregatePeriodComparison,
    IntentGender:            aggregateGender,
    IntentAgeGroup:          aggregateAgeGroup,
    IntentZone:              aggregateZone,
    IntentVictimProfile:     aggregateVictimProfile,
    IntentGenderByYear:      aggregateGenderByYear,
    IntentVulnerability:     aggregateVulnerability,
    IntentCategory:          aggregateCategory,
    IntentModality:          aggregateModality,
    IntentWeapon:            aggregateWeapon,
    IntentSiteClass:         aggregateSiteClass,
    IntentRankingCategories: aggregateCategoryRanking,
    IntentRankingModalities: aggregateModalityRanking,
    IntentRankingWeapons:    aggregateWeaponRanking,
    IntentRankingSites:      aggregateSiteRanking,
    IntentCompareCategories: aggregateCompareCategories,
    IntentRainCorrelation:   aggregateWeatherCorrelation,
    IntentRainLevels:        aggregateWeatherPrecipitation,
    IntentWeatherSummary:    aggregateWeatherSummary,
    IntentMonthlyWeather:    aggregateWeatherMonthly,

    // legacy alias kept for clients trained on the old tag
    "clima_temperatura": aggregateWeatherPrecipitation,
}

// ValidateRegistry confirms every catalogued intent has a routine. Called
// once at startup so a missing entry fails fast instead of at query time.
func ValidateRegistry() error {
    for _, intent := range IntentCatalogue {
        if _, ok := registry[intent]; !ok {
            return fmt.Errorf("intent sin rutina de agregación: %s", intent)
        }
    }
    return nil
}

// Dispatch routes an interpretation to its aggregation routine. It never
// propagates a failure to the caller: unknown intents fall back to general
// statistics, and routine errors or panics become an error Result the
// composer turns into an apology.
func Dispatch(ctx context.Context, db *sql.DB, intent string, p Params) (result Result) {
    fn, ok := registry[intent]
    if !ok {
        log.Printf("intent desconocido %q, usando %s", intent, FallbackIntent)
        fn = registry[FallbackIntent]
    }

    defer func() {
        if r := recover(); r != nil {
            log.Printf("pánico en agregación %q: %v", intent, r)
            result = Result{"error": fmt.Sprintf("Error procesando la consulta: %v", r)}
        }
    }()

    out, err := fn(ctx, db, p)
    if err != nil {
        log.Printf("error en agregación %q: %v", intent, err)
        return Result{"error": err.Error()}
    }
    return out
}
