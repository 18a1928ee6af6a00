// Package i18n holds the operator-facing message catalog. Keys are the English
// format strings; other languages register translations against them.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Insight titles and rationale templates.
const (
	PerformanceExcellentTitle  = "Excellent performance"
	PerformanceExcellentMsg    = "Average OEE of %.1f%% over the period. Excellent efficiency maintained."
	PerformanceAcceptableTitle = "Acceptable performance"
	PerformanceAcceptableMsg   = "Average OEE of %.1f%% over the period. Improvements are possible."
	PerformanceCriticalTitle   = "Performance needs improvement"
	PerformanceCriticalMsg     = "Average OEE of %.1f%% over the period. Corrective action required."

	StabilityStableTitle   = "Stable performance"
	StabilityStableMsg     = "OEE variation of %.1f%% over the period. Very stable performance."
	StabilityModerateTitle = "Moderate variation"
	StabilityModerateMsg   = "OEE variation of %.1f%% over the period. Acceptable stability."
	StabilityUnstableTitle = "High instability"
	StabilityUnstableMsg   = "OEE variation of %.1f%% over the period. High variability requiring investigation."

	DowntimeLowTitle      = "Low downtime"
	DowntimeLowMsg        = "Average downtime of %.1fh per day. Excellent availability."
	DowntimeModerateTitle = "Moderate downtime"
	DowntimeModerateMsg   = "Average downtime of %.1fh per day. Acceptable availability."
	DowntimeHighTitle     = "High downtime"
	DowntimeHighMsg       = "Average downtime of %.1fh per day. Excessive downtime impacting productivity."

	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Workflow and view feedback.
const (
	TrainSucceeded   = "Model trained successfully! R² score: %.3f, training samples: %d"
	TrainFailed      = "Error training model"
	PredictSucceeded = "%d predictions generated successfully"
	PredictFailed    = "Error generating predictions"
	SelectMachine    = "Please select a machine"
	DaysAheadInvalid = "Forecast horizon must be a positive number of days"

	DashboardLoadFailed = "Failed to load dashboard data"
	BootstrapFailed     = "Failed to initialize sample data"
	AnalyticsLoadFailed = "Error loading analytics"
	AnalyticsNoData     = "No production data found for the selected period and machine."
	MaintenanceAlert    = "%d machine-day(s) need maintenance attention"
)

var french = map[string]string{
	PerformanceExcellentTitle:  "Performance excellente",
	PerformanceExcellentMsg:    "OEE moyen de %.1f%% sur la période. Excellente efficacité maintenue.",
	PerformanceAcceptableTitle: "Performance acceptable",
	PerformanceAcceptableMsg:   "OEE moyen de %.1f%% sur la période. Des améliorations sont possibles.",
	PerformanceCriticalTitle:   "Performance à améliorer",
	PerformanceCriticalMsg:     "OEE moyen de %.1f%% sur la période. Action corrective nécessaire.",

	StabilityStableTitle:   "Performance stable",
	StabilityStableMsg:     "Variation OEE de %.1f%% sur la période. Performance très stable.",
	StabilityModerateTitle: "Variation modérée",
	StabilityModerateMsg:   "Variation OEE de %.1f%% sur la période. Stabilité acceptable.",
	StabilityUnstableTitle: "Forte instabilité",
	StabilityUnstableMsg:   "Variation OEE de %.1f%% sur la période. Forte variabilité nécessitant une investigation.",

	DowntimeLowTitle:      "Faible temps d'arrêt",
	DowntimeLowMsg:        "Temps d'arrêt moyen de %.1fh/jour. Excellent taux de disponibilité.",
	DowntimeModerateTitle: "Temps d'arrêt modéré",
	DowntimeModerateMsg:   "Temps d'arrêt moyen de %.1fh/jour. Taux de disponibilité acceptable.",
	DowntimeHighTitle:     "Temps d'arrêt élevé",
	DowntimeHighMsg:       "Temps d'arrêt moyen de %.1fh/jour. Temps d'arrêt excessif impactant la productivité.",

	ConfidenceHigh:   "Élevée",
	ConfidenceMedium: "Moyenne",
	ConfidenceLow:    "Faible",

	TrainSucceeded:   "Modèle entraîné avec succès! R² Score: %.3f, Échantillons d'entraînement: %d",
	TrainFailed:      "Erreur lors de l'entraînement du modèle",
	PredictSucceeded: "%d prédictions générées avec succès",
	PredictFailed:    "Erreur lors de la génération des prédictions",
	SelectMachine:    "Veuillez sélectionner une machine",
	DaysAheadInvalid: "L'horizon de prévision doit être un nombre de jours positif",

	DashboardLoadFailed: "Échec du chargement du tableau de bord",
	BootstrapFailed:     "Échec de l'initialisation des données d'exemple",
	AnalyticsLoadFailed: "Erreur lors du chargement des analytics",
	AnalyticsNoData:     "Aucune donnée de production trouvée pour la période et la machine sélectionnées.",
	MaintenanceAlert:    "%d jour(s)-machine nécessitent une attention particulière",
}

var supported = []language.Tag{language.English, language.French}

var (
	matcher   = language.NewMatcher(supported)
	catalogue = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range french {
		// SetString only fails on malformed tags; French is a constant.
		_ = b.SetString(language.French, key, msg)
	}
	return b
}

// Tag resolves a locale string ("fr", "fr-CA", "en-US", "") to a supported tag.
func Tag(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

// NewPrinter returns a printer for locale backed by the plantwatch catalog.
func NewPrinter(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale), message.Catalog(catalogue))
}
