package insight

import "github.com/sells-group/plantwatch/internal/i18n"

// Confidence thresholds for prediction display.
const (
	ConfidenceHighMin   = 0.8
	ConfidenceMediumMin = 0.6
)

// Confidence is the display tier of a prediction's confidence value.
type Confidence struct {
	Tier  Tier   `json:"tier"`
	Level Level  `json:"level"`
	Color string `json:"color"`
	Label string `json:"label"`
}

var confidenceScale = Scale{
	HigherIsBetter: true,
	Bands: []Band{
		{Tier: TierHigh, Level: LevelGood, Bound: ConfidenceHighMin, Title: i18n.ConfidenceHigh},
		{Tier: TierMedium, Level: LevelWarning, Bound: ConfidenceMediumMin, Title: i18n.ConfidenceMedium},
		{Tier: TierLow, Level: LevelCritical, Bound: -1, Title: i18n.ConfidenceLow},
	},
}

// Confidence grades a 0–1 confidence value: >= 0.8 high, >= 0.6 medium,
// otherwise low.
func (c *Classifier) Confidence(confidence float64) Confidence {
	b := confidenceScale.Lookup(confidence)
	return Confidence{
		Tier:  b.Tier,
		Level: b.Level,
		Color: b.Level.Color(),
		Label: i18n.NewPrinter(c.locale).Sprintf(b.Title),
	}
}

// ConfidenceTier grades confidence with English labels.
func ConfidenceTier(confidence float64) Confidence { return english.Confidence(confidence) }
