package domain

import (
	"bytes"
	"encoding/json"
)

// Prediction labels returned by the classification service.
const (
	LabelHam  = "Ham"
	LabelSpam = "Spam"
)

// JobResult is the opaque training response, kept byte-for-byte as received.
type JobResult struct {
	Raw json.RawMessage
}

// IsZero reports whether the result carries no payload.
func (r JobResult) IsZero() bool {
	return len(bytes.TrimSpace(r.Raw)) == 0
}

// MarshalJSON emits the stored payload verbatim.
func (r JobResult) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// UnmarshalJSON keeps a private copy of the payload.
func (r *JobResult) UnmarshalJSON(data []byte) error {
	r.Raw = append(r.Raw[:0], data...)
	return nil
}

// Report decodes the payload into the typed view used by the results page.
func (r JobResult) Report() (TrainingReport, error) {
	var report TrainingReport
	if err := json.Unmarshal(r.Raw, &report); err != nil {
		return TrainingReport{}, err
	}
	return report, nil
}

// TrainingReport is a read-only typed view over a JobResult.
type TrainingReport struct {
	TestAccuracy             float64            `json:"test_accuracy"`
	TrainAccuracy            float64            `json:"train_accuracy"`
	VocabularySize           int                `json:"vocabulary_size"`
	BalancedSamples          int                `json:"balanced_samples"`
	TotalSamples             int                `json:"total_samples"`
	HamSamples               int                `json:"ham_samples"`
	SpamSamples              int                `json:"spam_samples"`
	TrainSamples             int                `json:"train_samples"`
	TestSamples              int                `json:"test_samples"`
	OriginalDistribution     map[string]int     `json:"original_distribution,omitempty"`
	OriginalDistributionPlot string             `json:"original_distribution_plot,omitempty"`
	BalancedDistributionPlot string             `json:"balanced_distribution_plot,omitempty"`
	HamWordCloud             string             `json:"ham_wordcloud,omitempty"`
	SpamWordCloud            string             `json:"spam_wordcloud,omitempty"`
	ConfusionMatrixPlot      string             `json:"confusion_matrix_plot,omitempty"`
	FeatureImportancePlot    string             `json:"feature_importance_plot,omitempty"`
	FeatureNamesSample       []string           `json:"feature_names_sample,omitempty"`
	TopSpamWords             []string           `json:"top_spam_words,omitempty"`
	TopHamWords              []string           `json:"top_ham_words,omitempty"`
	SamplePredictions        []SamplePrediction `json:"sample_predictions,omitempty"`
	ClassificationReport     json.RawMessage    `json:"classification_report,omitempty"`
}

// SamplePrediction is one held-out email scored by the trained model.
type SamplePrediction struct {
	Text            string  `json:"text"`
	Prediction      string  `json:"prediction"`
	HamProbability  float64 `json:"ham_probability"`
	SpamProbability float64 `json:"spam_probability"`
}

// PredictionResult is a single-email classification; never persisted.
type PredictionResult struct {
	Prediction      string  `json:"prediction"`
	HamProbability  float64 `json:"ham_probability"`
	SpamProbability float64 `json:"spam_probability"`
	ProcessedText   string  `json:"processed_text"`
}

// Confidence is the larger of the two class probabilities.
func (p PredictionResult) Confidence() float64 {
	if p.HamProbability > p.SpamProbability {
		return p.HamProbability
	}
	return p.SpamProbability
}

// HighConfidence reports whether the model is more than 90% sure.
func (p PredictionResult) HighConfidence() bool {
	return p.Confidence() > 0.9
}
