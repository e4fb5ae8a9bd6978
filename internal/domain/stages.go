package domain

import "time"

// StagePlan lists the simulated processing steps shown for one model type.
type StagePlan struct {
	ModelType string            `json:"modelType"`
	Name      string            `json:"name"`
	Stages    []StageDescriptor `json:"stages"`
}

// TotalDuration sums the estimated duration of every stage.
func (p StagePlan) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range p.Stages {
		total += stage.Duration
	}
	return total
}

// NaiveBayesPlan is the stage sequence for TF-IDF + Naive Bayes training.
func NaiveBayesPlan() StagePlan {
	return StagePlan{
		ModelType: DefaultModelType,
		Name:      "TF-IDF + Multinomial Naive Bayes",
		Stages: []StageDescriptor{
			{ID: "step1", Label: "Loading Dataset", Duration: 1000 * time.Millisecond, Description: "Reading CSV file and validating structure"},
			{ID: "step2", Label: "Analyzing Distribution", Duration: 1500 * time.Millisecond, Description: "Calculating class distribution and balancing"},
			{ID: "step3", Label: "Text Preprocessing", Duration: 2000 * time.Millisecond, Description: "Cleaning and processing email text"},
			{ID: "step4", Label: "TF-IDF Vectorization", Duration: 2500 * time.Millisecond, Description: "Converting text to numerical features"},
			{ID: "step5", Label: "Training Naive Bayes", Duration: 3000 * time.Millisecond, Description: "Training model and evaluating performance"},
			{ID: "step6", Label: "Generating Visualizations", Duration: 2000 * time.Millisecond, Description: "Creating charts and word clouds"},
		},
	}
}

// Plans lists every model type the training service accepts.
func Plans() []StagePlan {
	return []StagePlan{NaiveBayesPlan()}
}

// PlanFor returns the stage plan of modelType.
func PlanFor(modelType string) (StagePlan, bool) {
	for _, plan := range Plans() {
		if plan.ModelType == modelType {
			return plan, true
		}
	}
	return StagePlan{}, false
}
