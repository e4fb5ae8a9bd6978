package bootstrap

import (
	"strings"

	"spam-trainer/internal/domain"
)

// GetStages returns the processing stages shown for the configured model type.
func (a *App) GetStages() domain.StagePlan {
	a.mu.Lock()
	modelType := a.Settings.ModelType
	a.mu.Unlock()

	return planForModel(modelType)
}

// GetModelTypes lists the model types the training service accepts.
func (a *App) GetModelTypes() []domain.StagePlan {
	return domain.Plans()
}

// currentStages is read by the workflow at the start of every submission.
func (a *App) currentStages() []domain.StageDescriptor {
	return a.GetStages().Stages
}

// planForModel falls back to the default plan for unknown or empty model types.
func planForModel(modelType string) domain.StagePlan {
	if plan, ok := domain.PlanFor(strings.TrimSpace(modelType)); ok {
		return plan
	}
	return domain.NaiveBayesPlan()
}
