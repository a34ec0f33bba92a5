// Package lifecycle enforces project status transitions during generation.
package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

// Tracker moves projects through the building -> deployed|error lifecycle.
// Transitions are monotonic: once a project reaches a terminal status it
// never returns to building.
type Tracker struct {
	repo   repository.Repository
	logger *logger.Logger
}

func NewTracker(repo repository.Repository, lg *logger.Logger) *Tracker {
	return &Tracker{repo: repo, logger: lg}
}

// Begin marks the project as building. Only draft projects (or projects
// created directly into building) may enter the pipeline.
func (t *Tracker) Begin(ctx context.Context, projectID string) error {
	project, err := t.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Status.Terminal() {
		return fmt.Errorf("project %s already finished with status %s", projectID, project.Status)
	}
	if project.Status == models.ProjectStatusBuilding {
		return nil
	}
	return t.repo.UpdateProjectStatus(ctx, projectID, models.ProjectStatusBuilding, "")
}

// Deployed marks the project deployed and records its deploy URL.
func (t *Tracker) Deployed(ctx context.Context, projectID string) (string, error) {
	deployURL := DeployURL(projectID)
	if err := t.repo.UpdateProjectStatus(ctx, projectID, models.ProjectStatusDeployed, deployURL); err != nil {
		return "", err
	}
	t.logger.Info("project deployed",
		zap.String("project_id", projectID),
		zap.String("deploy_url", deployURL))
	return deployURL, nil
}

// Failed marks the project as errored. A project already deployed stays
// deployed.
func (t *Tracker) Failed(ctx context.Context, projectID string) error {
	project, err := t.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Status == models.ProjectStatusDeployed {
		return nil
	}
	return t.repo.UpdateProjectStatus(ctx, projectID, models.ProjectStatusError, "")
}

// DeployURL derives the placeholder deployment address for a project.
func DeployURL(projectID string) string {
	return fmt.Sprintf("https://demo-%s.vercel.app", projectID)
}
