package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/appgenius/appgenius/internal/project/models"
)

func TestMemoryProjectCRUD(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	project := &models.Project{
		Name:   "Todo",
		Prompt: "Build a todo app",
		Status: models.ProjectStatusBuilding,
		UserID: "u1",
	}
	if err := repo.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.ID == "" {
		t.Fatal("Expected generated project ID")
	}

	got, err := repo.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "Todo" || got.UserID != "u1" {
		t.Errorf("Unexpected project: %+v", got)
	}

	got.Name = "Todo v2"
	if err := repo.UpdateProject(ctx, got); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	updated, _ := repo.GetProject(ctx, project.ID)
	if updated.Name != "Todo v2" {
		t.Errorf("Update not applied: %q", updated.Name)
	}

	if err := repo.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := repo.GetProject(ctx, project.ID); err == nil {
		t.Error("Expected error for deleted project")
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	project := &models.Project{Name: "Todo", UserID: "u1", Status: models.ProjectStatusDraft}
	repo.CreateProject(ctx, project)

	got, _ := repo.GetProject(ctx, project.ID)
	got.Name = "mutated"

	again, _ := repo.GetProject(ctx, project.ID)
	if again.Name != "Todo" {
		t.Error("GetProject must return a copy, not shared state")
	}
}

func TestMemoryUpdateProjectStatus(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	project := &models.Project{Name: "Todo", UserID: "u1", Status: models.ProjectStatusBuilding}
	repo.CreateProject(ctx, project)

	if err := repo.UpdateProjectStatus(ctx, project.ID, models.ProjectStatusDeployed, "https://demo.example"); err != nil {
		t.Fatalf("UpdateProjectStatus failed: %v", err)
	}

	got, _ := repo.GetProject(ctx, project.ID)
	if got.Status != models.ProjectStatusDeployed {
		t.Errorf("Expected deployed, got %s", got.Status)
	}
	if got.DeployURL != "https://demo.example" {
		t.Errorf("Expected deploy URL, got %q", got.DeployURL)
	}

	if err := repo.UpdateProjectStatus(ctx, "missing", models.ProjectStatusError, ""); err == nil {
		t.Error("Expected error for unknown project")
	}
}

func TestMemoryListProjects(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status := models.ProjectStatusDraft
		if i == 0 {
			status = models.ProjectStatusDeployed
		}
		repo.CreateProject(ctx, &models.Project{
			Name:        fmt.Sprintf("Project %d", i),
			Description: "a generated app",
			Status:      status,
			UserID:      "u1",
			CreatedAt:   time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
	}
	repo.CreateProject(ctx, &models.Project{Name: "Other", UserID: "u2", Status: models.ProjectStatusDraft})

	all, err := repo.ListProjects(ctx, "u1", ProjectFilter{})
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 projects for u1, got %d", len(all))
	}
	// Newest first.
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Error("Projects not sorted newest first")
		}
	}

	deployed, _ := repo.ListProjects(ctx, "u1", ProjectFilter{Status: models.ProjectStatusDeployed})
	if len(deployed) != 1 {
		t.Errorf("Expected 1 deployed project, got %d", len(deployed))
	}

	matched, _ := repo.ListProjects(ctx, "u1", ProjectFilter{Search: "project 1"})
	if len(matched) != 1 {
		t.Errorf("Expected 1 search match, got %d", len(matched))
	}

	limited, _ := repo.ListProjects(ctx, "u1", ProjectFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(limited))
	}
}

func TestMemoryListProjectsCap(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < defaultListLimit+10; i++ {
		repo.CreateProject(ctx, &models.Project{Name: fmt.Sprintf("p%d", i), UserID: "u1", Status: models.ProjectStatusDraft})
	}

	all, _ := repo.ListProjects(ctx, "u1", ProjectFilter{})
	if len(all) != defaultListLimit {
		t.Errorf("Expected cap of %d, got %d", defaultListLimit, len(all))
	}

	over, _ := repo.ListProjects(ctx, "u1", ProjectFilter{Limit: defaultListLimit + 5})
	if len(over) != defaultListLimit {
		t.Errorf("Limit above the cap must clamp to %d, got %d", defaultListLimit, len(over))
	}
}

func TestMemoryExecutions(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	project := &models.Project{Name: "Todo", UserID: "u1", Status: models.ProjectStatusBuilding}
	repo.CreateProject(ctx, project)

	exec := &models.AgentExecution{
		ProjectID: project.ID,
		AgentID:   "ui",
		AgentName: "UI/UX Designer",
		Status:    models.ExecutionStatusActive,
	}
	if err := repo.CreateExecution(ctx, exec); err != nil {
		t.Fatalf("CreateExecution failed: %v", err)
	}
	if exec.ID == "" || exec.StartedAt.IsZero() {
		t.Fatal("Expected generated ID and start time")
	}

	now := time.Now().UTC()
	exec.Status = models.ExecutionStatusCompleted
	exec.Progress = 100
	exec.Output = "raw output"
	exec.CompletedAt = &now
	exec.DurationSeconds = 3
	if err := repo.UpdateExecution(ctx, exec); err != nil {
		t.Fatalf("UpdateExecution failed: %v", err)
	}

	executions, err := repo.ListExecutions(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(executions) != 1 {
		t.Fatalf("Expected 1 execution, got %d", len(executions))
	}
	if executions[0].Status != models.ExecutionStatusCompleted || executions[0].Progress != 100 {
		t.Errorf("Finalization not applied: %+v", executions[0])
	}

	// Executions are deleted with their project.
	repo.DeleteProject(ctx, project.ID)
	left, _ := repo.ListExecutions(ctx, project.ID)
	if len(left) != 0 {
		t.Errorf("Expected cascade delete, got %d executions", len(left))
	}
}

func TestMemoryCodeFiles(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	project := &models.Project{Name: "Todo", UserID: "u1", Status: models.ProjectStatusBuilding}
	repo.CreateProject(ctx, project)

	file := &models.CodeFile{
		ProjectID: project.ID,
		Filename:  "components/App.tsx",
		Content:   "export default function Todo(){}",
		Language:  "tsx",
		Agent:     "ui",
	}
	if err := repo.CreateCodeFile(ctx, file); err != nil {
		t.Fatalf("CreateCodeFile failed: %v", err)
	}

	files, err := repo.ListCodeFiles(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListCodeFiles failed: %v", err)
	}
	if len(files) != 1 || files[0].Filename != "components/App.tsx" {
		t.Errorf("Unexpected files: %+v", files)
	}
}

func TestMemoryAPIKeys(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	key := &models.APIKey{UserID: "u1", Name: "work", Service: "cerebras", Key: "csk-abcdefghij1234567890"}
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	// One key per (user, service).
	dup := &models.APIKey{UserID: "u1", Service: "cerebras", Key: "csk-other0000000000000000"}
	if err := repo.CreateAPIKey(ctx, dup); err == nil {
		t.Error("Expected duplicate service key to be rejected")
	}

	got, err := repo.GetAPIKeyByService(ctx, "u1", "cerebras")
	if err != nil {
		t.Fatalf("GetAPIKeyByService failed: %v", err)
	}
	if got.Key != key.Key {
		t.Errorf("Unexpected key value: %q", got.Key)
	}

	if _, err := repo.GetAPIKeyByService(ctx, "u2", "cerebras"); err == nil {
		t.Error("Keys must be scoped per user")
	}

	if err := repo.TouchAPIKey(ctx, key.ID); err != nil {
		t.Fatalf("TouchAPIKey failed: %v", err)
	}
	touched, _ := repo.GetAPIKeyByService(ctx, "u1", "cerebras")
	if touched.LastUsed == nil {
		t.Error("Expected last used time after touch")
	}

	keys, _ := repo.ListAPIKeys(ctx, "u1")
	if len(keys) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(keys))
	}

	if err := repo.DeleteAPIKey(ctx, key.ID); err != nil {
		t.Fatalf("DeleteAPIKey failed: %v", err)
	}
	if _, err := repo.GetAPIKeyByService(ctx, "u1", "cerebras"); err == nil {
		t.Error("Expected error after delete")
	}
}
