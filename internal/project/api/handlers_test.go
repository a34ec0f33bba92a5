package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/project/models"
	"github.com/appgenius/appgenius/internal/project/repository"
)

func setupRouter(t *testing.T, repo repository.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	router := gin.New()
	SetupRoutes(router.Group("/api/v1"), repo, log)
	return router
}

func doRequest(router *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func seedProject(t *testing.T, repo repository.Repository, userID string) *models.Project {
	project := &models.Project{
		Name:   "Todo",
		Prompt: "Build a todo app",
		Status: models.ProjectStatusDeployed,
		UserID: userID,
	}
	if err := repo.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

func TestCreateAndGetProject(t *testing.T) {
	repo := repository.NewMemoryRepository()
	router := setupRouter(t, repo)

	rec := doRequest(router, http.MethodPost, "/api/v1/projects", "u1",
		`{"name":"Draft App","description":"an idea","framework":"react","category":"web"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created ProjectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if created.Status != string(models.ProjectStatusDraft) {
		t.Errorf("New projects start as drafts, got %q", created.Status)
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/projects/"+created.ID, "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestCreateProjectRequiresName(t *testing.T) {
	repo := repository.NewMemoryRepository()
	router := setupRouter(t, repo)

	rec := doRequest(router, http.MethodPost, "/api/v1/projects", "u1", `{"description":"nameless"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestGetProjectOwnership(t *testing.T) {
	repo := repository.NewMemoryRepository()
	router := setupRouter(t, repo)
	project := seedProject(t, repo, "u1")

	// Foreign projects read as not found.
	if rec := doRequest(router, http.MethodGet, "/api/v1/projects/"+project.ID, "u2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign project, got %d", rec.Code)
	}
}

func TestListProjectsFilters(t *testing.T) {
	repo := repository.NewMemoryRepository()
	router := setupRouter(t, repo)
	seedProject(t, repo, "u1")
	repo.CreateProject(context.Background(), &models.Project{
		Name: "Chat", Status: models.ProjectStatusError, UserID: "u1",
	})

	rec := doRequest(router, http.MethodGet, "/api/v1/projects?status=deployed", "u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp struct {
		Projects []ProjectResponse `json:"projects"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if resp.Count != 1 || resp.Projects[0].Name != "Todo" {
		t.Errorf("Unexpected filtered result: %+v", resp)
	}

	if rec := doRequest(router, http.MethodGet, "/api/v1/projects?limit=abc", "u1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestProjectSubResources(t *testing.T) {
	repo := repository.NewMemoryRepository()
	router := setupRouter(t, repo)
	project := seedProject(t, repo, "u1")
	ctx := context.Background()

	repo.CreateExecution(ctx, &models.AgentExecution{
		ProjectID: project.ID, AgentID: "ui", AgentName: "UI/UX Designer",
		Status: models.ExecutionStatusCompleted, Progress: 100,
	})
	repo.CreateCodeFile(ctx, &models.CodeFile{
		ProjectID: project.ID, Filename: "components/App.tsx", Content: "code", Language: "tsx", Agent: "ui",
	})

	rec := doRequest(router, http.MethodGet, "/api/v1/projects/"+project.ID+"/executions", "u1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"agent_id":"ui"`) {
		t.Errorf("Executions listing failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/projects/"+project.ID+"/files", "u1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "components/App.tsx") {
		t.Errorf("Files listing failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteProject(t *testing.T) {
	repo := repository.NewMemoryRepository()
	router := setupRouter(t, repo)
	project := seedProject(t, repo, "u1")

	if rec := doRequest(router, http.MethodDelete, "/api/v1/projects/"+project.ID, "u2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign delete, got %d", rec.Code)
	}
	if rec := doRequest(router, http.MethodDelete, "/api/v1/projects/"+project.ID, "u1", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for owner delete, got %d", rec.Code)
	}
	if _, err := repo.GetProject(context.Background(), project.ID); err == nil {
		t.Error("Project must be gone after delete")
	}
}
