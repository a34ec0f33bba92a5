package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/appgenius/appgenius/internal/project/models"
)

// SQLiteRepository provides SQLite-based generation storage operations
type SQLiteRepository struct {
	db *sql.DB
}

// Ensure SQLiteRepository implements Repository interface
var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// initSchema creates the database tables if they don't exist
func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		prompt TEXT DEFAULT '',
		status TEXT DEFAULT 'draft',
		framework TEXT DEFAULT '',
		category TEXT DEFAULT '',
		deploy_url TEXT DEFAULT '',
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_executions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		agent_id TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		status TEXT DEFAULT 'active',
		progress INTEGER DEFAULT 0,
		output TEXT DEFAULT '',
		error TEXT DEFAULT '',
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		duration_seconds INTEGER DEFAULT 0,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS code_files (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		content TEXT DEFAULT '',
		language TEXT DEFAULT '',
		agent TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT DEFAULT '',
		service TEXT NOT NULL,
		key TEXT NOT NULL,
		last_used DATETIME,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, service)
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);
	CREATE INDEX IF NOT EXISTS idx_executions_project ON agent_executions(project_id);
	CREATE INDEX IF NOT EXISTS idx_code_files_project ON code_files(project_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, prompt, status, framework, category, deploy_url, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.Description, project.Prompt, string(project.Status),
		project.Framework, project.Category, project.DeployURL, project.UserID,
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, prompt, status, framework, category, deploy_url, user_id, created_at, updated_at
		FROM projects WHERE id = ?`, id)

	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, description = ?, prompt = ?, status = ?, framework = ?, category = ?, deploy_url = ?, updated_at = ?
		WHERE id = ?`,
		project.Name, project.Description, project.Prompt, string(project.Status),
		project.Framework, project.Category, project.DeployURL, project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	return nil
}

func (r *SQLiteRepository) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus, deployURL string) error {
	var result sql.Result
	var err error
	if deployURL != "" {
		result, err = r.db.ExecContext(ctx,
			`UPDATE projects SET status = ?, deploy_url = ?, updated_at = ? WHERE id = ?`,
			string(status), deployURL, time.Now().UTC(), id)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), time.Now().UTC(), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, userID string, filter ProjectFilter) ([]*models.Project, error) {
	query := `
		SELECT id, name, description, prompt, status, framework, category, deploy_url, user_id, created_at, updated_at
		FROM projects WHERE user_id = ?`
	args := []any{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		query += ` AND (name LIKE ? OR description LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) CreateExecution(ctx context.Context, exec *models.AgentExecution) error {
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agent_executions (id, project_id, agent_id, agent_name, status, progress, output, error, started_at, completed_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.ProjectID, exec.AgentID, exec.AgentName, string(exec.Status),
		exec.Progress, exec.Output, exec.Error, exec.StartedAt, exec.CompletedAt, exec.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateExecution(ctx context.Context, exec *models.AgentExecution) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE agent_executions SET status = ?, progress = ?, output = ?, error = ?, completed_at = ?, duration_seconds = ?
		WHERE id = ?`,
		string(exec.Status), exec.Progress, exec.Output, exec.Error,
		exec.CompletedAt, exec.DurationSeconds, exec.ID)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("execution not found: %s", exec.ID)
	}
	return nil
}

func (r *SQLiteRepository) ListExecutions(ctx context.Context, projectID string) ([]*models.AgentExecution, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, agent_id, agent_name, status, progress, output, error, started_at, completed_at, duration_seconds
		FROM agent_executions WHERE project_id = ? ORDER BY started_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []*models.AgentExecution
	for rows.Next() {
		var exec models.AgentExecution
		var status string
		var completedAt sql.NullTime
		err := rows.Scan(&exec.ID, &exec.ProjectID, &exec.AgentID, &exec.AgentName, &status,
			&exec.Progress, &exec.Output, &exec.Error, &exec.StartedAt, &completedAt, &exec.DurationSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		exec.Status = models.ExecutionStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			exec.CompletedAt = &t
		}
		executions = append(executions, &exec)
	}
	return executions, rows.Err()
}

func (r *SQLiteRepository) CreateCodeFile(ctx context.Context, file *models.CodeFile) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO code_files (id, project_id, filename, content, language, agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		file.ID, file.ProjectID, file.Filename, file.Content, file.Language, file.Agent, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create code file: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListCodeFiles(ctx context.Context, projectID string) ([]*models.CodeFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, filename, content, language, agent, created_at
		FROM code_files WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list code files: %w", err)
	}
	defer rows.Close()

	var files []*models.CodeFile
	for rows.Next() {
		var file models.CodeFile
		err := rows.Scan(&file.ID, &file.ProjectID, &file.Filename, &file.Content, &file.Language, &file.Agent, &file.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan code file: %w", err)
		}
		files = append(files, &file)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, user_id, name, service, key, last_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.ID, key.UserID, key.Name, key.Service, key.Key, key.LastUsed, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAPIKeyByService(ctx context.Context, userID, service string) (*models.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, service, key, last_used, created_at
		FROM api_keys WHERE user_id = ? AND service = ?`, userID, service)

	key, err := scanAPIKey(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("api key not found for service: %s", service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}

func (r *SQLiteRepository) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, service, key, last_used, created_at
		FROM api_keys WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *SQLiteRepository) DeleteAPIKey(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("api key not found: %s", id)
	}
	return nil
}

func (r *SQLiteRepository) TouchAPIKey(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("api key not found: %s", id)
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	var status string
	err := row.Scan(&project.ID, &project.Name, &project.Description, &project.Prompt, &status,
		&project.Framework, &project.Category, &project.DeployURL, &project.UserID,
		&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}
	project.Status = models.ProjectStatus(status)
	return &project, nil
}

func scanAPIKey(row rowScanner) (*models.APIKey, error) {
	var key models.APIKey
	var lastUsed sql.NullTime
	err := row.Scan(&key.ID, &key.UserID, &key.Name, &key.Service, &key.Key, &lastUsed, &key.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		key.LastUsed = &t
	}
	return &key, nil
}
