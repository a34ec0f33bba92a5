package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/appgenius/appgenius/internal/project/models"
)

// PostgresRepository provides PostgreSQL-based generation storage operations
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// Ensure PostgresRepository implements Repository interface
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository and initializes
// its schema.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresRepository{pool: pool}
	if err := repo.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *PostgresRepository) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		framework TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		deploy_url TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_executions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		agent_id TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		progress INTEGER NOT NULL DEFAULT 0,
		output TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		duration_seconds INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS code_files (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		service TEXT NOT NULL,
		key TEXT NOT NULL,
		last_used TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, service)
	);

	CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);
	CREATE INDEX IF NOT EXISTS idx_executions_project ON agent_executions(project_id);
	CREATE INDEX IF NOT EXISTS idx_code_files_project ON code_files(project_id);
	`

	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *PostgresRepository) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (id, name, description, prompt, status, framework, category, deploy_url, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		project.ID, project.Name, project.Description, project.Prompt, string(project.Status),
		project.Framework, project.Category, project.DeployURL, project.UserID,
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, prompt, status, framework, category, deploy_url, user_id, created_at, updated_at
		FROM projects WHERE id = $1`, id)

	project, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (r *PostgresRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET name = $1, description = $2, prompt = $3, status = $4, framework = $5, category = $6, deploy_url = $7, updated_at = $8
		WHERE id = $9`,
		project.Name, project.Description, project.Prompt, string(project.Status),
		project.Framework, project.Category, project.DeployURL, project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project not found: %s", project.ID)
	}
	return nil
}

func (r *PostgresRepository) UpdateProjectStatus(ctx context.Context, id string, status models.ProjectStatus, deployURL string) error {
	var tag pgconn.CommandTag
	var err error
	if deployURL != "" {
		tag, err = r.pool.Exec(ctx,
			`UPDATE projects SET status = $1, deploy_url = $2, updated_at = $3 WHERE id = $4`,
			string(status), deployURL, time.Now().UTC(), id)
	} else {
		tag, err = r.pool.Exec(ctx,
			`UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3`,
			string(status), time.Now().UTC(), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *PostgresRepository) DeleteProject(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *PostgresRepository) ListProjects(ctx context.Context, userID string, filter ProjectFilter) ([]*models.Project, error) {
	query := `
		SELECT id, name, description, prompt, status, framework, category, deploy_url, user_id, created_at, updated_at
		FROM projects WHERE user_id = $1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
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

func (r *PostgresRepository) CreateExecution(ctx context.Context, exec *models.AgentExecution) error {
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.StartedAt.IsZero() {
		exec.StartedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO agent_executions (id, project_id, agent_id, agent_name, status, progress, output, error, started_at, completed_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		exec.ID, exec.ProjectID, exec.AgentID, exec.AgentName, string(exec.Status),
		exec.Progress, exec.Output, exec.Error, exec.StartedAt, exec.CompletedAt, exec.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateExecution(ctx context.Context, exec *models.AgentExecution) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agent_executions SET status = $1, progress = $2, output = $3, error = $4, completed_at = $5, duration_seconds = $6
		WHERE id = $7`,
		string(exec.Status), exec.Progress, exec.Output, exec.Error,
		exec.CompletedAt, exec.DurationSeconds, exec.ID)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("execution not found: %s", exec.ID)
	}
	return nil
}

func (r *PostgresRepository) ListExecutions(ctx context.Context, projectID string) ([]*models.AgentExecution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, agent_id, agent_name, status, progress, output, error, started_at, completed_at, duration_seconds
		FROM agent_executions WHERE project_id = $1 ORDER BY started_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []*models.AgentExecution
	for rows.Next() {
		var exec models.AgentExecution
		var status string
		err := rows.Scan(&exec.ID, &exec.ProjectID, &exec.AgentID, &exec.AgentName, &status,
			&exec.Progress, &exec.Output, &exec.Error, &exec.StartedAt, &exec.CompletedAt, &exec.DurationSeconds)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		exec.Status = models.ExecutionStatus(status)
		executions = append(executions, &exec)
	}
	return executions, rows.Err()
}

func (r *PostgresRepository) CreateCodeFile(ctx context.Context, file *models.CodeFile) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO code_files (id, project_id, filename, content, language, agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		file.ID, file.ProjectID, file.Filename, file.Content, file.Language, file.Agent, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create code file: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListCodeFiles(ctx context.Context, projectID string) ([]*models.CodeFile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, filename, content, language, agent, created_at
		FROM code_files WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
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

func (r *PostgresRepository) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, user_id, name, service, key, last_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.UserID, key.Name, key.Service, key.Key, key.LastUsed, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAPIKeyByService(ctx context.Context, userID, service string) (*models.APIKey, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, service, key, last_used, created_at
		FROM api_keys WHERE user_id = $1 AND service = $2`, userID, service)

	key, err := scanAPIKey(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("api key not found for service: %s", service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	return key, nil
}

func (r *PostgresRepository) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, service, key, last_used, created_at
		FROM api_keys WHERE user_id = $1 ORDER BY created_at ASC`, userID)
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

func (r *PostgresRepository) DeleteAPIKey(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key not found: %s", id)
	}
	return nil
}

func (r *PostgresRepository) TouchAPIKey(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key not found: %s", id)
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
