// internal/repository/task_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

type TaskRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{
		db:  db,
		now: time.Now,
	}
}

// TaskInput is a new task as submitted.
type TaskInput struct {
	models.CreateTaskRequest
	ReporterID string
	ProjectID  string
}

type ListFilter struct {
	ProjectID string
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// Create stores a new task and assigns it the next TASK-nnn id.
func (r *TaskRepository) Create(ctx context.Context, in *TaskInput) (*models.Task, error) {
	now := r.now().UTC()
	t := models.Task{
		Title:          in.Title,
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		DueDate:        in.DueDate,
		StartDate:      in.StartDate,
		Labels:         in.Labels,
		EstimatedHours: in.EstimatedHours,
		ProjectID:      in.ProjectID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, id := range in.AssigneeIDs {
		t.Assignees = append(t.Assignees, models.User{ID: id})
	}
	if in.ReporterID != "" {
		t.Reporter = &models.User{ID: in.ReporterID}
	}

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var seq int64
		if err := tx.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) FROM tasks`); err != nil {
			return fmt.Errorf("next task seq: %w", err)
		}
		seq++
		t.ID = fmt.Sprintf("TASK-%03d", seq)
		return r.insert(ctx, tx, t, seq)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, t.ID)
}

// Import stores a complete task aggregate as given. Used for fixtures.
func (r *TaskRepository) Import(ctx context.Context, t models.Task) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var seq int64
		if err := tx.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) FROM tasks`); err != nil {
			return fmt.Errorf("next task seq: %w", err)
		}
		if n, ok := parseSeq(t.ID); ok && n > seq {
			seq = n
		} else {
			seq++
		}
		return r.insert(ctx, tx, t, seq)
	})
}

func parseSeq(id string) (int64, bool) {
	var n int64
	if _, err := fmt.Sscanf(id, "TASK-%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

func (r *TaskRepository) insert(ctx context.Context, tx *sqlx.Tx, t models.Task, seq int64) error {
	if err := checkTitle(ctx, tx, t.Title, ""); err != nil {
		return err
	}

	userIDs := make([]string, 0, len(t.Assignees)+1)
	for _, a := range t.Assignees {
		userIDs = append(userIDs, a.ID)
	}
	reporterID := ""
	if t.Reporter != nil {
		reporterID = t.Reporter.ID
		userIDs = append(userIDs, reporterID)
	}
	if err := checkUsers(ctx, tx, userIDs); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, seq, t.Title, t.Description, string(t.Status), string(t.Priority), nullString(reporterID),
		nullMillis(t.DueDate), nullMillis(t.StartDate), encodeLabels(t.Labels),
		nullFloat(t.EstimatedHours), nullFloat(t.TimeSpent), t.ProjectID, t.ParentTaskID,
		toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	if err := replaceAssignees(ctx, tx, t.ID, t.AssigneeIDs()); err != nil {
		return err
	}
	for i, s := range t.Subtasks {
		assignee := ""
		if s.Assignee != nil {
			assignee = s.Assignee.ID
		}
		completed := 0
		if s.Completed {
			completed = 1
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO subtasks
			(id, task_id, title, completed, assignee_id, due_date, completed_at, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			s.ID, t.ID, s.Title, completed, nullString(assignee), nullMillis(s.DueDate), nullMillis(s.CompletedAt), i,
		); err != nil {
			return fmt.Errorf("insert subtask: %w", err)
		}
	}
	if err := insertComments(ctx, tx, t.ID, "", t.Comments); err != nil {
		return err
	}
	for _, a := range t.Attachments {
		if err := insertAttachment(ctx, tx, t.ID, a, ""); err != nil {
			return err
		}
	}
	return nil
}

func insertComments(ctx context.Context, tx *sqlx.Tx, taskID, parentID string, comments []models.Comment) error {
	for _, c := range comments {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO comments
			(id, task_id, parent_id, author_id, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			c.ID, taskID, parentID, c.Author.ID, c.Content, toMillis(c.CreatedAt), nullMillis(c.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		if err := insertComments(ctx, tx, taskID, c.ID, c.Replies); err != nil {
			return err
		}
	}
	return nil
}

func insertAttachment(ctx context.Context, tx *sqlx.Tx, taskID string, a models.Attachment, storagePath string) error {
	uploadedBy := ""
	if a.UploadedBy != nil {
		uploadedBy = a.UploadedBy.ID
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO attachments
		(id, task_id, name, size, type, url, storage_path, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, taskID, a.Name, a.Size, a.Type, a.URL, storagePath, nullString(uploadedBy), toMillis(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func replaceAssignees(ctx context.Context, tx *sqlx.Tx, taskID string, userIDs []string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM task_assignees WHERE task_id = ?`), taskID); err != nil {
		return fmt.Errorf("clear assignees: %w", err)
	}
	seen := map[string]bool{}
	pos := 0
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO task_assignees (task_id, user_id, position) VALUES (?, ?, ?)`),
			taskID, id, pos); err != nil {
			return fmt.Errorf("insert assignee: %w", err)
		}
		pos++
	}
	return nil
}

// checkTitle rejects a title already used by a task other than exceptID.
func checkTitle(ctx context.Context, tx *sqlx.Tx, title, exceptID string) error {
	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM tasks WHERE title = ? AND id <> ?`), title, exceptID); err != nil {
		return fmt.Errorf("check title: %w", err)
	}
	if n > 0 {
		return ErrDuplicateTitle
	}
	return nil
}

func checkUsers(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`SELECT id FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build user query: %w", err)
	}
	var found []string
	if err := tx.SelectContext(ctx, &found, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	known := make(map[string]bool, len(found))
	for _, id := range found {
		known[id] = true
	}
	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("%w: %s", ErrUnknownUser, id)
		}
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	tasks, err := r.hydrate(ctx, []taskRow{row})
	if err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// List returns one page of tasks and the total number matching filter.
func (r *TaskRepository) List(ctx context.Context, filter ListFilter) ([]models.Task, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.Search != "" {
		// Search in title and description
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	// Get total count before pagination
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM tasks`+clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + clause + orderBy(filter.SortBy, filter.SortOrder)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}
	tasks, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func orderBy(sortBy, sortOrder string) string {
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	switch sortBy {
	case "created_at", "updated_at", "due_date":
		return " ORDER BY " + sortBy + " " + dir + ", seq"
	case "priority":
		// Custom order for priority
		return " ORDER BY CASE priority WHEN 'critical' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 WHEN 'low' THEN 4 END, seq"
	default:
		return " ORDER BY seq"
	}
}

// hydrate loads the relations of rows, keeping their order.
func (r *TaskRepository) hydrate(ctx context.Context, rows []taskRow) ([]models.Task, error) {
	tasks := make([]models.Task, len(rows))
	if len(rows) == 0 {
		return tasks, nil
	}

	ids := make([]string, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		index[row.ID] = i
		tasks[i] = row.toModel()
	}

	var (
		assignees   []assigneeRow
		attachments []attachmentRow
		subtasks    []subtaskRow
		comments    []commentRow
	)
	if err := r.selectIn(ctx, &assignees, `SELECT task_id, user_id FROM task_assignees WHERE task_id IN (?) ORDER BY position`, ids); err != nil {
		return nil, fmt.Errorf("load assignees: %w", err)
	}
	if err := r.selectIn(ctx, &attachments, `SELECT * FROM attachments WHERE task_id IN (?) ORDER BY created_at, id`, ids); err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}
	if err := r.selectIn(ctx, &subtasks, `SELECT * FROM subtasks WHERE task_id IN (?) ORDER BY position`, ids); err != nil {
		return nil, fmt.Errorf("load subtasks: %w", err)
	}
	if err := r.selectIn(ctx, &comments, `SELECT * FROM comments WHERE task_id IN (?) ORDER BY created_at, id`, ids); err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	var userIDs []string
	for _, row := range rows {
		if row.ReporterID.Valid {
			userIDs = append(userIDs, row.ReporterID.String)
		}
	}
	for _, a := range assignees {
		userIDs = append(userIDs, a.UserID)
	}
	for _, a := range attachments {
		if a.UploadedBy.Valid {
			userIDs = append(userIDs, a.UploadedBy.String)
		}
	}
	for _, s := range subtasks {
		if s.AssigneeID.Valid {
			userIDs = append(userIDs, s.AssigneeID.String)
		}
	}
	for _, c := range comments {
		userIDs = append(userIDs, c.AuthorID)
	}
	users, err := r.users(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	user := func(id string) models.User {
		if u, ok := users[id]; ok {
			return u
		}
		return models.User{ID: id}
	}
	userPtr := func(n sql.NullString) *models.User {
		if !n.Valid {
			return nil
		}
		u := user(n.String)
		return &u
	}

	for i, row := range rows {
		tasks[i].Reporter = userPtr(row.ReporterID)
	}
	for _, a := range assignees {
		t := &tasks[index[a.TaskID]]
		t.Assignees = append(t.Assignees, user(a.UserID))
	}
	for _, a := range attachments {
		t := &tasks[index[a.TaskID]]
		t.Attachments = append(t.Attachments, models.Attachment{
			ID:         a.ID,
			Name:       a.Name,
			Size:       a.Size,
			Type:       a.Type,
			URL:        a.URL,
			CreatedAt:  fromMillis(a.CreatedAt),
			UploadedBy: userPtr(a.UploadedBy),
		})
	}
	for _, s := range subtasks {
		t := &tasks[index[s.TaskID]]
		t.Subtasks = append(t.Subtasks, models.Subtask{
			ID:          s.ID,
			Title:       s.Title,
			Completed:   s.Completed != 0,
			Assignee:    userPtr(s.AssigneeID),
			DueDate:     timePtr(s.DueDate),
			CompletedAt: timePtr(s.CompletedAt),
		})
	}

	byTask := map[string][]commentRow{}
	for _, c := range comments {
		byTask[c.TaskID] = append(byTask[c.TaskID], c)
	}
	for taskID, cs := range byTask {
		tasks[index[taskID]].Comments = commentTree(cs, "", user)
	}
	return tasks, nil
}

// commentTree nests comments under their parents.
func commentTree(rows []commentRow, parentID string, user func(string) models.User) []models.Comment {
	out := []models.Comment{}
	for _, c := range rows {
		if c.ParentID != parentID {
			continue
		}
		out = append(out, models.Comment{
			ID:        c.ID,
			Author:    user(c.AuthorID),
			Content:   c.Content,
			CreatedAt: fromMillis(c.CreatedAt),
			UpdatedAt: timePtr(c.UpdatedAt),
			Replies:   commentTree(rows, c.ID, user),
		})
	}
	if len(out) == 0 && parentID != "" {
		return nil
	}
	return out
}

func (r *TaskRepository) selectIn(ctx context.Context, dest any, query string, ids []string) error {
	q, args, err := sqlx.In(query, ids)
	if err != nil {
		return err
	}
	return r.db.SelectContext(ctx, dest, r.db.Rebind(q), args...)
}

func (r *TaskRepository) users(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := map[string]models.User{}
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	q, args, err := sqlx.In(`SELECT id, name, email, avatar FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Update applies the fields set in input. Absent fields keep their value.
func (r *TaskRepository) Update(ctx context.Context, id string, input models.UpdateTaskRequest) (*models.Task, error) {
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM tasks WHERE id = ?`), id); err != nil {
			return fmt.Errorf("find task: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		sets := []string{"updated_at = ?"}
		args := []any{toMillis(r.now())}

		if input.Title != nil {
			if err := checkTitle(ctx, tx, *input.Title, id); err != nil {
				return err
			}
			sets = append(sets, "title = ?")
			args = append(args, *input.Title)
		}
		if input.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *input.Description)
		}
		if input.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, string(*input.Status))
		}
		if input.Priority != nil {
			sets = append(sets, "priority = ?")
			args = append(args, string(*input.Priority))
		}
		if input.DueDate != nil {
			sets = append(sets, "due_date = ?")
			args = append(args, toMillis(*input.DueDate))
		}
		if input.StartDate != nil {
			sets = append(sets, "start_date = ?")
			args = append(args, toMillis(*input.StartDate))
		}
		if input.Labels != nil {
			sets = append(sets, "labels = ?")
			args = append(args, encodeLabels(input.Labels))
		}
		if input.EstimatedHours != nil {
			sets = append(sets, "estimated_hours = ?")
			args = append(args, *input.EstimatedHours)
		}

		args = append(args, id)
		if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...); err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		if input.AssigneeIDs != nil {
			if err := checkUsers(ctx, tx, input.AssigneeIDs); err != nil {
				return err
			}
			if err := replaceAssignees(ctx, tx, id, input.AssigneeIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a task and everything it owns.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		for _, table := range []string{"task_assignees", "attachments", "subtasks", "comments"} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+table+` WHERE task_id = ?`), id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		return nil
	})
}

// AddAttachment records a stored file against taskID.
func (r *TaskRepository) AddAttachment(ctx context.Context, taskID string, a models.Attachment, storagePath string) (*models.Attachment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM tasks WHERE id = ?`), taskID); err != nil {
			return fmt.Errorf("find task: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		if err := insertAttachment(ctx, tx, taskID, a, storagePath); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE tasks SET updated_at = ? WHERE id = ?`), toMillis(r.now()), taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAttachment returns an attachment and where its content is stored.
func (r *TaskRepository) GetAttachment(ctx context.Context, taskID, attachmentID string) (*models.Attachment, string, error) {
	var row attachmentRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT * FROM attachments WHERE task_id = ? AND id = ?`), taskID, attachmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get attachment: %w", err)
	}
	return &models.Attachment{
		ID:        row.ID,
		Name:      row.Name,
		Size:      row.Size,
		Type:      row.Type,
		URL:       row.URL,
		CreatedAt: fromMillis(row.CreatedAt),
	}, row.StoragePath, nil
}

// DeleteAttachment removes the record and returns where its content was
// stored so the caller can remove it.
func (r *TaskRepository) DeleteAttachment(ctx context.Context, taskID, attachmentID string) (string, error) {
	_, storagePath, err := r.GetAttachment(ctx, taskID, attachmentID)
	if err != nil {
		return "", err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM attachments WHERE task_id = ? AND id = ?`), taskID, attachmentID); err != nil {
		return "", fmt.Errorf("delete attachment: %w", err)
	}
	return storagePath, nil
}

// UpsertUser creates or refreshes a user record.
func (r *TaskRepository) UpsertUser(ctx context.Context, u models.User) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO users (id, name, email, avatar) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email, avatar = excluded.avatar`),
		u.ID, u.Name, u.Email, u.Avatar)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// ListUsers returns every known user ordered by id.
func (r *TaskRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT id, name, email, avatar FROM users`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *TaskRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		return rollback(tx, err)
	}
	return tx.Commit()
}

// Helper function for transaction rollback
func rollback(tx *sqlx.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}
