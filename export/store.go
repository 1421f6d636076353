package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const taskTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	request TEXT NOT NULL,
	graph TEXT NOT NULL,
	state TEXT NOT NULL,
	output TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Store is the sqlite ledger of export tasks.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(taskTable); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, t *Task) error {
	request, err := json.Marshal(t.Request)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, request, graph, state, output, error, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(request), string(t.Graph), string(t.State), t.Output, t.Error, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"task": t.ID, "state": t.State}).Info("Saved export task")
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, graph, state, output, error, created_at, updated_at FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t, err
}

// List returns every task, oldest first.
func (s *Store) List(ctx context.Context) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request, graph, state, output, error, created_at, updated_at FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Transition moves a task to a new state and records its output path or
// failure text. Transitions not allowed by State.CanTransition fail with
// ErrTaskState and leave the task unchanged.
func (s *Store) Transition(ctx context.Context, id string, to State, output, errText string) (*Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logrus.Error(err)
		}
	}()

	var from State
	err = tx.QueryRowContext(ctx, `SELECT state FROM tasks WHERE id = ?`, id).Scan(&from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s for task %s", ErrTaskState, from, to, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET state = ?, output = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(to), output, errText, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"task": id, "from": from, "to": to}).Info("Export task transitioned")
	return s.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t                Task
		request, graph   string
		state            string
		createdAt, updAt time.Time
	)
	if err := row.Scan(&t.ID, &request, &graph, &state, &t.Output, &t.Error, &createdAt, &updAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(request), &t.Request); err != nil {
		return nil, err
	}
	t.Graph = json.RawMessage(graph)
	t.State = State(state)
	t.CreatedAt = createdAt.UTC()
	t.UpdatedAt = updAt.UTC()
	return &t, nil
}
