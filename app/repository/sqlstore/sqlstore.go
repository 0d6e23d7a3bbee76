// Package sqlstore implements the todo repository on PostgreSQL with sqlx
// and squirrel.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"todo-tree/app/models"
	"todo-tree/app/repository"
)

//go:embed schema.sql
var schema string

// Executor can be satisfied by both *sqlx.DB and *sqlx.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ Executor = (*sqlx.DB)(nil)
	_ Executor = (*sqlx.Tx)(nil)
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var columns = []string{
	repository.ColumnID,
	repository.ColumnTitle,
	"COALESCE(" + repository.ColumnDescription + ", '') AS " + repository.ColumnDescription,
	repository.ColumnCompleted,
	repository.ColumnParentID,
}

type Store struct {
	db       *sqlx.DB
	executor Executor // Current executor (DB or TX)
}

var _ repository.Repository = (*Store)(nil)

func New(db *sqlx.DB) *Store {
	return &Store{db: db, executor: db}
}

// Migrate creates the todos table and its parent index if missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query, args, err := psql.Insert(repository.Table).
		Columns(
			repository.ColumnID,
			repository.ColumnTitle,
			repository.ColumnDescription,
			repository.ColumnCompleted,
			repository.ColumnParentID,
		).
		Values(todo.ID, todo.Title, todo.Description, todo.Completed, todo.ParentID).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := s.executor.ExecContext(ctx, query, args...); err != nil {
		return nil, translate("save", err)
	}

	saved := *todo
	saved.Parent, saved.Children = nil, nil
	return &saved, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	query, args, err := psql.Select(columns...).
		From(repository.Table).
		Where(squirrel.Eq{repository.ColumnID: id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var todo models.Todo
	if err := s.executor.GetContext(ctx, &todo, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, translate("findById", err)
	}
	return &todo, nil
}

func (s *Store) FindAll(ctx context.Context, order models.Order) ([]models.Todo, error) {
	return s.selectTodos(ctx, psql.Select(columns...).From(repository.Table), order)
}

func (s *Store) FindChildrenOf(ctx context.Context, parentID string, order models.Order) ([]models.Todo, error) {
	return s.selectTodos(ctx,
		psql.Select(columns...).
			From(repository.Table).
			Where(squirrel.Eq{repository.ColumnParentID: parentID}),
		order)
}

func (s *Store) Update(ctx context.Context, id string, patch repository.Patch) (int64, error) {
	return s.update(ctx, squirrel.Eq{repository.ColumnID: id}, patch)
}

func (s *Store) UpdateWhere(ctx context.Context, parentID string, patch repository.Patch) (int64, error) {
	return s.update(ctx, squirrel.Eq{repository.ColumnParentID: parentID}, patch)
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	query, args, err := psql.Delete(repository.Table).
		Where(squirrel.Eq{repository.ColumnID: id}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "delete", query, args)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repository) error) error {
	if _, isTransaction := s.executor.(*sqlx.Tx); isTransaction {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Store{db: s.db, executor: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

func (s *Store) selectTodos(ctx context.Context, builder squirrel.SelectBuilder, order models.Order) ([]models.Todo, error) {
	direction := "DESC"
	if order == models.OrderAsc {
		direction = "ASC"
	}

	query, args, err := builder.OrderBy(repository.ColumnID + " " + direction).ToSql()
	if err != nil {
		return nil, err
	}

	todos := []models.Todo{}
	if err := s.executor.SelectContext(ctx, &todos, query, args...); err != nil {
		return nil, translate("select", err)
	}
	return todos, nil
}

func (s *Store) update(ctx context.Context, where squirrel.Eq, patch repository.Patch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}

	query, args, err := psql.Update(repository.Table).
		SetMap(patch.Columns()).
		Where(where).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "update", query, args)
}

func (s *Store) exec(ctx context.Context, op, query string, args []interface{}) (int64, error) {
	res, err := s.executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, translate(op, err)
	}
	return affected, nil
}

// translate names the violated constraint for PostgreSQL errors.
func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Constraint != "" {
			return fmt.Errorf("%s: %s on %s: %w", op, pqErr.Code.Name(), pqErr.Constraint, err)
		}
		return fmt.Errorf("%s: %s: %w", op, pqErr.Code.Name(), err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
