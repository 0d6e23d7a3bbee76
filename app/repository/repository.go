// Package repository defines the persistence boundary for todos. It is the
// only writer of stored todo state.
package repository

import (
	"context"
	"errors"

	"todo-tree/app/models"
)

// ErrNotFound is returned by FindByID when no row matches.
var ErrNotFound = errors.New("todo not found")

// Column names shared by the SQL-backed stores.
const (
	Table             = "todos"
	ColumnID          = "id"
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnCompleted   = "completed"
	ColumnParentID    = "parent_id"
)

// Repository persists todos. Reads return rows without Parent/Children/CreatedAt;
// those views are assembled by the caller.
type Repository interface {
	Save(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	FindByID(ctx context.Context, id string) (*models.Todo, error)
	FindAll(ctx context.Context, order models.Order) ([]models.Todo, error)
	FindChildrenOf(ctx context.Context, parentID string, order models.Order) ([]models.Todo, error)
	Update(ctx context.Context, id string, patch Patch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	// UpdateWhere applies patch to every todo whose parent is parentID.
	UpdateWhere(ctx context.Context, parentID string, patch Patch) (int64, error)
	// WithinTx runs fn against a repository bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Repository) error) error
}

// Patch lists the fields to change. Nil pointers and an unset ParentID are
// left untouched; ParentID set to nil clears the parent.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	ParentID    models.Optional[*string]
}

// ClearParent is the patch used to orphan or detach todos.
func ClearParent() Patch {
	return Patch{ParentID: models.Some[*string](nil)}
}

// PatchFromInput converts a validated update request into a Patch.
func PatchFromInput(in models.UpdateTodoInput) Patch {
	var p Patch
	if in.Title.Set {
		v := in.Title.Value
		p.Title = &v
	}
	if in.Description.Set {
		v := in.Description.Value
		p.Description = &v
	}
	if in.Completed.Set {
		v := in.Completed.Value
		p.Completed = &v
	}
	p.ParentID = in.ParentID
	return p
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && !p.ParentID.Set
}

// Columns maps the patch to column values. A cleared parent maps to nil.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, 4)
	if p.Title != nil {
		cols[ColumnTitle] = *p.Title
	}
	if p.Description != nil {
		cols[ColumnDescription] = *p.Description
	}
	if p.Completed != nil {
		cols[ColumnCompleted] = *p.Completed
	}
	if p.ParentID.Set {
		if p.ParentID.Value == nil {
			cols[ColumnParentID] = nil
		} else {
			cols[ColumnParentID] = *p.ParentID.Value
		}
	}
	return cols
}

// Apply writes the patch onto todo in place.
func (p Patch) Apply(todo *models.Todo) {
	if p.Title != nil {
		todo.Title = *p.Title
	}
	if p.Description != nil {
		todo.Description = *p.Description
	}
	if p.Completed != nil {
		todo.Completed = *p.Completed
	}
	if p.ParentID.Set {
		if p.ParentID.Value == nil {
			todo.ParentID = nil
		} else {
			v := *p.ParentID.Value
			todo.ParentID = &v
		}
	}
}
