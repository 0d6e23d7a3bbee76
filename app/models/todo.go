package models

import "time"

// Todo represents a todo with an optional parent ID.
// Parent, Children and CreatedAt are computed views filled by the service;
// only the parent_id column links rows.
type Todo struct {
	ID          string    `json:"id" db:"id" gorm:"primaryKey;type:text"`
	Title       string    `json:"title" db:"title" gorm:"type:text;not null"`
	Description string    `json:"description" db:"description" gorm:"type:text"`
	Completed   bool      `json:"completed" db:"completed" gorm:"not null;default:false"`
	ParentID    *string   `json:"parentId" db:"parent_id" gorm:"column:parent_id;type:text;index"`
	Parent      *Todo     `json:"parent,omitempty" db:"-" gorm:"-"`
	Children    []Todo    `json:"children" db:"-" gorm:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"-" gorm:"-"`
}

// TableName pins the gorm table name.
func (Todo) TableName() string {
	return "todos"
}

// IsChild reports whether the todo has a parent.
func (t Todo) IsChild() bool {
	return t.ParentID != nil
}

// CreateTodoInput carries the fields accepted when creating a todo.
type CreateTodoInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	ParentID    *string `json:"parentId,omitempty"`
}

// UpdateTodoInput carries a partial update. Unset fields are left unchanged.
// A null parentId detaches the todo and a null description clears it; null
// title or completed is rejected.
type UpdateTodoInput struct {
	Title       Optional[string]  `json:"title"`
	Description Optional[string]  `json:"description"`
	Completed   Optional[bool]    `json:"completed"`
	ParentID    Optional[*string] `json:"parentId"`
}

// Empty reports whether no field was provided.
func (in UpdateTodoInput) Empty() bool {
	return !in.Title.Set && !in.Description.Set && !in.Completed.Set && !in.ParentID.Set
}

// Order is the canonical sort direction over todo ids.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// RemoveResult reports what happened to the children of a removed todo.
type RemoveResult struct {
	Message    string `json:"message"`
	Cascaded   bool   `json:"cascaded"`
	ChildCount int    `json:"childCount"`
}

// ChildProposal is a suggested child todo produced by a generator.
type ChildProposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
