package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"todo-tree/app/models"
)

func TestPatchColumns(t *testing.T) {
	title := "Pick brand"
	done := true
	parent := "0190123d-c9c0-7000-8000-000000000000"

	p := Patch{Title: &title, Completed: &done, ParentID: models.Some(&parent)}
	assert.Equal(t, map[string]any{
		ColumnTitle:     "Pick brand",
		ColumnCompleted: true,
		ColumnParentID:  parent,
	}, p.Columns())

	assert.Equal(t, map[string]any{ColumnParentID: nil}, ClearParent().Columns())
	assert.Empty(t, Patch{}.Columns())
	assert.True(t, Patch{}.Empty())
}

func TestPatchApply(t *testing.T) {
	parent := "p1"
	todo := models.Todo{ID: "a", Title: "Old title", Description: "keep", ParentID: &parent}

	title := "New title"
	Patch{Title: &title}.Apply(&todo)
	assert.Equal(t, "New title", todo.Title)
	assert.Equal(t, "keep", todo.Description)
	assert.NotNil(t, todo.ParentID)

	ClearParent().Apply(&todo)
	assert.Nil(t, todo.ParentID)
}

func TestPatchFromInput(t *testing.T) {
	in := models.UpdateTodoInput{
		Description: models.Some(""),
		Completed:   models.Some(false),
	}
	p := PatchFromInput(in)

	assert.Nil(t, p.Title)
	if assert.NotNil(t, p.Description) {
		assert.Equal(t, "", *p.Description)
	}
	if assert.NotNil(t, p.Completed) {
		assert.False(t, *p.Completed)
	}
	assert.False(t, p.ParentID.Set)
}
