package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tree/app/apperrors"
	"todo-tree/app/models"
)

const validID = "0190123d-c9c0-7000-8000-000000000000"

func TestTitle(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", "Buy milk", "Buy milk", false},
		{"trimmed", "   Buy milk \t", "Buy milk", false},
		{"exactly three", "abc", "abc", false},
		{"three after trim", "  abc  ", "abc", false},
		{"too short", "ab", "", true},
		{"padding does not count", "  ab   ", "", true},
		{"empty", "", "", true},
		{"multibyte", "買い物", "買い物", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Title("create", tt.raw)
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestID(t *testing.T) {
	assert.NoError(t, ID("find", validID))
	assert.NoError(t, ID("find", "0190123dc9c070008000000000000000"))
	assert.True(t, apperrors.IsValidation(ID("find", "not-a-uuid")))
	assert.True(t, apperrors.IsValidation(ID("find", "")))
}

func TestOrder(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Order
		wantErr bool
	}{
		{"", models.OrderDesc, false},
		{"asc", models.OrderAsc, false},
		{"ASC", models.OrderAsc, false},
		{"Desc", models.OrderDesc, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Order(tt.raw)
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreate(t *testing.T) {
	empty := ""
	in, err := Create(models.CreateTodoInput{Title: "  Pick brand ", ParentID: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Pick brand", in.Title)
	assert.Nil(t, in.ParentID)

	bad := "nope"
	_, err = Create(models.CreateTodoInput{Title: "Pick brand", ParentID: &bad})
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateSelfParent(t *testing.T) {
	self := validID
	_, err := Update(validID, models.UpdateTodoInput{ParentID: models.Some(&self)})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "cannot set self as parent")
}

func TestUpdateNullParentAllowed(t *testing.T) {
	in, err := Update(validID, models.UpdateTodoInput{ParentID: models.Some[*string](nil)})
	require.NoError(t, err)
	assert.True(t, in.ParentID.Set)
	assert.Nil(t, in.ParentID.Value)
}

func TestUpdateNullFields(t *testing.T) {
	_, err := Update(validID, models.UpdateTodoInput{Title: models.Optional[string]{Set: true, Null: true}})
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "title cannot be null")

	_, err = Update(validID, models.UpdateTodoInput{Completed: models.Optional[bool]{Set: true, Null: true}})
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "completed cannot be null")

	in, err := Update(validID, models.UpdateTodoInput{Description: models.Optional[string]{Set: true, Null: true}})
	require.NoError(t, err)
	assert.Equal(t, models.Some(""), in.Description)
}
