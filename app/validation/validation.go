// Package validation holds the input checks run by the todo service before
// any storage access.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"todo-tree/app/apperrors"
	"todo-tree/app/models"
)

// MinTitleLength is the minimum number of characters in a trimmed title.
const MinTitleLength = 3

var (
	validate = validator.New(validator.WithRequiredStructEnabled())
	titleTag = fmt.Sprintf("required,min=%d", MinTitleLength)
)

// Title trims raw and checks its length. The trimmed title is returned.
func Title(op, raw string) (string, error) {
	title := strings.TrimSpace(raw)
	// min counts runes for strings.
	if err := validate.Var(title, titleTag); err != nil {
		return "", apperrors.Validation(op, "", fmt.Sprintf("title must be at least %d characters", MinTitleLength))
	}
	return title, nil
}

// ID checks that id is a well-formed UUID.
func ID(op, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.Validation(op, id, fmt.Sprintf("malformed todo id %q", id))
	}
	return nil
}

// Order parses a sort direction case-insensitively. Empty means descending.
func Order(raw string) (models.Order, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return models.OrderDesc, nil
	case string(models.OrderAsc):
		return models.OrderAsc, nil
	case string(models.OrderDesc):
		return models.OrderDesc, nil
	default:
		return "", apperrors.Validation("findAll", "", fmt.Sprintf("order must be asc or desc, got %q", raw))
	}
}

// Create validates and normalizes a create request.
func Create(in models.CreateTodoInput) (models.CreateTodoInput, error) {
	title, err := Title("create", in.Title)
	if err != nil {
		return in, err
	}
	in.Title = title

	if in.ParentID != nil {
		if *in.ParentID == "" {
			in.ParentID = nil
		} else if err := ID("create", *in.ParentID); err != nil {
			return in, err
		}
	}
	return in, nil
}

// Update validates and normalizes a partial update of the todo id.
func Update(id string, in models.UpdateTodoInput) (models.UpdateTodoInput, error) {
	if err := ID("update", id); err != nil {
		return in, err
	}

	if in.Title.Null {
		return in, apperrors.Validation("update", id, "title cannot be null")
	}
	if in.Completed.Null {
		return in, apperrors.Validation("update", id, "completed cannot be null")
	}
	if in.Description.Null {
		in.Description = models.Some("")
	}

	if in.Title.Set {
		title, err := Title("update", in.Title.Value)
		if err != nil {
			return in, err
		}
		in.Title.Value = title
	}

	if in.ParentID.Set && in.ParentID.Value != nil {
		parentID := *in.ParentID.Value
		if parentID == id {
			return in, apperrors.Validation("update", id, "cannot set self as parent")
		}
		if err := ID("update", parentID); err != nil {
			return in, err
		}
	}
	return in, nil
}
