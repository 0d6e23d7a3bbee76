package services

import (
	"context"
	"fmt"

	"todo-tree/app/apperrors"
	"todo-tree/app/events"
	"todo-tree/app/models"
	"todo-tree/app/repository"
	"todo-tree/app/validation"
)

// GenerateChildren asks the proposer for children of parentID and stores all
// of them, or none, through the normal create path.
func (s *TodoService) GenerateChildren(ctx context.Context, parentID string) ([]models.Todo, error) {
	if err := validation.ID("generateChildren", parentID); err != nil {
		return nil, err
	}

	parent, err := s.find(ctx, s.repo, "generateChildren", parentID)
	if err != nil {
		return nil, err
	}
	if parent.IsChild() {
		return nil, apperrors.Validation("generateChildren", parentID, "cannot create grandchild under a child")
	}

	proposals, err := s.proposer.Propose(ctx, parent.Title, parent.Description)
	if err != nil {
		return nil, fmt.Errorf("generateChildren %s: %w", parentID, err)
	}

	inputs := make([]models.CreateTodoInput, 0, len(proposals))
	for _, p := range proposals {
		description := p.Description
		in, err := validation.Create(models.CreateTodoInput{
			Title:       p.Title,
			Description: &description,
			ParentID:    &parentID,
		})
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	created := make([]models.Todo, 0, len(inputs))
	err = s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		created = created[:0]
		if _, err := s.checkParent(ctx, tx, "generateChildren", parentID); err != nil {
			return err
		}
		for _, in := range inputs {
			todo, err := s.insert(ctx, tx, in)
			if err != nil {
				return err
			}
			created = append(created, *todo)
		}
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			err = s.storageErr("generateChildren", parentID, err)
		}
		return nil, err
	}

	parentView := bare(*parent)
	out := make([]models.Todo, 0, len(created))
	for _, c := range created {
		s.publish(ctx, events.Event{Type: events.TodoCreated, ID: c.ID, ParentID: c.ParentID})
		view := bare(c)
		p := parentView
		view.Parent = &p
		out = append(out, view)
	}
	return out, nil
}
