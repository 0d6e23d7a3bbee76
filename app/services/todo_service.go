package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-tree/app/apperrors"
	"todo-tree/app/events"
	"todo-tree/app/generator"
	"todo-tree/app/identifier"
	"todo-tree/app/logger"
	"todo-tree/app/models"
	"todo-tree/app/repository"
	"todo-tree/app/validation"
)

// TodoService handles todo operations and enforces the two-level hierarchy.
type TodoService struct {
	repo      repository.Repository
	newID     identifier.Generator
	proposer  generator.Proposer
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*TodoService)

func WithIDGenerator(g identifier.Generator) Option {
	return func(s *TodoService) { s.newID = g }
}

func WithProposer(p generator.Proposer) Option {
	return func(s *TodoService) { s.proposer = p }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *TodoService) { s.publisher = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *TodoService) { s.log = l }
}

// NewTodoService creates a new instance of TodoService.
func NewTodoService(repo repository.Repository, opts ...Option) *TodoService {
	s := &TodoService{
		repo:      repo,
		newID:     identifier.Generate,
		proposer:  generator.Template{},
		publisher: events.Nop{},
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a new todo, optionally under a top-level parent.
func (s *TodoService) Create(ctx context.Context, in models.CreateTodoInput) (*models.Todo, error) {
	in, err := validation.Create(in)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		if _, err := s.checkParent(ctx, s.repo, "create", *in.ParentID); err != nil {
			return nil, err
		}
	}

	todo, err := s.insert(ctx, s.repo, in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Type: events.TodoCreated, ID: todo.ID, ParentID: todo.ParentID})

	return s.FindOne(ctx, todo.ID)
}

// FindAll returns every todo with its parent and children, sorted by id.
// order is "asc" or "desc" in any case; empty means descending.
func (s *TodoService) FindAll(ctx context.Context, order string) ([]models.Todo, error) {
	dir, err := validation.Order(order)
	if err != nil {
		return nil, err
	}

	todos, err := s.repo.FindAll(ctx, dir)
	if err != nil {
		return nil, s.storageErr("findAll", "", err)
	}

	byID := make(map[string]models.Todo, len(todos))
	children := make(map[string][]models.Todo)
	for _, t := range todos {
		byID[t.ID] = t
		if t.ParentID != nil {
			children[*t.ParentID] = append(children[*t.ParentID], bare(t))
		}
	}

	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		view := bare(t)
		if t.ParentID != nil {
			if p, ok := byID[*t.ParentID]; ok {
				parent := bare(p)
				view.Parent = &parent
			}
		}
		if c, ok := children[t.ID]; ok {
			view.Children = c
		}
		out = append(out, view)
	}
	return out, nil
}

// FindOne returns the todo with its parent and children.
func (s *TodoService) FindOne(ctx context.Context, id string) (*models.Todo, error) {
	if err := validation.ID("findOne", id); err != nil {
		return nil, err
	}
	return s.load(ctx, s.repo, "findOne", id)
}

// Update applies the provided fields only. A provided null parentId detaches.
func (s *TodoService) Update(ctx context.Context, id string, in models.UpdateTodoInput) (*models.Todo, error) {
	in, err := validation.Update(id, in)
	if err != nil {
		return nil, err
	}

	current, err := s.find(ctx, s.repo, "update", id)
	if err != nil {
		return nil, err
	}

	if in.ParentID.Set && in.ParentID.Value != nil {
		if _, err := s.checkParent(ctx, s.repo, "update", *in.ParentID.Value); err != nil {
			return nil, err
		}
		kids, err := s.repo.FindChildrenOf(ctx, id, models.OrderDesc)
		if err != nil {
			return nil, s.storageErr("update", id, err)
		}
		if len(kids) > 0 {
			return nil, apperrors.Validation("update", id, "cannot move a todo with children under a parent")
		}
	}

	patch := repository.PatchFromInput(in)
	if !patch.Empty() {
		affected, err := s.repo.Update(ctx, id, patch)
		if err != nil {
			return nil, s.storageErr("update", id, err)
		}
		if affected == 0 {
			return nil, apperrors.NotFound("update", id)
		}

		parentID := current.ParentID
		if in.ParentID.Set {
			parentID = in.ParentID.Value
		}
		s.publish(ctx, events.Event{Type: events.TodoUpdated, ID: id, ParentID: parentID})
	}

	return s.FindOne(ctx, id)
}

// Remove deletes the todo. Its children are deleted when cascade is true and
// become top-level todos otherwise. All writes share one transaction.
func (s *TodoService) Remove(ctx context.Context, id string, cascade bool) (*models.RemoveResult, error) {
	if err := validation.ID("remove", id); err != nil {
		return nil, err
	}

	var (
		parentID   *string
		childCount int
	)
	err := s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		todo, err := s.find(ctx, tx, "remove", id)
		if err != nil {
			return err
		}
		parentID = todo.ParentID

		kids, err := tx.FindChildrenOf(ctx, id, models.OrderDesc)
		if err != nil {
			return s.storageErr("remove", id, err)
		}
		childCount = len(kids)

		if childCount > 0 {
			if cascade {
				for _, child := range kids {
					if _, err := tx.Delete(ctx, child.ID); err != nil {
						return s.storageErr("remove", child.ID, err)
					}
				}
			} else if _, err := tx.UpdateWhere(ctx, id, repository.ClearParent()); err != nil {
				return s.storageErr("remove", id, err)
			}
		}

		affected, err := tx.Delete(ctx, id)
		if err != nil {
			return s.storageErr("remove", id, err)
		}
		if affected == 0 {
			return apperrors.NotFound("remove", id)
		}
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			err = s.storageErr("remove", id, err)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.TodoDeleted,
		ID:         id,
		ParentID:   parentID,
		Cascade:    cascade,
		ChildCount: childCount,
	})

	return &models.RemoveResult{
		Message:    removeMessage(id, cascade, childCount),
		Cascaded:   cascade,
		ChildCount: childCount,
	}, nil
}

// DetachFromParent makes a child todo top-level. Detaching a todo that has no
// parent is an error.
func (s *TodoService) DetachFromParent(ctx context.Context, id string) (*models.Todo, error) {
	if err := validation.ID("detach", id); err != nil {
		return nil, err
	}

	todo, err := s.find(ctx, s.repo, "detach", id)
	if err != nil {
		return nil, err
	}
	if todo.ParentID == nil {
		return nil, apperrors.Validation("detach", id, "todo is already independent of any parent")
	}

	affected, err := s.repo.Update(ctx, id, repository.ClearParent())
	if err != nil {
		return nil, s.storageErr("detach", id, err)
	}
	if affected == 0 {
		return nil, apperrors.NotFound("detach", id)
	}
	s.publish(ctx, events.Event{Type: events.TodoDetached, ID: id, ParentID: todo.ParentID})

	return s.FindOne(ctx, id)
}

// FindChildrenByParentID returns the children of parentID, newest first, each
// with its own children.
func (s *TodoService) FindChildrenByParentID(ctx context.Context, parentID string) ([]models.Todo, error) {
	if err := validation.ID("findChildren", parentID); err != nil {
		return nil, err
	}

	kids, err := s.repo.FindChildrenOf(ctx, parentID, models.OrderDesc)
	if err != nil {
		return nil, s.storageErr("findChildren", parentID, err)
	}

	out := make([]models.Todo, 0, len(kids))
	for _, k := range kids {
		view := bare(k)
		grandkids, err := s.repo.FindChildrenOf(ctx, k.ID, models.OrderDesc)
		if err != nil {
			return nil, s.storageErr("findChildren", k.ID, err)
		}
		for _, g := range grandkids {
			view.Children = append(view.Children, bare(g))
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *TodoService) find(ctx context.Context, repo repository.Repository, op, id string) (*models.Todo, error) {
	todo, err := repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(op, id)
	}
	if err != nil {
		return nil, s.storageErr(op, id, err)
	}
	return todo, nil
}

// load reads a todo and assembles its parent and children views.
func (s *TodoService) load(ctx context.Context, repo repository.Repository, op, id string) (*models.Todo, error) {
	todo, err := s.find(ctx, repo, op, id)
	if err != nil {
		return nil, err
	}
	view := bare(*todo)

	if todo.ParentID != nil {
		parent, err := repo.FindByID(ctx, *todo.ParentID)
		switch {
		case err == nil:
			p := bare(*parent)
			view.Parent = &p
		case !errors.Is(err, repository.ErrNotFound):
			return nil, s.storageErr(op, *todo.ParentID, err)
		}
	}

	kids, err := repo.FindChildrenOf(ctx, id, models.OrderDesc)
	if err != nil {
		return nil, s.storageErr(op, id, err)
	}
	for _, k := range kids {
		view.Children = append(view.Children, bare(k))
	}
	return &view, nil
}

// checkParent verifies that parentID exists and is itself top-level.
func (s *TodoService) checkParent(ctx context.Context, repo repository.Repository, op, parentID string) (*models.Todo, error) {
	parent, err := repo.FindByID(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Validation(op, parentID, "parent todo not found")
	}
	if err != nil {
		return nil, s.storageErr(op, parentID, err)
	}
	if parent.IsChild() {
		return nil, apperrors.Validation(op, parentID, "cannot create grandchild under a child")
	}
	return parent, nil
}

// insert persists a validated create request under a fresh id.
func (s *TodoService) insert(ctx context.Context, repo repository.Repository, in models.CreateTodoInput) (*models.Todo, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	todo := &models.Todo{
		ID:       id,
		Title:    in.Title,
		ParentID: in.ParentID,
	}
	if in.Description != nil {
		todo.Description = *in.Description
	}
	if in.Completed != nil {
		todo.Completed = *in.Completed
	}

	saved, err := repo.Save(ctx, todo)
	if err != nil {
		return nil, s.storageErr("create", id, err)
	}
	return saved, nil
}

func (s *TodoService) storageErr(op, id string, err error) error {
	s.log.Error(err).Str("op", op).Str("id", id).Msg("storage operation failed")
	return apperrors.Storage(op, id, err)
}

// publish runs after the write is committed, so failures are only logged.
func (s *TodoService) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("event", string(event.Type)).Str("id", event.ID).Msg("publish event failed")
	}
}

// bare copies the column data of t and fills the derived fields.
func bare(t models.Todo) models.Todo {
	t.Parent = nil
	t.Children = []models.Todo{}
	t.CreatedAt = identifier.CreatedAt(t.ID)
	return t
}

func removeMessage(id string, cascade bool, childCount int) string {
	switch {
	case childCount == 0:
		return fmt.Sprintf("todo %s deleted", id)
	case cascade:
		return fmt.Sprintf("todo %s deleted along with %d child todos", id, childCount)
	default:
		return fmt.Sprintf("todo %s deleted; %d child todos detached and kept as top-level todos", id, childCount)
	}
}
