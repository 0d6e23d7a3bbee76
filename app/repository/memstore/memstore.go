// Package memstore keeps todos in process memory. It backs the "memory"
// storage driver and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"todo-tree/app/models"
	"todo-tree/app/repository"
)

type Store struct {
	mu    sync.RWMutex
	todos map[string]models.Todo

	// writeMu serializes writers against open transactions; nil inside a transaction.
	writeMu *sync.Mutex
}

var _ repository.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		todos:   make(map[string]models.Todo),
		writeMu: &sync.Mutex{},
	}
}

func (s *Store) lockWrites() func() {
	if s.writeMu == nil {
		return func() {}
	}
	s.writeMu.Lock()
	return s.writeMu.Unlock
}

func (s *Store) Save(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lockWrites()()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.todos[todo.ID]; exists {
		return nil, fmt.Errorf("memstore: duplicate id %s", todo.ID)
	}
	if todo.ParentID != nil {
		if _, ok := s.todos[*todo.ParentID]; !ok {
			return nil, fmt.Errorf("memstore: parent %s does not exist", *todo.ParentID)
		}
	}

	stored := row(*todo)
	s.todos[todo.ID] = stored
	out := stored
	return &out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.todos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &todo, nil
}

func (s *Store) FindAll(ctx context.Context, order models.Order) ([]models.Todo, error) {
	return s.filter(ctx, order, func(models.Todo) bool { return true })
}

func (s *Store) FindChildrenOf(ctx context.Context, parentID string, order models.Order) ([]models.Todo, error) {
	return s.filter(ctx, order, func(t models.Todo) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	})
}

func (s *Store) Update(ctx context.Context, id string, patch repository.Patch) (int64, error) {
	return s.mutate(ctx, func(t models.Todo) bool { return t.ID == id }, patch)
}

func (s *Store) UpdateWhere(ctx context.Context, parentID string, patch repository.Patch) (int64, error) {
	return s.mutate(ctx, func(t models.Todo) bool {
		return t.ParentID != nil && *t.ParentID == parentID
	}, patch)
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer s.lockWrites()()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return 0, nil
	}
	for _, t := range s.todos {
		if t.ParentID != nil && *t.ParentID == id {
			return 0, fmt.Errorf("memstore: todo %s still has children", id)
		}
	}
	delete(s.todos, id)
	return 1, nil
}

// WithinTx runs fn against a copy of the data and swaps it in on success.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repository) error) error {
	if s.writeMu == nil {
		return fn(s)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[string]models.Todo, len(s.todos))
	for id, t := range s.todos {
		snapshot[id] = t
	}
	s.mu.RUnlock()

	tx := &Store{todos: snapshot}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.todos = tx.todos
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored todos.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

func (s *Store) filter(ctx context.Context, order models.Order, keep func(models.Todo) bool) ([]models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if order == models.OrderAsc {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) mutate(ctx context.Context, match func(models.Todo) bool, patch repository.Patch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer s.lockWrites()()

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.ParentID.Set && patch.ParentID.Value != nil {
		if _, ok := s.todos[*patch.ParentID.Value]; !ok {
			return 0, fmt.Errorf("memstore: parent %s does not exist", *patch.ParentID.Value)
		}
	}

	var affected int64
	for id, t := range s.todos {
		if !match(t) {
			continue
		}
		patch.Apply(&t)
		s.todos[id] = t
		affected++
	}
	return affected, nil
}

// row strips the computed views so only column data is kept.
func row(t models.Todo) models.Todo {
	t.Parent = nil
	t.Children = nil
	t.CreatedAt = time.Time{}
	if t.ParentID != nil {
		p := *t.ParentID
		t.ParentID = &p
	}
	return t
}
