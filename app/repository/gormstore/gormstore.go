// Package gormstore implements the todo repository with gorm. The same code
// serves the postgres and sqlite dialects.
package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"todo-tree/app/models"
	"todo-tree/app/repository"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the todos table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Todo{})
}

func (s *Store) Save(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	row := *todo
	row.Parent, row.Children = nil, nil
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	var todo models.Todo
	err := s.db.WithContext(ctx).Where(repository.ColumnID+" = ?", id).First(&todo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *Store) FindAll(ctx context.Context, order models.Order) ([]models.Todo, error) {
	var todos []models.Todo
	err := s.db.WithContext(ctx).Order(orderBy(order)).Find(&todos).Error
	return todos, err
}

func (s *Store) FindChildrenOf(ctx context.Context, parentID string, order models.Order) ([]models.Todo, error) {
	var todos []models.Todo
	err := s.db.WithContext(ctx).
		Where(repository.ColumnParentID+" = ?", parentID).
		Order(orderBy(order)).
		Find(&todos).Error
	return todos, err
}

func (s *Store) Update(ctx context.Context, id string, patch repository.Patch) (int64, error) {
	return s.update(ctx, repository.ColumnID, id, patch)
}

func (s *Store) UpdateWhere(ctx context.Context, parentID string, patch repository.Patch) (int64, error) {
	return s.update(ctx, repository.ColumnParentID, parentID, patch)
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res := s.db.WithContext(ctx).Where(repository.ColumnID+" = ?", id).Delete(&models.Todo{})
	return res.RowsAffected, res.Error
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) update(ctx context.Context, column, value string, patch repository.Patch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Todo{}).
		Where(column+" = ?", value).
		Updates(patch.Columns())
	return res.RowsAffected, res.Error
}

func orderBy(order models.Order) string {
	if order == models.OrderAsc {
		return repository.ColumnID + " ASC"
	}
	return repository.ColumnID + " DESC"
}
