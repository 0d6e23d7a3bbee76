package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tree/app/models"
	"todo-tree/app/repository"
)

const (
	idA = "0190123d-c9c0-7000-8000-00000000000a"
	idB = "0190123d-c9c1-7000-8000-00000000000b"
	idC = "0190123d-c9c2-7000-8000-00000000000c"
)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	a := idA
	for _, todo := range []models.Todo{
		{ID: idA, Title: "Parent"},
		{ID: idB, Title: "Child B", ParentID: &a},
		{ID: idC, Title: "Child C", ParentID: &a},
	} {
		todo := todo
		_, err := s.Save(ctx, &todo)
		require.NoError(t, err)
	}
	return s
}

func TestFindAllOrder(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	desc, err := s.FindAll(ctx, models.OrderDesc)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, []string{idC, idB, idA}, ids(desc))

	asc, err := s.FindAll(ctx, models.OrderAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{idA, idB, idC}, ids(asc))
}

func TestFindByIDNotFound(t *testing.T) {
	s := New()
	_, err := s.FindByID(context.Background(), idA)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveRejectsDuplicate(t *testing.T) {
	s := seed(t)
	_, err := s.Save(context.Background(), &models.Todo{ID: idA, Title: "again"})
	assert.Error(t, err)
}

func TestUpdateWhereOrphans(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	n, err := s.UpdateWhere(ctx, idA, repository.ClearParent())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	children, err := s.FindChildrenOf(ctx, idA, models.OrderDesc)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestDeleteWithChildrenFails(t *testing.T) {
	s := seed(t)
	_, err := s.Delete(context.Background(), idA)
	assert.Error(t, err)

	n, err := s.Delete(context.Background(), idB)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Delete(context.Background(), idB)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx repository.Repository) error {
		if _, err := tx.Delete(ctx, idB); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, 3, s.Len())

	err = s.WithinTx(ctx, func(tx repository.Repository) error {
		_, err := tx.Delete(ctx, idB)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func ids(todos []models.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}
