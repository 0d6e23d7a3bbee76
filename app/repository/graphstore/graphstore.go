// Package graphstore keeps todos in Neo4j. Each todo is a (:Todo) node and a
// child points at its parent through a HAS_PARENT relationship.
package graphstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"todo-tree/app/models"
	"todo-tree/app/repository"
)

var (
	ErrParentMissing = errors.New("graphstore: parent node does not exist")
	ErrHasChildren   = errors.New("graphstore: todo still has children")
)

const returnTodo = "RETURN t.id AS id, t.title AS title, t.description AS description, " +
	"t.completed AS completed, p.id AS parentId"

// runner is satisfied by both managed and explicit transactions.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error)
}

type Store struct {
	driver   neo4j.DriverWithContext
	database string
	tx       runner
}

var _ repository.Repository = (*Store)(nil)

func New(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

// EnsureConstraints creates the unique id constraint on :Todo nodes.
func EnsureConstraints(ctx context.Context, driver neo4j.DriverWithContext, database string) error {
	_, err := neo4j.ExecuteQuery(ctx, driver,
		"CREATE CONSTRAINT todo_id_unique IF NOT EXISTS FOR (t:Todo) REQUIRE t.id IS UNIQUE",
		nil, neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(database))
	return err
}

func (s *Store) Save(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	_, err := s.write(ctx, func(tx runner) (any, error) {
		if _, err := tx.Run(ctx,
			"CREATE (t:Todo {id: $id, title: $title, description: $description, completed: $completed})",
			map[string]any{
				"id":          todo.ID,
				"title":       todo.Title,
				"description": todo.Description,
				"completed":   todo.Completed,
			},
		); err != nil {
			return nil, err
		}
		if todo.ParentID == nil {
			return nil, nil
		}
		return nil, link(ctx, tx, todo.ID, *todo.ParentID)
	})
	if err != nil {
		return nil, err
	}
	row := *todo
	row.Parent, row.Children = nil, nil
	return &row, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	todos, err := s.query(ctx,
		"MATCH (t:Todo {id: $id}) OPTIONAL MATCH (t)-[:HAS_PARENT]->(p:Todo) "+returnTodo,
		map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(todos) == 0 {
		return nil, repository.ErrNotFound
	}
	return &todos[0], nil
}

func (s *Store) FindAll(ctx context.Context, order models.Order) ([]models.Todo, error) {
	return s.query(ctx,
		"MATCH (t:Todo) OPTIONAL MATCH (t)-[:HAS_PARENT]->(p:Todo) "+returnTodo+orderBy(order),
		nil)
}

func (s *Store) FindChildrenOf(ctx context.Context, parentID string, order models.Order) ([]models.Todo, error) {
	return s.query(ctx,
		"MATCH (t:Todo)-[:HAS_PARENT]->(p:Todo {id: $parentId}) "+returnTodo+orderBy(order),
		map[string]any{"parentId": parentID})
}

func (s *Store) Update(ctx context.Context, id string, patch repository.Patch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}
	n, err := s.write(ctx, func(tx runner) (any, error) {
		return update(ctx, tx, id, patch)
	})
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

func (s *Store) UpdateWhere(ctx context.Context, parentID string, patch repository.Patch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}
	n, err := s.write(ctx, func(tx runner) (any, error) {
		result, err := tx.Run(ctx,
			"MATCH (t:Todo)-[:HAS_PARENT]->(:Todo {id: $parentId}) RETURN t.id AS id",
			map[string]any{"parentId": parentID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for result.Next(ctx) {
			if id, ok := result.Record().Get("id"); ok {
				ids = append(ids, id.(string))
			}
		}
		if err := result.Err(); err != nil {
			return nil, err
		}

		var total int64
		for _, id := range ids {
			n, err := update(ctx, tx, id, patch)
			if err != nil {
				return nil, err
			}
			total += n
		}
		return total, nil
	})
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	n, err := s.write(ctx, func(tx runner) (any, error) {
		kids, err := count(ctx, tx,
			"MATCH (:Todo)-[:HAS_PARENT]->(t:Todo {id: $id}) RETURN count(*) AS n",
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if kids > 0 {
			return nil, ErrHasChildren
		}
		return count(ctx, tx,
			"MATCH (t:Todo {id: $id}) DETACH DELETE t RETURN count(t) AS n",
			map[string]any{"id": id})
	})
	if err != nil {
		return 0, err
	}
	return n.(int64), nil
}

// WithinTx runs fn against one explicit transaction. Nested calls join the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repository) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && err == nil {
				err = rbErr
			}
		}
	}()

	if err = fn(&Store{driver: s.driver, database: s.database, tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Store) read(ctx context.Context, work func(runner) (any, error)) (any, error) {
	if s.tx != nil {
		return work(s.tx)
	}
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(tx)
	})
}

func (s *Store) write(ctx context.Context, work func(runner) (any, error)) (any, error) {
	if s.tx != nil {
		return work(s.tx)
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(tx)
	})
}

func (s *Store) query(ctx context.Context, cypher string, params map[string]any) ([]models.Todo, error) {
	out, err := s.read(ctx, func(tx runner) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		todos := []models.Todo{}
		for result.Next(ctx) {
			todo, err := fromRecord(result.Record())
			if err != nil {
				return nil, err
			}
			todos = append(todos, todo)
		}
		return todos, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.([]models.Todo), nil
}

func update(ctx context.Context, tx runner, id string, patch repository.Patch) (int64, error) {
	cypher, params := updateStatement(id, patch)
	n, err := count(ctx, tx, cypher, params)
	if err != nil || n == 0 || !patch.ParentID.Set {
		return n, err
	}

	if _, err := tx.Run(ctx,
		"MATCH (t:Todo {id: $id})-[r:HAS_PARENT]->() DELETE r",
		map[string]any{"id": id}); err != nil {
		return 0, err
	}
	if patch.ParentID.Value != nil {
		if err := link(ctx, tx, id, *patch.ParentID.Value); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// updateStatement builds the property update for one node. The parent link is
// handled separately since it is a relationship.
func updateStatement(id string, patch repository.Patch) (string, map[string]any) {
	params := map[string]any{"id": id}
	var sets []string
	for column, value := range patch.Columns() {
		if column == repository.ColumnParentID {
			continue
		}
		sets = append(sets, fmt.Sprintf("t.%s = $%s", column, column))
		params[column] = value
	}
	sort.Strings(sets)

	cypher := "MATCH (t:Todo {id: $id}) "
	if len(sets) > 0 {
		cypher += "SET " + strings.Join(sets, ", ") + " "
	}
	return cypher + "RETURN count(t) AS n", params
}

func link(ctx context.Context, tx runner, childID, parentID string) error {
	n, err := count(ctx, tx,
		"MATCH (child:Todo {id: $childId}), (parent:Todo {id: $parentId}) "+
			"CREATE (child)-[:HAS_PARENT]->(parent) RETURN count(*) AS n",
		map[string]any{"childId": childID, "parentId": parentID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrParentMissing
	}
	return nil
}

func count(ctx context.Context, tx runner, cypher string, params map[string]any) (int64, error) {
	result, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := record.Get("n")
	v, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("graphstore: unexpected count %T", n)
	}
	return v, nil
}

func fromRecord(record *neo4j.Record) (models.Todo, error) {
	var todo models.Todo

	id, ok := value[string](record, "id")
	if !ok {
		return todo, fmt.Errorf("graphstore: record without id")
	}
	todo.ID = id
	todo.Title, _ = value[string](record, "title")
	todo.Description, _ = value[string](record, "description")
	todo.Completed, _ = value[bool](record, "completed")
	if parentID, ok := value[string](record, "parentId"); ok {
		todo.ParentID = &parentID
	}
	return todo, nil
}

// value reads key from record. Missing keys and nulls report false.
func value[T any](record *neo4j.Record, key string) (T, bool) {
	var zero T
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

func orderBy(order models.Order) string {
	if order == models.OrderAsc {
		return " ORDER BY t.id ASC"
	}
	return " ORDER BY t.id DESC"
}
