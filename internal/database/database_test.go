package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Classify(nil))
	assert.ErrorIs(t, Classify(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, Classify(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)
	assert.ErrorIs(t, Classify(errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)")), ErrDuplicate)
	assert.ErrorIs(t, Classify(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username"`)), ErrDuplicate)

	plain := errors.New("disk I/O error")
	assert.Same(t, plain, Classify(plain))
}

func TestRows(t *testing.T) {
	t.Parallel()

	results := []interface{}{
		map[string]interface{}{"status": "OK", "result": []interface{}{
			map[string]interface{}{"id": "recipe:a"},
			"not a row",
			map[string]interface{}{"id": "recipe:b"},
		}},
		map[string]interface{}{"status": "OK", "result": map[string]interface{}{"id": "recipe:c"}},
		map[string]interface{}{"status": "OK", "result": 3},
	}

	assert.Len(t, Rows(results, 0), 2)
	assert.Equal(t, "recipe:c", Rows(results, 1)[0]["id"])
	assert.Nil(t, Rows(results, 2))
	assert.Nil(t, Rows(results, 7))
	assert.Nil(t, Rows(results, -1))
}

func TestSurrealDB_Unconnected(t *testing.T) {
	t.Parallel()

	db := NewSurrealDB(Config{Host: "db.internal", Port: "8000"})
	assert.Equal(t, "ws://db.internal:8000", db.Endpoint())

	ctx := context.Background()
	assert.ErrorIs(t, db.Ping(ctx), ErrConnection)
	_, err := db.Query(ctx, "SELECT * FROM recipe", nil)
	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, db.Execute(ctx, "DELETE recipe", nil), ErrConnection)
	assert.NoError(t, db.Close())
}
