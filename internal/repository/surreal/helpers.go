package surreal

import (
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// Table names shared with the embedded surql migrations.
const (
	tableUsers       = "users"
	tableRecipe      = "recipe"
	tableIngredients = "ingredients"
)

func recordID(table, id string) models.RecordID {
	return models.RecordID{Table: table, ID: id}
}

// recordKey returns the bare key of a record ID, so "recipe:abc" and
// RecordID{Table: "recipe", ID: "abc"} both yield "abc".
func recordKey(id interface{}) string {
	switch v := id.(type) {
	case models.RecordID:
		return fmt.Sprint(v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprint(v.ID)
		}
	case string:
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[i+1:]
		}
		return strings.Trim(v, "⟨⟩`")
	case map[string]interface{}:
		if inner, ok := v["id"]; ok {
			return fmt.Sprint(inner)
		}
	}
	return ""
}

// parseTime parses time from the shapes SurrealDB may return
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

func datetime(t time.Time) models.CustomDateTime {
	return models.CustomDateTime{Time: t.UTC()}
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

// getIntPtr extracts an optional int value from a map
func getIntPtr(m map[string]interface{}, key string) *int {
	var n int
	switch v := m[key].(type) {
	case float64:
		n = int(v)
	case float32:
		n = int(v)
	case int:
		n = v
	case int64:
		n = int(v)
	case uint64:
		n = int(v)
	default:
		return nil
	}
	return &n
}

// getFloat extracts a float value from a map
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	}
	return 0
}

// noneIfNil passes nil pointers through as nil so queries can map them to
// NONE with IF ... IS NOT NULL.
func noneIfNil[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
