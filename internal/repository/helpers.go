package repository

import (
	"database/sql"
	"encoding/json"
	"reflect"

	"github.com/maheshrc27/postflow/internal/models"
)

func platformStrings(ps []models.Platform) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

func toPlatforms(ss []string) []models.Platform {
	out := make([]models.Platform, len(ss))
	for i, s := range ss {
		out[i] = models.Platform(s)
	}
	return out
}

// nullableJSON encodes v for a jsonb column, mapping nil pointers and maps
// to NULL. lib/pq sends []byte as bytea, so the JSON goes out as a string.
func nullableJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return sql.NullString{}, nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
