package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores a list of strings as a JSON column, portable across
// PostgreSQL (jsonb) and SQLite (text).
type StringList []string

// Scan implements sql.Scanner for reading from database
func (sl *StringList) Scan(value any) error {
	if value == nil {
		*sl = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, sl)
	case string:
		return json.Unmarshal([]byte(v), sl)
	default:
		return fmt.Errorf("failed to scan StringList: expected []byte or string, got %T", value)
	}
}

// Value implements driver.Valuer for writing to database
func (sl StringList) Value() (driver.Value, error) {
	if sl == nil {
		return "[]", nil
	}
	bytes, err := json.Marshal(sl)
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}
