package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON maps to a jsonb column. The raw webhook payload is stored in full so
// reprocessing and audits see exactly what the vendor sent.
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON column: %T", value)
	}

	return json.Unmarshal(data, j)
}
