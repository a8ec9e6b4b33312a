package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores an open string-keyed mapping (event metrics, metadata,
// billing_info, aggregated_metrics) as JSONB. Values are left as `any`
// since metrics mix numbers and strings depending on service_type.
type JSONMap map[string]any

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}
	result := make(JSONMap)
	if len(bytes) == 0 {
		*m = result
		return nil
	}
	err := json.Unmarshal(bytes, &result)
	*m = result
	return err
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(JSONMap))
	}
	return json.Marshal(m)
}

// StringSet stores a set of strings (event tags) as a JSON array.
type StringSet []string

func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal tags value: %v", value)
	}
	result := StringSet{}
	if len(bytes) == 0 {
		*s = result
		return nil
	}
	err := json.Unmarshal(bytes, &result)
	*s = result
	return err
}

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal(StringSet{})
	}
	return json.Marshal(s)
}
