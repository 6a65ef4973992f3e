package model

import "encoding/json"

// LineIndex maps document line positions to record ids. An empty string
// marks a line without a timer and is stored as null.
type LineIndex []string

// MarshalJSON writes the index as an array of id-or-null.
func (index LineIndex) MarshalJSON() ([]byte, error) {
	values := make([]*string, len(index))
	for position := range index {
		if index[position] != "" {
			values[position] = &index[position]
		}
	}
	return json.Marshal(values)
}

// UnmarshalJSON reads an array of id-or-null.
func (index *LineIndex) UnmarshalJSON(data []byte) error {
	var values []*string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	parsed := make(LineIndex, len(values))
	for position, value := range values {
		if value != nil {
			parsed[position] = *value
		}
	}
	*index = parsed
	return nil
}
