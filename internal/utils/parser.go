package utils

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONToMap converts a JSON column into a map. Empty or null columns give an
// empty map.
func JSONToMap(jsonData datatypes.JSON) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if len(jsonData) == 0 || string(jsonData) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

// MapToJSON converts a map into a JSON column value
func MapToJSON(data map[string]interface{}) (datatypes.JSON, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return jsonData, nil
}

// StringMapToJSON converts string settings into a JSON column value
func StringMapToJSON(data map[string]string) (datatypes.JSON, error) {
	if data == nil {
		data = map[string]string{}
	}
	return json.Marshal(data)
}

// JSONToStringMap reads string settings from a JSON column
func JSONToStringMap(jsonData datatypes.JSON) (map[string]string, error) {
	result := make(map[string]string)
	if len(jsonData) == 0 || string(jsonData) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(jsonData, &result); err != nil {
		return nil, err
	}
	return result, nil
}
