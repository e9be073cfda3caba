package events

import (
	"encoding/json"
	"fmt"
)

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}

func (e *Event) setData(data interface{}) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert %T: %w", data, err)
	}
	e.Data = dataMap
	return nil
}

// DecodeData fills target from the Data field.
func (e *Event) DecodeData(target interface{}) error {
	if err := mapToStruct(e.Data, target); err != nil {
		return fmt.Errorf("failed to parse %T: %w", target, err)
	}
	return nil
}

// SetRunStartedData sets the Data field with RunStartedData in a type-safe way.
func (e *Event) SetRunStartedData(data RunStartedData) error {
	return e.setData(data)
}

// GetRunStartedData retrieves RunStartedData from the Data field.
func (e *Event) GetRunStartedData() (*RunStartedData, error) {
	var data RunStartedData
	if err := e.DecodeData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetRunCompletedData sets the Data field with RunCompletedData in a type-safe way.
func (e *Event) SetRunCompletedData(data RunCompletedData) error {
	return e.setData(data)
}

// GetRunCompletedData retrieves RunCompletedData from the Data field.
func (e *Event) GetRunCompletedData() (*RunCompletedData, error) {
	var data RunCompletedData
	if err := e.DecodeData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetLineSkippedData sets the Data field with LineSkippedData in a type-safe way.
func (e *Event) SetLineSkippedData(data LineSkippedData) error {
	return e.setData(data)
}

// GetLineSkippedData retrieves LineSkippedData from the Data field.
func (e *Event) GetLineSkippedData() (*LineSkippedData, error) {
	var data LineSkippedData
	if err := e.DecodeData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetStageCompletedData sets the Data field with StageCompletedData in a type-safe way.
func (e *Event) SetStageCompletedData(data StageCompletedData) error {
	return e.setData(data)
}

// GetStageCompletedData retrieves StageCompletedData from the Data field.
func (e *Event) GetStageCompletedData() (*StageCompletedData, error) {
	var data StageCompletedData
	if err := e.DecodeData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// SetNearDuplicateRemovedData sets the Data field with NearDuplicateRemovedData in a type-safe way.
func (e *Event) SetNearDuplicateRemovedData(data NearDuplicateRemovedData) error {
	return e.setData(data)
}

// GetNearDuplicateRemovedData retrieves NearDuplicateRemovedData from the Data field.
func (e *Event) GetNearDuplicateRemovedData() (*NearDuplicateRemovedData, error) {
	var data NearDuplicateRemovedData
	if err := e.DecodeData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetExactDuplicateGroupData retrieves ExactDuplicateGroupData from the Data field.
func (e *Event) GetExactDuplicateGroupData() (*ExactDuplicateGroupData, error) {
	var data ExactDuplicateGroupData
	if err := e.DecodeData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
