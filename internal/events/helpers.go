package events

import (
	"encoding/json"
	"fmt"
)

// SetData replaces the Data field with the JSON form of a typed payload.
func (e *ExplorationEvent) SetData(data interface{}) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert %T to map: %w", data, err)
	}
	e.Data = dataMap
	return nil
}

// GetDecisionReceivedData retrieves DecisionReceivedData from the Data field.
func (e *ExplorationEvent) GetDecisionReceivedData() (*DecisionReceivedData, error) {
	var data DecisionReceivedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse DecisionReceivedData: %w", err)
	}
	return &data, nil
}

// GetActionCompletedData retrieves ActionCompletedData from the Data field.
func (e *ExplorationEvent) GetActionCompletedData() (*ActionCompletedData, error) {
	var data ActionCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ActionCompletedData: %w", err)
	}
	return &data, nil
}

// GetKnowledgeUpdatedData retrieves KnowledgeUpdatedData from the Data field.
func (e *ExplorationEvent) GetKnowledgeUpdatedData() (*KnowledgeUpdatedData, error) {
	var data KnowledgeUpdatedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse KnowledgeUpdatedData: %w", err)
	}
	return &data, nil
}

// GetSessionTerminatedData retrieves SessionTerminatedData from the Data field.
func (e *ExplorationEvent) GetSessionTerminatedData() (*SessionTerminatedData, error) {
	var data SessionTerminatedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse SessionTerminatedData: %w", err)
	}
	return &data, nil
}

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
