package models

import (
	"encoding/json"
	"fmt"
)

// SceneOutcome represents the terminal-or-pending state of one scene's
// image synthesis. A scene is never removed and never retried past its
// retry budget; consumers must handle all three cases.
type SceneOutcome string

// Scene outcome constants
const (
	// SceneOutcomePending indicates the scene's task has not reached a terminal state
	SceneOutcomePending SceneOutcome = "pending"
	// SceneOutcomeSucceeded indicates the scene has an image artifact
	SceneOutcomeSucceeded SceneOutcome = "succeeded"
	// SceneOutcomeFailed indicates the scene exhausted its retry budget
	SceneOutcomeFailed SceneOutcome = "failed"
)

// Terminal reports whether the outcome is succeeded or failed.
func (o SceneOutcome) Terminal() bool {
	return o == SceneOutcomeSucceeded || o == SceneOutcomeFailed
}

// ParseSceneOutcome converts a string to a SceneOutcome
func ParseSceneOutcome(str string) (SceneOutcome, error) {
	switch SceneOutcome(str) {
	case SceneOutcomePending, SceneOutcomeSucceeded, SceneOutcomeFailed:
		return SceneOutcome(str), nil
	default:
		return "", fmt.Errorf("invalid scene outcome: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for SceneOutcome
func (o *SceneOutcome) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	outcome, err := ParseSceneOutcome(str)
	if err != nil {
		return err
	}

	*o = outcome
	return nil
}

// SceneResult is the per-scene outcome record, indexed by the original
// planning order. ImageArtifact is set only on success, FailureReason only
// on failure.
type SceneResult struct {
	SceneIndex    int          `json:"scene_index"`
	Description   string       `json:"description"`
	Outcome       SceneOutcome `json:"outcome"`
	ImageArtifact string       `json:"image_artifact,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
}

// NewSceneResults builds pending results for an ordered list of scene
// descriptions.
func NewSceneResults(descriptions []string) []SceneResult {
	results := make([]SceneResult, len(descriptions))
	for i, desc := range descriptions {
		results[i] = SceneResult{
			SceneIndex:  i,
			Description: desc,
			Outcome:     SceneOutcomePending,
		}
	}
	return results
}

// CountSceneOutcomes returns the number of succeeded and failed scenes.
func CountSceneOutcomes(results []SceneResult) (succeeded, failed int) {
	for _, r := range results {
		switch r.Outcome {
		case SceneOutcomeSucceeded:
			succeeded++
		case SceneOutcomeFailed:
			failed++
		case SceneOutcomePending:
		}
	}
	return succeeded, failed
}
