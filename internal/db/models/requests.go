package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Generation defaults, matching the values the studio frontend submits when
// the caller leaves a field empty.
const (
	DefaultModel              = "sdxl_turbo"
	DefaultAspectRatio        = "16:9"
	DefaultStyle              = "cinematic"
	DefaultSceneCount         = 8
	DefaultSceneDuration      = 3.0
	DefaultMotionType         = "zoom"
	DefaultTransitionType     = "fade"
	DefaultTransitionDuration = 1.0

	// MaxSceneCount bounds the requested scene count
	MaxSceneCount = 30
)

var validate = validator.New()

// CreateJobRequest is the body of POST /jobs.
type CreateJobRequest struct {
	Source             string  `json:"source" validate:"required"`
	Model              string  `json:"model,omitempty"`
	AspectRatio        string  `json:"aspect_ratio,omitempty"`
	Style              string  `json:"style,omitempty"`
	SceneCount         int     `json:"scene_count,omitempty" validate:"omitempty,min=1,max=30"`
	SceneDuration      float64 `json:"scene_duration,omitempty" validate:"omitempty,gt=0"`
	MotionType         string  `json:"motion_type,omitempty" validate:"omitempty,oneof=zoom pan ken_burns static"`
	TransitionType     string  `json:"transition_type,omitempty" validate:"omitempty,oneof=fade dissolve wipe slide none"`
	TransitionDuration float64 `json:"transition_duration,omitempty" validate:"omitempty,gte=0"`
}

// Validate checks the request fields. It returns an error describing the
// first violation found.
func (r *CreateJobRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("source is required")
	}
	if err := validate.Struct(r); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("invalid %s: failed %s constraint", strings.ToLower(e.Field()), e.Tag())
		}
		return err
	}
	return nil
}

// ToInput converts the request into a JobInput with defaults applied.
func (r *CreateJobRequest) ToInput() JobInput {
	input := JobInput{
		Source:             strings.TrimSpace(r.Source),
		Model:              r.Model,
		AspectRatio:        r.AspectRatio,
		Style:              r.Style,
		SceneCount:         r.SceneCount,
		SceneDuration:      r.SceneDuration,
		MotionType:         r.MotionType,
		TransitionType:     r.TransitionType,
		TransitionDuration: r.TransitionDuration,
	}
	if input.Model == "" {
		input.Model = DefaultModel
	}
	if input.AspectRatio == "" {
		input.AspectRatio = DefaultAspectRatio
	}
	if input.Style == "" {
		input.Style = DefaultStyle
	}
	if input.SceneCount == 0 {
		input.SceneCount = DefaultSceneCount
	}
	if input.SceneDuration == 0 {
		input.SceneDuration = DefaultSceneDuration
	}
	if input.MotionType == "" {
		input.MotionType = DefaultMotionType
	}
	if input.TransitionType == "" {
		input.TransitionType = DefaultTransitionType
	}
	if input.TransitionDuration == 0 && input.TransitionType != "none" {
		input.TransitionDuration = DefaultTransitionDuration
	}
	return input
}
