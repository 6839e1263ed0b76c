package chain

import (
	"context"
	"fmt"

	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
)

// Artifact names recorded by the enhancement chain, in pipeline order.
const (
	ArtifactOriginal     = "original"
	ArtifactPreprocessed = "preprocessed"
	ArtifactClustered    = "clustered"
	ArtifactEnhanced     = "enhanced"
)

// Stat keys stages may record on the State.
const (
	StatClusterConverged  = "cluster_converged"
	StatClusterIterations = "cluster_iterations"
	StatClusterCenters    = "cluster_centers"
)

// Stage is one transform in the enhancement sequence. Apply must validate
// its own input and never return a corrupted buffer alongside a nil error.
type Stage interface {
	Name() string

	// ArtifactName is the name the stage output is retained under, or ""
	// when the output only feeds the next stage.
	ArtifactName() string

	ShouldExecute(params models.EnhancementParameters) bool

	Apply(ctx context.Context, input *safe.Mat, state *State) (*safe.Mat, error)
}

// State accumulates named artifacts and stage statistics while a chain runs.
// It owns every Mat it holds; Close releases them all.
type State struct {
	params    models.EnhancementParameters
	artifacts map[string]*safe.Mat
	order     []string
	stats     map[string]interface{}
}

// NewState creates an empty State for params. Execute builds its own; this
// constructor exists for callers driving stages directly.
func NewState(params models.EnhancementParameters) *State {
	return &State{
		params:    params,
		artifacts: make(map[string]*safe.Mat),
		stats:     make(map[string]interface{}),
	}
}

func (s *State) Params() models.EnhancementParameters {
	return s.params
}

// Artifact returns the retained buffer for name. Callers must treat it as
// read-only; ownership stays with the State.
func (s *State) Artifact(name string) (*safe.Mat, error) {
	mat, ok := s.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("artifact %q not recorded", name)
	}
	return mat, nil
}

// ArtifactNames returns the recorded names in pipeline order.
func (s *State) ArtifactNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// PutArtifact retains mat under name, taking ownership. A previous Mat
// under the same name is released; first insertion fixes the order.
func (s *State) PutArtifact(name string, mat *safe.Mat) {
	if prev, ok := s.artifacts[name]; ok {
		prev.Close()
		s.artifacts[name] = mat
		return
	}

	s.artifacts[name] = mat
	s.order = append(s.order, name)
}

func (s *State) SetStat(key string, value interface{}) {
	s.stats[key] = value
}

func (s *State) Stat(key string) (interface{}, bool) {
	value, ok := s.stats[key]
	return value, ok
}

func (s *State) Close() {
	for _, mat := range s.artifacts {
		mat.Close()
	}
	s.artifacts = make(map[string]*safe.Mat)
	s.order = nil
}

// Chain executes stages in strict sequence. The first failing stage aborts
// the run; its name is part of the returned error.
type Chain struct {
	stages []Stage
}

func New(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

func (c *Chain) StageNames() []string {
	names := make([]string, len(c.stages))
	for i, stage := range c.stages {
		names[i] = stage.Name()
	}
	return names
}

// Execute runs the chain over input. The input Mat is never closed; every
// other buffer is owned by the chain and either retained on the returned
// State or released before return. On error the partial State is released.
func (c *Chain) Execute(ctx context.Context, input *safe.Mat, params models.EnhancementParameters) (*State, error) {
	state := NewState(params)
	current := input

	cleanup := func() {
		if current != input {
			current.Close()
		}
		state.Close()
	}

	for _, stage := range c.stages {
		select {
		case <-ctx.Done():
			cleanup()
			return nil, ctx.Err()
		default:
		}

		if !stage.ShouldExecute(params) {
			continue
		}

		result, err := stage.Apply(ctx, current, state)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}

		if current != input {
			current.Close()
		}
		current = result

		if name := stage.ArtifactName(); name != "" {
			retained, err := current.Clone()
			if err != nil {
				cleanup()
				return nil, fmt.Errorf("stage %s failed: retaining artifact: %w", stage.Name(), err)
			}
			state.PutArtifact(name, retained)
		}
	}

	if current != input {
		current.Close()
	}

	return state, nil
}
