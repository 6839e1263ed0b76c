package pipeline

import (
	"context"
	"fmt"
	"time"

	"xray-enhancer/internal/logger"
	"xray-enhancer/internal/models"
	"xray-enhancer/internal/opencv/safe"
	"xray-enhancer/internal/processing/chain"
	"xray-enhancer/internal/processing/stages"
)

// Processor orchestrates the enhancement sequence: grayscale, optional
// resize, contrast normalization, intensity clustering, blend, sharpen.
// It holds no per-image state; one Processor may serve concurrent callers,
// each invocation working on its own buffers.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{logger: log}
}

// Enhance runs the full pipeline over src, which may carry 1, 3 or 4
// channels. Parameters are validated before any stage executes; a stage
// failure aborts the run with the stage named in the error. The caller owns
// src and the returned Result (release it with Close).
func (p *Processor) Enhance(ctx context.Context, src *safe.Mat, params models.EnhancementParameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if src == nil || src.Empty() {
		return nil, fmt.Errorf("%w: nothing to enhance", models.ErrEmptyImage)
	}

	p.logger.Debug("Pipeline", "enhancement started", map[string]interface{}{
		"width":         src.Cols(),
		"height":        src.Rows(),
		"channels":      src.Channels(),
		"cluster_count": params.ClusterCount,
		"blend_alpha":   params.BlendAlpha,
		"mode":          string(params.NormalizationMode),
	})

	started := time.Now()

	enhancement := chain.New(
		stages.NewGrayscaleStage(),
		stages.NewResizeStage(),
		stages.NewEqualizeStage(),
		stages.NewClusterStage(),
		stages.NewBlendStage(),
		stages.NewSharpenStage(),
	)

	state, err := enhancement.Execute(ctx, src, params)
	if err != nil {
		return nil, err
	}

	result := newResult(state)

	if !result.ClusterStats.Converged {
		p.logger.Warning("Pipeline", "clustering hit the iteration cap, using best-effort centroids", map[string]interface{}{
			"iterations": result.ClusterStats.Iterations,
		})
	}

	original, err := result.Artifact(chain.ArtifactOriginal)
	if err != nil {
		result.Close()
		return nil, err
	}

	p.logger.Info("Pipeline", "enhancement completed", map[string]interface{}{
		"width":       original.Cols(),
		"height":      original.Rows(),
		"artifacts":   result.Names(),
		"iterations":  result.ClusterStats.Iterations,
		"converged":   result.ClusterStats.Converged,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	return result, nil
}
