package engine

import (
	"encoding/json"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
)

// EngineYadage is the name of the yadage DAG engine.
const EngineYadage = "yadage"

// Yadage adapts analyses for the yadage workflow engine.
type Yadage struct{}

// yadageUpload mirrors the upload document shape. Pointers distinguish
// absent fields from zero values.
type yadageUpload struct {
	Toplevel   *string         `json:"toplevel"`
	Workflow   *map[string]any `json:"workflow"`
	NParallel  *int            `json:"nparallel"`
	PresetPars *map[string]any `json:"preset_pars"`
}

// ParseUpload extracts the yadage required fields (toplevel, workflow,
// nparallel, preset_pars) from an uploaded JSON document.
func (Yadage) ParseUpload(payload []byte) (*models.AnalysisSpec, error) {
	var doc yadageUpload
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, apperrors.Wrap(apperrors.MalformedSpec, "analysis payload is not valid JSON", err)
	}
	switch {
	case doc.Toplevel == nil:
		return nil, apperrors.New(apperrors.MalformedSpec, "missing required field 'toplevel'")
	case doc.Workflow == nil:
		return nil, apperrors.New(apperrors.MalformedSpec, "missing required field 'workflow'")
	case doc.NParallel == nil:
		return nil, apperrors.New(apperrors.MalformedSpec, "missing required field 'nparallel'")
	case doc.PresetPars == nil:
		return nil, apperrors.New(apperrors.MalformedSpec, "missing required field 'preset_pars'")
	}
	return &models.AnalysisSpec{
		Engine:      EngineYadage,
		EntryPoint:  *doc.Toplevel,
		Workflow:    *doc.Workflow,
		Parallelism: *doc.NParallel,
		Parameters:  *doc.PresetPars,
	}, nil
}

// Adapt nests the four yadage fields under the engine-specific payload
// key expected by the workflow controller.
func (Yadage) Adapt(spec *models.AnalysisSpec) (*models.DispatchRequest, error) {
	return &models.DispatchRequest{
		Engine: EngineYadage,
		Payload: map[string]any{
			"yadage_payload": map[string]any{
				"toplevel":    spec.EntryPoint,
				"workflow":    spec.Workflow,
				"nparallel":   spec.Parallelism,
				"preset_pars": spec.Parameters,
			},
		},
	}, nil
}
