package tracking

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

// MLmodelFile is the descriptor stored next to a logged model
const MLmodelFile = "MLmodel"

// flavor names the loader a model directory is meant for
const flavor = "churnops_gbdt"

type mlmodel struct {
	ArtifactPath   string                    `yaml:"artifact_path"`
	Flavors        map[string]map[string]any `yaml:"flavors"`
	ModelUUID      string                    `yaml:"model_uuid"`
	RunID          string                    `yaml:"run_id"`
	UTCTimeCreated string                    `yaml:"utc_time_created"`
}

// descriptor renders the MLmodel YAML for m logged under run
func descriptor(run Run, m Model, now time.Time) ([]byte, error) {
	doc := mlmodel{
		ArtifactPath: m.ArtifactPath,
		Flavors: map[string]map[string]any{
			flavor: {
				"data":           filepath.Base(m.File),
				"format_version": m.FormatVersion,
				"objective":      "binary:logistic",
			},
		},
		ModelUUID:      uuid.NewString(),
		RunID:          run.ID,
		UTCTimeCreated: now.UTC().Format("2006-01-02 15:04:05.000000"),
	}
	return yaml.Marshal(doc)
}

