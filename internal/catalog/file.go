package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"engagement-engine/internal/engine"
	"engagement-engine/internal/render"
	"engagement-engine/internal/storage"
)

// FileSource loads elements from a YAML fixture file, for development
// and standalone deployments without Postgres. Parsed definitions are
// re-encoded as the same JSON payloads the database emits, so both
// sources produce identical snapshots.
type FileSource struct {
	Path string
}

func NewFileSource(path string) FileSource { return FileSource{Path: path} }

type fileElement struct {
	ID        string                `yaml:"id"`
	Name      string                `yaml:"name"`
	Variant   string                `yaml:"variant"`
	Priority  int                   `yaml:"priority"`
	Status    string                `yaml:"status"`
	Targeting engine.TargetingRules `yaml:"targeting"`
	Trigger   engine.TriggerConfig  `yaml:"trigger"`
	Design    *render.Document      `yaml:"design"`
}

type fixtureFile struct {
	Elements []fileElement `yaml:"elements"`
}

func (f FileSource) LoadActiveElements(_ context.Context) ([]storage.ElementRow, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", f.Path, err)
	}
	var fx fixtureFile
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", f.Path, err)
	}

	out := make([]storage.ElementRow, 0, len(fx.Elements))
	for _, fe := range fx.Elements {
		status := fe.Status
		if status == "" {
			status = "ACTIVE"
		}
		row := storage.ElementRow{
			ID:       fe.ID,
			Name:     fe.Name,
			Variant:  fe.Variant,
			Priority: fe.Priority,
			Status:   status,
		}
		if row.Targeting, err = json.Marshal(fe.Targeting); err != nil {
			return nil, fmt.Errorf("element %s: encode targeting: %w", fe.ID, err)
		}
		if row.Trigger, err = json.Marshal(fe.Trigger); err != nil {
			return nil, fmt.Errorf("element %s: encode trigger: %w", fe.ID, err)
		}
		if fe.Design != nil {
			if row.Design, err = json.Marshal(fe.Design); err != nil {
				return nil, fmt.Errorf("element %s: encode design: %w", fe.ID, err)
			}
		}
		out = append(out, row)
	}
	return out, nil
}
