package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/studyloop/engine/internal/domain/session"
	"github.com/studyloop/engine/internal/service"
)

// engineFile is the YAML shape of the optional engine tuning file.
// Every field is optional; absent values keep their compiled-in defaults.
type engineFile struct {
	TargetAccuracy     *float64                        `yaml:"target_accuracy"`
	QuestionsPerMinute *float64                        `yaml:"questions_per_minute"`
	BreakEveryMinutes  *int                            `yaml:"break_every_minutes"`
	MaxDueItems        *int                            `yaml:"max_due_items"`
	Distributions      map[string]session.Distribution `yaml:"difficulty_distributions"`
}

// LoadEngine returns the engine configuration, overlaying the YAML file at
// path (if non-empty) onto the defaults. The SM-2 coefficients and
// predictor weights are deliberately not tunable from the file: they are
// behavioral constants, not deployment knobs.
func LoadEngine(path string) (service.Config, error) {
	cfg := service.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read engine config: %w", err)
	}
	var file engineFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse engine config: %w", err)
	}

	if file.TargetAccuracy != nil {
		cfg.Adapter.TargetAccuracy = *file.TargetAccuracy
	}
	if file.QuestionsPerMinute != nil {
		cfg.Planner.QuestionsPerMinute = *file.QuestionsPerMinute
	}
	if file.BreakEveryMinutes != nil {
		cfg.Planner.BreakEveryMinutes = *file.BreakEveryMinutes
	}
	if file.MaxDueItems != nil {
		cfg.Planner.MaxDueItems = *file.MaxDueItems
	}
	for name, dist := range file.Distributions {
		cfg.Planner.Distributions[session.Type(name)] = dist
	}
	return cfg, nil
}
