package config

import (
	"fmt"
	"time"

	"github.com/Conceptual-Machines/melodia-api/internal/theory"
	"github.com/spf13/viper"
)

// Tuning groups the pipeline knobs that operators may override from a YAML
// file: chunk sizing, oracle retry policy and the emotion table itself.
type Tuning struct {
	MaxNotesPerChunk int          `mapstructure:"max_notes_per_chunk"`
	Oracle           OracleTuning `mapstructure:"oracle"`

	// Emotions overrides the built-in emotion table when non-empty.
	Emotions map[string]theory.EmotionParams `mapstructure:"emotions"`
}

// OracleTuning is the retry policy for oracle calls.
type OracleTuning struct {
	MaxRetries     int     `mapstructure:"max_retries"`
	InitialDelayMS int     `mapstructure:"initial_delay_ms"`
	BackoffFactor  float64 `mapstructure:"backoff_factor"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// InitialDelay returns the first retry delay as a duration.
func (o OracleTuning) InitialDelay() time.Duration {
	return time.Duration(o.InitialDelayMS) * time.Millisecond
}

// Timeout returns the per-attempt timeout as a duration.
func (o OracleTuning) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// LoadTuning reads the tuning file (optional) over the built-in defaults.
// An empty path yields the defaults; a path that cannot be read is an error,
// since a broken override should fail fast rather than silently degrade.
func LoadTuning(path string) (*Tuning, error) {
	v := viper.New()
	v.SetDefault("max_notes_per_chunk", 30)
	v.SetDefault("oracle.max_retries", 3)
	v.SetDefault("oracle.initial_delay_ms", 1000)
	v.SetDefault("oracle.backoff_factor", 2.0)
	v.SetDefault("oracle.timeout_seconds", 30)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read tuning file %s: %w", path, err)
		}
	}

	var tuning Tuning
	if err := v.Unmarshal(&tuning); err != nil {
		return nil, fmt.Errorf("parse tuning: %w", err)
	}
	return &tuning, nil
}

// EmotionTable returns the configured emotion table: the file's override when
// present, otherwise the built-in defaults. The table is validated either way.
func (t *Tuning) EmotionTable() (theory.EmotionTable, error) {
	table := theory.DefaultEmotionTable()
	if len(t.Emotions) > 0 {
		table = theory.EmotionTable(t.Emotions)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
