package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadExercise loads and validates an exercise document.
func LoadExercise(path string) (*Exercise, error) {
	var exercise Exercise
	if err := loadDocument(path, &exercise); err != nil {
		return nil, err
	}

	if err := exercise.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exercise document %s: %w", path, err)
	}

	return &exercise, nil
}

// LoadParticipant loads and validates a participant document.
func LoadParticipant(path string) (*Participant, error) {
	var participant Participant
	if err := loadDocument(path, &participant); err != nil {
		return nil, err
	}

	if err := participant.Validate(); err != nil {
		return nil, fmt.Errorf("invalid participant document %s: %w", path, err)
	}

	return &participant, nil
}

// loadDocument reads a YAML or JSON file into v, decided by extension.
func loadDocument(path string, v interface{}) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".yml"), strings.HasSuffix(path, ".yaml"):
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	case strings.HasSuffix(path, ".json"):
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}

	return nil
}
