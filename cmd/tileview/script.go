package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// script is a replay of viewport interactions.
type script struct {
	Size  [2]float64 `yaml:"size"`
	Steps []step     `yaml:"steps"`
}

type step struct {
	Wait    time.Duration `yaml:"wait"`
	Center  *[2]float64   `yaml:"center,omitempty"`
	Zoom    *float64      `yaml:"zoom,omitempty"`
	Angle   *float64      `yaml:"angle,omitempty"`
	Resize  *[2]float64   `yaml:"resize,omitempty"`
	Pointer *[2]float64   `yaml:"pointer,omitempty"`
}

func loadScript(path string) (script, error) {
	s := script{Size: [2]float64{1024, 768}}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if s.Size[0] <= 0 || s.Size[1] <= 0 {
		return s, fmt.Errorf("%s: size must be positive", path)
	}
	return s, nil
}
