package intent

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// Patterns is the keyword configuration the classifier runs on. It is built
// once at startup and never mutated afterwards.
type Patterns struct {
	Direct struct {
		DoYouHave     []string `yaml:"do_you_have"`
		HowMany       []string `yaml:"how_many"`
		WhatIs        []string `yaml:"what_is"`
		WhoWrote      []string `yaml:"who_wrote"`
		Other         []string `yaml:"other"`
		QuestionVerbs []string `yaml:"question_verbs"`
	} `yaml:"direct"`
	Casual     []string `yaml:"casual"`
	Help       []string `yaml:"help"`
	Greeting   []string `yaml:"greeting"`
	Statistics []string `yaml:"statistics"`
	Recommend  []string `yaml:"recommend"`
	Search     []string `yaml:"search"`
	AddBook    struct {
		Verbs []string `yaml:"verbs"`
		Nouns []string `yaml:"nouns"`
	} `yaml:"add_book"`
	Genre  []string `yaml:"genre"`
	Rating []string `yaml:"rating"`
	Status []string `yaml:"status"`
}

var defaultPatterns = sync.OnceValues(func() (*Patterns, error) {
	return ParsePatterns(defaultPatternsYAML)
})

// DefaultPatterns returns the built-in keyword tables.
func DefaultPatterns() *Patterns {
	p, err := defaultPatterns()
	if err != nil {
		panic(fmt.Sprintf("intent: embedded patterns are invalid: %v", err))
	}
	return p
}

// ParsePatterns decodes keyword tables from YAML.
func ParsePatterns(data []byte) (*Patterns, error) {
	var p Patterns
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing intent patterns: %w", err)
	}
	if len(p.Direct.QuestionVerbs) == 0 {
		return nil, fmt.Errorf("parsing intent patterns: direct.question_verbs is empty")
	}
	return &p, nil
}

// LoadPatterns reads keyword tables from path. An empty path yields the
// built-in tables.
func LoadPatterns(path string) (*Patterns, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading intent patterns: %w", err)
	}
	return ParsePatterns(data)
}
