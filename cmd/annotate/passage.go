package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexiqai/reader-gateway/internal/annotate"
)

// Passage is the YAML input: the text and the entities detected in it.
//
//	text: "Diwali is celebrated across India."
//	entities:
//	  - {start: 0, end: 6, text: Diwali, type: EVENT, summary: Festival of lights}
type Passage struct {
	Title    string            `yaml:"title"`
	Language string            `yaml:"language"`
	Text     string            `yaml:"text"`
	Entities []annotate.Entity `yaml:"entities"`
}

// LoadPassageFile reads and parses a passage YAML file from disk.
func LoadPassageFile(path string) (*Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open passage file %q: %w", path, err)
	}
	defer f.Close()

	p, err := LoadPassage(f)
	if err != nil {
		return nil, fmt.Errorf("parse passage file %q: %w", path, err)
	}
	return p, nil
}

// LoadPassage parses passage YAML from r.
func LoadPassage(r io.Reader) (*Passage, error) {
	var p Passage
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode passage yaml: %w", err)
	}
	return &p, nil
}
