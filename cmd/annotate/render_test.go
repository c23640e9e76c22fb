package main

import (
	"strings"
	"testing"

	"github.com/lexiqai/reader-gateway/internal/annotate"
)

const samplePassage = `
title: Festivals
language: en
text: "Diwali is celebrated in Jaipur."
entities:
  - start: 0
    end: 6
    text: Diwali
    type: EVENT
    summary: Festival of lights
  - start: 24
    end: 30
    text: Jaipur
    type: GPE
`

func TestLoadPassage(t *testing.T) {
	p, err := LoadPassage(strings.NewReader(samplePassage))
	if err != nil {
		t.Fatalf("LoadPassage failed: %v", err)
	}
	if p.Title != "Festivals" {
		t.Errorf("Expected title Festivals, got %q", p.Title)
	}
	if len(p.Entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(p.Entities))
	}
	if p.Entities[1].Start != 24 || p.Entities[1].Type != "GPE" {
		t.Errorf("Unexpected entity: %+v", p.Entities[1])
	}
}

func TestLoadPassage_UnknownField(t *testing.T) {
	_, err := LoadPassage(strings.NewReader("text: hi\nbody: typo\n"))
	if err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestRenderPassage(t *testing.T) {
	p, err := LoadPassage(strings.NewReader(samplePassage))
	if err != nil {
		t.Fatalf("LoadPassage failed: %v", err)
	}
	segments, stats := annotate.AnnotateWithStats(p.Text, p.Entities)

	out := renderPassage(p, segments)
	for _, want := range []string{"Festivals", "Diwali", "Jaipur", "Festival of lights", annotate.NoSummary, "geographical"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}

	if got := renderStats(stats); !strings.Contains(got, "2 entities highlighted") {
		t.Errorf("Expected stats line, got %q", got)
	}
	if got := renderLegend(); !strings.Contains(got, "mythological") {
		t.Errorf("Expected legend to list categories, got %q", got)
	}
}
