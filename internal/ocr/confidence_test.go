package ocr

import (
	"testing"

	"github.com/scanwell/consult-intake/internal/entity"
)

func TestPageConfidenceFromWords(t *testing.T) {
	text := entity.NewPageText(0, []string{"Business Name: Acme"}, []entity.Word{
		{Text: "Business", Line: 0, Confidence: 0.9},
		{Text: "Name:", Line: 0, Confidence: 0.8},
		{Text: "Acme", Line: 0, Confidence: 0.7},
	})
	got := PageConfidence(text)
	want := 0.8
	if got < want-1e-9 || got > want+1e-9 {
		t.Errorf("confidence = %v, want %v", got, want)
	}
}

func TestHeuristicConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0.2},
		{"date only", "visited on 03/14/2025", 0.4},
		{"labels and zip", "Business Name: Acme, Chicago 60622", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := heuristicConfidence(tt.text)
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("heuristicConfidence(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
