package pdfword

import (
	"testing"

	"github.com/local/pdfword/internal/pdfsource"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := Classifier{Thresholds: DefaultThresholds}

	tests := []struct {
		name string
		page pdfsource.Page
		want Strategy
	}{
		{"dense drawings win over images", pdfsource.Page{Drawings: 12, TextLength: 0, Images: 1}, StrategyLayout},
		{"scanned page", pdfsource.Page{Drawings: 0, TextLength: 20, Images: 1}, StrategyImage},
		{"plain text page", pdfsource.Page{Drawings: 0, TextLength: 5000, Images: 0}, StrategyLayout},
		{"text heavy page with image", pdfsource.Page{Drawings: 0, TextLength: 100, Images: 2}, StrategyLayout},
		{"drawings at threshold", pdfsource.Page{Drawings: 5, TextLength: 10, Images: 1}, StrategyImage},
		{"drawings above threshold", pdfsource.Page{Drawings: 6, TextLength: 10, Images: 1}, StrategyLayout},
		{"empty page", pdfsource.Page{}, StrategyLayout},
		{"little text no image", pdfsource.Page{TextLength: 3}, StrategyLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.page))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := Classifier{Thresholds: DefaultThresholds}
	p := pdfsource.Page{Drawings: 3, TextLength: 40, Images: 1}
	first := c.Classify(p)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify(p))
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	c := Classifier{Thresholds: Thresholds{Drawings: 0, TextLength: 1000}}
	assert.Equal(t, StrategyLayout, c.Classify(pdfsource.Page{Drawings: 1, TextLength: 10, Images: 1}))
	assert.Equal(t, StrategyImage, c.Classify(pdfsource.Page{TextLength: 500, Images: 1}))
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "layout", StrategyLayout.String())
	assert.Equal(t, "image", StrategyImage.String())
	assert.Equal(t, "unknown", Strategy(9).String())
}
