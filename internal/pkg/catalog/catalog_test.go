package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCategory(t *testing.T) {
	c, err := ResolveCategory("public-speaking")
	assert.Nil(t, err)
	assert.Equal(t, "Public Speaking", c.DisplayName)

	_, err = ResolveCategory("olia")
	assert.NotNil(t, err)
}

func TestModuleTitle(t *testing.T) {
	tests := []struct {
		name   string
		slug   string
		module int
		want   string
	}{
		{name: "first", slug: "public-speaking", module: 1, want: "First Words"},
		{name: "last", slug: "small-talk", module: 3, want: "Graceful Exits"},
		{name: "out of range", slug: "small-talk", module: 4, want: ""},
		{name: "zero", slug: "small-talk", module: 0, want: ""},
		{name: "unknown category", slug: "olia", module: 1, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleTitle(tt.slug, tt.module))
		})
	}
}

func TestResolveTone(t *testing.T) {
	assert.Equal(t, "onyx", ResolveTone("professional").Voice)
	// unknown tones fall back to friendly
	assert.Equal(t, "alloy", ResolveTone("olia").Voice)
	assert.Equal(t, "friendly", ResolveTone("").Label)
}

func TestLevelBand(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{level: 1, want: "beginner"},
		{level: 3, want: "beginner"},
		{level: 4, want: "intermediate"},
		{level: 7, want: "intermediate"},
		{level: 8, want: "advanced"},
		{level: 12, want: "advanced"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelBand(tt.level))
		})
	}
}

func TestBandExpectation(t *testing.T) {
	for _, b := range []string{"beginner", "intermediate", "advanced"} {
		assert.NotEmpty(t, BandExpectation(b))
	}
	assert.Empty(t, BandExpectation("olia"))
}
