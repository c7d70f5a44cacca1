package pics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(dir, name string) SourceAsset {
	format, _ := NewExtensions().FormatOf(name)
	return SourceAsset{Name: name, Path: filepath.Join(dir, name), Size: 1000, Format: format}
}

func TestPlanner_Plan(t *testing.T) {
	planner := NewPlanner(NewProfileRegistry(), "compressed")
	src := testSource("/site/images", "c.jpg")

	specs, err := planner.Plan(src)
	require.NoError(t, err)

	expected := []struct {
		name    string
		profile string
		format  Format
	}{
		{"c_web.jpg", ProfileWeb, FormatJPEG},
		{"c_web.webp", ProfileWeb, FormatWebP},
		{"c_web.avif", ProfileWeb, FormatAVIF},
		{"c_thumb.webp", ProfileThumbnail, FormatWebP},
		{"c_medium.webp", ProfileMedium, FormatWebP},
		{"c_ultra.jpg", ProfileUltra, FormatJPEG},
	}
	require.Len(t, specs, len(expected))
	for i, want := range expected {
		assert.Equal(t, filepath.Join("/site/images/compressed", want.name), specs[i].OutputPath)
		assert.Equal(t, want.profile, specs[i].Profile.Name)
		assert.Equal(t, want.format, specs[i].Format)
		assert.Equal(t, src, specs[i].Source)
	}
}

func TestPlanner_PlanUsesProfileOptions(t *testing.T) {
	specs, err := NewPlanner(NewProfileRegistry(), "compressed").Plan(testSource("/x", "c.png"))
	require.NoError(t, err)

	assert.Equal(t, 60, specs[1].Options().Quality)
	assert.Equal(t, 65, specs[3].Options().Quality)
	require.NotNil(t, specs[3].Profile.Resize)
	assert.Equal(t, 400, specs[3].Profile.Resize.Width)
	assert.Equal(t, 50, specs[5].Options().Quality)
}

func TestPlanner_NamesAreUniqueAcrossSources(t *testing.T) {
	planner := NewPlanner(NewProfileRegistry(), "compressed")
	seen := map[string]string{}

	for _, name := range []string{"a.jpg", "b.jpeg", "c.png", "a b.JPG"} {
		specs, err := planner.Plan(testSource("/x", name))
		require.NoError(t, err)
		for _, spec := range specs {
			other, dup := seen[spec.OutputPath]
			assert.False(t, dup, "%s planned for both %s and %s", spec.OutputPath, other, name)
			seen[spec.OutputPath] = name
		}
	}
}

func TestPlanner_IsDerivativeName_CustomOutputDir(t *testing.T) {
	planner := NewPlanner(NewProfileRegistry(), "web")

	assert.False(t, planner.IsDerivativeName("cobweb.jpg"))
	assert.False(t, planner.IsDerivativeName("webcam.png"))
	assert.False(t, planner.IsDerivativeName("hero-compressed.jpg"))
	assert.True(t, planner.IsDerivativeName("cobweb_web.jpg"))
	assert.True(t, planner.IsDerivativeName("c_ultra.jpg"))
}

func TestPlanner_IsDerivativeName(t *testing.T) {
	planner := NewPlanner(NewProfileRegistry(), "compressed")

	tests := []struct {
		name     string
		expected bool
	}{
		{"c_web.jpg", true},
		{"c_web.webp", true},
		{"c_thumb.webp", true},
		{"c_medium.webp", true},
		{"c_ultra.jpg", true},
		{"C_ULTRA.JPG", true},
		{"hero-compressed.jpg", true},
		{"c.jpg", false},
		{"web.jpg", false},
		{"webcam_shot.png", false},
		{"thumbnail.png", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, planner.IsDerivativeName(tt.name), tt.name)
	}
}
