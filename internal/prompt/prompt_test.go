package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nail-preview-backend/internal/prompt"
)

func TestParseHexColor(t *testing.T) {
	rgb, err := prompt.ParseHexColor("#FF00AA")
	require.NoError(t, err)
	assert.Equal(t, "RGB(255, 0, 170)", rgb.String())

	rgb, err = prompt.ParseHexColor("#ff00aa")
	require.NoError(t, err)
	assert.Equal(t, "RGB(255, 0, 170)", rgb.String())

	for _, bad := range []string{"", "FF00AA", "#FF00A", "#FF00AAB", "#GG00AA", "red"} {
		_, err := prompt.ParseHexColor(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestKeepsCurrentShape(t *testing.T) {
	assert.True(t, prompt.KeepsCurrentShape("Keep Current Shape"))
	assert.True(t, prompt.KeepsCurrentShape("keep current"))
	assert.True(t, prompt.KeepsCurrentShape("KEEP CURRENT nails"))
	assert.False(t, prompt.KeepsCurrentShape("Almond"))
	assert.False(t, prompt.KeepsCurrentShape("Current"))
}

func TestBuild_KeepCurrentShapeBranch(t *testing.T) {
	text := prompt.Build(prompt.Attributes{
		ColorHex:  "#FF00AA",
		ShapeName: "Keep Current Shape",
	})

	assert.Contains(t, strings.ToLower(text), "do not")
	assert.NotContains(t, text, "Transform nail shape to Keep Current Shape")
}

func TestBuild_NamedShapeBranch(t *testing.T) {
	text := prompt.Build(prompt.Attributes{
		ColorHex:   "#FF00AA",
		ShapeName:  "Almond",
		LengthName: "Long",
	})

	assert.Contains(t, text, "Transform nail shape to Almond")
	assert.Contains(t, text, "Long")
	assert.NotContains(t, text, "do not change the nail shape")
}

func TestBuild_ColorFidelity(t *testing.T) {
	text := prompt.Build(prompt.Attributes{
		ColorHex:  "#FF00AA",
		ShapeName: "Almond",
	})

	// The color is embedded twice by design: once in the paint directive,
	// once in the verification directive.
	assert.GreaterOrEqual(t, strings.Count(text, "#FF00AA"), 2)
	assert.GreaterOrEqual(t, strings.Count(text, "RGB(255, 0, 170)"), 2)
}

func TestBuild_MalformedHexStillRenders(t *testing.T) {
	text := prompt.Build(prompt.Attributes{
		ColorHex:  "not-a-color",
		ShapeName: "Round",
	})

	assert.Contains(t, text, "not-a-color")
	assert.NotContains(t, text, "RGB(")
}

func TestBuild_DefaultLength(t *testing.T) {
	text := prompt.Build(prompt.Attributes{
		ColorHex:  "#112233",
		ShapeName: "Round",
	})

	assert.Contains(t, text, "Medium")
}

func TestBuild_FinishAndShadeMetadata(t *testing.T) {
	text := prompt.Build(prompt.Attributes{
		ColorHex:   "#112233",
		ShapeName:  "Round",
		Finish:     "Matte",
		Brand:      "OPI",
		ShadeCode:  "NL-H02",
		ShadeName:  "Chick Flick Cherry",
		Collection: "Classics",
	})

	assert.Contains(t, text, "flat matte surface")
	assert.Contains(t, text, "OPI")
	assert.Contains(t, text, "NL-H02")
	assert.Contains(t, text, "Chick Flick Cherry")
	assert.Contains(t, text, "Classics")
}

func TestBuild_Deterministic(t *testing.T) {
	attrs := prompt.Attributes{
		ColorHex:   "#FF00AA",
		ColorName:  "Pink Pop",
		ShapeName:  "Stiletto",
		LengthName: "Long",
		Finish:     "glossy",
	}

	assert.Equal(t, prompt.Build(attrs), prompt.Build(attrs))
}

func TestBuild_CoverageBoilerplateAlwaysPresent(t *testing.T) {
	for _, shape := range []string{"Almond", "Keep Current Shape"} {
		text := prompt.Build(prompt.Attributes{ColorHex: "#112233", ShapeName: shape})
		assert.Contains(t, text, "cuticle")
		assert.Contains(t, text, "free edge")
		assert.Contains(t, text, "opaque")
	}
}
