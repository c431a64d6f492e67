// Package prompt renders the nail-transformation instruction sent to the
// image model. It is the single prompt implementation: both the client-side
// transform pipeline and the HTTP gateway build their prompts here, so the
// two can never drift apart.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Attributes are the user-selected polish properties a prompt is built from.
// Only ColorHex and ShapeName are load-bearing; everything else enriches the
// instruction when present.
type Attributes struct {
	ColorHex    string
	ColorName   string
	ShapeName   string
	LengthName  string
	Finish      string
	Brand       string
	ProductLine string
	Collection  string
	ShadeCode   string
	ShadeName   string
}

// RGB is a decoded hex color.
type RGB struct {
	R, G, B uint8
}

// String renders the color the way the prompt embeds it, e.g. "RGB(255, 0, 170)".
func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ParseHexColor decodes a "#RRGGBB" string. Callers decide what to do with a
// malformed color; the pipeline's policy is to log and continue with the
// literal string.
func ParseHexColor(hex string) (RGB, error) {
	if !hexColorPattern.MatchString(hex) {
		return RGB{}, fmt.Errorf("invalid hex color %q: want #RRGGBB", hex)
	}
	var c RGB
	if _, err := fmt.Sscanf(strings.ToUpper(hex), "#%02X%02X%02X", &c.R, &c.G, &c.B); err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return c, nil
}

// finishDescriptions maps canonical finish names to the descriptive clause
// appended for them.
var finishDescriptions = map[string]string{
	"glossy":  "a high-shine wet-look top coat with crisp specular highlights",
	"matte":   "a flat matte surface with no shine or reflections",
	"chrome":  "a mirror-like metallic chrome surface",
	"shimmer": "a fine shimmer suspended in the color",
	"glitter": "visible glitter particles throughout the polish",
	"cream":   "a smooth opaque cream finish",
	"pearl":   "a soft pearlescent sheen",
}

// KeepsCurrentShape reports whether a shape label asks the model to leave the
// nail shape alone. The check is a case-insensitive substring match so labels
// like "Keep Current Shape" and "keep current" both qualify.
func KeepsCurrentShape(shapeName string) bool {
	return strings.Contains(strings.ToLower(shapeName), "keep current")
}

// Build renders the transformation instruction. Output is deterministic for
// identical input. The exact hex and RGB strings are embedded twice on
// purpose, once in the paint directive and once in the verification
// directive; the image model needs the reinforcement to hold color fidelity.
func Build(attrs Attributes) string {
	colorHex := attrs.ColorHex
	if colorHex == "" {
		colorHex = "#CC0000"
	}

	colorSpec := colorHex
	if rgb, err := ParseHexColor(colorHex); err == nil {
		colorSpec = fmt.Sprintf("%s (%s)", colorHex, rgb)
	}

	lengthName := attrs.LengthName
	if lengthName == "" {
		lengthName = "Medium"
	}

	var lines []string

	paint := fmt.Sprintf("Repaint every fingernail in this photo with the exact nail polish color %s.", colorSpec)
	if name := strings.TrimSpace(attrs.ColorName); name != "" {
		paint = fmt.Sprintf("Repaint every fingernail in this photo with the exact nail polish color %s, named %q.", colorSpec, name)
	}
	lines = append(lines, paint)

	if shade := describeShade(attrs); shade != "" {
		lines = append(lines, shade)
	}

	if finish := strings.TrimSpace(attrs.Finish); finish != "" {
		desc, ok := finishDescriptions[strings.ToLower(finish)]
		if !ok {
			desc = fmt.Sprintf("a %s finish", finish)
		}
		lines = append(lines, fmt.Sprintf("Finish: render the polish with %s.", desc))
	}

	if KeepsCurrentShape(attrs.ShapeName) {
		lines = append(lines,
			"Keep the nails exactly as they are: do not change the nail shape, and do not change the nail length. Do not reshape, lengthen, shorten or file any nail.")
	} else {
		lines = append(lines, fmt.Sprintf(
			"Transform nail shape to %s and adjust nail length to %s on every nail, keeping all ten nails consistent.",
			attrs.ShapeName, lengthName))
	}

	// Coverage boilerplate, appended for every prompt.
	lines = append(lines,
		"Apply the polish with full coverage from the cuticle to the free edge on every nail: no gaps, no halo of bare nail around the cuticle, fully opaque color with no streaks, and cap the free edge.",
		"Keep the skin, fingers, hand pose, lighting and background completely unchanged. Change nothing in the photo except the nail polish.",
		fmt.Sprintf("Verify the result before returning it: every nail must match %s exactly under the photo's existing lighting. Do not shift the hue, saturation or brightness of the requested color.", colorSpec))

	return strings.Join(lines, "\n")
}

func describeShade(attrs Attributes) string {
	var parts []string
	if v := strings.TrimSpace(attrs.ShadeName); v != "" {
		parts = append(parts, fmt.Sprintf("shade %q", v))
	}
	if v := strings.TrimSpace(attrs.ShadeCode); v != "" {
		parts = append(parts, fmt.Sprintf("code %s", v))
	}
	if v := strings.TrimSpace(attrs.Brand); v != "" {
		parts = append(parts, fmt.Sprintf("by %s", v))
	}
	if v := strings.TrimSpace(attrs.ProductLine); v != "" {
		parts = append(parts, fmt.Sprintf("from the %s line", v))
	}
	if v := strings.TrimSpace(attrs.Collection); v != "" {
		parts = append(parts, fmt.Sprintf("%s collection", v))
	}
	if len(parts) == 0 {
		return ""
	}
	return "The color is a real product: " + strings.Join(parts, ", ") + "."
}
