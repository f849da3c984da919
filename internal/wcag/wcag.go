// Package wcag implements the color math behind WCAG contrast checks:
// hex parsing, relative luminance, contrast ratios, and compliance levels.
package wcag

import "math"

// Level is a WCAG contrast compliance tier for normal-size text.
type Level string

const (
	LevelAAA  Level = "AAA"
	LevelAA   Level = "AA"
	LevelFail Level = "FAIL"
)

// Contrast-ratio thresholds for normal text.
const (
	RatioAA  = 4.5
	RatioAAA = 7.0
)

// RGB is a color with 8-bit channels.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// HexToRGB parses a 3- or 6-digit hex color, with or without a leading "#".
// Invalid input reports ok=false instead of an error; callers treat that as
// the universal invalid-color signal.
func HexToRGB(hex string) (RGB, bool) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	switch len(hex) {
	case 3:
		r, okR := hexNibble(hex[0])
		g, okG := hexNibble(hex[1])
		b, okB := hexNibble(hex[2])
		if !okR || !okG || !okB {
			return RGB{}, false
		}
		// A 3-digit color expands by doubling each nibble: #abc -> #aabbcc.
		return RGB{R: r<<4 | r, G: g<<4 | g, B: b<<4 | b}, true
	case 6:
		r, okR := hexByte(hex[0], hex[1])
		g, okG := hexByte(hex[2], hex[3])
		b, okB := hexByte(hex[4], hex[5])
		if !okR || !okG || !okB {
			return RGB{}, false
		}
		return RGB{R: r, G: g, B: b}, true
	default:
		return RGB{}, false
	}
}

// RelativeLuminance computes the WCAG relative luminance of a color,
// in [0,1], using the sRGB linearization curve.
func RelativeLuminance(c RGB) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// ContrastRatio computes the contrast ratio between two hex colors.
// The ratio is in [1,21]; ok is false when either color fails to parse.
func ContrastRatio(hexA, hexB string) (float64, bool) {
	a, okA := HexToRGB(hexA)
	b, okB := HexToRGB(hexB)
	if !okA || !okB {
		return 0, false
	}
	return ContrastRatioRGB(a, b), true
}

// ContrastRatioRGB computes the contrast ratio between two parsed colors.
func ContrastRatioRGB(a, b RGB) float64 {
	la := RelativeLuminance(a)
	lb := RelativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// LevelFor classifies a contrast ratio against the normal-text thresholds.
// Boundary values are inclusive on the higher tier.
func LevelFor(ratio float64) Level {
	switch {
	case ratio >= RatioAAA:
		return LevelAAA
	case ratio >= RatioAA:
		return LevelAA
	default:
		return LevelFail
	}
}

// ValidLevel reports whether s is one of the known compliance tiers.
func ValidLevel(s string) bool {
	switch Level(s) {
	case LevelAAA, LevelAA, LevelFail:
		return true
	}
	return false
}

func linearize(channel uint8) float64 {
	v := float64(channel) / 255
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func hexByte(hi, lo byte) (uint8, bool) {
	h, okH := hexNibble(hi)
	l, okL := hexNibble(lo)
	if !okH || !okL {
		return 0, false
	}
	return h<<4 | l, true
}
