package models

import (
	"fmt"
	"strconv"
	"strings"
)

var namedColors = map[string]RGBColor{
	"black":  {},
	"blue":   {Blue: 1},
	"red":    {Red: 1},
	"green":  {Green: 0.5},
	"purple": {Red: 0.5, Blue: 0.5},
	"orange": {Red: 1, Green: 0.6},
	"gray":   {Red: 0.5, Green: 0.5, Blue: 0.5},
}

// ParseColor accepts a colour name or a #rrggbb hex string.
func ParseColor(s string) (RGBColor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if len(s) != 7 || s[0] != '#' {
		return RGBColor{}, fmt.Errorf("unknown colour %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGBColor{}, fmt.Errorf("bad hex colour %q: %w", s, err)
	}
	return RGBColor{
		Red:   float64(v>>16&0xff) / 255,
		Green: float64(v>>8&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}, nil
}
