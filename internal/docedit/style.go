package docedit

import "github.com/starford/formfill/internal/models"

func cloneParagraphStyle(s *models.ParagraphStyle) *models.ParagraphStyle {
	if s == nil {
		return nil
	}
	c := *s
	c.IndentStart = cloneDimension(s.IndentStart)
	c.IndentFirstLine = cloneDimension(s.IndentFirstLine)
	return &c
}

func cloneDimension(d *models.Dimension) *models.Dimension {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneBullet(b *models.Bullet) *models.Bullet {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func cloneTextStyle(s *models.TextStyle) *models.TextStyle {
	if s == nil {
		return nil
	}
	c := *s
	c.ForegroundColor = cloneColor(s.ForegroundColor)
	return &c
}

func cloneColor(c *models.OptionalColor) *models.OptionalColor {
	if c == nil {
		return nil
	}
	out := &models.OptionalColor{}
	if c.Color != nil {
		out.Color = &models.Color{}
		if c.Color.RGBColor != nil {
			rgb := *c.Color.RGBColor
			out.Color.RGBColor = &rgb
		}
	}
	return out
}

func mergeTextStyle(old, update *models.TextStyle, fields map[string]bool) *models.TextStyle {
	out := cloneTextStyle(old)
	if out == nil {
		out = &models.TextStyle{}
	}
	if fields["bold"] {
		out.Bold = update.Bold
	}
	if fields["italic"] {
		out.Italic = update.Italic
	}
	if fields["foregroundColor"] {
		out.ForegroundColor = cloneColor(update.ForegroundColor)
	}
	return out
}

// sameStyle treats nil as the zero style.
func sameStyle(a, b *models.TextStyle) bool {
	if a == b {
		return true
	}
	var za, zb models.TextStyle
	if a != nil {
		za = *a
	}
	if b != nil {
		zb = *b
	}
	return za.Bold == zb.Bold && za.Italic == zb.Italic && rgbOf(za.ForegroundColor) == rgbOf(zb.ForegroundColor)
}

type rgbKey struct {
	set     bool
	r, g, b float64
}

func rgbOf(c *models.OptionalColor) rgbKey {
	if c == nil || c.Color == nil || c.Color.RGBColor == nil {
		return rgbKey{}
	}
	return rgbKey{true, c.Color.RGBColor.Red, c.Color.RGBColor.Green, c.Color.RGBColor.Blue}
}
