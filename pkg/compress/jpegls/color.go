package jpegls

// colorTransformer applies the reversible HP transforms to one RGB triplet.
// Values are reduced modulo 2^bits, bits is 8 or 16.
type colorTransformer struct {
	transform ColorTransform
	rng       int
	mask      int
}

func newColorTransformer(transform ColorTransform, bitsPerSample int) colorTransformer {
	return colorTransformer{transform: transform, rng: 1 << bitsPerSample, mask: 1<<bitsPerSample - 1}
}

func (t colorTransformer) forward(r, g, b int) (int, int, int) {
	half := t.rng / 2
	switch t.transform {
	case ColorTransformHP1:
		return (r - g + half) & t.mask, g, (b - g + half) & t.mask
	case ColorTransformHP2:
		return (r - g + half) & t.mask, g, (b - ((r + g) >> 1) - half) & t.mask
	case ColorTransformHP3:
		v2 := (b - g + half) & t.mask
		v3 := (r - g + half) & t.mask
		v1 := (g + ((v2 + v3) >> 2) - t.rng/4) & t.mask
		return v1, v2, v3
	}
	return r, g, b
}

func (t colorTransformer) inverse(v1, v2, v3 int) (int, int, int) {
	half := t.rng / 2
	switch t.transform {
	case ColorTransformHP1:
		return (v1 + v2 - half) & t.mask, v2, (v3 + v2 - half) & t.mask
	case ColorTransformHP2:
		r := (v1 + v2 - half) & t.mask
		return r, v2, (v3 + ((r + v2) >> 1) - half) & t.mask
	case ColorTransformHP3:
		g := v1 - ((v3 + v2) >> 2) + t.rng/4
		return (v3 + g - half) & t.mask, g & t.mask, (v2 + g - half) & t.mask
	}
	return v1, v2, v3
}
