package camera

import (
	"log/slog"
	"math"
	"sort"
)

// Preview sizes outside this pixel range are skipped so that tiny default
// resolutions on small screens are not selected by accident.
const (
	MinPreviewPixels = 470 * 320
	MaxPreviewPixels = 1280 * 720
)

// findBestPreviewSize picks the supported preview size best matching the
// screen. Candidates are walked in descending pixel count; a candidate whose
// orientation-flipped dimensions equal the screen wins immediately, otherwise
// the in-range candidate with the smallest aspect-ratio difference is kept.
// When no candidate passes the pixel gate the device default is used.
func findBestPreviewSize(supported []Size, def Size, screen Size, minPixels, maxPixels int) Size {
	if len(supported) == 0 {
		slog.Warn("Device returned no supported preview sizes; using default", "default", def)
		return def
	}

	sizes := make([]Size, len(supported))
	copy(sizes, supported)
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Pixels() > sizes[j].Pixels() })

	screenPortrait := screen.Height > screen.Width
	screenAspect := float64(screen.Width) / float64(screen.Height)

	var best Size
	bestDiff := math.Inf(1)
	for _, c := range sizes {
		pixels := c.Pixels()
		if pixels < minPixels || pixels > maxPixels {
			continue
		}
		fw, fh := c.Width, c.Height
		if (fh > fw) != screenPortrait {
			fw, fh = fh, fw
		}
		if fw == screen.Width && fh == screen.Height {
			slog.Info("Found preview size exactly matching screen", "size", c)
			return c
		}
		diff := math.Abs(float64(fw)/float64(fh) - screenAspect)
		if diff < bestDiff {
			best = c
			bestDiff = diff
		}
	}

	if best.IsZero() {
		slog.Info("No suitable preview sizes, using default", "default", def)
		return def
	}
	return best
}

// findSettableValue returns the first desired value present in supported,
// mirroring the driver parameter negotiation for focus and flash modes.
func findSettableValue[T comparable](supported []T, desired ...T) (T, bool) {
	for _, d := range desired {
		for _, s := range supported {
			if s == d {
				return d, true
			}
		}
	}
	var zero T
	return zero, false
}
