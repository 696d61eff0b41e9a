package ladder

import (
	"fmt"

	"gitlab.com/transcodeuz/hls-packager/models"
)

// Well-known output resolutions, highest quality first.
const (
	Resolution4K     = "4k"
	ResolutionFullHD = "1080p"
	ResolutionHD     = "720p"
	ResolutionSD     = "480p"
	ResolutionLD     = "360p"
	ResolutionVLD    = "240p"
)

// standardLadder is the fixed set candidate rungs are drawn from,
// ordered by descending pixel count.
var standardLadder = []models.Resolution{
	{Name: Resolution4K, Width: 3840, Height: 2160, Bitrate: "6000k"},
	{Name: ResolutionFullHD, Width: 1920, Height: 1080, Bitrate: "4000k"},
	{Name: ResolutionHD, Width: 1280, Height: 720, Bitrate: "3000k"},
	{Name: ResolutionSD, Width: 854, Height: 480, Bitrate: "1500k"},
	{Name: ResolutionLD, Width: 640, Height: 360, Bitrate: "500k"},
	{Name: ResolutionVLD, Width: 426, Height: 240, Bitrate: "300k"},
}

// Rungs kept per quality preset in adaptive mode.
var presetRungs = map[string]int{
	models.QualityLow:    2,
	models.QualityMedium: 3,
	models.QualityHigh:   len(standardLadder),
}

// Constraints narrows the generated ladder.
type Constraints struct {
	// Names, when non-empty, keeps only the listed rungs. Unknown names
	// are dropped, never fabricated.
	Names []string
	// Preset trims the ladder to a preset-sized subset when Names is empty.
	Preset string
	// MinWidth/MinHeight drop rungs below the floor.
	MinWidth  int
	MinHeight int
}

// Generate returns the output resolutions for a source of the given
// dimensions, highest quality first. No rung ever exceeds the source in
// either dimension, and the source aspect ratio is preserved when the
// source is not 16:9. Same inputs always produce the same list.
func Generate(sourceWidth, sourceHeight int, c Constraints) []models.Resolution {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return nil
	}

	rungs := fit(sourceWidth, sourceHeight, c.MinWidth, c.MinHeight)

	if len(c.Names) > 0 {
		return filterByName(rungs, c.Names)
	}

	if n, ok := presetRungs[c.Preset]; ok && n < len(rungs) {
		rungs = rungs[:n]
	}
	return rungs
}

// fit maps every standard rung onto the source, skipping rungs the source
// cannot fill and rungs below the floor. A source smaller than the whole
// standard set yields a single rung matching the source itself.
func fit(sourceWidth, sourceHeight, minWidth, minHeight int) []models.Resolution {
	aw, ah := reduceAspect(sourceWidth, sourceHeight)

	var out []models.Resolution
	for _, std := range standardLadder {
		if std.Height > sourceHeight {
			continue
		}

		w := evenRound(float64(std.Height) * float64(aw) / float64(ah))
		h := std.Height
		if w > sourceWidth {
			// Taller-than-wide sources: derive height from the standard
			// width instead.
			if std.Width > sourceWidth {
				continue
			}
			w = std.Width
			h = evenRound(float64(w) * float64(ah) / float64(aw))
			if h > sourceHeight {
				continue
			}
		}

		if (minWidth > 0 && w < minWidth) || (minHeight > 0 && h < minHeight) {
			continue
		}

		out = append(out, models.Resolution{
			Name:    std.Name,
			Width:   w,
			Height:  h,
			Bitrate: std.Bitrate,
		})
	}

	if len(out) == 0 {
		w := sourceWidth - sourceWidth%2
		h := sourceHeight - sourceHeight%2
		out = append(out, models.Resolution{
			Name:    fmt.Sprintf("%dp", h),
			Width:   w,
			Height:  h,
			Bitrate: standardLadder[len(standardLadder)-1].Bitrate,
		})
	}

	return out
}

func filterByName(rungs []models.Resolution, names []string) []models.Resolution {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []models.Resolution
	for _, r := range rungs {
		if wanted[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

// reduceAspect reduces width:height by their greatest common divisor.
func reduceAspect(width, height int) (int, int) {
	d := gcd(width, height)
	return width / d, height / d
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func evenRound(v float64) int {
	n := int(v + 0.5)
	if n%2 != 0 {
		n++
	}
	return n
}
