package plan

import (
	"fmt"
	"math/rand"
	"slices"
)

// DefaultImageCount is the size of the bundled card image set.
const DefaultImageCount = 10

// ImagePool is the ordered set of image references cycled across a plan's
// cards. It is shuffled once per process and read-only afterwards.
type ImagePool []string

// DefaultImages returns the bundled image references /card1.jpg .. /card10.jpg.
func DefaultImages() ImagePool {
	images := make(ImagePool, DefaultImageCount)
	for i := range images {
		images[i] = fmt.Sprintf("/card%d.jpg", i+1)
	}
	return images
}

// Shuffle returns a shuffled copy of images. The input is left untouched so
// tests can pass a seeded source and predict the order.
func Shuffle(images []string, rng *rand.Rand) ImagePool {
	out := ImagePool(slices.Clone(images))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// At returns the image for the card at position i, wrapping around the pool.
func (p ImagePool) At(i int) string {
	if len(p) == 0 {
		return ""
	}
	return p[i%len(p)]
}
