package reactive

import "voxelnav.ai/internal/nav/geom"

// stuckDetector keeps a short sliding window of position samples and
// declares stuck when average pairwise movement falls below the threshold
// or every sample clusters inside a tight radius.
type stuckDetector struct {
	window    int
	threshold float64
	samples   []geom.Vec3
}

func newStuckDetector(window int, threshold float64) *stuckDetector {
	return &stuckDetector{window: window, threshold: threshold}
}

func (s *stuckDetector) record(pos geom.Vec3) {
	s.samples = append(s.samples, pos)
	if len(s.samples) > s.window {
		s.samples = s.samples[1:]
	}
}

func (s *stuckDetector) reset() { s.samples = s.samples[:0] }

func (s *stuckDetector) isStuck() bool {
	if len(s.samples) < s.window {
		return false
	}
	total := 0.0
	for i := 1; i < len(s.samples); i++ {
		total += geom.Dist(s.samples[i-1], s.samples[i])
	}
	if total/float64(len(s.samples)-1) < s.threshold {
		return true
	}

	// Clustering: all samples within a tight radius of the first.
	const clusterRadius = 0.3
	for _, p := range s.samples[1:] {
		if geom.Dist(s.samples[0], p) > clusterRadius {
			return false
		}
	}
	return true
}
