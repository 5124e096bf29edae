package domain

import "math"

// LoudnessToVolume converts a source's reported loudness (in dB above the
// normalization target) into a playback volume factor in [0,1].
// Sources quieter than the target are left at full volume.
func LoudnessToVolume(db float64) float64 {
	if db < 0 {
		return DefaultVolume
	}

	factor := math.Pow(10, -db/20)
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return DefaultVolume
	}

	return min(max(factor, 0), 1)
}
