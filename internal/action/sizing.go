package action

// WPlanes returns the w-projection plane count for an image of the given
// size in pixels. Thresholds follow the imaging tools' performance
// envelope; a size exactly on a boundary takes the lower tier.
func WPlanes(imsize int) int {
	wplanes := 1
	if imsize > 512 {
		wplanes = 64
	}
	if imsize > 799 {
		wplanes = 96
	}
	if imsize > 1023 {
		wplanes = 128
	}
	if imsize > 1599 {
		wplanes = 256
	}
	if imsize > 2047 {
		wplanes = 384
	}
	if imsize > 3000 {
		wplanes = 448
	}
	if imsize > 4095 {
		wplanes = 512
	}
	return wplanes
}
