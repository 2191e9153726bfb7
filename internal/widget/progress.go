package widget

// progressTracker keeps upload progress in [0, 100] and never lets it move
// backwards within one upload.
type progressTracker struct {
	current int
}

// update applies a reported percentage and reports whether the visible value
// changed.
func (p *progressTracker) update(percent int) (int, bool) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent <= p.current {
		return p.current, false
	}
	p.current = percent
	return p.current, true
}

func (p *progressTracker) reset() {
	p.current = 0
}
