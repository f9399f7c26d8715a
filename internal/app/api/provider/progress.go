package provider

// MonotonicProgress wraps fn so the observed percentage is clamped to
// [0,100] and never decreases, whatever the underlying source reports.
func MonotonicProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return nil
	}
	last := 0.0
	return func(percent float64) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		if percent < last {
			return
		}
		last = percent
		fn(percent)
	}
}
