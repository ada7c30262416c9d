package jpegls

const (
	regularContextCount = 365
	runContextCount     = 2
)

// PredictMED is the median edge detector of A.4.1.
// ra: left, rb: above, rc: above-left.
func PredictMED(ra, rb, rc int) int {
	if rc >= max(ra, rb) {
		return min(ra, rb)
	}
	if rc <= min(ra, rb) {
		return max(ra, rb)
	}
	return ra + rb - rc
}

// quantizer maps local gradients onto the nine regions of A.3.3.
type quantizer struct {
	t1, t2, t3, near int
}

func (q *quantizer) quantizeGradient(d int) int {
	switch {
	case d <= -q.t3:
		return -4
	case d <= -q.t2:
		return -3
	case d <= -q.t1:
		return -2
	case d < -q.near:
		return -1
	case d <= q.near:
		return 0
	case d < q.t1:
		return 1
	case d < q.t2:
		return 2
	case d < q.t3:
		return 3
	}
	return 4
}

// contextID combines the three quantized gradients. Zero selects run mode,
// the sign of the result is the context's orientation.
func (q *quantizer) contextID(rd, rb, rc, ra int) int {
	return (q.quantizeGradient(rd-rb)*9+q.quantizeGradient(rb-rc))*9 + q.quantizeGradient(rc-ra)
}
