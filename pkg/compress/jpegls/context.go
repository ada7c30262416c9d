package jpegls

const (
	maxKValue     = 16
	minC          = -128
	maxC          = 127
	contextLimitA = 65536 * 256
)

// regularContext holds the A, B, C, N statistics of one gradient context (A.2.1).
type regularContext struct {
	a, b, c, n int
}

func newRegularContext(rng int) regularContext {
	return regularContext{a: InitializationValueForA(rng), n: 1}
}

// golombCodingParameter returns the smallest k with N*2^k >= A.
func (ctx *regularContext) golombCodingParameter() (int, error) {
	k := 0
	for ; ctx.n<<k < ctx.a && k < maxKValue; k++ {
	}
	if k == maxKValue {
		return 0, ErrInvalidEncodedData
	}
	return k, nil
}

// errorCorrection is the lossless k == 0 sign flip of A.5.2.
func (ctx *regularContext) errorCorrection(k int) int {
	if k != 0 {
		return 0
	}
	return bitWiseSign(2*ctx.b + ctx.n - 1)
}

// update applies A.6.1 and A.6.2: accumulate, halve at RESET, then nudge the bias.
func (ctx *regularContext) update(errorValue, nearLossless, resetThreshold int) error {
	ctx.a += abs(errorValue)
	ctx.b += errorValue * (2*nearLossless + 1)
	if ctx.a >= contextLimitA || abs(ctx.b) >= contextLimitA {
		return ErrInvalidEncodedData
	}
	if ctx.n == resetThreshold {
		ctx.a >>= 1
		ctx.b >>= 1
		ctx.n >>= 1
	}
	ctx.n++

	if ctx.b+ctx.n <= 0 {
		ctx.b += ctx.n
		if ctx.b <= -ctx.n {
			ctx.b = -ctx.n + 1
		}
		if ctx.c > minC {
			ctx.c--
		}
	} else if ctx.b > 0 {
		ctx.b -= ctx.n
		if ctx.b > 0 {
			ctx.b = 0
		}
		if ctx.c < maxC {
			ctx.c++
		}
	}
	return nil
}

// runContext codes run interruption samples (A.7.2). Type 1 is used when Ra and Rb are near.
type runContext struct {
	a, n, nn          int
	interruptionType int
}

func newRunContext(interruptionType, rng int) runContext {
	return runContext{a: InitializationValueForA(rng), n: 1, interruptionType: interruptionType}
}

func (ctx *runContext) golombCode() (int, error) {
	temp := ctx.a + (ctx.n>>1)*ctx.interruptionType
	nTest := ctx.n
	k := 0
	for ; nTest < temp; k++ {
		nTest <<= 1
	}
	if k > maxKValue {
		return 0, ErrInvalidEncodedData
	}
	return k, nil
}

func (ctx *runContext) update(errorValue, mappedErrorValue, resetThreshold int) {
	if errorValue < 0 {
		ctx.nn++
	}
	ctx.a += (mappedErrorValue + 1 - ctx.interruptionType) >> 1
	if ctx.n == resetThreshold {
		ctx.a >>= 1
		ctx.n >>= 1
		ctx.nn >>= 1
	}
	ctx.n++
}

// computeMap decides the extra map bit of A.7.2.1.
func (ctx *runContext) computeMap(errorValue, k int) bool {
	switch {
	case k == 0 && errorValue > 0 && 2*ctx.nn < ctx.n:
		return true
	case errorValue < 0 && 2*ctx.nn >= ctx.n:
		return true
	case errorValue < 0 && k != 0:
		return true
	}
	return false
}

// computeErrorValue inverts the interruption mapping, temp is EMErrval + RItype.
func (ctx *runContext) computeErrorValue(temp, k int) int {
	mapBit := temp & 1
	errorValueAbs := (temp + mapBit) / 2
	if (k != 0 || 2*ctx.nn >= ctx.n) == (mapBit != 0) {
		return -errorValueAbs
	}
	return errorValueAbs
}

// contextModel is the scan-local arena of all adaptive statistics.
type contextModel struct {
	regular [regularContextCount]regularContext
	run     [runContextCount]runContext
}

func (m *contextModel) reset(rng int) {
	for i := range m.regular {
		m.regular[i] = newRegularContext(rng)
	}
	m.run[0] = newRunContext(0, rng)
	m.run[1] = newRunContext(1, rng)
}
