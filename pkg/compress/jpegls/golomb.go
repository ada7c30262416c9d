package jpegls

import "sync"

// GolombCode is one decode table entry. A zero Length means the code is longer than 8 bits.
type GolombCode struct {
	ErrorValue int
	Length     int
}

// GolombCodeTable resolves every Golomb-Rice code of at most 8 bits with a single lookup.
type GolombCodeTable struct {
	codes [256]GolombCode
}

// Get returns the entry for the next 8 bits of the stream.
func (t *GolombCodeTable) Get(b byte) GolombCode {
	return t.codes[b]
}

func (t *GolombCodeTable) addEntry(bits int, code GolombCode) {
	shift := 8 - code.Length
	for i := 0; i < 1<<shift; i++ {
		t.codes[bits<<shift+i] = code
	}
}

var golombTables [maxKValue + 1]struct {
	once  sync.Once
	table GolombCodeTable
}

// GolombTable returns the shared, lazily built table for k in [0, 16].
func GolombTable(k int) *GolombCodeTable {
	g := &golombTables[k]
	g.once.Do(func() { g.table = buildGolombTable(k) })
	return &g.table
}

func buildGolombTable(k int) GolombCodeTable {
	var t GolombCodeTable
	add := func(errorValue int) bool {
		mapped := MapErrorValue(errorValue)
		length := mapped>>k + k + 1
		if length > 8 {
			return false
		}
		t.addEntry(1<<k|mapped&(1<<k-1), GolombCode{ErrorValue: errorValue, Length: length})
		return true
	}
	for e := 0; add(e); e++ {
	}
	for e := -1; add(e); e-- {
	}
	return t
}

// encodeMappedValue writes a limited length Golomb-Rice code (A.5.3).
func encodeMappedValue(w *BitWriter, k, mappedErrorValue, limit, qbpp int) error {
	highBits := mappedErrorValue >> k
	if highBits < limit-qbpp-1 {
		if highBits+1 > 31 {
			if err := w.AppendToBitStream(0, highBits/2); err != nil {
				return err
			}
			highBits -= highBits / 2
		}
		if err := w.AppendToBitStream(1, highBits+1); err != nil {
			return err
		}
		return w.AppendToBitStream(uint32(mappedErrorValue&(1<<k-1)), k)
	}
	if limit-qbpp > 31 {
		if err := w.AppendToBitStream(0, 31); err != nil {
			return err
		}
		if err := w.AppendToBitStream(1, limit-qbpp-31); err != nil {
			return err
		}
	} else if err := w.AppendToBitStream(1, limit-qbpp); err != nil {
		return err
	}
	return w.AppendToBitStream(uint32((mappedErrorValue-1)&(1<<qbpp-1)), qbpp)
}

// decodeValue reads a limited length Golomb-Rice code and returns the mapped value.
func decodeValue(r *BitReader, k, limit, qbpp int) (int, error) {
	highBits, err := r.readHighBits(limit - qbpp - 1)
	if err != nil {
		return 0, err
	}
	if highBits >= limit-(qbpp+1) {
		v, err := r.ReadBits(qbpp)
		if err != nil {
			return 0, err
		}
		return v + 1, nil
	}
	if k == 0 {
		return highBits, nil
	}
	v, err := r.ReadBits(k)
	if err != nil {
		return 0, err
	}
	return highBits<<k + v, nil
}
