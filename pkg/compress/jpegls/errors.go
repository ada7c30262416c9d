package jpegls

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter reports frame geometry, near-lossless or preset values outside their legal domain.
	ErrInvalidParameter = errors.New("jpegls: invalid parameter")
	// ErrInvalidOperation reports a scan or codec method called out of order.
	ErrInvalidOperation = errors.New("jpegls: invalid operation")
	// ErrSourceTooSmall reports input that ends before the scan is complete.
	ErrSourceTooSmall = errors.New("jpegls: source buffer too small")
	// ErrDestinationTooSmall reports an output buffer that cannot hold the encoded data.
	ErrDestinationTooSmall = errors.New("jpegls: destination buffer too small")
	// ErrInvalidEncodedData reports a corrupted entropy coded segment.
	ErrInvalidEncodedData = errors.New("jpegls: invalid encoded data")
	// ErrTooMuchEncodedData reports entropy coded bytes left over after the last sample.
	ErrTooMuchEncodedData = errors.New("jpegls: too much encoded data")
	// ErrRestartMarkerNotFound reports a missing or out of sequence RSTm marker.
	ErrRestartMarkerNotFound = errors.New("jpegls: restart marker not found")
	// ErrInvalidMarker reports a marker that is not allowed at the current position.
	ErrInvalidMarker = errors.New("jpegls: invalid marker")
	// ErrUnsupportedEncoding reports a valid JPEG-LS feature this codec does not implement.
	ErrUnsupportedEncoding = errors.New("jpegls: unsupported encoding")
	// ErrUnsupportedImage reports an image.Image type the encoder cannot read.
	ErrUnsupportedImage = errors.New("jpegls: unsupported image type")
)

// ScanError carries the position at which a scan failed.
type ScanError struct {
	Op        string // "encode" or "decode"
	Offset    int    // byte offset in the scan's entropy coded data
	Component int
	Row       int
	Column    int
	Err       error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("jpegls: %s scan failed at offset %d (component %d, row %d, column %d): %v",
		e.Op, e.Offset, e.Component, e.Row, e.Column, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
