// Package dicom locates JPEG-LS compressed frames inside DICOM files.
package dicom

// Syntax represents a DICOM Transfer Syntax UID
type Syntax string

const (
	ImplicitVRLittleEndian Syntax = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian Syntax = "1.2.840.10008.1.2.1"

	// JPEG-LS
	JPEGLSLossless     Syntax = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless Syntax = "1.2.840.10008.1.2.4.81"
)

// IsJPEGLS returns true if this is a JPEG-LS transfer syntax
func (s Syntax) IsJPEGLS() bool {
	return s == JPEGLSLossless || s == JPEGLSNearLossless
}

// AllowsNearLossless reports whether frames may carry NEAR > 0.
func (s Syntax) AllowsNearLossless() bool {
	return s == JPEGLSNearLossless
}

// Name returns a human-readable name for the transfer syntax
func (s Syntax) Name() string {
	switch s {
	case ImplicitVRLittleEndian:
		return "Implicit VR Little Endian"
	case ExplicitVRLittleEndian:
		return "Explicit VR Little Endian"
	case JPEGLSLossless:
		return "JPEG-LS Lossless"
	case JPEGLSNearLossless:
		return "JPEG-LS Near-Lossless"
	default:
		return string(s)
	}
}

// ForNear picks the transfer syntax that describes frames coded with near.
func ForNear(near int) Syntax {
	if near == 0 {
		return JPEGLSLossless
	}
	return JPEGLSNearLossless
}
