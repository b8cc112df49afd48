package service

// QRCodeService creates QR code tokens and renders them as images.
type QRCodeService interface {
	// NewContent returns a fresh opaque token to print in a QR code.
	NewContent() string

	// RenderPNG encodes the scan URL of content as a PNG image.
	RenderPNG(content string) ([]byte, error)
}
