package qrcode

import (
	"net/url"
	"strings"

	"loyalty/config"
	"loyalty/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const (
	defaultSize  = 256
	contentParam = "code"
	minImageSize = 64
	maxImageSize = 2048
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
	baseURL              string
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(cfg *config.Config) service.QRCodeService {
	size, level, baseURL := defaultSize, "M", ""
	if cfg != nil && cfg.QRCode != nil {
		if cfg.QRCode.Size > 0 {
			size = cfg.QRCode.Size
		}
		level = cfg.QRCode.ErrorCorrectionLevel
		baseURL = cfg.QRCode.BaseURL
	}

	return &qrcodeService{
		size:                 min(max(size, minImageSize), maxImageSize),
		errorCorrectionLevel: recoveryLevel(level),
		baseURL:              baseURL,
	}
}

func recoveryLevel(level string) qrcode.RecoveryLevel {
	switch strings.ToUpper(level) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// NewContent returns a random 32 character token.
func (s *qrcodeService) NewContent() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RenderPNG encodes the scan URL of content, or the bare content when no base URL is configured.
func (s *qrcodeService) RenderPNG(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr code content is empty")
	}

	qrCode, err := qrcode.New(s.scanURL(content), s.errorCorrectionLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create QR code")
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate PNG")
	}

	return pngBytes, nil
}

func (s *qrcodeService) scanURL(content string) string {
	if s.baseURL == "" {
		return content
	}

	separator := "?"
	if strings.Contains(s.baseURL, "?") {
		separator = "&"
	}

	return s.baseURL + separator + url.Values{contentParam: {content}}.Encode()
}
