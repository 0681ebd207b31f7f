package services

import (
	"bytes"
	"fmt"

	"github.com/fotoatelier/backend/internal/config"
	"github.com/fotoatelier/backend/internal/models"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

type QRService struct {
	cfg *config.Config
}

func NewQRService(cfg *config.Config) *QRService { return &QRService{cfg: cfg} }

// GenerateGalleryQRPDF generates an A4 PDF with a QR code for the gallery
// link, for photographers who hand clients a printed card
func (s *QRService) GenerateGalleryQRPDF(invitation *models.Invitation) ([]byte, error) {
	galleryURL := fmt.Sprintf("%s/gallery/%s", s.cfg.GalleryURL, invitation.Token)

	var qrBuf bytes.Buffer
	png, err := qrcode.Encode(galleryURL, qrcode.Medium, 512)
	if err != nil {
		return nil, err
	}
	qrBuf.Write(png)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Ihre Fotogalerie")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, fmt.Sprintf("Für: %s\nURL: %s\nGültig bis: %s",
		invitation.ClientName, galleryURL, invitation.ExpiresAt.Format("02.01.2006")), "", "L", false)

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", opt, bytes.NewReader(qrBuf.Bytes()))

	// Center QR on the page, A4 width 210mm, QR size 100mm
	x := (210.0 - 100.0) / 2.0
	y := pdf.GetY() + 10
	pdf.ImageOptions("qr", x, y, 100, 100, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
