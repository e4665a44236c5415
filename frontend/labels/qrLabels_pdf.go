package labels

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf"
)

const codeBytes = 16

// NewCodes generates n fresh random codes for printable QR labels.
func NewCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	buf := make([]byte, codeBytes)
	for i := 0; i < n; i++ {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating label code: %w", err)
		}
		codes = append(codes, hex.EncodeToString(buf))
	}
	return codes, nil
}

// renderQRLabelSheetPDF lays the codes out as a grid of QR stickers, one
// scannable URL per label with the raw code printed beneath it.
func renderQRLabelSheetPDF(codes []string, baseURL string, printedAt time.Time) ([]byte, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("no labels to render")
	}

	const (
		cols    = 3
		rows    = 4
		margin  = 12.0
		qrSize  = 44.0
		textGap = 5.0
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("QR Labels", false)
	pdf.SetAutoPageBreak(false, 0)

	pageW, pageH := 210.0, 297.0
	cellW := (pageW - 2*margin) / cols
	cellH := (pageH - 2*margin) / rows

	for i, code := range codes {
		slot := i % (cols * rows)
		if slot == 0 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 8)
			pdf.SetTextColor(120, 120, 120)
			pdf.SetXY(margin, pageH-8)
			pdf.CellFormat(pageW-2*margin, 4, "Printed: "+printedAt.Format("02/01/2006"), "", 0, "R", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}

		qrPNG, err := renderQRPNG(baseURL+"?barcode="+code, 600)
		if err != nil {
			return nil, err
		}

		col := slot % cols
		row := slot / cols
		cellX := margin + float64(col)*cellW
		cellY := margin + float64(row)*cellH

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("qr-label-%d", i)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(qrPNG))
		x := cellX + (cellW-qrSize)/2
		y := cellY + (cellH-qrSize-textGap-4)/2
		pdf.ImageOptions(imageName, x, y, qrSize, qrSize, false, opt, 0, "")

		pdf.SetFont("Courier", "", 7)
		pdf.SetXY(cellX, y+qrSize+textGap)
		pdf.CellFormat(cellW, 4, code, "", 0, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderQRPNG(value string, size int) ([]byte, error) {
	code, err := qr.Encode(value, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var qrPNG bytes.Buffer
	if err := png.Encode(&qrPNG, normalized); err != nil {
		return nil, err
	}
	return qrPNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
