package labels

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const maxSheetLabels = 120

type sheetRequest struct {
	Count int `json:"count"`
}

// SheetCommandHandler generates a printable PDF sheet of fresh QR labels.
// Each label encodes a scan URL under qrBaseURL so the scanner can resolve
// it back to a code.
func SheetCommandHandler(qrBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Count <= 0 || req.Count > maxSheetLabels {
			http.Error(w, fmt.Sprintf("count must be between 1 and %d", maxSheetLabels), http.StatusBadRequest)
			return
		}

		codes, err := NewCodes(req.Count)
		if err != nil {
			slog.Error("generate label codes failed", slog.Any("err", err))
			http.Error(w, "generate labels failed", http.StatusInternalServerError)
			return
		}

		pdfBytes, err := renderQRLabelSheetPDF(codes, qrBaseURL, time.Now())
		if err != nil {
			slog.Error("render label sheet failed", slog.Any("err", err))
			http.Error(w, "render labels failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="qr-labels.pdf"`)
		if _, err := w.Write(pdfBytes); err != nil {
			slog.Error("write label sheet failed", slog.Any("err", err))
		}
	}
}
