package render

import (
	"fmt"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-pdf/fpdf"
)

// WritePDF renders the HTML report into a paginated PDF.  This is a pure
// format conversion: the HTML is flattened to markdown-ish text and printed
// line by line.  Characters outside the core font (the emoji) degrade to
// best-effort substitutions instead of aborting the run.
func WritePDF(htmlPath, pdfPath string) error {
	raw, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("render: couldn't read %s: %w", htmlPath, err)
	}

	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(string(raw))
	if err != nil {
		return fmt.Errorf("render: couldn't flatten html: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			pdf.SetFont("Helvetica", "B", 16)
			pdf.MultiCell(0, 9, tr(strings.TrimPrefix(line, "# ")), "", "L", false)
			pdf.SetFont("Helvetica", "", 12)
		case strings.HasPrefix(line, "## "):
			pdf.SetFont("Helvetica", "B", 13)
			pdf.MultiCell(0, 7, tr(strings.TrimPrefix(line, "## ")), "", "L", false)
			pdf.SetFont("Helvetica", "", 12)
		default:
			pdf.MultiCell(0, 6, tr(line), "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("render: couldn't write %s: %w", pdfPath, err)
	}

	return nil
}
