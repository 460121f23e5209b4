package infra

// Attendance report PDF using go-pdf/fpdf. One section per worker with a
// row per recorded day and the totals of the period.

import (
	"fmt"
	"io"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"

	"github.com/go-pdf/fpdf"
)

// GenerateAsistenciaPDF renders the attendance report for [inicio, fin] to w.
func GenerateAsistenciaPDF(w io.Writer, inicio, fin string, trabajadores []dto.ReporteTrabajador) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "GestiCom", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Reporte de asistencia"), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Periodo: %s al %s", inicio, fin), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Fecha", 0.16, "L"},
		{"Entrada", 0.14, "C"},
		{tr("Inicio colación"), 0.16, "C"},
		{tr("Fin colación"), 0.16, "C"},
		{"Salida", 0.14, "C"},
		{"Estado", 0.14, "C"},
		{"Horas", 0.10, "R"},
	}

	for _, t := range trabajadores {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, 7, tr(fmt.Sprintf("%s (%s)", t.Nombre, t.RUT)), "B", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 8)
		for _, c := range cols {
			pdf.CellFormat(contentW*c.width, 5, c.title, "B", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		if len(t.Registros) == 0 {
			pdf.CellFormat(contentW, 5, "Sin registros en el periodo", "", 1, "L", false, 0, "")
		}
		for _, r := range t.Registros {
			horas := "-"
			if r.HorasTrabajadas != nil {
				horas = fmt.Sprintf("%.1f", *r.HorasTrabajadas)
			}
			values := []string{
				r.Fecha,
				orDash(r.HoraEntrada),
				orDash(r.HoraInicioColacion),
				orDash(r.HoraFinColacion),
				orDash(r.HoraSalida),
				r.Estado,
				horas,
			}
			for i, c := range cols {
				pdf.CellFormat(contentW*c.width, 5, values[i], "", 0, c.align, false, 0, "")
			}
			pdf.Ln(-1)
		}

		e := t.Estadisticas
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(contentW, 6, tr(fmt.Sprintf(
			"Completos: %d   Incompletos: %d   Ausencias: %d   Total horas: %.1f",
			e.DiasCompletos, e.DiasIncompletos, e.Ausencias, e.TotalHoras,
		)), "T", 1, "L", false, 0, "")
		pdf.Ln(3)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write report: %w", err)
	}
	return nil
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
