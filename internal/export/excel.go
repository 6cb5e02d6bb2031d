// Package export writes analysis reports to Excel workbooks.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/analysis"
)

const (
	SummarySheet      = "Summary"
	MatchesSheet      = "Skill Matches"
	DistributionSheet = "Distribution"

	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// now is replaced in tests.
var now = time.Now

// ToExcel writes the report to path and returns the path actually written,
// which always carries the .xlsx extension. score may be nil.
func ToExcel(report *analysis.Report, score *ai.Score, path string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Workbook(report, score)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", path, err)
	}
	return path, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, report *analysis.Report, score *ai.Score) error {
	f, err := Workbook(report, score)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook builds the Summary, Skill Matches and Distribution sheets.
// The caller closes the file.
func Workbook(report *analysis.Report, score *ai.Score) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report is required")
	}

	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{MatchesSheet, DistributionSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create styles: %w", err)
	}

	steps := []struct {
		name string
		fn   func(*sheet) error
	}{
		{SummarySheet, func(s *sheet) error { return writeSummary(s, report, score) }},
		{MatchesSheet, func(s *sheet) error { return writeMatches(s, report) }},
		{DistributionSheet, func(s *sheet) error { return writeDistribution(s, report) }},
	}
	for _, step := range steps {
		if err := step.fn(&sheet{f: f, name: step.name, styles: styles}); err != nil {
			f.Close()
			return nil, fmt.Errorf("create %s sheet: %w", strings.ToLower(step.name), err)
		}
	}

	return f, nil
}

type styles struct {
	title  int
	header int
	label  int
	wrap   int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return s, err
	}

	return s, nil
}

// sheet writes cells and remembers the first error.
type sheet struct {
	f      *excelize.File
	name   string
	styles styles
	err    error
}

func (s *sheet) set(col, row int, value any) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(s.name, cell, value)
}

func (s *sheet) style(fromCol, fromRow, toCol, toRow, style int) {
	if s.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, fromRow)
	if err != nil {
		s.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, toRow)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.name, from, to, style)
}

func (s *sheet) widths(widths ...float64) {
	for i, w := range widths {
		if s.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetColWidth(s.name, col, col, w)
	}
}

func (s *sheet) headers(names ...string) {
	for i, name := range names {
		s.set(i+1, 1, name)
	}
	s.style(1, 1, len(names), 1, s.styles.header)
}

func (s *sheet) freezeHeader() {
	if s.err != nil {
		return
	}
	s.err = s.f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(s *sheet, report *analysis.Report, score *ai.Score) error {
	s.widths(25, 70)

	s.set(1, 1, "Resume Fit Report")
	s.style(1, 1, 2, 1, s.styles.title)

	row := 3
	label := func(name string, value any) {
		s.set(1, row, name)
		s.style(1, row, 1, row, s.styles.label)
		s.set(2, row, value)
		row++
	}

	label("Generated:", now().Format("2006-01-02 15:04:05"))
	label("Classification:", string(report.Fit.Classification))
	label("Reasoning:", report.Fit.Reasoning)
	label("Job category:", report.JobCategory)
	label("Resume skills:", report.Resume.Skills.Count())
	label("Job skills:", report.Job.Skills.Count())

	if score != nil {
		row++
		label("ATS score:", score.Overall)
		label("Skill match:", score.Breakdown.SkillMatch)
		label("Experience relevance:", score.Breakdown.ExperienceRelevance)
		label("Formatting:", score.Breakdown.Formatting)
		label("Missing skills:", strings.Join(score.MissingSkills, ", "))
		label("Summary:", score.Summary)
	}

	s.style(2, 3, 2, row, s.styles.wrap)

	return s.err
}

func writeMatches(s *sheet, report *analysis.Report) error {
	s.widths(20, 12, 12, 50, 50)
	s.headers("Domain", "Matched", "Required", "Matched skills", "Missing skills")

	for i, m := range report.Matches {
		row := i + 2
		s.set(1, row, m.Domain)
		s.set(2, row, len(m.Matched))
		s.set(3, row, m.Required)
		s.set(4, row, strings.Join(m.Matched, ", "))
		s.set(5, row, strings.Join(m.Missing, ", "))
		s.style(1, row, 5, row, s.styles.wrap)
	}

	if s.err == nil && len(report.Matches) > 0 {
		s.err = s.f.AutoFilter(s.name, fmt.Sprintf("A1:E%d", len(report.Matches)+1), nil)
	}
	s.freezeHeader()

	return s.err
}

func writeDistribution(s *sheet, report *analysis.Report) error {
	s.widths(12, 20, 12, 60)
	s.headers("Document", "Domain", "Share, %", "Skills")

	row := 2
	for _, side := range []struct {
		name string
		side analysis.Side
	}{
		{"Resume", report.Resume},
		{"Job", report.Job},
	} {
		for _, domain := range side.side.Distribution.Domains() {
			s.set(1, row, side.name)
			s.set(2, row, domain)
			s.set(3, row, side.side.Distribution[domain])
			s.set(4, row, strings.Join(side.side.Skills[domain], ", "))
			s.style(1, row, 4, row, s.styles.wrap)
			row++
		}
	}
	s.freezeHeader()

	return s.err
}
