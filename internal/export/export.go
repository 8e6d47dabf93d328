// Package export builds workbook exports of the claim ledger: one sheet per
// month plus a combined sheet for multi-month periods. Content only, no
// styling.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/woodline-crm/woodquota/internal/models"

	"github.com/xuri/excelize/v2"
)

var headers = []string{"№", "ФИО", "Должность", "ID", "Номер договора", "Дата выдачи", "Дата возврата", "Статус"}

// Exporter renders claim ledgers into xlsx workbooks.
type Exporter struct {
	tzOffsetHours int
}

// NewExporter constructs an Exporter. tzOffsetHours shifts the rendered
// timestamps; storage stays UTC.
func NewExporter(tzOffsetHours int) *Exporter {
	return &Exporter{tzOffsetHours: tzOffsetHours}
}

// Workbook builds an xlsx file with one sheet per month in chronological
// order. When more than one month is present, a combined sheet is prepended.
// claims must already include cancelled rows when the caller wants them
// visible.
func (e *Exporter) Workbook(months []string, claims []models.Claim, users []models.User) ([]byte, error) {
	userMap := make(map[uint64]models.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}

	byMonth := make(map[string][]models.Claim, len(months))
	for _, claim := range claims {
		byMonth[claim.Month] = append(byMonth[claim.Month], claim)
	}

	sorted := append([]string(nil), months...)
	sort.Strings(sorted)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := true
	addSheet := func(title string, rows []models.Claim) error {
		if first {
			// Rename the default sheet instead of leaving it empty.
			if errRename := f.SetSheetName("Sheet1", title); errRename != nil {
				return errRename
			}
			first = false
		} else if _, errNew := f.NewSheet(title); errNew != nil {
			return errNew
		}
		return e.writeSheet(f, title, rows, userMap)
	}

	if len(sorted) > 1 {
		if errWrite := addSheet("Сводная", claims); errWrite != nil {
			return nil, errWrite
		}
	}
	for _, month := range sorted {
		if errWrite := addSheet(month, byMonth[month]); errWrite != nil {
			return nil, errWrite
		}
	}

	var buf bytes.Buffer
	if errSave := f.Write(&buf); errSave != nil {
		return nil, fmt.Errorf("export: write workbook: %w", errSave)
	}
	return buf.Bytes(), nil
}

func (e *Exporter) writeSheet(f *excelize.File, sheet string, claims []models.Claim, userMap map[uint64]models.User) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if errHeader := f.SetSheetRow(sheet, "A1", &header); errHeader != nil {
		return errHeader
	}

	active := 0
	returned := 0
	for idx, claim := range claims {
		name := fmt.Sprintf("ID:%d", claim.UserID)
		roleLabel := "—"
		if u, ok := userMap[claim.UserID]; ok {
			name = u.FullName
			if label, okLabel := models.RoleLabels[u.Role]; okLabel {
				roleLabel = label
			} else {
				roleLabel = u.Role
			}
		}

		status := "Активна"
		returnedAt := ""
		if claim.Cancelled {
			status = "Возврат"
			returned++
			if claim.CancelledAt != nil {
				returnedAt = e.formatTime(*claim.CancelledAt)
			}
		} else {
			active++
		}

		row := []any{
			idx + 1,
			name,
			roleLabel,
			claim.UserID,
			claim.SiteID,
			e.formatTime(claim.CreatedAt),
			returnedAt,
			status,
		}
		cell := fmt.Sprintf("A%d", idx+2)
		if errRow := f.SetSheetRow(sheet, cell, &row); errRow != nil {
			return errRow
		}
	}

	footer := fmt.Sprintf("Активных: %d  |  Возвратов: %d  |  Всего: %d", active, returned, len(claims))
	footerCell := fmt.Sprintf("B%d", len(claims)+3)
	return f.SetCellValue(sheet, footerCell, footer)
}

// formatTime renders a stored UTC timestamp in the configured display
// offset.
func (e *Exporter) formatTime(t time.Time) string {
	shifted := t.UTC().Add(time.Duration(e.tzOffsetHours) * time.Hour)
	return shifted.Format("02.01.2006 15:04")
}
