package services

import (
	"bytes"
	"context"
	"crowdx-backend/internal/apperr"
	"crowdx-backend/internal/models"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"

	exportSheet = "Entries"
)

var entryExportHeader = []string{
	"ID", "Time", "Campaign ID", "Contributor ID", "Amount",
	"Amount Before", "Amount After", "Note",
	"IP Address", "Device Info", "Hash",
}

// Export is a rendered file ready to be sent to a client.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportEntries renders every entry of a campaign in the requested format.
// Only the creator of the campaign may export it.
func (s *CampaignService) ExportEntries(ctx context.Context, campaignID, callerID uint, format string) (*Export, error) {
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return nil, apperr.Validation("format must be %q or %q", ExportCSV, ExportXLSX)
	}

	db := s.db.WithContext(ctx)
	if _, err := s.ownedCampaign(db, campaignID, callerID); err != nil {
		return nil, err
	}

	var entries []models.CampaignEntry
	if err := db.Where("campaign_id = ?", campaignID).Order("created_at asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}

	name := fmt.Sprintf("campaign_%d_entries_%s", campaignID, s.now().UTC().Format("20060102"))
	switch format {
	case ExportXLSX:
		data, err := GenerateEntryXLSX(entries)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    name + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		data, err := GenerateEntryCSV(entries)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: name + ".csv", ContentType: "text/csv", Data: data}, nil
	}
}

func GenerateEntryCSV(entries []models.CampaignEntry) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	if err := w.Write(entryExportHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := entryRecord(e)
		for i := range row {
			row[i] = csvCell(row[i])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func GenerateEntryXLSX(entries []models.CampaignEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &entryExportHeader); err != nil {
		return nil, err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := entryRecord(e)
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// csvCell keeps spreadsheet applications from evaluating contributor text
// as a formula.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

func entryRecord(e models.CampaignEntry) []string {
	contributor := ""
	if e.CreatorID != nil {
		contributor = strconv.FormatUint(uint64(*e.CreatorID), 10)
	}
	return []string{
		strconv.FormatUint(uint64(e.ID), 10),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		strconv.FormatUint(uint64(e.CampaignID), 10),
		contributor,
		e.Amount.StringFixed(models.MoneyScale),
		e.AmountBefore.StringFixed(models.MoneyScale),
		e.AmountAfter.StringFixed(models.MoneyScale),
		e.Note,
		e.IPAddress,
		e.DeviceInfo,
		e.Hash,
	}
}
