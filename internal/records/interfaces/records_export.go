package interfaces

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"implant-cloud/internal/channelmap"
	records "implant-cloud/internal/records/domain"
)

type exportRow struct {
	Channel int
	Bank    string
	Result  string
}

// exportRows lists the record's channel results in ascending channel order.
// Channels the session never measured are absent from the record and stay
// absent from the report.
func exportRows(record records.MeasurementRecord) []exportRow {
	rows := make([]exportRow, 0, len(record.ChannelResults))
	for channel := channelmap.MinChannel; channel <= channelmap.MaxChannel; channel++ {
		result, ok := record.ChannelResults[strconv.Itoa(channel)]
		if !ok {
			continue
		}
		ch, err := channelmap.Resolve(channel)
		if err != nil {
			continue
		}
		rows = append(rows, exportRow{Channel: channel, Bank: string(ch.Bank), Result: result})
	}
	return rows
}

// BuildMeasurementPDF renders a per-channel diagnosis report as PDF.
func BuildMeasurementPDF(record records.MeasurementRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Electrode Diagnosis Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Device: %s", record.DeviceID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", record.Date))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Channel", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Bank", "1", 0, "C", false, 0, "")
	pdf.CellFormat(80, 6, "Result", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range exportRows(record) {
		pdf.CellFormat(30, 6, strconv.Itoa(row.Channel), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, row.Bank, "1", 0, "C", false, 0, "")
		pdf.CellFormat(80, 6, row.Result, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildMeasurementXLSX renders a per-channel diagnosis report as XLSX.
func BuildMeasurementXLSX(record records.MeasurementRecord) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	channelsSheet := "channels"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(channelsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Electrode Diagnosis Report")
	_ = f.SetCellValue(summarySheet, "A3", "Device")
	_ = f.SetCellValue(summarySheet, "B3", record.DeviceID)
	_ = f.SetCellValue(summarySheet, "A4", "Date")
	_ = f.SetCellValue(summarySheet, "B4", record.Date)
	_ = f.SetCellValue(summarySheet, "A5", "Channels Measured")
	_ = f.SetCellValue(summarySheet, "B5", len(record.ChannelResults))

	_ = f.SetCellValue(channelsSheet, "A1", "Channel")
	_ = f.SetCellValue(channelsSheet, "B1", "Bank")
	_ = f.SetCellValue(channelsSheet, "C1", "Result")
	for i, row := range exportRows(record) {
		line := i + 2
		_ = f.SetCellValue(channelsSheet, fmt.Sprintf("A%d", line), row.Channel)
		_ = f.SetCellValue(channelsSheet, fmt.Sprintf("B%d", line), row.Bank)
		_ = f.SetCellValue(channelsSheet, fmt.Sprintf("C%d", line), row.Result)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
