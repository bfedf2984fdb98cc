package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"hydromet-data/internal/domain"

	"github.com/xuri/excelize/v2"
)

// DeviceExportHeader 设备清单导出表头
var DeviceExportHeader = []string{
	"Device Name",
	"Location",
	"Latitude",
	"Longitude",
	"Status",
	"Water Level (m)",
	"Rainfall (mm)",
	"Temperature (C)",
	"Humidity (%)",
	"Wind Speed (m/s)",
	"Pressure (hPa)",
	"Battery (%)",
	"Threshold (m)",
	"Last Update",
	"Registration Date",
}

// GenerateDeviceExport 生成设备清单 Excel 文件
// devices 为空时只生成表头。
func GenerateDeviceExport(devices []*domain.Device) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Devices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头
	for i, header := range DeviceExportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to get cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header: %w", err)
		}
	}

	// 数据行
	for rowIdx, d := range devices {
		lastUpdate := ""
		if !d.LastUpdate.IsZero() {
			lastUpdate = d.LastUpdate.UTC().Format(time.RFC3339)
		}
		values := []any{
			d.Name,
			d.Location,
			d.Coordinates.Lat,
			d.Coordinates.Lng,
			d.Status,
			d.WaterLevel.Value,
			d.Rainfall.Value,
			d.Temperature.Value,
			d.Humidity.Value,
			d.WindSpeed.Value,
			d.Pressure.Value,
			d.BatteryLevel,
			d.Threshold,
			lastUpdate,
			d.RegistrationDate,
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to get cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}

	return buf.Bytes(), nil
}
