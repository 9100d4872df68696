package services

import (
	"fmt"
	"strings"

	"dtt/internal/domain"
	"dtt/internal/utils"

	"github.com/xuri/excelize/v2"
)

const registerSheet = "Trip Tickets"

var registerHeader = []any{
	"Control No.", "Date Created", "Driver", "Vehicle", "Passengers", "Destination",
	"Purpose", "Period Covered", "Distance (km)", "Fuel Used (L)", "Drive Link",
}

// ExportRegister writes the tickets of a period to an .xlsx register and
// returns it with its filename.
func (s TicketService) ExportRegister(from, to string) ([]byte, string, error) {
	list, err := s.List(from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, "", domain.InternalError{Msg: "prepare register", Err: err}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6ECE6"}},
	})
	if err != nil {
		return nil, "", domain.InternalError{Msg: "prepare register", Err: err}
	}
	if err := f.SetSheetRow(registerSheet, "A1", &registerHeader); err != nil {
		return nil, "", domain.InternalError{Msg: "write register header", Err: err}
	}
	last, _ := excelize.CoordinatesToCellName(len(registerHeader), 1)
	_ = f.SetCellStyle(registerSheet, "A1", last, bold)
	_ = f.SetColWidth(registerSheet, "A", "K", 22)
	_ = f.SetPanes(registerSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, t := range list {
		created := ""
		if t.CreatedAt != nil {
			created = utils.FormatDate(*t.CreatedAt)
		}
		row := []any{
			t.DttID,
			created,
			t.DriverName,
			utils.VehicleDescription(t.VehicleBrand, t.VehicleModel, t.PlateNo),
			strings.Join(t.Passengers, ", "),
			t.Destination,
			utils.PurposeLine(t.Purpose, t.Purposes),
			utils.FormatPeriodDates(t.PeriodFrom, t.PeriodTo),
			numberCell(t.TripLog.DistanceKm),
			numberCell(t.TripLog.FuelUsed),
			t.Drive.PublicLink,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(registerSheet, cell, &row); err != nil {
			return nil, "", domain.InternalError{Msg: "write register row", Err: err}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", domain.InternalError{Msg: "serialize register", Err: err}
	}
	utils.LogEvent(s.RequestID, "trip_ticket", "export_register", fmt.Sprintf("rows=%d", len(list)))
	return buf.Bytes(), registerFilename(from, to), nil
}

func numberCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func registerFilename(from, to string) string {
	from, to = utils.Fallback(from, "all"), utils.Fallback(to, "all")
	return fmt.Sprintf("DTT_Register_%s_%s.xlsx", from, to)
}
