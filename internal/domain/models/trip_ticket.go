package models

import "time"

// TripTicket is one Driver's Trip Ticket. Rendering treats it as read-only.
type TripTicket struct {
	ID           int64      `json:"id"`
	DttID        string     `json:"dttId"`
	DriverName   string     `json:"driverName"`
	VehicleBrand string     `json:"vehicleBrand"`
	VehicleModel string     `json:"vehicleModel"`
	PlateNo      string     `json:"plateNo"`
	Passengers   []string   `json:"passengers"`
	Destination  string     `json:"destination"`
	Purpose      string     `json:"purpose"`
	Purposes     []string   `json:"purposes,omitempty"`
	PeriodFrom   string     `json:"periodFrom"`
	PeriodTo     string     `json:"periodTo"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`

	TripLog TripLog    `json:"tripLog"`
	Drive   DriveLinks `json:"drive"`
}

// TripLog holds the readings the driver fills in after the trip. Empty
// strings and nil numbers are printed as blanks.
type TripLog struct {
	DepartureTime            string `json:"departureTime,omitempty"`
	ArrivalAtDestination     string `json:"arrivalAtDestination,omitempty"`
	DepartureFromDestination string `json:"departureFromDestination,omitempty"`
	ArrivalBack              string `json:"arrivalBack,omitempty"`

	DistanceKm *float64 `json:"distanceKm,omitempty"`

	FuelBalance    *float64 `json:"fuelBalance,omitempty"`
	FuelIssued     *float64 `json:"fuelIssued,omitempty"`
	FuelPurchased  *float64 `json:"fuelPurchased,omitempty"`
	FuelUsed       *float64 `json:"fuelUsed,omitempty"`
	FuelBalanceEnd *float64 `json:"fuelBalanceEnd,omitempty"`

	MotorOil       *float64 `json:"motorOil,omitempty"`
	LubricatingOil *float64 `json:"lubricatingOil,omitempty"`
	Grease         *float64 `json:"grease,omitempty"`
	BrakeFluid     *float64 `json:"brakeFluid,omitempty"`

	OdometerEnd   *float64 `json:"odometerEnd,omitempty"`
	OdometerStart *float64 `json:"odometerStart,omitempty"`
}

// FuelTotal is balance + issued + purchased, or nil when none was recorded.
func (l TripLog) FuelTotal() *float64 {
	var sum float64
	seen := false
	for _, v := range []*float64{l.FuelBalance, l.FuelIssued, l.FuelPurchased} {
		if v != nil {
			sum += *v
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &sum
}

// OdometerDistance is end minus start when both readings exist.
func (l TripLog) OdometerDistance() *float64 {
	if l.OdometerEnd == nil || l.OdometerStart == nil {
		return nil
	}
	d := *l.OdometerEnd - *l.OdometerStart
	return &d
}

func (l TripLog) IsEmpty() bool {
	if l.DepartureTime != "" || l.ArrivalAtDestination != "" || l.DepartureFromDestination != "" || l.ArrivalBack != "" {
		return false
	}
	for _, v := range []*float64{
		l.DistanceKm, l.FuelBalance, l.FuelIssued, l.FuelPurchased, l.FuelUsed, l.FuelBalanceEnd,
		l.MotorOil, l.LubricatingOil, l.Grease, l.BrakeFluid, l.OdometerEnd, l.OdometerStart,
	} {
		if v != nil {
			return false
		}
	}
	return true
}

// DriveLinks records where the rendered ticket was uploaded.
type DriveLinks struct {
	FileID       string     `json:"fileId,omitempty"`
	ViewLink     string     `json:"viewLink,omitempty"`
	DownloadLink string     `json:"downloadLink,omitempty"`
	PublicLink   string     `json:"publicLink,omitempty"`
	UploadedAt   *time.Time `json:"uploadedAt,omitempty"`
}

func (d DriveLinks) Uploaded() bool { return d.FileID != "" }
