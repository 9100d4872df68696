package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	intconfig "dtt/internal/config"
	"dtt/internal/domain"
	"dtt/internal/domain/models"
	"dtt/internal/utils"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

// Layout selects the trip ticket template.
type Layout string

const (
	// LayoutGovernmentForm replicates the regional office form.
	LayoutGovernmentForm Layout = "government"
	// LayoutSummary is a plain one-page summary of the trip.
	LayoutSummary Layout = "summary"
)

// ParseLayout maps a query value to a Layout. Blank means the government form.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutGovernmentForm:
		return LayoutGovernmentForm, nil
	case LayoutSummary:
		return LayoutSummary, nil
	}
	return "", domain.ValidationError{Field: "layout", Msg: "layout must be government or summary"}
}

const (
	pageCenter     = 105.0
	pageRight      = 200.0
	marginLeft     = 15.0
	infoColon      = 80.0
	infoValue      = 85.0
	infoUnderline  = 110.0
	wrapLineHeight = 5.0
	pageBottom     = 287.0
	blankControlNo = "_________________"
	blankReading   = "____________________"
	signatureLine  = "_______________________________"
)

// TicketRenderer paints trip tickets onto A4 pages.
type TicketRenderer struct {
	Profile intconfig.FormProfile
	Now     func() time.Time
	Log     *zap.Logger

	leftLogo  []byte
	rightLogo []byte
}

// NewTicketRenderer prepares the header logos named by the profile. A logo
// that cannot be read or decoded is logged and left out.
func NewTicketRenderer(profile intconfig.FormProfile, log *zap.Logger) *TicketRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	r := &TicketRenderer{Profile: profile, Now: time.Now, Log: log}
	r.leftLogo = r.prepareLogo("left", profile.Logos.Left)
	r.rightLogo = r.prepareLogo("right", profile.Logos.Right)
	return r
}

// SetLogos replaces the header logos with raw image bytes. An empty side
// keeps its current logo; one that cannot be decoded is dropped.
func (r *TicketRenderer) SetLogos(left, right []byte) {
	if len(left) > 0 {
		r.leftLogo = r.normalize("left", left)
	}
	if len(right) > 0 {
		r.rightLogo = r.normalize("right", right)
	}
}

func (r *TicketRenderer) prepareLogo(side, src string) []byte {
	raw, err := loadLogo(src)
	if err != nil {
		r.log().Warn("logo unavailable", zap.String("side", side), zap.Error(err))
		return nil
	}
	return r.normalize(side, raw)
}

func (r *TicketRenderer) normalize(side string, raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	out, err := normalizeLogo(raw)
	if err != nil {
		r.log().Warn("logo skipped", zap.String("side", side), zap.Error(err))
		return nil
	}
	return out
}

func (r *TicketRenderer) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *TicketRenderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Render paints t with the given layout and returns the PDF bytes.
func (r *TicketRenderer) Render(t models.TripTicket, layout Layout) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	c := canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetTitle(strings.TrimSpace("Driver's Trip Ticket "+t.DttID), true)
	pdf.SetCreator("dtt", true)
	pdf.AddPage()

	var end float64
	switch layout {
	case LayoutSummary:
		end = r.paintSummary(c, t)
	case LayoutGovernmentForm, "":
		end = r.paintGovernmentForm(c, t)
	default:
		return nil, domain.ValidationError{Field: "layout", Msg: fmt.Sprintf("unknown layout %q", layout)}
	}
	if end > pageBottom {
		r.log().Warn("trip ticket runs past the page bottom",
			zap.String("dtt_id", t.DttID),
			zap.String("layout", string(layout)),
			zap.Float64("end_mm", end))
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render trip ticket: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serialize trip ticket: %w", err)
	}
	return buf.Bytes(), nil
}

// TicketFilename is DTT_<id>_<destination>_<date>.pdf. The destination is
// reduced to [A-Za-z0-9_] and 30 characters; the date is the period start or
// today.
func TicketFilename(t models.TripTicket, now time.Time) string {
	id := utils.Fallback(t.DttID, "UNKNOWN")
	dest := utils.SanitizeFilenamePart(utils.Fallback(t.Destination, "TRIP"), 30)
	date := utils.Fallback(t.PeriodFrom, now.Format("2006-01-02"))
	return fmt.Sprintf("DTT_%s_%s_%s.pdf", id, dest, date)
}

// UploadMetadata is the Drive appProperties set attached to an uploaded ticket.
func UploadMetadata(t models.TripTicket) map[string]any {
	return map[string]any{
		"dttId":       t.DttID,
		"driverName":  t.DriverName,
		"destination": t.Destination,
		"periodFrom":  t.PeriodFrom,
		"periodTo":    t.PeriodTo,
	}
}

func (r *TicketRenderer) drawLogos(c canvas) {
	c.image("logo-left", r.leftLogo, marginLeft, 10, 25, r.log())
	c.image("logo-right", r.rightLogo, 170, 10, 25, r.log())
}

func (r *TicketRenderer) createdDate(t models.TripTicket) string {
	if t.CreatedAt != nil && !t.CreatedAt.IsZero() {
		return utils.FormatLongDate(*t.CreatedAt)
	}
	return utils.FormatLongDate(r.now())
}

// paintGovernmentForm returns the y position below the last signature.
func (r *TicketRenderer) paintGovernmentForm(c canvas, t models.TripTicket) float64 {
	p := r.Profile
	r.drawLogos(c)

	y := 20.0
	for i, line := range p.Header {
		style := ""
		if line.Bold {
			style = "B"
		}
		c.font(style, headerSize(line.Size))
		c.textCenter(pageCenter, y, line.Text)
		if i == len(p.Header)-1 {
			y += 8
		} else {
			y += 4
		}
	}

	c.font("B", 14)
	c.textCenter(pageCenter, y, p.Title)
	y += 10

	c.font("B", 10)
	c.textRight(pageRight, y, r.createdDate(t))
	y += 4
	c.font("", 9)
	c.textRight(pageRight, y, "(Date)")
	y += 4
	c.pdf.SetTextColor(0, 128, 0)
	c.font("B", 9)
	c.textRight(pageRight, y, "Control No.: "+utils.Fallback(t.DttID, blankControlNo))
	c.pdf.SetTextColor(0, 0, 0)
	y += 8

	c.font("", 10)
	row := func(label, value string) {
		c.row(label, value, marginLeft, infoColon, infoValue, infoUnderline, y)
		y += 6
	}
	row("1.  Name of Driver", t.DriverName)
	row("2.  Gov't. Vehicle to be used", utils.VehicleDescription(t.VehicleBrand, t.VehicleModel, t.PlateNo))
	n := c.wrappedRow("3.  Name of authorized passenger/s", utils.PassengerLine(t.Passengers), marginLeft, infoColon, infoValue, infoUnderline, y)
	y += float64(n)*wrapLineHeight + 1
	row("4.  Places to be visited/inspected", t.Destination)
	row("5.  Period Covered", utils.FormatPeriodDates(t.PeriodFrom, t.PeriodTo))
	n = c.wrappedRow("6.  Purpose", utils.PurposeLine(t.Purpose, t.Purposes), marginLeft, infoColon, infoValue, infoUnderline, y)
	y += float64(n)*wrapLineHeight + 5

	y = r.paintApprovals(c, y+3)
	y = r.paintDriverSection(c, t.TripLog, y)
	return r.paintCertifications(c, t, y)
}

func (r *TicketRenderer) paintApprovals(c canvas, y float64) float64 {
	rec, app := r.Profile.Recommending, r.Profile.Approving
	const rightCol = 115.0

	c.font("", 10)
	c.text(marginLeft, y, rec.Caption)
	c.text(rightCol, y, app.Caption)
	y += 4
	if rec.Subcaption != "" {
		c.text(marginLeft, y, rec.Subcaption)
	}
	if app.Subcaption != "" {
		c.text(rightCol, y, app.Subcaption)
	}
	y += 10

	c.font("B", 10)
	c.text(marginLeft, y, rec.Name)
	c.text(rightCol, y, app.Name)
	y += 4

	c.font("", 10)
	for i := 0; i < max(len(rec.Lines), len(app.Lines)); i++ {
		if i < len(rec.Lines) {
			c.text(marginLeft, y, rec.Lines[i])
		}
		if i < len(app.Lines) {
			c.text(rightCol, y, app.Lines[i])
		}
		y += 4
	}
	return y + 6
}

type driverItem struct {
	label   string
	indent  float64
	value   string
	unit    string
	heading bool
	advance float64
}

func driverItems(l models.TripLog) []driverItem {
	const (
		item = 20.0
		sub  = 28.0
	)
	return []driverItem{
		{label: "1.  Time of departure from office/garage", indent: item, value: l.DepartureTime, unit: "AM/PM"},
		{label: "2.  Time of arrival at (No. 4 above)", indent: item, value: l.ArrivalAtDestination, unit: "AM/PM"},
		{label: "3.  Time of departure from (No. 4 above)", indent: item, value: l.DepartureFromDestination, unit: "AM/PM"},
		{label: "4.  Time of arrival back to office/garage", indent: item, value: l.ArrivalBack, unit: "AM/PM"},
		{label: "5.  Approximate distance traveled", indent: item, value: reading(l.DistanceKm), unit: "kms."},
		{label: "6.  Gasoline issued, purchased and consumed", indent: item, heading: true},
		{label: "a.  Balance in tank", indent: sub, value: reading(l.FuelBalance), unit: "liters"},
		{label: "b.  Issued by office from stock", indent: sub, value: reading(l.FuelIssued), unit: "liters"},
		{label: "c.  ADD: Purchased during the trip", indent: sub, value: reading(l.FuelPurchased), unit: "liters", advance: 4},
		{label: "TOTAL", indent: sub + 30, value: reading(l.FuelTotal()), unit: "liters"},
		{label: "d)  DEDUCT: Used during the trip", indent: sub, value: reading(l.FuelUsed), unit: "liters"},
		{label: "e)  Balance in tank at the end of trip", indent: sub, value: reading(l.FuelBalanceEnd), unit: "liters"},
		{label: "7.  Motor oil issued", indent: item, value: reading(l.MotorOil), unit: "liters"},
		{label: "8.  Lubricating oil issued", indent: item, value: reading(l.LubricatingOil), unit: "liters"},
		{label: "9.  Grease issued", indent: item, value: reading(l.Grease), unit: "liters"},
		{label: "10. Brake Fluid", indent: item, value: reading(l.BrakeFluid), unit: "liters"},
		{label: "11. Speedometer reading (if any)", indent: item, heading: true},
		{label: "a.  At the end of a trip", indent: sub, value: reading(l.OdometerEnd), unit: "kms."},
		{label: "b.  At the beginning of a trip", indent: sub, value: reading(l.OdometerStart), unit: "kms."},
		{label: "c.  Distance traveled", indent: sub, value: reading(l.OdometerDistance()), unit: "kms.", advance: 8},
	}
}

func (r *TicketRenderer) paintDriverSection(c canvas, l models.TripLog, y float64) float64 {
	const colon = 85.0

	c.font("", 10)
	c.text(marginLeft, y, "To be filled out by Driver:")
	y += 5
	for _, it := range driverItems(l) {
		c.text(it.indent, y, it.label)
		if !it.heading {
			c.text(colon, y, ":")
			c.fillIn(colon+5, y, it.value, it.unit)
		}
		if it.advance > 0 {
			y += it.advance
		} else {
			y += 5
		}
	}
	return y
}

func (r *TicketRenderer) paintCertifications(c canvas, t models.TripTicket, y float64) float64 {
	p := r.Profile
	c.font("", 9)
	c.text(marginLeft, y, "I HEREBY CERTIFY the correctness of the above statement of record of travel.")
	y += 10
	driver := strings.ToUpper(utils.NormalizeSpace(t.DriverName))
	y = c.signature(y, utils.Fallback(driver, p.DefaultDriver), "Driver")
	y += 8

	c.font("", 9)
	c.text(marginLeft, y, "I HEREBY CERTIFY that I used this vehicle on official business.")
	y += 10
	return c.signature(y, p.PassengerSignatory, "Passenger/s")
}

func (r *TicketRenderer) paintSummary(c canvas, t models.TripTicket) float64 {
	const (
		labelX    = 20.0
		colonX    = 70.0
		valueX    = 75.0
		underline = 115.0
	)
	r.drawLogos(c)

	y := 24.0
	c.font("B", 16)
	c.textCenter(pageCenter, y, r.Profile.Title)
	y += 7
	c.font("", 10)
	c.textCenter(pageCenter, y, "Control No.: "+utils.Fallback(t.DttID, blankControlNo))
	y += 5
	c.textCenter(pageCenter, y, r.createdDate(t))
	y += 14

	y = c.section(y, "Trip Details")
	row := func(label, value string) {
		c.row(label, value, labelX, colonX, valueX, underline, y)
		y += 7
	}
	row("Driver", t.DriverName)
	row("Vehicle", utils.VehicleDescription(t.VehicleBrand, t.VehicleModel, t.PlateNo))
	row("Destination", t.Destination)
	row("Period Covered", utils.FormatPeriodDates(t.PeriodFrom, t.PeriodTo))
	n := c.wrappedRow("Purpose", utils.PurposeLine(t.Purpose, t.Purposes), labelX, colonX, valueX, underline, y)
	y += float64(n)*wrapLineHeight + 6

	y = c.section(y, "Authorized Passengers")
	c.font("", 10)
	passengers := utils.CleanNameList(t.Passengers)
	if len(passengers) == 0 {
		c.text(labelX, y, "None listed")
		y += 6
	}
	for _, name := range passengers {
		c.text(labelX, y, "•  "+strings.ToUpper(name))
		y += 6
	}
	y += 4

	if !t.TripLog.IsEmpty() {
		y = c.section(y, "Post-trip Readings")
		c.font("", 10)
		for _, it := range driverItems(t.TripLog) {
			if it.heading || it.value == "" {
				continue
			}
			c.row(trimItemNumber(it.label), it.value+" "+it.unit, labelX, colonX, valueX, underline, y)
			y += 7
		}
		y += 4
	}

	if t.Drive.Uploaded() {
		y = c.section(y, "Drive")
		c.font("", 9)
		c.row("Public link", utils.Fallback(t.Drive.PublicLink, t.Drive.ViewLink), labelX, colonX, valueX, underline, y)
		y += 7
	}
	return y
}

// trimItemNumber drops the "6.", "a." or "d)" prefix of a form label.
func trimItemNumber(label string) string {
	head, rest, ok := strings.Cut(label, " ")
	if ok && len(head) <= 3 && strings.ContainsAny(head[len(head)-1:], ".)") {
		return strings.TrimSpace(rest)
	}
	return label
}

func reading(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func headerSize(size float64) float64 {
	if size <= 0 {
		return 9
	}
	return size
}

// canvas holds the drawing helpers shared by both layouts. Strings are
// translated to cp1252 exactly once, by text or by wrap.
type canvas struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (c canvas) font(style string, size float64) {
	c.pdf.SetFont("Helvetica", style, size)
}

func (c canvas) text(x, y float64, s string) {
	if s == "" {
		return
	}
	c.pdf.Text(x, y, c.tr(s))
}

// encoded draws a string that is already cp1252.
func (c canvas) encoded(x, y float64, s string) {
	if s == "" {
		return
	}
	c.pdf.Text(x, y, s)
}

func (c canvas) width(s string) float64 {
	return c.pdf.GetStringWidth(c.tr(s))
}

func (c canvas) textCenter(x, y float64, s string) {
	c.text(x-c.width(s)/2, y, s)
}

func (c canvas) textRight(x, y float64, s string) {
	c.text(x-c.width(s), y, s)
}

// row draws "label : value" with a fixed-width underline under the value.
func (c canvas) row(label, value string, labelX, colonX, valueX, underline, y float64) {
	c.text(labelX, y, label)
	c.text(colonX, y, ":")
	c.text(valueX, y, value)
	c.pdf.Line(valueX, y+1, valueX+underline, y+1)
}

// wrappedRow is row for values that may need several lines. It returns the
// number of lines drawn, at least one.
func (c canvas) wrappedRow(label, value string, labelX, colonX, valueX, underline, y float64) int {
	c.text(labelX, y, label)
	c.text(colonX, y, ":")
	lines := c.wrap(value, underline)
	for i, line := range lines {
		ly := y + float64(i)*wrapLineHeight
		c.encoded(valueX, ly, line)
		c.pdf.Line(valueX, ly+1, valueX+underline, ly+1)
	}
	return len(lines)
}

// wrap splits s to width w. The lines come back cp1252 encoded.
func (c canvas) wrap(s string, w float64) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{""}
	}
	var out []string
	for _, line := range c.pdf.SplitLines([]byte(c.tr(s)), w) {
		out = append(out, string(line))
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

// fillIn prints a recorded value over a short underline, or the printed blank
// when nothing was recorded.
func (c canvas) fillIn(x, y float64, value, unit string) {
	if value == "" {
		c.text(x, y, blankReading+" "+unit)
		return
	}
	blank := c.width(blankReading)
	c.text(x+1, y, value)
	c.pdf.Line(x, y+1, x+blank, y+1)
	c.text(x+blank+c.width(" "), y, unit)
}

func (c canvas) signature(y float64, name, caption string) float64 {
	c.font("B", 9)
	c.textRight(pageRight, y, signatureLine)
	y += 4
	c.font("", 9)
	c.textRight(pageRight, y-1, name)
	y += 3
	c.textRight(pageRight, y, caption)
	return y
}

func (c canvas) section(y float64, title string) float64 {
	c.pdf.SetFillColor(230, 236, 230)
	c.pdf.Rect(marginLeft, y-5, 180, 7, "F")
	c.font("B", 11)
	c.text(marginLeft+2, y, title)
	return y + 9
}

// image embeds an already normalized PNG. Failures are logged and the
// document error is cleared so rendering continues.
func (c canvas) image(name string, data []byte, x, y, size float64, log *zap.Logger) {
	if len(data) == 0 {
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !c.pdf.Ok() {
		log.Warn("logo not embedded", zap.String("name", name), zap.Error(c.pdf.Error()))
		c.pdf.ClearError()
		return
	}
	c.pdf.ImageOptions(name, x, y, size, size, false, opts, 0, "")
}
