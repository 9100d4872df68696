package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	intconfig "dtt/internal/config"
	"dtt/internal/domain"
	"dtt/internal/domain/models"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleTicket() models.TripTicket {
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	km := 42.5
	start, end := 10200.0, 10242.5
	fuel := 20.0
	return models.TripTicket{
		ID:           1,
		DttID:        "DTT-2024-0001",
		DriverName:   "Juan Dela Cruz",
		VehicleBrand: "Toyota",
		VehicleModel: "Hilux",
		PlateNo:      "SAB 1234",
		Passengers:   []string{"Maria Santos", "José Ubiña", "Pedro Peñaflor"},
		Destination:  "Camalaniugan, Cagayan",
		Purpose:      "Inspection of the ongoing road widening project along the national highway and coordination with the district engineering office",
		PeriodFrom:   "2024-03-05",
		PeriodTo:     "2024-03-07",
		CreatedAt:    &created,
		TripLog: models.TripLog{
			DepartureTime: "7:30",
			DistanceKm:    &km,
			FuelBalance:   &fuel,
			OdometerStart: &start,
			OdometerEnd:   &end,
		},
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestTicketRendererLayouts(t *testing.T) {
	r := NewTicketRenderer(intconfig.DefaultFormProfile(), nil)
	r.SetLogos(testPNG(t, 40, 20), testPNG(t, 16, 16))

	for _, layout := range []Layout{LayoutGovernmentForm, LayoutSummary} {
		out, err := r.Render(sampleTicket(), layout)
		if err != nil {
			t.Fatalf("Render(%s) error: %v", layout, err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF")) {
			t.Fatalf("Render(%s) output is not a PDF", layout)
		}
	}
}

// plainCanvas is a canvas over an uncompressed page so the content stream can
// be searched for the encoded bytes.
func plainCanvas() (canvas, *gofpdf.Fpdf) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}, pdf
}

func output(t *testing.T, pdf *gofpdf.Fpdf) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("output: %v", err)
	}
	return buf.Bytes()
}

func TestWrappedRowKeepsAccentedLetters(t *testing.T) {
	c, pdf := plainCanvas()
	c.font("", 10)
	n := c.wrappedRow("3.  Name of authorized passenger/s", "MARIA PEÑA", marginLeft, infoColon, infoValue, infoUnderline, 60)
	if n != 1 {
		t.Fatalf("wrappedRow drew %d lines", n)
	}
	out := output(t, pdf)
	if !bytes.Contains(out, []byte("MARIA PE\xd1A")) {
		t.Fatalf("content stream lost the cp1252 Ñ")
	}
}

func TestLayoutsKeepAccentedLetters(t *testing.T) {
	r := NewTicketRenderer(intconfig.DefaultFormProfile(), nil)
	ticket := sampleTicket()
	ticket.Purpose = "Coordination meeting in Peñablanca"

	for _, layout := range []Layout{LayoutGovernmentForm, LayoutSummary} {
		c, pdf := plainCanvas()
		if layout == LayoutSummary {
			r.paintSummary(c, ticket)
		} else {
			r.paintGovernmentForm(c, ticket)
		}
		out := output(t, pdf)
		if !bytes.Contains(out, []byte("PE\xd1AFLOR")) {
			t.Fatalf("%s layout lost the passenger Ñ", layout)
		}
		if !bytes.Contains(out, []byte("Pe\xf1ablanca")) {
			t.Fatalf("%s layout lost the purpose ñ", layout)
		}
	}
}

func TestTicketRendererWarnsOnOverflow(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewTicketRenderer(intconfig.DefaultFormProfile(), zap.New(core))

	ticket := sampleTicket()
	for i := 0; i < 40; i++ {
		ticket.Passengers = append(ticket.Passengers, "Passenger Number "+strings.Repeat("I", i%5+1))
	}
	if _, err := r.Render(ticket, LayoutSummary); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if logs.FilterMessage("trip ticket runs past the page bottom").Len() != 1 {
		t.Fatalf("expected one overflow warning, got %v", logs.All())
	}

	logs.TakeAll()
	if _, err := r.Render(sampleTicket(), LayoutSummary); err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected warnings for a one-page ticket: %v", logs.All())
	}
}

func TestTicketRendererEmptyTicket(t *testing.T) {
	r := NewTicketRenderer(intconfig.DefaultFormProfile(), nil)
	r.Now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

	for _, layout := range []Layout{LayoutGovernmentForm, LayoutSummary} {
		out, err := r.Render(models.TripTicket{}, layout)
		if err != nil {
			t.Fatalf("Render(%s) of empty ticket error: %v", layout, err)
		}
		if len(out) == 0 {
			t.Fatalf("Render(%s) returned empty output", layout)
		}
	}
}

func TestTicketRendererToleratesBrokenLogos(t *testing.T) {
	profile := intconfig.DefaultFormProfile()
	profile.Logos.Left = "data:image/png;base64,not-base64!!"
	profile.Logos.Right = "/nonexistent/logo.png"
	r := NewTicketRenderer(profile, nil)
	if r.leftLogo != nil || r.rightLogo != nil {
		t.Fatalf("broken logos should be skipped")
	}

	r.SetLogos([]byte("definitely not an image"), testPNG(t, 8, 8))
	if r.leftLogo != nil || r.rightLogo == nil {
		t.Fatalf("expected only the right logo to survive")
	}
	out, err := r.Render(sampleTicket(), LayoutGovernmentForm)
	if err != nil {
		t.Fatalf("Render with broken logo error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestSetLogosKeepsUnsetSide(t *testing.T) {
	r := NewTicketRenderer(intconfig.DefaultFormProfile(), nil)
	r.SetLogos(testPNG(t, 4, 4), testPNG(t, 6, 6))
	right := r.rightLogo

	r.SetLogos(testPNG(t, 8, 2), nil)
	if r.leftLogo == nil || !bytes.Equal(r.rightLogo, right) {
		t.Fatalf("right logo should be kept when no replacement is given")
	}
}

func TestTicketRendererLoadsDataURLLogo(t *testing.T) {
	profile := intconfig.DefaultFormProfile()
	profile.Logos.Left = "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG(t, 4, 4))
	r := NewTicketRenderer(profile, nil)
	if r.leftLogo == nil {
		t.Fatalf("data url logo was not loaded")
	}
}

func TestTicketRendererUnknownLayout(t *testing.T) {
	r := NewTicketRenderer(intconfig.DefaultFormProfile(), nil)
	if _, err := r.Render(sampleTicket(), Layout("poster")); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseLayout(t *testing.T) {
	cases := map[string]Layout{"": LayoutGovernmentForm, "government": LayoutGovernmentForm, " Summary ": LayoutSummary}
	for in, want := range cases {
		got, err := ParseLayout(in)
		if err != nil || got != want {
			t.Fatalf("ParseLayout(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseLayout("poster"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTicketFilename(t *testing.T) {
	now := time.Date(2024, 6, 9, 15, 0, 0, 0, time.UTC)
	got := TicketFilename(models.TripTicket{
		DttID:       "DTT-7",
		Destination: "Tuguegarao City, Cagayan Valley Region II",
		PeriodFrom:  "2024-03-05",
	}, now)
	if got != "DTT_DTT-7_Tuguegarao_City__Cagayan_Valle_2024-03-05.pdf" {
		t.Fatalf("TicketFilename = %q", got)
	}
	if got := TicketFilename(models.TripTicket{}, now); got != "DTT_UNKNOWN_TRIP_2024-06-09.pdf" {
		t.Fatalf("TicketFilename(empty) = %q", got)
	}
}

func TestNormalizeLogoIsSquarePNG(t *testing.T) {
	out, err := normalizeLogo(testPNG(t, 100, 25))
	if err != nil {
		t.Fatalf("normalizeLogo error: %v", err)
	}
	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil || format != "png" {
		t.Fatalf("normalized logo not png: %v %s", err, format)
	}
	b := img.Bounds()
	if b.Dx() != logoPixels || b.Dy() != logoPixels {
		t.Fatalf("normalized logo is %dx%d", b.Dx(), b.Dy())
	}
	if _, _, _, a := img.At(logoPixels/2, 2).RGBA(); a != 0 {
		t.Fatalf("letterbox area should stay transparent")
	}
	if _, _, _, a := img.At(logoPixels/2, logoPixels/2).RGBA(); a == 0 {
		t.Fatalf("logo content missing from the center")
	}

	if _, err := normalizeLogo([]byte("nope")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDriverItemsDerivedReadings(t *testing.T) {
	items := driverItems(sampleTicket().TripLog)
	values := map[string]string{}
	for _, it := range items {
		values[trimItemNumber(it.label)] = it.value
	}
	if values["TOTAL"] != "20" {
		t.Fatalf("TOTAL = %q", values["TOTAL"])
	}
	if values["Distance traveled"] != "42.5" {
		t.Fatalf("odometer distance = %q", values["Distance traveled"])
	}
	if values["Time of departure from office/garage"] != "7:30" {
		t.Fatalf("departure time = %q", values["Time of departure from office/garage"])
	}
	if values["Brake Fluid"] != "" {
		t.Fatalf("brake fluid should be blank")
	}
	if strings.Contains(values["Grease issued"], "_") {
		t.Fatalf("values never carry the blank underline")
	}
}
