// internal/workers/notification/send-recommendation/render.go
package sendrecommendation

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"rental-workers/internal/models"
)

const (
	emailSubject = "Rekomendasi kendaraan untuk Anda"
	smsMaxLength = 160
	noMatchText  = "Belum ada kendaraan yang cocok dengan kriteria Anda."
)

var htmlTemplate = template.Must(template.New("recommendation").Parse(`<!DOCTYPE html>
<html><body>
<p>Halo,</p>
<p>Berikut rekomendasi kendaraan untuk permintaan: <em>{{.Prompt}}</em></p>
{{if .Reason}}<p>{{.Reason}}</p>{{end}}
{{if .Lines}}<ol>{{range .Lines}}<li>{{.}}</li>{{end}}</ol>{{else}}<p>` + noMatchText + `</p>{{end}}
{{if .More}}<p>dan {{.More}} kendaraan lainnya.</p>{{end}}
</body></html>`))

type message struct {
	Subject string
	Text    string
	HTML    string
	SMS     string
}

type view struct {
	Prompt string
	Reason string
	Lines  []string
	More   int
}

func render(input *Input, maxVehicles int) (*message, error) {
	shown := input.Results
	if len(shown) > maxVehicles {
		shown = shown[:maxVehicles]
	}

	v := view{
		Prompt: strings.TrimSpace(input.Prompt),
		Reason: strings.TrimSpace(input.Reason),
		More:   len(input.Results) - len(shown),
	}
	for _, vehicle := range shown {
		v.Lines = append(v.Lines, vehicleLine(vehicle))
	}

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	return &message{
		Subject: emailSubject,
		Text:    renderText(v),
		HTML:    html.String(),
		SMS:     renderSMS(shown, v.More),
	}, nil
}

func renderText(v view) string {
	var b strings.Builder
	b.WriteString("Halo,\n\n")
	fmt.Fprintf(&b, "Berikut rekomendasi kendaraan untuk permintaan: %q\n", v.Prompt)
	if v.Reason != "" {
		b.WriteString(v.Reason + "\n")
	}
	b.WriteString("\n")

	if len(v.Lines) == 0 {
		b.WriteString(noMatchText + "\n")
		return b.String()
	}
	for i, line := range v.Lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	if v.More > 0 {
		fmt.Fprintf(&b, "dan %d kendaraan lainnya.\n", v.More)
	}
	return b.String()
}

func renderSMS(shown []models.Vehicle, more int) string {
	if len(shown) == 0 {
		return noMatchText
	}

	parts := make([]string, 0, len(shown))
	for _, v := range shown {
		parts = append(parts, fmt.Sprintf("%s %s/hari", v.Name, formatRupiah(v.DailyPrice)))
	}
	text := "Rekomendasi: " + strings.Join(parts, ", ")
	if more > 0 {
		text += fmt.Sprintf(" (+%d lainnya)", more)
	}

	if r := []rune(text); len(r) > smsMaxLength {
		text = string(r[:smsMaxLength-3]) + "..."
	}
	return text
}

func vehicleLine(v models.Vehicle) string {
	line := fmt.Sprintf("%s %s (%s, %d kursi) - %s/hari", v.Brand, v.Name, v.Type, v.Seat, formatRupiah(v.DailyPrice))
	if v.Branch != nil && v.Branch.City != "" {
		line += " - " + v.Branch.City
	}
	return line
}

// formatRupiah renders 350000 as "Rp 350.000".
func formatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}
