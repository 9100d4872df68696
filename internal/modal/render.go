package modal

import (
	"bytes"
	"html"
	"strconv"
)

func classList(cfg Config) []string {
	classes := []string{"dtt-modal", "dtt-modal-" + string(cfg.Size)}
	if cfg.ClassName != "" {
		classes = append(classes, cfg.ClassName)
	}
	return classes
}

// renderModal builds the dialog markup. Title, labels and icons are escaped;
// Content is inserted as is.
func renderModal(id string, cfg Config) string {
	var buf bytes.Buffer
	titleID := html.EscapeString(id + "-title")

	buf.WriteString(`<div class="dtt-modal-container" role="dialog" aria-modal="true" aria-labelledby="` + titleID + `">
  <div class="dtt-modal-header">
    <h2 class="dtt-modal-title" id="` + titleID + `">` + html.EscapeString(cfg.Title) + `</h2>
`)
	if !cfg.NonDismissible {
		buf.WriteString(`    <button class="dtt-modal-close" aria-label="Close"><i class="bi bi-x-lg"></i></button>
`)
	}
	buf.WriteString(`  </div>
  <div class="dtt-modal-body">
    ` + cfg.Content + `
  </div>
`)
	if len(cfg.Buttons) > 0 {
		buf.WriteString(`  <div class="dtt-modal-footer">
`)
		for i, btn := range cfg.Buttons {
			buf.WriteString(renderButton(i, btn))
		}
		buf.WriteString(`  </div>
`)
	}
	buf.WriteString(`</div>
`)
	return buf.String()
}

func renderButton(index int, btn Button) string {
	icon := ""
	if btn.Icon != "" {
		icon = `<i class="bi bi-` + html.EscapeString(btn.Icon) + ` me-2"></i>`
	}
	return `    <button class="dtt-modal-btn dtt-modal-btn-` + html.EscapeString(string(btn.Style)) +
		`" data-action="` + strconv.Itoa(index) + `">` + icon + html.EscapeString(btn.Label) + `</button>
`
}

func messageContent(message string) string {
	return `<p class="dtt-modal-message">` + html.EscapeString(message) + `</p>`
}

func alertContent(cfg AlertConfig) string {
	return `<div class="dtt-modal-alert dtt-modal-alert-` + string(cfg.Type) + `">` +
		`<i class="bi bi-` + alertIcons[cfg.Type] + ` dtt-modal-alert-icon"></i>` +
		messageContent(cfg.Message) + `</div>`
}

func loadingContent(cfg LoadingConfig) string {
	return `<div class="dtt-modal-loading">` +
		`<div class="spinner-border text-primary mb-3" role="status"><span class="visually-hidden">Loading...</span></div>` +
		messageContent(cfg.Message) + `</div>`
}
