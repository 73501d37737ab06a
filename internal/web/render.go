package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"flora-advisor/internal/advisor"
	"flora-advisor/internal/palette"
	"flora-advisor/internal/ui"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"option": func(name, label string, choices []string, selected string) selectOption {
		return selectOption{Name: name, Label: label, Choices: choices, Selected: selected}
	},
}).ParseFS(templateFS, "templates/*.html"))

type selectOption struct {
	Name     string
	Label    string
	Choices  []string
	Selected string
}

// page is the data behind every HTML response.
type page struct {
	Title            string
	Request          advisor.Request
	Error            string
	Result           *advisor.Result
	NoPlantsMessage  string
	MaxCount         int
	Schemes          []string
	SunLevels        []string
	WaterFrequencies []string
	PlantCycles      []string
	GrowthRates      []string
}

func (s *Server) newPage(req advisor.Request) page {
	schemes := make([]string, len(palette.Schemes))
	for i, sc := range palette.Schemes {
		schemes[i] = sc.Label()
	}
	return page{
		Title:            "Flora Advisor",
		Request:          req,
		NoPlantsMessage:  advisor.NoPlantsMessage,
		MaxCount:         s.maxCount,
		Schemes:          schemes,
		SunLevels:        advisor.SunLevels,
		WaterFrequencies: advisor.WaterFrequencies,
		PlantCycles:      advisor.PlantCycles,
		GrowthRates:      advisor.GrowthRates,
	}
}

func renderHTML(w http.ResponseWriter, status int, p page) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "layout", p); err != nil {
		ui.LogStatus("error", "Template failed: "+err.Error())
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// apiError is the JSON body of every API failure.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ui.LogStatus("error", "Failed to encode response: "+err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}

func writeBlob(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
