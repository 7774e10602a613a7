package http

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"modelserve/ml"
	"modelserve/monitoring"
)

//go:embed templates/*.html
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

var formTemplates = template.Must(template.New("form").Funcs(template.FuncMap{
	"percent": formatProbability,
	"clock": func(t time.Time) string {
		return t.Format("15:04:05")
	},
}).ParseFS(templateFS, "templates/*.html"))

const invalidInputMessage = "invalid input"

type formPage struct {
	NumFeatures int
	ModelType   string
	Input       string
	Random      bool
	Result      *ml.Prediction
	Error       string
	History     []HistoryEntry
}

func registerFormHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /form", h.handleForm)
	mux.HandleFunc("POST /form", h.handleFormSubmit)
	mux.HandleFunc("GET /form/random", h.handleFormRandom)
}

func (h *handlers) newFormPage() formPage {
	model := h.dispatcher.Model()
	return formPage{
		NumFeatures: model.NumFeatures(),
		ModelType:   model.Flavor(),
		History:     h.history.Recent(),
	}
}

func (h *handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, h.newFormPage())
}

// handleFormRandom pre-fills the form with a random vector; it never predicts.
func (h *handlers) handleFormRandom(w http.ResponseWriter, r *http.Request) {
	page := h.newFormPage()
	sample := ml.RandomSample(page.NumFeatures, h.randomSource())
	values := make([]string, len(sample))
	for i, v := range sample {
		values[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	page.Input = strings.Join(values, ", ")
	page.Random = true
	h.renderForm(w, r, http.StatusOK, page)
}

func (h *handlers) handleFormSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	page := h.newFormPage()

	if err := r.ParseForm(); err != nil {
		h.stats.Record(monitoring.OutcomeBadRequest, time.Since(start))
		page.Error = invalidInputMessage
		h.renderForm(w, r, http.StatusBadRequest, page)
		return
	}
	page.Input = r.PostForm.Get("features")

	prediction, err := h.dispatcher.DispatchStrings(ml.SplitFeatureText(page.Input))
	if err != nil {
		status := http.StatusBadRequest
		var shapeErr *ml.ShapeError
		switch {
		case errors.As(err, &shapeErr):
			h.stats.Record(monitoring.OutcomeBadRequest, time.Since(start))
			page.Error = shapeErr.Error()
		case ml.IsInputError(err):
			h.stats.Record(monitoring.OutcomeBadRequest, time.Since(start))
			page.Error = invalidInputMessage
		default:
			h.stats.Record(monitoring.OutcomeInternalError, time.Since(start))
			h.logger.Error("form prediction failed",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err),
			)
			status = http.StatusInternalServerError
			page.Error = "internal error"
		}
		h.renderForm(w, r, status, page)
		return
	}

	h.stats.Record(monitoring.OutcomeOK, time.Since(start))
	h.history.Add(HistoryEntry{
		RequestID:   GetRequestID(r.Context()),
		Time:        time.Now(),
		Input:       page.Input,
		Label:       prediction.Label,
		Probability: prediction.PositiveProbability,
	})
	page.Result = prediction
	page.History = h.history.Recent()
	h.renderForm(w, r, http.StatusOK, page)
}

func (h *handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	var buf strings.Builder
	if err := formTemplates.ExecuteTemplate(&buf, "page", page); err != nil {
		h.logger.Error("render form",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(buf.String()))
}

func formatProbability(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return printer.Sprintf("%.2f%%", *p*100)
}
