package http

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"premiumcalc/ml"
	"premiumcalc/quote"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// errMalformed marks form values that are not numbers at all.
var errMalformed = errors.New("malformed input")

type handlers struct {
	quotes *quote.Service
	info   ml.ModelInfo
	logger *zap.Logger
}

func newHandlers(quotes *quote.Service, info ml.ModelInfo, logger *zap.Logger) *handlers {
	return &handlers{quotes: quotes, info: info, logger: logger}
}

func registerHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /quote", h.handleFormQuote)
	mux.HandleFunc("POST /api/quote", h.handleAPIQuote)
	mux.HandleFunc("GET /api/model", h.handleModel)
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/ws/quote", h.handleQuoteSocket)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// pageData feeds templates/index.html.
type pageData struct {
	Input     ml.RiskInput
	Locations []ml.Location
	Bounds    bounds
	Quote     *quote.Quote
	Error     string
	Currency  string
	Rate      float64
}

type bounds struct {
	MinAge, MaxAge, MinVehicleAge, MaxVehicleAge int
}

func (h *handlers) page(input ml.RiskInput) pageData {
	return pageData{
		Input:     input,
		Locations: ml.Locations,
		Bounds:    bounds{ml.MinAge, ml.MaxAge, ml.MinVehicleAge, ml.MaxVehicleAge},
		Currency:  h.quotes.Currency(),
		Rate:      h.quotes.Rate(),
	}
}

func (h *handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.page(ml.DefaultRiskInput()))
}

func (h *handlers) handleFormQuote(w http.ResponseWriter, r *http.Request) {
	input, err := parseRiskForm(r)
	data := h.page(input)
	if err != nil {
		data.Error = err.Error()
		h.render(w, r, http.StatusBadRequest, data)
		return
	}

	q, err := h.quotes.Quote(input)
	if err != nil {
		data.Error = err.Error()
		h.render(w, r, statusFor(err), data)
		return
	}
	data.Input = q.Input
	data.Quote = &q
	h.render(w, r, http.StatusOK, data)
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf strings.Builder
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("render page failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, buf.String())
}

// parseRiskForm reads the three form fields. Missing fields fall back to
// the form defaults, matching what the page pre-fills.
func parseRiskForm(r *http.Request) (ml.RiskInput, error) {
	input := ml.DefaultRiskInput()
	if err := r.ParseForm(); err != nil {
		return input, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if v := strings.TrimSpace(r.PostForm.Get("age")); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return input, fmt.Errorf("%w: age %q is not a whole number", errMalformed, v)
		}
		input.Age = age
	}
	if v := strings.TrimSpace(r.PostForm.Get("vehicle_age")); v != "" {
		vehicleAge, err := strconv.Atoi(v)
		if err != nil {
			return input, fmt.Errorf("%w: vehicle age %q is not a whole number", errMalformed, v)
		}
		input.VehicleAge = vehicleAge
	}
	if v := r.PostForm.Get("location"); v != "" {
		input.Location = ml.Location(v)
	}
	return input, nil
}

// quoteResponse is the JSON body of a successful quote.
type quoteResponse struct {
	Input      ml.RiskInput       `json:"input"`
	USD        float64            `json:"usd"`
	UGX        float64            `json:"ugx"`
	USDDisplay string             `json:"usd_display"`
	UGXDisplay string             `json:"ugx_display"`
	Currency   string             `json:"currency"`
	Features   map[string]float64 `json:"features"`
	Cached     bool               `json:"cached"`
}

func newQuoteResponse(q quote.Quote) quoteResponse {
	return quoteResponse{
		Input:      q.Input,
		USD:        q.Premium.USD,
		UGX:        q.Premium.UGX,
		USDDisplay: q.USDDisplay(),
		UGXDisplay: q.UGXDisplay(),
		Currency:   q.Currency,
		Features:   q.Features.Map(),
		Cached:     q.Cached,
	}
}

func (h *handlers) handleAPIQuote(w http.ResponseWriter, r *http.Request) {
	var input ml.RiskInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", errMalformed, err))
		return
	}

	q, err := h.quotes.Quote(input)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(q))
}

func (h *handlers) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"model":         h.info,
		"encoder":       ml.FeatureNames,
		"currency":      h.quotes.Currency(),
		"exchange_rate": h.quotes.Rate(),
	})
}

// statusFor maps quote errors to HTTP status codes: bad input is the
// caller's fault, a rejected row is the model's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformed), quote.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrInference):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
