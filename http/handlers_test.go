package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premiumcalc/ml"
	"premiumcalc/monitoring"
	"premiumcalc/quote"
)

type fakeModel struct {
	value float64
	err   error
}

func (f *fakeModel) Predict(rows [][]float64) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = f.value
	}
	return out, nil
}

func newTestHandler(t *testing.T, model ml.Model) (http.Handler, *monitoring.Metrics) {
	t.Helper()
	return newTestHandlerWithOptions(t, model, quote.Options{})
}

func newTestHandlerWithOptions(t *testing.T, model ml.Model, opts quote.Options) (http.Handler, *monitoring.Metrics) {
	t.Helper()
	svc, err := quote.NewService(model, opts)
	require.NoError(t, err)
	metrics := monitoring.NewMetrics()
	handler := NewHandler(DefaultServerConfig(), Deps{
		Quotes:    svc,
		Metrics:   metrics,
		ModelInfo: ml.Describe(model),
	})
	return handler, metrics
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(handleHealth)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"status":"ok"}`
	if rr.Body.String() != expected+"\n" && rr.Body.String() != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestFormPageDefaults(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeModel{value: 2.5})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Actuarial Premium Calculator")
	assert.Contains(t, body, `name="age" type="number" step="1" min="18" max="80" value="40"`)
	assert.Contains(t, body, `name="vehicle_age" type="number" step="1" min="1" max="20" value="5"`)
	assert.Contains(t, body, `<option value="Urban" selected>Urban</option>`)
	assert.NotContains(t, body, "USD Premium")
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestFormQuote(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeModel{value: 2.5})

	form := url.Values{"age": {"40"}, "vehicle_age": {"5"}, "location": {"Suburban"}}
	req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `<div class="result-highlight" id="usd">$2.50</div>`)
	assert.Contains(t, body, `<div class="ugx-result" id="ugx">UGX 9,250</div>`)
	assert.Contains(t, body, `<option value="Suburban" selected>Suburban</option>`)
	assert.Contains(t, body, "3700 UGX per USD")
}

func TestFormQuoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		model  ml.Model
		form   url.Values
		status int
		want   string
	}{
		{"not a number", &fakeModel{value: 1}, url.Values{"age": {"forty"}}, http.StatusBadRequest, "not a whole number"},
		{"out of range", &fakeModel{value: 1}, url.Values{"age": {"12"}}, http.StatusBadRequest, "out of range"},
		{"bad location", &fakeModel{value: 1}, url.Values{"location": {"Downtown"}}, http.StatusBadRequest, "invalid location"},
		{"model rejects row", &fakeModel{err: errors.New("expected 6 features")}, url.Values{}, http.StatusUnprocessableEntity, "inference failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(t, tt.model)
			req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), `role="alert"`)
			assert.Contains(t, rr.Body.String(), tt.want)
			assert.NotContains(t, rr.Body.String(), "USD Premium")
		})
	}
}

func TestAPIQuote(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeModel{value: 2.5})

	req := httptest.NewRequest(http.MethodPost, "/api/quote",
		strings.NewReader(`{"age":40,"vehicle_age":5,"location":"Suburban"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var payload quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, 2.5, payload.USD)
	assert.Equal(t, 9250.0, payload.UGX)
	assert.Equal(t, "$2.50", payload.USDDisplay)
	assert.Equal(t, "UGX 9,250", payload.UGXDisplay)
	assert.Equal(t, "UGX", payload.Currency)
	assert.Equal(t, 1.0, payload.Features["location_Suburban"])
	assert.Equal(t, 0.0, payload.Features["location_Urban"])
}

func TestAPIQuoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		model  ml.Model
		body   string
		status int
	}{
		{"bad json", &fakeModel{value: 1}, `{"age":`, http.StatusBadRequest},
		{"unknown field", &fakeModel{value: 1}, `{"age":40,"vehicle_age":5,"location":"Urban","sex":"m"}`, http.StatusBadRequest},
		{"invalid location", &fakeModel{value: 1}, `{"age":40,"vehicle_age":5,"location":"Mars"}`, http.StatusBadRequest},
		{"vehicle too old", &fakeModel{value: 1}, `{"age":40,"vehicle_age":30,"location":"Urban"}`, http.StatusBadRequest},
		{"inference", &fakeModel{err: errors.New("bad shape")}, `{"age":40,"vehicle_age":5,"location":"Urban"}`, http.StatusUnprocessableEntity},
		{"conversion overflows", &fakeModel{value: 1e306}, `{"age":40,"vehicle_age":5,"location":"Urban"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(t, tt.model)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rr.Code)
			var payload map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
			assert.NotEmpty(t, payload["error"])
		})
	}
}

func TestInferenceErrorKeepsServing(t *testing.T) {
	model := &fakeModel{err: errors.New("bad shape")}
	handler, _ := newTestHandler(t, model)
	body := `{"age":40,"vehicle_age":5,"location":"Urban"}`

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(body)))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	model.err = nil
	model.value = 3
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestModelInfoAndMetrics(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeModel{value: 2.5})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var payload struct {
		Encoder      []string `json:"encoder"`
		Currency     string   `json:"currency"`
		ExchangeRate float64  `json:"exchange_rate"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, ml.FeatureNames[:], payload.Encoder)
	assert.Equal(t, "UGX", payload.Currency)
	assert.Equal(t, 3700.0, payload.ExchangeRate)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `premiumcalc_http_requests_total{code="200",method="GET"} 1`)
}

func TestConfiguredCurrency(t *testing.T) {
	handler, _ := newTestHandlerWithOptions(t, &fakeModel{value: 2.5}, quote.Options{Rate: 130, Currency: "KES"})

	form := url.Values{"age": {"40"}, "vehicle_age": {"5"}, "location": {"Urban"}}
	req := httptest.NewRequest(http.MethodPost, "/quote", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "KES Premium")
	assert.Contains(t, body, `<div class="ugx-result" id="ugx">KES 325</div>`)
	assert.Contains(t, body, "130 KES per USD")
	assert.NotContains(t, body, "UGX")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "KES", payload["currency"])
	assert.Equal(t, 130.0, payload["exchange_rate"])
}
