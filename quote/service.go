package quote

import (
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"premiumcalc/ml"
)

// PremiumResult is the predicted premium in both currencies.
type PremiumResult struct {
	USD float64 `json:"usd"`
	UGX float64 `json:"ugx"`
}

// Quote is the outcome of one submission.
type Quote struct {
	Input    ml.RiskInput  `json:"input"`
	Features ml.FeatureRow `json:"-"`
	Premium  PremiumResult `json:"premium"`
	Currency string        `json:"currency"`
	Cached   bool          `json:"cached"`
}

// USDDisplay is the USD premium rounded for display.
func (q Quote) USDDisplay() string { return FormatUSD(q.Premium.USD) }

// UGXDisplay is the converted premium rounded for display and labelled
// with the quote's currency code.
func (q Quote) UGXDisplay() string {
	if q.Currency == "" {
		return FormatUGX(q.Premium.UGX)
	}
	return FormatAmount(q.Currency, q.Premium.UGX)
}

// Recorder receives per-quote observations.
type Recorder interface {
	ObserveQuote(location string, elapsed time.Duration, err error)
	ObserveCacheHit()
}

// Options configures a Service. The zero value uses DefaultRate and
// SecondaryCurrency, no cache, no metrics and a no-op logger.
type Options struct {
	Rate      float64
	Currency  string
	CacheSize int
	Metrics   Recorder
	Logger    *zap.Logger
}

// Service runs encode, predict and convert for each submission. The model
// is injected once and never replaced, which makes cached results valid for
// the life of the Service.
type Service struct {
	model     ml.Model
	converter Converter
	cache     *lru.Cache[ml.RiskInput, Quote]
	metrics   Recorder
	logger    *zap.Logger
}

// NewService builds a Service around an already loaded model. It refuses a
// model whose declared column order differs from ml.FeatureNames.
func NewService(model ml.Model, opts Options) (*Service, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: model is nil", ml.ErrModelLoad)
	}
	if err := ml.CheckSchema(model); err != nil {
		return nil, err
	}
	s := &Service{
		model:     model,
		converter: NewConverter(opts.Rate, opts.Currency),
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[ml.RiskInput, Quote](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Rate returns the conversion rate in use.
func (s *Service) Rate() float64 {
	return s.converter.Rate
}

// Currency returns the ISO code of the converted premium.
func (s *Service) Currency() string {
	return s.converter.Code
}

// Model returns the injected model.
func (s *Service) Model() ml.Model {
	return s.model
}

// Quote prices one RiskInput. Input errors wrap ml.ErrInvalidLocation or
// ml.ErrOutOfRange; model failures wrap ml.ErrInference. Neither affects
// later calls.
func (s *Service) Quote(in ml.RiskInput) (Quote, error) {
	start := time.Now()
	q, err := s.quote(in)
	if s.metrics != nil {
		s.metrics.ObserveQuote(string(q.Input.Location), time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("quote failed",
			zap.Int("age", in.Age),
			zap.Int("vehicle_age", in.VehicleAge),
			zap.String("location", string(in.Location)),
			zap.Error(err))
		return Quote{}, err
	}
	s.logger.Debug("quote computed",
		zap.Int("age", q.Input.Age),
		zap.Int("vehicle_age", q.Input.VehicleAge),
		zap.String("location", string(q.Input.Location)),
		zap.Float64("usd", q.Premium.USD),
		zap.Bool("cached", q.Cached),
		zap.Duration("elapsed", time.Since(start)))
	return q, nil
}

func (s *Service) quote(in ml.RiskInput) (Quote, error) {
	row, err := ml.Encode(in)
	if err != nil {
		return Quote{}, err
	}
	// Encode accepted the location, so normalizing cannot fail.
	in.Location, _ = ml.ParseLocation(string(in.Location))

	if s.cache != nil {
		if q, ok := s.cache.Get(in); ok {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			q.Cached = true
			return q, nil
		}
	}

	usd, err := ml.Predict(s.model, row)
	if err != nil {
		return Quote{Input: in}, err
	}
	converted := s.converter.Convert(usd)
	if math.IsNaN(converted) || math.IsInf(converted, 0) {
		return Quote{Input: in}, fmt.Errorf("%w: premium %g USD overflows at rate %g", ml.ErrInference, usd, s.converter.Rate)
	}
	q := Quote{
		Input:    in,
		Features: row,
		Premium: PremiumResult{
			USD: usd,
			UGX: converted,
		},
		Currency: s.converter.Code,
	}
	if s.cache != nil {
		s.cache.Add(in, q)
	}
	return q, nil
}

// IsInputError reports whether err was caused by the submitted values
// rather than by the model.
func IsInputError(err error) bool {
	return errors.Is(err, ml.ErrInvalidLocation) || errors.Is(err, ml.ErrOutOfRange)
}
