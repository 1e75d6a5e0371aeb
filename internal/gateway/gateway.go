package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"imagegen/internal/models"
)

// Result describes a finished generation.
type Result struct {
	ImageURL string
}

// Generator produces an image for a validated request or fails with a reason.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (Result, error)
}

var failureMessages = []string{
	"AI model temporarily unavailable",
	"Generation timeout",
	"Invalid prompt processing",
	"Resource allocation failed",
	"Model inference error",
}

type modelConfig struct {
	failureRate float64
	baseURL     string
}

// Simulator stands in for a real inference backend. Latency is sampled
// uniformly from [minLatency, maxLatency] and each model fails with its
// configured probability.
type Simulator struct {
	minLatency time.Duration
	maxLatency time.Duration
	configs    map[string]modelConfig

	mu  sync.Mutex
	rng *rand.Rand

	log *logrus.Logger
}

func NewSimulator(minLatency, maxLatency time.Duration, failureRate float64, log *logrus.Logger) *Simulator {
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &Simulator{
		minLatency: minLatency,
		maxLatency: maxLatency,
		configs: map[string]modelConfig{
			"Model A": {failureRate: failureRate, baseURL: "https://placeholder-model-a.com/image"},
			"Model B": {failureRate: failureRate, baseURL: "https://placeholder-model-b.com/image"},
		},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: log,
	}
}

func (s *Simulator) Generate(ctx context.Context, req models.GenerationRequest) (Result, error) {
	cfg, ok := s.configs[req.Model]
	if !ok {
		return Result{}, fmt.Errorf("unknown model %q", req.Model)
	}

	delay, roll, pick := s.sample()
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	if roll < cfg.failureRate {
		message := failureMessages[pick]
		s.log.WithFields(logrus.Fields{
			"requestId": req.ID,
			"model":     req.Model,
		}).Errorf("simulated generation failure: %s", message)
		return Result{}, errors.New(message)
	}

	imageURL := fmt.Sprintf("%s_%s_%d.jpg", cfg.baseURL, req.ID, time.Now().UnixMilli())
	s.log.WithFields(logrus.Fields{
		"requestId": req.ID,
		"model":     req.Model,
		"style":     req.Style,
		"color":     req.Color,
		"size":      req.Size,
	}).Info("generated image")
	return Result{ImageURL: imageURL}, nil
}

// sample draws everything random under one lock; rand.Rand is not safe for
// concurrent use.
func (s *Simulator) sample() (time.Duration, float64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delay := s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		delay += time.Duration(s.rng.Int63n(int64(span) + 1))
	}
	return delay, s.rng.Float64(), s.rng.Intn(len(failureMessages))
}
