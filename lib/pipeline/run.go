// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pitwall-systems/pitwall/lib/fanout"
	"github.com/pitwall-systems/pitwall/lib/wire"
)

// DefaultSampleInterval publishes every 10th accepted record to the
// fan-out hub.
const DefaultSampleInterval = 10

// Log sampling cadences. Drop causes repeat at wire rate; the first
// occurrence always logs, then every Nth after it.
const (
	decodeDropLogInterval = 100
	budgetDropLogInterval = 10
	occupancyLogInterval  = 5000
)

// Publisher receives the sampled observation stream. *fanout.Hub
// implements it.
type Publisher interface {
	Publish(fanout.Observation)
}

// Config assembles a Pipeline.
type Config struct {
	// Source yields raw datagrams. Required.
	Source Source

	// Processor decides each datagram. Required.
	Processor *Processor

	// Publisher receives every SampleEvery-th accepted record, fully
	// decoded. Nil disables fan-out.
	Publisher Publisher

	// SampleEvery is the fan-out sampling cadence over accepted
	// records; zero or negative selects DefaultSampleInterval.
	SampleEvery int

	// Logger receives loop lifecycle and sampled drop logs. Required.
	Logger *slog.Logger
}

// Pipeline is the ingestion loop: receive, decide, sample.
type Pipeline struct {
	source      Source
	processor   *Processor
	publisher   Publisher
	sampleEvery uint64
	logger      *slog.Logger

	decodeDrops uint64
	budgetDrops uint64
}

// New returns a Pipeline over cfg.
func New(cfg Config) *Pipeline {
	if cfg.Source == nil || cfg.Processor == nil || cfg.Logger == nil {
		panic("pipeline: Config requires Source, Processor, and Logger")
	}
	sampleEvery := cfg.SampleEvery
	if sampleEvery <= 0 {
		sampleEvery = DefaultSampleInterval
	}
	return &Pipeline{
		source:      cfg.Source,
		processor:   cfg.Processor,
		publisher:   cfg.Publisher,
		sampleEvery: uint64(sampleEvery),
		logger:      cfg.Logger,
	}
}

// Run receives and decides datagrams until the source goes idle, the
// context is cancelled, or the source fails. Idle and cancellation are
// clean exits; a receive failure is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("ingestion loop started",
		"budget", p.processor.budget,
		"sample_every", p.sampleEvery)

	for {
		raw, err := p.source.Receive(ctx)
		switch {
		case errors.Is(err, ErrIdle):
			p.logger.Info("source idle, ending ingestion",
				"accepted", p.processor.Accepted())
			return nil
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			p.logger.Info("ingestion cancelled",
				"accepted", p.processor.Accepted())
			return nil
		case err != nil:
			return fmt.Errorf("receiving datagram: %w", err)
		}

		accepted, err := p.processor.Process(raw)
		if !accepted {
			p.logDrop(err)
			continue
		}

		count := p.processor.Accepted()
		if p.publisher != nil && count%p.sampleEvery == 0 {
			p.publishSample(raw)
		}
		if count%occupancyLogInterval == 0 {
			used, capacity := p.processor.BufferStats()
			p.logger.Info("recency buffer occupancy",
				"used", used, "capacity", capacity, "accepted", count)
		}
	}
}

// logDrop logs a drop, sampled per cause.
func (p *Pipeline) logDrop(err error) {
	var budgetErr *BudgetExceededError
	if errors.As(err, &budgetErr) {
		p.budgetDrops++
		if p.budgetDrops%budgetDropLogInterval == 1 {
			p.logger.Warn("record dropped by latency gate",
				"record", budgetErr.RecordID,
				"latency", budgetErr.Latency,
				"budget", budgetErr.Budget,
				"budget_drops", p.budgetDrops)
		}
		return
	}

	p.decodeDrops++
	if p.decodeDrops%decodeDropLogInterval == 1 {
		p.logger.Warn("datagram dropped before processing",
			"error", err,
			"decode_drops", p.decodeDrops)
	}
}

// publishSample fully decodes a sampled record and publishes it. The
// record already passed selective decode; a full-decode failure here
// skips publication without touching drop accounting.
func (p *Pipeline) publishSample(raw []byte) {
	record, err := wire.DecodeRecord(raw)
	if err != nil {
		p.logger.Debug("sampled record failed full decode", "error", err)
		return
	}
	p.publisher.Publish(fanout.ObservationFromRecord(&record))
}
