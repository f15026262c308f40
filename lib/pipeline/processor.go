// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/pitwall-systems/pitwall/lib/clock"
	"github.com/pitwall-systems/pitwall/lib/metrics"
	"github.com/pitwall-systems/pitwall/lib/wire"
)

// DefaultBudget is the latency ceiling a record must clear to be
// accepted.
const DefaultBudget = 10 * time.Millisecond

// ErrCorrupted marks a datagram lost to simulated transit corruption
// before any decode.
var ErrCorrupted = errors.New("pipeline: datagram corrupted in transit")

// BudgetExceededError reports a record dropped by the latency gate.
// Unlike decode failures, the record was well-formed: it just took
// too long, and its latency is in the metrics window.
type BudgetExceededError struct {
	RecordID uint32
	Latency  time.Duration
	Budget   time.Duration
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("record %d: gate latency %v exceeds budget %v",
		e.RecordID, e.Latency, e.Budget)
}

// ProcessorConfig assembles a Processor.
type ProcessorConfig struct {
	// Budget is the latency gate ceiling; zero or negative selects
	// DefaultBudget.
	Budget time.Duration

	// Load is the synthetic load model; nil disables corruption,
	// processing cost, and maintenance stalls.
	Load LoadModel

	// Metrics receives every accounting event. Required.
	Metrics *metrics.Aggregator

	// Buffer retains accepted raw datagrams. Required.
	Buffer *RecencyBuffer

	// Clock measures gate latency. Required; must be the clock the
	// load model spins on.
	Clock clock.Clock
}

// Processor makes the per-datagram accept/drop decision. Not safe for
// concurrent use: the single ingestion goroutine owns it, which is
// what keeps decisions strictly ordered.
type Processor struct {
	budget  time.Duration
	load    LoadModel
	metrics *metrics.Aggregator
	buffer  *RecencyBuffer
	clock   clock.Clock

	accepted uint64
}

// NewProcessor returns a Processor over cfg.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Metrics == nil || cfg.Buffer == nil || cfg.Clock == nil {
		panic("pipeline: ProcessorConfig requires Metrics, Buffer, and Clock")
	}
	budget := cfg.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Processor{
		budget:  budget,
		load:    cfg.Load,
		metrics: cfg.Metrics,
		buffer:  cfg.Buffer,
		clock:   cfg.Clock,
	}
}

// Process decides one datagram. Exactly one of these holds afterward:
// accepted (raw buffered, processed counted, latency sampled) or
// dropped (dropped counted; latency sampled only when the gate did the
// dropping). The returned error describes the drop cause; accepted
// records return (true, nil).
func (p *Processor) Process(raw []byte) (accepted bool, err error) {
	p.metrics.RecordReceived(len(raw))

	if p.load != nil && p.load.Corrupt() {
		p.metrics.RecordDropped()
		return false, ErrCorrupted
	}

	// The gate measures from decode entry: everything a record makes
	// the pipeline do counts against its budget.
	start := p.clock.Now()

	view := wire.NewView(raw)
	recordID, err := view.RecordID()
	if err != nil {
		p.metrics.RecordDropped()
		return false, fmt.Errorf("decoding record id: %w", err)
	}
	priority, err := view.Priority()
	if err != nil {
		p.metrics.RecordDropped()
		return false, fmt.Errorf("record %d: decoding priority: %w", recordID, err)
	}

	if p.load != nil {
		speed, err := view.Speed()
		if err != nil {
			p.metrics.RecordDropped()
			return false, fmt.Errorf("record %d: decoding speed: %w", recordID, err)
		}
		p.load.Cost(priority, speed)
	}

	latency := p.clock.Since(start)
	if latency > p.budget {
		p.metrics.RecordBudgetExceeded(latency)
		return false, &BudgetExceededError{RecordID: recordID, Latency: latency, Budget: p.budget}
	}

	p.metrics.RecordProcessed(latency)
	p.buffer.Push(raw)
	p.accepted++

	// Maintenance stall lands after the commit and is attributed to
	// no record.
	if p.load != nil && p.accepted%MaintenanceInterval == 0 {
		p.load.MaintenancePause()
	}
	return true, nil
}

// Accepted returns how many records this processor has accepted.
func (p *Processor) Accepted() uint64 { return p.accepted }

// BufferStats returns the recency buffer occupancy.
func (p *Processor) BufferStats() (used, capacity int) {
	return p.buffer.Len(), p.buffer.Cap()
}
