// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package node implements the per-agent event loop of §4.7: a driver
// context owning all mutable protocol state (BiddingData, PerNodeWinners,
// Implementation, PerNodeMaxBidRatio, timers), fed by an ingress context
// that only touches a mutex-guarded, per-sender message mailbox with
// latest-only coalescing (§5's concurrency model).
package node

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/log"

	"github.com/gabrielecastellano/dragon/agreement"
	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/config"
	"github.com/gabrielecastellano/dragon/metrics"
	"github.com/gabrielecastellano/dragon/orchestrator"
	"github.com/gabrielecastellano/dragon/rap"
	"github.com/gabrielecastellano/dragon/transport"
)

// Driver runs one agent's event loop to completion: it orchestrates an
// initial bid, exchanges BiddingMessages with its neighborhood through
// transport, and returns once either termination timer fires.
type Driver struct {
	problem       *rap.Problem
	self          int
	selfName      string
	serviceBundle []int
	neighbors     []string
	params        config.Parameters
	tr            transport.Transport
	engine        *agreement.Engine
	orchestrator  *orchestrator.Orchestrator
	log           log.Logger
	metrics       *driverMetrics

	mu              sync.Mutex
	cond            *sync.Cond
	pending         map[string]bidding.Message
	generation      uint64
	data            *bidding.Data
	winners         bidding.Winners
	maxBidRatio     bidding.MaxBidRatio
	implementation  bidding.Implementation
	agreeNeighbors  map[string]bool
	quiescenceArmed bool

	done            chan struct{}
	doneOnce        sync.Once
	strongAgreement bool

	startTime   time.Time
	rateBuckets map[int64]int64
}

// RateSample is one message-rate bucket of width params.SampleFrequency,
// reported in results/rates_<agent>.json per §6.
type RateSample struct {
	BucketStart float64 `json:"bucket_start_seconds"`
	Messages    int64         `json:"messages"`
}

type driverMetrics struct {
	rounds          metrics.Counter
	messages        metrics.Counter
	sent            metrics.Counter
	timeToAgreement metrics.Averager
}

func newDriverMetrics(reg *metrics.Registry) (*driverMetrics, error) {
	if reg == nil {
		return &driverMetrics{}, nil
	}
	rounds, err := reg.NewCounter("rounds_total", "Number of agreement rounds processed.")
	if err != nil {
		return nil, err
	}
	messages, err := reg.NewCounter("messages_received_total", "Number of BiddingMessages processed.")
	if err != nil {
		return nil, err
	}
	sent, err := reg.NewCounter("messages_sent_total", "Number of BiddingMessages broadcast to neighbors.")
	if err != nil {
		return nil, err
	}
	timeToAgreement, err := reg.NewAverager("time_to_agreement_seconds", "seconds from start to full neighborhood agreement")
	if err != nil {
		return nil, err
	}
	return &driverMetrics{rounds: rounds, messages: messages, sent: sent, timeToAgreement: timeToAgreement}, nil
}

// New builds a Driver for self, ready to Run once.
func New(
	p *rap.Problem,
	self int,
	selfName string,
	serviceBundle []int,
	neighbors []string,
	params config.Parameters,
	tr transport.Transport,
	engine *agreement.Engine,
	orch *orchestrator.Orchestrator,
	reg *metrics.Registry,
	logger log.Logger,
) (*Driver, error) {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	dm, err := newDriverMetrics(reg)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		problem:        p,
		self:           self,
		selfName:       selfName,
		serviceBundle:  serviceBundle,
		neighbors:      append([]string(nil), neighbors...),
		params:         params,
		tr:             tr,
		engine:         engine,
		orchestrator:   orch,
		log:            logger,
		metrics:        dm,
		pending:        make(map[string]bidding.Message),
		data:           bidding.NewData(p),
		winners:        bidding.NewWinners(p.NumNodes(), p.NumSDOs()),
		maxBidRatio:    bidding.NewMaxBidRatio(p.NumNodes()),
		implementation: bidding.NewImplementation(),
		agreeNeighbors: make(map[string]bool),
		done:           make(chan struct{}),
		rateBuckets:    make(map[int64]int64),
	}
	d.cond = sync.NewCond(&d.mu)
	return d, nil
}

// Run seeds an initial bid via Orchestrate, broadcasts it, then drives the
// ingress/process loop until a termination timer fires or ctx is done. It
// returns the final committed Implementation and whether strong agreement
// was reached (§4.7's `strong_agreement := |agree_neighbors| == |neighborhood|`).
func (d *Driver) Run(ctx context.Context) (bidding.Implementation, bool) {
	inbox, err := d.tr.Subscribe(ctx, d.selfName)
	if err != nil {
		d.log.Error("subscribe failed", "error", err)
		return d.implementation, false
	}
	go d.ingress(ctx, inbox)

	d.mu.Lock()
	d.startTime = time.Now()
	d.implementation = d.orchestrator.Orchestrate(d.data, d.maxBidRatio, d.self, d.serviceBundle)
	d.mu.Unlock()

	d.broadcast(ctx)
	d.armWeakTimer()

	for {
		select {
		case <-d.done:
			return d.snapshot()
		case <-ctx.Done():
			return d.snapshot()
		default:
		}

		d.waitForBatch(d.params.AsyncTimeout)
		d.processBatch(ctx)
	}
}

func (d *Driver) snapshot() (bidding.Implementation, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.implementation, d.strongAgreement
}

// ingress deserializes inbound payloads and coalesces them into the
// per-sender mailbox, dropping any earlier, still-unread message from the
// same sender (§4.7's message coalescing).
func (d *Driver) ingress(ctx context.Context, inbox <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case payload, ok := <-inbox:
			if !ok {
				return
			}
			msg, err := bidding.Decode(payload)
			if err != nil {
				d.log.Warn("dropping undecodable message", "error", err)
				continue
			}
			d.mu.Lock()
			d.pending[msg.Sender] = msg
			d.generation++
			d.cond.Broadcast()
			d.mu.Unlock()
		}
	}
}

// waitForBatch blocks until either every non-agreed neighbor has a pending
// message or timeout elapses (§4.7's Wait step).
func (d *Driver) waitForBatch(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	myGen := d.generation
	timer := time.AfterFunc(timeout, func() {
		d.mu.Lock()
		d.generation++
		d.cond.Broadcast()
		d.mu.Unlock()
	})
	defer timer.Stop()

	for d.generation == myGen && !d.everyNonAgreedNeighborPending() {
		d.cond.Wait()
	}
}

// fullyAgreed reports whether every current neighbor is marked agreed.
// Callers must hold d.mu.
func (d *Driver) fullyAgreed() bool {
	if len(d.neighbors) == 0 {
		return false
	}
	for _, n := range d.neighbors {
		if !d.agreeNeighbors[n] {
			return false
		}
	}
	return true
}

func (d *Driver) everyNonAgreedNeighborPending() bool {
	for _, n := range d.neighbors {
		if d.agreeNeighbors[n] {
			continue
		}
		if _, ok := d.pending[n]; !ok {
			return false
		}
	}
	return true
}

// processBatch implements §4.7's Process step: dequeue the latest-only
// batch, run MultiAgreement, rebroadcast/clear/arm timers as required.
func (d *Driver) processBatch(ctx context.Context) {
	d.mu.Lock()
	batch := d.pending
	d.pending = make(map[string]bidding.Message)
	data := d.data
	winners := d.winners
	maxBidRatio := d.maxBidRatio
	implementation := d.implementation
	d.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if d.metrics.messages != nil {
		d.metrics.messages.Add(int64(len(batch)))
	}
	d.recordRate(len(batch))

	reports := make([]agreement.Report, 0, len(batch))
	senders := make([]string, 0, len(batch))
	for name := range batch {
		senders = append(senders, name)
	}
	sort.Strings(senders)
	for _, name := range senders {
		msg := batch[name]
		senderID, ok := d.problem.SDOID(name)
		if !ok {
			continue
		}
		senderData, senderWinners := bidding.FromMessage(d.problem, msg)
		reports = append(reports, agreement.Report{Sender: senderID, Data: senderData, Winners: senderWinners})
	}

	result := d.engine.MultiAgreement(data, winners, maxBidRatio, implementation, reports)
	if d.metrics.rounds != nil {
		d.metrics.rounds.Inc()
	}

	d.mu.Lock()
	d.data = result.Data
	d.winners = result.Winners
	d.implementation = result.Implementation
	previouslyFull := d.fullyAgreed()

	for _, name := range senders {
		senderID, ok := d.problem.SDOID(name)
		if !ok {
			continue
		}
		for _, r := range reports {
			if r.Sender == senderID {
				d.agreeNeighbors[name] = result.PerSenderAgreement[senderID]
			}
		}
	}

	nowFull := d.fullyAgreed()

	if previouslyFull && result.Updated {
		d.agreeNeighbors = make(map[string]bool)
		d.quiescenceArmed = false
		d.tr.CancelTimer(d.selfName + "/" + agreementTimerName)
		nowFull = false
	}
	d.mu.Unlock()

	d.armWeakTimer()

	if result.Rebroadcast || result.Overbid {
		d.broadcast(ctx)
	}

	if nowFull {
		d.mu.Lock()
		armed := d.quiescenceArmed
		d.quiescenceArmed = true
		elapsed := time.Since(d.startTime)
		d.mu.Unlock()
		if !armed {
			if d.metrics.timeToAgreement != nil {
				d.metrics.timeToAgreement.Observe(elapsed.Seconds())
			}
			d.tr.SetTimer(d.selfName+"/"+agreementTimerName, d.params.AgreementTimeout, d.onAgreementTimeout)
		}
	}
}

// Timer names are prefixed with the agent's own name, so drivers sharing
// one transport never replace each other's timers.
const (
	weakAgreementTimerName = "weak-agreement"
	agreementTimerName     = "agreement"
)

func (d *Driver) armWeakTimer() {
	d.tr.SetTimer(d.selfName+"/"+weakAgreementTimerName, d.params.WeakAgreementTimeout, d.onWeakTimeout)
}

func (d *Driver) onWeakTimeout() {
	d.finish()
}

func (d *Driver) onAgreementTimeout() {
	d.finish()
}

func (d *Driver) finish() {
	d.doneOnce.Do(func() {
		d.mu.Lock()
		d.strongAgreement = d.fullyAgreed()
		d.mu.Unlock()
		close(d.done)
	})
}

// broadcast sends the current (winners, bidding_data) to every current
// neighbor, per §4.7's rebroadcast action and §4.8's current neighborhood.
func (d *Driver) broadcast(ctx context.Context) {
	d.mu.Lock()
	msg := bidding.ToMessage(d.problem, d.selfName, d.data, d.winners, nowSeconds())
	neighbors := append([]string(nil), d.neighbors...)
	d.mu.Unlock()

	payload, err := bidding.Encode(msg)
	if err != nil {
		d.log.Error("encode failed", "error", err)
		return
	}
	for _, n := range neighbors {
		if err := d.tr.Send(ctx, n, payload); err != nil {
			d.log.Warn("send failed", "to", n, "error", err)
			continue
		}
		if d.metrics.sent != nil {
			d.metrics.sent.Inc()
		}
	}
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// recordRate buckets n received messages into the sample-frequency-wide
// window they arrived in, relative to Run's start time.
func (d *Driver) recordRate(n int) {
	freq := d.params.SampleFrequency
	if freq <= 0 {
		freq = time.Second
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	bucket := int64(time.Since(d.startTime) / freq)
	d.rateBuckets[bucket] += int64(n)
}

// Rates returns the message-rate samples recorded so far, sorted by
// bucket, one entry per sample-frequency-wide window since Run started.
func (d *Driver) Rates() []RateSample {
	d.mu.Lock()
	defer d.mu.Unlock()
	freq := d.params.SampleFrequency
	if freq <= 0 {
		freq = time.Second
	}
	buckets := make([]int64, 0, len(d.rateBuckets))
	for b := range d.rateBuckets {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })
	out := make([]RateSample, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, RateSample{BucketStart: (time.Duration(b) * freq).Seconds(), Messages: d.rateBuckets[b]})
	}
	return out
}

// Implementation returns the agent's most recently committed Implementation.
func (d *Driver) Implementation() bidding.Implementation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.implementation
}
