// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
)

// DefaultInterval is the publish cadence used when none is configured,
// roughly 60 frames per second.
const DefaultInterval = 16 * time.Millisecond

// Publisher periodically samples the analysis engine, derives band
// energies, and fans the resulting frame out to every sink. It runs in
// its own goroutine managed by Start and Stop.
type Publisher struct {
	sampler  Sampler
	level    func() float64
	sinks    []Transport
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	seq        uint32
	specBuf    []byte
	lastSilent bool
}

// NewPublisher wires a publisher to a sampler and one or more sinks.
// level may be nil, in which case the frame level field carries the
// spectrum average. An interval <= 0 falls back to DefaultInterval.
func NewPublisher(interval time.Duration, sampler Sampler, level func() float64, sinks ...Transport) (*Publisher, error) {
	if sampler == nil {
		return nil, fmt.Errorf("publisher: sampler cannot be nil")
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("publisher: at least one transport required")
	}
	if interval <= 0 {
		interval = DefaultInterval
		applog.Warnf("Publisher: invalid interval, defaulting to %s", interval)
	}

	return &Publisher{
		sampler:  sampler,
		level:    level,
		sinks:    sinks,
		interval: interval,
		specBuf:  make([]byte, sampler.BinCount()),
	}, nil
}

// Start launches the publishing goroutine. Safe to call when already
// running; the extra call is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Publisher: started (interval %s, %d sinks)", p.interval, len(p.sinks))
		for {
			select {
			case <-ticker.C:
				p.publishFrame()
			case <-doneChan:
				applog.Debugf("Publisher: stop signal received")
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call
// repeatedly or before Start.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("Publisher: Stop called but not running")
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher: stopped")
	return nil
}

// Close implements io.Closer by stopping the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}

// publishFrame builds one frame from the current spectrum and sends it
// to every sink. A not-ready sampler skips the tick; sustained silence
// sends one settling frame and then pauses until signal returns.
func (p *Publisher) publishFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.sampler.SampleFrequencyDataInto(p.specBuf)
	if err != nil {
		applog.Errorf("Publisher: sampling failed: %v", err)
		return
	}
	if n == 0 {
		return
	}

	silent := true
	for _, b := range p.specBuf[:n] {
		if b != 0 {
			silent = false
			break
		}
	}
	if silent && p.lastSilent {
		return
	}
	p.lastSilent = silent

	energies := analysis.Energies(p.specBuf[:n])

	level := energies.Average
	if p.level != nil {
		level = p.level()
	}

	p.seq++
	frame := &Frame{
		Seq:       p.seq,
		Timestamp: time.Now().UnixNano(),
		Bass:      energies.Bass,
		Mid:       energies.Mid,
		Treble:    energies.Treble,
		Average:   energies.Average,
		Level:     level,
		Spectrum:  append([]byte(nil), p.specBuf[:n]...),
	}

	for _, sink := range p.sinks {
		if err := sink.Send(frame); err != nil {
			applog.Errorf("Publisher: sink send failed: %v", err)
		}
	}
	applog.Debugf("Publisher: sent frame %d (%d bins)", frame.Seq, n)
}
