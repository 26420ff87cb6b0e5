package catalyst

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Unload takes everything still queued and fires one best-effort request with
// it as a JSON array, bypassing the batch size and rate limit. It returns at
// once; the channel receives the outcome when the request finishes or
// BeaconTimeout elapses.
func (h *Hub) Unload() <-chan error {
	result := make(chan error, 1)

	events := h.queue.Drain()
	if len(events) == 0 {
		result <- nil
		return result
	}
	h.metrics.depth(0)
	h.logger.Info("Sending unload beacon", "count", len(events))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.config.BeaconTimeout)
		defer cancel()

		start := time.Now()
		err := h.transport.SendAll(ctx, events)
		if err != nil {
			h.metrics.dropped("beacon", len(events))
			h.logger.Warn("Unload beacon failed", "count", len(events), "error", err)
		} else {
			h.metrics.batch("beacon", len(events), time.Since(start))
		}
		result <- err
	}()
	return result
}

// raiseSignal re-delivers sig to this process once default handling is back.
var raiseSignal = func(sig os.Signal) error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(sig)
}

// InstallUnloadHook fires Unload when the process receives one of signals
// (SIGINT and SIGTERM by default), waits up to BeaconTimeout, then restores
// default handling and re-raises the signal. Only the first call per hub has
// any effect. Hosts that manage their own signals should call Shutdown
// instead.
func (h *Hub) InstallUnloadHook(signals ...os.Signal) {
	h.hookOnce.Do(func() {
		if len(signals) == 0 {
			signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
		}

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, signals...)

		go func() {
			sig := <-ch
			h.logger.Info("Received signal, sending queued events", "signal", sig.String())

			timer := time.NewTimer(h.config.BeaconTimeout)
			defer timer.Stop()
			select {
			case <-h.Unload():
			case <-timer.C:
			}

			signal.Stop(ch)
			if err := raiseSignal(sig); err != nil {
				h.logger.Error("Failed to re-raise signal", "signal", sig.String(), "error", err)
			}
		}()
	})
}
