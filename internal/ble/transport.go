package ble

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	// ChunkSize keeps each write under typical BLE ATT MTU limits without
	// negotiating a larger MTU.
	ChunkSize = 180
	// InterChunkDelay throttles writes so the printer's small input buffer
	// is not overrun. Cheap printers silently drop bytes without this.
	InterChunkDelay = 40 * time.Millisecond
)

// Transport streams an encoded print payload to the printer in bounded,
// paced chunks. It is not safe for concurrent use on the same
// characteristic; the orchestrator serializes prints.
type Transport struct {
	clock clockwork.Clock
	log   zerolog.Logger
}

func NewTransport(clock clockwork.Clock, log zerolog.Logger) *Transport {
	return &Transport{
		clock: clock,
		log:   log.With().Str("component", "transport").Logger(),
	}
}

// Send writes payload to char in sequential ChunkSize chunks, pausing
// InterChunkDelay between chunks. The first failed write aborts the
// remaining chunks and propagates; partial success is not reported.
func (t *Transport) Send(char Characteristic, payload []byte) error {
	total := (len(payload) + ChunkSize - 1) / ChunkSize
	t.log.Debug().Int("bytes", len(payload)).Int("chunks", total).Msg("sending payload")

	for i := 0; i < len(payload); i += ChunkSize {
		end := i + ChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[i:end]

		var err error
		if char.Capability() == CapabilityWriteWithoutResponse {
			_, err = char.WriteWithoutResponse(chunk)
		} else {
			_, err = char.Write(chunk)
		}
		if err != nil {
			return fmt.Errorf("ble: write chunk %d/%d: %w", i/ChunkSize+1, total, err)
		}

		if end < len(payload) {
			t.clock.Sleep(InterChunkDelay)
		}
	}
	return nil
}
