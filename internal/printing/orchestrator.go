// Package printing ties the receipt pipeline together: validate, connect,
// translate, render, encode, transmit, report. One print runs at a time;
// the shared printer connection and the chunked transport are not safe for
// interleaved use.
package printing

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Shiro005/electionapp-sub000/internal/ble"
	"github.com/Shiro005/electionapp-sub000/internal/escpos"
	"github.com/Shiro005/electionapp-sub000/internal/model"
	"github.com/rs/zerolog"
)

var (
	// ErrNoVoter rejects a print with no voter before any device
	// interaction.
	ErrNoVoter = errors.New("printing: no voter supplied")
	// ErrEmptyFamilyRoster rejects a family print whose roster is empty.
	ErrEmptyFamilyRoster = errors.New("printing: family receipt requested with empty roster")
)

// Print outcome messages shown to canvassers. Outcomes are Marathi;
// connection errors surface in English from the ble package.
const (
	msgSingleSuccess = "मतदार पावती प्रिंट झाली!"
	msgFamilySuccess = "कौटुंबिक पावती प्रिंट झाली!"
)

// ConnectionManager is the shared printer connection owned by ble.Manager.
type ConnectionManager interface {
	Connected() bool
	Ensure(ctx context.Context) (ble.Characteristic, error)
	Invalidate()
}

// Translator localizes a display field, falling back to the original text
// on failure.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) string
}

// Renderer rasterizes a receipt for one voter or a family.
type Renderer interface {
	Render(familyMode bool, head model.VoterRecord, roster model.FamilyRoster, branding model.CandidateBranding) (*image.RGBA, error)
}

// Sender streams an encoded payload to the printer characteristic.
type Sender interface {
	Send(char ble.Characteristic, payload []byte) error
}

// Request is one user-initiated print action.
type Request struct {
	Voter      model.VoterRecord  `json:"voter"`
	Family     model.FamilyRoster `json:"family"`
	FamilyMode bool               `json:"familyMode"`
}

// Result reports the outcome surfaced to the UI.
type Result struct {
	State   State  `json:"state"`
	Message string `json:"message"`
}

// Orchestrator drives the print state machine.
type Orchestrator struct {
	conns      ConnectionManager
	translator Translator
	renderer   Renderer
	sender     Sender
	branding   model.CandidateBranding
	targetLang string
	log        zerolog.Logger

	mu    sync.Mutex
	state State
}

func New(
	conns ConnectionManager,
	translator Translator,
	renderer Renderer,
	sender Sender,
	branding model.CandidateBranding,
	targetLang string,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		conns:      conns,
		translator: translator,
		renderer:   renderer,
		sender:     sender,
		branding:   branding,
		targetLang: targetLang,
		log:        log.With().Str("component", "printing").Logger(),
		state:      StateIdle,
	}
}

// State reports the state of the most recent print step.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Print runs one receipt through the whole pipeline. Calls are serialized;
// a second print blocks until the first finishes. There is no retry at any
// level: a failed print requires a new user action.
func (o *Orchestrator) Print(ctx context.Context, req Request) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.state = StateIdle
	if err := o.transition(StateValidating); err != nil {
		return o.fail(err)
	}
	if req.Voter.IsZero() {
		return o.fail(ErrNoVoter)
	}
	if req.FamilyMode && len(req.Family) == 0 {
		return o.fail(ErrEmptyFamilyRoster)
	}

	if !o.conns.Connected() {
		if err := o.transition(StateConnecting); err != nil {
			return o.fail(err)
		}
	}
	char, err := o.conns.Ensure(ctx)
	if err != nil {
		return o.fail(err)
	}

	if err := o.transition(StateTranslating); err != nil {
		return o.fail(err)
	}
	head := o.translateVoter(ctx, req.Voter)
	family := make(model.FamilyRoster, 0, len(req.Family))
	if req.FamilyMode {
		for _, member := range req.Family {
			family = append(family, o.translateVoter(ctx, member))
		}
	}

	if err := o.transition(StateRendering); err != nil {
		return o.fail(err)
	}
	bitmap, err := o.renderer.Render(req.FamilyMode, head, family, o.branding)
	if err != nil {
		return o.fail(fmt.Errorf("render receipt: %w", err))
	}

	if err := o.transition(StateEncoding); err != nil {
		return o.fail(err)
	}
	payload, err := escpos.Encode(bitmap)
	if err != nil {
		return o.fail(fmt.Errorf("encode receipt: %w", err))
	}

	if err := o.transition(StateTransmitting); err != nil {
		return o.fail(err)
	}
	if err := o.sender.Send(char, payload); err != nil {
		// A failed write is treated as link loss: drop the shared
		// connection so the next print re-pairs instead of reusing a
		// stale handle.
		o.conns.Invalidate()
		return o.fail(fmt.Errorf("transmit receipt: %w", err))
	}

	if err := o.transition(StateSucceeded); err != nil {
		return o.fail(err)
	}
	message := msgSingleSuccess
	if req.FamilyMode {
		message = msgFamilySuccess
	}
	o.log.Info().Bool("family", req.FamilyMode).Int("bytes", len(payload)).Msg("print succeeded")
	return Result{State: StateSucceeded, Message: message}, nil
}

// translateVoter localizes every display field of one record, one field at
// a time. Individual failures already degraded to the original text inside
// the translator.
func (o *Orchestrator) translateVoter(ctx context.Context, v model.VoterRecord) model.VoterRecord {
	return model.VoterRecord{
		Name:                  o.translator.Translate(ctx, v.Name, o.targetLang),
		VoterID:               o.translator.Translate(ctx, v.VoterID, o.targetLang),
		SerialNumber:          o.translator.Translate(ctx, v.SerialNumber, o.targetLang),
		BoothNumber:           o.translator.Translate(ctx, v.BoothNumber, o.targetLang),
		PollingStationAddress: o.translator.Translate(ctx, v.PollingStationAddress, o.targetLang),
		Age:                   o.translator.Translate(ctx, v.Age, o.targetLang),
		Gender:                o.translator.Translate(ctx, v.Gender, o.targetLang),
	}
}

func (o *Orchestrator) transition(next State) error {
	if !canTransition(o.state, next) {
		return fmt.Errorf("printing: illegal transition %s -> %s", o.state, next)
	}
	o.log.Debug().Stringer("from", o.state).Stringer("to", next).Msg("state change")
	o.state = next
	return nil
}

func (o *Orchestrator) fail(err error) (Result, error) {
	o.state = StateFailed
	o.log.Error().Err(err).Msg("print failed")
	return Result{State: StateFailed, Message: err.Error()}, err
}
