package printing_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/Shiro005/electionapp-sub000/internal/ble"
	"github.com/Shiro005/electionapp-sub000/internal/model"
	"github.com/Shiro005/electionapp-sub000/internal/printing"
	"github.com/Shiro005/electionapp-sub000/internal/receipt"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var branding = model.CandidateBranding{
	PartyName:      "X",
	CandidateName:  "Y",
	Slogan:         "Z",
	Area:           "W",
	ContactNumber:  "123",
	ElectionSymbol: "Lotus",
}

var voter = model.VoterRecord{
	Name:                  "Ram Sharma",
	VoterID:               "ABC123",
	BoothNumber:           "12",
	Age:                   "45",
	Gender:                "Male",
	PollingStationAddress: "Town Hall",
}

type recordingChar struct {
	chunks [][]byte
	err    error
}

func (c *recordingChar) Capability() ble.Capability { return ble.CapabilityWriteWithoutResponse }

func (c *recordingChar) Write(p []byte) (int, error) { return c.WriteWithoutResponse(p) }

func (c *recordingChar) WriteWithoutResponse(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	c.chunks = append(c.chunks, chunk)
	return len(p), nil
}

type fakeConns struct {
	connected   bool
	char        ble.Characteristic
	ensureErr   error
	ensureCalls int
	invalidated bool
}

func (f *fakeConns) Connected() bool { return f.connected }

func (f *fakeConns) Ensure(context.Context) (ble.Characteristic, error) {
	f.ensureCalls++
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.connected = true
	return f.char, nil
}

func (f *fakeConns) Invalidate() {
	f.invalidated = true
	f.connected = false
}

type identityTranslator struct {
	seen []string
}

func (t *identityTranslator) Translate(_ context.Context, text, _ string) string {
	if text != "" {
		t.seen = append(t.seen, text)
	}
	return text
}

type stubRenderer struct {
	calls int
	err   error
}

func (r *stubRenderer) Render(bool, model.VoterRecord, model.FamilyRoster, model.CandidateBranding) (*image.RGBA, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img, nil
}

type stubSender struct {
	calls int
	err   error
}

func (s *stubSender) Send(ble.Characteristic, []byte) error {
	s.calls++
	return s.err
}

func newOrchestrator(conns *fakeConns, renderer printing.Renderer, sender printing.Sender) *printing.Orchestrator {
	return printing.New(conns, &identityTranslator{}, renderer, sender, branding, "mr", zerolog.Nop())
}

func TestPrintRejectsMissingVoter(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	renderer := &stubRenderer{}
	sender := &stubSender{}
	o := newOrchestrator(conns, renderer, sender)

	result, err := o.Print(context.Background(), printing.Request{})
	require.ErrorIs(t, err, printing.ErrNoVoter)
	assert.Equal(t, printing.StateFailed, result.State)

	// Validation rejects before any collaborator is touched.
	assert.Zero(t, conns.ensureCalls)
	assert.Zero(t, renderer.calls)
	assert.Zero(t, sender.calls)
}

func TestPrintRejectsEmptyFamilyRoster(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	renderer := &stubRenderer{}
	sender := &stubSender{}
	o := newOrchestrator(conns, renderer, sender)

	_, err := o.Print(context.Background(), printing.Request{Voter: voter, FamilyMode: true})
	require.ErrorIs(t, err, printing.ErrEmptyFamilyRoster)
	assert.Zero(t, conns.ensureCalls)
	assert.Zero(t, renderer.calls)
	assert.Zero(t, sender.calls)
}

func TestPrintSucceedsSingle(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	o := newOrchestrator(conns, &stubRenderer{}, &stubSender{})

	result, err := o.Print(context.Background(), printing.Request{Voter: voter})
	require.NoError(t, err)
	assert.Equal(t, printing.StateSucceeded, result.State)
	assert.Equal(t, "मतदार पावती प्रिंट झाली!", result.Message)
	assert.Equal(t, 1, conns.ensureCalls)
}

func TestPrintSuccessMessageDistinguishesFamilyMode(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	o := newOrchestrator(conns, &stubRenderer{}, &stubSender{})

	result, err := o.Print(context.Background(), printing.Request{
		Voter:      voter,
		Family:     model.FamilyRoster{{Name: "Sita Sharma"}},
		FamilyMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "कौटुंबिक पावती प्रिंट झाली!", result.Message)
}

func TestPrintConnectionFailureAborts(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{ensureErr: ble.ErrNoDevice}
	renderer := &stubRenderer{}
	sender := &stubSender{}
	o := newOrchestrator(conns, renderer, sender)

	_, err := o.Print(context.Background(), printing.Request{Voter: voter})
	require.ErrorIs(t, err, ble.ErrNoDevice)
	assert.Zero(t, renderer.calls)
	assert.Zero(t, sender.calls)
	assert.Equal(t, printing.StateFailed, o.State())
}

func TestPrintRenderFailureIsHard(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	renderer := &stubRenderer{err: errors.New("surface lost")}
	sender := &stubSender{}
	o := newOrchestrator(conns, renderer, sender)

	_, err := o.Print(context.Background(), printing.Request{Voter: voter})
	require.Error(t, err)
	assert.Zero(t, sender.calls)
	// Render failures are not link failures; the connection survives.
	assert.False(t, conns.invalidated)
}

func TestPrintTransmitFailureInvalidatesConnection(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	sender := &stubSender{err: errors.New("gatt write failed")}
	o := newOrchestrator(conns, &stubRenderer{}, sender)

	_, err := o.Print(context.Background(), printing.Request{Voter: voter})
	require.Error(t, err)
	assert.True(t, conns.invalidated)
	assert.False(t, conns.Connected())
}

func TestPrintTranslatesEveryDisplayField(t *testing.T) {
	t.Parallel()

	conns := &fakeConns{char: &recordingChar{}}
	translator := &identityTranslator{}
	o := printing.New(conns, translator, &stubRenderer{}, &stubSender{}, branding, "mr", zerolog.Nop())

	_, err := o.Print(context.Background(), printing.Request{
		Voter:      voter,
		Family:     model.FamilyRoster{{Name: "Sita Sharma", Age: "40"}},
		FamilyMode: true,
	})
	require.NoError(t, err)

	for _, want := range []string{"Ram Sharma", "ABC123", "12", "45", "Male", "Town Hall", "Sita Sharma", "40"} {
		assert.Contains(t, translator.seen, want)
	}
}

func TestPrintEndToEnd(t *testing.T) {
	t.Parallel()

	char := &recordingChar{}
	conns := &fakeConns{char: char, connected: true}
	renderer := receipt.NewRenderer("", clockwork.NewRealClock(), zerolog.Nop())
	transport := ble.NewTransport(clockwork.NewRealClock(), zerolog.Nop())
	o := printing.New(conns, &identityTranslator{}, renderer, transport, branding, "mr", zerolog.Nop())

	result, err := o.Print(context.Background(), printing.Request{Voter: voter})
	require.NoError(t, err)
	assert.Equal(t, printing.StateSucceeded, result.State)

	require.NotEmpty(t, char.chunks)
	var payload []byte
	for _, chunk := range char.chunks {
		assert.LessOrEqual(t, len(chunk), ble.ChunkSize)
		payload = append(payload, chunk...)
	}
	assert.True(t, bytes.HasPrefix(payload, []byte{0x1B, 0x40, 0x1B, 0x61, 0x01, 0x1D, 0x76, 0x30, 0x00}))
	assert.True(t, bytes.HasSuffix(payload, []byte{0x0A, 0x0A, 0x1D, 0x56, 0x00}))

	wantChunks := (len(payload) + ble.ChunkSize - 1) / ble.ChunkSize
	assert.Len(t, char.chunks, wantChunks)
}

func TestStateStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", printing.StateIdle.String())
	assert.Equal(t, "transmitting", printing.StateTransmitting.String())
	assert.Equal(t, "succeeded", printing.StateSucceeded.String())
	assert.Equal(t, "failed", printing.StateFailed.String())
}
