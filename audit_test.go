package authflow

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wardline/authflow/session"
)

func drainEvents(sink *ChannelSink) []AuditEvent {
	var events []AuditEvent
	for {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-time.After(200 * time.Millisecond):
			return events
		}
	}
}

func findEvent(events []AuditEvent, eventType string) *AuditEvent {
	for i := range events {
		if events[i].EventType == eventType {
			return &events[i]
		}
	}
	return nil
}

func TestAuditTrailOfFullOtpLogin(t *testing.T) {
	fv := newFakeVerifier()
	fv.initLogin = otpInitLogin("s1", "***1234")
	fv.verifyOtp = func(string, string) (*session.Session, error) {
		return &session.Session{Token: "t1", User: session.User{ID: "u1"}}, nil
	}

	sink := NewChannelSink(16)
	engine, err := New().
		WithVerifier(fv).
		WithStore(session.NewMemoryStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := WithDeviceID(context.Background(), "kiosk-7")
	if err := engine.SubmitCredentials(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("SubmitCredentials failed: %v", err)
	}
	if err := engine.SubmitOtp(ctx, "123456"); err != nil {
		t.Fatalf("SubmitOtp failed: %v", err)
	}
	engine.Close()

	events := drainEvents(sink)
	started := findEvent(events, auditEventChallengeStarted)
	if started == nil {
		t.Fatalf("expected challenge_started, got %+v", events)
	}
	if started.DeviceID != "kiosk-7" {
		t.Fatalf("expected device id carried through, got %q", started.DeviceID)
	}
	success := findEvent(events, auditEventLoginSuccess)
	if success == nil || !success.Success || success.UserID != "u1" {
		t.Fatalf("expected login_success for u1, got %+v", success)
	}
	if success.State != StateAuthenticated.String() {
		t.Fatalf("expected authenticated state on success event, got %q", success.State)
	}
}

func TestAuditStateViolationRecorded(t *testing.T) {
	fv := newFakeVerifier()
	sink := NewChannelSink(4)
	engine, err := New().
		WithVerifier(fv).
		WithStore(session.NewMemoryStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_ = engine.SubmitOtp(context.Background(), "123456")
	engine.Close()

	events := drainEvents(sink)
	violation := findEvent(events, auditEventStateViolation)
	if violation == nil {
		t.Fatalf("expected state_violation, got %+v", events)
	}
	if violation.Metadata["operation"] != "SubmitOtp" {
		t.Fatalf("expected offending operation named, got %+v", violation.Metadata)
	}
}

func TestJSONWriterSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLogout, Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLoginSuccess, UserID: "u1", Success: true})

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	}
	d.Close()

	if got := len(drainEvents(sink)); got != 5 {
		t.Fatalf("expected all buffered events delivered, got %d", got)
	}
}

// blockingSink parks on the first event until released so the dispatcher
// buffer can be filled deterministically.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event parks in the sink, one fills the buffer, the rest drop.
	for i := 0; i < 6; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer and a slow sink")
	}
	close(sink.release)
	d.Close()
}

func TestDisabledAuditHasNoDispatcher(t *testing.T) {
	if d := newAuditDispatcher(AuditConfig{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("expected nil dispatcher when audit is disabled")
	}

	// Engines without a sink run with audit off and never panic on emit.
	fv := newFakeVerifier()
	engine := newTestEngine(t, fv, nil)
	engine.Cancel()
	if got := engine.AuditDropped(); got != 0 {
		t.Fatalf("expected zero drops, got %d", got)
	}
}

func TestEmitAfterCloseIsNoOp(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: auditEventLogout})
	if got := len(drainEvents(sink)); got != 0 {
		t.Fatalf("expected no delivery after close, got %d", got)
	}
	d.Close()
}
