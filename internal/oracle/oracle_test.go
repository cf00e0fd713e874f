package oracle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"treasure-hunt-backend/internal/oracle"
)

type delivery struct {
	source string
	id     oracle.RequestID
	values []uint64
}

type recordingConsumer struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *recordingConsumer) OnRandomDelivered(ctx context.Context, source string, id oracle.RequestID, values []uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{source: source, id: id, values: values})
	return nil
}

func (r *recordingConsumer) snapshot() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func TestCoordinatorDeliversEachRequestOnce(t *testing.T) {
	consumer := &recordingConsumer{}
	coordinator := oracle.NewCoordinator("local-vrf", []byte("secret"), 0)
	coordinator.Subscribe(consumer)

	ctx := context.Background()
	first, err := coordinator.RequestRandom(ctx)
	if err != nil {
		t.Fatalf("RequestRandom: %v", err)
	}
	second, err := coordinator.RequestRandom(ctx)
	if err != nil {
		t.Fatalf("RequestRandom: %v", err)
	}
	if first != 1 || second != 2 {
		t.Fatalf("expected monotonic ids 1 and 2, got %d and %d", first, second)
	}

	coordinator.Wait()

	got := consumer.snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	seen := map[oracle.RequestID]bool{}
	for _, d := range got {
		if d.source != "local-vrf" {
			t.Errorf("unexpected source %q", d.source)
		}
		if len(d.values) != 1 {
			t.Errorf("expected one word, got %d", len(d.values))
		}
		if d.values[0] != coordinator.Words(d.id)[0] {
			t.Errorf("delivered word for %d does not match Words", d.id)
		}
		seen[d.id] = true
	}
	if !seen[first] || !seen[second] {
		t.Errorf("missing delivery: %v", seen)
	}
}

func TestCoordinatorWordsAreReproducible(t *testing.T) {
	a := oracle.NewCoordinator("a", []byte("shared"), 0)
	b := oracle.NewCoordinator("b", []byte("shared"), 0)
	c := oracle.NewCoordinator("c", []byte("other"), 0)

	if a.Words(7)[0] != b.Words(7)[0] {
		t.Error("same secret should produce the same words")
	}
	if a.Words(7)[0] == c.Words(7)[0] {
		t.Error("different secrets should produce different words")
	}
	if a.Words(7)[0] == a.Words(8)[0] {
		t.Error("different ids should produce different words")
	}
	if a.SecretHash() != b.SecretHash() || a.SecretHash() == c.SecretHash() {
		t.Error("secret hash should follow the secret")
	}
}

func TestCoordinatorRequiresConsumer(t *testing.T) {
	coordinator := oracle.NewCoordinator("local-vrf", nil, 0)
	if _, err := coordinator.RequestRandom(context.Background()); !errors.Is(err, oracle.ErrNoConsumer) {
		t.Fatalf("expected ErrNoConsumer, got %v", err)
	}
}

func TestCoordinatorCloseDropsPendingDeliveries(t *testing.T) {
	consumer := &recordingConsumer{}
	coordinator := oracle.NewCoordinator("local-vrf", []byte("secret"), time.Hour)
	coordinator.Subscribe(consumer)

	if _, err := coordinator.RequestRandom(context.Background()); err != nil {
		t.Fatalf("RequestRandom: %v", err)
	}

	coordinator.Close()

	if n := len(consumer.snapshot()); n != 0 {
		t.Fatalf("expected no deliveries after close, got %d", n)
	}
	if _, err := coordinator.RequestRandom(context.Background()); err == nil {
		t.Fatal("expected error from closed coordinator")
	}
}

func TestMockFulfill(t *testing.T) {
	consumer := &recordingConsumer{}
	mock := oracle.NewMock("mock-vrf")

	if err := mock.Fulfill(context.Background(), 1, 5); !errors.Is(err, oracle.ErrNoConsumer) {
		t.Fatalf("expected ErrNoConsumer, got %v", err)
	}

	mock.Subscribe(consumer)

	id, err := mock.RequestRandom(context.Background())
	if err != nil {
		t.Fatalf("RequestRandom: %v", err)
	}
	if mock.LastRequest() != id {
		t.Fatalf("LastRequest = %d, want %d", mock.LastRequest(), id)
	}

	if err := mock.Fulfill(context.Background(), id, 1001); err != nil {
		t.Fatalf("Fulfill: %v", err)
	}

	got := consumer.snapshot()
	if len(got) != 1 || got[0].id != id || got[0].values[0] != 1001 || got[0].source != "mock-vrf" {
		t.Fatalf("unexpected delivery %+v", got)
	}

	boom := errors.New("subscription not funded")
	mock.FailWith(boom)
	if _, err := mock.RequestRandom(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected configured failure, got %v", err)
	}
	if len(mock.Requests()) != 1 {
		t.Fatalf("failed request should not be recorded")
	}
}

func TestExternalIssuesSequentialIDs(t *testing.T) {
	external := oracle.NewExternal("chainlink")

	for want := oracle.RequestID(1); want <= 3; want++ {
		id, err := external.RequestRandom(context.Background())
		if err != nil {
			t.Fatalf("RequestRandom failed: %v", err)
		}
		if id != want {
			t.Fatalf("Expected id %d, got %d", want, id)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := external.RequestRandom(ctx); err == nil {
		t.Error("Expected cancelled context to fail")
	}
}

func TestResumeSkipsIssuedIDs(t *testing.T) {
	coordinator := oracle.NewCoordinator("local-vrf", []byte("secret"), time.Hour)
	coordinator.Subscribe(&recordingConsumer{})
	defer func() {
		coordinator.Close()
		coordinator.Wait()
	}()

	ports := map[string]oracle.Port{
		"external":    oracle.NewExternal("chainlink"),
		"mock":        oracle.NewMock("vrf-mock"),
		"coordinator": coordinator,
	}

	for name, port := range ports {
		resumer, ok := port.(oracle.Resumer)
		if !ok {
			t.Fatalf("%s: expected a Resumer", name)
		}

		resumer.Resume(41)
		id, err := port.RequestRandom(context.Background())
		if err != nil {
			t.Fatalf("%s: RequestRandom failed: %v", name, err)
		}
		if id != 42 {
			t.Errorf("%s: expected id 42 after resume, got %d", name, id)
		}

		// An older watermark never rewinds the counter.
		resumer.Resume(7)
		if id, _ := port.RequestRandom(context.Background()); id != 43 {
			t.Errorf("%s: expected id 43, got %d", name, id)
		}
	}
}
