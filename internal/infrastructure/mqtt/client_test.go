package mqtt

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wepower/iot-core/internal/infrastructure/config"
)

// =============================================================================
// Connect Tests
// =============================================================================

func TestConnectUnreachableBrokerBuffers(t *testing.T) {
	original := connectTimeout
	connectTimeout = 200 * time.Millisecond
	defer func() { connectTimeout = original }()

	// Port 1 refuses connections; the retry loop keeps running in the
	// background while the client operates in buffered mode.
	client, err := Connect(config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1,
			ClientID: "test-unreachable",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     2,
		},
	})
	if err != nil {
		t.Fatalf("Connect() error = %v, want buffered-mode client", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if client.IsConnected() {
		t.Fatal("IsConnected() = true against unreachable broker")
	}

	if pubErr := client.Publish("wepower_iot/status", []byte("status"), 1, false); pubErr != nil {
		t.Fatalf("Publish() in buffered mode error = %v, want nil (queued)", pubErr)
	}
	if got := client.OutboxLen(); got != 1 {
		t.Errorf("OutboxLen() = %d, want 1", got)
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

// =============================================================================
// Publish Validation Tests
// =============================================================================

func TestPublishEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Publish("", []byte("payload"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := &Client{}

	err := client.Publish("wepower_iot/status", []byte("payload"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishPayloadTooLarge(t *testing.T) {
	client := &Client{}
	payload := bytes.Repeat([]byte("x"), maxPayloadSize+1)

	err := client.Publish("wepower_iot/status", payload, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

// =============================================================================
// Outbox Tests
// =============================================================================

func TestPublishQueuedWhileDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Publish("wepower_iot/status", []byte("payload"), 1, false)
	if err != nil {
		t.Fatalf("Publish() while disconnected error = %v, want nil (queued)", err)
	}

	if got := client.OutboxLen(); got != 1 {
		t.Errorf("OutboxLen() = %d, want 1", got)
	}
}

func TestOutboxCopiesPayload(t *testing.T) {
	client := &Client{}
	payload := []byte("original")

	if err := client.Publish("wepower_iot/status", payload, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// Mutating the caller's buffer must not affect the queued message.
	copy(payload, "mangled!")

	client.outboxMu.Lock()
	queued := string(client.outbox[0].payload)
	client.outboxMu.Unlock()

	if queued != "original" {
		t.Errorf("queued payload = %q, want %q", queued, "original")
	}
}

func TestOutboxDropsOldestWhenFull(t *testing.T) {
	client := &Client{}

	for i := 0; i < maxOutboxMessages+5; i++ {
		client.enqueue("wepower_iot/status", fmt.Appendf(nil, "msg-%d", i), 1, false)
	}

	if got := client.OutboxLen(); got != maxOutboxMessages {
		t.Fatalf("OutboxLen() = %d, want %d", got, maxOutboxMessages)
	}

	client.outboxMu.Lock()
	oldest := string(client.outbox[0].payload)
	client.outboxMu.Unlock()

	if oldest != "msg-5" {
		t.Errorf("oldest queued payload = %q, want %q", oldest, "msg-5")
	}
}

// =============================================================================
// Subscribe Validation Tests
// =============================================================================

func TestSubscribeEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeInvalidQoS(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("wepower_iot/control/+/+", 5, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("wepower_iot/control/+/+", 1, nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

// =============================================================================
// Callback Tests
// =============================================================================

func TestDisconnectCallback(t *testing.T) {
	client := &Client{}

	var gotErr error
	client.SetOnDisconnect(func(err error) {
		gotErr = err
	})

	wantErr := errors.New("broker gone")
	client.handleDisconnect(wantErr)

	if !errors.Is(gotErr, wantErr) {
		t.Errorf("onDisconnect received %v, want %v", gotErr, wantErr)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after disconnect, want false")
	}
}

func TestSubscriptionTracking(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.HasSubscription("wepower_iot/control/+/+") {
		t.Error("HasSubscription() = true before subscribe, want false")
	}
	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
}
