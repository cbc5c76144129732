package mqtt

// maxOutboxMessages bounds the offline queue. When full, the oldest
// message is dropped; state snapshots are republished on the next scan
// tick anyway so losing the oldest is the cheapest failure mode.
const maxOutboxMessages = 256

// queuedMessage is a publication buffered while the broker is unreachable.
type queuedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// enqueue buffers a message for delivery on the next successful connect.
func (c *Client) enqueue(topic string, payload []byte, qos byte, retained bool) {
	// Copy the payload: callers may reuse their buffer after Publish returns.
	buf := make([]byte, len(payload))
	copy(buf, payload)

	c.outboxMu.Lock()
	if len(c.outbox) >= maxOutboxMessages {
		c.outbox = c.outbox[1:]
	}
	c.outbox = append(c.outbox, queuedMessage{
		topic:    topic,
		payload:  buf,
		qos:      qos,
		retained: retained,
	})
	queued := len(c.outbox)
	c.outboxMu.Unlock()

	if logger := c.getLogger(); logger != nil {
		logger.Warn("MQTT disconnected, message queued",
			"topic", topic,
			"queued", queued,
		)
	}
}

// flushOutbox delivers all buffered messages after a reconnect.
//
// Called from the paho OnConnect handler, after subscriptions have been
// restored. Messages that fail to publish are dropped rather than
// requeued; requeueing during a flapping connection would loop forever.
func (c *Client) flushOutbox() {
	c.outboxMu.Lock()
	pending := c.outbox
	c.outbox = nil
	c.outboxMu.Unlock()

	if len(pending) == 0 {
		return
	}

	var failed int
	for _, msg := range pending {
		token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(defaultPublishTimeout) || token.Error() != nil {
			failed++
			if logger := c.getLogger(); logger != nil {
				logger.Error("failed to flush queued message",
					"topic", msg.topic,
					"error", token.Error(),
				)
			}
		}
	}

	if failed > 0 {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("outbox flush completed with failures",
				"flushed", len(pending)-failed,
				"failed", failed,
			)
		}
	}
}

// OutboxLen reports the number of messages waiting for reconnect.
func (c *Client) OutboxLen() int {
	c.outboxMu.Lock()
	defer c.outboxMu.Unlock()
	return len(c.outbox)
}
