package mqtt

import "go.uber.org/zap"

type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog queues messages published while the broker is unreachable. When
// full, the oldest message is discarded. A retained message replaces any
// earlier retained message on the same topic, since the broker keeps only
// the last one. The caller holds the publisher lock.
type backlog struct {
	msgs    []pendingMsg
	limit   int
	dropped int
	log     *zap.Logger
}

func newBacklog(limit int, log *zap.Logger) *backlog {
	if log == nil {
		log = zap.NewNop()
	}
	return &backlog{msgs: make([]pendingMsg, 0, limit), limit: limit, log: log}
}

func (b *backlog) add(m pendingMsg) {
	if m.retained {
		for i, old := range b.msgs {
			if old.retained && old.topic == m.topic {
				b.msgs = append(b.msgs[:i], b.msgs[i+1:]...)
				break
			}
		}
	}
	if len(b.msgs) == b.limit {
		if b.dropped == 0 {
			b.log.Warn("mqtt backlog full, discarding oldest", zap.Int("limit", b.limit))
		}
		b.dropped++
		copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:len(b.msgs)-1]
	}
	b.msgs = append(b.msgs, m)
}

// take returns the queued messages oldest first and empties the backlog.
func (b *backlog) take() []pendingMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	out := make([]pendingMsg, len(b.msgs))
	copy(out, b.msgs)
	if b.dropped > 0 {
		b.log.Warn("mqtt backlog discarded messages while offline", zap.Int("dropped", b.dropped))
	}
	b.msgs = b.msgs[:0]
	b.dropped = 0
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}
