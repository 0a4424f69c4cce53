// Package realtime fans campaign progress events out to live subscribers.
package realtime

import (
	"sync"
	"time"
)

const (
	EventProgress = "progress"
	EventDeleted  = "deleted"
)

// ProgressEvent is emitted after a contribution commits, and once with
// type deleted when the campaign is removed. Amounts are fixed two-decimal
// strings, the same rendering the REST responses use.
type ProgressEvent struct {
	Type          string    `json:"type"`
	CampaignID    uint      `json:"campaign_id"`
	EntryID       uint      `json:"entry_id,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	CurrentAmount string    `json:"current_amount,omitempty"`
	GoalAmount    string    `json:"goal_amount,omitempty"`
	At            time.Time `json:"at"`
}

// Hub keeps subscribers per campaign. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[uint]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

type Subscription struct {
	hub        *Hub
	campaignID uint
	ch         chan ProgressEvent
	once       sync.Once
}

func (h *Hub) Subscribe(campaignID uint) *Subscription {
	s := &Subscription{
		hub:        h,
		campaignID: campaignID,
		ch:         make(chan ProgressEvent, h.buffer),
	}

	h.mu.Lock()
	if h.subs[campaignID] == nil {
		h.subs[campaignID] = make(map[*Subscription]struct{})
	}
	h.subs[campaignID][s] = struct{}{}
	h.mu.Unlock()

	return s
}

// Events is closed when the subscription is closed.
func (s *Subscription) Events() <-chan ProgressEvent {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if subs, ok := h.subs[s.campaignID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.subs, s.campaignID)
			}
		}
		close(s.ch)
		h.mu.Unlock()
	})
}

func (h *Hub) Publish(ev ProgressEvent) {
	if ev.Type == "" {
		ev.Type = EventProgress
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.CampaignID] {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// CloseCampaign sends a deleted event to every subscriber of the campaign
// and ends their subscriptions. Later subscribers are unaffected.
func (h *Hub) CloseCampaign(campaignID uint) {
	h.mu.Lock()
	subs := h.subs[campaignID]
	delete(h.subs, campaignID)
	h.mu.Unlock()

	ev := ProgressEvent{Type: EventDeleted, CampaignID: campaignID, At: time.Now().UTC()}
	for s := range subs {
		s.once.Do(func() {
			select {
			case s.ch <- ev:
			default:
			}
			close(s.ch)
		})
	}
}

// Subscribers returns the number of live subscriptions for a campaign.
func (h *Hub) Subscribers(campaignID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[campaignID])
}
