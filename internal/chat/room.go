package chat

import (
	"sync"

	"hireline/internal/models"
)

// DeliverFunc pushes a message to one online member of a room.
type DeliverFunc func(receiverID string, chatID string, message models.Message)

// Room is the in-memory hot state of one two-party conversation: the
// participant set with their online flags and a ring buffer of the most
// recent messages. Sequence numbers are assigned by storage before a
// message reaches the room.
type Room struct {
	ID         string
	records    []models.Message
	members    map[string]bool
	firstSeq   int64
	lastSeq    int64
	lastIndex  int
	maxRecords int

	deliver DeliverFunc

	mux sync.RWMutex
}

type Config struct {
	ID string
	// Participant user ids, normally the initiator and the freelancer.
	Members    []string
	MaxRecords int
	Deliver    DeliverFunc
}

func NewRoom(config Config) *Room {
	r := &Room{
		ID:         config.ID,
		maxRecords: config.MaxRecords,
		lastIndex:  -1,
		firstSeq:   -1,
		lastSeq:    -1,
		members:    make(map[string]bool),
		deliver:    config.Deliver,
	}
	for _, id := range config.Members {
		r.members[id] = false
	}
	return r
}

// IsMember reports whether userID belongs to the room.
func (r *Room) IsMember(userID string) bool {
	r.mux.RLock()
	defer r.mux.RUnlock()
	_, ok := r.members[userID]
	return ok
}

// Members returns the ids of all room members.
func (r *Room) Members() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()

	members := make([]string, 0, len(r.members))
	for id := range r.members {
		members = append(members, id)
	}
	return members
}

// OnlineMembers returns the ids of members currently connected.
func (r *Room) OnlineMembers() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()

	var online []string
	for id, on := range r.members {
		if on {
			online = append(online, id)
		}
	}
	return online
}

// Append adds a stored message to the ring buffer and delivers it to
// every online member, the sender included so clients can confirm
// their optimistic copies.
func (r *Room) Append(message models.Message) {
	r.mux.Lock()

	r.lastSeq = message.Seq

	switch {
	case len(r.records) < r.maxRecords:
		if r.firstSeq == -1 {
			r.firstSeq = message.Seq
		}
		r.records = append(r.records, message)
		r.lastIndex++
	default:
		i := (r.lastIndex + 1) % r.maxRecords
		r.records[i] = message
		r.lastIndex = i
		r.firstSeq = r.records[(i+1)%r.maxRecords].Seq
	}

	var receivers []string
	for receiverID, online := range r.members {
		if online {
			receivers = append(receivers, receiverID)
		}
	}

	// Deliver outside the lock, callbacks reach back into the hub.
	r.mux.Unlock()

	if r.deliver == nil {
		return
	}
	for _, receiverID := range receivers {
		r.deliver(receiverID, r.ID, message)
	}
}

// LastRecords returns up to count most recent messages, oldest first.
func (r *Room) LastRecords(count int) []models.Message {
	r.mux.RLock()
	defer r.mux.RUnlock()

	if r.lastSeq == -1 {
		return []models.Message{}
	}

	if count > len(r.records) {
		count = len(r.records)
	}

	result := make([]models.Message, count)

	head := 0
	if len(r.records) == r.maxRecords {
		head = (r.lastIndex + 1) % r.maxRecords
	}

	offset := len(r.records) - count
	startIdx := (head + offset) % len(r.records)

	if startIdx+count <= len(r.records) {
		copy(result, r.records[startIdx:startIdx+count])
	} else {
		n1 := len(r.records) - startIdx
		copy(result, r.records[startIdx:])
		copy(result[n1:], r.records[:count-n1])
	}

	return result
}

func (r *Room) setOnline(userID string, online bool) bool {
	r.mux.Lock()
	defer r.mux.Unlock()

	if _, ok := r.members[userID]; !ok {
		return false
	}
	r.members[userID] = online
	return true
}

// Join marks a member online. It returns false for non-members.
func (r *Room) Join(userID string) bool {
	return r.setOnline(userID, true)
}

// Leave marks a member offline.
func (r *Room) Leave(userID string) {
	r.setOnline(userID, false)
}
