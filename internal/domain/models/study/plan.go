package study

import (
	"encoding/json"
	"time"
)

// DraftTopic is a topic of a plan that has not been finalized yet. The JSON
// names match what the planning model is asked to produce.
type DraftTopic struct {
	OrderIndex  int      `json:"order_index"`
	Title       string   `json:"title"`
	Subtopics   []string `json:"subtopics"`
	IsCompleted bool     `json:"is_completed"`
}

// DraftPlan is the ordered topic list of a session. A nil DraftPlan means no
// plan has been generated yet.
type DraftPlan []DraftTopic

// JSON renders the plan the way it is shown to the planning model. An empty
// plan renders as "[]".
func (p DraftPlan) JSON() string {
	if len(p) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Clone returns a deep copy so history snapshots never alias the live plan.
func (p DraftPlan) Clone() DraftPlan {
	if p == nil {
		return nil
	}
	out := make(DraftPlan, len(p))
	for i, t := range p {
		out[i] = t
		out[i].Subtopics = append([]string(nil), t.Subtopics...)
	}
	return out
}

// Find returns the topic with the given order index.
func (p DraftPlan) Find(orderIndex int) (int, bool) {
	for i := range p {
		if p[i].OrderIndex == orderIndex {
			return i, true
		}
	}
	return -1, false
}

// Topic is a finalized plan topic with its own identity.
type Topic struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	OrderIndex  int       `json:"order_index"`
	Title       string    `json:"title"`
	Subtopics   []string  `json:"subtopics"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChatType distinguishes per-topic chats from the session-wide review chat.
type ChatType string

const (
	ChatTypeTopicSpecific ChatType = "TOPIC_SPECIFIC"
	ChatTypeGeneralReview ChatType = "GENERAL_REVIEW"
)

// Chat is the conversation attached to a topic or to the whole session.
type Chat struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	TopicID     *string   `json:"topic_id,omitempty"`
	Type        ChatType  `json:"type"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}
