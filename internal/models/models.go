package models

import (
	"fmt"
	"time"
)

// Device identifies one of the two roles in a pair
type Device string

const (
	DeviceA Device = "A"
	DeviceB Device = "B"
)

// DeviceFromTag resolves a wire-level role tag to a device. "A" maps to
// device A, anything else to device B. Resolution happens once at the
// transport or HTTP boundary; internal APIs pass the typed value.
func DeviceFromTag(tag string) Device {
	if tag == string(DeviceA) {
		return DeviceA
	}
	return DeviceB
}

// Partner returns the other device of the pair
func (d Device) Partner() Device {
	if d == DeviceA {
		return DeviceB
	}
	return DeviceA
}

// InteractionKind is the closed set of interaction record types
type InteractionKind string

const (
	KindPresencePing   InteractionKind = "PRESENCE_PING"
	KindCheckinRequest InteractionKind = "CHECKIN_REQUEST"
	KindAudioMessage   InteractionKind = "AUDIO_MESSAGE"
	KindActivityUpdate InteractionKind = "ACTIVITY_UPDATE"
	KindMoodResult     InteractionKind = "MOOD_RESULT"
	KindMoodAnalysis   InteractionKind = "MOOD_ANALYSIS"
	KindUnknown        InteractionKind = "UNKNOWN"
)

// NormalizeKind maps a raw wire type string to an interaction kind,
// falling back to UNKNOWN so no message is ever dropped from the log
func NormalizeKind(raw string) InteractionKind {
	switch InteractionKind(raw) {
	case KindPresencePing, KindCheckinRequest, KindAudioMessage,
		KindActivityUpdate, KindMoodResult, KindMoodAnalysis:
		return InteractionKind(raw)
	default:
		return KindUnknown
	}
}

// Mood labels returned by the classifier
const (
	MoodHappy   = "happy"
	MoodNeutral = "neutral"
	MoodSad     = "sad"
)

// DeviceState tracks presence and weekly activity for one device
type DeviceState struct {
	LastSeen     time.Time `bson:"last_seen" json:"last_seen"`
	Online       bool      `bson:"online" json:"online"`
	ActivityDays [7]bool   `bson:"activity_days" json:"activity_days"`
}

// Interaction is one immutable record in a pair's interaction log
type Interaction struct {
	Kind         InteractionKind        `bson:"type" json:"type"`
	FromDevice   Device                 `bson:"from_device" json:"from_device"`
	Timestamp    time.Time              `bson:"timestamp" json:"timestamp"`
	Mood         string                 `bson:"mood,omitempty" json:"mood,omitempty"`
	TargetDevice Device                 `bson:"target_device,omitempty" json:"target_device,omitempty"`
	Data         map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
}

// PairState is the single shared document for a pair of devices
type PairState struct {
	PairID       string        `bson:"pair_id" json:"pair_id"`
	DeviceA      DeviceState   `bson:"device_a" json:"device_a"`
	DeviceB      DeviceState   `bson:"device_b" json:"device_b"`
	Interactions []Interaction `bson:"interactions" json:"interactions"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// Message is a decoded inbound pub/sub payload
type Message struct {
	Type   string `json:"type"`
	From   string `json:"from"`
	PairID string `json:"pair_id"`
	Day    *int   `json:"day,omitempty"`
	Mood   string `json:"mood,omitempty"`
	Target string `json:"target,omitempty"`
}

// MoodResult is the reply published back to the requesting device
type MoodResult struct {
	Type   string `json:"type"`
	Mood   string `json:"mood"`
	From   Device `json:"from"`
	Target Device `json:"target"`
	PairID string `json:"pair_id"`
}

// Topic scheme: bondbot/{pair_id}/{direction}
const (
	TopicPrefix          = "bondbot"
	DirectionAToB        = "A_to_B"
	DirectionBToA        = "B_to_A"
	SubscriptionWildcard = TopicPrefix + "/+/+"
)

// Topic builds a directional topic for a pair
func Topic(pairID, direction string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, pairID, direction)
}

// ReplyTopic returns the topic a mood result for the requester is
// delivered on. The reply always flows toward the requester: if A
// asked, the result travels on the B_to_A channel.
func ReplyTopic(pairID string, requester Device) string {
	direction := DirectionAToB
	if requester == DeviceA {
		direction = DirectionBToA
	}
	return Topic(pairID, direction)
}
