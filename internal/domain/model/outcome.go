package model

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"
)

// RawOutcome is the learner's observed reaction to an intervention.
type RawOutcome string

// Raw outcome values.
const (
	OutcomeHelped    RawOutcome = "helped"
	OutcomeIgnored   RawOutcome = "ignored"
	OutcomeDismissed RawOutcome = "dismissed"
)

// Valid reports whether the raw outcome is one of the known values.
func (r RawOutcome) Valid() bool {
	switch r {
	case OutcomeHelped, OutcomeIgnored, OutcomeDismissed:
		return true
	}
	return false
}

// SignalType identifies auxiliary evidence submitted with a resolution.
type SignalType string

// Signal types.
const (
	SignalEngagement   SignalType = "engagement"
	SignalLearningGain SignalType = "learning_gain"
	SignalCompletion   SignalType = "completion"
)

// RewardSignal carries one piece of continuous auxiliary evidence.
type RewardSignal struct {
	Type  SignalType `json:"type"`
	Value float64    `json:"value"`
}

// OutcomeStatus tracks the pending -> resolved lifecycle of a pull.
type OutcomeStatus string

// Outcome statuses.
const (
	StatusPending  OutcomeStatus = "pending"
	StatusResolved OutcomeStatus = "resolved"
)

// Outcome is one instance of an arm being pulled.
// A resolved outcome is immutable.
type Outcome struct {
	ID          string        `json:"outcome_id"`
	UserID      string        `json:"user_id"`
	ArmID       string        `json:"arm_id"`
	ContextHash string        `json:"context_hash,omitempty"`
	Status      OutcomeStatus `json:"status"`

	RawOutcome RawOutcome         `json:"raw_outcome,omitempty"`
	Reward     float64            `json:"reward"`
	Components map[string]float64 `json:"reward_components,omitempty"`
	Confidence float64            `json:"confidence"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Clone returns a copy safe to hand to other goroutines.
func (o *Outcome) Clone() Outcome {
	c := *o
	if o.ResolvedAt != nil {
		t := *o.ResolvedAt
		c.ResolvedAt = &t
	}
	if o.Components != nil {
		c.Components = make(map[string]float64, len(o.Components))
		for k, v := range o.Components {
			c.Components[k] = v
		}
	}
	return c
}

// ContextFeatures is an opaque bag of selection-context features.
// The core never interprets features; it only fingerprints them.
type ContextFeatures map[string]string

// Hash returns a stable FNV-1a fingerprint over sorted key/value pairs,
// or the empty string for a nil or empty context.
func (c ContextFeatures) Hash() string {
	if len(c) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(c[k]))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
