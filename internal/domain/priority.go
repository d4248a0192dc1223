package domain

import "strings"

// ReorderPriority ranks how soon a product needs a purchase order.
type ReorderPriority string

const (
	PriorityCritical ReorderPriority = "CRITICAL"
	PriorityHigh     ReorderPriority = "HIGH"
	PriorityMedium   ReorderPriority = "MEDIUM"
	PriorityLow      ReorderPriority = "LOW"
)

// ReorderTiming tells the buyer when to act on a recommendation.
type ReorderTiming string

const (
	TimingOrderNow ReorderTiming = "Order Now"
	TimingThisWeek ReorderTiming = "Order This Week"
	TimingMonitor  ReorderTiming = "Monitor"
	TimingNoAction ReorderTiming = "No Action"
)

// TransferUrgency ranks a cross-location transfer by how close the
// destination is to stocking out relative to its lead time.
type TransferUrgency string

const (
	UrgencyUrgent TransferUrgency = "URGENT"
	UrgencyHigh   TransferUrgency = "HIGH"
	UrgencyMedium TransferUrgency = "MEDIUM"
	UrgencyLow    TransferUrgency = "LOW"
)

var priorityRanks = map[ReorderPriority]int{
	PriorityCritical: 3,
	PriorityHigh:     2,
	PriorityMedium:   1,
	PriorityLow:      0,
}

var urgencyRanks = map[TransferUrgency]int{
	UrgencyUrgent: 3,
	UrgencyHigh:   2,
	UrgencyMedium: 1,
	UrgencyLow:    0,
}

// PriorityRank returns a sortable severity rank, LOW being 0.
func PriorityRank(p ReorderPriority) int {
	return priorityRanks[p]
}

// UrgencyRank returns a sortable severity rank, LOW being 0.
func UrgencyRank(u TransferUrgency) int {
	return urgencyRanks[u]
}

// ParsePriority returns the priority for a label (case-insensitive).
func ParsePriority(label string) (ReorderPriority, bool) {
	p := ReorderPriority(strings.ToUpper(strings.TrimSpace(label)))
	_, ok := priorityRanks[p]
	return p, ok
}

// DowngradePolicy maps a priority to the tier used when pending orders
// already cover part of the need. It is business policy, not arithmetic,
// so it stays overridable.
type DowngradePolicy func(ReorderPriority) ReorderPriority

// DefaultDowngrade lowers each priority by exactly one tier.
func DefaultDowngrade(p ReorderPriority) ReorderPriority {
	switch p {
	case PriorityCritical:
		return PriorityHigh
	case PriorityHigh:
		return PriorityMedium
	case PriorityMedium:
		return PriorityLow
	default:
		return PriorityLow
	}
}
