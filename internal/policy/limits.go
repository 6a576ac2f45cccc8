package policy

import "github.com/barneeyyu/library-server/internal/domain"

// DefaultCaps are the caps used when configuration leaves a category out.
var DefaultCaps = map[domain.Category]int{
	domain.CategoryBook:     10,
	domain.CategoryMagazine: 5,
}

type LimitInfo struct {
	Category       domain.Category `json:"category"`
	CurrentCount   int             `json:"current_count"`
	MaxLimit       int             `json:"max_limit"`
	AvailableSlots int             `json:"available_slots"`
	CanBorrow      bool            `json:"can_borrow"`
}

// LimitPolicy maps a category to its cap of simultaneous open loans.
type LimitPolicy struct {
	caps map[domain.Category]int
}

func NewLimitPolicy(caps map[domain.Category]int) *LimitPolicy {
	merged := make(map[domain.Category]int, len(DefaultCaps))
	for c, n := range DefaultCaps {
		merged[c] = n
	}
	for c, n := range caps {
		merged[c] = n
	}
	return &LimitPolicy{caps: merged}
}

// Cap returns zero for unknown categories, so nothing of that kind can be borrowed.
func (p *LimitPolicy) Cap(category domain.Category) int {
	return p.caps[category]
}

func (p *LimitPolicy) Remaining(category domain.Category, current int) int {
	return max(0, p.Cap(category)-current)
}

func (p *LimitPolicy) CanBorrow(category domain.Category, current int) bool {
	return p.Remaining(category, current) > 0
}

// Check returns a *domain.LimitExceededError when current has reached the cap.
func (p *LimitPolicy) Check(category domain.Category, current int) error {
	if p.CanBorrow(category, current) {
		return nil
	}
	return &domain.LimitExceededError{Category: category, Current: current, Max: p.Cap(category)}
}

func (p *LimitPolicy) Info(category domain.Category, current int) LimitInfo {
	remaining := p.Remaining(category, current)
	return LimitInfo{
		Category:       category,
		CurrentCount:   current,
		MaxLimit:       p.Cap(category),
		AvailableSlots: remaining,
		CanBorrow:      remaining > 0,
	}
}
