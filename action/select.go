package action

import (
	"context"

	"github.com/tweska/multio/core"
)

// Select forwards msg iff its "category" metadata is in the configured
// set; StepComplete always passes through as a synchronization primitive.
type Select struct {
	categories map[string]struct{}
}

func NewSelect(categories []string) *Select {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return &Select{categories: set}
}

func (s *Select) Execute(ctx context.Context, msg *core.Message, next Next) error {
	if msg.Tag() == core.StepComplete {
		return next(ctx, msg)
	}
	cat, ok := msg.Metadata().OptString("category")
	if !ok {
		return nil
	}
	if _, forward := s.categories[cat]; !forward {
		return nil
	}
	return next(ctx, msg)
}
