// Package assign implements the sequential condition assignment policy:
// participants rotate through the empathy styles in fixed order, the
// watermark condition is an independent coin flip, and returning participants
// keep their recorded style.
package assign

import (
	"context"
	"errors"
	"log"
	"math/rand"

	"github.com/empathicai21/Empathic-AI-Research/internal/model/study"
	"github.com/empathicai21/Empathic-AI-Research/internal/model/style"
	"github.com/empathicai21/Empathic-AI-Research/internal/store"
)

// Policy derives the next session's experimental conditions.
type Policy struct {
	store store.Store
}

// NewPolicy creates an assignment policy backed by the persistence store.
func NewPolicy(st store.Store) *Policy {
	return &Policy{store: st}
}

// NextStyle rotates across the fixed style order based on how many
// participants have been enrolled so far. If the count is unavailable it
// falls back to a uniformly random style rather than failing enrollment.
func (p *Policy) NextStyle(ctx context.Context) string {
	order := style.Order()

	count, err := p.store.CountParticipants(ctx)
	if err != nil {
		choice := order[rand.Intn(len(order))]
		log.Printf("[assign] enrollment count unavailable (%v), falling back to random style %s", err, choice)
		return choice
	}
	return order[count%len(order)]
}

// ResolveStyle picks the style for a new session. A returning participant
// (matched by prolific id) is re-assigned their recorded style without
// consuming a rotation slot; everyone else goes through NextStyle.
func (p *Policy) ResolveStyle(ctx context.Context, prolificID string) (string, *study.Participant) {
	if prolificID != "" {
		participant, err := p.store.FindParticipantByProlificID(ctx, prolificID)
		switch {
		case err == nil:
			log.Printf("[assign] returning participant %s keeps style %s", participant.ID, participant.Style)
			return participant.Style, &participant
		case !errors.Is(err, store.ErrParticipantNotFound):
			log.Printf("[assign] prolific lookup failed: %v", err)
		}
	}
	return p.NextStyle(ctx), nil
}

// FlipWatermark draws the watermark condition fresh per session,
// uncorrelated with style assignment.
func (p *Policy) FlipWatermark() string {
	if rand.Intn(2) == 0 {
		return study.WatermarkVisible
	}
	return study.WatermarkHidden
}
