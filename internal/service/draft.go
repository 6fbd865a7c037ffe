package service

import (
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/store"
)

// DraftAssembler derives the booking draft from the slot selection and the
// cart. The draft is never stored; it is recomputed from state on demand.
type DraftAssembler struct {
	store  StateStore
	logger *zap.Logger
}

func NewDraftAssembler(st StateStore, logger *zap.Logger) *DraftAssembler {
	return &DraftAssembler{
		store:  st,
		logger: logger.Named("draft"),
	}
}

// Select replaces the current slot selection. The selection is not
// validated here; incomplete selections are rejected at commit.
func (a *DraftAssembler) Select(selection domain.TableSlotSelection) (domain.BookingDraft, error) {
	res, err := a.store.Dispatch(store.SelectSlot{Selection: selection})
	if err != nil {
		return domain.BookingDraft{}, err
	}
	return draftOf(res.State), nil
}

func (a *DraftAssembler) ClearSelection() (domain.BookingDraft, error) {
	res, err := a.store.Dispatch(store.ClearSelection{})
	if err != nil {
		return domain.BookingDraft{}, err
	}
	return draftOf(res.State), nil
}

// Discard abandons the draft: the selection and the cart are both cleared.
func (a *DraftAssembler) Discard() error {
	res, err := a.store.Dispatch(store.DiscardDraft{})
	if err != nil {
		return err
	}
	if res.Changed {
		a.logger.Debug("draft discarded")
	}
	return nil
}

func (a *DraftAssembler) Draft() (domain.BookingDraft, error) {
	st, err := a.store.State()
	if err != nil {
		return domain.BookingDraft{}, err
	}
	return draftOf(st), nil
}

// Watch calls fn with a fresh draft whenever the cart or the selection
// changes. The returned function stops watching.
func (a *DraftAssembler) Watch(fn func(domain.BookingDraft)) func() {
	var last *domain.BookingDraft
	return a.store.Subscribe(func(st store.State) {
		draft := draftOf(st)
		if last != nil && sameDraft(*last, draft) {
			return
		}
		last = &draft
		fn(draft)
	})
}

func draftOf(st store.State) domain.BookingDraft {
	return domain.NewBookingDraft(st.Draft.Selection, st.Cart)
}

func sameDraft(a, b domain.BookingDraft) bool {
	if (a.Selection == nil) != (b.Selection == nil) {
		return false
	}
	if a.Selection != nil && *a.Selection != *b.Selection {
		return false
	}
	if a.Cart.Total != b.Cart.Total || len(a.Cart.Items) != len(b.Cart.Items) {
		return false
	}
	for i := range a.Cart.Items {
		if a.Cart.Items[i] != b.Cart.Items[i] {
			return false
		}
	}
	return true
}
