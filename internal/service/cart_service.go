package service

import (
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/store"
)

type CartService struct {
	store  StateStore
	logger *zap.Logger
}

func NewCartService(st StateStore, logger *zap.Logger) *CartService {
	return &CartService{
		store:  st,
		logger: logger.Named("cart"),
	}
}

// AddItem puts quantity units of item into the cart, merging with an existing
// line. A zero quantity means one unit; a negative one changes nothing.
func (s *CartService) AddItem(item domain.MenuItem, quantity int) (domain.Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	return s.dispatch(store.AddItem{Item: item, Quantity: quantity}, item.ID)
}

func (s *CartService) DecreaseQuantity(itemID string) (domain.Cart, error) {
	return s.dispatch(store.DecreaseQuantity{ItemID: itemID}, itemID)
}

func (s *CartService) RemoveItem(itemID string) (domain.Cart, error) {
	return s.dispatch(store.RemoveItem{ItemID: itemID}, itemID)
}

func (s *CartService) Clear() (domain.Cart, error) {
	return s.dispatch(store.ClearCart{}, "")
}

func (s *CartService) Cart() (domain.Cart, error) {
	st, err := s.store.State()
	if err != nil {
		return domain.Cart{}, err
	}
	return st.Cart, nil
}

func (s *CartService) dispatch(cmd store.Command, itemID string) (domain.Cart, error) {
	res, err := s.store.Dispatch(cmd)
	if err != nil {
		return domain.Cart{}, err
	}
	if !res.Changed {
		s.logger.Debug("cart unchanged", zap.String("item_id", itemID), zap.String("command", commandName(cmd)))
	}
	return res.State.Cart, nil
}
