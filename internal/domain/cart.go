package domain

const (
	// MaxItemQuantity caps the quantity of one cart line.
	MaxItemQuantity = 99
	// MaxUnitPrice caps a menu price, in minor units.
	MaxUnitPrice int64 = 1_000_000_000
)

// MenuItem is a catalog entry the customer can put into the cart.
// Prices are integer minor currency units.
type MenuItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageRef  string `json:"image_ref"`
}

type CartItem struct {
	ID        string `json:"id" bson:"id"`
	Name      string `json:"name" bson:"name"`
	UnitPrice int64  `json:"unit_price" bson:"unit_price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	ImageRef  string `json:"image_ref" bson:"image_ref"`
}

func (i CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart is the in-progress menu selection of the current booking draft.
// Total always equals the sum of item subtotals; call Recalculate after
// touching Items.
type Cart struct {
	Items []CartItem `json:"items" bson:"items"`
	Total int64      `json:"total" bson:"total"`
}

func EmptyCart() Cart {
	return Cart{Items: []CartItem{}}
}

func (c *Cart) Recalculate() {
	var total int64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	c.Total = total
}

// Find returns the index of the item with the given id, or -1.
func (c Cart) Find(itemID string) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	return Cart{
		Items: cloneItems(c.Items),
		Total: c.Total,
	}
}

func cloneItems(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}
