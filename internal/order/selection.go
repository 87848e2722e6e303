package order

import (
	"farm-to-keells/internal/product"
)

// Selection is the set of products picked from one farmer's catalog. It can
// only hold products from the catalog it was built with, so an order never
// mixes farmers.
type Selection struct {
	farmerID int64
	catalog  []product.Product
	index    map[int64]int
	picked   map[int64]bool
}

func NewSelection(farmerID int64, catalog []product.Product) (*Selection, error) {
	s := &Selection{
		farmerID: farmerID,
		catalog:  make([]product.Product, len(catalog)),
		index:    make(map[int64]int, len(catalog)),
		picked:   make(map[int64]bool),
	}
	for i, p := range catalog {
		if p.FarmerID != farmerID {
			return nil, ErrMixedFarmers
		}
		s.catalog[i] = p
		s.index[p.ID] = i
	}
	return s, nil
}

func (s *Selection) FarmerID() int64 { return s.farmerID }

func (s *Selection) Select(productID int64) error {
	if _, ok := s.index[productID]; !ok {
		return ErrProductNotInCatalog
	}
	s.picked[productID] = true
	return nil
}

func (s *Selection) Deselect(productID int64) {
	delete(s.picked, productID)
}

// Toggle flips the product's membership and reports whether it is now selected.
func (s *Selection) Toggle(productID int64) (bool, error) {
	if s.picked[productID] {
		s.Deselect(productID)
		return false, nil
	}
	if err := s.Select(productID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Selection) IsSelected(productID int64) bool { return s.picked[productID] }

func (s *Selection) Len() int { return len(s.picked) }

func (s *Selection) Clear() {
	s.picked = make(map[int64]bool)
}

// Items snapshots the selected products in catalog order.
func (s *Selection) Items() []Item {
	items := make([]Item, 0, len(s.picked))
	for _, p := range s.catalog {
		if !s.picked[p.ID] {
			continue
		}
		items = append(items, Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductType: string(p.Type),
			Quantity:    p.Quantity,
			Price:       p.Price,
		})
	}
	return items
}
