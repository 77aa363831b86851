package cart

import (
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart with the price and presentation fields
// captured when it was added.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Tagline   string          `json:"tagline,omitempty"`
	Icon      string          `json:"icon,omitempty"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store holds one customer's in-progress selection. Lines keep insertion order.
// A Store is owned by a single caller and is not safe for concurrent use.
type Store struct {
	lines []Line
}

func New() *Store {
	return &Store{}
}

// AddItem increments the line for p by one, or appends a new line with quantity 1.
func (s *Store) AddItem(p domain.Product) {
	if i := s.index(p.ID); i >= 0 {
		s.lines[i].Quantity++
		return
	}
	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
		Image:     p.Image,
		Tagline:   p.Tagline,
		Icon:      p.Icon,
	})
}

func (s *Store) RemoveItem(productID uuid.UUID) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}

// UpdateQuantity sets the quantity exactly. A quantity of zero or less removes the line.
func (s *Store) UpdateQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity = quantity
	}
}

func (s *Store) Clear() {
	s.lines = nil
}

func (s *Store) TotalItems() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Line(productID uuid.UUID) (Line, bool) {
	if i := s.index(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

func (s *Store) IsEmpty() bool {
	return len(s.lines) == 0
}

func (s *Store) index(productID uuid.UUID) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
