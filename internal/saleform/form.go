// Package saleform models the sale entry form: a draft sale with editable
// line items whose subtotals and total amount stay consistent as fields
// change. The form enforces entry rules (at least one line, named products)
// before a draft is handed to the sales store.
package saleform

import (
	"errors"
	"fmt"
	"time"

	"salesdesk/backend/internal/domain"
	"salesdesk/backend/internal/sales"
	"salesdesk/backend/internal/xid"
)

var (
	// ErrLastItem is returned when removing the only remaining line.
	ErrLastItem = errors.New("at least one item is required")
	// ErrEmptyProduct is returned by Submit when any line lacks a product name.
	ErrEmptyProduct = errors.New("every item needs a product name")
)

// Form is a sale draft under edit. Not safe for concurrent use; each form
// belongs to a single editing session.
type Form struct {
	draftID string
	sale    domain.Sale
	editing bool
}

// New starts a form from an existing sale, or a blank draft when initial is
// nil: today's date and a single empty line with quantity 1.
func New(initial *domain.Sale) *Form {
	f := &Form{draftID: xid.New("draft")}
	if initial != nil {
		f.editing = true
		f.sale = *initial
		f.sale.Items = append([]domain.SaleItem(nil), initial.Items...)
		if len(f.sale.Items) == 0 {
			f.sale.Items = []domain.SaleItem{blankItem(1)}
		}
	} else {
		f.sale = domain.Sale{
			Date:  time.Now().Format("2006-01-02"),
			Items: []domain.SaleItem{blankItem(1)},
		}
	}
	f.recalc()
	return f
}

func blankItem(id int) domain.SaleItem {
	return domain.SaleItem{ID: id, Quantity: 1}
}

// AddItem appends a new empty line with quantity 1.
func (f *Form) AddItem() {
	f.sale.Items = append(f.sale.Items, blankItem(len(f.sale.Items)+1))
}

// RemoveItem deletes the line at index. The last remaining line cannot be
// removed.
func (f *Form) RemoveItem(index int) error {
	if index < 0 || index >= len(f.sale.Items) {
		return fmt.Errorf("item index %d out of range", index)
	}
	if len(f.sale.Items) == 1 {
		return ErrLastItem
	}
	f.sale.Items = append(f.sale.Items[:index], f.sale.Items[index+1:]...)
	f.recalc()
	return nil
}

// SetProduct sets the product name of the line at index.
func (f *Form) SetProduct(index int, name string) error {
	item, err := f.item(index)
	if err != nil {
		return err
	}
	item.Product = name
	return nil
}

// SetQuantity updates a line's quantity and re-derives its subtotal.
func (f *Form) SetQuantity(index, quantity int) error {
	item, err := f.item(index)
	if err != nil {
		return err
	}
	item.Quantity = quantity
	item.Subtotal = domain.Money(sales.Subtotal(item.Price.Float64(), quantity))
	f.recalc()
	return nil
}

// SetPrice updates a line's unit price and re-derives its subtotal.
func (f *Form) SetPrice(index int, price float64) error {
	item, err := f.item(index)
	if err != nil {
		return err
	}
	item.Price = domain.Money(price)
	item.Subtotal = domain.Money(sales.Subtotal(price, item.Quantity))
	f.recalc()
	return nil
}

// SetSubtotal overrides a line's subtotal without touching price or
// quantity. Manual overrides survive until the next quantity or price edit.
func (f *Form) SetSubtotal(index int, subtotal float64) error {
	item, err := f.item(index)
	if err != nil {
		return err
	}
	item.Subtotal = domain.Money(sales.Round2(subtotal))
	f.recalc()
	return nil
}

func (f *Form) SetID(id string)         { f.sale.ID = id }
func (f *Form) SetDate(date string)     { f.sale.Date = date }
func (f *Form) SetCustomer(name string) { f.sale.Customer = name }
func (f *Form) SetEmployee(name string) { f.sale.Employee = name }

// DraftID identifies this editing session, not the sale itself.
func (f *Form) DraftID() string { return f.draftID }

// Editing reports whether the form was opened on an existing sale.
func (f *Form) Editing() bool { return f.editing }

// Items returns a copy of the current lines.
func (f *Form) Items() []domain.SaleItem {
	return append([]domain.SaleItem(nil), f.sale.Items...)
}

// Amount is the running total of line subtotals.
func (f *Form) Amount() float64 {
	return f.sale.Amount.Float64()
}

// Sale returns the draft in its current state.
func (f *Form) Sale() domain.Sale {
	sale := f.sale
	sale.Items = append([]domain.SaleItem(nil), f.sale.Items...)
	return sale
}

// Submit validates the draft and hands the coerced sale to fn. Every line
// must name a product; the sale is normalized (rounded, renumbered, amount
// re-derived) before fn sees it. fn's error is returned unchanged.
func (f *Form) Submit(fn func(domain.Sale) error) error {
	for _, item := range f.sale.Items {
		if item.Product == "" {
			return ErrEmptyProduct
		}
	}
	return fn(sales.Normalize(f.Sale()))
}

func (f *Form) item(index int) (*domain.SaleItem, error) {
	if index < 0 || index >= len(f.sale.Items) {
		return nil, fmt.Errorf("item index %d out of range", index)
	}
	return &f.sale.Items[index], nil
}

func (f *Form) recalc() {
	total := 0.0
	for _, item := range f.sale.Items {
		total = sales.Round2(total + item.Subtotal.Float64())
	}
	f.sale.Amount = domain.Money(total)
}
