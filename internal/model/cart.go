package model

import (
	"errors"
	"fmt"
	"strings"
)

const maxCartKeyLength = 64

var ErrInvalidCartKey = errors.New("invalid cart key")

// Cart maps a product id to the quantity held per size.
type Cart map[string]map[string]int

func ValidateCartKey(key string) error {
	if key == "" || strings.TrimSpace(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidCartKey, key)
	}
	if len(key) > maxCartKeyLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidCartKey, maxCartKeyLength)
	}
	if strings.ContainsAny(key, ".$") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidCartKey, key)
	}
	return nil
}

func (c Cart) Validate() error {
	for item, sizes := range c {
		if err := ValidateCartKey(item); err != nil {
			return err
		}
		for size, qty := range sizes {
			if err := ValidateCartKey(size); err != nil {
				return err
			}
			if qty < 0 {
				return fmt.Errorf("negative quantity for %s/%s", item, size)
			}
		}
	}
	return nil
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for item, sizes := range c {
		inner := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			inner[size] = qty
		}
		out[item] = inner
	}
	return out
}

func (c Cart) Add(item, size string) {
	if c[item] == nil {
		c[item] = make(map[string]int)
	}
	c[item][size]++
}

// Set writes a quantity. Zero removes the size, and the item once it has no
// sizes left.
func (c Cart) Set(item, size string, quantity int) {
	if quantity == 0 {
		if sizes, ok := c[item]; ok {
			delete(sizes, size)
			if len(sizes) == 0 {
				delete(c, item)
			}
		}
		return
	}
	if c[item] == nil {
		c[item] = make(map[string]int)
	}
	c[item][size] = quantity
}
