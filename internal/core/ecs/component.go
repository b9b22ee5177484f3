package ecs

import (
	"fmt"
	"reflect"
)

// ComponentType identifies a component by its Go type and knows how to make
// dense storage for it.
type ComponentType struct {
	typ       reflect.Type
	newColumn func(capacity int) column
}

// Component returns the ComponentType for T.
func Component[T any]() ComponentType {
	return ComponentType{
		typ: typeOf[T](),
		newColumn: func(capacity int) column {
			return &Column[T]{data: make([]T, 0, capacity)}
		},
	}
}

func (c ComponentType) Type() reflect.Type { return c.typ }
func (c ComponentType) String() string     { return c.typ.String() }

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// column is the type-erased view of a Column used by the shape mutations
// applied at flush. Every column in a group has the same length.
type column interface {
	Len() int
	appendZero()
	appendValue(v any) error
	swapRemove(row int)
	copyRow(dst int, src column, srcRow int)
	reserve(n int)
	truncate()
}

// Column is a densely packed array of one component type for one group.
type Column[T any] struct {
	data []T
}

func (c *Column[T]) Len() int { return len(c.data) }

// Values returns the live backing slice. Its length only changes during a
// flush, after which the slice must be fetched again.
func (c *Column[T]) Values() []T { return c.data }

func (c *Column[T]) appendZero() {
	var zero T
	c.data = append(c.data, zero)
}

func (c *Column[T]) appendValue(v any) error {
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("column %s: got value of type %T", typeOf[T](), v)
	}
	c.data = append(c.data, tv)
	return nil
}

// swapRemove moves the last row into row and shrinks by one.
func (c *Column[T]) swapRemove(row int) {
	last := len(c.data) - 1
	if row < last {
		c.data[row] = c.data[last]
	}
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

func (c *Column[T]) copyRow(dst int, src column, srcRow int) {
	c.data[dst] = src.(*Column[T]).data[srcRow]
}

func (c *Column[T]) reserve(n int) {
	if free := cap(c.data) - len(c.data); free >= n {
		return
	}
	grown := make([]T, len(c.data), len(c.data)+n)
	copy(grown, c.data)
	c.data = grown
}

func (c *Column[T]) truncate() {
	clear(c.data)
	c.data = c.data[:0]
}
