// Package collection holds an ordered, session-scoped list of collected map
// points. Nothing here is durable: a collection lives and dies with its
// session.
package collection

import (
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/click2vector/internal/model"
)

// ErrEmpty is returned when an operation needs at least one point.
var ErrEmpty = eris.New("collection: no points")

// ErrIndexOutOfRange is returned for operations on a nonexistent row.
var ErrIndexOutOfRange = eris.New("collection: point index out of range")

// ErrFull is returned when the collection has hit its point cap.
var ErrFull = eris.New("collection: point limit reached")

// Collection is a mutex-guarded ordered list of points. Each browser
// interaction is sequential, but HTTP handlers run concurrently, so all
// access goes through the lock.
type Collection struct {
	mu        sync.RWMutex
	points    []model.Point
	maxPoints int
}

// New creates an empty Collection. maxPoints <= 0 means unlimited.
func New(maxPoints int) *Collection {
	return &Collection{maxPoints: maxPoints}
}

// Add validates and appends a point. A blank name gets the positional
// default ("Point N"). Returns the index and the point as stored, so callers
// never have to re-read the list to see what was inserted.
func (c *Collection) Add(p model.Point) (int, model.Point, error) {
	if err := p.Validate(); err != nil {
		return 0, model.Point{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxPoints > 0 && len(c.points) >= c.maxPoints {
		return 0, model.Point{}, ErrFull
	}

	if p.Name == "" {
		p.Name = model.DefaultName(len(c.points) + 1)
	}
	c.points = append(c.points, p)
	return len(c.points) - 1, p, nil
}

// AddAll appends points in order, stopping at the first validation failure.
// Returns the number added.
func (c *Collection) AddAll(points []model.Point) (int, error) {
	for i, p := range points {
		if _, _, err := c.Add(p); err != nil {
			return i, err
		}
	}
	return len(points), nil
}

// Points returns a snapshot copy of the point list in insertion order.
func (c *Collection) Points() []model.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Point, len(c.points))
	copy(out, c.points)
	return out
}

// Len returns the number of points.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}

// Rename sets the name of the point at index.
func (c *Collection) Rename(index int, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.points) {
		return ErrIndexOutOfRange
	}
	c.points[index].Name = name
	return nil
}

// RemoveAt deletes the point at index, preserving the order of the rest.
func (c *Collection) RemoveAt(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.points) {
		return ErrIndexOutOfRange
	}
	c.points = append(c.points[:index], c.points[index+1:]...)
	return nil
}

// RemoveLast deletes the most recently added point.
func (c *Collection) RemoveLast() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.points) == 0 {
		return ErrEmpty
	}
	c.points = c.points[:len(c.points)-1]
	return nil
}

// Clear removes all points.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = nil
}
