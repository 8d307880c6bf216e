// Package registry caches scheduling reference entities so that every
// airport, equipment type, airline and route exists exactly once per
// process, backed by the store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"orgutrip/internal/schedule"
	"orgutrip/internal/storage"
)

// Registry resolves reference entities by natural key. Lookups hit the
// in-memory cache first, then the store; unknown entities are created on
// demand. All methods are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	store storage.Store

	airports  map[string]*schedule.Airport
	equipment map[string]*schedule.Equipment
	airlines  map[string]*schedule.Airline
	routes    map[string]*schedule.Route
}

// New creates a Registry over the given store.
func New(store storage.Store) *Registry {
	return &Registry{
		store:     store,
		airports:  make(map[string]*schedule.Airport),
		equipment: make(map[string]*schedule.Equipment),
		airlines:  make(map[string]*schedule.Airline),
		routes:    make(map[string]*schedule.Route),
	}
}

// Airport returns the airport for an IATA code, creating a bare record
// (no timezone) when neither the cache nor the store knows it.
func (r *Registry) Airport(ctx context.Context, iata string) (*schedule.Airport, error) {
	r.mu.RLock()
	a, ok := r.airports[iata]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.airports[iata]; ok {
		return a, nil
	}

	a, err := r.store.AirportByCode(ctx, iata)
	if errors.Is(err, storage.ErrNotFound) {
		a = &schedule.Airport{IATACode: iata}
		if _, err := r.store.SaveAirport(ctx, a); err != nil {
			return nil, fmt.Errorf("create airport %s: %w", iata, err)
		}
	} else if err != nil {
		return nil, err
	}
	r.airports[iata] = a
	return a, nil
}

// Equipment returns the equipment type for a fleet code, creating it when
// unknown.
func (r *Registry) Equipment(ctx context.Context, code string) (*schedule.Equipment, error) {
	r.mu.RLock()
	e, ok := r.equipment[code]
	r.mu.RUnlock()
	if ok {
		return e, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.equipment[code]; ok {
		return e, nil
	}

	e, err := r.store.EquipmentByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		e = &schedule.Equipment{Code: code}
		if _, err := r.store.SaveEquipment(ctx, e); err != nil {
			return nil, fmt.Errorf("create equipment %s: %w", code, err)
		}
	} else if err != nil {
		return nil, err
	}
	r.equipment[code] = e
	return e, nil
}

// Airline returns the carrier for an IATA designator, creating it when
// unknown.
func (r *Registry) Airline(ctx context.Context, code string) (*schedule.Airline, error) {
	r.mu.RLock()
	a, ok := r.airlines[code]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.airlines[code]; ok {
		return a, nil
	}

	a, err := r.store.AirlineByCode(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		a = &schedule.Airline{Code: code}
		if _, err := r.store.SaveAirline(ctx, a); err != nil {
			return nil, fmt.Errorf("create airline %s: %w", code, err)
		}
	} else if err != nil {
		return nil, err
	}
	r.airlines[code] = a
	return a, nil
}

// Route returns the route for (name, origin, destination), resolving both
// airports first and creating the route when unknown.
func (r *Registry) Route(ctx context.Context, name, origin, destination string) (*schedule.Route, error) {
	key := schedule.RouteKey(name, origin, destination)

	r.mu.RLock()
	rt, ok := r.routes[key]
	r.mu.RUnlock()
	if ok {
		return rt, nil
	}

	// Resolve airports outside the write lock; Airport takes the same lock.
	o, err := r.Airport(ctx, origin)
	if err != nil {
		return nil, err
	}
	d, err := r.Airport(ctx, destination)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.routes[key]; ok {
		return rt, nil
	}

	rt, err = r.store.RouteByKey(ctx, name, origin, destination)
	if errors.Is(err, storage.ErrNotFound) {
		rt = &schedule.Route{Name: name, Origin: o, Destination: d}
		if _, err := r.store.SaveRoute(ctx, rt); err != nil {
			return nil, fmt.Errorf("create route %s: %w", key, err)
		}
	} else if err != nil {
		return nil, err
	}
	r.routes[key] = rt
	return rt, nil
}

// Size returns cached entity counts, for log summaries.
func (r *Registry) Size() (airports, equipment, airlines, routes int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.airports), len(r.equipment), len(r.airlines), len(r.routes)
}
