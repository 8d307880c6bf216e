package schedule

import "fmt"

// Route is a (flight number, origin, destination) triple. Routes are
// identity-unique by Key; the registry hands out one instance per key.
type Route struct {
	ID          int64
	Name        string // four-digit flight number, e.g. "0403"
	Origin      *Airport
	Destination *Airport
}

// RouteKey builds the natural key a route is deduplicated by.
func RouteKey(name, origin, destination string) string {
	return name + origin + destination
}

// Key returns the route's natural key.
func (r *Route) Key() string {
	return RouteKey(r.Name, r.Origin.IATACode, r.Destination.IATACode)
}

func (r *Route) String() string {
	return fmt.Sprintf("%s %s-%s", r.Name, r.Origin.IATACode, r.Destination.IATACode)
}
