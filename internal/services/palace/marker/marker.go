// Package marker defines the spatial marker value synced with the server.
package marker

import (
	"fmt"

	palacev1 "github.com/louisbranch/palacesync/api/palace/v1"
)

// Type is the marker category.
type Type int32

const (
	TypeUnknown Type = Type(palacev1.ObjectTypeUnknown)
	TypeTrap    Type = Type(palacev1.ObjectTypeTrap)
	TypeHoard   Type = Type(palacev1.ObjectTypeHoard)
)

// String returns a lower-case name for logs and CLI output.
func (t Type) String() string {
	switch t {
	case TypeTrap:
		return "trap"
	case TypeHoard:
		return "hoard"
	default:
		return "unknown"
	}
}

// ParseType maps a name produced by String back to a Type.
func ParseType(name string) (Type, bool) {
	switch name {
	case "trap":
		return TypeTrap, true
	case "hoard":
		return TypeHoard, true
	case "unknown":
		return TypeUnknown, true
	default:
		return TypeUnknown, false
	}
}

// MarshalText encodes the type by name so marker files stay readable.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, ok := ParseType(string(text))
	if !ok {
		return fmt.Errorf("unknown marker type %q", text)
	}
	*t = parsed
	return nil
}

// Position is a point inside a zone.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Marker is a typed position. Two markers with the same type and position
// are the same marker; deduplication is left to callers.
type Marker struct {
	Type     Type     `json:"type"`
	Position Position `json:"position"`
	// Remote is set on markers obtained from the server.
	Remote bool `json:"-"`
}

// ToWire converts markers to wire objects. Remote is not transmitted.
func ToWire(markers []Marker) []*palacev1.PalaceObject {
	if len(markers) == 0 {
		return nil
	}
	objects := make([]*palacev1.PalaceObject, 0, len(markers))
	for _, m := range markers {
		objects = append(objects, &palacev1.PalaceObject{
			Type: palacev1.ObjectType(m.Type),
			X:    m.Position.X,
			Y:    m.Position.Y,
			Z:    m.Position.Z,
		})
	}
	return objects
}

// FromWire converts wire objects to markers flagged as Remote. Nil entries
// are skipped.
func FromWire(objects []*palacev1.PalaceObject) []Marker {
	markers := make([]Marker, 0, len(objects))
	for _, o := range objects {
		if o == nil {
			continue
		}
		markers = append(markers, Marker{
			Type:     Type(o.GetType()),
			Position: Position{X: o.X, Y: o.Y, Z: o.Z},
			Remote:   true,
		})
	}
	return markers
}
