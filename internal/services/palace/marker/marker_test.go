package marker

import (
	"encoding/json"
	"math"
	"testing"

	palacev1 "github.com/louisbranch/palacesync/api/palace/v1"
)

func TestWireRoundTripIsIdentity(t *testing.T) {
	in := []Marker{
		{Type: TypeTrap, Position: Position{X: 1.5, Y: -2.25, Z: 100.125}},
		{Type: TypeHoard, Position: Position{X: -0, Y: math.MaxFloat32, Z: math.SmallestNonzeroFloat32}},
		{Type: TypeUnknown, Position: Position{X: 0.1, Y: 0.2, Z: 0.3}},
	}

	out := FromWire(ToWire(in))
	if len(out) != len(in) {
		t.Fatalf("expected %d markers, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Type != in[i].Type {
			t.Fatalf("marker %d: expected type %s, got %s", i, in[i].Type, out[i].Type)
		}
		if out[i].Position != in[i].Position {
			t.Fatalf("marker %d: expected position %+v, got %+v", i, in[i].Position, out[i].Position)
		}
		if !out[i].Remote {
			t.Fatalf("marker %d: expected remote flag on downloaded marker", i)
		}
	}
}

func TestTypeMapsToWireEnum(t *testing.T) {
	if palacev1.ObjectType(TypeTrap) != palacev1.ObjectTypeTrap {
		t.Fatal("trap does not map to wire trap")
	}
	if palacev1.ObjectType(TypeHoard) != palacev1.ObjectTypeHoard {
		t.Fatal("hoard does not map to wire hoard")
	}
}

func TestToWireDropsRemoteFlag(t *testing.T) {
	objects := ToWire([]Marker{{Type: TypeTrap, Remote: true}})
	if len(objects) != 1 || objects[0].Type != palacev1.ObjectTypeTrap {
		t.Fatalf("unexpected objects %+v", objects)
	}
	if ToWire(nil) != nil {
		t.Fatal("expected nil objects for no markers")
	}
}

func TestFromWireSkipsNil(t *testing.T) {
	got := FromWire([]*palacev1.PalaceObject{nil, {Type: palacev1.ObjectTypeHoard, X: 1}})
	if len(got) != 1 || got[0].Type != TypeHoard {
		t.Fatalf("unexpected markers %+v", got)
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{TypeUnknown, TypeTrap, TypeHoard} {
		got, ok := ParseType(typ.String())
		if !ok || got != typ {
			t.Fatalf("expected %s to parse, got %s (ok=%v)", typ, got, ok)
		}
	}
	if _, ok := ParseType("chest"); ok {
		t.Fatal("expected unknown name to fail")
	}
}

func TestMarkerJSONUsesTypeNames(t *testing.T) {
	data, err := json.Marshal(Marker{Type: TypeHoard, Position: Position{X: 1, Y: 2, Z: 3}, Remote: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"hoard","position":{"x":1,"y":2,"z":3}}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}

	var m Marker
	if err := json.Unmarshal([]byte(`{"type":"trap","position":{"x":-1,"y":0.5,"z":2}}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Type != TypeTrap || m.Position != (Position{X: -1, Y: 0.5, Z: 2}) || m.Remote {
		t.Fatalf("unexpected marker %+v", m)
	}

	if err := json.Unmarshal([]byte(`{"type":"chest"}`), &m); err == nil {
		t.Fatal("expected error for unknown type name")
	}
}
