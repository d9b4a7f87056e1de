package palacev1

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestCodecIsRegistered(t *testing.T) {
	codec := encoding.GetCodec(ContentSubtype)
	if codec == nil {
		t.Fatalf("expected codec %q to be registered", ContentSubtype)
	}
	if codec.Name() != ContentSubtype {
		t.Fatalf("expected codec name %q, got %q", ContentSubtype, codec.Name())
	}
}

func TestCodecEncodesSchemaFieldNames(t *testing.T) {
	codec := jsonCodec{}
	data, err := codec.Marshal(&UploadFloorsRequest{
		TerritoryType: 561,
		Objects:       []*PalaceObject{{Type: ObjectTypeTrap, X: 1.5, Y: -2, Z: 0}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"territory_type":561,"objects":[{"type":1,"x":1.5,"y":-2,"z":0}]}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}

	var out UploadFloorsRequest
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.TerritoryType != 561 || len(out.Objects) != 1 || *out.Objects[0] != (PalaceObject{Type: ObjectTypeTrap, X: 1.5, Y: -2}) {
		t.Fatalf("unexpected decode %+v", out)
	}
}

func TestCodecToleratesEmptyPayload(t *testing.T) {
	var reply StatisticsReply
	if err := (jsonCodec{}).Unmarshal(nil, &reply); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if reply.GetSuccess() {
		t.Fatal("expected zero reply")
	}
}

func TestNilGetters(t *testing.T) {
	var download *DownloadFloorsReply
	if download.GetSuccess() || download.GetObjects() != nil {
		t.Fatal("expected zero values from nil download reply")
	}
	var stats *StatisticsReply
	if stats.GetSuccess() || stats.GetFloorStatistics() != nil {
		t.Fatal("expected zero values from nil statistics reply")
	}
	var object *PalaceObject
	if object.GetType() != ObjectTypeUnknown {
		t.Fatal("expected unknown type from nil object")
	}
}
