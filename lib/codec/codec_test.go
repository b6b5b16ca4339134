// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleFrame uses json tags, the convention for types that serve both
// the JSON HTTP surface and the CBOR stream (fxamacker falls back to
// json tags when no cbor tag is present).
type sampleFrame struct {
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
	Count int    `json:"count"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleFrame{Kind: "created", ID: "task-42", Count: 7}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleFrame
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	value := map[string]any{"zebra": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("identical values encoded to different bytes")
	}
}

func TestStreamCarriesConsecutiveValues(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)

	frames := []sampleFrame{
		{Kind: "created", ID: "a", Count: 1},
		{Kind: "updated", ID: "a", Count: 2},
		{Kind: "deleted", ID: "a", Count: 3},
	}
	for _, frame := range frames {
		if err := encoder.Encode(frame); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range frames {
		var got sampleFrame
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode frame %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("frame %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"kind": "created", "count": 1, "future_field": true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleFrame
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if decoded.Kind != "created" || decoded.Count != 1 {
		t.Fatalf("decoded = %+v, want kind=created count=1", decoded)
	}
}
