package codec_test

import (
	"strings"
	"testing"

	"sems-converter/internal/codec"
)

type doc struct {
	Title string `json:"title" cbor:"title"`
	Seats int    `json:"seats" cbor:"seats"`
}

func TestJSON_IndentedWithoutTrailingNewline(t *testing.T) {
	out, err := codec.JSON().Marshal(doc{Title: "A & B", Seats: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "{\n  \"title\": \"A & B\",\n  \"seats\": 2\n}"
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, string(out))
	}
}

func TestCBOR_DecodesWhatItEncodes(t *testing.T) {
	c, err := codec.CBOR()
	if err != nil {
		t.Fatalf("CBOR: %v", err)
	}
	if c.ContentType() != "application/cbor" {
		t.Fatalf("unexpected content type %s", c.ContentType())
	}
	raw, err := c.Marshal(doc{Title: "Mayor", Seats: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got doc
	if err := c.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Title != "Mayor" || got.Seats != 1 {
		t.Fatalf("unexpected doc %+v", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "json", "JSON", "cbor"} {
		if _, err := codec.ByName(name); err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
	}
	_, err := codec.ByName("xml")
	if err == nil || !strings.Contains(err.Error(), "unknown codec") {
		t.Fatalf("expected unknown codec error, got %v", err)
	}
}
