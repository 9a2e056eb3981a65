package template

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func sampleTemplate() Template {
	index := Variable{Name: "index", Scope: ScopeLine}
	return New(
		NewAction(CategoryPlayerEvent, "SwapHands"),
		NewAction(CategoryRepeat, "Multiple", index, Num(10)),
		Open(true),
		NewAction(CategorySetVariable, "Exponent", Variable{Name: "square", Scope: ScopeLine}, index, Num(2)),
		NewAction(CategoryPlayerAction, "SendMessage", Text{Value: "The square of <red>%var(index)</red> is <red>%var(square)</red>."}),
		Close(true),
		NewAction(CategoryIfVariable, "=", Variable{Name: "square", Scope: ScopeLine}, Num(81)).Negate(),
		Open(false),
		NewAction(CategoryPlayerAction, "PlaySound", NewSound("Pling"), Location{X: 1, Y: 2, Z: 3}),
		Close(false),
		NewAction(CategoryElse, ""),
		Open(false),
		NewFunction(CategoryCallFunction, "cleanup"),
		Close(false),
	)
}

func TestDocument_Scenario(t *testing.T) {
	tpl := New(
		NewAction(CategoryPlayerAction, "SendMessage", Str("hello")),
		Open(false),
	)
	doc, err := tpl.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	want := `{"blocks":[{"id":"block","block":"player_action","action":"SendMessage","args":{"items":[{"item":{"id":"txt","data":{"name":"hello"}},"slot":0}]}},{"id":"bracket","direct":"open","type":"norm"}]}`
	if string(doc) != want {
		t.Fatalf("got  %s\nwant %s", doc, want)
	}
}

func TestDocument_RoundTrip(t *testing.T) {
	in := sampleTemplate()
	doc, err := in.Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%#v\nout=%#v", in, out)
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	in := sampleTemplate()
	env, err := in.Compress()
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(env)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%#v\nout=%#v", in, out)
	}
}

func TestEmptyTemplate_RoundTrip(t *testing.T) {
	doc, err := New().Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if string(doc) != `{"blocks":[]}` {
		t.Fatalf("got %s", doc)
	}
	out, err := FromDocument(doc)
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if len(out.Blocks) != 0 {
		t.Fatalf("blocks = %d", len(out.Blocks))
	}
}

func TestCompress_TooLarge(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var sb strings.Builder
	for i := 0; i < 120000; i++ {
		sb.WriteByte(letters[r.Intn(len(letters))])
	}
	tpl := New(NewAction(CategoryPlayerAction, "SendMessage", Str(sb.String())))
	env, err := tpl.Compress()
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got err=%v len=%d", err, len(env))
	}
	if env != "" {
		t.Fatalf("expected no envelope on failure")
	}
}

func TestFromDocument_Errors(t *testing.T) {
	cases := []struct {
		in     string
		scope  string
		key    string
		reason error
	}{
		{`{}`, "template", "blocks", ErrMissingKey},
		{`{"blocks":{}}`, "template", "blocks", ErrUnexpectedValue},
		{`{"blocks":[1]}`, "template", "blocks[0]", ErrUnexpectedValue},
		{`{"blocks":[{"id":"bracket","direct":"open","type":"norm"},{"id":"x"}]}`, "block", "id", ErrUnexpectedValue},
		{`[]`, "template", "template", ErrUnexpectedValue},
	}
	for _, c := range cases {
		_, err := FromDocument([]byte(c.in))
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("%s: expected SchemaError, got %v", c.in, err)
		}
		if se.Scope != c.scope || se.Key != c.key || !errors.Is(err, c.reason) {
			t.Fatalf("%s: got %v (scope %q key %q)", c.in, err, se.Scope, se.Key)
		}
	}
}

func TestDecompress_BadInput(t *testing.T) {
	if _, err := Decompress("not base64!!"); err == nil {
		t.Fatalf("expected base64 error")
	}
	if _, err := Decompress("aGVsbG8="); err == nil {
		t.Fatalf("expected gzip error")
	}
}

func TestValidateDocument(t *testing.T) {
	doc, err := sampleTemplate().Document()
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if err := ValidateDocument(doc); err != nil {
		t.Fatalf("generated document rejected: %v", err)
	}

	bad := []string{
		`{}`,
		`{"blocks":[{"id":"bracket","direct":"up","type":"norm"}]}`,
		`{"blocks":[{"id":"block","block":"func","action":""}]}`,
		`{"blocks":[{"id":"block","block":"player_action"}]}`,
		`{"blocks":[{"id":"block","block":"player_action","action":"x","args":{"items":[{"item":{"id":"zzz","data":{}},"slot":0}]}}]}`,
	}
	for _, b := range bad {
		if err := ValidateDocument([]byte(b)); err == nil {
			t.Fatalf("expected schema rejection for %s", b)
		}
	}
}
