package humastar

import (
	"reflect"
	"testing"
)

func TestSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"selectid":"typhoon-select","value":3,"pointindex":-1,"mobile":true,"width":390.5}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.String("selectid"); got != "typhoon-select" {
		t.Errorf("selectid=%q", got)
	}
	if got := s.String("value"); got != "3" {
		t.Errorf("numeric value as string=%q, want 3", got)
	}
	if got := s.Int("pointindex", 0); got != -1 {
		t.Errorf("pointindex=%d", got)
	}
	if got := s.Int("ordinal", 7); got != 7 {
		t.Errorf("missing int=%d, want default 7", got)
	}
	if got := s.Float("width"); got != 390.5 {
		t.Errorf("width=%v", got)
	}
	if !s.Bool("mobile") || s.Has("layer") {
		t.Error("bool/has mismatch")
	}

	in := &SignalsInput{RawBody: []byte("{")}
	if _, err := in.MustParse(); err == nil {
		t.Error("malformed body parsed")
	}
}

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}
	tests := []struct {
		in    PageInput
		data  []int
		links []string
	}{
		{PageInput{Offset: 0, Limit: 3}, []int{0, 1, 2}, []string{
			`</x?offset=0&limit=3>; rel="first"`,
			`</x?offset=3&limit=3>; rel="next"`,
			`</x?offset=6&limit=3>; rel="last"`,
		}},
		{PageInput{Offset: 3, Limit: 3}, []int{3, 4, 5}, []string{
			`</x?offset=0&limit=3>; rel="first"`,
			`</x?offset=0&limit=3>; rel="prev"`,
			`</x?offset=6&limit=3>; rel="next"`,
			`</x?offset=6&limit=3>; rel="last"`,
		}},
		{PageInput{Offset: 10, Limit: 3}, []int{}, []string{
			`</x?offset=0&limit=3>; rel="first"`,
			`</x?offset=4&limit=3>; rel="prev"`,
			`</x?offset=6&limit=3>; rel="last"`,
		}},
	}
	for _, tt := range tests {
		p := Paginate(items, tt.in)
		if p.Total != 7 || !reflect.DeepEqual(p.Data, tt.data) {
			t.Errorf("%+v: page=%+v", tt.in, p)
		}
		if got := p.PaginationLinks("/x"); !reflect.DeepEqual(got, tt.links) {
			t.Errorf("%+v: links=%v, want %v", tt.in, got, tt.links)
		}
	}

	if p := Paginate(items, PageInput{}); p.Limit != DefaultLimit || len(p.Data) != 7 {
		t.Errorf("zero input page=%+v", p)
	}
}

func TestActionsFor(t *testing.T) {
	defs := []ActionDef{
		{Rel: "stream", Pattern: "/s/%s/stream", Method: "GET"},
		{Rel: "close", Pattern: "/s/%s", Method: "DELETE", Title: "End session"},
	}
	got := ActionsFor("abc", defs)
	want := []string{
		`</s/abc/stream>; rel="stream"; method="GET"`,
		`</s/abc>; rel="close"; method="DELETE"; title="End session"`,
	}
	for i, a := range got {
		if a.LinkHeader() != want[i] {
			t.Errorf("action %d=%s, want %s", i, a.LinkHeader(), want[i])
		}
	}
}
