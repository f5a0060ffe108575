package typhoon

import (
	"errors"
	"strings"
	"testing"
)

func TestRankStableOnTies(t *testing.T) {
	damages := []float64{100, 500, 500, 300}
	var hs []Historical
	for i, d := range damages {
		hs = append(hs, Historical{Index: i, Damage: d})
	}

	got := Rank(hs, ByDamage, TopN)
	wantOrder := []int{1, 2, 3, 0}
	if len(got) != len(wantOrder) {
		t.Fatalf("len=%d, want %d", len(got), len(wantOrder))
	}
	for i, r := range got {
		if r.Typhoon.Index != wantOrder[i] {
			t.Errorf("position %d: index=%d, want %d", i, r.Typhoon.Index, wantOrder[i])
		}
		if r.Rank != i+1 {
			t.Errorf("position %d: rank=%d, want %d", i, r.Rank, i+1)
		}
	}
}

func TestRankEachMetric(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		typ   RankingType
		first string
	}{
		{ByWind, "SARAH"},
		{ByDamage, "MAEMI"},
		{ByCasualties, "SARAH"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got := Rank(d.Historical, tt.typ, TopN)
			if len(got) != TopN {
				t.Fatalf("len=%d, want %d", len(got), TopN)
			}
			if got[0].Typhoon.NameEn != tt.first {
				t.Errorf("first=%s, want %s", got[0].Typhoon.NameEn, tt.first)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Value > got[i-1].Value {
					t.Errorf("not descending at %d: %v > %v", i, got[i].Value, got[i-1].Value)
				}
			}
		})
	}
}

func TestParseRankingType(t *testing.T) {
	if _, err := ParseRankingType("rain"); !errors.Is(err, ErrUnknownRanking) {
		t.Errorf("err=%v, want ErrUnknownRanking", err)
	}
	if typ, err := ParseRankingType("casualties"); err != nil || typ != ByCasualties {
		t.Errorf("typ=%v err=%v", typ, err)
	}
}

func TestFilterVideosRenumbers(t *testing.T) {
	videos := []Video{
		{Category: "A", Number: 1, Title: "a1"},
		{Category: "B", Number: 1, Title: "b1"},
		{Category: "A", Number: 2, Title: "a2"},
	}
	got := FilterVideos(videos, "A")
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	for i, title := range []string{"a1", "a2"} {
		if got[i].Title != title || got[i].Number != i+1 {
			t.Errorf("got[%d]=%s #%d, want %s #%d", i, got[i].Title, got[i].Number, title, i+1)
		}
	}
	if videos[2].Number != 2 {
		t.Error("input slice modified")
	}
}

func TestDefaultDataset(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if d.Current == nil || d.Current.NameEn != "JEBI" {
		t.Fatalf("current=%+v", d.Current)
	}
	if n := len(d.Current.Past()); n != 3 {
		t.Errorf("past=%d points, want 3", n)
	}
	if n := len(d.Current.Forecast()); n != 3 {
		t.Errorf("forecast=%d points, want 3", n)
	}
	if len(d.Historical) != 7 {
		t.Errorf("historical=%d, want 7", len(d.Historical))
	}
	for i, h := range d.Historical {
		if h.Index != i {
			t.Errorf("typhoon %s index=%d, want %d", h.NameEn, h.Index, i)
		}
	}
	if got := len(FilterVideos(d.Videos, DamageVideo)); got != 4 {
		t.Errorf("damage videos=%d, want 4", got)
	}
	if p := d.Historical[0].Track[0].Pressure; p == nil || *p != 985 {
		t.Errorf("per-point pressure not loaded: %v", p)
	}
}

func TestLoadEmptyPathIsEmbedded(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if d.Current == nil || len(d.Historical) != 7 {
		t.Errorf("current=%v historical=%d", d.Current, len(d.Historical))
	}
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestDecodeRejectsBadIndex(t *testing.T) {
	src := `
current:
  name: x
  nameEn: X
  currentIndex: 3
  track:
  - position: [127, 33]
historical: []
videos: []
`
	_, err := Decode(strings.NewReader(src))
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err=%v, want ErrInvalidIndex", err)
	}
}

func TestDatasetTyphoonOutOfRange(t *testing.T) {
	d := &Dataset{Historical: []Historical{{}}}
	if _, err := d.Typhoon(1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err=%v", err)
	}
	if _, err := d.Typhoon(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err=%v", err)
	}
}

func TestFormatting(t *testing.T) {
	h := Historical{Name: "매미", Year: 2003, Damage: 51470, Casualties: 1131, Pressure: 910, Wind: 60}
	if got, want := h.DamageText(), "이 태풍은 1,131명의 인명피해와 5조 1470억 원의 재산피해를 가져왔으며, 당시 가장 큰 재난으로 남아있습니다."; got != want {
		t.Errorf("DamageText=%q, want %q", got, want)
	}
	if !strings.HasPrefix(h.Summary(), "2003년 태풍 매미은") {
		t.Errorf("generated summary=%q", h.Summary())
	}
	h.Description = "설명"
	if h.Summary() != "설명" {
		t.Errorf("summary ignores description: %q", h.Summary())
	}
	r := Ranked{Rank: 2, Typhoon: h}
	if got := r.RouteLabel(); got != "2위 2003년 매미" {
		t.Errorf("RouteLabel=%q", got)
	}

	tests := []struct {
		t    RankingType
		v    float64
		want string
	}{
		{ByWind, 60, "60.0"},
		{ByDamage, 51470, "51,470"},
		{ByCasualties, 849, "849"},
	}
	for _, tt := range tests {
		if got := tt.t.FormatValue(tt.v); got != tt.want {
			t.Errorf("%s.FormatValue(%v)=%q, want %q", tt.t, tt.v, got, tt.want)
		}
	}
}
