package service

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/typhoon-viz/internal/typhoon"
)

func testService(t *testing.T) *TyphoonService {
	t.Helper()
	tr := typhoon.Track{{Position: orb.Point{125, 30}}, {Position: orb.Point{126, 33}}}
	d := &typhoon.Dataset{
		Historical: []typhoon.Historical{
			{Name: "루사", NameEn: "RUSA", Year: 2002, Wind: 56.7, Damage: 51479, Casualties: 246, Track: tr},
			{Name: "매미", NameEn: "MAEMI", Year: 2003, Wind: 60, Damage: 42225, Casualties: 131, Track: tr},
			{Name: "힌남노", NameEn: "HINNAMNOR", Year: 2022, Wind: 60, Damage: 12000, Casualties: 11, Track: tr},
		},
		Videos: []typhoon.Video{
			{Category: typhoon.DamageVideo, Title: "d1"},
			{Category: typhoon.Approaching, Title: "a1"},
			{Category: typhoon.DamageVideo, Title: "d2"},
		},
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	return NewTyphoonService(d)
}

func TestList(t *testing.T) {
	s := testService(t)
	list := s.List()
	if len(list) != 3 {
		t.Fatalf("len=%d, want 3", len(list))
	}
	if list[1].Index != 1 || list[1].Label != "2003년 매미" || list[1].Points != 2 {
		t.Errorf("summary=%+v", list[1])
	}
	if _, err := s.Get(3); !errors.Is(err, typhoon.ErrInvalidIndex) {
		t.Errorf("Get(3) err=%v", err)
	}
	if _, err := s.Current(); !errors.Is(err, ErrNoCurrent) {
		t.Errorf("Current err=%v", err)
	}
}

func TestRanking(t *testing.T) {
	s := testService(t)
	r, err := s.Ranking("wind")
	if err != nil {
		t.Fatal(err)
	}
	// ties keep dataset order
	want := []string{"MAEMI", "HINNAMNOR", "RUSA"}
	for i, e := range r.Entries {
		if e.Typhoon.NameEn != want[i] || e.Rank != i+1 {
			t.Errorf("entry %d=%s rank %d, want %s rank %d", i, e.Typhoon.NameEn, e.Rank, want[i], i+1)
		}
	}
	if r.Entries[0].Display != "60.0m/s" {
		t.Errorf("display=%q", r.Entries[0].Display)
	}
	if r.Entries[0].Label != "1위 2003년 매미" {
		t.Errorf("label=%q", r.Entries[0].Label)
	}

	r, err = s.Ranking("damage")
	if err != nil {
		t.Fatal(err)
	}
	if r.Entries[0].Display != "51,479억원" {
		t.Errorf("damage display=%q", r.Entries[0].Display)
	}

	if _, err := s.Ranking("rain"); !errors.Is(err, typhoon.ErrUnknownRanking) {
		t.Errorf("Ranking(rain) err=%v", err)
	}
}

func TestVideos(t *testing.T) {
	s := testService(t)
	tests := []struct {
		category string
		want     []string
	}{
		{"", []string{"a1"}},
		{"approaching", []string{"a1"}},
		{"damage", []string{"d1", "d2"}},
	}
	for _, tt := range tests {
		l, err := s.Videos(tt.category)
		if err != nil {
			t.Fatalf("%q: %v", tt.category, err)
		}
		if len(l.Videos) != len(tt.want) {
			t.Fatalf("%q: got %d videos, want %d", tt.category, len(l.Videos), len(tt.want))
		}
		for i, v := range l.Videos {
			if v.Title != tt.want[i] || v.Number != i+1 {
				t.Errorf("%q video %d=%s #%d", tt.category, i, v.Title, v.Number)
			}
		}
	}
	if _, err := s.Videos("storm"); !errors.Is(err, typhoon.ErrUnknownCategory) {
		t.Errorf("Videos(storm) err=%v", err)
	}
}

func TestBusFanOut(t *testing.T) {
	b := NewEventBus(0)
	a, c := b.Subscribe(), b.Subscribe()
	if b.Subscribers() != 2 {
		t.Fatalf("subscribers=%d", b.Subscribers())
	}
	b.Publish(Event{Kind: KindSlideTo, Index: 2})
	for _, s := range []*Subscription{a, c} {
		if e := <-s.C; e.Kind != KindSlideTo || e.Index != 2 {
			t.Errorf("event=%+v", e)
		}
	}

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	if _, ok := <-a.C; ok {
		t.Error("channel still open after unsubscribe")
	}
	b.Close()
	if _, ok := <-c.C; ok {
		t.Error("channel still open after close")
	}
	if b.Subscribers() != 0 {
		t.Errorf("subscribers=%d after close", b.Subscribers())
	}
}

func TestBusCountsDrops(t *testing.T) {
	b := NewEventBus(2)
	s := b.Subscribe()
	for i := 0; i < 5; i++ {
		b.Publish(Event{Kind: KindPatch, Index: i})
	}
	if n := s.TakeDropped(); n != 3 {
		t.Errorf("dropped=%d, want 3", n)
	}
	if n := s.TakeDropped(); n != 0 {
		t.Errorf("dropped after take=%d, want 0", n)
	}
	if e := <-s.C; e.Index != 0 {
		t.Errorf("first kept event=%d", e.Index)
	}
}
