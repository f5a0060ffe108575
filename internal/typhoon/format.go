package typhoon

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ko = message.NewPrinter(language.Korean)

// FormatValue renders a ranking value the way the Top-5 list shows it.
func (t RankingType) FormatValue(v float64) string {
	if t == ByWind {
		return ko.Sprintf("%.1f", v)
	}
	return ko.Sprintf("%d", int64(math.Round(v)))
}

// Summary returns the description of h, or a generated one when the
// dataset has none.
func (h *Historical) Summary() string {
	if h.Description != "" {
		return h.Description
	}
	return fmt.Sprintf("%d년 태풍 %s은 관측 이래 최대 규모의 태풍으로, 최저기압 %vhPa와 초속 %vm/sec의 강풍 및 폭우로 한반도에 막대한 피해를 입혔습니다.",
		h.Year, h.Name, h.Pressure, h.Wind)
}

// DamageText describes casualties and property damage, splitting the
// damage (in 억원) into 조 and 억.
func (h *Historical) DamageText() string {
	d := int64(math.Round(h.Damage))
	return fmt.Sprintf("이 태풍은 %s명의 인명피해와 %d조 %d억 원의 재산피해를 가져왔으며, 당시 가장 큰 재난으로 남아있습니다.",
		ko.Sprintf("%d", int64(h.Casualties)), d/10000, d%10000)
}

// RouteLabel is the text drawn along a Top-5 route, e.g. "1위 2003년 매미".
func (r Ranked) RouteLabel() string {
	return fmt.Sprintf("%d위 %d년 %s", r.Rank, r.Typhoon.Year, r.Typhoon.Name)
}
