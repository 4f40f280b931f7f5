package rankmath_test

import (
	"math"
	"testing"
	"time"

	rankmath "github.com/okian/meeplerank/internal/domain/rankmath"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecay(t *testing.T) {
	Convey("Given the temporal decay function", t, func() {
		Convey("When a comparison was made right now", func() {
			Convey("Then its weight should be exactly 1", func() {
				So(rankmath.Decay(0), ShouldEqual, 1.0)
			})
		})

		Convey("When comparisons age", func() {
			Convey("Then weight should strictly decrease with age", func() {
				So(rankmath.Decay(1), ShouldBeLessThan, rankmath.Decay(0))
				So(rankmath.Decay(30), ShouldBeLessThan, rankmath.Decay(1))
				So(rankmath.Decay(365), ShouldBeLessThan, rankmath.Decay(30))
			})

			Convey("And weight should stay positive even for very old comparisons", func() {
				So(rankmath.Decay(10000), ShouldBeGreaterThan, 0)
			})

			Convey("And the rate should match exp(-0.01*days)", func() {
				So(rankmath.Decay(100), ShouldAlmostEqual, math.Exp(-1), 1e-12)
			})
		})
	})
}

func TestDaysBetween(t *testing.T) {
	Convey("Given two instants", t, func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("When they are a whole number of days apart", func() {
			So(rankmath.DaysBetween(base, base.AddDate(0, 0, 3)), ShouldEqual, 3.0)
		})

		Convey("When they are hours apart", func() {
			So(rankmath.DaysBetween(base, base.Add(12*time.Hour)), ShouldEqual, 0.5)
		})

		Convey("When they are equal", func() {
			So(rankmath.DaysBetween(base, base), ShouldEqual, 0.0)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given raw accumulated scores", t, func() {
		Convey("When the map is empty", func() {
			out := rankmath.Normalize(map[string]float64{})

			Convey("Then the result should be empty", func() {
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When there is a single item", func() {
			out := rankmath.Normalize(map[string]float64{"a": 3.7})

			Convey("Then it should get the neutral score", func() {
				So(out["a"], ShouldEqual, rankmath.NeutralScore)
			})
		})

		Convey("When all raw scores are equal", func() {
			out := rankmath.Normalize(map[string]float64{"a": 2.0, "b": 2.0, "c": 2.0})

			Convey("Then every item should get the neutral score", func() {
				So(out["a"], ShouldEqual, rankmath.NeutralScore)
				So(out["b"], ShouldEqual, rankmath.NeutralScore)
				So(out["c"], ShouldEqual, rankmath.NeutralScore)
			})
		})

		Convey("When scores vary", func() {
			out := rankmath.Normalize(map[string]float64{"low": 0.0, "mid": 1.0, "high": 2.0})

			Convey("Then the extremes should map to 1 and 10", func() {
				So(out["low"], ShouldEqual, 1.0)
				So(out["high"], ShouldEqual, 10.0)
			})

			Convey("And the midpoint should map to 5.5", func() {
				So(out["mid"], ShouldEqual, 5.5)
			})

			Convey("And ordering should be preserved", func() {
				So(out["low"], ShouldBeLessThan, out["mid"])
				So(out["mid"], ShouldBeLessThan, out["high"])
			})
		})

		Convey("When raw scores are negative", func() {
			out := rankmath.Normalize(map[string]float64{"a": -5.0, "b": -1.0})

			Convey("Then the output should still span [1,10]", func() {
				So(out["a"], ShouldEqual, 1.0)
				So(out["b"], ShouldEqual, 10.0)
			})
		})

		Convey("When normalizing", func() {
			in := map[string]float64{"a": 1.0, "b": 2.0}
			_ = rankmath.Normalize(in)

			Convey("Then the input map should not be mutated", func() {
				So(in["a"], ShouldEqual, 1.0)
				So(in["b"], ShouldEqual, 2.0)
			})
		})
	})
}

func TestRecencySignal(t *testing.T) {
	Convey("Given the recency scheduling signal", t, func() {
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		Convey("When an item was never compared", func() {
			So(rankmath.RecencySignal(time.Time{}, now), ShouldEqual, 1.0)
		})

		Convey("When an item was compared just now", func() {
			So(rankmath.RecencySignal(now, now), ShouldEqual, 0.0)
		})

		Convey("When an item was compared 15 days ago", func() {
			So(rankmath.RecencySignal(now.AddDate(0, 0, -15), now), ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("When an item was compared beyond the 30-day window", func() {
			So(rankmath.RecencySignal(now.AddDate(0, 0, -45), now), ShouldEqual, 1.0)
			So(rankmath.RecencySignal(now.AddDate(-1, 0, 0), now), ShouldEqual, 1.0)
		})

		Convey("When the last comparison is in the future (clock skew)", func() {
			So(rankmath.RecencySignal(now.Add(time.Hour), now), ShouldEqual, 0.0)
		})
	})
}

func TestCoverageSignal(t *testing.T) {
	Convey("Given the coverage scheduling signal", t, func() {
		Convey("When an item has no comparisons", func() {
			So(rankmath.CoverageSignal(0), ShouldEqual, 1.0)
		})

		Convey("When comparison counts grow", func() {
			Convey("Then the signal should strictly decrease", func() {
				So(rankmath.CoverageSignal(1), ShouldBeLessThan, rankmath.CoverageSignal(0))
				So(rankmath.CoverageSignal(5), ShouldBeLessThan, rankmath.CoverageSignal(1))
				So(rankmath.CoverageSignal(50), ShouldBeLessThan, rankmath.CoverageSignal(5))
			})

			Convey("And it should stay positive", func() {
				So(rankmath.CoverageSignal(1000), ShouldBeGreaterThan, 0)
			})

			Convey("And five comparisons should give exp(-1)", func() {
				So(rankmath.CoverageSignal(5), ShouldAlmostEqual, math.Exp(-1), 1e-12)
			})
		})
	})
}

func TestPriority(t *testing.T) {
	Convey("Given the priority blend", t, func() {
		Convey("When both signals are maximal", func() {
			So(rankmath.Priority(1.0, 1.0), ShouldEqual, 1.0)
		})

		Convey("When both signals are zero", func() {
			So(rankmath.Priority(0.0, 0.0), ShouldEqual, 0.0)
		})

		Convey("When signals differ", func() {
			Convey("Then recency should dominate at 60/40", func() {
				So(rankmath.Priority(1.0, 0.0), ShouldAlmostEqual, 0.6, 1e-12)
				So(rankmath.Priority(0.0, 1.0), ShouldAlmostEqual, 0.4, 1e-12)
			})
		})
	})
}
