package selection_test

import (
	"errors"
	"testing"
	"time"

	selection "github.com/okian/meeplerank/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNextPair(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given the pair scheduler", t, func() {
		Convey("When the collection has fewer than two items", func() {
			_, _, err := selection.NextPair(now, []string{"catan"}, nil)

			Convey("Then it should report insufficient candidates", func() {
				So(errors.Is(err, selection.ErrInsufficientCandidates), ShouldBeTrue)
			})

			_, _, err = selection.NextPair(now, nil, nil)
			So(errors.Is(err, selection.ErrInsufficientCandidates), ShouldBeTrue)
		})

		Convey("When no item was ever compared (cold start)", func() {
			a, b, err := selection.NextPair(now, []string{"catan", "azul", "uno"}, nil)

			Convey("Then a pair should still be produced", func() {
				So(err, ShouldBeNil)
			})

			Convey("And all priorities tie, so item ID breaks them ascending", func() {
				So(a.ItemID, ShouldEqual, "azul")
				So(b.ItemID, ShouldEqual, "catan")
			})

			Convey("And both candidates should carry maximal priority", func() {
				So(a.Priority, ShouldEqual, 1.0)
				So(b.Priority, ShouldEqual, 1.0)
			})
		})

		Convey("When one item was compared heavily and recently", func() {
			stats := map[string]selection.Stats{
				"catan": {Comparisons: 50, LastCompared: now.Add(-time.Hour)},
			}
			a, b, err := selection.NextPair(now, []string{"catan", "azul", "uno"}, stats)

			Convey("Then the untouched items should be scheduled first", func() {
				So(err, ShouldBeNil)
				So(a.ItemID, ShouldEqual, "azul")
				So(b.ItemID, ShouldEqual, "uno")
			})
		})

		Convey("When items differ only in how long ago they were compared", func() {
			stats := map[string]selection.Stats{
				"fresh": {Comparisons: 3, LastCompared: now.Add(-time.Hour)},
				"stale": {Comparisons: 3, LastCompared: now.AddDate(0, 0, -20)},
				"old":   {Comparisons: 3, LastCompared: now.AddDate(0, -3, 0)},
			}
			a, b, err := selection.NextPair(now, []string{"fresh", "stale", "old"}, stats)

			Convey("Then staler items should win", func() {
				So(err, ShouldBeNil)
				So(a.ItemID, ShouldEqual, "old")
				So(b.ItemID, ShouldEqual, "stale")
			})
		})

		Convey("When the scheduler runs twice on the same input", func() {
			items := []string{"catan", "azul", "uno", "carcassonne"}
			stats := map[string]selection.Stats{
				"catan": {Comparisons: 2, LastCompared: now.AddDate(0, 0, -5)},
				"azul":  {Comparisons: 2, LastCompared: now.AddDate(0, 0, -5)},
			}
			a1, b1, err1 := selection.NextPair(now, items, stats)
			a2, b2, err2 := selection.NextPair(now, items, stats)

			Convey("Then the choice should be deterministic", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(a2.ItemID, ShouldEqual, a1.ItemID)
				So(b2.ItemID, ShouldEqual, b1.ItemID)
			})
		})

		Convey("When candidates are returned", func() {
			stats := map[string]selection.Stats{
				"catan": {Comparisons: 4, LastCompared: now.AddDate(0, 0, -10)},
			}
			a, _, err := selection.NextPair(now, []string{"catan", "azul"}, stats)
			So(err, ShouldBeNil)

			Convey("Then diagnostics should reflect the stats", func() {
				// azul was never compared, so it leads.
				So(a.ItemID, ShouldEqual, "azul")
				So(a.Comparisons, ShouldEqual, 0)
				So(a.LastCompared.IsZero(), ShouldBeTrue)
				So(a.Priority, ShouldBeBetweenOrEqual, 0.0, 1.0)
			})
		})
	})
}
