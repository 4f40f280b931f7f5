package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/meeplerank/internal/adapters/repository"
	"github.com/okian/meeplerank/internal/app"
	"github.com/okian/meeplerank/internal/domain/model"
	"github.com/okian/meeplerank/internal/domain/scoring"
	"github.com/okian/meeplerank/internal/domain/selection"
	"github.com/okian/meeplerank/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func testDimensions() []model.Dimension {
	return []model.Dimension{
		{ID: "fun", Name: "Fun", Weight: 60},
		{ID: "depth", Name: "Strategic depth", Weight: 40},
	}
}

// newEngine starts a service on a fresh in-memory store with a fake clock
// pinned at t0 so decay arithmetic is exact.
func newEngine(t *testing.T, t0 time.Time) (*app.Service, repository.Store) {
	t.Helper()
	st := repository.NewMemStore()
	svc := app.New(
		app.WithStore(st),
		app.WithDimensions(testDimensions()),
		app.WithClock(clockwork.NewFakeClockAt(t0)),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { svc.Stop(context.Background()) })
	return svc, st
}

func seedCollection(t *testing.T, svc *app.Service, userID string, itemIDs ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range itemIDs {
		if err := svc.AddGame(ctx, model.Game{ID: id, Name: id}); err != nil {
			t.Fatalf("add game %s: %v", id, err)
		}
		if err := svc.AddToCollection(ctx, userID, id); err != nil {
			t.Fatalf("add to collection %s: %v", id, err)
		}
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := app.New()

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := app.New(
			app.WithDimensions(testDimensions()),
			app.WithRebuildQueueSize(64),
			app.WithRebuildWorkerCount(1),
			app.WithDedupeSize(100),
		)

		Convey("Then it should report its dimension set", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Dimensions(), ShouldHaveLength, 2)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := app.New(app.WithDimensions(testDimensions()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)
			defer svc.Stop(context.Background())

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["dimensions"], ShouldEqual, 2)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop(context.Background())

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And stopping again should be a no-op", func() {
				So(func() { svc.Stop(context.Background()) }, ShouldNotPanic)
			})
		})
	})
}

func TestService_NextPair(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a started service", t, func() {
		svc, _ := newEngine(t, t0)

		Convey("When requesting a pair for an unknown dimension", func() {
			_, _, err := svc.NextPair(context.Background(), "alice", "artwork")

			Convey("Then it should reject the dimension", func() {
				So(errors.Is(err, app.ErrUnknownDimension), ShouldBeTrue)
			})
		})

		Convey("When the collection has fewer than two items", func() {
			seedCollection(t, svc, "alice", "catan")
			_, _, err := svc.NextPair(context.Background(), "alice", "fun")

			Convey("Then it should report insufficient candidates", func() {
				So(errors.Is(err, selection.ErrInsufficientCandidates), ShouldBeTrue)
			})
		})

		Convey("When the collection is cold", func() {
			seedCollection(t, svc, "alice", "catan", "azul", "wingspan")
			a, b, err := svc.NextPair(context.Background(), "alice", "fun")

			Convey("Then it should pick two never-compared items at top priority", func() {
				So(err, ShouldBeNil)
				So(a.ItemID, ShouldEqual, "azul")
				So(b.ItemID, ShouldEqual, "catan")
				So(a.Priority, ShouldEqual, 1.0)
				So(b.Priority, ShouldEqual, 1.0)
				So(a.Comparisons, ShouldEqual, 0)
			})
		})

		Convey("When one item has been compared heavily", func() {
			seedCollection(t, svc, "alice", "catan", "azul", "wingspan")
			for i := 0; i < 5; i++ {
				_, _, err := svc.SubmitComparison(context.Background(), app.Submission{
					UserID:       "alice",
					DimensionID:  "fun",
					ItemAID:      "azul",
					ItemBID:      "catan",
					ChosenItemID: "azul",
				})
				So(err, ShouldBeNil)
			}

			a, b, err := svc.NextPair(context.Background(), "alice", "fun")

			Convey("Then the never-compared item should lead the pair", func() {
				So(err, ShouldBeNil)
				So(a.ItemID, ShouldEqual, "wingspan")
				So(b.ItemID, ShouldNotEqual, "wingspan")
			})
		})
	})
}

func TestService_SubmitComparison(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a started service with a seeded collection", t, func() {
		svc, st := newEngine(t, t0)
		seedCollection(t, svc, "alice", "catan", "azul")
		ctx := context.Background()

		Convey("When submitting a choice on an unknown dimension", func() {
			_, _, err := svc.SubmitComparison(ctx, app.Submission{
				UserID: "alice", DimensionID: "artwork",
				ItemAID: "azul", ItemBID: "catan", ChosenItemID: "azul",
			})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, app.ErrUnknownDimension), ShouldBeTrue)
			})
		})

		Convey("When the pair is not two distinct items", func() {
			_, _, err := svc.SubmitComparison(ctx, app.Submission{
				UserID: "alice", DimensionID: "fun",
				ItemAID: "azul", ItemBID: "azul", ChosenItemID: "azul",
			})

			Convey("Then it should be rejected as an invalid choice", func() {
				So(errors.Is(err, app.ErrInvalidChoice), ShouldBeTrue)
			})
		})

		Convey("When the chosen item is outside the pair", func() {
			_, _, err := svc.SubmitComparison(ctx, app.Submission{
				UserID: "alice", DimensionID: "fun",
				ItemAID: "azul", ItemBID: "catan", ChosenItemID: "wingspan",
			})

			Convey("Then it should be rejected as an invalid choice", func() {
				So(errors.Is(err, app.ErrInvalidChoice), ShouldBeTrue)
			})
		})

		Convey("When submitting a valid win", func() {
			c, dup, err := svc.SubmitComparison(ctx, app.Submission{
				UserID: "alice", DimensionID: "fun",
				ItemAID: "azul", ItemBID: "catan", ChosenItemID: "azul",
			})

			Convey("Then the comparison should be recorded with server fields", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(c.ID, ShouldNotBeEmpty)
				So(c.At.Equal(t0), ShouldBeTrue)
			})

			Convey("And the dimension scores should be recomputed", func() {
				So(err, ShouldBeNil)
				scores, serr := st.ListDimensionScores(ctx, "alice", "fun")
				So(serr, ShouldBeNil)
				So(scores, ShouldHaveLength, 2)
				byItem := make(map[string]model.AdjustedScore, len(scores))
				for _, sc := range scores {
					byItem[sc.ItemID] = sc
				}
				So(byItem["azul"].Score, ShouldEqual, 10.0)
				So(byItem["catan"].Score, ShouldEqual, 1.0)
				So(byItem["azul"].Frequency, ShouldEqual, 1)
			})

			Convey("And the overall ranking should be dense and ordered", func() {
				So(err, ShouldBeNil)
				entries, rerr := svc.Ranking(ctx, "alice")
				So(rerr, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].ItemID, ShouldEqual, "azul")
				So(entries[0].Position, ShouldEqual, 1)
				So(entries[1].ItemID, ShouldEqual, "catan")
				So(entries[1].Position, ShouldEqual, 2)
				So(entries[0].Score, ShouldBeGreaterThan, entries[1].Score)
			})
		})

		Convey("When submitting a tie", func() {
			_, dup, err := svc.SubmitComparison(ctx, app.Submission{
				UserID: "alice", DimensionID: "fun",
				ItemAID: "azul", ItemBID: "catan", ChosenItemID: model.Tie,
			})

			Convey("Then both items should land on the scale midpoint", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				scores, serr := svc.DimensionScores(ctx, "alice", "fun")
				So(serr, ShouldBeNil)
				So(scores, ShouldHaveLength, 2)
				So(scores[0].Score, ShouldEqual, 5.5)
				So(scores[1].Score, ShouldEqual, 5.5)
			})
		})

		Convey("When replaying a submission ID", func() {
			sub := app.Submission{
				SubmissionID: "sub-1",
				UserID:       "alice", DimensionID: "fun",
				ItemAID: "azul", ItemBID: "catan", ChosenItemID: "azul",
			}
			_, dup1, err1 := svc.SubmitComparison(ctx, sub)
			c2, dup2, err2 := svc.SubmitComparison(ctx, sub)

			Convey("Then the replay should be acknowledged without recording", func() {
				So(err1, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(err2, ShouldBeNil)
				So(dup2, ShouldBeTrue)
				So(c2.ID, ShouldBeEmpty)

				log, lerr := st.ListComparisons(ctx, "alice", "fun")
				So(lerr, ShouldBeNil)
				So(log, ShouldHaveLength, 1)
			})
		})

		Convey("When querying scores for an unknown dimension", func() {
			_, err := svc.DimensionScores(ctx, "alice", "artwork")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, app.ErrUnknownDimension), ShouldBeTrue)
			})
		})
	})
}

func TestService_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := app.New(app.WithDimensions(testDimensions()))
		ctx := context.Background()

		Convey("When requesting a pair", func() {
			_, _, err := svc.NextPair(ctx, "alice", "fun")

			Convey("Then it should report not started", func() {
				So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When submitting a comparison", func() {
			_, _, err := svc.SubmitComparison(ctx, app.Submission{
				UserID: "alice", DimensionID: "fun",
				ItemAID: "azul", ItemBID: "catan", ChosenItemID: "azul",
			})

			Convey("Then it should report not started", func() {
				So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When reading derived state", func() {
			_, rankErr := svc.Ranking(ctx, "alice")
			_, scoreErr := svc.Scores(ctx, "alice")

			Convey("Then both reads should report not started", func() {
				So(errors.Is(rankErr, app.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(scoreErr, app.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When requesting a resync", func() {
			Convey("Then the job should be rejected", func() {
				So(svc.Resync(ctx, "alice"), ShouldBeFalse)
			})
		})
	})
}

func TestService_ConcurrentSubmissions(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a started service with a seeded collection", t, func() {
		svc, st := newEngine(t, t0)
		seedCollection(t, svc, "alice", "catan", "azul", "wingspan")
		ctx := context.Background()

		Convey("When many goroutines submit into one user and dimension", func() {
			const submitters = 16

			var wg sync.WaitGroup
			errs := make(chan error, submitters)
			for i := 0; i < submitters; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					chosen := "azul"
					if i%2 == 0 {
						chosen = "catan"
					}
					_, _, err := svc.SubmitComparison(ctx, app.Submission{
						SubmissionID: fmt.Sprintf("sub-%d", i),
						UserID:       "alice",
						DimensionID:  "fun",
						ItemAID:      "azul",
						ItemBID:      "catan",
						ChosenItemID: chosen,
					})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then every submission should succeed", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
			})

			Convey("And the stored scores should equal a single recompute of the final log", func() {
				log, err := st.ListComparisons(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(log, ShouldHaveLength, submitters)

				expected := scoring.Recompute(t0, log)
				rows, err := st.ListDimensionScores(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, len(expected.Scores))
				for _, row := range rows {
					want := expected.Scores[row.ItemID]
					So(row.Score, ShouldEqual, want.Score)
					So(row.Frequency, ShouldEqual, want.Frequency)
				}
			})

			Convey("And the ranking should be a dense permutation of the collection", func() {
				entries, err := svc.Ranking(ctx, "alice")
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				for i, e := range entries {
					So(e.Position, ShouldEqual, i+1)
					if i > 0 {
						So(e.Score, ShouldBeLessThanOrEqualTo, entries[i-1].Score)
					}
				}
			})
		})
	})
}

func TestService_RebuildUser(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a service with recorded comparisons", t, func() {
		svc, st := newEngine(t, t0)
		seedCollection(t, svc, "alice", "catan", "azul", "wingspan")
		ctx := context.Background()

		_, _, err := svc.SubmitComparison(ctx, app.Submission{
			UserID: "alice", DimensionID: "fun",
			ItemAID: "azul", ItemBID: "catan", ChosenItemID: "azul",
		})
		So(err, ShouldBeNil)

		before, err := svc.Ranking(ctx, "alice")
		So(err, ShouldBeNil)

		Convey("When rebuilding the user's derived state", func() {
			So(svc.RebuildUser(ctx, "alice"), ShouldBeNil)

			Convey("Then the ranking should be unchanged", func() {
				after, rerr := svc.Ranking(ctx, "alice")
				So(rerr, ShouldBeNil)
				So(after, ShouldResemble, before)
			})

			Convey("And rebuilding again should be safe", func() {
				So(svc.RebuildUser(ctx, "alice"), ShouldBeNil)
				scores, serr := st.ListScores(ctx, "alice")
				So(serr, ShouldBeNil)
				So(scores, ShouldHaveLength, 2)
			})
		})
	})
}

func TestService_Resync(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a started service", t, func() {
		svc, _ := newEngine(t, t0)

		Convey("When requesting a resync", func() {
			accepted := svc.Resync(context.Background(), "alice")

			Convey("Then the job should be accepted", func() {
				So(accepted, ShouldBeTrue)
			})
		})
	})
}

func TestService_Catalog(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a started service", t, func() {
		svc, _ := newEngine(t, t0)
		ctx := context.Background()

		Convey("When adding and reading back a game", func() {
			g := model.Game{ID: "catan", Name: "Catan", YearPublished: 1995, Complexity: 2.3}
			So(svc.AddGame(ctx, g), ShouldBeNil)

			got, err := svc.Game(ctx, "catan")

			Convey("Then the catalog entry should round-trip", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, g)
			})
		})

		Convey("When reading an unknown game", func() {
			_, err := svc.Game(ctx, "nope")

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When building a collection", func() {
			seedCollection(t, svc, "alice", "catan", "azul")
			items, err := svc.Collection(ctx, "alice")

			Convey("Then the collection should list the item IDs", func() {
				So(err, ShouldBeNil)
				So(items, ShouldResemble, []string{"catan", "azul"})
			})
		})
	})
}
