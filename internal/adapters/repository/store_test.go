package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	repository "github.com/okian/meeplerank/internal/adapters/repository"
	model "github.com/okian/meeplerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// The two Store implementations must be observably interchangeable, so the
// same scenarios run against both.

func TestMemStore(t *testing.T) {
	runStoreSuite(t, "MemStore", func() repository.Store {
		return repository.NewMemStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, "SQLiteStore", func() repository.Store {
		st, err := repository.OpenSQLiteMemory()
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return st
	})
}

func runStoreSuite(t *testing.T, name string, newStore func() repository.Store) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	seedGames := func(st repository.Store, ids ...string) {
		for _, id := range ids {
			So(st.PutGame(ctx, model.Game{ID: id, Name: "Game " + id}), ShouldBeNil)
		}
	}

	cmp := func(id, a, b, chosen string, at time.Time) model.Comparison {
		return model.Comparison{
			ID: id, UserID: "alice", DimensionID: "fun",
			ItemAID: a, ItemBID: b, ChosenItemID: chosen, At: at,
		}
	}

	Convey("Given a fresh "+name, t, func() {
		st := newStore()
		defer st.Close()

		Convey("When managing the game catalog", func() {
			g := model.Game{
				ID: "catan", Name: "Catan", YearPublished: 1995,
				MinPlayers: 3, MaxPlayers: 4, Playtime: "90 min", Complexity: 2.3,
			}
			So(st.PutGame(ctx, g), ShouldBeNil)

			Convey("Then the entry should read back intact", func() {
				got, err := st.GetGame(ctx, "catan")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, g)
			})

			Convey("Then an unknown ID should return ErrNotFound", func() {
				_, err := st.GetGame(ctx, "missing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And putting the same ID again should update in place", func() {
				g.Name = "Catan (rev)"
				So(st.PutGame(ctx, g), ShouldBeNil)

				got, err := st.GetGame(ctx, "catan")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Catan (rev)")

				games, err := st.ListGames(ctx)
				So(err, ShouldBeNil)
				So(games, ShouldHaveLength, 1)
			})

			Convey("And listing should order by ID", func() {
				seedGames(st, "uno", "azul")
				games, err := st.ListGames(ctx)
				So(err, ShouldBeNil)
				So(games, ShouldHaveLength, 3)
				So(games[0].ID, ShouldEqual, "azul")
				So(games[1].ID, ShouldEqual, "catan")
				So(games[2].ID, ShouldEqual, "uno")
			})
		})

		Convey("When managing collections", func() {
			seedGames(st, "catan", "uno")

			Convey("Then adding a cataloged item should succeed", func() {
				So(st.AddToCollection(ctx, "alice", "catan"), ShouldBeNil)
				items, err := st.ListCollection(ctx, "alice")
				So(err, ShouldBeNil)
				So(items, ShouldResemble, []string{"catan"})
			})

			Convey("Then adding an uncataloged item should fail", func() {
				err := st.AddToCollection(ctx, "alice", "ghost")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then membership should be a set", func() {
				So(st.AddToCollection(ctx, "alice", "catan"), ShouldBeNil)
				So(st.AddToCollection(ctx, "alice", "catan"), ShouldBeNil)
				items, err := st.ListCollection(ctx, "alice")
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 1)
			})

			Convey("Then collections should be per user", func() {
				So(st.AddToCollection(ctx, "alice", "catan"), ShouldBeNil)
				So(st.AddToCollection(ctx, "bob", "uno"), ShouldBeNil)

				alice, err := st.ListCollection(ctx, "alice")
				So(err, ShouldBeNil)
				So(alice, ShouldResemble, []string{"catan"})

				bob, err := st.ListCollection(ctx, "bob")
				So(err, ShouldBeNil)
				So(bob, ShouldResemble, []string{"uno"})
			})

			Convey("Then an empty collection should list as empty", func() {
				items, err := st.ListCollection(ctx, "nobody")
				So(err, ShouldBeNil)
				So(items, ShouldBeEmpty)
			})
		})

		Convey("When appending comparisons", func() {
			c1 := cmp("c1", "catan", "uno", "catan", at)
			c2 := cmp("c2", "uno", "azul", model.Tie, at.Add(time.Hour))
			So(st.AppendComparison(ctx, c1), ShouldBeNil)
			So(st.AppendComparison(ctx, c2), ShouldBeNil)

			Convey("Then the log should list most recent first", func() {
				log, err := st.ListComparisons(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(log, ShouldHaveLength, 2)
				So(log[0].ID, ShouldEqual, "c2")
				So(log[1].ID, ShouldEqual, "c1")
			})

			Convey("Then the log should be scoped to (user, dimension)", func() {
				other := cmp("c3", "catan", "uno", "uno", at)
				other.DimensionID = "depth"
				So(st.AppendComparison(ctx, other), ShouldBeNil)

				bobs := cmp("c4", "catan", "uno", "uno", at)
				bobs.UserID = "bob"
				So(st.AppendComparison(ctx, bobs), ShouldBeNil)

				log, err := st.ListComparisons(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(log, ShouldHaveLength, 2)
			})

			Convey("Then stats should count both sides of each comparison", func() {
				stats, err := st.ComparisonStats(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(stats["catan"].Comparisons, ShouldEqual, 1)
				So(stats["uno"].Comparisons, ShouldEqual, 2)
				So(stats["azul"].Comparisons, ShouldEqual, 1)
			})

			Convey("Then stats should track the latest comparison time per item", func() {
				stats, err := st.ComparisonStats(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(stats["uno"].LastCompared.Equal(at.Add(time.Hour)), ShouldBeTrue)
				So(stats["catan"].LastCompared.Equal(at), ShouldBeTrue)
			})

			Convey("Then stats for an unseen key should be empty", func() {
				stats, err := st.ComparisonStats(ctx, "bob", "fun")
				So(err, ShouldBeNil)
				So(stats, ShouldBeEmpty)
			})
		})

		Convey("When replacing dimension scores", func() {
			first := []model.AdjustedScore{
				{UserID: "alice", ItemID: "catan", DimensionID: "fun", Score: 10, Frequency: 3},
				{UserID: "alice", ItemID: "uno", DimensionID: "fun", Score: 1, Frequency: 3},
			}
			So(st.ReplaceDimensionScores(ctx, "alice", "fun", first), ShouldBeNil)

			Convey("Then the rows should read back", func() {
				rows, err := st.ListDimensionScores(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
			})

			Convey("And a second replace should drop rows absent from the new set", func() {
				second := []model.AdjustedScore{
					{UserID: "alice", ItemID: "catan", DimensionID: "fun", Score: 5.5, Frequency: 4},
				}
				So(st.ReplaceDimensionScores(ctx, "alice", "fun", second), ShouldBeNil)

				rows, err := st.ListDimensionScores(ctx, "alice", "fun")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].ItemID, ShouldEqual, "catan")
				So(rows[0].Score, ShouldEqual, 5.5)
			})

			Convey("And replacing one dimension should not touch another", func() {
				depth := []model.AdjustedScore{
					{UserID: "alice", ItemID: "catan", DimensionID: "depth", Score: 7, Frequency: 1},
				}
				So(st.ReplaceDimensionScores(ctx, "alice", "depth", depth), ShouldBeNil)
				So(st.ReplaceDimensionScores(ctx, "alice", "fun", nil), ShouldBeNil)

				rows, err := st.ListDimensionScores(ctx, "alice", "depth")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
			})

			Convey("And ListScores should span dimensions", func() {
				depth := []model.AdjustedScore{
					{UserID: "alice", ItemID: "catan", DimensionID: "depth", Score: 7, Frequency: 1},
				}
				So(st.ReplaceDimensionScores(ctx, "alice", "depth", depth), ShouldBeNil)

				all, err := st.ListScores(ctx, "alice")
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 3)
			})
		})

		Convey("When replacing rankings", func() {
			first := []model.RankEntry{
				{ItemID: "catan", Score: 8.0, Position: 1},
				{ItemID: "uno", Score: 3.0, Position: 2},
			}
			So(st.ReplaceRanking(ctx, "alice", first), ShouldBeNil)

			Convey("Then the ranking should read back in position order", func() {
				got, err := st.GetRanking(ctx, "alice")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, first)
			})

			Convey("And a replace should fully supersede the old ranking", func() {
				second := []model.RankEntry{
					{ItemID: "azul", Score: 9.0, Position: 1},
				}
				So(st.ReplaceRanking(ctx, "alice", second), ShouldBeNil)

				got, err := st.GetRanking(ctx, "alice")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, second)
			})

			Convey("And an unknown user should have an empty ranking", func() {
				got, err := st.GetRanking(ctx, "bob")
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestMemStoreClosed(t *testing.T) {
	Convey("Given a closed MemStore", t, func() {
		st := repository.NewMemStore()
		So(st.Close(), ShouldBeNil)

		Convey("Then writes should fail with ErrClosed", func() {
			err := st.AppendComparison(context.Background(), model.Comparison{ID: "c1"})
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})

		Convey("And closing again should be a no-op", func() {
			So(st.Close(), ShouldBeNil)
		})
	})
}

func TestStoreLargeLog(t *testing.T) {
	Convey("Given a store with a long comparison history", t, func() {
		st := repository.NewMemStore()
		defer st.Close()
		ctx := context.Background()
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		for i := 0; i < 500; i++ {
			c := model.Comparison{
				ID: fmt.Sprintf("c%d", i), UserID: "alice", DimensionID: "fun",
				ItemAID: "catan", ItemBID: "uno", ChosenItemID: "catan",
				At: base.Add(time.Duration(i) * time.Minute),
			}
			So(st.AppendComparison(ctx, c), ShouldBeNil)
		}

		Convey("Then the full log should be returned newest first", func() {
			log, err := st.ListComparisons(ctx, "alice", "fun")
			So(err, ShouldBeNil)
			So(log, ShouldHaveLength, 500)
			So(log[0].ID, ShouldEqual, "c499")
			So(log[499].ID, ShouldEqual, "c0")
		})

		Convey("Then stats should aggregate the whole history", func() {
			stats, err := st.ComparisonStats(ctx, "alice", "fun")
			So(err, ShouldBeNil)
			So(stats["catan"].Comparisons, ShouldEqual, 500)
			So(stats["uno"].Comparisons, ShouldEqual, 500)
		})
	})
}
