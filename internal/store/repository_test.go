// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/newsrec/internal/recommend"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// forEachRepository runs fn against every Repository implementation.
func forEachRepository(t *testing.T, fn func(t *testing.T, repo recommend.Repository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		repo := NewMemoryRepository()
		t.Cleanup(func() { _ = repo.Close() })
		fn(t, repo)
	})

	t.Run("badger", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultBadgerConfig()
		cfg.Path = t.TempDir()
		cfg.SyncWrites = false
		repo, err := OpenBadger(cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("OpenBadger: %v", err)
		}
		t.Cleanup(func() { _ = repo.Close() })
		fn(t, repo)
	})
}

func seedItems(t *testing.T, repo recommend.Repository, items ...recommend.Item) []recommend.Item {
	t.Helper()
	var out []recommend.Item
	err := repo.Update(context.Background(), func(tx recommend.Tx) error {
		for _, it := range items {
			created, err := tx.CreateItem(it)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed items: %v", err)
	}
	return out
}

func TestRepository_Items(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		items := seedItems(t, repo,
			recommend.Item{Category: recommend.CategorySports, Title: "old", PublishedAt: baseTime.Add(-100 * time.Hour)},
			recommend.Item{Category: recommend.CategoryPolitics, Title: "mid", PublishedAt: baseTime.Add(-10 * time.Hour)},
			recommend.Item{Category: recommend.CategoryScience, Title: "new", PublishedAt: baseTime.Add(-1 * time.Hour)},
		)

		for i, it := range items {
			if it.ID != int64(i+1) {
				t.Errorf("item %d id = %d, want %d", i, it.ID, i+1)
			}
		}

		err := repo.View(ctx, func(tx recommend.Tx) error {
			got, err := tx.GetItem(items[1].ID)
			if err != nil {
				return err
			}
			if got.Title != "mid" || got.Category != recommend.CategoryPolitics {
				t.Errorf("GetItem = %+v", got)
			}

			if _, err := tx.GetItem(999); !errors.Is(err, recommend.ErrNotFound) {
				t.Errorf("GetItem(999) error = %v, want ErrNotFound", err)
			}

			since, err := tx.ItemsSince(baseTime.Add(-72*time.Hour), recommend.ItemSet{items[2].ID: {}})
			if err != nil {
				return err
			}
			if len(since) != 1 || since[0].ID != items[1].ID {
				t.Errorf("ItemsSince = %+v, want only item %d", since, items[1].ID)
			}

			latest, err := tx.LatestItems(2, nil)
			if err != nil {
				return err
			}
			if len(latest) != 2 || latest[0].ID != items[2].ID || latest[1].ID != items[1].ID {
				t.Errorf("LatestItems = %+v, want newest two", latest)
			}

			all, err := tx.AllItems()
			if err != nil {
				return err
			}
			if len(all) != 3 || all[0].ID != 1 || all[2].ID != 3 {
				t.Errorf("AllItems = %+v", all)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View: %v", err)
		}
	})
}

func TestRepository_IncrementItemCounters(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		items := seedItems(t, repo, recommend.Item{Category: recommend.CategorySports, PublishedAt: baseTime})

		for i := 0; i < 3; i++ {
			err := repo.Update(ctx, func(tx recommend.Tx) error {
				return tx.IncrementItemCounters(items[0].ID, 1, 1)
			})
			if err != nil {
				t.Fatalf("IncrementItemCounters: %v", err)
			}
		}

		err := repo.Update(ctx, func(tx recommend.Tx) error {
			return tx.IncrementItemCounters(404, 1, 1)
		})
		if !errors.Is(err, recommend.ErrNotFound) {
			t.Errorf("increment unknown item error = %v, want ErrNotFound", err)
		}

		_ = repo.View(ctx, func(tx recommend.Tx) error {
			it, err := tx.GetItem(items[0].ID)
			if err != nil {
				t.Fatalf("GetItem: %v", err)
			}
			if it.ShownCount != 3 || it.ReactionCount != 3 {
				t.Errorf("counters = %d/%d, want 3/3", it.ShownCount, it.ReactionCount)
			}
			return nil
		})
	})
}

func TestRepository_Scores(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		const user = int64(7)

		err := repo.View(ctx, func(tx recommend.Tx) error {
			_, ok, err := tx.ScoresComputedAt(user)
			if err != nil {
				return err
			}
			if ok {
				t.Error("computed-at present before any recompute")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		first := []recommend.ScoredCandidate{
			{UserID: user, ItemID: 1, Score: 0.4},
			{UserID: user, ItemID: 2, Score: 0.9},
			{UserID: user, ItemID: 3, Score: 0.6},
			{UserID: user, ItemID: 4, Score: -0.1},
		}
		err = repo.Update(ctx, func(tx recommend.Tx) error {
			return tx.ReplaceScores(user, first, baseTime)
		})
		if err != nil {
			t.Fatalf("ReplaceScores: %v", err)
		}

		_ = repo.View(ctx, func(tx recommend.Tx) error {
			top, err := tx.TopScores(user, 3)
			if err != nil {
				t.Fatalf("TopScores: %v", err)
			}
			want := []int64{2, 3, 1}
			if len(top) != len(want) {
				t.Fatalf("TopScores len = %d, want %d", len(top), len(want))
			}
			for i, id := range want {
				if top[i].ItemID != id {
					t.Errorf("TopScores[%d] = %d, want %d", i, top[i].ItemID, id)
				}
			}
			return nil
		})

		// Replacement is wholesale, even with an empty set.
		later := baseTime.Add(time.Hour)
		err = repo.Update(ctx, func(tx recommend.Tx) error {
			return tx.ReplaceScores(user, nil, later)
		})
		if err != nil {
			t.Fatalf("ReplaceScores(empty): %v", err)
		}
		_ = repo.View(ctx, func(tx recommend.Tx) error {
			top, _ := tx.TopScores(user, 10)
			if len(top) != 0 {
				t.Errorf("rows survived replacement: %+v", top)
			}
			at, ok, _ := tx.ScoresComputedAt(user)
			if !ok || !at.Equal(later) {
				t.Errorf("computed-at = %v (%v), want %v", at, ok, later)
			}
			return nil
		})
	})
}

func TestRepository_UpdateRollsBack(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		items := seedItems(t, repo, recommend.Item{Category: recommend.CategorySports, PublishedAt: baseTime})
		boom := errors.New("boom")

		err := repo.Update(ctx, func(tx recommend.Tx) error {
			if err := tx.UpsertPreference(recommend.PreferenceWeight{UserID: 1, Category: recommend.CategorySports, Weight: 0.9}); err != nil {
				return err
			}
			if err := tx.AppendInteraction(recommend.Interaction{ID: "a", UserID: 1, ItemID: items[0].ID, CreatedAt: baseTime}); err != nil {
				return err
			}
			if err := tx.IncrementItemCounters(items[0].ID, 1, 1); err != nil {
				return err
			}
			if err := tx.ReplaceScores(1, []recommend.ScoredCandidate{{ItemID: items[0].ID, Score: 1}}, baseTime); err != nil {
				return err
			}
			if err := tx.PutStats(recommend.UserStats{UserID: 1, TotalShown: 1}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update error = %v, want boom", err)
		}

		_ = repo.View(ctx, func(tx recommend.Tx) error {
			prefs, _ := tx.Preferences(1)
			if len(prefs) != 0 {
				t.Errorf("preferences survived rollback: %+v", prefs)
			}
			seen, _ := tx.SeenItems(1)
			if len(seen) != 0 {
				t.Errorf("seen items survived rollback: %+v", seen)
			}
			inter, _ := tx.Interactions(1, 0)
			if len(inter) != 0 {
				t.Errorf("interactions survived rollback: %+v", inter)
			}
			it, _ := tx.GetItem(items[0].ID)
			if it.ShownCount != 0 {
				t.Errorf("item counters survived rollback: %+v", it)
			}
			if _, ok, _ := tx.ScoresComputedAt(1); ok {
				t.Error("scores survived rollback")
			}
			stats, _ := tx.GetStats(1)
			if stats.TotalShown != 0 {
				t.Errorf("stats survived rollback: %+v", stats)
			}
			return nil
		})
	})
}

func TestRepository_InteractionsAndSeen(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		err := repo.Update(ctx, func(tx recommend.Tx) error {
			for i, item := range []int64{10, 11, 10} {
				if err := tx.AppendInteraction(recommend.Interaction{
					ID:        string(rune('a' + i)),
					UserID:    3,
					ItemID:    item,
					Reaction:  recommend.ReactionLike,
					CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("AppendInteraction: %v", err)
		}

		_ = repo.View(ctx, func(tx recommend.Tx) error {
			seen, err := tx.SeenItems(3)
			if err != nil {
				t.Fatalf("SeenItems: %v", err)
			}
			if len(seen) != 2 || !seen.Has(10) || !seen.Has(11) {
				t.Errorf("SeenItems = %v", seen)
			}

			recent, err := tx.Interactions(3, 2)
			if err != nil {
				t.Fatalf("Interactions: %v", err)
			}
			if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
				t.Errorf("Interactions(limit 2) = %+v, want newest first", recent)
			}

			other, _ := tx.SeenItems(4)
			if len(other) != 0 {
				t.Errorf("seen items leaked across users: %v", other)
			}
			return nil
		})
	})
}

func TestRepository_PreferencesAndStats(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		err := repo.Update(ctx, func(tx recommend.Tx) error {
			if err := tx.UpsertPreference(recommend.PreferenceWeight{UserID: 5, Category: recommend.CategorySports, Weight: 0.8}); err != nil {
				return err
			}
			if err := tx.UpsertPreference(recommend.PreferenceWeight{UserID: 5, Category: recommend.CategorySports, Weight: 0.85}); err != nil {
				return err
			}
			return tx.UpsertPreference(recommend.PreferenceWeight{UserID: 6, Category: recommend.CategoryTravel, Weight: 0.1})
		})
		if err != nil {
			t.Fatalf("UpsertPreference: %v", err)
		}

		_ = repo.View(ctx, func(tx recommend.Tx) error {
			prefs, _ := tx.Preferences(5)
			if len(prefs) != 1 || prefs[recommend.CategorySports].Weight != 0.85 {
				t.Errorf("Preferences(5) = %+v", prefs)
			}
			stats, _ := tx.GetStats(5)
			if stats.UserID != 5 || stats.TotalShown != 0 {
				t.Errorf("GetStats default = %+v", stats)
			}
			return nil
		})

		err = repo.Update(ctx, func(tx recommend.Tx) error {
			return tx.DeletePreferences(5)
		})
		if err != nil {
			t.Fatalf("DeletePreferences: %v", err)
		}
		_ = repo.View(ctx, func(tx recommend.Tx) error {
			if prefs, _ := tx.Preferences(5); len(prefs) != 0 {
				t.Errorf("preferences not deleted: %+v", prefs)
			}
			if prefs, _ := tx.Preferences(6); len(prefs) != 1 {
				t.Errorf("other user's preferences deleted: %+v", prefs)
			}
			return nil
		})
	})
}

func TestRepository_Users(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		err := repo.Update(ctx, func(tx recommend.Tx) error {
			for _, id := range []int64{3, 1, 2} {
				if err := tx.PutUser(recommend.User{ID: id, Interests: []recommend.Category{recommend.CategoryHealth}}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("PutUser: %v", err)
		}

		_ = repo.View(ctx, func(tx recommend.Tx) error {
			users, err := tx.ListUsers()
			if err != nil {
				t.Fatalf("ListUsers: %v", err)
			}
			if len(users) != 3 || users[0].ID != 1 || users[2].ID != 3 {
				t.Errorf("ListUsers = %+v", users)
			}
			if _, err := tx.GetUser(42); !errors.Is(err, recommend.ErrNotFound) {
				t.Errorf("GetUser(42) error = %v, want ErrNotFound", err)
			}
			return nil
		})
	})
}

func TestRepository_ReadOnlyAndClosed(t *testing.T) {
	t.Parallel()

	forEachRepository(t, func(t *testing.T, repo recommend.Repository) {
		ctx := context.Background()
		err := repo.View(ctx, func(tx recommend.Tx) error {
			return tx.PutStats(recommend.UserStats{UserID: 1})
		})
		if !errors.Is(err, ErrReadOnly) {
			t.Errorf("write in View error = %v, want ErrReadOnly", err)
		}

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		if err := repo.Update(canceled, func(recommend.Tx) error { return nil }); !errors.Is(err, context.Canceled) {
			t.Errorf("Update(canceled) error = %v, want context.Canceled", err)
		}

		if err := repo.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := repo.View(ctx, func(recommend.Tx) error { return nil }); !errors.Is(err, ErrClosed) {
			t.Errorf("View after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestBadgerRepository_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	cfg := DefaultBadgerConfig()
	cfg.Path = t.TempDir()
	cfg.SyncWrites = false

	repo, err := OpenBadger(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	seedItems(t, repo, recommend.Item{Category: recommend.CategoryClimate, Title: "kept", PublishedAt: baseTime})
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	repo, err = OpenBadger(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	created := seedItems(t, repo, recommend.Item{Category: recommend.CategoryClimate, Title: "second", PublishedAt: baseTime})
	if created[0].ID != 2 {
		t.Errorf("id sequence restarted: got %d, want 2", created[0].ID)
	}
	_ = repo.View(context.Background(), func(tx recommend.Tx) error {
		it, err := tx.GetItem(1)
		if err != nil || it.Title != "kept" {
			t.Errorf("GetItem(1) = %+v, %v", it, err)
		}
		return nil
	})

	if err := repo.RunGC(context.Background()); err != nil {
		t.Errorf("RunGC: %v", err)
	}
}

func openTestBadger(t *testing.T, conflictRetries int) *BadgerRepository {
	t.Helper()
	cfg := DefaultBadgerConfig()
	cfg.Path = t.TempDir()
	cfg.SyncWrites = false
	cfg.ConflictRetries = conflictRetries
	repo, err := OpenBadger(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// conflictingIncrement runs an Update that reads the item, lets a second
// writer commit an increment of the same item, and only then writes its
// own increment. It returns how often the closure ran and the error.
func conflictingIncrement(t *testing.T, repo *BadgerRepository, itemID int64) (int, error) {
	t.Helper()
	ctx := context.Background()
	read := make(chan struct{})
	committed := make(chan struct{})

	runs := 0
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		err = repo.Update(ctx, func(tx recommend.Tx) error {
			runs++
			if _, err := tx.GetItem(itemID); err != nil {
				return err
			}
			if runs == 1 {
				close(read)
				<-committed
			}
			return tx.IncrementItemCounters(itemID, 1, 1)
		})
	}()

	<-read
	if err := repo.Update(ctx, func(tx recommend.Tx) error {
		return tx.IncrementItemCounters(itemID, 1, 1)
	}); err != nil {
		t.Fatalf("competing Update: %v", err)
	}
	close(committed)
	<-done
	return runs, err
}

func TestBadgerRepository_UpdateRetriesConflicts(t *testing.T) {
	t.Parallel()

	repo := openTestBadger(t, 3)
	items := seedItems(t, repo, recommend.Item{Category: recommend.CategorySports, PublishedAt: baseTime})

	runs, err := conflictingIncrement(t, repo, items[0].ID)
	if err != nil {
		t.Fatalf("Update after conflict: %v", err)
	}
	if runs != 2 {
		t.Errorf("closure ran %d times, want 2", runs)
	}

	_ = repo.View(context.Background(), func(tx recommend.Tx) error {
		it, err := tx.GetItem(items[0].ID)
		if err != nil {
			t.Errorf("GetItem: %v", err)
			return nil
		}
		if it.ShownCount != 2 || it.ReactionCount != 2 {
			t.Errorf("counters = %d/%d, want 2/2", it.ShownCount, it.ReactionCount)
		}
		return nil
	})
}

func TestBadgerRepository_ConflictWithoutRetries(t *testing.T) {
	t.Parallel()

	repo := openTestBadger(t, 0)
	items := seedItems(t, repo, recommend.Item{Category: recommend.CategorySports, PublishedAt: baseTime})

	runs, err := conflictingIncrement(t, repo, items[0].ID)
	if !errors.Is(err, badger.ErrConflict) {
		t.Errorf("error = %v, want badger.ErrConflict", err)
	}
	if runs != 1 {
		t.Errorf("closure ran %d times, want 1", runs)
	}
}

func TestBadgerRepository_ConcurrentReactionsAcrossUsers(t *testing.T) {
	t.Parallel()

	repo := openTestBadger(t, 50)
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx := context.Background()
	const users, perUser = 12, 20
	var items []recommend.Item
	for i := 0; i < perUser; i++ {
		it, err := engine.AddItem(ctx, recommend.Item{
			Category:    recommend.CategorySports,
			Title:       "Cup final",
			Content:     "Extra time decided the match.",
			PublishedAt: time.Now().Add(-time.Hour),
		})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		items = append(items, it)
	}
	for u := int64(1); u <= users; u++ {
		if _, err := engine.RegisterUser(ctx, u, "", []recommend.Category{recommend.CategorySports}); err != nil {
			t.Fatalf("RegisterUser(%d): %v", u, err)
		}
	}

	var wg sync.WaitGroup
	for u := int64(1); u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for _, it := range items {
				if err := engine.React(ctx, userID, it.ID, recommend.ReactionLike, 0); err != nil {
					t.Errorf("user %d React(%d): %v", userID, it.ID, err)
				}
				if _, err := engine.Recommend(ctx, userID, 3, 0); err != nil {
					t.Errorf("user %d Recommend: %v", userID, err)
				}
			}
		}(u)
	}
	wg.Wait()

	_ = repo.View(ctx, func(tx recommend.Tx) error {
		for _, it := range items {
			got, err := tx.GetItem(it.ID)
			if err != nil {
				t.Errorf("GetItem(%d): %v", it.ID, err)
				continue
			}
			if got.ReactionCount != users || got.ShownCount != users {
				t.Errorf("item %d counters = %d/%d, want %d/%d", it.ID, got.ShownCount, got.ReactionCount, users, users)
			}
		}
		for u := int64(1); u <= users; u++ {
			if stats, err := tx.GetStats(u); err != nil || stats.TotalReactions != perUser {
				t.Errorf("user %d stats = %+v, %v", u, stats, err)
			}
		}
		return nil
	})
}

func TestDescScoreBytesOrdering(t *testing.T) {
	t.Parallel()

	scores := []float64{1.2, 0.9, 0.5, 0.0001, 0, -0.05, -0.2}
	for i := 1; i < len(scores); i++ {
		hi, lo := descScoreBytes(scores[i-1]), descScoreBytes(scores[i])
		if string(hi) >= string(lo) {
			t.Errorf("encoding of %f should sort before %f", scores[i-1], scores[i])
		}
	}
}
