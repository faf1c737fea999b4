package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testReceipt(i int) Receipt {
	return Receipt{
		ID:          fmt.Sprintf("r-%02d", i),
		Module:      "entry",
		Event:       "publish",
		APIKey:      "blt123",
		EntryUID:    fmt.Sprintf("entry-%d", i),
		TriggeredAt: baseTime.Add(time.Duration(i) * time.Second),
		ReceivedAt:  baseTime.Add(time.Duration(i) * time.Second),
		Payload:     []byte(fmt.Sprintf(`{"n":%d}`, i)),
	}
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestReceiptStores(t *testing.T) {
	t.Parallel()

	stores := []struct {
		name string
		open func(t *testing.T) ReceiptStore
	}{
		{
			name: "memory",
			open: func(t *testing.T) ReceiptStore {
				m := NewMemoryBackend()
				t.Cleanup(func() { _ = m.Close() })
				return m
			},
		},
		{
			name: "redis",
			open: func(t *testing.T) ReceiptStore {
				return &RedisBackend{client: newRedisClient(t)}
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) ReceiptStore {
				s, err := OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "receipts.db"))
				if err != nil {
					t.Fatalf("OpenSQLite() error = %v", err)
				}
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	}

	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			t.Parallel()

			store := st.open(t)
			ctx := t.Context()

			// insert out of order
			for _, i := range []int{3, 1, 4, 2, 5} {
				if err := store.Add(ctx, testReceipt(i)); err != nil {
					t.Fatalf("Add(%d) error = %v", i, err)
				}
			}

			tests := []struct {
				name    string
				since   time.Time
				limit   int
				wantIDs []string
			}{
				{name: "all", since: baseTime, limit: 10, wantIDs: []string{"r-01", "r-02", "r-03", "r-04", "r-05"}},
				{name: "strictly after since", since: baseTime.Add(2 * time.Second), limit: 10, wantIDs: []string{"r-03", "r-04", "r-05"}},
				{name: "limit", since: baseTime, limit: 2, wantIDs: []string{"r-01", "r-02"}},
				{name: "none", since: baseTime.Add(time.Hour), limit: 10, wantIDs: []string{}},
			}

			for _, tt := range tests {
				got, err := store.ListSince(ctx, tt.since, tt.limit)
				if err != nil {
					t.Fatalf("%s: ListSince() error = %v", tt.name, err)
				}
				ids := make([]string, 0, len(got))
				for _, r := range got {
					ids = append(ids, r.ID)
				}
				if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
					t.Errorf("%s: ids mismatch (-want +got):\n%s", tt.name, diff)
				}
			}

			// receipts within one millisecond page one at a time
			burst := baseTime.Add(time.Minute)
			for i := range 3 {
				r := testReceipt(10 + i)
				r.ReceivedAt = burst.Add(time.Duration(i*250) * time.Microsecond)
				if err := store.Add(ctx, r); err != nil {
					t.Fatalf("Add(%s) error = %v", r.ID, err)
				}
			}
			var paged []string
			cursor := burst.Add(-time.Nanosecond)
			for range 5 {
				page, err := store.ListSince(ctx, cursor, 1)
				if err != nil {
					t.Fatalf("ListSince() error = %v", err)
				}
				if len(page) == 0 {
					break
				}
				paged = append(paged, page[0].ID)
				cursor = page[0].ReceivedAt
			}
			if diff := cmp.Diff([]string{"r-10", "r-11", "r-12"}, paged); diff != "" {
				t.Errorf("same millisecond paging mismatch (-want +got):\n%s", diff)
			}

			got, err := store.ListSince(ctx, baseTime.Add(4*time.Second), 1)
			if err != nil {
				t.Fatalf("ListSince() error = %v", err)
			}
			if diff := cmp.Diff([]Receipt{testReceipt(5)}, got); diff != "" {
				t.Errorf("receipt round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMemoryBackendEvictsOldest(t *testing.T) {
	t.Parallel()

	const capacity = 3
	m := NewMemoryBackend(WithMaxReceipts(capacity))
	t.Cleanup(func() { _ = m.Close() })

	for i := range 5 {
		if err := m.Add(t.Context(), testReceipt(i)); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
	}

	got, err := m.ListSince(t.Context(), time.Time{}, MaxListLimit)
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"r-02", "r-03", "r-04"}, ids); diff != "" {
		t.Errorf("kept receipts mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryBackendSubscribe(t *testing.T) {
	t.Parallel()

	m := NewMemoryBackend()
	t.Cleanup(func() { _ = m.Close() })

	ch, unsubscribe, err := m.Subscribe(t.Context())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := testReceipt(1)
	if err := m.Add(t.Context(), want); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	select {
	case got := <-ch:
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("receipt mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for receipt")
	}

	unsubscribe()
	if _, ok := <-ch; ok {
		t.Error("channel still open after unsubscribe")
	}
	unsubscribe()
}

func TestMemoryBackendSubscribeContextCancel(t *testing.T) {
	t.Parallel()

	m := NewMemoryBackend()
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	ch, unsubscribe, err := m.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received a receipt, want closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}

func TestRedisBackendSubscribe(t *testing.T) {
	t.Parallel()

	b := &RedisBackend{client: newRedisClient(t)}

	ch, unsubscribe, err := b.Subscribe(t.Context())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer unsubscribe()

	want := testReceipt(7)
	if err := b.Add(t.Context(), want); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	select {
	case got := <-ch:
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("receipt mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for receipt")
	}
}

func TestSQLiteRecent(t *testing.T) {
	t.Parallel()

	s, err := OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "receipts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	for i := 1; i <= 4; i++ {
		if err := s.Add(t.Context(), testReceipt(i)); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
	}

	got, err := s.Recent(t.Context(), 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if diff := cmp.Diff([]Receipt{testReceipt(4), testReceipt(3)}, got); diff != "" {
		t.Errorf("Recent() mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "receipts.db")

	s, err := OpenSQLite(t.Context(), path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Add(t.Context(), testReceipt(1)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(t.Context(), path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Recent(t.Context(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(Recent()) = %d, want 1", len(got))
	}
}
