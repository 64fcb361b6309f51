// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *HTTPStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store, err := NewHTTPStore(HTTPConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestInsertPostsRecordAndReturnsStoredRow(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/bookings" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var record Record
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			t.Error(err)
		}
		record["server_stamp"] = "2026-06-01"
		json.NewEncoder(w).Encode(record)
	})

	stored, err := store.Insert(context.Background(), "bookings", Record{"id": "b1"})
	if err != nil {
		t.Fatal(err)
	}
	if stored["id"] != "b1" || stored["server_stamp"] != "2026-06-01" {
		t.Fatalf("stored = %v", stored)
	}
}

func TestUpdatePatchesByID(t *testing.T) {
	var gotPath, gotMethod string
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := store.Update(context.Background(), "bookings", "b1", Record{"seats": 3}); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/v1/bookings/b1" {
		t.Fatalf("got %s %s", gotMethod, gotPath)
	}
}

func TestQueryEncodesEqualityFilter(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("owner_id"); got != "u1" {
			t.Errorf("owner_id filter = %q", got)
		}
		json.NewEncoder(w).Encode([]Record{{"id": "b1"}})
	})

	rows, err := store.Query(context.Background(), "bookings", Filter{"owner_id": "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["id"] != "b1" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestErrorResponseDecodesToTypedError(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    CodeConflict,
			"message": "row exists",
		})
	})

	_, err := store.Insert(context.Background(), "bookings", Record{"id": "b1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsCode(err, CodeConflict) {
		t.Fatalf("IsCode(CodeConflict) false for %v", err)
	}
}

func TestUnparseableErrorBodyBecomesUnknownCode(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})

	_, err := store.Query(context.Background(), "bookings", nil)
	if !IsCode(err, CodeUnknown) {
		t.Fatalf("want CodeUnknown, got %v", err)
	}
}

func TestContextDeadlineSurfacesAsError(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Query(ctx, "bookings", nil); err == nil {
		t.Fatal("cancelled context produced no error")
	}
}
