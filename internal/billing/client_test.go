package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/septivank/usage-delta-worker/internal/billing"
	"go.uber.org/zap"
)

const testToken = "session-token-1"

// newTestAPI serves a login endpoint, a paged account listing and a
// per-account usage endpoint over the given usage counts.
func newTestAPI(t *testing.T, usages map[string]int64, pageRequests *int) *httptest.Server {
	t.Helper()

	ids := make([]string, 0, len(usages))
	for id := range usages {
		ids = append(ids, id)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if creds["username"] != "ak" || creds["password"] != "sk" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": testToken})
	})
	mux.HandleFunc("/cloud", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-redlock-auth") != testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if pageRequests != nil {
			*pageRequests++
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		page := []map[string]string{}
		for i := offset; i < len(ids) && i < offset+limit; i++ {
			page = append(page, map[string]string{"id": ids[i], "name": "account " + ids[i]})
		}
		json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/cloud/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-redlock-auth") != testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var id string
		fmt.Sscanf(r.URL.Path, "/cloud/%s", &id)
		id = id[:len(id)-len("/usage")]
		count, ok := usages[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]int64{"resourceCount": count})
	})

	return httptest.NewServer(mux)
}

func TestLogin_ReturnsToken(t *testing.T) {
	server := newTestAPI(t, nil, nil)
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "sk", 2, zap.NewNop())

	token, err := client.Login(context.Background())
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != testToken {
		t.Errorf("Expected token %q, got %q", testToken, token)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	server := newTestAPI(t, nil, nil)
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "wrong", 2, zap.NewNop())

	_, err := client.Login(context.Background())
	if !errors.Is(err, billing.ErrDataSource) {
		t.Errorf("Expected ErrDataSource, got %v", err)
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "sk", 2, zap.NewNop())

	_, err := client.Login(context.Background())
	if !errors.Is(err, billing.ErrDataSource) {
		t.Errorf("Expected ErrDataSource for missing token, got %v", err)
	}
}

func TestUsageIterator_PagesThroughAllAccounts(t *testing.T) {
	usages := map[string]int64{
		"acc-1": 100,
		"acc-2": 200,
		"acc-3": 150,
		"acc-4": 50,
		"acc-5": 15,
	}
	pageRequests := 0
	server := newTestAPI(t, usages, &pageRequests)
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "sk", 2, zap.NewNop())
	source := billing.NewSource(client)

	it, err := source.Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var total int64
	count := 0
	for {
		value, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		total += value
		count++
	}

	if count != 5 {
		t.Errorf("Expected 5 accounts, got %d", count)
	}
	if total != 515 {
		t.Errorf("Expected total 515, got %d", total)
	}
	// 5 accounts at page size 2: pages of 2, 2, 1; the short final page
	// terminates the listing.
	if pageRequests != 3 {
		t.Errorf("Expected 3 page requests, got %d", pageRequests)
	}
}

func TestUsageIterator_EmptyTenant(t *testing.T) {
	server := newTestAPI(t, map[string]int64{}, nil)
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "sk", 2, zap.NewNop())
	it := billing.NewUsageIterator(client, testToken)

	_, ok, err := it.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ok {
		t.Error("Expected exhausted iterator for empty tenant")
	}
}

func TestUsage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "sk", 2, zap.NewNop())

	_, err := client.Usage(context.Background(), testToken, "acc-1")
	if !errors.Is(err, billing.ErrDataSource) {
		t.Errorf("Expected ErrDataSource, got %v", err)
	}
}

func TestUsage_NegativeCountRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"resourceCount": -3})
	}))
	defer server.Close()

	client := billing.NewClient(server.URL, "ak", "sk", 2, zap.NewNop())

	_, err := client.Usage(context.Background(), testToken, "acc-1")
	if !errors.Is(err, billing.ErrDataSource) {
		t.Errorf("Expected ErrDataSource for negative count, got %v", err)
	}
}
