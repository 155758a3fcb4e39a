package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bramsey123/Deal-Scout/models"
)

func testStore(srvURL string) *AirtableStore {
	s := NewAirtableStore("appBase", "Deals", "secret-token", time.Millisecond)
	s.endpoint = srvURL + "/v0/appBase/Deals"
	return s
}

func TestAirtableInsert(t *testing.T) {
	var gotAuth string
	var gotBody airtableRecord

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"recNew"}`))
	}))
	defer srv.Close()

	err := testStore(srv.URL).Insert(context.Background(), map[string]string{
		"Source": "DealStream",
		"Title":  "ABC Plumbing",
		"Price":  "$120,000",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !gotBody.Typecast {
		t.Error("typecast should be enabled")
	}
	if gotBody.Fields["Title"] != "ABC Plumbing" || gotBody.Fields["Price"] != "$120,000" {
		t.Errorf("fields = %v", gotBody.Fields)
	}
}

func TestAirtableInsertRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"INVALID_REQUEST"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := testStore(srv.URL).Insert(context.Background(), map[string]string{"Title": "Bad"})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
}

func TestAirtableExists(t *testing.T) {
	var gotFormula string

	tests := []struct {
		name     string
		key      NaturalKey
		response string
		want     bool
		formula  string
	}{
		{
			"found by url",
			NaturalKey{URL: "https://dealstream.com/l/1"},
			`{"records":[{"id":"rec1"}]}`,
			true,
			`{URL}="https://dealstream.com/l/1"`,
		},
		{
			"not found",
			NaturalKey{URL: "https://dealstream.com/l/2"},
			`{"records":[]}`,
			false,
			`{URL}="https://dealstream.com/l/2"`,
		},
		{
			"found by source and title",
			NaturalKey{Source: "SBA-7a", Title: "Acme Machining"},
			`{"records":[{"id":"rec2"}]}`,
			true,
			`AND({Source}="SBA-7a",{Title}="Acme Machining")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotFormula = r.URL.Query().Get("filterByFormula")
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			got, err := testStore(srv.URL).Exists(context.Background(), tt.key)
			if err != nil {
				t.Fatalf("Exists: %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists = %v; want %v", got, tt.want)
			}
			if gotFormula != tt.formula {
				t.Errorf("formula = %q; want %q", gotFormula, tt.formula)
			}
		})
	}
}

func TestAirtableExistsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testStore(srv.URL).Exists(context.Background(), NaturalKey{URL: "x"}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestFormulaStringEscaping(t *testing.T) {
	got := formulaString(`He said "hi" \ bye`)
	want := `"He said \"hi\" \\ bye"`
	if got != want {
		t.Errorf("formulaString = %s; want %s", got, want)
	}
}

func TestKeyForPrefersURL(t *testing.T) {
	l := &models.Listing{Source: "DealStream", Title: "ABC", URL: "https://d.com/1"}
	key := KeyFor(l)
	if key.URL != "https://d.com/1" || key.Source != "" || key.Title != "" {
		t.Errorf("KeyFor with URL = %+v", key)
	}

	l.URL = ""
	key = KeyFor(l)
	if key.URL != "" || key.Source != "DealStream" || key.Title != "ABC" {
		t.Errorf("KeyFor without URL = %+v", key)
	}
}

func TestNaturalKeyStringDistinct(t *testing.T) {
	a := NaturalKey{Source: "X", Title: "A, B"}
	b := NaturalKey{Source: "X, A", Title: "B"}
	if a.String() == b.String() {
		t.Error("distinct keys must not collide")
	}
}
