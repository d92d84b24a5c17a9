package remote

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestSurveyEntryDecode(t *testing.T) {
	var e SurveyEntry
	if err := json.Unmarshal([]byte(`{"Name":"Alice","Q1":"80%","Q2":"Easy"}`), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name != "Alice" {
		t.Fatalf("expected Alice, got %q", e.Name)
	}
	pairs := e.Pairs()
	if len(pairs) != 2 || pairs[0] != (Pair{Key: "Q1", Value: "80%"}) || pairs[1] != (Pair{Key: "Q2", Value: "Easy"}) {
		t.Fatalf("unexpected pairs %+v", pairs)
	}
}

func TestSurveyEntryPairsAreSorted(t *testing.T) {
	var e SurveyEntry
	if err := json.Unmarshal([]byte(`{"How hard?":"Hard","Name":"Bob","Any comments?":"none"}`), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, ok := e.FirstPair()
	if !ok || first.Key != "How hard?" {
		t.Fatalf("expected the first column in file order, got %+v", first)
	}
	pairs := e.Pairs()
	if pairs[0].Key != "Any comments?" || pairs[1].Key != "How hard?" {
		t.Fatalf("expected pairs sorted by label, got %+v", pairs)
	}
	if v, ok := e.Answer("How hard?"); !ok || v != "Hard" {
		t.Fatalf("unexpected answer %q", v)
	}
}

func TestSurveyEntryWithoutAnswers(t *testing.T) {
	var e SurveyEntry
	if err := json.Unmarshal([]byte(`{"Name":"Carol"}`), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := e.FirstPair(); ok {
		t.Fatal("expected no first pair")
	}
	if len(e.Pairs()) != 0 {
		t.Fatalf("expected no pairs, got %v", e.Pairs())
	}
}

func TestSurveyEntryNonStringValues(t *testing.T) {
	var e SurveyEntry
	if err := json.Unmarshal([]byte(`{"Name":"Dan","Score":7,"Skipped":null,"Label":"café"}`), &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := e.Answer("Score"); v != "7" {
		t.Fatalf("expected raw number text, got %q", v)
	}
	if v, ok := e.Answer("Skipped"); !ok || v != "" {
		t.Fatalf("expected empty answer for null, got %q", v)
	}
	if v, _ := e.Answer("Label"); v != "café" {
		t.Fatalf("expected unescaped string, got %q", v)
	}
}

func TestSurveyEntryRequiresName(t *testing.T) {
	var e SurveyEntry
	if err := json.Unmarshal([]byte(`{"Q1":"80%"}`), &e); err == nil {
		t.Fatal("expected an error for a row without a name")
	}
}

func TestSurveyEntryMarshal(t *testing.T) {
	e := NewSurveyEntry("Eve", Pair{"Q2", "b"}, Pair{"Q1", "a"})
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"Name":"Eve","Q2":"b","Q1":"a"}` {
		t.Fatalf("unexpected encoding %s", b)
	}
}
