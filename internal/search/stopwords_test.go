package search

import (
	"reflect"
	"testing"
)

func TestStopwordSet_Contains(t *testing.T) {
	s := NewStopwordSet("The", "of", "the")
	if !s.Contains("THE") || !s.Contains("of") {
		t.Error("members should match ignoring case")
	}
	if s.Contains("pond") {
		t.Error("pond is not a member")
	}
	if got := s.Words(); !reflect.DeepEqual(got, []string{"the", "of"}) {
		t.Errorf("Words = %q", got)
	}

	var nilSet *StopwordSet
	if nilSet.Contains("the") {
		t.Error("nil set contains nothing")
	}
}

func TestSnowballStopwords(t *testing.T) {
	s := NewSnowballStopwordSet()
	if !s.Contains("the") || !s.Contains("Because") {
		t.Error("snowball list should contain common stopwords")
	}
	if s.Contains("walden") {
		t.Error("walden is not a stopword")
	}
	if !StopwordSource("Snowball").Contains("themselves") {
		t.Error("source name should select snowball")
	}
	if StopwordSource("unknown").Contains("themselves") {
		t.Error("unknown source should fall back to the WordPress list")
	}
}

func TestWithReserved_AlwaysContainsReserved(t *testing.T) {
	bases := map[string]*StopwordSet{
		"wordpress": StopwordSource(SourceWordPress),
		"snowball":  StopwordSource(SourceSnowball),
		"empty":     NewStopwordSet(),
		"custom":    NewStopwordSet("thoreau"),
	}
	for name, base := range bases {
		t.Run(name, func(t *testing.T) {
			body := base.WithReserved("beanfield-2")
			for _, w := range ReservedWords {
				if !body.Contains(w) {
					t.Errorf("body set lacks reserved word %q", w)
				}
			}
			if !body.Contains("beanfield-2") {
				t.Error("extra reserved word missing")
			}
			for _, w := range base.Words() {
				if !body.Contains(w) {
					t.Errorf("base word %q lost", w)
				}
			}
		})
	}

	base := NewStopwordSet("woods")
	base.WithReserved()
	if base.Contains("class") {
		t.Error("WithReserved must not modify the receiver")
	}
}

func TestFilterReserved(t *testing.T) {
	body := NewStopwordSet(WordPressStopwords...).WithReserved()
	got := FilterReserved([]string{"walden pond", "class", "Span", "pond", "the"}, body)
	if !reflect.DeepEqual(got, []string{"walden pond", "pond"}) {
		t.Errorf("FilterReserved = %q", got)
	}
	if got := FilterReserved(nil, body); got == nil || len(got) != 0 {
		t.Errorf("empty input should give an empty slice, got %#v", got)
	}
}
