package stopwords

import "testing"

func TestGetKnownLanguage(t *testing.T) {
	m := NewManager(nil)
	set := m.Get("eng")
	if set == nil {
		t.Fatal("expected english stopwords to load")
	}
	if _, ok := set["the"]; !ok {
		t.Fatal(`expected "the" to be a stopword`)
	}
}

func TestGetUnknownLanguageFallsBackToEnglish(t *testing.T) {
	m := NewManager(nil)
	set := m.Get("xyz")
	if set == nil {
		t.Fatal("expected a fallback to english")
	}
	if _, ok := set["the"]; !ok {
		t.Fatal("expected english fallback stopwords")
	}
}

func TestGetMergesCustomStopwords(t *testing.T) {
	m := NewManager(map[string]map[string]struct{}{
		"eng": {"foobar": {}},
	})
	set := m.Get("eng")
	if _, ok := set["foobar"]; !ok {
		t.Fatal("expected custom stopword to be merged in")
	}
	if _, ok := set["the"]; !ok {
		t.Fatal("expected default stopwords to still be present")
	}
}

func TestLanguagesListsEmbeddedFiles(t *testing.T) {
	langs := Languages()
	if len(langs) < 4 {
		t.Fatalf("expected at least 4 embedded languages, got %v", langs)
	}
}
