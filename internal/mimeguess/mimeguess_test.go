package mimeguess

import "testing"

func TestByExtensionKnownTypes(t *testing.T) {
	cases := map[string]string{
		"index.html": "text/html",
		"data.json":  "application/json",
		"style.css":  "text/css",
	}
	for path, want := range cases {
		got := ByExtension(path)
		if got != want {
			t.Errorf("ByExtension(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestByExtensionUnknownReturnsEmpty(t *testing.T) {
	if got := ByExtension("mystery.zzzzz"); got != "" {
		t.Errorf("ByExtension(unknown) = %q, want empty", got)
	}
}

func TestByExtensionNoExtensionReturnsEmpty(t *testing.T) {
	if got := ByExtension("Makefile"); got != "" {
		t.Errorf("ByExtension(no ext) = %q, want empty", got)
	}
}
