package blacklist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilter_IsBlacklisted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		url      string
		want     bool
	}{
		{
			name:     "substring match",
			patterns: []string{"/logout"},
			url:      "https://www.example.com/account/logout?next=/",
			want:     true,
		},
		{
			name:     "match ignores case",
			patterns: []string{"/CART"},
			url:      "https://www.example.com/cart/add",
			want:     true,
		},
		{
			name:     "folded sigma matches",
			patterns: []string{"ΣΟΦΙΑ"},
			url:      "https://www.example.com/σοφια",
			want:     true,
		},
		{
			name:     "no pattern matches",
			patterns: []string{"/logout", "/admin"},
			url:      "https://www.example.com/blog",
			want:     false,
		},
		{
			name:     "empty filter never matches",
			patterns: nil,
			url:      "https://www.example.com/logout",
			want:     false,
		},
		{
			name:     "blank patterns are dropped",
			patterns: []string{"", "   "},
			url:      "https://www.example.com/",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := New(tt.patterns...)
			if got := f.IsBlacklisted(tt.url); got != tt.want {
				t.Errorf("IsBlacklisted(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestFilter_NilSafe(t *testing.T) {
	t.Parallel()

	var f *Filter
	if f.IsBlacklisted("https://www.example.com/") {
		t.Error("nil filter should never match")
	}
	if f.Len() != 0 {
		t.Errorf("Len() = %d, want 0", f.Len())
	}
	if f.Patterns() != nil {
		t.Error("Patterns() on nil filter should be nil")
	}
}

func TestFilter_Extend(t *testing.T) {
	t.Parallel()

	base := New("/logout")
	extended := base.Extend("/admin", " ")

	if base.Len() != 1 {
		t.Errorf("base filter modified: Len() = %d", base.Len())
	}
	if extended.Len() != 2 {
		t.Errorf("extended Len() = %d, want 2", extended.Len())
	}
	if !extended.IsBlacklisted("https://www.example.com/admin/") {
		t.Error("extended filter should match /admin")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("reads one pattern per line", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "blacklist")
		content := "/logout\n\n  ?add-to-cart=  \n/wp-admin\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		f, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := []string{"/logout", "?add-to-cart=", "/wp-admin"}
		got := f.Patterns()
		if len(got) != len(want) {
			t.Fatalf("Patterns() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Patterns()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
		if !f.IsBlacklisted("https://shop.example.com/p/1?add-to-cart=42") {
			t.Error("expected trimmed pattern to match")
		}
	})

	t.Run("missing file is reported but usable", func(t *testing.T) {
		t.Parallel()

		f, err := Load(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrBlacklistNotFound) {
			t.Fatalf("Load() error = %v, want ErrBlacklistNotFound", err)
		}
		if f == nil || f.Len() != 0 {
			t.Errorf("expected empty filter, got %v", f)
		}
	})
}
