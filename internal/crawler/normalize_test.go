package crawler

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "path without query", url: "https://www.example.com/a", want: "/a?"},
		{name: "path with query", url: "https://www.example.com/a?x=1", want: "/a?x=1"},
		{name: "fragment ignored", url: "https://www.example.com/a#top", want: "/a?"},
		{name: "empty path is root", url: "https://www.example.com", want: "/?"},
		{name: "root", url: "https://www.example.com/", want: "/?"},
		{name: "scheme and host ignored", url: "http://cdn.example.com/a?x=1", want: "/a?x=1"},
		{name: "query order matters", url: "https://www.example.com/a?y=2&x=1", want: "/a?y=2&x=1"},
		{name: "trailing slash is significant", url: "https://www.example.com/a/", want: "/a/?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.url); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalize_Equivalence(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"https://www.example.com/a?x=1", "https://www.example.com/a?x=1#frag"},
		{"https://www.example.com/a", "http://www.example.com/a"},
		{"https://www.example.com", "https://www.example.com/"},
	}
	for _, p := range pairs {
		if Normalize(p[0]) != Normalize(p[1]) {
			t.Errorf("expected %q and %q to share an identity", p[0], p[1])
		}
	}

	if Normalize("https://www.example.com/a?x=1") == Normalize("https://www.example.com/a?x=2") {
		t.Error("different queries must not share an identity")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   string
		href   string
		want   string
		wantOK bool
	}{
		{
			name:   "relative href appended to base",
			base:   "https://example.com/blog/",
			href:   "page2",
			want:   "https://example.com/blog/page2",
			wantOK: true,
		},
		{
			name:   "root-relative href joins origin",
			base:   "https://example.com/blog/",
			href:   "/about",
			want:   "https://example.com/about",
			wantOK: true,
		},
		{
			name:   "base without trailing slash",
			base:   "https://example.com",
			href:   "contact",
			want:   "https://example.com/contact",
			wantOK: true,
		},
		{
			name:   "absolute href unchanged",
			base:   "https://example.com/",
			href:   "https://other.example.org/x?y=1",
			want:   "https://other.example.org/x?y=1",
			wantOK: true,
		},
		{
			name:   "protocol-relative href inherits scheme",
			base:   "https://example.com/",
			href:   "//example.com/x",
			want:   "https://example.com/x",
			wantOK: true,
		},
		{
			name:   "query-only href",
			base:   "https://example.com",
			href:   "?page=2",
			want:   "https://example.com/?page=2",
			wantOK: true,
		},
		{name: "mailto", base: "https://example.com", href: "mailto:info@example.com"},
		{name: "javascript", base: "https://example.com", href: "javascript:void(0)"},
		{name: "tel", base: "https://example.com", href: "tel:+123456"},
		{name: "fragment only", base: "https://example.com", href: "#top"},
		{name: "empty", base: "https://example.com", href: "   "},
		{name: "scheme without host", base: "https://example.com", href: "http:relative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := Resolve(tt.base, tt.href)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q, %q) ok = %v, want %v", tt.base, tt.href, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestIsSameHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   string
		target string
		want   bool
	}{
		{name: "same host", base: "https://example.com", target: "https://example.com/a", want: true},
		{name: "scheme ignored", base: "https://example.com", target: "http://example.com/a", want: true},
		{name: "other host", base: "https://example.com", target: "https://other.com/a", want: false},
		{name: "subdomain is another host", base: "https://example.com", target: "https://www.example.com/", want: false},
		{name: "port is part of host", base: "http://localhost:8080", target: "http://localhost:9090/", want: false},
		{name: "relative target has no host", base: "https://example.com", target: "/a", want: false},
		{name: "invalid base", base: "::", target: "https://example.com/", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsSameHost(tt.base, tt.target); got != tt.want {
				t.Errorf("IsSameHost(%q, %q) = %v, want %v", tt.base, tt.target, got, tt.want)
			}
		})
	}
}

func TestIsFetchable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{url: "https://example.com/", want: true},
		{url: "https://example.com/blog/post", want: true},
		{url: "https://example.com/page.html", want: true},
		{url: "https://example.com/logo.png", want: false},
		{url: "https://example.com/PHOTO.JPG", want: false},
		{url: "https://example.com/a.jpeg", want: false},
		{url: "https://example.com/a.gif", want: false},
		{url: "https://example.com/a.webp", want: false},
		{url: "https://example.com/icon.svg", want: false},
		{url: "https://example.com/a.bmp", want: false},
		{url: "https://example.com/a.tiff", want: false},
		{url: "https://example.com/favicon.ico", want: false},
		{url: "https://example.com/brochure.pdf", want: false},
		{url: "https://example.com/thumb.png?v=3", want: false},
		{url: "https://example.com/png-guide", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := IsFetchable(tt.url); got != tt.want {
				t.Errorf("IsFetchable(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
