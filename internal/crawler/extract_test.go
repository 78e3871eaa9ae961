package crawler

import (
	"reflect"
	"testing"
)

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "double and single quotes",
			html: `<a href="/a">A</a> <a href='/b'>B</a>`,
			want: []string{"/a", "/b"},
		},
		{
			name: "case-insensitive tag and attribute",
			html: `<A HREF="/upper">x</A><a Href="/mixed">y</a>`,
			want: []string{"/upper", "/mixed"},
		},
		{
			name: "attributes before href",
			html: `<a class="nav" id="home" href="/home">Home</a>`,
			want: []string{"/home"},
		},
		{
			name: "entities kept raw",
			html: `<a href="/search?q=a&amp;page=2">next</a>`,
			want: []string{"/search?q=a&amp;page=2"},
		},
		{
			name: "non-anchor tags ignored",
			html: `<link href="/style.css"><area href="/map"><abbr title="x">y</abbr>`,
			want: []string{},
		},
		{
			name: "data-href is not href",
			html: `<a data-href="/nope">x</a>`,
			want: []string{},
		},
		{
			name: "empty href ignored",
			html: `<a href="">x</a><a href="/ok">y</a>`,
			want: []string{"/ok"},
		},
		{
			name: "document order",
			html: "<ul>\n<li><a\n href=\"/1\">1</a></li>\n<li><a href=\"/2\">2</a></li>\n</ul>",
			want: []string{"/1", "/2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractLinks([]byte(tt.html))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "/search?q=a&amp;page=2", want: "/search?q=a&page=2"},
		{raw: "/caf&eacute;", want: "/café"},
		{raw: "/it&#39;s", want: "/it's"},
		{raw: "  /padded  ", want: "/padded"},
		{raw: "/plain", want: "/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			if got := DecodeHref(tt.raw); got != tt.want {
				t.Errorf("DecodeHref(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
