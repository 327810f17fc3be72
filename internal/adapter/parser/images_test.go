package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestExtractImages_Dimensions(t *testing.T) {
	tests := []struct {
		name          string
		fragment      string
		width, height *int
	}{
		{"attributes only", `<img src="a.png" width="100" height="80"/>`, intPtr(100), intPtr(80)},
		{"style overrides attribute", `<img src="a.png" width="100" style="width:50px"/>`, intPtr(50), nil},
		{"style per axis", `<img src="a.png" width="100" height="80" style="height: 40%"/>`, intPtr(100), intPtr(40)},
		{"style without unit", `<img src="a.png" style="width: 30; height:20px"/>`, intPtr(30), intPtr(20)},
		{"max-width is not width", `<img src="a.png" style="max-width:100px; min-height: 5px"/>`, nil, nil},
		{"non-numeric attribute", `<img src="a.png" width="auto" height="50%"/>`, nil, intPtr(50)},
		{"no size at all", `<img src="a.png"/>`, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := extractImages(tt.fragment, testBaseURL)
			require.Len(t, images, 1)
			assert.Equal(t, tt.width, images[0].Width)
			assert.Equal(t, tt.height, images[0].Height)
		})
	}
}

func TestExtractImages_DocumentOrderAndDepth(t *testing.T) {
	images := extractImages(`<div><p><img src="1.png"/></p></div><img src="2.png"/><span><b><img src="3.png"/></b></span>`, testBaseURL)
	require.Len(t, images, 3)
	assert.Equal(t, "http://x.test/feed/1.png", images[0].Src)
	assert.Equal(t, "http://x.test/feed/2.png", images[1].Src)
	assert.Equal(t, "http://x.test/feed/3.png", images[2].Src)
}

func TestExtractImages_NestedBeforeSibling(t *testing.T) {
	images := extractImages(`<p><a href="x"><span><img src="deep.png"/></span></a><img src="shallow.png"/></p><img src="top.png"/>`, testBaseURL)
	require.Len(t, images, 3)
	assert.Equal(t, "http://x.test/feed/deep.png", images[0].Src)
	assert.Equal(t, "http://x.test/feed/shallow.png", images[1].Src)
	assert.Equal(t, "http://x.test/feed/top.png", images[2].Src)
}

func TestExtractImages_Degenerate(t *testing.T) {
	assert.Empty(t, extractImages("", testBaseURL))
	assert.Empty(t, extractImages("<p>", testBaseURL))
	assert.Empty(t, extractImages("<p>no images</p>", testBaseURL))
	assert.NotNil(t, extractImages("<p>", testBaseURL))
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"http://x.test/feed/", "a.png", "http://x.test/feed/a.png"},
		{"http://x.test/feed/", "/a.png", "http://x.test/a.png"},
		{"http://x.test/feed/", "../a.png", "http://x.test/a.png"},
		{"http://x.test/feed/", "//cdn.test/a.png", "http://cdn.test/a.png"},
		{"http://x.test/feed/", "https://other.test/a.png", "https://other.test/a.png"},
		{"http://x.test/feed/", "  a.png ", "http://x.test/feed/a.png"},
		{"http://x.test/feed/", "", "http://x.test/feed/"},
		{"http://x.test/feed/index.rss", "a.png", "http://x.test/feed/a.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveURL(tt.base, tt.ref), "base=%q ref=%q", tt.base, tt.ref)
	}
}

func TestResolveGUID(t *testing.T) {
	assert.Equal(t, "explicit", resolveGUID("explicit", testBaseURL, "t", "d"))
	assert.Equal(t, "  explicit\n", resolveGUID("  explicit\n", testBaseURL, "t", "d"))
	assert.Equal(t, resolveGUID("", testBaseURL, "t", "d"), resolveGUID(" \t\n", testBaseURL, "t", "d"))

	a := resolveGUID("", testBaseURL, "t", "d")
	assert.Equal(t, a, resolveGUID("", testBaseURL, "t", "d"))
	assert.NotEqual(t, a, resolveGUID("", testBaseURL, "t2", "d"))
	assert.NotEqual(t, a, resolveGUID("", testBaseURL, "t", "d2"))
	assert.NotEqual(t, a, resolveGUID("", "http://other.test/", "t", "d"))
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		doc  string
		want Dialect
	}{
		{`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>`, DialectRDF},
		{`<rss/>`, DialectRSS},
		{`<feed xmlns="http://www.w3.org/2005/Atom"/>`, DialectAtom},
		{`<a:feed xmlns:a="http://www.w3.org/2005/Atom"/>`, DialectAtom},
	}
	for _, tt := range tests {
		root, err := loadTree(strings.NewReader(tt.doc))
		require.NoError(t, err)
		got, err := detectDialect(root)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.doc)
	}
	assert.Equal(t, "atom", DialectAtom.String())
	assert.Equal(t, "unknown", Dialect(0).String())
}
