package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinks(t *testing.T) {
	summary := `<p>See <a href="https://www.example.com/a">this</a> and
<a href="http://blog.other.org/b/c">that</a>, plus <a name="anchor">nothing</a>.</p>`

	links := Links(summary)

	assert.Equal(t, []string{"https://www.example.com/a", "http://blog.other.org/b/c"}, links)
}

func TestLinks_NoAnchors(t *testing.T) {
	assert.Empty(t, Links("just text"))
	assert.Empty(t, Links(""))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Hello brave world", Text(`Hello <b>brave</b> <a href="x">world</a>`))
}

func TestSecondLevelDomain(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.example.com/path", "example.com", true},
		{"http://news.bbc.co.uk/story", "co.uk", true},
		{"https://Example.ORG:8080/", "example.org", true},
		{"http://localhost/x", "localhost", true},
		{"/relative/path", "", false},
		{"mailto:someone@example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := SecondLevelDomain(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkText(t *testing.T) {
	assert.Equal(t, "example.com wiki Caf latte", LinkText("https://en.example.com/wiki/Caf%C3%A9_latte"))
	assert.Equal(t, "youtube.com watch", LinkText("https://www.youtube.com/watch?v=abc123"))
	assert.Equal(t, "example.com", LinkText("https://example.com/"))
}
