package dom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `<!DOCTYPE html>
<html>
<head><title>Login</title><script>var x = 1;</script></head>
<body>
  <div class="wrap">
    <label for="email">Email address</label>
    <input id="email" name="email" type="email">
    <label>Remember <input type="checkbox" name="remember"></label>
    <button class="btn primary" data-testid="submit">Sign   in</button>
  </div>
  <div class="wrap"><p>one</p><p>two</p></div>
</body>
</html>`

func findTag(t *testing.T, doc *Document, tag string, nth int) Element {
	t.Helper()
	seen := 0
	for _, el := range doc.Elements() {
		if el.Tag == tag {
			if seen == nth {
				return el
			}
			seen++
		}
	}
	t.Fatalf("element %s[%d] not found", tag, nth)
	return Element{}
}

func TestParse_DocumentOrderAndRelations(t *testing.T) {
	doc, err := ParseString(fixture)
	require.NoError(t, err)

	assert.Equal(t, "Login", doc.Title())
	assert.Equal(t, "html", doc.Element(0).Tag)
	assert.Equal(t, -1, doc.Parent(0))

	for i, el := range doc.Elements() {
		assert.Equal(t, i, el.Index)
		for _, c := range doc.Children(i) {
			assert.Equal(t, i, doc.Parent(c))
			assert.Greater(t, c, i, "children follow parent in document order")
		}
	}

	secondDiv := findTag(t, doc, "div", 1)
	assert.Equal(t, 2, secondDiv.Position)

	p2 := findTag(t, doc, "p", 1)
	assert.Equal(t, 2, p2.Position)
	p1 := findTag(t, doc, "p", 0)
	assert.Equal(t, p1.Index, doc.PrevSibling(p2.Index))
	assert.Equal(t, p2.Index, doc.NextSibling(p1.Index))
	assert.Equal(t, []int{p1.Index}, doc.Siblings(p2.Index))
	assert.Equal(t, -1, doc.NextSibling(p2.Index))
}

func TestParse_TextAndLabels(t *testing.T) {
	doc, err := ParseString(fixture)
	require.NoError(t, err)

	btn := findTag(t, doc, "button", 0)
	assert.Equal(t, "Sign in", btn.Text)
	assert.Equal(t, []string{"btn", "primary"}, btn.Classes())
	v, ok := btn.Attr("data-testid")
	assert.True(t, ok)
	assert.Equal(t, "submit", v)

	email := findTag(t, doc, "input", 0)
	assert.Equal(t, "email", email.ID())
	assert.Equal(t, "Email address", email.LabelText)

	remember := findTag(t, doc, "input", 1)
	assert.Equal(t, "Remember", remember.LabelText)

	head := findTag(t, doc, "head", 0)
	assert.NotContains(t, head.Text, "var x")
}

func TestParse_Path(t *testing.T) {
	doc, err := ParseString(fixture)
	require.NoError(t, err)

	btn := findTag(t, doc, "button", 0)
	path := doc.Path(btn.Index)
	require.NotEmpty(t, path)
	assert.Equal(t, 0, path[0])
	assert.Equal(t, btn.Index, path[len(path)-1])
}

func TestParse_MalformedMarkupRecovers(t *testing.T) {
	doc, err := ParseString(`<div><span>unclosed<p>para</div>`)
	require.NoError(t, err)

	tags := map[string]bool{}
	for _, el := range doc.Elements() {
		tags[el.Tag] = true
	}
	assert.True(t, tags["div"])
	assert.True(t, tags["span"])
	assert.True(t, tags["p"])
}

func TestParse_DuplicateAttributeFirstWins(t *testing.T) {
	doc, err := ParseString(`<a id="first" id="second" href="/x">x</a>`)
	require.NoError(t, err)

	a := findTag(t, doc, "a", 0)
	assert.Equal(t, "first", a.ID())
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"whitespace": "   \n\t ",
		"plain text": "just some words, no tags",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(input)
			require.Error(t, err)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
			assert.Contains(t, err.Error(), "parse")
		})
	}
}
