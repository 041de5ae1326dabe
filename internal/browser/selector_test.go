package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSelector(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		changed bool
	}{
		{`button:contains("Войти")`, `button:has-text("Войти")`, true},
		{`a:contains('Cart')`, `a:has-text('Cart')`, true},
		{`button: Sign in`, `button:has-text("Sign in")`, true},
		{`input[type="password"]`, `input[type="password"]`, false},
		{`button:hover`, `button:hover`, false},
		{``, ``, false},
	}
	for _, tc := range cases {
		got, changed := NormalizeSelector(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.changed, changed, tc.in)
	}
}

func TestValidateSelector(t *testing.T) {
	assert.NoError(t, ValidateSelector(`#login`))
	assert.Error(t, ValidateSelector("  "))
	assert.Error(t, ValidateSelector("https://example.com/login"))
	assert.Error(t, ValidateSelector("file://tmp/x"))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, defaultPassSelector, orDefault("", defaultPassSelector))
	assert.Equal(t, "#pw", orDefault("#pw", defaultPassSelector))
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 1200, toInt(1200))
	assert.Equal(t, 1200, toInt(float64(1200)))
	assert.Equal(t, 7, toInt(int64(7)))
	assert.Equal(t, 0, toInt("x"))
	assert.Equal(t, 0, toInt(nil))
}
