package webdriver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tebeka/selenium"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	calls []string
	found map[string]int
	err   error
	delay time.Duration
}

func (f *fakeDriver) FindElements(by, value string) ([]selenium.WebElement, error) {
	f.calls = append(f.calls, by)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return make([]selenium.WebElement, f.found[value]), nil
}

func TestResolve_ByType(t *testing.T) {
	fd := &fakeDriver{found: map[string]int{"#a": 1, "//li": 3}}
	ctx := context.Background()

	n, err := resolve(ctx, fd, locator.TypeCSS, "#a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = resolve(ctx, fd, locator.TypeXPath, "//li")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, []string{selenium.ByCSSSelector, selenium.ByXPATH}, fd.calls)
}

func TestResolve_RoleUnsupported(t *testing.T) {
	_, err := resolve(context.Background(), &fakeDriver{}, locator.TypeRole, `role=button[name="x"]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestResolve_NoSuchElementIsZero(t *testing.T) {
	fd := &fakeDriver{err: errors.New("no such element: Unable to locate element")}
	n, err := resolve(context.Background(), fd, locator.TypeCSS, "#missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	fd.err = errors.New("invalid selector: An invalid or illegal selector was specified")
	_, err = resolve(context.Background(), fd, locator.TypeCSS, "[[")
	assert.Error(t, err)
}

func TestResolve_RespectsContext(t *testing.T) {
	fd := &fakeDriver{delay: 200 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := resolve(ctx, fd, locator.TypeCSS, "#a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
