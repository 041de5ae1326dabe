package validate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cand(typ locator.Type, value string) *locator.Candidate {
	return &locator.Candidate{Type: typ, Value: value}
}

// fakeResolver отвечает по таблице; "block" ждёт отмены контекста.
func fakeResolver(counts map[string]int, errs map[string]error) Resolver {
	return ResolverFunc(func(ctx context.Context, _ locator.Type, value string) (int, error) {
		if value == "block" {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		if err, ok := errs[value]; ok {
			return 0, err
		}
		return counts[value], nil
	})
}

func TestValidate_MatchCountsAndWarnings(t *testing.T) {
	one := cand(locator.TypeCSS, "#one")
	none := cand(locator.TypeCSS, "#none")
	many := cand(locator.TypeXPath, "//li")

	v := New(fakeResolver(map[string]int{"#one": 1, "#none": 0, "//li": 3}, nil), nil, Config{Workers: 2}, nil)
	stats, err := v.Validate(context.Background(), []*locator.Candidate{one, none, many})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Resolved)

	require.NotNil(t, one.Validated)
	assert.True(t, *one.Validated)
	assert.Equal(t, 1, *one.MatchCount)
	assert.Nil(t, one.ValidationError)
	assert.Empty(t, one.Warnings)

	assert.True(t, *none.Validated)
	assert.Equal(t, 0, *none.MatchCount)
	assert.Nil(t, none.ValidationError)
	assert.Contains(t, none.Warnings, "selector matched no elements")

	assert.Equal(t, 3, *many.MatchCount)
	assert.Contains(t, many.Warnings, "selector matched 3 elements")

	assert.Equal(t, StateDone, v.Session().State())
}

func TestValidate_ErrorsArePerCandidate(t *testing.T) {
	bad := cand(locator.TypeCSS, "[[")
	slow := cand(locator.TypeCSS, "block")
	good := cand(locator.TypeCSS, "#ok")

	res := fakeResolver(map[string]int{"#ok": 1}, map[string]error{"[[": errors.New("Unexpected token \"[\" while parsing selector")})
	v := New(res, nil, Config{Workers: 3, Timeout: 30 * time.Millisecond}, nil)

	stats, err := v.Validate(context.Background(), []*locator.Candidate{bad, slow, good})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 2, stats.Failed)

	assert.True(t, *bad.Validated)
	require.NotNil(t, bad.ValidationError)
	assert.Contains(t, *bad.ValidationError, "invalid selector")
	assert.Nil(t, bad.MatchCount)

	assert.True(t, *slow.Validated)
	require.NotNil(t, slow.ValidationError)
	assert.Contains(t, *slow.ValidationError, "timeout")

	assert.Equal(t, 1, *good.MatchCount)
	assert.Nil(t, good.ValidationError)
}

func TestValidate_AuthFailureKeepsCandidatesUntouched(t *testing.T) {
	c := cand(locator.TypeCSS, "#one")
	auth := AuthenticatorFunc(func(context.Context) error { return errors.New("bad credentials") })

	called := false
	res := ResolverFunc(func(context.Context, locator.Type, string) (int, error) {
		called = true
		return 1, nil
	})

	v := New(res, NewSession(auth, time.Second), Config{}, nil)
	stats, err := v.Validate(context.Background(), []*locator.Candidate{c})
	require.Error(t, err)

	var aerr *AuthError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, StateAuthenticating, aerr.State)
	assert.Equal(t, 1, stats.Skipped)

	assert.False(t, called)
	assert.Nil(t, c.Validated)
	assert.Nil(t, c.MatchCount)
	assert.Nil(t, c.ValidationError)
	assert.Equal(t, StateFailed, v.Session().State())
}

func TestValidate_CancelledContextSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := cand(locator.TypeCSS, "#one")
	v := New(fakeResolver(map[string]int{"#one": 1}, nil), nil, Config{}, nil)
	stats, err := v.Validate(ctx, []*locator.Candidate{c})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Skipped)
	assert.Nil(t, c.Validated)
}

func TestSession_Transitions(t *testing.T) {
	s := NewSession(AuthenticatorFunc(func(context.Context) error { return nil }), time.Second)
	assert.Equal(t, StateIdle, s.State())

	var terr *TransitionError
	require.True(t, errors.As(s.BeginValidation(), &terr))
	assert.Equal(t, StateIdle, terr.From)

	require.NoError(t, s.Authenticate(context.Background()))
	require.NoError(t, s.BeginValidation())
	require.NoError(t, s.Finish())
	assert.Equal(t, []State{StateIdle, StateAuthenticating, StateReady, StateValidating, StateDone}, s.History())

	assert.Error(t, s.Fail(errors.New("late")))
	assert.Equal(t, StateDone, s.State())
}

func TestSession_AuthTimeout(t *testing.T) {
	blocking := AuthenticatorFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s := NewSession(blocking, 20*time.Millisecond)

	err := s.Authenticate(context.Background())
	var aerr *AuthError
	require.True(t, errors.As(err, &aerr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, err, s.Err())
}

func TestSession_NoAuthenticatorGoesReady(t *testing.T) {
	s := NewSession(nil, 0)
	require.NoError(t, s.Authenticate(context.Background()))
	assert.Equal(t, StateReady, s.State())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{context.DeadlineExceeded, KindTimeout},
		{ErrUnsupported, KindUnsupported},
		{ErrInvalidSelector, KindInvalidSelector},
		{errors.New("Timeout 5000ms exceeded"), KindTimeout},
		{errors.New("net::ERR_CONNECTION_REFUSED"), KindNavigation},
		{errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		got := Classify(locator.TypeCSS, "x", tc.err)
		assert.Equal(t, tc.kind, got.Kind, tc.err.Error())
		assert.ErrorIs(t, got, tc.err)
	}
	assert.Nil(t, Classify(locator.TypeCSS, "x", nil))
	assert.True(t, KindTimeout.Retryable())
	assert.False(t, KindInvalidSelector.Retryable())
}

const fixture = `<html><body>
<nav><a href="/home">Home</a><a href="/cart">Cart</a></nav>
<form>
  <input id="3fa85f64-5717-4562-b3fc-2c963f66afa6" name="q" type="search" aria-label="Search">
  <button class="btn primary">Go</button>
  <button class="btn primary">Reset</button>
</form>
</body></html>`

func TestStaticResolver_ResolvesGeneratedCandidates(t *testing.T) {
	doc, err := dom.ParseString(fixture)
	require.NoError(t, err)
	cands, err := locator.NewEngine(locator.DefaultConfig(), nil).Run(context.Background(), doc)
	require.NoError(t, err)

	res, err := NewStaticResolver(fixture)
	require.NoError(t, err)

	v := New(res, nil, Config{Workers: 4}, nil)
	_, err = v.Validate(context.Background(), cands)
	require.NoError(t, err)

	for _, c := range cands {
		require.True(t, c.IsValidated(), c.Value)
		require.Nil(t, c.ValidationError, c.Value)
		require.NotNil(t, c.MatchCount, c.Value)

		switch c.Strategy {
		case locator.StrategyClass:
			assert.Equal(t, 2, *c.MatchCount, c.Value)
		default:
			assert.Equal(t, 1, *c.MatchCount, c.Value)
		}
	}
}

func TestStaticResolver_EscapedAndEdgeValues(t *testing.T) {
	markup := "<form><input name=\"a\nb\"><div id=\" sp \">x</div><ul><li>Home</li><li>About</li></ul></form>"
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	cands, err := locator.NewEngine(locator.DefaultConfig(), nil).Run(context.Background(), doc)
	require.NoError(t, err)

	res, err := NewStaticResolver(markup)
	require.NoError(t, err)

	values := map[string]bool{}
	for _, c := range cands {
		values[c.Value] = true
		n, err := res.Resolve(context.Background(), c.Type, c.Value)
		require.NoError(t, err, c.Value)
		assert.Equal(t, 1, n, c.Value)
	}
	assert.True(t, values[`[name="a\a b"]`])
	assert.True(t, values[`#\ sp\ `])
	assert.True(t, values[`role=listitem[name="Home"]`])
	assert.False(t, values[`role=list[name="Home About"]`])
}

func TestStaticResolver_Errors(t *testing.T) {
	res, err := NewStaticResolver(fixture)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = res.Resolve(ctx, locator.TypeCSS, "[[")
	assert.ErrorIs(t, err, ErrInvalidSelector)

	_, err = res.Resolve(ctx, locator.TypeXPath, "//*[")
	assert.ErrorIs(t, err, ErrInvalidSelector)

	_, err = res.Resolve(ctx, locator.TypeRole, "button")
	assert.ErrorIs(t, err, ErrInvalidSelector)

	n, err := res.Resolve(ctx, locator.TypeCSS, "#missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = res.Resolve(ctx, locator.TypeRole, `role=link[name="Cart"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
