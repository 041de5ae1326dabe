package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

type fakeAPI struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	response string
	err      error
}

func (f *fakeAPI) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.response}}},
		Usage:   openai.Usage{TotalTokens: 42},
	}, nil
}

type logEntry struct {
	runID  *string
	tokens int
}

type fakeLogger struct {
	entries []logEntry
}

func (l *fakeLogger) LogLLMRequest(_ context.Context, runID *string, _, _, _, _ string, tokens int) error {
	l.entries = append(l.entries, logEntry{runID: runID, tokens: tokens})
	return nil
}

func newTestEnricher(t *testing.T, api *fakeAPI, reqLog Logger) *Enricher {
	t.Helper()
	c, err := newClient(api, Config{Model: "test-model", CacheSize: 8}, reqLog, nil)
	require.NoError(t, err)
	return NewEnricher(c, 2)
}

const page = `<html><head><script>var token="sk-XXXXXXXXXXXXXXXXXXXXXXXXXX";</script></head><body>
<form id="login">
  <input type="password" name="pw" value="hunter2">
  <div class="x1 y2" onclick="go()">Continue</div>
  <span>alice@example.com</span>
</form>
</body></html>`

func parse(t *testing.T) (*dom.Document, []*locator.Candidate) {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	cands, err := locator.NewEngine(locator.DefaultConfig(), nil).Run(context.Background(), doc)
	require.NoError(t, err)
	return doc, cands
}

func TestNewClient_NoKey(t *testing.T) {
	c, err := NewClient(Config{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestEnrich_CachesAndLogs(t *testing.T) {
	api := &fakeAPI{response: `{"custom_name":"ContinueButton","type":"CSS","selector":" form#login div:has-text('Continue') ","reasoning":"text is stable"}`}
	reqLog := &fakeLogger{}
	e := newTestEnricher(t, api, reqLog)
	doc, cands := parse(t)

	var div dom.Element
	for _, el := range doc.Elements() {
		if el.Tag == "div" {
			div = el
		}
	}

	ctx := WithRunID(context.Background(), "run-1")
	s, err := e.Enrich(ctx, div, cands)
	require.NoError(t, err)
	assert.Equal(t, div.Index, s.Element)
	assert.Equal(t, "css", s.Type)
	assert.Equal(t, "form#login div:has-text('Continue')", s.Selector)

	_, err = e.Enrich(ctx, div, cands)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls, "второй запрос берётся из кэша")

	require.Len(t, reqLog.entries, 1)
	require.NotNil(t, reqLog.entries[0].runID)
	assert.Equal(t, "run-1", *reqLog.entries[0].runID)
	assert.Equal(t, 42, reqLog.entries[0].tokens)
}

func TestEnrich_RejectsBadAnswer(t *testing.T) {
	doc, cands := parse(t)
	el := doc.Element(0)

	e := newTestEnricher(t, &fakeAPI{response: `{"type":"role","selector":"button"}`}, nil)
	_, err := e.Enrich(context.Background(), el, cands)
	assert.ErrorContains(t, err, "неизвестный тип")

	e = newTestEnricher(t, &fakeAPI{response: `{"type":"css","selector":""}`}, nil)
	_, err = e.Enrich(context.Background(), el, cands)
	assert.ErrorContains(t, err, "пустой селектор")

	e = newTestEnricher(t, &fakeAPI{response: `not json`}, nil)
	_, err = e.Enrich(context.Background(), el, cands)
	assert.ErrorContains(t, err, "failed to parse")

	e = newTestEnricher(t, &fakeAPI{err: errors.New("503")}, nil)
	_, err = e.Enrich(context.Background(), el, cands)
	assert.ErrorContains(t, err, "llm request")
}

func TestEnrichWeak_LimitsAndMasks(t *testing.T) {
	api := &fakeAPI{response: `{"type":"xpath","selector":"//form//div"}`}
	e := newTestEnricher(t, api, nil)
	doc, cands := parse(t)

	out, err := e.EnrichWeak(context.Background(), doc, cands)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 2)
	assert.LessOrEqual(t, api.calls, 2)
	for _, p := range api.prompts {
		assert.NotContains(t, p, "hunter2")
		assert.NotContains(t, p, "alice@example.com")
	}
}

func TestAnalyzePage(t *testing.T) {
	api := &fakeAPI{response: `{"page_type":"login","summary":"Sign in form","key_elements":["PwInput"]}`}
	e := newTestEnricher(t, api, nil)
	_, cands := parse(t)

	pa, err := e.AnalyzePage(context.Background(), page, cands)
	require.NoError(t, err)
	assert.Equal(t, "login", pa.PageType)
	assert.Equal(t, []string{"PwInput"}, pa.KeyElements)

	require.Len(t, api.prompts, 1)
	prompt := api.prompts[0]
	assert.NotContains(t, prompt, "<script")
	assert.NotContains(t, prompt, "sk-XXXX")
	assert.NotContains(t, prompt, "hunter2")
	assert.NotContains(t, prompt, "onclick")
	assert.Contains(t, prompt, `id="login"`)
}

func TestElementSnippet(t *testing.T) {
	doc, _ := parse(t)
	e := newTestEnricher(t, &fakeAPI{}, nil)
	for _, el := range doc.Elements() {
		if el.Tag == "input" {
			snip := ElementSnippet(e.client.sanitizer, el)
			assert.Contains(t, snip, `type="password"`)
			assert.Contains(t, snip, `value="[FILTERED]"`)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, 1000)
	clock := time.Unix(0, 0)
	rl.now = func() time.Time { return clock }
	rl.lastRefill = clock
	rl.pollTimeout = time.Millisecond

	require.NoError(t, rl.Wait(context.Background(), 100))
	require.NoError(t, rl.Wait(context.Background(), 100))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx, 100), context.DeadlineExceeded)

	// через 30 секунд вернулся один запрос
	clock = clock.Add(30 * time.Second)
	requests, tokens := rl.Stats()
	assert.Equal(t, 1, requests)
	assert.Equal(t, 808, tokens)

	rl.ConsumeTokens(5000)
	_, tokens = rl.Stats()
	assert.Equal(t, 0, tokens)

	assert.ErrorContains(t, rl.Wait(context.Background(), 2000), "превышен лимит токенов")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("m", "s", "p"), cacheKey("m", "s", "p"))
	assert.NotEqual(t, cacheKey("m", "sp", ""), cacheKey("m", "s", "p"))
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := newCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	assert.ErrorIs(t, cb.call(func() error { return boom }), boom)
	assert.False(t, cb.open())
	assert.ErrorIs(t, cb.call(func() error { return boom }), boom)
	assert.True(t, cb.open())

	called := false
	assert.ErrorIs(t, cb.call(func() error { called = true; return nil }), ErrCircuitOpen)
	assert.False(t, called)

	// после resetTimeout пропускается пробный запрос; ошибка снова открывает цепь
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.call(func() error { return boom }), boom)
	assert.True(t, cb.open())

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.call(func() error { return nil }))
	assert.False(t, cb.open())
}

func TestEnrichWeak_StopsWhenCircuitOpens(t *testing.T) {
	api := &fakeAPI{err: errors.New("503")}
	c, err := newClient(api, Config{Model: "test-model"}, nil, nil)
	require.NoError(t, err)
	e := NewEnricher(c, 20)

	doc, err := dom.ParseString(`<div><p>a</p><p>b</p><p>c</p><p>d</p><p>e</p><p>f</p></div>`)
	require.NoError(t, err)
	cands, err := locator.NewEngine(locator.DefaultConfig(), nil).Run(context.Background(), doc)
	require.NoError(t, err)

	out, err := e.EnrichWeak(context.Background(), doc, cands)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 3, api.calls)
}
