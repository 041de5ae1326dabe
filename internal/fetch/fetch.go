// Package fetch получает разметку: по URL (с JS-рендерингом или без),
// из файла или как есть.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type Kind int

const (
	KindMarkup Kind = iota
	KindFile
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindFile:
		return "file"
	}
	return "markup"
}

// Live - по источнику можно проверять селекторы на живой странице.
func (k Kind) Live() bool { return k == KindURL }

// Source - полученная разметка и откуда она пришла.
type Source struct {
	Kind     Kind
	Location string
	Markup   string
	Rendered bool
}

// Renderer рендерит страницу в браузере и отдаёт итоговый HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

const maxBody = 20 << 20

var (
	ErrEmptyInput = errors.New("empty input")
	// ErrFileInput - чтение файлов не разрешено политикой загрузки.
	ErrFileInput = errors.New("file input not allowed")
	// ErrRedirectBlocked - редирект ведёт на адрес, запрещённый Policy.CheckURL.
	ErrRedirectBlocked = errors.New("redirect blocked")
)

const maxRedirects = 10

// Policy ограничивает, что Load может читать.
type Policy struct {
	AllowFiles bool
	// CheckURL вызывается для каждого перехода по редиректу; nil - без проверки.
	CheckURL func(u *url.URL) error
}

// IsURL - ввод является абсолютным http(s) URL. Файловую систему не трогает.
func IsURL(input string) bool {
	u, err := url.Parse(strings.TrimSpace(input))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Detect определяет вид ввода: http(s) URL, существующий файл или сырая разметка.
func Detect(input string) Kind {
	s := strings.TrimSpace(input)
	if IsURL(s) {
		return KindURL
	}
	if !strings.ContainsAny(s, "<>\n") {
		if st, err := os.Stat(s); err == nil && !st.IsDir() {
			return KindFile
		}
	}
	return KindMarkup
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "Mozilla/5.0 (compatible; SmartLocator/1.0)",
	}
}

// Load получает разметку. renderer нужен только для URL с js=true; если он nil,
// страница загружается обычным GET.
func (f *Fetcher) Load(ctx context.Context, input string, js bool, renderer Renderer, policy Policy) (*Source, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	switch Detect(input) {
	case KindURL:
		if js && renderer != nil {
			markup, err := renderer.Render(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", input, err)
			}
			return &Source{Kind: KindURL, Location: input, Markup: markup, Rendered: true}, nil
		}
		markup, err := f.get(ctx, input, policy.CheckURL)
		if err != nil {
			return nil, err
		}
		return &Source{Kind: KindURL, Location: input, Markup: markup}, nil

	case KindFile:
		if !policy.AllowFiles {
			return nil, ErrFileInput
		}
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", input, err)
		}
		return &Source{Kind: KindFile, Location: input, Markup: string(data)}, nil
	}

	return &Source{Kind: KindMarkup, Markup: input}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, check func(*url.URL) error) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.client
	if check != nil {
		guarded := *f.client
		guarded.CheckRedirect = func(next *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if err := check(next.URL); err != nil {
				return fmt.Errorf("%w: %v", ErrRedirectBlocked, err)
			}
			return nil
		}
		client = &guarded
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("navigation to %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("navigation to %s: HTTP %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read body %s: %w", rawURL, err)
	}
	return string(body), nil
}
