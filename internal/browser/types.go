package browser

import (
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

type PlaywrightBrowser struct {
	mu      sync.RWMutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	cfg     Config
}

type Config struct {
	Headless     bool
	UserDataDir  string
	BrowsersPath string
	Display      string
	// Engine: chromium, firefox или webkit. По умолчанию chromium.
	Engine          string
	Timeout         time.Duration
	NavigateTimeout time.Duration
	// StorageState - путь к сохранённому состоянию (cookies, localStorage),
	// которое подгружается в контекст при запуске.
	StorageState string
	Login        Login
	// ScrollPasses - сколько раз прокручивать вниз при рендеринге; <0 отключает.
	ScrollPasses int
}

// Login - сценарий входа для защищённых страниц.
type Login struct {
	URL             string
	User            string
	Password        string
	UserSelector    string
	PassSelector    string
	SubmitSelector  string
	WaitSelector    string
	WaitURLContains string
	// SaveStatePath - куда сохранить storage state после успешного входа.
	SaveStatePath string
}

func (l Login) Enabled() bool { return l.URL != "" }
