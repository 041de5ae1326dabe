package browser

import (
	"context"
	"fmt"
	"time"
)

const defaultScrollPasses = 3

// LoadLazyContent прокручивает страницу вниз, пока растёт scrollHeight
// (не больше ScrollPasses раз), и возвращается наверх. Элементы, которые
// подгружаются при прокрутке, попадают в итоговую разметку.
func (b *PlaywrightBrowser) LoadLazyContent(ctx context.Context) error {
	page := b.getPage()
	if page == nil {
		return fmt.Errorf("браузер не запущен")
	}

	passes := b.cfg.ScrollPasses
	if passes == 0 {
		passes = defaultScrollPasses
	}
	if passes < 0 {
		return nil
	}

	prev := -1
	for i := 0; i < passes; i++ {
		var height int
		err := withContext(ctx, func() error {
			v, err := page.Evaluate(`() => {
				window.scrollTo(0, document.body ? document.body.scrollHeight : 0);
				return document.body ? document.body.scrollHeight : 0;
			}`)
			if err != nil {
				return err
			}
			height = toInt(v)
			return nil
		})
		if err != nil {
			return fmt.Errorf("ошибка прокрутки вниз: %w", err)
		}
		if height == prev {
			break
		}
		prev = height

		if err := b.WaitForLoadState(ctx, "networkidle"); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(300 * time.Millisecond):
		}
	}

	return withContext(ctx, func() error {
		_, err := page.Evaluate(`() => window.scrollTo(0, 0)`)
		return err
	})
}

// toInt: Evaluate отдаёт числа как int или float64 в зависимости от значения.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
