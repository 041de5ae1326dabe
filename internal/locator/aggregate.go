package locator

// Options - внешние параметры отбора.
type Options struct {
	MinStability Label
	// Frameworks - пусто или оба значения означает "без фильтра".
	Frameworks []Framework
}

// FrameworkFor: роли есть только в Playwright, CSS и XPath понимают оба.
func FrameworkFor(t Type) FrameworkTag {
	if t == TypeRole {
		return FrameworkPlaywrightOnly
	}
	return FrameworkBoth
}

// Aggregate проставляет FrameworkTag, убирает повторы (элемент+тип+значение)
// и фильтрует по порогу стабильности и выбранным фреймворкам.
// Чистая и идемпотентная: Aggregate(Aggregate(x)) == Aggregate(x).
func Aggregate(cands []*Candidate, opts Options) []*Candidate {
	type ident struct {
		element int
		typ     Type
		value   string
	}
	min := opts.MinStability
	if min == "" {
		min = LabelLow
	}

	seen := make(map[ident]struct{}, len(cands))
	out := make([]*Candidate, 0, len(cands))
	for _, c := range cands {
		c.Framework = FrameworkFor(c.Type)

		id := ident{c.Element, c.Type, c.Value}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if !LabelFor(c.Score).AtLeast(min) {
			continue
		}
		if !frameworkSelected(c.Framework, opts.Frameworks) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func frameworkSelected(tag FrameworkTag, selected []Framework) bool {
	if len(selected) == 0 {
		return true
	}
	var pw, se bool
	for _, f := range selected {
		switch f {
		case Playwright:
			pw = true
		case Selenium:
			se = true
		}
	}
	switch tag {
	case FrameworkBoth:
		return pw || se
	case FrameworkPlaywrightOnly:
		return pw
	case FrameworkSeleniumOnly:
		return se
	}
	return false
}

// Summary - сводка по документу для отчёта.
type Summary struct {
	TotalElements int                  `json:"total_elements"`
	TotalLocators int                  `json:"total_locators"`
	ByType        map[string]int       `json:"locator_distribution"`
	ByFramework   map[FrameworkTag]int `json:"framework_split"`
	ByStability   map[Label]int        `json:"stability_distribution"`
	Dynamic       int                  `json:"dynamic"`
	Duplicate     int                  `json:"duplicate"`
	Validated     int                  `json:"validated"`
}

func Summarize(cands []*Candidate, totalElements int) Summary {
	s := Summary{
		TotalElements: totalElements,
		TotalLocators: len(cands),
		ByType: map[string]int{
			TypeCSS.String():   0,
			TypeXPath.String(): 0,
			TypeRole.String():  0,
		},
		ByFramework: map[FrameworkTag]int{
			FrameworkPlaywrightOnly: 0,
			FrameworkSeleniumOnly:   0,
			FrameworkBoth:           0,
		},
		ByStability: map[Label]int{
			LabelHigh:   0,
			LabelMedium: 0,
			LabelLow:    0,
		},
	}
	for _, c := range cands {
		s.ByType[c.Type.String()]++
		s.ByFramework[FrameworkFor(c.Type)]++
		s.ByStability[LabelFor(c.Score)]++
		if c.Dynamic {
			s.Dynamic++
		}
		if c.Duplicate {
			s.Duplicate++
		}
		if c.IsValidated() {
			s.Validated++
		}
	}
	return s
}
