package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/dom"
	"github.com/shaktitrigent/Phoenix-SmartLocatorAI/internal/locator"
)

// StaticResolver проверяет селекторы на загруженной без JS разметке:
// CSS через cascadia, XPath через htmlquery, роли по модели документа.
type StaticResolver struct {
	root *html.Node
	doc  *dom.Document
}

func NewStaticResolver(markup string) (*StaticResolver, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("static resolver: %w", err)
	}
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("static resolver: %w", err)
	}
	return &StaticResolver{root: root, doc: doc}, nil
}

func (r *StaticResolver) Resolve(ctx context.Context, typ locator.Type, value string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	switch typ {
	case locator.TypeCSS:
		sel, err := cascadia.ParseGroup(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		return len(cascadia.QueryAll(r.root, sel)), nil

	case locator.TypeXPath:
		nodes, err := htmlquery.QueryAll(r.root, value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		return len(nodes), nil

	case locator.TypeRole:
		role, name, err := locator.ParseRoleSelector(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
		}
		n := 0
		for _, el := range r.doc.Elements() {
			if locator.AccessibleRole(el) == role && locator.AccessibleName(el) == name {
				n++
			}
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupported, typ)
}
