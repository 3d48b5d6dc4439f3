package locator

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/nao1215/studysight/internal/dom"
	"github.com/nao1215/studysight/internal/model"
)

// Selectors of the listing layout.
const (
	// PrimaryCardSelector matches cards in the common grid layout.
	PrimaryCardSelector = "ytd-rich-item-renderer"

	// ContainerSelector matches every known card kind. The fallback walks up
	// to the nearest of these.
	ContainerSelector = "ytd-rich-item-renderer, ytd-rich-grid-media, ytd-video-renderer, ytd-grid-video-renderer"

	// ShortFormSelector marks a card as short-form content.
	ShortFormSelector = `ytm-shorts-lockup-view-model, ytm-shorts-lockup-view-model-v2, a[href^="/shorts/"]`

	// TitleSelector is the title path of the current layout.
	TitleSelector = "a.yt-lockup-metadata-view-model-wiz__title > span"

	// LegacyTitleSelector is the title path of the older layout.
	LegacyTitleSelector = "#video-title"
)

// Item is one located card.
type Item struct {
	// Card is the card's root node.
	Card *html.Node

	// Title is the trimmed title. Empty for short-form cards.
	Title string

	// ShortForm is true when the card carries a short-form marker.
	ShortForm bool
}

// Locator finds items. It holds compiled selectors and no other state, so
// one value can serve any number of documents.
//
// Design decision: the deep fallback only runs when the light query finds
// nothing, rather than merging both strategies, because:
// 1. The light query is cheap and covers the usual layout
// 2. An empty result is the only reliable sign of an unknown layout
// 3. Mixing the two would reach the same card twice on ordinary pages
type Locator struct {
	primary     cascadia.Selector
	containers  cascadia.Selector
	shortForm   cascadia.Selector
	title       cascadia.Selector
	legacyTitle cascadia.Selector
	anyTitle    cascadia.Selector
}

// New compiles the layout selectors.
func New() *Locator {
	return &Locator{
		primary:     cascadia.MustCompile(PrimaryCardSelector),
		containers:  cascadia.MustCompile(ContainerSelector),
		shortForm:   cascadia.MustCompile(ShortFormSelector),
		title:       cascadia.MustCompile(TitleSelector),
		legacyTitle: cascadia.MustCompile(LegacyTitleSelector),
		anyTitle:    cascadia.MustCompile(TitleSelector + ", " + LegacyTitleSelector),
	}
}

// Locate runs the primary strategy and falls back to the deep strategy when
// it finds no items. Short-form cards count as found.
func (l *Locator) Locate(root *html.Node) ([]Item, model.Strategy) {
	if items := l.Primary(root); len(items) > 0 {
		return items, model.StrategyPrimary
	}
	if items := l.Fallback(root); len(items) > 0 {
		return items, model.StrategyFallback
	}
	return nil, model.StrategyNone
}

// Primary returns the light-tree cards under root that are short-form or
// carry a non-empty title, in document order.
func (l *Locator) Primary(root *html.Node) []Item {
	var items []Item
	for _, card := range dom.QueryAll(root, l.primary) {
		if l.IsShortForm(card) {
			items = append(items, Item{Card: card, ShortForm: true})
			continue
		}
		if title, ok := l.cardTitle(card); ok {
			items = append(items, Item{Card: card, Title: title})
		}
	}
	return items
}

// Fallback collects title elements anywhere under root, including inside
// nested shadow roots, and pairs each with its nearest card ancestor.
// Titles without a card ancestor are skipped. Two titles under one card
// yield two items.
func (l *Locator) Fallback(root *html.Node) []Item {
	var items []Item
	for _, el := range dom.DeepQueryAll(root, l.anyTitle) {
		card := dom.Closest(el, l.containers)
		if card == nil {
			continue
		}
		if l.IsShortForm(card) {
			items = append(items, Item{Card: card, ShortForm: true})
			continue
		}
		title := strings.TrimSpace(dom.TextContent(el))
		if title == "" {
			continue
		}
		items = append(items, Item{Card: card, Title: title})
	}
	return items
}

// IsShortForm reports whether card contains a short-form marker.
func (l *Locator) IsShortForm(card *html.Node) bool {
	return dom.QueryFirst(card, l.shortForm) != nil
}

// Cards returns every known card under root, crossing shadow roots.
func (l *Locator) Cards(root *html.Node) []*html.Node {
	return dom.DeepQueryAll(root, l.containers)
}

// cardTitle tries the current title path, then the legacy one, and returns
// the first non-empty trimmed text.
func (l *Locator) cardTitle(card *html.Node) (string, bool) {
	for _, sel := range []cascadia.Selector{l.title, l.legacyTitle} {
		el := dom.QueryFirst(card, sel)
		if el == nil {
			continue
		}
		if t := strings.TrimSpace(dom.TextContent(el)); t != "" {
			return t, true
		}
	}
	return "", false
}
