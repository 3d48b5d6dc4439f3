package annotate

import (
	"runtime"
	"testing"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/nao1215/studysight/internal/dom"
)

const cardPage = `<!DOCTYPE html><html><body>
<ytd-rich-item-renderer id="card">
  <div id="thumbnail"><img src="t.jpg"></div>
  <div id="hover-overlays"></div>
  <div id="mouseover-overlay"></div>
  <ytd-thumbnail-overlay-toggle-button-renderer></ytd-thumbnail-overlay-toggle-button-renderer>
  <a class="shortsLockupViewModelHostEndpoint" href="/shorts/x"></a>
  <ytd-video-preview></ytd-video-preview>
  <span id="title">Some title</span>
</ytd-rich-item-renderer>
<ytd-rich-item-renderer id="other"><span>plain</span></ytd-rich-item-renderer>
</body></html>`

func setup(t *testing.T) (*dom.Document, *Annotator, *html.Node) {
	t.Helper()
	doc, err := dom.ParseString(cardPage)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc, New(doc), byID(t, doc, "card")
}

func byID(t *testing.T, doc *dom.Document, id string) *html.Node {
	t.Helper()
	n := dom.QueryFirst(doc.Root(), cascadia.MustCompile("#"+id))
	if n == nil {
		t.Fatalf("no element #%s", id)
	}
	return n
}

func listeners(doc *dom.Document, n *html.Node) [2]int {
	return [2]int{
		doc.ListenerCount(n, dom.EventMouseEnter),
		doc.ListenerCount(n, dom.EventMouseLeave),
	}
}

// TestApplySuppress tests the styles written on suppression.
func TestApplySuppress(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	if !a.Apply(card, true) {
		t.Fatal("expected state change")
	}
	if got := a.State(card); got != Suppressed {
		t.Errorf("expected Suppressed, got %v", got)
	}

	want := map[string]string{
		"transition":     "filter 0.3s",
		"filter":         "blur(13px)",
		"pointer-events": "auto",
		"background":     "rgba(0,0,0,0.01)",
	}
	for prop, v := range want {
		if got := dom.Style(card, prop); got != v {
			t.Errorf("card %s: expected %q, got %q", prop, v, got)
		}
	}

	surfaces := []struct {
		selector string
		prop     string
		value    string
	}{
		{"#hover-overlays", "display", "none"},
		{"#hover-overlays", "pointer-events", "none"},
		{"#mouseover-overlay", "display", "none"},
		{"#mouseover-overlay", "pointer-events", "none"},
		{"#thumbnail", "pointer-events", "none"},
		{"ytd-thumbnail-overlay-toggle-button-renderer", "display", "none"},
		{".shortsLockupViewModelHostEndpoint", "pointer-events", "none"},
		{"ytd-video-preview", "display", "none"},
	}
	for _, s := range surfaces {
		n := dom.QueryFirst(card, cascadia.MustCompile(s.selector))
		if got := dom.Style(n, s.prop); got != s.value {
			t.Errorf("%s %s: expected %q, got %q", s.selector, s.prop, s.value, got)
		}
	}

	if diff := cmp.Diff([2]int{1, 1}, listeners(doc, card)); diff != "" {
		t.Errorf("listener count mismatch (-want +got):\n%s", diff)
	}

	other := byID(t, doc, "other")
	if _, ok := dom.Attr(other, "style"); ok {
		t.Error("expected untouched card to have no style")
	}
}

// TestApplyIdempotent tests that re-applying a state is a no-op.
func TestApplyIdempotent(t *testing.T) {
	t.Parallel()

	for _, suppress := range []bool{true, false} {
		doc, a, card := setup(t)

		a.Apply(card, suppress)
		once := doc.String()
		onceListeners := listeners(doc, card)

		if a.Apply(card, suppress) {
			t.Errorf("suppress=%v: expected second Apply to report no change", suppress)
		}
		if diff := cmp.Diff(once, doc.String()); diff != "" {
			t.Errorf("suppress=%v: document changed on re-apply (-once +twice):\n%s", suppress, diff)
		}
		if diff := cmp.Diff(onceListeners, listeners(doc, card)); diff != "" {
			t.Errorf("suppress=%v: listeners changed on re-apply (-once +twice):\n%s", suppress, diff)
		}
	}
}

// TestApplyUnsuppress tests the reverse transition.
func TestApplyUnsuppress(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	a.Apply(card, true)
	if !a.Apply(card, false) {
		t.Fatal("expected state change")
	}

	if got := a.State(card); got != Visible {
		t.Errorf("expected Visible, got %v", got)
	}
	if got := dom.Style(card, "filter"); got != "none" {
		t.Errorf("expected filter none, got %q", got)
	}
	for _, prop := range []string{"pointer-events", "background"} {
		if got := dom.Style(card, prop); got != "" {
			t.Errorf("expected %s to be cleared, got %q", prop, got)
		}
	}
	for _, sel := range []string{"#hover-overlays", "#mouseover-overlay", "#thumbnail", "ytd-video-preview"} {
		n := dom.QueryFirst(card, cascadia.MustCompile(sel))
		if _, ok := dom.Attr(n, "style"); ok {
			t.Errorf("expected %s to have no inline style", sel)
		}
	}
	if diff := cmp.Diff([2]int{0, 0}, listeners(doc, card)); diff != "" {
		t.Errorf("listener count mismatch (-want +got):\n%s", diff)
	}
}

// TestUnannotatedToVisible tests that keeping a fresh card writes nothing.
func TestUnannotatedToVisible(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	before := doc.String()

	if !a.Apply(card, false) {
		t.Error("expected Unannotated -> Visible to be a state change")
	}
	if a.State(card) != Visible {
		t.Errorf("expected Visible, got %v", a.State(card))
	}
	if doc.String() != before {
		t.Error("expected no style writes for a fresh visible card")
	}
}

// TestHoverContract tests that enter then leave restores the suppressed
// rendering exactly.
func TestHoverContract(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	a.Apply(card, true)
	suppressed := doc.String()

	doc.Dispatch(card, dom.EventMouseEnter)
	if a.State(card) != SuppressedHoverRevealed {
		t.Fatalf("expected SuppressedHoverRevealed, got %v", a.State(card))
	}
	if got := dom.Style(card, "filter"); got != "none" {
		t.Errorf("expected blur lifted on hover, got %q", got)
	}
	for _, sel := range []string{"#hover-overlays", "#mouseover-overlay", "ytd-video-preview"} {
		n := dom.QueryFirst(card, cascadia.MustCompile(sel))
		if got := dom.Style(n, "display"); got != "none" {
			t.Errorf("expected %s to stay hidden on hover, got %q", sel, got)
		}
	}

	doc.Dispatch(card, dom.EventMouseLeave)
	if a.State(card) != Suppressed {
		t.Fatalf("expected Suppressed, got %v", a.State(card))
	}
	if diff := cmp.Diff(suppressed, doc.String()); diff != "" {
		t.Errorf("hover left residue (-suppressed +after):\n%s", diff)
	}
}

// TestHoverRevealSurvivesReapply tests that a pass during hover keeps the
// reveal.
func TestHoverRevealSurvivesReapply(t *testing.T) {
	t.Parallel()

	_, a, card := setup(t)
	a.Apply(card, true)
	a.HoverEnter(card)

	if a.Apply(card, true) {
		t.Error("expected re-apply to report no change")
	}
	if a.State(card) != SuppressedHoverRevealed {
		t.Errorf("expected SuppressedHoverRevealed, got %v", a.State(card))
	}
	if got := dom.Style(card, "filter"); got != "none" {
		t.Errorf("expected blur to stay lifted, got %q", got)
	}
}

// TestHoverIgnoredWhenVisible tests that hover has no effect on cards that
// are not suppressed.
func TestHoverIgnoredWhenVisible(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	a.Apply(card, true)
	a.Apply(card, false)
	before := doc.String()

	doc.Dispatch(card, dom.EventMouseEnter)
	doc.Dispatch(card, dom.EventMouseLeave)
	if a.HoverEnter(card) || a.HoverLeave(card) {
		t.Error("expected direct hover calls to be ignored")
	}
	if doc.String() != before {
		t.Error("expected no change from hover on a visible card")
	}
	if a.State(card) != Visible {
		t.Errorf("expected Visible, got %v", a.State(card))
	}
}

// TestHoverDoesNotBubble tests that hovering a child does not reveal the card.
func TestHoverDoesNotBubble(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	a.Apply(card, true)

	doc.Dispatch(byID(t, doc, "title"), dom.EventMouseEnter)
	if a.State(card) != Suppressed {
		t.Errorf("expected Suppressed, got %v", a.State(card))
	}
}

// TestUnhoverUnsuppress tests un-suppressing a hover-revealed card.
func TestUnhoverUnsuppress(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	a.Apply(card, true)
	a.HoverEnter(card)
	a.Apply(card, false)

	if a.State(card) != Visible {
		t.Errorf("expected Visible, got %v", a.State(card))
	}
	if diff := cmp.Diff([2]int{0, 0}, listeners(doc, card)); diff != "" {
		t.Errorf("listener count mismatch (-want +got):\n%s", diff)
	}
}

// TestRemoveAll tests bulk un-suppression.
func TestRemoveAll(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	other := byID(t, doc, "other")
	a.Apply(card, true)

	if got := a.RemoveAll([]*html.Node{card, other}); got != 1 {
		t.Errorf("expected 1 cleared card, got %d", got)
	}
	for _, n := range []*html.Node{card, other} {
		if a.State(n) != Visible {
			t.Errorf("expected Visible, got %v", a.State(n))
		}
	}
	if got := a.RemoveAll([]*html.Node{card, other}); got != 0 {
		t.Errorf("expected nothing to clear the second time, got %d", got)
	}
}

// TestStateString tests the string forms.
func TestStateString(t *testing.T) {
	t.Parallel()

	for s, want := range map[State]string{
		Unannotated:             "unannotated",
		Visible:                 "visible",
		Suppressed:              "suppressed",
		SuppressedHoverRevealed: "suppressed-hover-revealed",
		State(9):                "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, expected %q", int(s), got, want)
		}
	}
}

// TestAuthoredStylesSurvive tests that suppression keeps the page's own
// inline styles, including ones without a trailing semicolon.
func TestAuthoredStylesSurvive(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(`<html><body>
<ytd-rich-item-renderer id="card" style="width: 320px"><div id="thumbnail" style="height: 180px"></div></ytd-rich-item-renderer>
</body></html>`)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	a := New(doc)
	card, thumb := byID(t, doc, "card"), byID(t, doc, "thumbnail")

	check := func(phase string) {
		t.Helper()
		if got := dom.Style(card, "width"); got != "320px" {
			t.Errorf("%s: expected card width 320px, got %q", phase, got)
		}
		if got := dom.Style(thumb, "height"); got != "180px" {
			t.Errorf("%s: expected thumbnail height 180px, got %q", phase, got)
		}
	}

	a.Apply(card, true)
	check("suppressed")
	if got := dom.Style(card, "filter"); got != "blur(13px)" {
		t.Errorf("expected blur while suppressed, got %q", got)
	}

	a.Apply(card, false)
	check("unsuppressed")
	if got := dom.Style(card, "filter"); got != "none" {
		t.Errorf("expected filter none after unsuppress, got %q", got)
	}
	if got := dom.Style(thumb, "pointer-events"); got != "" {
		t.Errorf("expected thumbnail pointer-events cleared, got %q", got)
	}
}

// attachSuppressedCard adds a suppressed card to the body and removes it
// again, leaving no reference to it behind.
//
//go:noinline
func attachSuppressedCard(doc *dom.Document, a *Annotator) {
	card := &html.Node{Type: html.ElementNode, Data: "ytd-rich-item-renderer"}
	doc.AppendChild(doc.Body(), card)
	a.Apply(card, true)
	doc.RemoveChild(doc.Body(), card)
}

// TestStateEvictedWithNode tests that card state goes away once a removed
// card has been collected.
func TestStateEvictedWithNode(t *testing.T) {
	t.Parallel()

	doc, a, card := setup(t)
	a.Apply(card, true)
	attachSuppressedCard(doc, a)
	if got := a.Tracked(); got != 2 {
		t.Fatalf("expected 2 tracked cards, got %d", got)
	}

	deadline := time.Now().Add(5 * time.Second)
	for a.Tracked() != 1 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if got := a.Tracked(); got != 1 {
		t.Errorf("expected the removed card to be evicted, %d still tracked", got)
	}
	if got := a.State(card); got != Suppressed {
		t.Errorf("expected the live card to stay Suppressed, got %v", got)
	}
}
