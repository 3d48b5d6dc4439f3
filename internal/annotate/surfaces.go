package annotate

import "github.com/andybalholm/cascadia"

// Card styles.
const (
	transition     = "filter 0.3s"
	blur           = "blur(13px)"
	none           = "none"
	passThrough    = "auto"
	hitBackground  = "rgba(0,0,0,0.01)"
	propTransition = "transition"
	propFilter     = "filter"
	propPointer    = "pointer-events"
	propBackground = "background"
	propDisplay    = "display"
)

// surface is a kind of hover-preview element inside a card.
type surface struct {
	selector cascadia.Selector

	// props are set to their suppressed values while the card is
	// suppressed and cleared afterwards.
	props []prop

	// hideOnHover surfaces are hidden again when the blur is lifted.
	hideOnHover bool
}

type prop struct {
	name  string
	value string
}

// previewSurfaces lists every preview surface disabled on suppression.
func previewSurfaces() []surface {
	return []surface{
		{
			selector:    cascadia.MustCompile("#hover-overlays"),
			props:       []prop{{propPointer, none}, {propDisplay, none}},
			hideOnHover: true,
		},
		{
			selector:    cascadia.MustCompile("#mouseover-overlay"),
			props:       []prop{{propDisplay, none}, {propPointer, none}},
			hideOnHover: true,
		},
		{
			selector: cascadia.MustCompile("#thumbnail"),
			props:    []prop{{propPointer, none}},
		},
		{
			selector: cascadia.MustCompile("ytd-thumbnail-overlay-toggle-button-renderer"),
			props:    []prop{{propDisplay, none}},
		},
		{
			selector: cascadia.MustCompile(".shortsLockupViewModelHostEndpoint"),
			props:    []prop{{propPointer, none}},
		},
		{
			selector:    cascadia.MustCompile("ytd-video-preview"),
			props:       []prop{{propDisplay, none}},
			hideOnHover: true,
		},
	}
}
