package reconcile

import (
	"context"
	"fmt"

	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/relay"
)

// Deliver handles a settings notification and always answers. Inline values
// are merged into the current settings; a notification without values makes
// the Reconciler re-read its SettingsSource. Either way a pass runs.
func (r *Reconciler) Deliver(ctx context.Context, msg relay.Message) relay.Response {
	if msg.Type != relay.TypeUpdateSettings {
		return relay.Fail(fmt.Errorf("%w: %q", relay.ErrUnknownType, msg.Type))
	}

	var (
		loaded    config.Settings
		hasLoaded bool
	)
	if !msg.HasValues() && r.settingsSource != nil {
		s, err := r.settingsSource.LoadSettings(ctx)
		if err != nil {
			r.logger.Warn("failed to reload settings", "error", err)
			return relay.Fail(err)
		}
		loaded, hasLoaded = s, true
	}

	err := r.Do(ctx, func() {
		next := r.settings.Clone()
		switch {
		case hasLoaded:
			next = loaded
		case msg.HasValues():
			if msg.Enabled != nil {
				next.Enabled = *msg.Enabled
			}
			if msg.ExtraKeywords != nil {
				next.ExtraKeywords = config.ParseKeywords(*msg.ExtraKeywords)
			}
		}
		r.OnSettingsChanged(next)
	})
	if err != nil {
		return relay.Fail(err)
	}
	return relay.OK()
}
