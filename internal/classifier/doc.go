// Package classifier decides whether a video title is kept or suppressed.
//
// Two strategies exist:
//   - keyword mode: a substring match against a fixed base keyword set plus
//     the user's extra keywords
//   - model mode: a linear text classifier (bag of words, logistic output)
//     whose parameters are loaded once from vocab.json and model_params.json
//
// The Classifier dispatches on model readiness: once the model has loaded,
// every decision uses it; until then, and forever if loading fails, the
// keyword rules apply. The global enabled switch in config.Settings
// overrides both and suppresses everything.
package classifier
