// Package preflight provides readiness checks for the remote subtitle service
// and the filesystem paths subflow writes into.
//
// These checks run in two contexts:
//   - `subflow run` calls RunAll before selecting media so a doomed upload
//     fails fast with a readable reason.
//   - `subflow status` renders every Result, including informational ones
//     such as the notification and history settings.
//
// Each optional check is gated by its config toggle; disabled features are
// reported but never fail.
package preflight
