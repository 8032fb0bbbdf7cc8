// Package notifications surfaces transient pipeline messages to the user.
//
// A Notice carries a level (success, info, warning, danger) and a short
// message. Sinks render notices to the terminal or publish them to ntfy using
// the topic configured in config.toml; Multi fans a notice out to several
// sinks. Pipeline code depends only on the Sink interface.
package notifications
