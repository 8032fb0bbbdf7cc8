// Package session guards the single interactive pipeline run per state
// directory.
//
// A flock-based lock file under paths.state_dir stops two CLI invocations from
// uploading and cleaning up against the same history database at once. The
// lock is advisory and released automatically if the process dies.
package session
