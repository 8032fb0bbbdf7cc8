// Package media describes the file a user hands to the pipeline and the gate
// that decides whether it may enter it.
//
// A Candidate is what the user pointed at. Gate.Check turns it into a
// SelectedMedia or a RejectionError explaining why it was refused. Only the
// declared media type and the size are checked locally; everything else is
// validated by the remote service.
package media
