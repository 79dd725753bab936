// Package tracking keeps a bounded journal of the changes applied to a
// document.
//
// A Tracker subscribes to a model.Document and records every delivered
// change together with the document version it produced. The journal
// answers "what changed since revision X?" and supports named marks:
//
//	tracker := tracking.NewTracker(tracking.WithMaxChanges(1000))
//	if err := tracker.Attach(doc); err != nil {
//		return err
//	}
//	defer tracker.Detach()
//
//	tracker.Mark("before_import")
//	// ... apply operations ...
//	entries, err := tracker.ChangesSinceMark("before_import")
//
// Entries are descriptors only. The journal does not keep removed content
// and cannot undo changes.
//
// # Thread Safety
//
// Recording happens on the goroutine applying operations. Queries take a
// read lock and may run from other goroutines.
package tracking
