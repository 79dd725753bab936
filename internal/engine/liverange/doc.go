// Package liverange provides ranges that keep themselves up to date while
// the document they point into is edited.
//
// A LiveRange subscribes to its document on creation. Every applied change
// maps both boundaries through model.Range.TransformedByChange, in the order
// the document delivers changes. Detach releases the subscription; a
// detached range keeps its last boundaries and ignores further edits.
//
//	lr, err := liverange.FromElement(paragraph)
//	if err != nil {
//		return err
//	}
//	defer lr.Detach()
//
//	doc.Insert(pos, model.NewText("hello", nil))
//	fmt.Println(lr.Start(), lr.End())
package liverange
