package model

import (
	"slices"

	"github.com/google/uuid"
)

// Handler is called after a change has been applied to the tree.
type Handler func(change Change)

// Subscription represents an active change handler.
type Subscription struct {
	id      uuid.UUID
	root    *Element
	handler Handler
	doc     *Document
	active  bool
}

// ID returns the subscription identity.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Active reports whether the subscription still receives changes.
func (s *Subscription) Active() bool {
	return s != nil && s.active
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.doc != nil {
		s.doc.Unsubscribe(s)
	}
}

// matches reports whether the change concerns the subscribed root.
func (s *Subscription) matches(change Change) bool {
	if s.root == nil {
		return true
	}
	if change.Span().Root() == s.root {
		return true
	}
	if mv, ok := change.(MoveChange); ok {
		return mv.SourcePosition.root == s.root
	}
	return false
}

// notifier keeps subscriptions in registration order.
type notifier struct {
	subs []*Subscription
}

func (n *notifier) add(doc *Document, root *Element, h Handler) *Subscription {
	sub := &Subscription{
		id:      uuid.New(),
		root:    root,
		handler: h,
		doc:     doc,
		active:  true,
	}
	n.subs = append(n.subs, sub)
	return sub
}

func (n *notifier) remove(sub *Subscription) bool {
	i := slices.Index(n.subs, sub)
	if i < 0 {
		return false
	}
	sub.active = false
	n.subs = slices.Delete(n.subs, i, i+1)
	return true
}

func (n *notifier) len() int {
	return len(n.subs)
}

// deliver calls every handler registered before delivery started.
// Handlers removed during delivery are skipped.
func (n *notifier) deliver(change Change) {
	snapshot := slices.Clone(n.subs)
	for _, sub := range snapshot {
		if !sub.active || !sub.matches(change) {
			continue
		}
		sub.handler(change)
	}
}
