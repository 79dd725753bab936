// Package scenario runs YAML descriptions of edit sequences and checks
// where live ranges end up.
//
//	name: move keeps the selection
//	roots:
//	  - name: main
//	    markup: "<p>foo[bar]</p>"
//	  - name: other
//	    markup: "<p>xy</p>"
//	ranges:
//	  sel: "@main"                 # the range marked in main's markup
//	  word: main[0 0]..main[0 3]
//	steps:
//	  - insert: {at: "main[0 0]", markup: "xx"}
//	  - move: {from: "main[0 2]", count: 3, to: "other[0 1]"}
//	    expect:
//	      ranges:
//	        word: other[0 1]..other[0 4]
//	  - detach: word
//	expect:
//	  markup:
//	    main: "<p>xxbar</p>"
//	  detached: [word]
//
// Positions are written the way model.Position prints them: the root name
// followed by the offset path.
package scenario
