// Package notation reads and writes a compact markup form of model trees.
//
// Elements are written as tags and text as character data:
//
//	<ul><li>foo</li><li>b[ar</li></ul><p>ba]z</p>
//
// Attributed text uses the pseudo element x-text:
//
//	<p>plain <x-text bold="true">strong</x-text></p>
//
// The characters [ and { mark the start of a range, ] and } its end. Both
// pairs mean the same thing because offsets are flat. A range may be
// collapsed ("[]"). Literal marker characters are written as character
// references (&#91; &#93; &#123; &#125;).
//
// Markup is read with the golang.org/x/net/html tokenizer, so tag and
// attribute names are case-insensitive and come back lowercased. Elements
// the tokenizer treats as raw text (script, style, textarea, title and
// similar) cannot hold child elements.
package notation
