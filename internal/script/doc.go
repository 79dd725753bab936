// Package script runs Lua programs against livetree documents.
//
// Scripts run in a restricted gopher-lua state: only the base, table,
// string and math libraries are open, file loading is removed, and
// require resolves nothing but the livetree module, which is also
// available as a global.
//
//	local doc = livetree.document()
//	doc:create_root("main")
//	doc:load("main", {0}, "<p>foo[bar]</p>")
//	local r = doc:live_range("main", {0, 1}, {0, 3}, "sel")
//	doc:insert("main", {0, 0}, "xx")
//	print(r)                      -- sel=main[0 3]..main[0 5]
//	print(doc:markup("main", r))  -- <p>xxf[oo]bar</p>
//
// Paths are Lua arrays of zero-based offsets, the same values the model
// uses. Errors raised by the model abort the script with a Lua error.
//
// A run is bounded by a timeout (checked by the Lua VM through its
// context) and by a maximum number of livetree API calls.
package script
