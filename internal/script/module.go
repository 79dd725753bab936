package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/livetree/internal/engine/liverange"
	"github.com/dshills/livetree/internal/engine/model"
	"github.com/dshills/livetree/internal/engine/notation"
	"github.com/dshills/livetree/internal/engine/tracking"
)

const (
	moduleName    = "livetree"
	documentType  = "livetree.document"
	liveRangeType = "livetree.range"
)

// docHandle is the Lua-side document with what scripts attached to it.
type docHandle struct {
	doc     *model.Document
	journal *tracking.Tracker
	ranges  []*liverange.LiveRange
}

func (d *docHandle) release() {
	for _, r := range d.ranges {
		r.Detach()
	}
	d.ranges = nil
	if d.journal != nil && d.journal.IsAttached() {
		_ = d.journal.Detach()
	}
}

func (h *Host) loadModule(L *lua.LState) int {
	L.Push(h.newModule(L))
	return 1
}

func (h *Host) newModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "document", L.NewFunction(h.newDocument))
	L.SetField(mod, "version", lua.LString("1"))
	return mod
}

func (h *Host) registerTypes() {
	L := h.L

	docMT := L.NewTypeMetatable(documentType)
	L.SetField(docMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"create_root": h.createRoot,
		"roots":       h.roots,
		"load":        h.load,
		"insert":      h.insert,
		"remove":      h.remove,
		"move":        h.move,
		"live_range":  h.liveRange,
		"markup":      h.markup,
		"version":     h.version,
		"mark":        h.mark,
		"changes":     h.changes,
		"summary":     h.summary,
	}))
	L.SetField(docMT, "__tostring", L.NewFunction(func(L *lua.LState) int {
		d := checkDocument(L, 1)
		L.Push(lua.LString("document " + d.doc.ID().String()))
		return 1
	}))

	rangeMT := L.NewTypeMetatable(liveRangeType)
	L.SetField(rangeMT, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"start":        h.rangeStart,
		"finish":       h.rangeFinish,
		"name":         h.rangeName,
		"is_collapsed": h.rangeIsCollapsed,
		"is_detached":  h.rangeIsDetached,
		"detach":       h.rangeDetach,
		"on_change":    h.rangeOnChange,
		"updates":      h.rangeUpdates,
	}))
	L.SetField(rangeMT, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkRange(L, 1).String()))
		return 1
	}))
}

func checkDocument(L *lua.LState, n int) *docHandle {
	ud := L.CheckUserData(n)
	if d, ok := ud.Value.(*docHandle); ok {
		return d
	}
	L.ArgError(n, "document expected")
	return nil
}

func checkRange(L *lua.LState, n int) *liverange.LiveRange {
	ud := L.CheckUserData(n)
	if r, ok := ud.Value.(*liverange.LiveRange); ok {
		return r
	}
	L.ArgError(n, "live range expected")
	return nil
}

// checkPath reads an array of offsets.
func checkPath(L *lua.LState, n int) []int {
	tbl := L.CheckTable(n)
	size := tbl.Len()
	if size == 0 {
		L.ArgError(n, "path must not be empty")
		return nil
	}
	path := make([]int, size)
	for i := 1; i <= size; i++ {
		num, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok {
			L.ArgError(n, "path entries must be numbers")
			return nil
		}
		path[i-1] = int(num)
	}
	return path
}

func pathTable(L *lua.LState, path []int) *lua.LTable {
	tbl := L.CreateTable(len(path), 0)
	for _, v := range path {
		tbl.Append(lua.LNumber(v))
	}
	return tbl
}

// checkPosition reads a root name and a path starting at argument n.
func checkPosition(L *lua.LState, d *docHandle, n int) model.Position {
	name := L.CheckString(n)
	root, ok := d.doc.Root(name)
	if !ok {
		L.ArgError(n, "unknown root "+name)
		return model.Position{}
	}
	pos, err := model.NewPosition(root, checkPath(L, n+1))
	if err != nil {
		L.RaiseError("%v", err)
	}
	return pos
}

// checkEditable rejects edits from inside a change listener.
func checkEditable(L *lua.LState, d *docHandle) {
	if d.doc.IsDispatching() {
		L.RaiseError("%v", model.ErrReentrantApply)
	}
}

// livetree.document() -> document
func (h *Host) newDocument(L *lua.LState) int {
	h.tick(L)
	d := &docHandle{doc: model.NewDocument(model.WithLogger(h.logger.Named("document")))}
	if h.journalSize > 0 {
		d.journal = tracking.NewTracker(
			tracking.WithMaxChanges(h.journalSize),
			tracking.WithLogger(h.logger.Named("journal")),
		)
		if err := d.journal.Attach(d.doc); err != nil {
			L.RaiseError("%v", err)
		}
	}
	h.docs = append(h.docs, d)

	ud := L.NewUserData()
	ud.Value = d
	L.SetMetatable(ud, L.GetTypeMetatable(documentType))
	L.Push(ud)
	return 1
}

// doc:create_root(name)
func (h *Host) createRoot(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	if _, err := d.doc.CreateRoot(L.CheckString(2)); err != nil {
		L.RaiseError("create_root: %v", err)
	}
	return 0
}

// doc:roots() -> {name, ...}
func (h *Host) roots(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	tbl := L.NewTable()
	for _, root := range d.doc.Roots() {
		tbl.Append(lua.LString(root.Name()))
	}
	L.Push(tbl)
	return 1
}

// doc:load(root, path, markup) -> start_path, end_path | nil
// Inserts markup and returns the range its markers denote.
func (h *Host) load(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	checkEditable(L, d)
	at := checkPosition(L, d, 2)
	r, err := notation.Load(d.doc, at, L.CheckString(4))
	if err != nil {
		L.RaiseError("load: %v", err)
		return 0
	}
	if r == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(pathTable(L, r.Start().Path()))
	L.Push(pathTable(L, r.End().Path()))
	return 2
}

// doc:insert(root, path, markup)
func (h *Host) insert(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	checkEditable(L, d)
	at := checkPosition(L, d, 2)
	f, err := notation.Parse(L.CheckString(4))
	if err != nil {
		L.RaiseError("insert: %v", err)
		return 0
	}
	if _, err := d.doc.Insert(at, f.Nodes...); err != nil {
		L.RaiseError("insert: %v", err)
	}
	return 0
}

// doc:remove(root, path, how_many)
func (h *Host) remove(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	checkEditable(L, d)
	at := checkPosition(L, d, 2)
	if _, err := d.doc.Remove(at, L.CheckInt(4)); err != nil {
		L.RaiseError("remove: %v", err)
	}
	return 0
}

// doc:move(root, path, how_many, target_root, target_path)
func (h *Host) move(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	checkEditable(L, d)
	source := checkPosition(L, d, 2)
	howMany := L.CheckInt(4)
	target := checkPosition(L, d, 5)
	if _, err := d.doc.Move(source, howMany, target); err != nil {
		L.RaiseError("move: %v", err)
	}
	return 0
}

// doc:live_range(root, start_path, end_path [, name]) -> range
func (h *Host) liveRange(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	name := L.CheckString(2)
	start := checkPosition(L, d, 2)
	root, _ := d.doc.Root(name)
	end, err := model.NewPosition(root, checkPath(L, 4))
	if err != nil {
		L.RaiseError("live_range: %v", err)
		return 0
	}
	lr, err := liverange.New(start, end, h.rangeOptions(L.OptString(5, ""))...)
	if err != nil {
		L.RaiseError("live_range: %v", err)
		return 0
	}
	d.ranges = append(d.ranges, lr)

	ud := L.NewUserData()
	ud.Value = lr
	L.SetMetatable(ud, L.GetTypeMetatable(liveRangeType))
	L.Push(ud)
	return 1
}

// doc:markup(root [, range]) -> string
func (h *Host) markup(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	name := L.CheckString(2)
	root, ok := d.doc.Root(name)
	if !ok {
		L.ArgError(2, "unknown root "+name)
		return 0
	}
	var r *model.Range
	if L.GetTop() >= 3 && L.Get(3) != lua.LNil {
		rng := checkRange(L, 3).Range()
		r = &rng
	}
	L.Push(lua.LString(notation.Stringify(root, r)))
	return 1
}

// doc:version() -> number
func (h *Host) version(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	L.Push(lua.LNumber(d.doc.Version()))
	return 1
}

func checkJournal(L *lua.LState, d *docHandle) *tracking.Tracker {
	if d.journal == nil {
		L.RaiseError("journal is disabled")
	}
	return d.journal
}

// doc:mark(name) -> revision
func (h *Host) mark(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	m := checkJournal(L, d).Mark(L.CheckString(2))
	L.Push(lua.LNumber(m.Revision))
	return 1
}

// doc:changes([mark]) -> {description, ...}
// Lists recorded changes, all of them or those after the named mark.
func (h *Host) changes(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	journal := checkJournal(L, d)

	var entries []tracking.Entry
	if name := L.OptString(2, ""); name != "" {
		var err error
		if entries, err = journal.ChangesSinceMark(name); err != nil {
			L.RaiseError("changes: %s: %v", name, err)
			return 0
		}
	} else {
		entries, _ = journal.ChangesSince(journal.OldestRevision())
	}

	tbl := L.CreateTable(len(entries), 0)
	for _, e := range entries {
		tbl.Append(lua.LString(e.String()))
	}
	L.Push(tbl)
	return 1
}

// doc:summary() -> string
func (h *Host) summary(L *lua.LState) int {
	h.tick(L)
	d := checkDocument(L, 1)
	journal := checkJournal(L, d)
	L.Push(lua.LString(journal.Summary(journal.OldestRevision())))
	return 1
}

// range:start() -> root, path
func (h *Host) rangeStart(L *lua.LState) int {
	h.tick(L)
	r := checkRange(L, 1)
	L.Push(lua.LString(r.Root().Name()))
	L.Push(pathTable(L, r.Start().Path()))
	return 2
}

// range:finish() -> root, path
func (h *Host) rangeFinish(L *lua.LState) int {
	h.tick(L)
	r := checkRange(L, 1)
	L.Push(lua.LString(r.Root().Name()))
	L.Push(pathTable(L, r.End().Path()))
	return 2
}

// range:name() -> string
func (h *Host) rangeName(L *lua.LState) int {
	L.Push(lua.LString(checkRange(L, 1).Name()))
	return 1
}

// range:is_collapsed() -> bool
func (h *Host) rangeIsCollapsed(L *lua.LState) int {
	L.Push(lua.LBool(checkRange(L, 1).IsCollapsed()))
	return 1
}

// range:is_detached() -> bool
func (h *Host) rangeIsDetached(L *lua.LState) int {
	L.Push(lua.LBool(checkRange(L, 1).IsDetached()))
	return 1
}

// range:detach()
func (h *Host) rangeDetach(L *lua.LState) int {
	h.tick(L)
	checkRange(L, 1).Detach()
	return 0
}

// range:updates() -> number
func (h *Host) rangeUpdates(L *lua.LState) int {
	L.Push(lua.LNumber(checkRange(L, 1).Updates()))
	return 1
}

// range:on_change(fn)
// fn(range, old_start, old_end) runs after the boundaries moved.
func (h *Host) rangeOnChange(L *lua.LState) int {
	h.tick(L)
	ud := L.CheckUserData(1)
	r := checkRange(L, 1)
	fn := L.CheckFunction(2)
	if r.IsDetached() {
		L.RaiseError("on_change: %v", liverange.ErrDetached)
		return 0
	}
	r.OnChange(func(_ *liverange.LiveRange, old model.Range) {
		L.Push(fn)
		L.Push(ud)
		L.Push(pathTable(L, old.Start().Path()))
		L.Push(pathTable(L, old.End().Path()))
		L.Call(3, 0)
	})
	return 0
}
