// Package script runs scenes written in Lua.
//
// A script builds its tilesets and backgrounds when loaded, through the
// global gba table, and may define a global update(frame) function, called
// once per frame, during vblank:
//
//	local ts = gba.tileset("4bpp", 2, function(tile, x, y) return tile * 3 end)
//	gba.palette(0, {0, gba.rgb(31, 0, 0), gba.rgb(0, 31, 0), gba.rgb(0, 0, 31)})
//	local bg = gba.regular(0, "32x32", "4bpp")
//	bg:set_tile(0, 0, ts, 1)
//
//	function update(frame)
//	  bg:scroll(frame, 0)
//	  bg:commit()
//	  bg:show()
//	end
package script

import (
	"fmt"
	"image"

	lua "github.com/yuin/gopher-lua"

	"gbahal/emu/log"
	"gbahal/gba"
	"gbahal/gba/display"
	"gbahal/gba/display/tiled"
	"gbahal/scenes"
)

func init() {
	scenes.Register("script", func(g *gba.GBA, opts scenes.Options) (scenes.Scene, error) {
		if opts.Script == "" {
			return nil, fmt.Errorf("script scene needs a script file")
		}
		return Load(g, opts.Script)
	})
}

const (
	bgTypeName      = "gba.background"
	tilesetTypeName = "gba.tileset"
)

// Script is a Lua scene.
type Script struct {
	g   *gba.GBA
	L   *lua.LState
	bgs []*tiled.RegularBackground

	frame  int
	cur    *tiled.Frame // frame being prepared, only set during update
	update *lua.LFunction
	err    error
}

// Load runs the script at path.
func Load(g *gba.GBA, path string) (*Script, error) {
	s := newScript(g)
	if err := s.L.DoFile(path); err != nil {
		s.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	s.init()
	log.ModScript.InfoZ("script loaded").String("path", path).Bool("update", s.update != nil).End()
	return s, nil
}

// LoadString runs the script in src.
func LoadString(g *gba.GBA, src string) (*Script, error) {
	s := newScript(g)
	if err := s.L.DoString(src); err != nil {
		s.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	s.init()
	return s, nil
}

func newScript(g *gba.GBA) *Script {
	s := &Script{g: g, L: lua.NewState()}

	mt := s.L.NewTypeMetatable(bgTypeName)
	s.L.SetField(mt, "__index", s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"set_tile": s.bgSetTile,
		"scroll":   s.bgScroll,
		"commit":   s.bgCommit,
		"show":     s.bgShow,
		"clear":    s.bgClear,
		"close":    s.bgClose,
	}))
	s.L.NewTypeMetatable(tilesetTypeName)

	s.L.SetGlobal("gba", s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"tileset": s.tileset,
		"palette": s.palette,
		"rgb":     rgb,
		"regular": s.regular,
		"stats":   s.stats,
	}))
	return s
}

func (s *Script) init() {
	if fn, ok := s.L.GetGlobal("update").(*lua.LFunction); ok {
		s.update = fn
	}
}

// Update calls the script update function. After an error, the script is
// stopped and its backgrounds are no longer shown.
func (s *Script) Update(f *tiled.Frame) {
	if s.update == nil || s.err != nil {
		return
	}
	s.frame++
	s.cur = f
	defer func() { s.cur = nil }()

	err := s.L.CallByParam(lua.P{Fn: s.update, NRet: 0, Protect: true}, lua.LNumber(s.frame))
	if err != nil {
		s.err = err
		log.ModScript.ErrorZ("update failed").Int("frame", s.frame).Error("err", err).End()
	}
}

// Err returns the error that stopped the script, if any.
func (s *Script) Err() error { return s.err }

// Close releases the backgrounds created by the script and the Lua state.
func (s *Script) Close() {
	for _, bg := range s.bgs {
		bg.Close()
	}
	s.bgs = nil
	s.L.Close()
}

func parseFormat(L *lua.LState, n int) tiled.TileFormat {
	switch str := L.CheckString(n); str {
	case "4bpp":
		return tiled.FourBpp
	case "8bpp":
		return tiled.EightBpp
	default:
		L.ArgError(n, fmt.Sprintf("unknown tile format %q", str))
	}
	return 0
}

var bgSizes = map[string]tiled.RegularBackgroundSize{
	"32x32": tiled.Background32x32,
	"64x32": tiled.Background64x32,
	"32x64": tiled.Background32x64,
	"64x64": tiled.Background64x64,
}

// gba.tileset(format, n, fn) builds n tiles, fn(tile, x, y) returning the
// colour of each pixel.
func (s *Script) tileset(L *lua.LState) int {
	format := parseFormat(L, 1)
	n := L.CheckInt(2)
	fn := L.CheckFunction(3)
	if n <= 0 {
		L.ArgError(2, "tile count must be positive")
	}

	sz := format.TileSize()
	data := make([]byte, n*sz)
	for tile := range n {
		for y := range 8 {
			for x := range 8 {
				if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
					lua.LNumber(tile), lua.LNumber(x), lua.LNumber(y)); err != nil {
					L.RaiseError("tileset: %v", err)
				}
				c := byte(lua.LVAsNumber(L.Get(-1)))
				L.Pop(1)

				i := y*8 + x
				if format == tiled.EightBpp {
					data[tile*sz+i] = c
					continue
				}
				data[tile*sz+i/2] |= (c & 0xF) << (4 * (i & 1))
			}
		}
	}

	ud := L.NewUserData()
	ud.Value = tiled.NewTileSet(data, format)
	L.SetMetatable(ud, L.GetTypeMetatable(tilesetTypeName))
	L.Push(ud)
	return 1
}

// gba.palette(bank, colours) installs up to 16 colours in a palette bank.
func (s *Script) palette(L *lua.LState) int {
	bank := L.CheckInt(1)
	tbl := L.CheckTable(2)
	if bank < 0 || bank >= 16 {
		L.ArgError(1, "palette bank must be in [0,16)")
	}
	if tbl.Len() > 16 {
		L.ArgError(2, "a palette has 16 colours")
	}
	var p display.Palette16
	for i := range tbl.Len() {
		p[i] = uint16(lua.LVAsNumber(tbl.RawGetInt(i + 1)))
	}
	s.g.Tiled.VRAM.SetBackgroundPalette(bank, p)
	return 0
}

// gba.rgb(r, g, b) returns a colour from 5-bit components.
func rgb(L *lua.LState) int {
	c := display.RGB15(uint8(L.CheckInt(1)), uint8(L.CheckInt(2)), uint8(L.CheckInt(3)))
	L.Push(lua.LNumber(c))
	return 1
}

// gba.regular(priority, size, format) creates a regular background.
func (s *Script) regular(L *lua.LState) int {
	prio := L.CheckInt(1)
	if prio < 0 || prio > 3 {
		L.ArgError(1, "priority must be in [0,3]")
	}
	size, ok := bgSizes[L.CheckString(2)]
	if !ok {
		L.ArgError(2, "size must be one of 32x32, 64x32, 32x64, 64x64")
	}
	format := parseFormat(L, 3)

	bg := s.g.Tiled.NewRegularBackground(display.Priority(prio), size, format)
	s.bgs = append(s.bgs, bg)

	ud := L.NewUserData()
	ud.Value = bg
	L.SetMetatable(ud, L.GetTypeMetatable(bgTypeName))
	L.Push(ud)
	return 1
}

// gba.stats() returns a table with the tile store counters.
func (s *Script) stats(L *lua.LState) int {
	st := s.g.Tiled.VRAM.Stats()
	tbl := L.NewTable()
	L.SetField(tbl, "resident", lua.LNumber(st.Resident))
	L.SetField(tbl, "garbage", lua.LNumber(st.Garbage))
	L.SetField(tbl, "references", lua.LNumber(st.References))
	L.Push(tbl)
	return 1
}

func checkBackground(L *lua.LState) *tiled.RegularBackground {
	if bg, ok := L.CheckUserData(1).Value.(*tiled.RegularBackground); ok {
		return bg
	}
	L.ArgError(1, "background expected")
	return nil
}

func checkTileSet(L *lua.LState, n int) tiled.TileSet {
	if ts, ok := L.CheckUserData(n).Value.(tiled.TileSet); ok {
		return ts
	}
	L.ArgError(n, "tileset expected")
	return tiled.TileSet{}
}

// bg:set_tile(x, y, tileset, id [, hflip, vflip, palette]) sets a cell. A
// nil id empties it.
func (s *Script) bgSetTile(L *lua.LState) int {
	bg := checkBackground(L)
	pos := image.Pt(L.CheckInt(2), L.CheckInt(3))
	ts := checkTileSet(L, 4)

	setting := tiled.Blank
	if L.Get(5) != lua.LNil {
		id := L.CheckInt(5)
		if id < 0 || id >= ts.NumTiles() {
			L.ArgError(5, fmt.Sprintf("tile %d out of range", id))
		}
		setting = tiled.NewTileSetting(uint16(id), L.OptBool(6, false), L.OptBool(7, false), uint8(L.OptInt(8, 0)))
	}
	if ts.Format() != bg.Format() {
		L.RaiseError("set_tile: %v tileset on a %v background", ts.Format(), bg.Format())
	}
	bg.SetTile(pos, ts, setting)
	return 0
}

// bg:scroll(x, y) sets the scroll position.
func (s *Script) bgScroll(L *lua.LState) int {
	bg := checkBackground(L)
	bg.SetScrollPos(image.Pt(L.CheckInt(2), L.CheckInt(3)))
	return 0
}

func (s *Script) bgCommit(L *lua.LState) int {
	checkBackground(L).Commit()
	return 0
}

// bg:show() displays the background in the current frame and returns its
// layer number. It can only be called from update.
func (s *Script) bgShow(L *lua.LState) int {
	bg := checkBackground(L)
	if s.cur == nil {
		L.RaiseError("show called outside of update")
	}
	L.Push(lua.LNumber(bg.Show(s.cur)))
	return 1
}

func (s *Script) bgClear(L *lua.LState) int {
	checkBackground(L).Clear()
	return 0
}

func (s *Script) bgClose(L *lua.LState) int {
	bg := checkBackground(L)
	bg.Close()
	for i, b := range s.bgs {
		if b == bg {
			s.bgs = append(s.bgs[:i], s.bgs[i+1:]...)
			break
		}
	}
	return 0
}
