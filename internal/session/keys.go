package session

// KeyType identifies a key press delivered to HandleKey.
type KeyType uint8

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyBackspace
	KeyDelete
	KeyInterrupt   // Ctrl+C
	KeyClearScreen // Ctrl+L
)

var keyNames = map[KeyType]string{
	KeyRune:        "rune",
	KeyEnter:       "enter",
	KeyTab:         "tab",
	KeyUp:          "up",
	KeyDown:        "down",
	KeyLeft:        "left",
	KeyRight:       "right",
	KeyHome:        "home",
	KeyEnd:         "end",
	KeyBackspace:   "backspace",
	KeyDelete:      "delete",
	KeyInterrupt:   "interrupt",
	KeyClearScreen: "clear-screen",
}

func (k KeyType) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Key is one decoded key press. Rune is set only for KeyRune.
type Key struct {
	Type KeyType
	Rune rune
}

// Rune returns the key press that types r.
func Rune(r rune) Key { return Key{Type: KeyRune, Rune: r} }

// Press returns a key press without a rune.
func Press(t KeyType) Key { return Key{Type: t} }
