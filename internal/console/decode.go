package console

import (
	"bufio"
	"io"

	"github.com/stackvity/vterm/internal/session"
)

const (
	keyCtrlA     = 0x01
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyCtrlE     = 0x05
	keyCtrlH     = 0x08
	keyTab       = '\t'
	keyLF        = '\n'
	keyCtrlL     = 0x0c
	keyCR        = '\r'
	keyEscape    = 0x1b
	keyBackspace = 0x7f
)

// Decoder turns raw terminal input into key presses.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next blocks until a key press is decoded. Ctrl+D and the end of input both
// return io.EOF. Bytes that map to no key are skipped.
func (d *Decoder) Next() (session.Key, error) {
	for {
		r, _, err := d.r.ReadRune()
		if err != nil {
			return session.Key{}, err
		}
		switch r {
		case keyCR, keyLF:
			return session.Press(session.KeyEnter), nil
		case keyTab:
			return session.Press(session.KeyTab), nil
		case keyBackspace, keyCtrlH:
			return session.Press(session.KeyBackspace), nil
		case keyCtrlC:
			return session.Press(session.KeyInterrupt), nil
		case keyCtrlD:
			return session.Key{}, io.EOF
		case keyCtrlL:
			return session.Press(session.KeyClearScreen), nil
		case keyCtrlA:
			return session.Press(session.KeyHome), nil
		case keyCtrlE:
			return session.Press(session.KeyEnd), nil
		case keyEscape:
			k, ok, err := d.escape()
			if err != nil {
				return session.Key{}, err
			}
			if ok {
				return k, nil
			}
		default:
			if r >= 0x20 {
				return session.Rune(r), nil
			}
		}
	}
}

// escape decodes the rest of a CSI ("ESC [") or SS3 ("ESC O") sequence. A
// lone escape, or a sequence naming no known key, yields ok == false.
func (d *Decoder) escape() (session.Key, bool, error) {
	intro, _, err := d.r.ReadRune()
	if err != nil {
		return session.Key{}, false, err
	}
	switch intro {
	case '[':
		return d.csi()
	case 'O':
		final, _, err := d.r.ReadRune()
		if err != nil {
			return session.Key{}, false, err
		}
		k, ok := finalKey(final)
		return k, ok, nil
	default:
		if err := d.r.UnreadRune(); err != nil {
			return session.Key{}, false, err
		}
		return session.Key{}, false, nil
	}
}

func (d *Decoder) csi() (session.Key, bool, error) {
	var param []rune
	for {
		r, _, err := d.r.ReadRune()
		if err != nil {
			return session.Key{}, false, err
		}
		if r >= 0x40 && r <= 0x7e {
			if r == '~' {
				k, ok := tildeKey(string(param))
				return k, ok, nil
			}
			k, ok := finalKey(r)
			return k, ok, nil
		}
		param = append(param, r)
	}
}

func finalKey(r rune) (session.Key, bool) {
	switch r {
	case 'A':
		return session.Press(session.KeyUp), true
	case 'B':
		return session.Press(session.KeyDown), true
	case 'C':
		return session.Press(session.KeyRight), true
	case 'D':
		return session.Press(session.KeyLeft), true
	case 'H':
		return session.Press(session.KeyHome), true
	case 'F':
		return session.Press(session.KeyEnd), true
	}
	return session.Key{}, false
}

func tildeKey(param string) (session.Key, bool) {
	switch param {
	case "1", "7":
		return session.Press(session.KeyHome), true
	case "3":
		return session.Press(session.KeyDelete), true
	case "4", "8":
		return session.Press(session.KeyEnd), true
	}
	return session.Key{}, false
}
