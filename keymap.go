package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Binding is what a key code decodes to
type Binding struct {
	Player PlayerID
	Intent Intent
}

// Keymap maps browser key codes to bindings
type Keymap map[int]Binding

// DefaultKeymap is the shared-keyboard layout: arrows and numpad 0 for
// player one, J ; O and space for player two.
func DefaultKeymap() Keymap {
	return Keymap{
		37:  {PlayerOne, RotateLeft},
		39:  {PlayerOne, RotateRight},
		38:  {PlayerOne, Thrust},
		96:  {PlayerOne, Fire},
		186: {PlayerTwo, RotateLeft},
		74:  {PlayerTwo, RotateRight},
		79:  {PlayerTwo, Thrust},
		32:  {PlayerTwo, Fire},
	}
}

// Decode looks up a key code
func (k Keymap) Decode(code int) (Binding, bool) {
	b, ok := k[code]
	return b, ok
}

// ParseKeymap reads "code=player:intent" pairs separated by commas, e.g.
// "37=1:rotate_left,32=2:fire".
func ParseKeymap(s string) (Keymap, error) {
	km := make(Keymap)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		codeStr, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("keymap entry %q: missing '='", entry)
		}
		playerStr, intentStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("keymap entry %q: missing ':'", entry)
		}
		code, err := strconv.Atoi(strings.TrimSpace(codeStr))
		if err != nil {
			return nil, fmt.Errorf("keymap entry %q: %w", entry, err)
		}
		player, err := ParsePlayerID(strings.TrimSpace(playerStr))
		if err != nil {
			return nil, fmt.Errorf("keymap entry %q: %w", entry, err)
		}
		intent, err := ParseIntent(strings.TrimSpace(intentStr))
		if err != nil {
			return nil, fmt.Errorf("keymap entry %q: %w", entry, err)
		}
		km[code] = Binding{Player: player, Intent: intent}
	}
	if len(km) == 0 {
		return nil, fmt.Errorf("%w: empty keymap", ErrInvalidConfig)
	}
	return km, nil
}

// String renders the keymap in ParseKeymap's format, ordered by key code
func (k Keymap) String() string {
	codes := make([]int, 0, len(k))
	for c := range k {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		b := k[c]
		parts = append(parts, fmt.Sprintf("%d=%d:%s", c, int(b.Player), b.Intent))
	}
	return strings.Join(parts, ",")
}
