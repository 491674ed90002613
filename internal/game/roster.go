package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxNameRunes = 40

// ProperName collapses whitespace and title-cases each word.
func ProperName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	return cases.Title(language.English).String(name)
}

func addPlayer(s *Session, rawName, uid string, env Env) (*Player, error) {
	if limit := maxPlayers(s.Mode); limit > 0 && len(s.Players) >= limit {
		return nil, ErrRosterFull
	}
	name := ProperName(rawName)
	if name == "" {
		name = fmt.Sprintf("Player %d", len(s.Players)+1)
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		return nil, fmt.Errorf("%w: name longer than %d characters", ErrInvalidInput, maxNameRunes)
	}
	id := env.now().UnixMilli()
	for s.PlayerIndex(id) >= 0 {
		id++
	}
	s.Players = append(s.Players, Player{ID: id, Name: name, UID: uid})
	return &s.Players[len(s.Players)-1], nil
}

func maxPlayers(m Mode) int {
	if e, ok := engines[m]; ok {
		return e.MaxPlayers()
	}
	return 0
}

// snapshotPlayer copies the identifying fields of p for documents that keep
// their own copy, such as bracket matches.
func snapshotPlayer(p Player) Entrant {
	return Entrant{ID: p.ID, Name: p.Name, UID: p.UID}
}
