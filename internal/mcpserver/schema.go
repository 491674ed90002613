package mcpserver

import (
	"fmt"

	"lane-games/internal/game"
)

func configFromArgs(args map[string]any) (game.Config, error) {
	var cfg game.Config
	for _, f := range game.AmountFields() {
		name := string(f)
		raw, ok := args[name]
		if !ok || raw == nil {
			continue
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case float64:
			s = fmt.Sprint(v)
		default:
			return cfg, fmt.Errorf("%w: %s must be a dollar amount", game.ErrInvalidInput, name)
		}
		if s == "" {
			continue
		}
		cents, err := game.ParseDollars(s)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		if err := cfg.SetAmount(f, cents); err != nil {
			return cfg, err
		}
	}
	if tb, ok := args["tie_break"].(string); ok {
		cfg.TieBreak = game.TieBreak(tb)
	}
	return cfg, nil
}

func modeNames() []string {
	modes := game.Modes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = string(m)
	}
	return out
}
