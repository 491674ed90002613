package session

import "lane-games/internal/game"

type CreateRequest struct {
	Mode   string      `json:"mode"`
	Config game.Config `json:"config"`
	// HostPlays defaults to true.
	HostPlays   *bool  `json:"host_plays,omitempty"`
	HostName    string `json:"host_name,omitempty"`
	Entitlement string `json:"-"`
}

type SweepResult struct {
	Deleted int `json:"deleted"`
}
