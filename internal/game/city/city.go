// Package city derives the visual presentation of the player's districts
// from progression state.
package city

import "github.com/louisbranch/innercity/internal/game/player"

// Theme describes a district's fixed look and narrative framing.
type Theme struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Themes is the fixed district theme table.
var Themes = map[string]Theme{
	"oasis":   {Name: "Oasis", Color: "#4caf7d", Description: "Health and recovery"},
	"forum":   {Name: "Forum", Color: "#c96f4a", Description: "Relationships and community"},
	"citadel": {Name: "Citadel", Color: "#5a6b8c", Description: "Work and mastery"},
	"arsenal": {Name: "Arsenal", Color: "#8c7a3f", Description: "Finance and resources"},
	"garden":  {Name: "Garden", Color: "#7d5ba6", Description: "Personal growth"},
}

// VisualState is the rendered look of one district. Fog here is the base
// density from progression; boss fog overlays are applied on top by the
// serving layer.
type VisualState struct {
	Brightness float64 `json:"brightness"`
	Lights     int     `json:"lights"`
	FogDensity float64 `json:"fog_density"`
}

// Visual derives a district's visual state. Locked districts stay dim;
// unlocked districts brighten and shed fog as their level grows.
func Visual(district *player.DistrictState) VisualState {
	if district == nil {
		return VisualState{Brightness: 0.1, FogDensity: 0.8}
	}

	brightness := 0.1
	if district.Unlocked {
		brightness = 0.3 + float64(district.Level)*0.1
		if brightness > 1.0 {
			brightness = 1.0
		}
	}

	fog := 0.8 - float64(district.Level)*0.1
	if fog < 0.2 {
		fog = 0.2
	}

	return VisualState{
		Brightness: brightness,
		Lights:     district.Level * 2,
		FogDensity: fog,
	}
}
