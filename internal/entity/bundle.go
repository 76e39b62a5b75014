package entity

// Bundle is a complete, self-contained project document: the project record
// plus every entity collection it owns. Bundles are what the archive loads
// and saves, what exports serialize, and what branching forks.
type Bundle struct {
	Project        Project     `json:"project"`
	Shots          []Shot      `json:"shots,omitempty"`
	Assets         []Asset     `json:"assets,omitempty"`
	Characters     []Character `json:"characters,omitempty"`
	Worlds         []World     `json:"worlds,omitempty"`
	Stories        []Story     `json:"stories,omitempty"`
	SelectedShotID string      `json:"selected_shot_id,omitempty"`
}

// Clone returns a deep copy of the bundle.
func (b Bundle) Clone() Bundle {
	out := Bundle{
		Project:        b.Project.Clone(),
		SelectedShotID: b.SelectedShotID,
	}
	if b.Shots != nil {
		out.Shots = make([]Shot, len(b.Shots))
		for i, s := range b.Shots {
			out.Shots[i] = s.Clone()
		}
	}
	if b.Assets != nil {
		out.Assets = make([]Asset, len(b.Assets))
		for i, a := range b.Assets {
			out.Assets[i] = a.Clone()
		}
	}
	if b.Characters != nil {
		out.Characters = make([]Character, len(b.Characters))
		for i, c := range b.Characters {
			out.Characters[i] = c.Clone()
		}
	}
	if b.Worlds != nil {
		out.Worlds = make([]World, len(b.Worlds))
		for i, w := range b.Worlds {
			out.Worlds[i] = w.Clone()
		}
	}
	if b.Stories != nil {
		out.Stories = make([]Story, len(b.Stories))
		for i, st := range b.Stories {
			out.Stories[i] = st.Clone()
		}
	}
	return out
}

// CanonicalMap projects the bundle for canonical JSON serialization and
// fingerprinting. Collections keep their stored order; shots are already
// position-ordered, which makes the projection deterministic.
func (b Bundle) CanonicalMap() map[string]any {
	m := map[string]any{
		"project": b.Project.CanonicalMap(),
	}
	if len(b.Shots) > 0 {
		shots := make([]any, len(b.Shots))
		for i, s := range b.Shots {
			shots[i] = s.CanonicalMap()
		}
		m["shots"] = shots
	}
	if len(b.Assets) > 0 {
		assets := make([]any, len(b.Assets))
		for i, a := range b.Assets {
			assets[i] = a.CanonicalMap()
		}
		m["assets"] = assets
	}
	if len(b.Characters) > 0 {
		chars := make([]any, len(b.Characters))
		for i, c := range b.Characters {
			chars[i] = c.CanonicalMap()
		}
		m["characters"] = chars
	}
	if len(b.Worlds) > 0 {
		worlds := make([]any, len(b.Worlds))
		for i, w := range b.Worlds {
			wm := map[string]any{"id": w.ID, "name": w.Name}
			if w.Description != "" {
				wm["description"] = w.Description
			}
			if len(w.Tags) > 0 {
				wm["tags"] = w.Tags
			}
			worlds[i] = wm
		}
		m["worlds"] = worlds
	}
	if len(b.Stories) > 0 {
		stories := make([]any, len(b.Stories))
		for i, st := range b.Stories {
			sm := map[string]any{"id": st.ID, "title": st.Title}
			if st.WorldID != "" {
				sm["world_id"] = st.WorldID
			}
			if len(st.CharacterIDs) > 0 {
				sm["character_ids"] = st.CharacterIDs
			}
			if st.Synopsis != "" {
				sm["synopsis"] = st.Synopsis
			}
			stories[i] = sm
		}
		m["stories"] = stories
	}
	if b.SelectedShotID != "" {
		m["selected_shot_id"] = b.SelectedShotID
	}
	return m
}
