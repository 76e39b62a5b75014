// Package entity defines the studio data model: shots, assets, characters,
// worlds, stories, tasks, and the project record that owns them.
//
// Every entity is a plain record with two obligations:
//
//   - Clone() returns a structurally independent deep copy. Snapshots and
//     branches rely on this; a clone must never alias the original's nested
//     slices or maps.
//   - CanonicalMap() projects the entity onto map[string]any for canonical
//     JSON serialization (see internal/canon).
//
// Durations and sizes are integer milliseconds/pixels throughout. Floats are
// forbidden in canonical JSON, and keeping the model integer-only means every
// entity is canonically representable without a lossy conversion step.
package entity

import "maps"

// Shot is a single timeline unit: one continuous take within a scene.
type Shot struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	SceneID     string            `json:"scene_id,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
	Position    int               `json:"position"`
	AssetIDs    []string          `json:"asset_ids,omitempty"`
	Effects     []Effect          `json:"effects,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Effect is a named post-processing effect applied to a shot.
// Params are integer-valued (percentages, pixel offsets, frame counts).
type Effect struct {
	Name   string           `json:"name"`
	Params map[string]int64 `json:"params,omitempty"`
}

// Clone returns a deep copy of the shot. Nested slices and maps are copied
// element by element so later mutation of either side never leaks across.
func (s Shot) Clone() Shot {
	out := s
	if s.AssetIDs != nil {
		out.AssetIDs = append([]string(nil), s.AssetIDs...)
	}
	if s.Effects != nil {
		out.Effects = make([]Effect, len(s.Effects))
		for i, e := range s.Effects {
			out.Effects[i] = e.Clone()
		}
	}
	if s.Labels != nil {
		out.Labels = maps.Clone(s.Labels)
	}
	return out
}

// Clone returns a deep copy of the effect.
func (e Effect) Clone() Effect {
	out := e
	if e.Params != nil {
		out.Params = maps.Clone(e.Params)
	}
	return out
}

// CanonicalMap projects the shot for canonical JSON serialization.
func (s Shot) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":          s.ID,
		"title":       s.Title,
		"duration_ms": s.DurationMs,
		"position":    s.Position,
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.SceneID != "" {
		m["scene_id"] = s.SceneID
	}
	if len(s.AssetIDs) > 0 {
		m["asset_ids"] = s.AssetIDs
	}
	if len(s.Effects) > 0 {
		effects := make([]any, len(s.Effects))
		for i, e := range s.Effects {
			effects[i] = e.canonicalMap()
		}
		m["effects"] = effects
	}
	if len(s.Labels) > 0 {
		labels := make(map[string]any, len(s.Labels))
		for k, v := range s.Labels {
			labels[k] = v
		}
		m["labels"] = labels
	}
	return m
}

func (e Effect) canonicalMap() map[string]any {
	m := map[string]any{"name": e.Name}
	if len(e.Params) > 0 {
		params := make(map[string]any, len(e.Params))
		for k, v := range e.Params {
			params[k] = v
		}
		m["params"] = params
	}
	return m
}

// Asset is a media resource (image, audio clip, model) referenced by shots.
type Asset struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"` // "image", "audio", "video", "model"
	Name      string `json:"name"`
	URI       string `json:"uri,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Clone returns a copy of the asset. Assets hold no nested references, so a
// value copy is already independent; the method exists for uniformity with
// the other entities.
func (a Asset) Clone() Asset {
	return a
}

// CanonicalMap projects the asset for canonical JSON serialization.
func (a Asset) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":   a.ID,
		"kind": a.Kind,
		"name": a.Name,
	}
	if a.URI != "" {
		m["uri"] = a.URI
	}
	if a.SizeBytes > 0 {
		m["size_bytes"] = a.SizeBytes
	}
	return m
}

// Character is a story character with free-form trait fields.
type Character struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Role   string            `json:"role,omitempty"`
	Traits map[string]string `json:"traits,omitempty"`
}

// Clone returns a deep copy of the character.
func (c Character) Clone() Character {
	out := c
	if c.Traits != nil {
		out.Traits = maps.Clone(c.Traits)
	}
	return out
}

// CanonicalMap projects the character for canonical JSON serialization.
func (c Character) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":   c.ID,
		"name": c.Name,
	}
	if c.Role != "" {
		m["role"] = c.Role
	}
	if len(c.Traits) > 0 {
		traits := make(map[string]any, len(c.Traits))
		for k, v := range c.Traits {
			traits[k] = v
		}
		m["traits"] = traits
	}
	return m
}

// World is a setting shared by stories.
type World struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Clone returns a deep copy of the world.
func (w World) Clone() World {
	out := w
	if w.Tags != nil {
		out.Tags = append([]string(nil), w.Tags...)
	}
	return out
}

// Story is a narrative arc within a world, referencing characters by ID.
type Story struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	WorldID      string   `json:"world_id,omitempty"`
	CharacterIDs []string `json:"character_ids,omitempty"`
	Synopsis     string   `json:"synopsis,omitempty"`
}

// Clone returns a deep copy of the story.
func (s Story) Clone() Story {
	out := s
	if s.CharacterIDs != nil {
		out.CharacterIDs = append([]string(nil), s.CharacterIDs...)
	}
	return out
}

// TaskStatus enumerates the lifecycle states of a generation task.
type TaskStatus string

const (
	TaskQueued  TaskStatus = "queued"
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// ValidTaskStatuses defines allowed task states.
var ValidTaskStatuses = map[TaskStatus]bool{
	TaskQueued:  true,
	TaskRunning: true,
	TaskDone:    true,
	TaskFailed:  true,
}

// Task is a queued content-generation job (wizard output, render, export).
type Task struct {
	ID       string     `json:"id"`
	Kind     string     `json:"kind"` // "generate_shot", "render", "export"
	TargetID string     `json:"target_id,omitempty"`
	Status   TaskStatus `json:"status"`
	Seq      int64      `json:"seq"` // Logical clock position at enqueue
	Error    string     `json:"error,omitempty"`
}

// Clone returns a copy of the task.
func (t Task) Clone() Task {
	return t
}

// CanonicalMap projects the task for canonical JSON serialization.
func (t Task) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":     t.ID,
		"kind":   t.Kind,
		"status": string(t.Status),
		"seq":    t.Seq,
	}
	if t.TargetID != "" {
		m["target_id"] = t.TargetID
	}
	if t.Error != "" {
		m["error"] = t.Error
	}
	return m
}

// Project is the root record owning all entity collections.
// ParentID and ParentFingerprint record branch lineage: a branched project
// points at the project it was forked from and the content fingerprint of
// that project at fork time.
type Project struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	ParentID          string `json:"parent_id,omitempty"`
	ParentFingerprint string `json:"parent_fingerprint,omitempty"`
	CreatedAtMs       int64  `json:"created_at_ms"`
}

// Clone returns a copy of the project.
func (p Project) Clone() Project {
	return p
}

// CanonicalMap projects the project for canonical JSON serialization.
func (p Project) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"created_at_ms": p.CreatedAtMs,
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if p.ParentID != "" {
		m["parent_id"] = p.ParentID
	}
	if p.ParentFingerprint != "" {
		m["parent_fingerprint"] = p.ParentFingerprint
	}
	return m
}
