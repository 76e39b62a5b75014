package schema

import (
	"fmt"

	"github.com/calliope-studio/calliope/internal/entity"
)

// Validation error codes (E200-E299)
const (
	ErrShape = "E200" // document does not match the bundle schema

	// Identity errors (E201-E209)
	ErrDuplicateID = "E201" // duplicate entity id within a collection

	// Timeline errors (E210-E219)
	ErrPositionGap = "E210" // shot positions are not contiguous from 0

	// Reference errors (E220-E229)
	ErrUnknownAsset     = "E220" // shot references an asset not in the bundle
	ErrUnknownWorld     = "E221" // story references a world not in the bundle
	ErrUnknownCharacter = "E222" // story references a character not in the bundle
	ErrUnknownShot      = "E223" // selected shot not in the bundle
)

// ValidationError represents a document validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateStructure checks relationships the shape schema cannot express.
// Returns all errors found (does not fail-fast).
func ValidateStructure(b entity.Bundle) []ValidationError {
	var errs []ValidationError

	shotIDs := make(map[string]bool)
	for i, s := range b.Shots {
		if shotIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("shots[%d].id", i),
				Message: fmt.Sprintf("duplicate shot id: %q", s.ID),
				Code:    ErrDuplicateID,
			})
		}
		shotIDs[s.ID] = true
	}

	assetIDs := make(map[string]bool)
	for i, a := range b.Assets {
		if assetIDs[a.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("assets[%d].id", i),
				Message: fmt.Sprintf("duplicate asset id: %q", a.ID),
				Code:    ErrDuplicateID,
			})
		}
		assetIDs[a.ID] = true
	}

	characterIDs := make(map[string]bool)
	for i, c := range b.Characters {
		if characterIDs[c.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("characters[%d].id", i),
				Message: fmt.Sprintf("duplicate character id: %q", c.ID),
				Code:    ErrDuplicateID,
			})
		}
		characterIDs[c.ID] = true
	}

	worldIDs := make(map[string]bool)
	for i, w := range b.Worlds {
		if worldIDs[w.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("worlds[%d].id", i),
				Message: fmt.Sprintf("duplicate world id: %q", w.ID),
				Code:    ErrDuplicateID,
			})
		}
		worldIDs[w.ID] = true
	}

	storyIDs := make(map[string]bool)
	for i, st := range b.Stories {
		if storyIDs[st.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("stories[%d].id", i),
				Message: fmt.Sprintf("duplicate story id: %q", st.ID),
				Code:    ErrDuplicateID,
			})
		}
		storyIDs[st.ID] = true
	}

	// Shot positions must be exactly 0..n-1 in document order.
	for i, s := range b.Shots {
		if s.Position != i {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("shots[%d].position", i),
				Message: fmt.Sprintf("expected position %d, got %d", i, s.Position),
				Code:    ErrPositionGap,
			})
		}
	}

	for i, s := range b.Shots {
		for j, aid := range s.AssetIDs {
			if !assetIDs[aid] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("shots[%d].asset_ids[%d]", i, j),
					Message: fmt.Sprintf("unknown asset: %q", aid),
					Code:    ErrUnknownAsset,
				})
			}
		}
	}

	for i, st := range b.Stories {
		if st.WorldID != "" && !worldIDs[st.WorldID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("stories[%d].world_id", i),
				Message: fmt.Sprintf("unknown world: %q", st.WorldID),
				Code:    ErrUnknownWorld,
			})
		}
		for j, cid := range st.CharacterIDs {
			if !characterIDs[cid] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("stories[%d].character_ids[%d]", i, j),
					Message: fmt.Sprintf("unknown character: %q", cid),
					Code:    ErrUnknownCharacter,
				})
			}
		}
	}

	if b.SelectedShotID != "" && !shotIDs[b.SelectedShotID] {
		errs = append(errs, ValidationError{
			Field:   "selected_shot_id",
			Message: fmt.Sprintf("unknown shot: %q", b.SelectedShotID),
			Code:    ErrUnknownShot,
		})
	}

	return errs
}
