// Package branch forks project bundles. A branch is a deep copy of the
// parent's content under fresh identifiers, carrying a content-addressed
// lineage record: the parent's ID plus a fingerprint of the parent's
// document at fork time. The fingerprint stays valid even after the parent
// is edited further, so lineage can always be verified against an export
// taken at the fork point.
package branch

import (
	"fmt"

	"github.com/calliope-studio/calliope/internal/canon"
	"github.com/calliope-studio/calliope/internal/entity"
)

// Result is the outcome of a fork: the new bundle plus its lineage
// fingerprint, which binds (parent id, parent content, child id) into one
// verifiable value.
type Result struct {
	Bundle             entity.Bundle
	ParentFingerprint  string
	LineageFingerprint string
}

// Create forks a parent bundle into a new branch.
//
// Every entity receives a fresh ID from gen, and every internal reference
// (shot asset lists, story character lists, the selected shot) is remapped
// to the new IDs. References to IDs not present in the bundle are kept
// verbatim; they point outside the project and remapping them would break
// them.
func Create(parent entity.Bundle, name string, gen entity.IDGenerator, createdAtMs int64) (Result, error) {
	if parent.Project.ID == "" {
		return Result{}, fmt.Errorf("branch: parent bundle has no project id")
	}
	if name == "" {
		return Result{}, fmt.Errorf("branch: empty branch name")
	}

	parentFP, err := canon.Fingerprint(canon.DomainProject, parent.CanonicalMap())
	if err != nil {
		return Result{}, fmt.Errorf("branch: fingerprint parent: %w", err)
	}

	b := parent.Clone()
	idMap := make(map[string]string)
	remap := func(old string) string {
		if old == "" {
			return ""
		}
		if fresh, ok := idMap[old]; ok {
			return fresh
		}
		return old
	}

	newProjectID := gen.NewID()
	for i := range b.Shots {
		idMap[b.Shots[i].ID] = gen.NewID()
	}
	for i := range b.Assets {
		idMap[b.Assets[i].ID] = gen.NewID()
	}
	for i := range b.Characters {
		idMap[b.Characters[i].ID] = gen.NewID()
	}
	for i := range b.Worlds {
		idMap[b.Worlds[i].ID] = gen.NewID()
	}
	for i := range b.Stories {
		idMap[b.Stories[i].ID] = gen.NewID()
	}

	for i := range b.Shots {
		s := &b.Shots[i]
		s.ID = idMap[s.ID]
		for j, aid := range s.AssetIDs {
			s.AssetIDs[j] = remap(aid)
		}
	}
	for i := range b.Assets {
		b.Assets[i].ID = idMap[b.Assets[i].ID]
	}
	for i := range b.Characters {
		b.Characters[i].ID = idMap[b.Characters[i].ID]
	}
	for i := range b.Worlds {
		b.Worlds[i].ID = idMap[b.Worlds[i].ID]
	}
	for i := range b.Stories {
		st := &b.Stories[i]
		st.ID = idMap[st.ID]
		st.WorldID = remap(st.WorldID)
		for j, cid := range st.CharacterIDs {
			st.CharacterIDs[j] = remap(cid)
		}
	}
	b.SelectedShotID = remap(b.SelectedShotID)

	b.Project = entity.Project{
		ID:                newProjectID,
		Name:              name,
		Description:       parent.Project.Description,
		ParentID:          parent.Project.ID,
		ParentFingerprint: parentFP,
		CreatedAtMs:       createdAtMs,
	}

	lineageFP, err := canon.Fingerprint(canon.DomainBranch, map[string]any{
		"parent_id":          parent.Project.ID,
		"parent_fingerprint": parentFP,
		"child_id":           newProjectID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("branch: fingerprint lineage: %w", err)
	}

	return Result{
		Bundle:             b,
		ParentFingerprint:  parentFP,
		LineageFingerprint: lineageFP,
	}, nil
}

// VerifyLineage checks that a child's recorded parent fingerprint matches
// an actual parent bundle. Returns nil when the parent's current content
// fingerprints to the recorded value.
func VerifyLineage(child entity.Project, parent entity.Bundle) error {
	if child.ParentID == "" {
		return fmt.Errorf("project %s is not a branch", child.ID)
	}
	if child.ParentID != parent.Project.ID {
		return fmt.Errorf("project %s branched from %s, not %s",
			child.ID, child.ParentID, parent.Project.ID)
	}
	fp, err := canon.Fingerprint(canon.DomainProject, parent.CanonicalMap())
	if err != nil {
		return fmt.Errorf("fingerprint parent: %w", err)
	}
	if fp != child.ParentFingerprint {
		return fmt.Errorf("parent %s content diverged from fork point", parent.Project.ID)
	}
	return nil
}
