package pptx

import (
	"fmt"

	"pollkit/internal/services"
)

// RelPlan is the outcome of renumbering the presentation document's
// relationship graph. Identifiers are contiguous from 1 with no collisions;
// Remap records every pre-existing identifier's new value so inline
// references elsewhere in the document can be rewritten consistently.
type RelPlan struct {
	Rels  []Relationship
	Remap map[string]string

	// MasterID is the pinned identifier of the slide master relationship.
	MasterID string
	// IntroIDs, ExistingSlideIDs and QuestionIDs hold the final slide
	// identifiers in document order for rebuilding the slide-order list.
	IntroIDs         []string
	ExistingSlideIDs []string
	QuestionIDs      []string
}

// RebuildDocumentRels renumbers the presentation document's relationship list
// around newly inserted slides.
//
// slideOrder lists the old identifiers of pre-existing slides in their
// document order. introTargets and questionTargets name the new slide parts,
// relative to the document part, in insertion order. The resulting identifier
// space is: master first, intro slides next, pre-existing slides in relative
// order, question slides appended, then every remaining pre-existing
// relationship carried forward.
func RebuildDocumentRels(existing []Relationship, slideOrder []string, introTargets, questionTargets []string) (*RelPlan, error) {
	byID := make(map[string]Relationship, len(existing))
	for _, rel := range existing {
		if _, dup := byID[rel.ID]; dup {
			return nil, services.Wrap(services.ErrCorrupt, "rels", "rebuild", fmt.Sprintf("duplicate relationship identifier %s", rel.ID), nil)
		}
		byID[rel.ID] = rel
	}

	plan := &RelPlan{Remap: make(map[string]string, len(existing))}
	assigned := make(map[string]bool, len(existing))
	next := 1

	allocate := func() string {
		id := RelID(next)
		next++
		return id
	}

	// The master/style relationship is pinned to the first identifier.
	masterOldID := ""
	for _, rel := range existing {
		if rel.Kind() == KindMaster {
			masterOldID = rel.ID
			break
		}
	}
	if masterOldID == "" {
		return nil, services.Wrap(services.ErrCorrupt, "rels", "rebuild", "document has no slide master relationship", nil)
	}
	master := byID[masterOldID]
	newMasterID := allocate()
	plan.MasterID = newMasterID
	plan.Remap[masterOldID] = newMasterID
	assigned[masterOldID] = true
	plan.Rels = append(plan.Rels, Relationship{ID: newMasterID, Type: master.Type, Target: master.Target, ReplacesID: masterOldID})

	for _, target := range introTargets {
		id := allocate()
		plan.IntroIDs = append(plan.IntroIDs, id)
		plan.Rels = append(plan.Rels, Relationship{ID: id, Type: RelTypeSlide, Target: target})
	}

	for _, oldID := range slideOrder {
		rel, ok := byID[oldID]
		if !ok {
			return nil, services.Wrap(services.ErrCorrupt, "rels", "rebuild", fmt.Sprintf("slide-order entry %s has no relationship", oldID), nil)
		}
		if rel.Kind() != KindSlide {
			return nil, services.Wrap(services.ErrCorrupt, "rels", "rebuild", fmt.Sprintf("slide-order entry %s is not a slide relationship", oldID), nil)
		}
		id := allocate()
		plan.ExistingSlideIDs = append(plan.ExistingSlideIDs, id)
		plan.Remap[oldID] = id
		assigned[oldID] = true
		plan.Rels = append(plan.Rels, Relationship{ID: id, Type: rel.Type, Target: rel.Target, ReplacesID: oldID})
	}

	for _, target := range questionTargets {
		id := allocate()
		plan.QuestionIDs = append(plan.QuestionIDs, id)
		plan.Rels = append(plan.Rels, Relationship{ID: id, Type: RelTypeSlide, Target: target})
	}

	// Carry forward everything not already assigned, in original order.
	for _, rel := range existing {
		if assigned[rel.ID] {
			continue
		}
		id := allocate()
		plan.Remap[rel.ID] = id
		assigned[rel.ID] = true
		plan.Rels = append(plan.Rels, Relationship{ID: id, Type: rel.Type, Target: rel.Target, ReplacesID: rel.ID})
	}

	return plan, nil
}
