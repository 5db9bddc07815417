package program

import (
	"fmt"
	"strings"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchCombination scans the entry's equipment combinations in stored
// (creation) order and returns the first one whose equipment set is a subset
// of the user's owned equipment ids. The ordering contract matters: when
// several combinations fit, the earliest-authored one names the equipment on
// the resulting assignment.
func MatchCombination(entry *domain.CatalogEntry, owned map[primitive.ObjectID]struct{}) (*domain.EquipmentCombination, bool) {
	for i := range entry.Combinations {
		combination := &entry.Combinations[i]
		subset := true
		for _, ref := range combination.Equipment {
			if _, ok := owned[ref.ID]; !ok {
				subset = false
				break
			}
		}
		if subset {
			return combination, true
		}
	}
	return nil, false
}

// CheckEligibility decides whether a catalog entry can be prescribed for the
// profile. Bodyweight entries skip the equipment check entirely; the injury
// check only applies to personalized programs. A non-empty reason means the
// entry is rejected and the reason joins the day's diagnostics. The matched
// combination, nil for bodyweight entries, names the equipment on the
// resulting assignment.
func CheckEligibility(entry *domain.CatalogEntry, profile *domain.UserProfile, bodyweight, personalized bool) (*domain.EquipmentCombination, string) {
	var combination *domain.EquipmentCombination
	if !bodyweight {
		matched, ok := MatchCombination(entry, profile.OwnedEquipmentIDs())
		if !ok {
			return nil, fmt.Sprintf("no equipment combination for %s matches owned equipment", entry.Exercise)
		}
		combination = matched
	}
	if personalized {
		if conflicts := InjuryConflicts(entry, profile.Injuries); len(conflicts) > 0 {
			return nil, fmt.Sprintf("%s skipped due to %s", entry.Exercise, strings.Join(conflicts, ", "))
		}
	}
	return combination, ""
}

// InjuryConflicts returns the names of injuries shared between the entry's
// exclusion list and the user's reported injuries. Matching is by injury id
// only; the injury type does not narrow the exclusion.
func InjuryConflicts(entry *domain.CatalogEntry, injuries []domain.InjurySelection) []string {
	reported := make(map[primitive.ObjectID]struct{}, len(injuries))
	for _, inj := range injuries {
		reported[inj.InjuryID] = struct{}{}
	}
	var conflicts []string
	seen := map[primitive.ObjectID]struct{}{}
	for _, ref := range entry.Injuries {
		if _, ok := reported[ref.InjuryID]; !ok {
			continue
		}
		if _, dup := seen[ref.InjuryID]; dup {
			continue
		}
		seen[ref.InjuryID] = struct{}{}
		conflicts = append(conflicts, ref.Name)
	}
	return conflicts
}
