package program

import (
	"testing"

	"github.com/Ali3911/Joompa-Gym-App/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMatchCombinationFirstSubsetWins(t *testing.T) {
	barbell := primitive.NewObjectID()
	rack := primitive.NewObjectID()
	dumbbell := primitive.NewObjectID()

	entry := &domain.CatalogEntry{
		Combinations: []domain.EquipmentCombination{
			{Name: "Barbell + Rack", Equipment: []domain.EquipmentRef{{ID: barbell}, {ID: rack}}},
			{Name: "Dumbbells", Equipment: []domain.EquipmentRef{{ID: dumbbell}}},
		},
	}

	owned := map[primitive.ObjectID]struct{}{dumbbell: {}}
	combination, ok := MatchCombination(entry, owned)
	require.True(t, ok)
	assert.Equal(t, "Dumbbells", combination.Name)

	// With everything owned the earliest-authored combination wins.
	owned = map[primitive.ObjectID]struct{}{barbell: {}, rack: {}, dumbbell: {}}
	combination, ok = MatchCombination(entry, owned)
	require.True(t, ok)
	assert.Equal(t, "Barbell + Rack", combination.Name)

	_, ok = MatchCombination(entry, map[primitive.ObjectID]struct{}{barbell: {}})
	assert.False(t, ok)
}

func TestInjuryConflicts(t *testing.T) {
	knee := primitive.NewObjectID()
	shoulder := primitive.NewObjectID()

	entry := &domain.CatalogEntry{
		Injuries: []domain.InjuryRef{
			{InjuryID: knee, InjuryTypeID: primitive.NewObjectID(), Name: "Knee"},
			{InjuryID: knee, InjuryTypeID: primitive.NewObjectID(), Name: "Knee"},
			{InjuryID: shoulder, InjuryTypeID: primitive.NewObjectID(), Name: "Shoulder"},
		},
	}

	// Matching is by injury id only; the type does not narrow it, and
	// duplicate exclusion rows collapse to one conflict.
	conflicts := InjuryConflicts(entry, []domain.InjurySelection{
		{InjuryID: knee, InjuryTypeID: primitive.NewObjectID()},
	})
	assert.Equal(t, []string{"Knee"}, conflicts)

	assert.Empty(t, InjuryConflicts(entry, nil))
}

func TestCheckEligibility(t *testing.T) {
	dumbbell := primitive.NewObjectID()
	knee := primitive.NewObjectID()

	entry := &domain.CatalogEntry{
		Exercise: "Lunge",
		Combinations: []domain.EquipmentCombination{
			{Name: "Dumbbells", Equipment: []domain.EquipmentRef{{ID: dumbbell}}},
		},
		Injuries: []domain.InjuryRef{{InjuryID: knee, Name: "Knee"}},
	}
	profile := &domain.UserProfile{
		Equipment: []domain.EquipmentHolding{{EquipmentID: dumbbell}},
		Injuries:  []domain.InjurySelection{{InjuryID: knee, InjuryTypeID: primitive.NewObjectID()}},
	}

	// Non-personalized programs ignore injuries.
	combination, reason := CheckEligibility(entry, profile, false, false)
	require.Empty(t, reason)
	assert.Equal(t, "Dumbbells", combination.Name)

	// Personalized programs reject on injury conflicts.
	_, reason = CheckEligibility(entry, profile, false, true)
	assert.Contains(t, reason, "Knee")

	// Bodyweight entries skip the equipment check and carry no combination.
	bare := &domain.UserProfile{}
	combination, reason = CheckEligibility(entry, bare, true, false)
	assert.Empty(t, reason)
	assert.Nil(t, combination)

	// No matching equipment is a rejection.
	_, reason = CheckEligibility(entry, bare, false, false)
	assert.Contains(t, reason, "no equipment combination")
}
