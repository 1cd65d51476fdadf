package draft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
)

// =============================================================================
// CRUD TESTS
// =============================================================================

func TestAddRelease_Defaults(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 30}
	r := draft.AddRelease(&a)

	require.Len(t, a.Releases, 1)
	assert.NotEmpty(t, r.ID)
	assert.True(t, r.ReleaseDate.IsZero())
	assert.Equal(t, draft.ReleasePercentage, r.ReleaseType)
	require.NotNil(t, r.Percentage)
	assert.True(t, r.Percentage.IsZero())
	assert.False(t, r.PenaltyApplies)
}

func TestAddRelease_IDsAreUnique(t *testing.T) {
	a := draft.Allocation{}
	first := draft.AddRelease(&a).ID
	second := draft.AddRelease(&a).ID
	assert.NotEqual(t, first, second)
}

func TestRemoveRelease(t *testing.T) {
	a := draft.Allocation{}
	r1 := draft.AddRelease(&a)
	r2 := draft.AddRelease(&a)

	require.NoError(t, draft.RemoveRelease(&a, r1.ID))
	require.Len(t, a.Releases, 1)
	assert.Equal(t, r2.ID, a.Releases[0].ID)

	assert.ErrorIs(t, draft.RemoveRelease(&a, "missing"), draft.ErrReleaseNotFound)
}

// =============================================================================
// DERIVATION TESTS
// =============================================================================

func TestSetReleasePercentage_DerivesFlooredQuantity(t *testing.T) {
	// GIVEN: 30 units
	// WHEN: A release is set to 33%
	// THEN: Quantity is floor(30 * 33 / 100) = 9

	a := draft.Allocation{TotalQuantity: 30}
	r := draft.AddRelease(&a)

	require.NoError(t, draft.SetReleasePercentage(&a, r.ID, dec(33)))

	rel := a.Releases[0]
	require.NotNil(t, rel.Quantity)
	assert.Equal(t, 9, *rel.Quantity)
	assert.True(t, rel.Percentage.Equal(dec(33)))
}

func TestSetReleaseQuantity_DerivesRoundedPercentage(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 30}
	r := draft.AddRelease(&a)

	require.NoError(t, draft.SetReleaseQuantity(&a, r.ID, 10))

	rel := a.Releases[0]
	require.NotNil(t, rel.Percentage)
	// round(10/30*100) = 33
	assert.True(t, rel.Percentage.Equal(dec(33)), "got %s", rel.Percentage)
}

func TestSetReleaseQuantity_ZeroTotal_LeavesPercentageAlone(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 0}
	r := draft.AddRelease(&a)
	before := *r.Percentage

	require.NoError(t, draft.SetReleaseQuantity(&a, r.ID, 5))

	rel := a.Releases[0]
	require.NotNil(t, rel.Quantity)
	assert.Equal(t, 5, *rel.Quantity)
	assert.True(t, rel.Percentage.Equal(before))
}

func TestSetReleaseType_Remaining_ClearsStaleFields(t *testing.T) {
	// Switching to remaining zeroes out the percentage/quantity pair; a
	// remaining release carries neither.
	a := draft.Allocation{TotalQuantity: 30}
	r := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleasePercentage(&a, r.ID, dec(50)))

	require.NoError(t, draft.SetReleaseType(&a, r.ID, draft.ReleaseRemaining))

	rel := a.Releases[0]
	assert.Equal(t, draft.ReleaseRemaining, rel.ReleaseType)
	assert.Nil(t, rel.Percentage)
	assert.Nil(t, rel.Quantity)
}

// =============================================================================
// AGGREGATE TESTS
// =============================================================================

func TestReleasedQuantity_MixedTypes(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 100}

	r1 := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleasePercentage(&a, r1.ID, dec(25))) // 25 units

	r2 := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleaseType(&a, r2.ID, draft.ReleaseQuantity))
	require.NoError(t, draft.SetReleaseQuantity(&a, r2.ID, 40))

	r3 := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleaseType(&a, r3.ID, draft.ReleaseRemaining))

	assert.Equal(t, 65, draft.ReleasedQuantity(&a))
	assert.Equal(t, 35, draft.RemainingQuantity(&a))
	assert.Equal(t, 65, draft.ReleasedPercent(&a))
}

func TestReleasedQuantity_OnlyRemaining_IsZero(t *testing.T) {
	// A lone remaining-type release contributes nothing to the released sum;
	// remaining quantity equals the full total.
	a := draft.Allocation{TotalQuantity: 30}
	r := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleaseType(&a, r.ID, draft.ReleaseRemaining))

	assert.Equal(t, 0, draft.ReleasedQuantity(&a))
	assert.Equal(t, 30, draft.RemainingQuantity(&a))
	assert.Equal(t, 0, draft.ReleasedPercent(&a))
}

func TestReleasedPercent_ZeroTotal(t *testing.T) {
	a := draft.Allocation{}
	assert.Equal(t, 0, draft.ReleasedPercent(&a))
}

func TestCheckReleases_WarnsWhenNoRemaining(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 30}
	r := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleasePercentage(&a, r.ID, dec(50)))

	warnings := draft.CheckReleases(&a)
	require.Len(t, warnings, 1)
	assert.Equal(t, "no_remaining_release", warnings[0].Code)
}

func TestCheckReleases_NoReleases_NoWarning(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 30}
	assert.Empty(t, draft.CheckReleases(&a))
}

func TestCheckReleases_WarnsWhenOverReleased(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 10}
	r1 := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleasePercentage(&a, r1.ID, dec(80)))
	r2 := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleaseType(&a, r2.ID, draft.ReleaseQuantity))
	require.NoError(t, draft.SetReleaseQuantity(&a, r2.ID, 8))
	r3 := draft.AddRelease(&a)
	require.NoError(t, draft.SetReleaseType(&a, r3.ID, draft.ReleaseRemaining))

	warnings := draft.CheckReleases(&a)
	require.Len(t, warnings, 1)
	assert.Equal(t, "released_exceeds_total", warnings[0].Code)
}

// =============================================================================
// SUGGESTED SCHEDULE TESTS
// =============================================================================

func TestSuggest_StandardCadence(t *testing.T) {
	// GIVEN: 30 units arriving 2025-06-01
	// WHEN: A schedule is suggested
	// THEN: 50% at -90d, 25% at -60d, remainder at -30d with penalty

	a := draft.Allocation{
		TotalQuantity: 30,
		ValidFrom:     draft.MustParseDate("2025-06-01"),
	}
	require.True(t, draft.Suggest(&a))
	require.Len(t, a.Releases, 3)

	first := a.Releases[0]
	assert.Equal(t, "2025-03-03", first.ReleaseDate.String())
	assert.Equal(t, draft.ReleasePercentage, first.ReleaseType)
	assert.True(t, first.Percentage.Equal(dec(50)))
	require.NotNil(t, first.Quantity)
	assert.Equal(t, 15, *first.Quantity)
	assert.False(t, first.PenaltyApplies)

	second := a.Releases[1]
	assert.Equal(t, "2025-04-02", second.ReleaseDate.String())
	assert.True(t, second.Percentage.Equal(dec(25)))
	require.NotNil(t, second.Quantity)
	assert.Equal(t, 7, *second.Quantity)
	assert.False(t, second.PenaltyApplies)

	third := a.Releases[2]
	assert.Equal(t, "2025-05-02", third.ReleaseDate.String())
	assert.Equal(t, draft.ReleaseRemaining, third.ReleaseType)
	assert.Nil(t, third.Percentage)
	assert.Nil(t, third.Quantity)
	assert.True(t, third.PenaltyApplies)
}

func TestSuggest_ReplacesExistingSchedule(t *testing.T) {
	a := draft.Allocation{
		TotalQuantity: 10,
		ValidFrom:     draft.MustParseDate("2025-06-01"),
	}
	draft.AddRelease(&a)
	draft.AddRelease(&a)

	require.True(t, draft.Suggest(&a))
	assert.Len(t, a.Releases, 3)
}

func TestSuggest_MissingPreconditions_NoOp(t *testing.T) {
	noDate := draft.Allocation{TotalQuantity: 30}
	assert.False(t, draft.Suggest(&noDate))
	assert.Empty(t, noDate.Releases)

	noQty := draft.Allocation{ValidFrom: draft.MustParseDate("2025-06-01")}
	assert.False(t, draft.Suggest(&noQty))
	assert.Empty(t, noQty.Releases)
}

// =============================================================================
// GENERIC UPDATE PATH
// =============================================================================

func TestUpdateRelease_Dispatch(t *testing.T) {
	a := draft.Allocation{TotalQuantity: 20}
	r := draft.AddRelease(&a)

	require.NoError(t, draft.UpdateRelease(&a, r.ID, draft.ReleaseFieldDate, "2025-04-01"))
	require.NoError(t, draft.UpdateRelease(&a, r.ID, draft.ReleaseFieldPercentage, 25.0))
	require.NoError(t, draft.UpdateRelease(&a, r.ID, draft.ReleaseFieldPenalty, true))
	require.NoError(t, draft.UpdateRelease(&a, r.ID, draft.ReleaseFieldNotes, "final cutoff"))

	rel := a.Releases[0]
	assert.Equal(t, "2025-04-01", rel.ReleaseDate.String())
	require.NotNil(t, rel.Quantity)
	assert.Equal(t, 5, *rel.Quantity)
	assert.True(t, rel.PenaltyApplies)
	assert.Equal(t, "final cutoff", rel.Notes)

	assert.ErrorIs(t,
		draft.UpdateRelease(&a, r.ID, draft.ReleaseField("bogus"), 1),
		draft.ErrUnknownField)
	assert.ErrorIs(t,
		draft.UpdateRelease(&a, "missing", draft.ReleaseFieldNotes, "x"),
		draft.ErrReleaseNotFound)
}
