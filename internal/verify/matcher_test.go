package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterNoise(t *testing.T) {
	in := []string{
		"Large Pepperoni",
		"Subtotal",
		"Remove All",
		"$14.99",
		"$5",
		"Garlic Knots",
		"ORDER COMPLETE",
		"  ",
		"Combo for $9.99", // price embedded in an item line survives
	}
	assert.Equal(t,
		[]string{"Large Pepperoni", "Garlic Knots", "Combo for $9.99"},
		FilterNoise(in))
}

func TestIsBarePrice(t *testing.T) {
	assert.True(t, isBarePrice("$14.99"))
	assert.True(t, isBarePrice("$5"))
	assert.False(t, isBarePrice("$9.99 combo"))
	assert.False(t, isBarePrice("14.99"))
	assert.False(t, isBarePrice("$"))
}

func TestMatcherFindsFullOrder(t *testing.T) {
	m := NewItemMatcher(0.6)
	screen := []string{
		"Large Pepperoni",
		"Extra Cheese",
		"Garlic Knots",
		"1 Order of Breadsticks",
	}
	expected := []string{
		"1 Large Pepperoni Pizza with Extra Cheese",
		"Garlic Knots",
		"1 Order of Breadsticks",
	}

	matched, missing := m.Match(expected, screen)
	assert.Equal(t, expected, matched)
	assert.Empty(t, missing)
	assert.Equal(t, 100, Score(len(matched), len(expected)))
}

func TestMatcherMissingItem(t *testing.T) {
	m := NewItemMatcher(0.6)
	screen := []string{"Large Pepperoni"}

	matched, missing := m.Match([]string{"Diet Pepsi"}, screen)
	assert.Empty(t, matched)
	assert.Equal(t, []string{"Diet Pepsi"}, missing)
	assert.Equal(t, 0, Score(len(matched), 1))
}

func TestMatcherPluralSingularFold(t *testing.T) {
	m := NewItemMatcher(0.6)

	matched, _ := m.Match([]string{"Garlic Knots"}, []string{"Garlic Knot"})
	assert.Len(t, matched, 1)

	matched, _ = m.Match([]string{"Breadstick"}, []string{"Breadsticks"})
	assert.Len(t, matched, 1)
}

func TestMatcherSizeAbbreviations(t *testing.T) {
	m := NewItemMatcher(0.6)
	// "Lg" on screen folds to "large" and matches the spoken size.
	matched, _ := m.Match([]string{"1 Large Pepperoni Pizza"}, []string{"1 Lg Pepperoni"})
	assert.Len(t, matched, 1)
}

func TestMatcherPartialRatio(t *testing.T) {
	m := NewItemMatcher(0.6)
	// "large supreme deluxe feast": only 2 of 4 keywords on screen, below 0.6.
	matched, missing := m.Match(
		[]string{"large supreme deluxe feast"},
		[]string{"Large Supreme"},
	)
	assert.Empty(t, matched)
	assert.Len(t, missing, 1)
}

func TestMatcherVacuousItem(t *testing.T) {
	m := NewItemMatcher(0.6)
	// Only stop words: nothing meaningful to check, so it counts as present.
	matched, missing := m.Match([]string{"1 of the"}, []string{"anything"})
	assert.Len(t, matched, 1)
	assert.Empty(t, missing)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 0, Score(0, 0))
	assert.Equal(t, 33, Score(1, 3))
	assert.Equal(t, 66, Score(2, 3))
	assert.Equal(t, 100, Score(3, 3))
}
