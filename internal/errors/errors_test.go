package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilderDefaults(t *testing.T) {
	t.Parallel()

	ee := Newf("something went wrong").Build()

	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, "something went wrong", ee.Error())
	assert.False(t, ee.Timestamp.IsZero())
}

func TestErrorBuilderFull(t *testing.T) {
	t.Parallel()

	ee := Newf("gene %q needs %d wells", "Gapdh", 400).
		Component("planner").
		Category(CategoryAllocation).
		Context("gene", "Gapdh").
		Context("wells", 400).
		Build()

	assert.Equal(t, "planner", ee.Component)
	assert.Equal(t, CategoryAllocation, ee.Category)
	assert.Equal(t, `gene "Gapdh" needs 400 wells`, ee.Error())

	ctx := ee.GetContext()
	require.NotNil(t, ctx)
	assert.Equal(t, "Gapdh", ctx["gene"])
	assert.Equal(t, 400, ctx["wells"])

	// Returned context must be a copy.
	ctx["gene"] = "mutated"
	assert.Equal(t, "Gapdh", ee.GetContext()["gene"])
}

func TestErrorChainMatching(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("no samples resolvable")
	wrapped := New(fmt.Errorf("parse failed: %w", sentinel)).
		Component("planner").
		Category(CategoryValidation).
		Build()

	assert.True(t, Is(wrapped, sentinel), "sentinel must be reachable through the wrap chain")

	var ee *EnhancedError
	require.True(t, As(wrapped, &ee))
	assert.Equal(t, CategoryValidation, ee.Category)
}

func TestCategoryMatching(t *testing.T) {
	t.Parallel()

	a := Newf("first").Category(CategoryConfiguration).Build()
	b := Newf("second").Category(CategoryConfiguration).Build()
	c := Newf("third").Category(CategoryValidation).Build()

	assert.True(t, Is(a, b), "same category enhanced errors should match")
	assert.False(t, Is(a, c), "different category enhanced errors should not match")
}
