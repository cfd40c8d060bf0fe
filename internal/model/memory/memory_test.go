package memory

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftValidateNormalizes(t *testing.T) {
	d, err := Draft{
		Title:        "  A breakthrough moment ",
		Description:  " talked it through ",
		Feelings:     []string{"proud", "brave", "proud"},
		SpecialDates: []string{"2024-05-01", "2024-05-01", "2024-06-12"},
	}.Validate()
	require.NoError(t, err)

	assert.Equal(t, "A breakthrough moment", d.Title)
	assert.Equal(t, "talked it through", d.Description)
	assert.Equal(t, []string{"proud", "brave"}, d.Feelings)
	assert.Equal(t, []string{"2024-05-01", "2024-06-12"}, d.SpecialDates)
}

func TestDraftValidateRequiresTitle(t *testing.T) {
	_, err := Draft{Title: "   "}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please add a title", verr.Fields["title"])
}

func TestDraftValidateLengthsAndVocabulary(t *testing.T) {
	_, err := Draft{
		Title:        strings.Repeat("t", MaxTitleLength+1),
		Description:  strings.Repeat("d", MaxDescriptionLength+1),
		Feelings:     []string{"happy", "furious"},
		SpecialDates: []string{"05/01/2024"},
	}.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields["feelings"], "furious")
	assert.Contains(t, verr.Fields["specialDates"], "05/01/2024")
}

func TestDraftValidateAcceptsLimits(t *testing.T) {
	_, err := Draft{
		Title:       strings.Repeat("t", MaxTitleLength),
		Description: strings.Repeat("d", MaxDescriptionLength),
	}.Validate()
	require.NoError(t, err)
}
