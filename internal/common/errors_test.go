package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{ErrorNotFound, ErrConflict, ErrClientInput, ErrStoreQuery, ErrIndexQuery, ErrIndexPartial, ErrorInternal}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("%w: select page: %w", ErrStoreQuery, errors.New("conn reset"))
	assert.ErrorIs(t, err, ErrStoreQuery)
	assert.Contains(t, err.Error(), "conn reset")
}
