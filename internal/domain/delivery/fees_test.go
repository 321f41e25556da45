package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/ClaimBridge/pkg/errors"
)

func TestFeeKnownDistricts(t *testing.T) {
	fee, err := Fee("Central", "Kampala")
	assert.NoError(t, err)
	assert.Equal(t, int64(8000), fee)

	fee, err = Fee("Western", "Mbarara")
	assert.NoError(t, err)
	assert.Equal(t, int64(15000), fee)
}

func TestFeeDeterministic(t *testing.T) {
	first, err := Fee("Central", "Kampala")
	assert.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Fee("Central", "Kampala")
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFeeUnknownRegion(t *testing.T) {
	_, err := Fee("Atlantis", "Kampala")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRegion))
}

func TestFeeDistrictOutsideRegion(t *testing.T) {
	_, err := Fee("Central", "NotADistrict")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDistrict))

	// Gulu is a real district but belongs to Northern, not Central.
	_, err = Fee("Central", "Gulu")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDistrict))
}

func TestRegionsTableShape(t *testing.T) {
	rs := Regions()
	assert.Len(t, rs, 5)
	for _, r := range rs {
		assert.Len(t, r.Districts, 4)
		assert.GreaterOrEqual(t, r.BaseFee, int64(8000))
		assert.LessOrEqual(t, r.BaseFee, int64(15000))
	}
}
