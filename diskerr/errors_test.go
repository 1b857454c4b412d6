package diskerr_test

import (
	"errors"
	"testing"

	"github.com/oxleyfs/fat32/diskerr"
	"github.com/stretchr/testify/assert"
)

func TestWithMessage(t *testing.T) {
	err := diskerr.ErrNoSpaceLeft.WithMessage("cluster 9001")
	assert.Equal(t, "no space left on device: cluster 9001", err.Error())
	assert.ErrorIs(t, err, diskerr.ErrNoSpaceLeft)
}

func TestWrapError(t *testing.T) {
	cause := errors.New("device offline")
	err := diskerr.ErrReadFailed.WrapError(cause)
	assert.Equal(t, "read failed: device offline", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestChainedWithMessage(t *testing.T) {
	err := diskerr.ErrInvalidPartition.WithMessage("bad signature").WithMessage("volume 0")
	assert.Contains(t, err.Error(), "bad signature")
	assert.Contains(t, err.Error(), "volume 0")
}

func TestCustom(t *testing.T) {
	err := diskerr.Custom("logic error: prev slot not free")
	assert.Equal(t, "logic error: prev slot not free", err.Error())
}
