package main

import (
	"errors"
	"testing"

	"expedientes_app_go/models"

	"github.com/stretchr/testify/assert"
)

func TestFailureReason(t *testing.T) {
	err := errors.New("failed to record sync run: database is locked")

	assert.Equal(t, "La estructura del portal cambió", failureReason(&models.SyncRun{Message: "La estructura del portal cambió"}, err))
	assert.Equal(t, err.Error(), failureReason(&models.SyncRun{Status: models.SyncStatusSuccess}, err))
	assert.Equal(t, err.Error(), failureReason(nil, err))
}
