package models

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/ledgerlink/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestNewImportJobStartsFresh(t *testing.T) {
	job := NewImportJob()
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StateNew, job.State)
	require.NotNil(t, job.Configuration)
	require.NotNil(t, job.ConversionStatus)
}

func TestStateMachineOnlyMovesForward(t *testing.T) {
	job := NewImportJob()

	job.SetState(StateAwaitingCallback)
	assert.Equal(t, StateAwaitingCallback, job.State)

	job.SetState(StateAwaitingBankSelection)
	assert.Equal(t, StateAwaitingCallback, job.State, "regressions are refused")

	job.SetState(StateContainsContent)
	assert.Equal(t, StateContainsContent, job.State)

	job.SetState(StateContainsContent)
	assert.Equal(t, StateContainsContent, job.State, "setting the current state is a no-op")
}

func TestAddSessionIsAppendOnlyAndDeduplicated(t *testing.T) {
	config := NewConfiguration()
	config.AddSession("sess-1")
	config.AddSession("sess-2")
	config.AddSession("sess-1")
	config.AddSession("")
	assert.Equal(t, []string{"sess-1", "sess-2"}, config.Sessions)
}

func TestConversionStatusKeepsOrder(t *testing.T) {
	status := &ConversionStatus{}
	status.AddWarning(0, "first")
	status.AddWarning(2, "second")
	status.AddError(1, "fatal")

	require.Len(t, status.Warnings, 2)
	assert.Equal(t, "first", status.Warnings[0].Message)
	assert.Equal(t, 2, status.Warnings[1].Index)
	assert.True(t, status.HasErrors())
}
