package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetDate_Explicit(t *testing.T) {
	d, err := targetDate("2026-02-11")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC), d)
}

func TestTargetDate_DefaultIsYesterday(t *testing.T) {
	d, err := targetDate("")
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"), d.Format("2006-01-02"))
}

func TestTargetDate_Invalid(t *testing.T) {
	_, err := targetDate("02/11/2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}
