package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatISTShiftsFromUTC(t *testing.T) {
	utc := time.Date(2024, 3, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-04-01 01:30:00", FormatIST(utc, DateTimeLayout))
}

func TestNowIsInIST(t *testing.T) {
	_, offset := Now().Zone()
	assert.Equal(t, 5*60*60+30*60, offset)
}
