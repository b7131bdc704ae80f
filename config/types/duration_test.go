package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("12s")))
	require.Equal(t, 12*time.Second, d.Duration)

	require.Error(t, d.UnmarshalText([]byte("twelve")))
}

func TestDurationMarshalText(t *testing.T) {
	d := NewDuration(90 * time.Second)
	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "1m30s", string(text))
}
