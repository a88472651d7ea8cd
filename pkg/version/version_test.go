package version

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Run("build-time version wins", func(t *testing.T) {
		orig := Version
		defer func() { Version = orig }()

		Version = "v1.2.3"
		assert.Equal(t, "v1.2.3", Get())
	})

	t.Run("dev fallback", func(t *testing.T) {
		orig := Version
		defer func() { Version = orig }()

		Version = "dev"
		assert.NotEmpty(t, Get())
	})
}

func TestCommand(t *testing.T) {
	cmd := Command()
	require.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)

	root := &cobra.Command{Use: "top2000tospotify"}
	root.AddCommand(cmd)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, []string{})

	assert.Contains(t, out.String(), "top2000tospotify")
	assert.Contains(t, out.String(), Get())
}
