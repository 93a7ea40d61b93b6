package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/odyssey-auth/testing"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"createsuperuser"},
		{"jobs", "purge-revocations"},
		{"jobs", "stats"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestCreateSuperuserFlags(t *testing.T) {
	cmd := newCreateSuperuserCommand()

	for _, name := range []string{"username", "email", "password", "role", "staff", "superuser", "json"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "true", cmd.Flags().Lookup("staff").DefValue)
	assert.Equal(t, "true", cmd.Flags().Lookup("superuser").DefValue)
}

func TestServeSkipsInTestMode(t *testing.T) {
	require.NoError(t, runServe(context.Background(), false))
}

func TestExitCode(t *testing.T) {
	assert.NoError(t, exitCode(0))

	err := exitCode(2)
	var code exitError
	require.ErrorAs(t, err, &code)
	assert.Equal(t, exitError(2), code)
	assert.Equal(t, "exit status 2", err.Error())
}
