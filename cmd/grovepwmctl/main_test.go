package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestNeedsSocket(t *testing.T) {
	root := &cobra.Command{Use: "grovepwmctl"}
	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	completion.AddCommand(bash)

	commands := map[string]*cobra.Command{
		"speed":      {Use: "speed SPEED_1 SPEED_2"},
		"monitor":    {Use: "monitor"},
		"version":    {Use: "version"},
		"help":       {Use: "help [command]"},
		"__complete": {Use: cobra.ShellCompRequestCmd},
	}
	for _, c := range commands {
		root.AddCommand(c)
	}
	root.AddCommand(completion)

	assert.True(t, needsSocket(commands["speed"]))
	assert.True(t, needsSocket(commands["monitor"]))
	assert.False(t, needsSocket(commands["version"]))
	assert.False(t, needsSocket(commands["help"]))
	assert.False(t, needsSocket(commands["__complete"]))
	assert.False(t, needsSocket(completion))
	assert.False(t, needsSocket(bash))
}
