package main

import "testing"

func TestRootCmdHasAllSubcommands(t *testing.T) {
	root := newRootCmd()

	want := []string{"login", "list", "status", "submit", "download", "localrun"}

	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmdSilencesCobraNoise(t *testing.T) {
	root := newRootCmd()
	if !root.SilenceUsage || !root.SilenceErrors {
		t.Fatal("root command should silence cobra usage/error output")
	}
}
