package main

import "testing"

func TestConfigDirFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"run", "a.json"}, ""},
		{[]string{"--config", "/tmp/c", "run"}, "/tmp/c"},
		{[]string{"run", "--config=/etc/collar", "a.json"}, "/etc/collar"},
		{[]string{"run", "--config"}, ""},
	}
	for _, tt := range tests {
		if got := configDirFromArgs(tt.args); got != tt.want {
			t.Errorf("configDirFromArgs(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
