package middleware

import "testing"

func TestValidateConfigUpdate(t *testing.T) {
	tests := []struct {
		name    string
		input   ConfigUpdateInput
		wantErr bool
	}{
		{"defaults", ConfigUpdateInput{TickSeconds: 1, HistorySize: 60}, false},
		{"named interface", ConfigUpdateInput{Interface: "eth0", TickSeconds: 1, HistorySize: 60}, false},
		{"zero tick", ConfigUpdateInput{TickSeconds: 0, HistorySize: 60}, true},
		{"huge tick", ConfigUpdateInput{TickSeconds: 4000, HistorySize: 60}, true},
		{"zero history", ConfigUpdateInput{TickSeconds: 1, HistorySize: 0}, true},
		{"interface with spaces", ConfigUpdateInput{Interface: "eth 0", TickSeconds: 1, HistorySize: 60}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			err := ValidateConfigUpdate(&input)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %+v", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateConfigUpdateCleansDiskPath(t *testing.T) {
	input := ConfigUpdateInput{DiskPath: " /var//log/../lib ", TickSeconds: 1, HistorySize: 60}
	if err := ValidateConfigUpdate(&input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.DiskPath != "/var/lib" {
		t.Fatalf("expected cleaned path /var/lib, got %q", input.DiskPath)
	}
}

func TestSanitizeStringStripsControlCharacters(t *testing.T) {
	if got := SanitizeString("eth0\x00\x01  "); got != "eth0" {
		t.Fatalf("expected eth0, got %q", got)
	}
}
