package backend

import "testing"

func TestPlayersResponse_SnapshotsMergesByName(t *testing.T) {
	resp := PlayersResponse{
		Players: map[string]Player{
			"kitchen": {Device: "hw:0,0", Volume: 40},
			"attic":   {Name: "attic", Device: "hw:1,0", Volume: 80},
		},
		Statuses: map[string]bool{
			"kitchen": true,
		},
	}

	got := resp.Snapshots()
	if len(got) != 2 {
		t.Fatalf("Snapshots returned %d players, want 2", len(got))
	}
	if got[0].Name != "attic" || got[1].Name != "kitchen" {
		t.Fatalf("Snapshots order = %q, %q, want name-sorted", got[0].Name, got[1].Name)
	}
	if !got[1].Running {
		t.Fatalf("kitchen should be running")
	}
	if got[0].Running {
		t.Fatalf("attic should not be running")
	}
}

func TestBuildInfo_Identity(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{"explicit version wins", BuildInfo{Version: "abc123", BuildHash: "1234567890abcdef"}, "abc123"},
		{"hash fallback shortened", BuildInfo{BuildHash: "1234567890abcdef"}, "sha-1234567"},
		{"short hash kept whole", BuildInfo{BuildHash: "12345"}, "sha-12345"},
		{"whitespace version ignored", BuildInfo{Version: "  ", BuildHash: "1234567890abcdef"}, "sha-1234567"},
		{"empty", BuildInfo{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Identity(); got != tt.want {
				t.Errorf("Identity() = %q, want %q", got, tt.want)
			}
		})
	}
}
