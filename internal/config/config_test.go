package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "missing token",
			cfg:     Config{GitHub: GitHubConfig{Org: "acme"}},
			wantErr: true,
		},
		{
			name:    "missing org and owner",
			cfg:     Config{GitHub: GitHubConfig{Token: "t"}},
			wantErr: true,
		},
		{
			name: "org only",
			cfg:  Config{GitHub: GitHubConfig{Token: "t", Org: "acme"}},
		},
		{
			name: "owner only",
			cfg:  Config{GitHub: GitHubConfig{Token: "t", Owner: "alice"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePairs(t *testing.T) {
	got := parsePairs("zotho=Svyatoslav, khssnv = Alisher,broken,=x,y=")
	want := map[string]string{"zotho": "Svyatoslav", "khssnv": "Alisher"}
	if len(got) != len(want) {
		t.Fatalf("parsePairs = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("parsePairs[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseCommaList(t *testing.T) {
	got := parseCommaList(" In Progress , Review ,,Done ")
	want := []string{"In Progress", "Review", "Done"}
	if len(got) != len(want) {
		t.Fatalf("parseCommaList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("parseCommaList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOwnerLogin(t *testing.T) {
	g := GitHubConfig{Org: "acme", Owner: "alice"}
	if g.OwnerLogin() != "acme" {
		t.Error("org should take precedence over owner")
	}
	g.Org = ""
	if g.OwnerLogin() != "alice" {
		t.Error("owner should be used when org is empty")
	}
}
