package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "single peer",
			input: "127.0.0.1:7001",
			want:  []string{"127.0.0.1:7001"},
		},
		{
			name:  "multiple peers",
			input: "127.0.0.1:7001,127.0.0.1:7002,127.0.0.1:7003",
			want:  []string{"127.0.0.1:7001", "127.0.0.1:7002", "127.0.0.1:7003"},
		},
		{
			name:  "with spaces",
			input: " 127.0.0.1:7001 , 127.0.0.1:7002 ",
			want:  []string{"127.0.0.1:7001", "127.0.0.1:7002"},
		},
		{
			name:  "trailing comma",
			input: "127.0.0.1:7001,",
			want:  []string{"127.0.0.1:7001"},
		},
		{
			name:    "missing port",
			input:   "127.0.0.1",
			wantErr: true,
		},
		{
			name:    "bad port",
			input:   "127.0.0.1:notaport",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeers(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeers(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParsePeers(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestValidate_FillsDefaults(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := Default()
	want.AdvertiseAddr = want.ListenAddr
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaulted config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative capacity", func(c *Config) { c.Capacity = -1 }},
		{"unknown policy", func(c *Config) { c.Policy = "fifo" }},
		{"unknown strategy", func(c *Config) { c.Strategy = "eventual" }},
		{"quorum above rf", func(c *Config) { c.ReplicationFactor = 3; c.WriteQuorum = 4 }},
		{"bad timeout", func(c *Config) { c.RPCTimeout = "soon" }},
		{"bad advertise addr", func(c *Config) { c.AdvertiseAddr = "nohost" }},
		{"bad peer", func(c *Config) { c.Peers = []string{"10.0.0.1:7000", "bogus"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted invalid config")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	body := `
listen_addr: "127.0.0.1:7100"
peers:
  - "127.0.0.1:7101"
  - "127.0.0.1:7102"
replication_factor: 2
write_quorum: 2
strategy: sync
capacity: 64
policy: lfu
workers: 4
rpc_timeout: 500ms
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:7100" || cfg.Policy != "lfu" || cfg.Strategy != "sync" {
		t.Errorf("loaded config = %+v", cfg)
	}
	if cfg.Timeout().Milliseconds() != 500 {
		t.Errorf("Timeout() = %v, want 500ms", cfg.Timeout())
	}
	// Unset fields keep their defaults.
	if cfg.VNodes != Default().VNodes {
		t.Errorf("VNodes = %d, want default %d", cfg.VNodes, Default().VNodes)
	}
}

func TestBuildNodes(t *testing.T) {
	cfg := Default()
	cfg.AdvertiseAddr = "10.0.0.1:7000"
	cfg.Peers = []string{"10.0.0.2:7000", "10.0.0.1:7000", "10.0.0.3:7000"}

	nodes, err := cfg.BuildNodes()
	if err != nil {
		t.Fatalf("BuildNodes: %v", err)
	}

	var ids []string
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	want := []string{"10.0.0.1:7000", "10.0.0.2:7000", "10.0.0.3:7000"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if nodes[0].ID != "10.0.0.1:7000" {
		t.Errorf("self is not first: %s", nodes[0].ID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of missing file succeeded")
	}
}
