package node

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"distcache/internal/config"
)

func singleNodeConfig() config.Config {
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.AdvertiseAddr = "127.0.0.1:7999" // placeholder identity, no peers
	cfg.Capacity = 16
	cfg.Workers = 2
	return cfg
}

func TestNode_StartServesAndStops(t *testing.T) {
	n, err := New(singleNodeConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.Stop(ctx); err != nil {
			t.Errorf("Stop: %v", err)
		}
	}()

	base := "http://" + n.Addr()

	put, err := http.NewRequest(http.MethodPut, base+"/cache/greeting", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(put)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(base + "/cache/greeting")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"value":"hello"`) {
		t.Errorf("get body = %s", body)
	}

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", resp.StatusCode)
	}
}

func TestNode_RejectsInvalidConfig(t *testing.T) {
	cfg := singleNodeConfig()
	cfg.Policy = "random"
	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted invalid policy")
	}
}

func TestNode_AddrEmptyBeforeStart(t *testing.T) {
	n, err := New(singleNodeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Addr(); got != "" {
		t.Fatalf("Addr before Start = %q, want empty", got)
	}
}

func TestNode_StopUnblocksWait(t *testing.T) {
	n, err := New(singleNodeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Start(); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- n.Wait() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Stop")
	}
}
