package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"token-risk-engine/internal/domain"
)

func TestAlchemyClient_ContractInfo(t *testing.T) {
	ownerWord := "0x000000000000000000000000abcdef0123456789abcdef0123456789abcdef01"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		var result string
		switch req.Method {
		case "eth_getCode":
			result = "0x6080604052"
		case "eth_call":
			result = ownerWord
		default:
			t.Errorf("unexpected method %s", req.Method)
		}

		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	defer server.Close()

	limiter, respCache := newTestDeps(t)
	client := NewAlchemyClient(map[domain.Chain]string{domain.ChainEthereum: server.URL}, limiter, respCache)

	info, err := client.ContractInfo(context.Background(), domain.ChainEthereum, "0xabc0000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("ContractInfo: %v", err)
	}

	if !info.HasCode {
		t.Error("expected HasCode")
	}
	if info.CodeSize != 5 {
		t.Errorf("CodeSize = %d, want 5", info.CodeSize)
	}
	if info.Owner != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Errorf("Owner = %s", info.Owner)
	}
}

func TestAlchemyClient_NoCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "eth_getCode" {
			t.Errorf("unexpected call %s for codeless address", req.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x"})
	}))
	defer server.Close()

	limiter, respCache := newTestDeps(t)
	client := NewAlchemyClient(map[domain.Chain]string{domain.ChainBase: server.URL}, limiter, respCache)

	info, err := client.ContractInfo(context.Background(), domain.ChainBase, "0xabc0000000000000000000000000000000000002")
	if err != nil {
		t.Fatalf("ContractInfo: %v", err)
	}
	if info.HasCode {
		t.Error("expected no code")
	}
}

func TestDecodeAddressWord(t *testing.T) {
	got := decodeAddressWord("0x000000000000000000000000ABCDEF0123456789abcdef0123456789abcdef01")
	if got != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Errorf("decodeAddressWord = %s", got)
	}
	if decodeAddressWord("0x1234") != "" {
		t.Error("short word should decode to empty")
	}
}
