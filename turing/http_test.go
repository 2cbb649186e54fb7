package turing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouterBrightness(t *testing.T) {
	mock := &MockTransport{}
	srv := httptest.NewServer(NewRouter(NewScreen(mock)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/brightness", "application/json", strings.NewReader(`{"int": 80}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	// sync preamble, then the brightness command
	if len(mock.Ops) != 2 || mock.Ops[0] != CmdSync || mock.Ops[1] != CmdBrightness {
		t.Errorf("opcode sequence %v, want [10 14]", mock.Ops)
	}
	if mock.Headers[1][8] != 80 {
		t.Errorf("brightness byte is %d, want 80", mock.Headers[1][8])
	}
}

func TestRouterBrightnessOutOfRange(t *testing.T) {
	mock := &MockTransport{}
	srv := httptest.NewServer(NewRouter(NewScreen(mock)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/brightness", "application/json", strings.NewReader(`{"int": 200}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
}

func TestRouterStorageInfo(t *testing.T) {
	mock := &MockTransport{Reply: func(op byte, _ []byte) []byte {
		resp := make([]byte, 512)
		resp[8] = 0x00
		resp[9] = 0x04 // 1024 KB total
		return resp
	}}
	srv := httptest.NewServer(NewRouter(NewScreen(mock)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/storage-info")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "1024") {
		t.Errorf("body %q does not report the total", buf[:n])
	}
}
