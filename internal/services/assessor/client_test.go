package assessor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUploadSendsAllFilesInOneRequest(t *testing.T) {
	var requests int
	var names []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for _, header := range r.MultipartForm.File["files"] {
			names = append(names, header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = client.Upload(context.Background(),
		File{Name: "100042.pdf", Data: []byte("a")},
		File{Name: "100043.pdf", Data: []byte("b")},
	)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1", requests)
	}
	if len(names) != 2 || names[0] != "100042.pdf" || names[1] != "100043.pdf" {
		t.Fatalf("filenames = %v", names)
	}
}

func TestUploadRejectsOversizedBatch(t *testing.T) {
	client, err := New(Config{Endpoint: "http://127.0.0.1:0", MaxBatchFiles: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	files := []File{
		{Name: "a.pdf", Data: []byte("a")},
		{Name: "b.pdf", Data: []byte("b")},
		{Name: "c.pdf", Data: []byte("c")},
	}
	if err := client.Upload(context.Background(), files...); err == nil {
		t.Fatal("expected batch limit error")
	}
}

func TestUploadRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "storage full", http.StatusInsufficientStorage)
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.Upload(context.Background(), File{Name: "a.pdf", Data: []byte("a")})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestUploadRejectsNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.Upload(context.Background(), File{Name: "a.pdf", Data: []byte("a")})
	if err == nil {
		t.Fatal("expected error for non-JSON response body")
	}
}

func TestUploadRequiresFiles(t *testing.T) {
	client, err := New(Config{Endpoint: "http://127.0.0.1:0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Upload(context.Background()); err == nil {
		t.Fatal("expected error for empty file list")
	}
}
