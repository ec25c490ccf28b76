package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mkravets/product-search-assistant/internal/core/domain"
)

func sampleProducts() ([]domain.Product, [][]float32) {
	products := []domain.Product{
		{ID: 1, Title: "Essence Mascara", Brand: "Essence", Category: "beauty", Price: 9.99, Rating: 4.9, Stock: 5, Thumbnail: "https://cdn/1.png"},
		{ID: 2, Title: "Red Lipstick", Brand: "Chic", Category: "beauty", Price: 12.99, Rating: 4.2, Stock: 68, Thumbnail: "https://cdn/2.png"},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	return products, vectors
}

func TestUpsertProductsEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/products":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/products/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "products")
	products, vectors := sampleProducts()

	if err := client.UpsertProducts(context.Background(), products, vectors); err != nil {
		t.Fatalf("first UpsertProducts() error = %v", err)
	}
	if err := client.UpsertProducts(context.Background(), products, vectors); err != nil {
		t.Fatalf("second UpsertProducts() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestUpsertProductsRejectsVectorMismatch(t *testing.T) {
	client := New("http://unused", "products")
	products, _ := sampleProducts()
	err := client.UpsertProducts(context.Background(), products, [][]float32{{0.1}})
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestSearchRebuildsProductsFromPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/products/points/search" {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["limit"].(float64) != 50 {
			t.Errorf("expected limit 50, got %v", req["limit"])
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.92,"payload":{"id":7,"title":"Eau De Parfum","description":"floral","brand":"Dior","category":"fragrances","price":89.99,"rating":4.7,"stock":12,"thumbnail":"https://cdn/7.png"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "products")
	products, err := client.Search(context.Background(), []float32{0.1, 0.2}, 50)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	p := products[0]
	if p.ID != 7 || p.Title != "Eau De Parfum" || p.Price != 89.99 || p.Stock != 12 {
		t.Fatalf("payload mapping broken: %+v", p)
	}
}

func TestSearchPropagatesBackendStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "products")
	if _, err := client.Search(context.Background(), []float32{0.1}, 10); err == nil {
		t.Fatalf("expected error")
	}
}
